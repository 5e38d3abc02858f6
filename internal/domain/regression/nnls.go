package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/types/economy"
)

// machEps is the double-precision machine epsilon.
const machEps = 2.220446049250313e-16

// SolveNNLS solves
//
//	min ||A w - b||_2  subject to  w >= 0
//
// with the Lawson-Hanson active-set method.  The passive-set subproblems are
// solved through an SVD pseudo-inverse, so rank-deficient inputs (including
// the underdetermined rows < columns case after row filtering) yield a valid
// least-norm feasible point instead of an error.  All-zero columns never
// develop a positive gradient and stay at zero.
//
// Returns the solution, the number of inner iterations spent, and an error
// when the input is degenerate (EST_004) or the iteration budget is exhausted
// without convergence (EST_005).
func SolveNNLS(a mat.Matrix, b *mat.VecDense) (*mat.VecDense, int, error) {
	m, n := a.Dims()
	if m == 0 || n == 0 || b.Len() != m {
		return nil, 0, errors.Newf(errors.ErrCodeDegenerateMatrix,
			"cannot solve NNLS on a %dx%d system with %d targets", m, n, b.Len())
	}

	x := mat.NewVecDense(n, nil)
	passive := make([]bool, n)

	// Gradient entries below tol are treated as non-positive; scaled to the
	// problem following the classic Lawson-Hanson termination criterion.
	tol := 10 * machEps * mat.Norm(a, 1) * float64(m)

	maxIter := 3 * n
	iter := 0

	for {
		grad := gradient(a, b, x)

		// Most promising inactive coordinate.
		t := -1
		best := tol
		for j := 0; j < n; j++ {
			if !passive[j] && grad.AtVec(j) > best {
				best = grad.AtVec(j)
				t = j
			}
		}
		if t < 0 {
			return x, iter, nil
		}
		passive[t] = true

		for {
			iter++
			if iter > maxIter {
				return nil, iter, errors.Newf(errors.ErrCodeSolverNonConverged,
					"active-set iteration budget of %d exhausted", maxIter)
			}

			cols := passiveIndices(passive)
			if len(cols) == 0 {
				// Numerical edge: the newly added coordinate was immediately
				// pinned back to zero.  Re-evaluate the gradient.
				break
			}
			z := leastSquares(columnSubset(a, cols), b)
			if z == nil {
				return nil, iter, errors.New(errors.ErrCodeSolverNonConverged,
					"SVD factorization of the passive submatrix failed")
			}

			feasible := true
			for i := range cols {
				if z.AtVec(i) <= 0 {
					feasible = false
					break
				}
			}
			if feasible {
				for j := range passive {
					x.SetVec(j, 0)
				}
				for i, j := range cols {
					x.SetVec(j, z.AtVec(i))
				}
				break
			}

			// Step toward z only as far as feasibility allows, then drop the
			// coordinates pinned at zero from the passive set.
			alpha := math.Inf(1)
			for i, j := range cols {
				if zi := z.AtVec(i); zi <= 0 {
					if ratio := x.AtVec(j) / (x.AtVec(j) - zi); ratio < alpha {
						alpha = ratio
					}
				}
			}
			for i, j := range cols {
				x.SetVec(j, x.AtVec(j)+alpha*(z.AtVec(i)-x.AtVec(j)))
			}
			for _, j := range cols {
				if x.AtVec(j) <= tol {
					x.SetVec(j, 0)
					passive[j] = false
				}
			}
		}
	}
}

// gradient computes A^T (b - A x).
func gradient(a mat.Matrix, b, x *mat.VecDense) *mat.VecDense {
	var resid mat.VecDense
	resid.MulVec(a, x)
	resid.SubVec(b, &resid)
	var grad mat.VecDense
	grad.MulVec(a.T(), &resid)
	return &grad
}

func passiveIndices(passive []bool) []int {
	var cols []int
	for j, p := range passive {
		if p {
			cols = append(cols, j)
		}
	}
	return cols
}

// columnSubset copies the selected columns of a into a fresh dense matrix.
func columnSubset(a mat.Matrix, cols []int) *mat.Dense {
	r, _ := a.Dims()
	sub := mat.NewDense(r, len(cols), nil)
	for j, c := range cols {
		for i := 0; i < r; i++ {
			sub.Set(i, j, a.At(i, c))
		}
	}
	return sub
}

// leastSquares returns the minimum-norm solution of min ||A z - b||_2 via a
// truncated SVD pseudo-inverse.  Returns nil when the factorization fails.
func leastSquares(a *mat.Dense, b *mat.VecDense) *mat.VecDense {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil
	}

	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	rows, colsN := a.Dims()
	cutoff := 0.0
	for _, sv := range s {
		if sv > cutoff {
			cutoff = sv
		}
	}
	maxDim := rows
	if colsN > maxDim {
		maxDim = colsN
	}
	cutoff *= machEps * float64(maxDim)

	var c mat.VecDense
	c.MulVec(u.T(), b)

	scaled := mat.NewVecDense(len(s), nil)
	for i, sv := range s {
		if sv > cutoff {
			scaled.SetVec(i, c.AtVec(i)/sv)
		}
	}

	var z mat.VecDense
	z.MulVec(&v, scaled)
	return &z
}

// Coefficient pairs a sector with its estimated land-footprint coefficient,
// unit km² per international dollar.
type Coefficient struct {
	Sector economy.SectorCode `json:"sector"`
	Value  float64            `json:"value"`
}

// Estimate is the solved regression: one non-negative coefficient per sector
// except the last, which served as the regression target.
type Estimate struct {
	Coefficients []Coefficient      `json:"coefficients"`
	TargetSector economy.SectorCode `json:"target_sector"`
	Residual     float64            `json:"residual"`
	Iterations   int                `json:"iterations"`
}

// EstimateCoefficients splits the filtered design matrix into predictors (all
// columns but the last) and target (the last column) and solves the bounded
// least-squares problem.  The matrix must be fully dense; callers run
// DropIncompleteRows first.
func EstimateCoefficients(m *DesignMatrix) (*Estimate, error) {
	rows := m.Rows()
	if rows == 0 {
		return nil, errors.New(errors.ErrCodeDegenerateMatrix,
			"no complete country rows remain after filtering")
	}
	nSectors := len(m.Sectors)
	if nSectors < 2 {
		return nil, errors.Newf(errors.ErrCodeDegenerateMatrix,
			"need at least one predictor sector and a target, got %d sectors", nSectors)
	}

	predictors := m.Data.Slice(0, rows, 0, nSectors-1)
	target := mat.NewVecDense(rows, mat.Col(nil, nSectors-1, m.Data))

	w, iterations, err := SolveNNLS(predictors, target)
	if err != nil {
		return nil, err
	}

	var fitted mat.VecDense
	fitted.MulVec(predictors, w)
	var resid mat.VecDense
	resid.SubVec(target, &fitted)

	est := &Estimate{
		Coefficients: make([]Coefficient, nSectors-1),
		TargetSector: m.Sectors[nSectors-1],
		Residual:     mat.Norm(&resid, 2),
		Iterations:   iterations,
	}
	for i := 0; i < nSectors-1; i++ {
		est.Coefficients[i] = Coefficient{Sector: m.Sectors[i], Value: w.AtVec(i)}
	}
	return est, nil
}
