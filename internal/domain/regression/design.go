// Package regression assembles the dense design matrix from sparse key-based
// lookups and solves the non-negative least-squares problem that recovers one
// land-footprint coefficient per sector.
package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/EcoFootprint-Intelligence/pkg/types/economy"
)

// OutputSource looks up total output by composite country-sector key.
// icio.TotalOutput satisfies it.
type OutputSource interface {
	Value(key economy.CompositeKey) (float64, bool)
}

// PPPSource looks up the US$/int$ conversion factor per country.
// indicator.Table satisfies it.
type PPPSource interface {
	PPP(country economy.CountryCode) float64
}

// MissReason classifies why a design-matrix cell stayed unresolved.
type MissReason string

const (
	// MissOutputKey: the composite key was absent from the total-output row.
	MissOutputKey MissReason = "missing_output_key"

	// MissPPP: the country's PPP factor was NaN or zero, so the US$ value
	// cannot be converted to international dollars.
	MissPPP MissReason = "unusable_ppp"
)

// Diagnostic identifies one unresolved (country, sector) lookup.
type Diagnostic struct {
	Country economy.CountryCode `json:"country"`
	Sector  economy.SectorCode  `json:"sector"`
	Key     economy.CompositeKey `json:"key"`
	Reason  MissReason          `json:"reason"`
}

// DesignMatrix is a dense countries x sectors matrix of PPP-adjusted output,
// unit international dollars.  Unresolved cells hold NaN until filtered.
// Data is nil when no rows survive; gonum disallows zero-sized matrices.
type DesignMatrix struct {
	Countries []economy.CountryCode
	Sectors   []economy.SectorCode
	Data      *mat.Dense
}

// Build fills a |countries| x |sectors| matrix where
//
//	cell(c, s) = totalOutput[c+"_"+s] / PPP[c]     (int$ = US$ / (US$/int$))
//
// A missing composite key or an unusable PPP factor marks the cell NaN and
// records a Diagnostic; the build itself never aborts.  Column order follows
// sectors, row order follows countries, both unchanged.
func Build(
	countries []economy.CountryCode,
	sectors []economy.SectorCode,
	output OutputSource,
	ppp PPPSource,
) (*DesignMatrix, []Diagnostic) {
	if len(countries) == 0 || len(sectors) == 0 {
		return &DesignMatrix{Countries: countries, Sectors: sectors}, nil
	}

	data := mat.NewDense(len(countries), len(sectors), nil)
	var diags []Diagnostic

	for ci, country := range countries {
		factor := ppp.PPP(country)
		usable := !math.IsNaN(factor) && factor != 0

		for si, sector := range sectors {
			key := economy.NewCompositeKey(country, sector)
			value, ok := output.Value(key)
			switch {
			case !ok:
				data.Set(ci, si, math.NaN())
				diags = append(diags, Diagnostic{
					Country: country, Sector: sector, Key: key, Reason: MissOutputKey,
				})
			case !usable:
				data.Set(ci, si, math.NaN())
				diags = append(diags, Diagnostic{
					Country: country, Sector: sector, Key: key, Reason: MissPPP,
				})
			default:
				// A NaN total (unparseable source cell) propagates into the
				// cell and is removed by the row filter without a diagnostic;
				// the key itself did resolve.
				data.Set(ci, si, value/factor)
			}
		}
	}

	return &DesignMatrix{Countries: countries, Sectors: sectors, Data: data}, diags
}

// DropIncompleteRows returns a matrix containing only the rows where every
// cell is finite, preserving the relative order of the retained countries.
// Filtering an already-dense matrix returns an equal matrix.
func (m *DesignMatrix) DropIncompleteRows() *DesignMatrix {
	if m.Data == nil {
		return &DesignMatrix{Sectors: m.Sectors}
	}
	rows, cols := m.Data.Dims()

	var keep []int
	for r := 0; r < rows; r++ {
		complete := true
		for c := 0; c < cols; c++ {
			if v := m.Data.At(r, c); math.IsNaN(v) || math.IsInf(v, 0) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, r)
		}
	}

	if len(keep) == 0 {
		return &DesignMatrix{Sectors: m.Sectors}
	}

	filtered := mat.NewDense(len(keep), cols, nil)
	countries := make([]economy.CountryCode, 0, len(keep))
	for i, r := range keep {
		filtered.SetRow(i, mat.Row(nil, r, m.Data))
		countries = append(countries, m.Countries[r])
	}

	return &DesignMatrix{Countries: countries, Sectors: m.Sectors, Data: filtered}
}

// Rows returns the number of (remaining) country rows.
func (m *DesignMatrix) Rows() int {
	if m.Data == nil {
		return 0
	}
	r, _ := m.Data.Dims()
	return r
}
