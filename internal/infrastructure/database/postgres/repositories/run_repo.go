// Package repositories contains the SQL-backed persistence implementations.
package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/application/estimation"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/domain/regression"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/types/economy"
)

// RunRepository persists estimation runs in PostgreSQL.  It implements
// estimation.RunRepository.
type RunRepository struct {
	db  *sql.DB
	log logging.Logger
}

// NewRunRepository builds a repository over db.
func NewRunRepository(db *sql.DB, log logging.Logger) *RunRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &RunRepository{db: db, log: log.Named("run_repo")}
}

// SaveRun stores the run header, its coefficients and its diagnostics in one
// transaction.
func (r *RunRepository) SaveRun(ctx context.Context, result *estimation.Result) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback()

	const insertRun = `
		INSERT INTO estimation_runs (
			id, created_at, reference_country, target_sector,
			residual, iterations, countries_used, countries_dropped
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.ExecContext(ctx, insertRun,
		result.RunID, result.GeneratedAt, string(result.ReferenceCountry),
		string(result.TargetSector), result.Residual, result.Iterations,
		result.CountriesUsed, result.CountriesDropped,
	); err != nil {
		if isUniqueViolation(err) {
			return errors.Wrap(err, errors.ErrCodeConflict, "estimation run already persisted")
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert estimation run")
	}

	const insertCoef = `
		INSERT INTO estimation_coefficients (run_id, position, sector, value)
		VALUES ($1, $2, $3, $4)`
	for i, c := range result.Coefficients {
		if _, err := tx.ExecContext(ctx, insertCoef,
			result.RunID, i, string(c.Sector), c.Value,
		); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert coefficient")
		}
	}

	const insertDiag = `
		INSERT INTO estimation_diagnostics (run_id, country, sector, reason)
		VALUES ($1, $2, $3, $4)`
	for _, d := range result.Diagnostics {
		if _, err := tx.ExecContext(ctx, insertDiag,
			result.RunID, string(d.Country), string(d.Sector), string(d.Reason),
		); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert diagnostic")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	return nil
}

// GetRun loads a persisted run with its coefficients and diagnostics.
func (r *RunRepository) GetRun(ctx context.Context, id uuid.UUID) (*estimation.Result, error) {
	const selectRun = `
		SELECT id, created_at, reference_country, target_sector,
		       residual, iterations, countries_used, countries_dropped
		FROM estimation_runs WHERE id = $1`

	result := &estimation.Result{}
	var refCountry, targetSector string
	err := r.db.QueryRowContext(ctx, selectRun, id).Scan(
		&result.RunID, &result.GeneratedAt, &refCountry, &targetSector,
		&result.Residual, &result.Iterations,
		&result.CountriesUsed, &result.CountriesDropped,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("estimation run")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query estimation run")
	}
	result.ReferenceCountry = economy.CountryCode(refCountry)
	result.TargetSector = economy.SectorCode(targetSector)

	result.Coefficients, err = r.loadCoefficients(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Diagnostics, err = r.loadDiagnostics(ctx, id)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *RunRepository) loadCoefficients(ctx context.Context, id uuid.UUID) ([]regression.Coefficient, error) {
	const q = `
		SELECT sector, value FROM estimation_coefficients
		WHERE run_id = $1 ORDER BY position`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query coefficients")
	}
	defer rows.Close()

	var out []regression.Coefficient
	for rows.Next() {
		var sector string
		var c regression.Coefficient
		if err := rows.Scan(&sector, &c.Value); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan coefficient")
		}
		c.Sector = economy.SectorCode(sector)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "coefficient iteration failed")
	}
	return out, nil
}

func (r *RunRepository) loadDiagnostics(ctx context.Context, id uuid.UUID) ([]regression.Diagnostic, error) {
	const q = `
		SELECT country, sector, reason FROM estimation_diagnostics
		WHERE run_id = $1 ORDER BY country, sector`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query diagnostics")
	}
	defer rows.Close()

	var out []regression.Diagnostic
	for rows.Next() {
		var country, sector, reason string
		if err := rows.Scan(&country, &sector, &reason); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan diagnostic")
		}
		d := regression.Diagnostic{
			Country: economy.CountryCode(country),
			Sector:  economy.SectorCode(sector),
			Reason:  regression.MissReason(reason),
		}
		d.Key = economy.NewCompositeKey(d.Country, d.Sector)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "diagnostic iteration failed")
	}
	return out, nil
}

// isUniqueViolation reports whether err is a duplicate-key error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == "23505"
}
