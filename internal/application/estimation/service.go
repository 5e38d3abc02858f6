// Package estimation orchestrates the land-footprint pipeline: harmonize the
// indicator series, index the input-output table, assemble and filter the
// design matrix, and solve the non-negative least-squares regression.
package estimation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/domain/icio"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/domain/indicator"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/domain/regression"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/types/economy"
)

// Result is the outcome of one pipeline run: the estimated coefficient per
// sector (except the target) plus every unresolved-lookup diagnostic.
type Result struct {
	RunID            uuid.UUID                `json:"run_id"`
	GeneratedAt      time.Time                `json:"generated_at"`
	ReferenceCountry economy.CountryCode      `json:"reference_country"`
	TargetSector     economy.SectorCode       `json:"target_sector"`
	Coefficients     []regression.Coefficient `json:"coefficients"`
	Diagnostics      []regression.Diagnostic  `json:"diagnostics"`
	CountriesUsed    int                      `json:"countries_used"`
	CountriesDropped int                      `json:"countries_dropped"`
	Residual         float64                  `json:"residual"`
	Iterations       int                      `json:"iterations"`
}

// TableLoader supplies the parsed input-output table.  The OECD fetcher
// satisfies it.
type TableLoader interface {
	LoadTable(ctx context.Context) (*icio.Table, error)
}

// RunRepository persists and retrieves pipeline results.
type RunRepository interface {
	SaveRun(ctx context.Context, result *Result) error
	GetRun(ctx context.Context, id uuid.UUID) (*Result, error)
}

// Service is the application-facing pipeline contract.
type Service interface {
	// Estimate executes the full pipeline and returns the solved result.
	Estimate(ctx context.Context) (*Result, error)
	// GetRun loads a previously persisted result.
	GetRun(ctx context.Context, id uuid.UUID) (*Result, error)
}

// ServiceConfig carries the pipeline conventions.
type ServiceConfig struct {
	// ReferenceCountry defines the sector list (default "AUS").
	ReferenceCountry economy.CountryCode
	// Indicators overrides the fetched series set; empty means the default
	// WDI set.
	Indicators []indicator.Definition
	// CacheTTL bounds how long raw indicator payloads stay cached.
	CacheTTL time.Duration
}

type service struct {
	series  indicator.SeriesSource
	tables  TableLoader
	runs    RunRepository          // optional
	cache   redis.Cache            // optional
	metrics *prometheus.AppMetrics // optional
	log     logging.Logger
	cfg     ServiceConfig
}

// NewService wires the pipeline.  runs, cache and metrics may be nil; the
// pipeline then executes without persistence, payload caching or metrics.
func NewService(
	series indicator.SeriesSource,
	tables TableLoader,
	runs RunRepository,
	cache redis.Cache,
	metrics *prometheus.AppMetrics,
	log logging.Logger,
	cfg ServiceConfig,
) Service {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if cfg.ReferenceCountry == "" {
		cfg.ReferenceCountry = "AUS"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return &service{
		series:  series,
		tables:  tables,
		runs:    runs,
		cache:   cache,
		metrics: metrics,
		log:     log.Named("estimation"),
		cfg:     cfg,
	}
}

func (s *service) Estimate(ctx context.Context) (*Result, error) {
	result, err := s.estimate(ctx)
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = string(errors.GetCode(err))
		}
		s.metrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	}
	return result, err
}

func (s *service) estimate(ctx context.Context) (*Result, error) {
	source := s.series
	if s.cache != nil {
		source = &cachedSeriesSource{src: s.series, cache: s.cache, ttl: s.cfg.CacheTTL}
	}

	harmonizeStart := time.Now()
	harmonized, err := indicator.NewHarmonizer(source, s.cfg.Indicators, s.log).Harmonize(ctx)
	s.observeStage("harmonize", time.Since(harmonizeStart))
	if err != nil {
		return nil, err
	}

	indexStart := time.Now()
	table, err := s.tables.LoadTable(ctx)
	if err != nil {
		s.observeStage("index", time.Since(indexStart))
		return nil, err
	}
	index, err := icio.BuildIndex(table, s.cfg.ReferenceCountry)
	s.observeStage("index", time.Since(indexStart))
	if err != nil {
		return nil, err
	}

	buildStart := time.Now()
	matrix, diagnostics := regression.Build(
		harmonized.Countries(), index.Sectors, index.Totals, harmonized)
	for _, d := range diagnostics {
		s.log.Warn("unresolved design matrix cell",
			logging.String("key", string(d.Key)),
			logging.String("reason", string(d.Reason)),
		)
		if s.metrics != nil {
			s.metrics.UnresolvedCellsTotal.WithLabelValues(string(d.Reason)).Inc()
		}
	}
	filtered := matrix.DropIncompleteRows()
	s.observeStage("build", time.Since(buildStart))

	if s.metrics != nil {
		s.metrics.CountriesRetained.Set(float64(filtered.Rows()))
	}

	solveStart := time.Now()
	estimate, err := regression.EstimateCoefficients(filtered)
	s.observeStage("solve", time.Since(solveStart))
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SolverIterations.Observe(float64(estimate.Iterations))
	}

	result := &Result{
		RunID:            uuid.New(),
		GeneratedAt:      time.Now().UTC(),
		ReferenceCountry: s.cfg.ReferenceCountry,
		TargetSector:     estimate.TargetSector,
		Coefficients:     estimate.Coefficients,
		Diagnostics:      diagnostics,
		CountriesUsed:    filtered.Rows(),
		CountriesDropped: matrix.Rows() - filtered.Rows(),
		Residual:         estimate.Residual,
		Iterations:       estimate.Iterations,
	}

	if s.runs != nil {
		if err := s.runs.SaveRun(ctx, result); err != nil {
			// Persistence is best-effort; the estimate itself is still valid.
			s.log.Error("failed to persist estimation run",
				logging.String("run_id", result.RunID.String()),
				logging.Err(err),
			)
		}
	}

	s.log.Info("estimation run completed",
		logging.String("run_id", result.RunID.String()),
		logging.Int("coefficients", len(result.Coefficients)),
		logging.Int("countries_used", result.CountriesUsed),
		logging.Int("countries_dropped", result.CountriesDropped),
		logging.Float64("residual", result.Residual),
	)
	return result, nil
}

func (s *service) GetRun(ctx context.Context, id uuid.UUID) (*Result, error) {
	if s.runs == nil {
		return nil, errors.New(errors.ErrCodeNotImplemented, "run persistence is not configured")
	}
	return s.runs.GetRun(ctx, id)
}

func (s *service) observeStage(stage string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.PipelineStageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// cachedSeriesSource decorates a SeriesSource with the redis payload cache.
type cachedSeriesSource struct {
	src   indicator.SeriesSource
	cache redis.Cache
	ttl   time.Duration
}

func (c *cachedSeriesSource) FetchLatest(ctx context.Context, seriesCode string) ([]indicator.Observation, error) {
	var obs []indicator.Observation
	err := c.cache.GetOrSet(ctx, "wdi:"+seriesCode, &obs, c.ttl,
		func(ctx context.Context) (interface{}, error) {
			return c.src.FetchLatest(ctx, seriesCode)
		})
	return obs, err
}
