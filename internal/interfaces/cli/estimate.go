package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/application/estimation"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/config"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/datasource/oecd"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/datasource/unsdmx"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/types/economy"
)

// NewEstimateCmd creates the estimate subcommand.  It runs the full pipeline
// locally: fetch, harmonize, index, build, solve.
func NewEstimateCmd(opts *RootOptions) *cobra.Command {
	var referenceCountry string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Run the land-footprint estimation pipeline",
		Long: "Fetches the latest indicator observations and the input-output table,\n" +
			"builds the PPP-adjusted design matrix and solves the non-negative\n" +
			"least-squares regression for per-sector area coefficients.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(opts)
			if err != nil {
				return err
			}
			if referenceCountry != "" {
				cfg.DataSource.ReferenceCountry = referenceCountry
			}

			svc, cleanup, err := buildEstimationService(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			result, err := svc.Estimate(ctx)
			if err != nil {
				return err
			}

			if opts.OutputFormat == "json" {
				return printJSON(cmd, result)
			}
			printEstimateText(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&referenceCountry, "reference-country", "",
		"country whose sector columns define the sector list (default from config)")
	return cmd
}

// buildEstimationService assembles the pipeline from configuration.  The
// returned cleanup closes any opened connections.
func buildEstimationService(cfg *config.Config, logger logging.Logger) (estimation.Service, func(), error) {
	ds := cfg.DataSource

	series := unsdmx.NewClient(ds.WDIBaseURL, ds.HTTPTimeout, ds.FetchRetries, logger)
	tables := oecd.NewFetcher(ds.ICIOArchiveURL, ds.ICIOCachePath, ds.HTTPTimeout, ds.FetchRetries, logger)

	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	var cache redis.Cache
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(redis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		cache = redis.NewCache(client, logger,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Redis.DefaultTTL),
		)
	}

	var runs estimation.RunRepository
	if cfg.Database.Enabled {
		conn, err := postgres.NewConnection(cfg.Database, logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = conn.Close() })
		runs = repositories.NewRunRepository(conn.DB(), logger)
	}

	svc := estimation.NewService(series, tables, runs, cache, nil, logger,
		estimation.ServiceConfig{
			ReferenceCountry: economy.CountryCode(ds.ReferenceCountry),
		})
	return svc, cleanup, nil
}

// printEstimateText renders the result in the human-readable format.
func printEstimateText(cmd *cobra.Command, result *estimation.Result) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Run %s\n", result.RunID)
	fmt.Fprintf(out, "Reference country: %s   Target: %s\n",
		result.ReferenceCountry, result.TargetSector)
	fmt.Fprintf(out, "Countries used: %d (dropped %d)   Residual: %.6g   Iterations: %d\n\n",
		result.CountriesUsed, result.CountriesDropped, result.Residual, result.Iterations)

	fmt.Fprintf(out, "%-24s %s\n", "SECTOR", "KM2 PER INT$")
	for _, c := range result.Coefficients {
		fmt.Fprintf(out, "%-24s %.6e\n", c.Sector, c.Value)
	}

	if len(result.Diagnostics) > 0 {
		fmt.Fprintf(out, "\n%d unresolved cells:\n", len(result.Diagnostics))
		for _, d := range result.Diagnostics {
			fmt.Fprintf(out, "  %s (%s)\n", d.Key, d.Reason)
		}
	}
}
