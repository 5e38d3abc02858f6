// The apiserver binary exposes the estimation pipeline over HTTP: probes,
// metrics and the /api/v1/estimations resource.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/application/estimation"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/config"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/datasource/oecd"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/datasource/unsdmx"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/prometheus"
	httpiface "github.com/turtacn/EcoFootprint-Intelligence/internal/interfaces/http"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/types/economy"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := os.Getenv("ECOFOOT_CONFIG")
	var cfg *config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}
	logging.SetDefault(logger)

	collector := prometheus.NewCollector("ecofoot", true)
	metrics := prometheus.NewAppMetrics(collector)

	ds := cfg.DataSource
	series := unsdmx.NewClient(ds.WDIBaseURL, ds.HTTPTimeout, ds.FetchRetries, logger)
	tables := oecd.NewFetcher(ds.ICIOArchiveURL, ds.ICIOCachePath, ds.HTTPTimeout, ds.FetchRetries, logger)

	var checkers []handlers.HealthChecker

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
			return err
		}
		defer client.Close()
		cache = redis.NewCache(client, logger,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Redis.DefaultTTL),
		)
		checkers = append(checkers, handlers.HealthCheckFunc{
			CheckName: "redis",
			Fn:        client.Ping,
		})
	}

	var runs estimation.RunRepository
	if cfg.Database.Enabled {
		conn, err := postgres.NewConnection(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := postgres.RunMigrations(postgres.BuildDSN(cfg.Database), cfg.Database.MigrationPath); err != nil {
			return err
		}
		runs = repositories.NewRunRepository(conn.DB(), logger)
		checkers = append(checkers, handlers.HealthCheckFunc{
			CheckName: "postgres",
			Fn:        conn.HealthCheck,
		})
	}

	svc := estimation.NewService(series, tables, runs, cache, metrics, logger,
		estimation.ServiceConfig{
			ReferenceCountry: economy.CountryCode(ds.ReferenceCountry),
		})

	router := httpiface.NewRouter(httpiface.RouterConfig{
		EstimationHandler: handlers.NewEstimationHandler(svc, logger),
		HealthHandler:     handlers.NewHealthHandler(version, checkers...),
		Logger:            logger,
		Metrics:           metrics,
		MetricsHandler:    collector.Handler(),
	})
	server := httpiface.NewServer(cfg.Server.Port, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("received shutdown signal", logging.String("signal", sig.String()))
	}

	return server.Stop(context.Background())
}
