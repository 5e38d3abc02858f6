// Package config defines all configuration structures for the
// EcoFootprint-Intelligence pipeline.  No I/O or parsing logic lives here,
// only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters for optional run
// persistence.  When Enabled is false the pipeline runs without a database.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters for the optional indicator
// payload cache.  When Enabled is false every indicator fetch goes straight
// to the remote source.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// DataSourceConfig holds the endpoints and conventions of the external data
// collaborators: the UN WDI SDMX feed, the OECD ICIO archive and the OEC
// atlas API.
type DataSourceConfig struct {
	WDIBaseURL       string        `mapstructure:"wdi_base_url"`
	ICIOArchiveURL   string        `mapstructure:"icio_archive_url"`
	ICIOCachePath    string        `mapstructure:"icio_cache_path"`
	AtlasBaseURL     string        `mapstructure:"atlas_base_url"`
	ReferenceCountry string        `mapstructure:"reference_country"`
	HTTPTimeout      time.Duration `mapstructure:"http_timeout"`
	FetchRetries     int           `mapstructure:"fetch_retries"`
}

// Config is the root configuration structure.  Every infrastructure component
// and application service reads its settings from the relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	DataSource DataSourceConfig `mapstructure:"datasource"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required when database.enabled")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required when database.enabled")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required when database.enabled")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when redis.enabled")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if c.DataSource.WDIBaseURL == "" {
		return fmt.Errorf("config: datasource.wdi_base_url is required")
	}
	if c.DataSource.ICIOArchiveURL == "" {
		return fmt.Errorf("config: datasource.icio_archive_url is required")
	}
	if c.DataSource.ICIOCachePath == "" {
		return fmt.Errorf("config: datasource.icio_cache_path is required")
	}
	if c.DataSource.ReferenceCountry == "" {
		return fmt.Errorf("config: datasource.reference_country is required")
	}
	if c.DataSource.FetchRetries < 0 {
		return fmt.Errorf("config: datasource.fetch_retries must be >= 0, got %d", c.DataSource.FetchRetries)
	}

	return nil
}
