package config

import "time"

// Default value constants.
const (
	DefaultServerPort = 8080

	DefaultDBHost = "localhost"
	DefaultDBPort = 5432
	DefaultDBName = "ecofoot"

	DefaultRedisAddr = "localhost:6379"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// DefaultWDIBaseURL is the UN statistics division SDMX REST endpoint
	// serving the Worldbank world development indicators.
	DefaultWDIBaseURL = "http://data.un.org/WS/rest"

	// DefaultICIOArchiveURL is the fixed OECD archive holding the 2016
	// edition of the inter-country input-output table for 2011.
	DefaultICIOArchiveURL = "http://www.oecd.org/sti/ind/ICIO2016_2011.zip"

	// DefaultICIOCachePath is where the extracted CSV is kept between runs.
	DefaultICIOCachePath = "./ICIO2016_2011.csv"

	// DefaultAtlasBaseURL is the OEC atlas JSON API root.
	DefaultAtlasBaseURL = "http://atlas.media.mit.edu"

	// DefaultReferenceCountry is the country whose columns define the sector
	// list.  Sector naming is assumed uniform across countries and validated
	// against this reference.
	DefaultReferenceCountry = "AUS"

	DefaultHTTPTimeout  = 60 * time.Second
	DefaultFetchRetries = 2
)

// ApplyDefaults fills every zero-value field in cfg with the platform
// default.  Fields already set by the caller are left unchanged so explicit
// configuration always wins.  It must be called after unmarshalling and
// before Validate so optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "file://migrations"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 24 * time.Hour
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "ecofoot:"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.DataSource.WDIBaseURL == "" {
		cfg.DataSource.WDIBaseURL = DefaultWDIBaseURL
	}
	if cfg.DataSource.ICIOArchiveURL == "" {
		cfg.DataSource.ICIOArchiveURL = DefaultICIOArchiveURL
	}
	if cfg.DataSource.ICIOCachePath == "" {
		cfg.DataSource.ICIOCachePath = DefaultICIOCachePath
	}
	if cfg.DataSource.AtlasBaseURL == "" {
		cfg.DataSource.AtlasBaseURL = DefaultAtlasBaseURL
	}
	if cfg.DataSource.ReferenceCountry == "" {
		cfg.DataSource.ReferenceCountry = DefaultReferenceCountry
	}
	if cfg.DataSource.HTTPTimeout == 0 {
		cfg.DataSource.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.DataSource.FetchRetries == 0 {
		cfg.DataSource.FetchRetries = DefaultFetchRetries
	}
}
