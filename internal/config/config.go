package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration shared by the crypto-intel server,
// TUI client, and CLI.
type Config struct {
	Server   Server   `yaml:"server"`
	Client   Client   `yaml:"client"`
	Sync     Sync     `yaml:"sync"`
	Rotation Rotation `yaml:"rotation"`
	Storage  Storage  `yaml:"storage"`
	Ingest   Ingest   `yaml:"ingest"`
	Alpaca   Alpaca   `yaml:"alpaca"`
	Logging  Logging  `yaml:"logging"`
}

// Server holds network listener configuration for crypto-intel-server.
type Server struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
}

// Client configures how the dashboard reaches the API.
type Client struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	GRPCAddr string        `yaml:"grpc_addr"`
	Notify   bool          `yaml:"notify"` // subscribe to /api/ws snapshot pushes
}

// Sync controls the periodic refresh of the market snapshot.
type Sync struct {
	Interval time.Duration `yaml:"interval"`
}

// Rotation controls the spotlight cadence.
type Rotation struct {
	Interval time.Duration `yaml:"interval"`
}

// Storage holds paths for server-side persistence.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
	ArchiveDir string `yaml:"archive_dir"`
}

// Ingest configures the upstream market extractor.
type Ingest struct {
	APIURL          string        `yaml:"api_url"`
	PerPage         int           `yaml:"per_page"`
	Interval        time.Duration `yaml:"interval"`
	RateLimitPerMin int           `yaml:"rate_limit_per_min"`
	MaxAttempts     int           `yaml:"max_attempts"`
}

// Alpaca holds optional credentials used for detail-view news.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// envOverrides lists the environment variables that take precedence over the
// YAML file. Empty values leave the file setting in place.
type envOverrides struct {
	BaseURL      string        `envconfig:"CRYPTO_INTEL_BASE_URL"`
	GRPCAddr     string        `envconfig:"CRYPTO_INTEL_GRPC_ADDR"`
	SyncInterval time.Duration `envconfig:"CRYPTO_INTEL_SYNC_INTERVAL"`
	SQLitePath   string        `envconfig:"SQLITE_PATH"`
	ArchiveDir   string        `envconfig:"ARCHIVE_DIR"`
	APIURL       string        `envconfig:"COINGECKO_API_URL"`
	IngestEvery  time.Duration `envconfig:"ETL_INTERVAL"`
	LogLevel     string        `envconfig:"LOG_LEVEL"`
	AlpacaKey    string        `envconfig:"APCA_API_KEY_ID"`
	AlpacaSecret string        `envconfig:"APCA_API_SECRET_KEY"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server:   Server{Host: "0.0.0.0", Port: 8000, GRPCPort: 9000},
		Client:   Client{BaseURL: "http://localhost:8000", Timeout: 15 * time.Second, GRPCAddr: "localhost:9000"},
		Sync:     Sync{Interval: 60 * time.Second},
		Rotation: Rotation{Interval: 30 * time.Second},
		Storage:  Storage{SQLitePath: "crypto_local.db", ArchiveDir: "raw_data"},
		Ingest: Ingest{
			APIURL:          "https://api.coingecko.com/api/v3/coins/markets",
			PerPage:         20,
			Interval:        5 * time.Minute,
			RateLimitPerMin: 10,
			MaxAttempts:     3,
		},
		Logging: Logging{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path over the defaults, loads a .env file from
// the working directory if present, applies environment overrides, and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	// .env is optional; absent in most deployments.
	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides decodes well-known environment variables and overrides
// the corresponding fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	if env.BaseURL != "" {
		cfg.Client.BaseURL = env.BaseURL
	}
	if env.GRPCAddr != "" {
		cfg.Client.GRPCAddr = env.GRPCAddr
	}
	if env.SyncInterval > 0 {
		cfg.Sync.Interval = env.SyncInterval
	}
	if env.SQLitePath != "" {
		cfg.Storage.SQLitePath = env.SQLitePath
	}
	if env.ArchiveDir != "" {
		cfg.Storage.ArchiveDir = env.ArchiveDir
	}
	if env.APIURL != "" {
		cfg.Ingest.APIURL = env.APIURL
	}
	if env.IngestEvery > 0 {
		cfg.Ingest.Interval = env.IngestEvery
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	if env.AlpacaKey != "" {
		cfg.Alpaca.APIKey = env.AlpacaKey
	}
	if env.AlpacaSecret != "" {
		cfg.Alpaca.APISecret = env.AlpacaSecret
	}
	return nil
}

// Validate checks the settings every binary depends on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Client.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("client.base_url must be an http(s) URL, got %q", c.Client.BaseURL)
	}
	if c.Sync.Interval <= 0 {
		return errors.New("sync.interval must be positive")
	}
	if c.Rotation.Interval <= 0 {
		return errors.New("rotation.interval must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Ingest.PerPage <= 0 {
		return errors.New("ingest.per_page must be positive")
	}
	if c.Ingest.Interval <= 0 {
		return errors.New("ingest.interval must be positive")
	}
	return nil
}

// HasAlpaca reports whether Alpaca credentials are configured.
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}
