// Package config loads scraper settings from .env files, the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/myusername/footballer-scraper/pkg/scraper"
	"github.com/myusername/footballer-scraper/pkg/store"
)

// Default configuration values
const (
	DefaultDBHost     = "localhost"
	DefaultDBPort     = "5432"
	DefaultDBUser     = "postgres"
	DefaultDBName     = "football"
	DefaultDBSSLMode  = "disable"
	DefaultWorkers    = 4
	DefaultImportFile = "playersData.csv"
	DefaultLogLevel   = "info"
)

// Config holds all settings of the scraper.
type Config struct {
	Database store.Config
	Fetch    scraper.Options
	Workers  int
	// BaseURL resolves relative entries of a URL list.
	BaseURL    string
	ImportFile string
	LogLevel   string
}

// envBindings maps config keys to environment variables, first match wins. The
// bare names are the ones older deployments use in their .env files. Only these
// variables are read; DATABASE would otherwise shadow the whole database section.
var envBindings = map[string][]string{
	"database.host":       {"DB_HOST", "HOST"},
	"database.port":       {"DB_PORT"},
	"database.user":       {"DB_USER", "USER"},
	"database.password":   {"DB_PASSWORD", "PASSWORD"},
	"database.name":       {"DB_NAME", "DATABASE"},
	"database.sslmode":    {"DB_SSLMODE"},
	"fetch.timeout":       {"FETCH_TIMEOUT"},
	"fetch.max_attempts":  {"FETCH_MAX_ATTEMPTS"},
	"fetch.backoff":       {"FETCH_BACKOFF"},
	"fetch.rate":          {"FETCH_RATE"},
	"fetch.user_agent":    {"FETCH_USER_AGENT"},
	"scrape.workers":      {"SCRAPE_WORKERS"},
	"scrape.snapshot_dir": {"SCRAPE_SNAPSHOT_DIR"},
	"scrape.base_url":     {"SCRAPE_BASE_URL"},
	"import.file":         {"IMPORT_FILE"},
	"log.level":           {"LOG_LEVEL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", DefaultDBHost)
	v.SetDefault("database.port", DefaultDBPort)
	v.SetDefault("database.user", DefaultDBUser)
	v.SetDefault("database.name", DefaultDBName)
	v.SetDefault("database.sslmode", DefaultDBSSLMode)
	v.SetDefault("fetch.timeout", scraper.DefaultTimeout)
	v.SetDefault("fetch.max_attempts", scraper.DefaultMaxAttempts)
	v.SetDefault("fetch.backoff", scraper.DefaultBackoff)
	v.SetDefault("fetch.rate", scraper.DefaultRate)
	v.SetDefault("fetch.user_agent", scraper.DefaultUserAgent)
	v.SetDefault("scrape.workers", DefaultWorkers)
	v.SetDefault("import.file", DefaultImportFile)
	v.SetDefault("log.level", DefaultLogLevel)
}

// Load reads .env (if present), then the YAML file at path (if path is set), then
// environment variables. Environment variables win over the file.
func Load(path string) (*Config, error) {
	// A missing .env is fine; variables may come from the real environment.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper builds a Config from an already populated Viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Database: store.Config{
			Host:     v.GetString("database.host"),
			Port:     v.GetString("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.name"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Fetch: scraper.Options{
			Timeout:           v.GetDuration("fetch.timeout"),
			MaxAttempts:       v.GetInt("fetch.max_attempts"),
			Backoff:           v.GetDuration("fetch.backoff"),
			RequestsPerSecond: v.GetFloat64("fetch.rate"),
			UserAgent:         v.GetString("fetch.user_agent"),
			SnapshotDir:       v.GetString("scrape.snapshot_dir"),
		},
		Workers:    v.GetInt("scrape.workers"),
		BaseURL:    v.GetString("scrape.base_url"),
		ImportFile: v.GetString("import.file"),
		LogLevel:   v.GetString("log.level"),
	}
}

// Validate rejects settings the scraper cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("scrape.workers must be at least 1, got %d", c.Workers))
	}
	if c.Fetch.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("fetch.max_attempts must be at least 1, got %d", c.Fetch.MaxAttempts))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout))
	}
	if c.Fetch.Backoff < 0 {
		errs = append(errs, fmt.Errorf("fetch.backoff must not be negative, got %s", c.Fetch.Backoff))
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		errs = append(errs, errors.New("database.host and database.name are required"))
	}
	return errors.Join(errs...)
}
