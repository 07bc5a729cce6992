// Package config loads service settings from a TOML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the service configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Lookup   LookupConfig   `toml:"lookup"`
	Reports  ReportsConfig  `toml:"reports"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Addr                string   `toml:"addr"`
	AllowedOrigins      []string `toml:"allowed_origins"`
	ReadTimeoutSeconds  int      `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `toml:"write_timeout_seconds"`
	ShutdownSeconds     int      `toml:"shutdown_seconds"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// AuthConfig configures client tokens. With no signing key the service
// runs unauthenticated and every request acts as the dev client.
type AuthConfig struct {
	SigningKey string `toml:"signing_key"`
	Issuer     string `toml:"issuer"`
	Audience   string `toml:"audience"`
	DevEmail   string `toml:"dev_email"`
	DevAdmin   bool   `toml:"dev_admin"`
}

// Enabled reports whether bearer tokens are required.
func (a AuthConfig) Enabled() bool {
	return a.SigningKey != ""
}

// LookupConfig holds the reference data selectors.
type LookupConfig struct {
	// ReferenceYear selects the commodity reference table used for names
	// and abbreviations.
	ReferenceYear string `toml:"reference_year"`
	// EligibleCommodities are the commodity codes the service exposes.
	EligibleCommodities []string `toml:"eligible_commodities"`
}

type ReportsConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                ":8080",
			AllowedOrigins:      []string{"*"},
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 30,
			ShutdownSeconds:     30,
		},
		Database: DatabaseConfig{
			Path: "./data/cims.db",
		},
		Auth: AuthConfig{
			Issuer:   "cims",
			Audience: "cims-api",
			DevEmail: "",
			DevAdmin: true,
		},
		Lookup: LookupConfig{
			ReferenceYear:       "2023",
			EligibleCommodities: []string{"0088", "1191", "0332"},
		},
		Reports: ReportsConfig{
			TimeoutSeconds: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("CIMS_ADDR", &c.Server.Addr)
	set("CIMS_DB_PATH", &c.Database.Path)
	set("CIMS_JWT_SIGNING_KEY", &c.Auth.SigningKey)
	set("CIMS_REPORTS_BASE_URL", &c.Reports.BaseURL)
	set("CIMS_REPORTS_API_KEY", &c.Reports.APIKey)
	set("CIMS_LOG_LEVEL", &c.Log.Level)
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Lookup.ReferenceYear == "" {
		errs = append(errs, errors.New("lookup.reference_year is required"))
	}
	if len(c.Lookup.EligibleCommodities) == 0 {
		errs = append(errs, errors.New("lookup.eligible_commodities must not be empty"))
	}
	if c.Auth.Enabled() && (c.Auth.Issuer == "" || c.Auth.Audience == "") {
		errs = append(errs, errors.New("auth.issuer and auth.audience are required with a signing key"))
	}
	if c.Reports.BaseURL != "" && !strings.HasSuffix(c.Reports.BaseURL, "/") {
		c.Reports.BaseURL += "/"
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	return errors.Join(errs...)
}

// Duration converts a seconds setting.
func Duration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
