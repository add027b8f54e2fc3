package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Honestpuck/jss-tools/internal/metrics"
	"github.com/Honestpuck/jss-tools/pkg/cache"
	"github.com/Honestpuck/jss-tools/pkg/compliance"
	"github.com/Honestpuck/jss-tools/pkg/jss"
	"github.com/Honestpuck/jss-tools/pkg/report"
	"github.com/Honestpuck/jss-tools/pkg/server"
	"github.com/Honestpuck/jss-tools/pkg/service"
	"github.com/joho/godotenv"
	config_pkg "github.com/kumarabd/gokit/config"
)

var (
	ApplicationName    = "jss-tools"
	ApplicationVersion = "dev"
)

// Environment variables that override the loaded JSS settings.
const (
	EnvURL       = "JSS_URL"
	EnvUser      = "JSS_USER"
	EnvPassword  = "JSS_PASSWORD"
	EnvVerifySSL = "JSS_VERIFY_SSL"
	EnvReport    = "JSS_REPORT_DB"
	EnvPolicy    = "JSS_POLICY_FILE"
	EnvAPISecret = "JSS_API_SECRET"
)

type Config struct {
	Server  *server.Config   `json:"server,omitempty" yaml:"server,omitempty"`
	JSS     *jss.Config      `json:"jss" yaml:"jss"`
	Cache   *cache.Config    `json:"cache" yaml:"cache"`
	Report  *report.Config   `json:"report" yaml:"report"`
	Service *service.Config  `json:"service" yaml:"service"`
	Metrics *metrics.Options `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	policy := compliance.DefaultPolicy()
	return &Config{
		Server: &server.Config{
			HTTP: &server.HTTPConfig{
				Host:         "0.0.0.0",
				Port:         "8080",
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 2 * time.Minute,
				IdleTimeout:  60 * time.Second,
				MaxBodyBytes: 65536,
			},
		},
		JSS: &jss.Config{
			VerifySSL:       true,
			Timeout:         30 * time.Second,
			MaxRetries:      3,
			RetryBaseDelay:  500 * time.Millisecond,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Cache: &cache.Config{
			TTL:             5 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		Report: &report.Config{
			Path: "jss-tools.db",
		},
		Service: &service.Config{
			Compliance: &policy,
			Rules:      compliance.DefaultRules(),
		},
		Metrics: &metrics.Options{},
	}
}

// New creates a new config instance. A .env file in the working directory
// is loaded first; variables already set in the environment win over it.
func New() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	configObject := Defaults()

	// Load config using gokit config package
	finalConfig, err := config_pkg.New(configObject)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Safe type assertion
	if finalConfig == nil {
		return nil, fmt.Errorf("config is nil")
	}

	cfg, ok := finalConfig.(*Config)
	if !ok {
		return nil, fmt.Errorf("config type assertion failed: expected *Config, got %T", finalConfig)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns the defaults with .env and the JSS_* variables applied.
// Command-line tools use it instead of New.
func FromEnv() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg := Defaults()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// applyEnv overlays the JSS_* variables onto cfg.
func applyEnv(cfg *Config) error {
	if cfg.JSS == nil {
		cfg.JSS = Defaults().JSS
	}
	if v := os.Getenv(EnvURL); v != "" {
		cfg.JSS.URL = v
	}
	if v := os.Getenv(EnvUser); v != "" {
		cfg.JSS.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.JSS.Password = v
	}
	if v := os.Getenv(EnvVerifySSL); v != "" {
		verify, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvVerifySSL, err)
		}
		cfg.JSS.VerifySSL = verify
	}
	if v, ok := os.LookupEnv(EnvReport); ok {
		if cfg.Report == nil {
			cfg.Report = &report.Config{}
		}
		// An empty value disables the history.
		cfg.Report.Path = v
	}
	if v := os.Getenv(EnvAPISecret); v != "" && cfg.Server != nil && cfg.Server.HTTP != nil {
		cfg.Server.HTTP.JWTSecret = v
	}
	if v := os.Getenv(EnvPolicy); v != "" {
		if err := LoadPolicy(cfg, v); err != nil {
			return err
		}
	}
	return nil
}

// LoadPolicy replaces the compliance policy and rules with those in a YAML
// policy file.
func LoadPolicy(cfg *Config, path string) error {
	policy, rules, err := compliance.LoadFile(path)
	if err != nil {
		return fmt.Errorf("policy file %s: %w", path, err)
	}
	if cfg.Service == nil {
		cfg.Service = &service.Config{}
	}
	cfg.Service.Compliance = &policy
	cfg.Service.Rules = rules
	return nil
}
