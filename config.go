package grapht

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/centraunit/grapht/internal/logger"
	"github.com/centraunit/grapht/internal/metrics"
	"github.com/centraunit/grapht/resolver"
	"github.com/centraunit/grapht/spi"
)

// Environment variables overriding file configuration.
const (
	EnvMaxRewriteSlack = "GRAPHT_MAX_REWRITE_SLACK"
	EnvCachePolicy     = "GRAPHT_CACHE_POLICY"
	EnvLogEnabled      = "GRAPHT_LOG_ENABLED"
	EnvLogLevel        = "GRAPHT_LOG_LEVEL"
	EnvLogFormat       = "GRAPHT_LOG_FORMAT"
	EnvMetricsEnabled  = "GRAPHT_METRICS_ENABLED"
)

// Config tunes a container.
type Config struct {
	// MaxRewriteSlack is the number of bind rule applications allowed per
	// desire beyond one per declared rule. Zero is a strict bound.
	MaxRewriteSlack int `yaml:"max_rewrite_slack"`
	// CachePolicy applies to bindings without an explicit scope:
	// "memoize" or "new-instance".
	CachePolicy string `yaml:"cache_policy"`

	Logging logger.Config  `yaml:"logging"`
	Metrics metrics.Config `yaml:"metrics"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		MaxRewriteSlack: resolver.DefaultMaxRewriteSlack,
		CachePolicy:     spi.Memoize.String(),
		Logging:         logger.DefaultConfig(),
		Metrics:         metrics.DefaultConfig(),
	}
}

// Validate checks the values that cannot be fixed up silently.
func (c Config) Validate() error {
	if c.MaxRewriteSlack < 0 {
		return fmt.Errorf("max_rewrite_slack must not be negative, got %d", c.MaxRewriteSlack)
	}
	if _, ok := spi.ParseCachePolicy(c.CachePolicy); !ok {
		return fmt.Errorf("unknown cache_policy %q", c.CachePolicy)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

func (c Config) cachePolicy() spi.CachePolicy {
	p, _ := spi.ParseCachePolicy(c.CachePolicy)
	return p
}

// LoadConfig reads a YAML file over DefaultConfig and applies GRAPHT_*
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, &ConfigError{Path: path, Err: err}
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, &ConfigError{Path: path, Err: err}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, &ConfigError{Path: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, &ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

// LoadEnv loads .env files (".env" when none are named) into the process
// environment without overriding variables that are already set, and then
// returns DefaultConfig with GRAPHT_* overrides applied.
func LoadEnv(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	// .env files are optional
	_ = godotenv.Load(files...)

	cfg := DefaultConfig()
	if err := cfg.applyEnv(); err != nil {
		return cfg, &ConfigError{Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, &ConfigError{Err: err}
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvMaxRewriteSlack); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxRewriteSlack, err)
		}
		c.MaxRewriteSlack = n
	}
	if v := os.Getenv(EnvCachePolicy); v != "" {
		c.CachePolicy = v
	}
	if err := envBool(EnvLogEnabled, &c.Logging.Enabled); err != nil {
		return err
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	return envBool(EnvMetricsEnabled, &c.Metrics.Enabled)
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
