package grapht

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures a Container.
type Option func(*options) error

type options struct {
	config     Config
	logger     *zap.Logger
	registerer prometheus.Registerer
	scope      *Scope
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(o *options) error {
		if err := cfg.Validate(); err != nil {
			return &ConfigError{Err: err}
		}
		o.config = cfg
		return nil
	}
}

// WithLogger sets the logger, overriding the logging configuration.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) error {
		if l == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		o.logger = l
		return nil
	}
}

// WithRegisterer registers the container's metrics on reg instead of a
// private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithDefaultScope sets the scope of bindings that do not declare one,
// overriding the configured cache policy.
func WithDefaultScope(s Scope) Option {
	return func(o *options) error {
		o.scope = &s
		return nil
	}
}
