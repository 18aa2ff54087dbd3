// Package metrics exposes resolution counters through Prometheus.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for resolutions.
const (
	OutcomeResolved     = "resolved"
	OutcomeUnresolvable = "unresolvable"
	OutcomeAmbiguous    = "ambiguous"
	OutcomeCycle        = "cycle"
	OutcomeLoop         = "loop"
	OutcomeInvalid      = "invalid"
	OutcomeError        = "error"
)

// Config controls metric registration.
type Config struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// DefaultConfig returns metrics enabled under the "grapht" namespace.
func DefaultConfig() Config {
	return Config{Enabled: true, Namespace: "grapht"}
}

// Collector records resolver and provider activity. A nil *Collector is a
// valid no-op collector.
type Collector struct {
	registry prometheus.Registerer

	resolutions    *prometheus.CounterVec
	cacheHits      prometheus.Counter
	waits          prometheus.Counter
	rewriteSteps   prometheus.Histogram
	providersBuilt prometheus.Counter
	providerGets   prometheus.Counter
}

// New creates a collector and registers it on reg. A nil reg gets a private
// registry so that several containers can coexist.
func New(cfg Config, reg prometheus.Registerer) (*Collector, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	ns := cfg.Namespace

	c := &Collector{
		registry: reg,
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "resolutions_total",
			Help:      "Desire resolutions by outcome.",
		}, []string{"outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_hits_total",
			Help:      "Resolutions answered from the resolution cache.",
		}),
		waits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_waits_total",
			Help:      "Resolutions that waited for another goroutine resolving the same key.",
		}),
		rewriteSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "rewrite_steps",
			Help:      "Rewrite steps, defaults included, needed to reach a concrete desire.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		providersBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "providers_built_total",
			Help:      "Providers created by the graph builder.",
		}),
		providerGets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "provider_gets_total",
			Help:      "Instances requested from root providers.",
		}),
	}

	var err error
	if c.resolutions, err = register(reg, c.resolutions); err != nil {
		return nil, err
	}
	if c.cacheHits, err = register(reg, c.cacheHits); err != nil {
		return nil, err
	}
	if c.waits, err = register(reg, c.waits); err != nil {
		return nil, err
	}
	if c.rewriteSteps, err = register(reg, c.rewriteSteps); err != nil {
		return nil, err
	}
	if c.providersBuilt, err = register(reg, c.providersBuilt); err != nil {
		return nil, err
	}
	if c.providerGets, err = register(reg, c.providerGets); err != nil {
		return nil, err
	}
	return c, nil
}

// register adds col to reg. When an identical collector is already there,
// for example from another container sharing reg, the existing one is
// returned so both containers count into the same series.
func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	err := reg.Register(col)
	if err == nil {
		return col, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("failed to register metric: %w", err)
}

// Gatherer returns the registry the collector was registered on. When that
// registry cannot be gathered from, or c is nil, it returns an empty registry
// rather than the process-wide default one.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c != nil {
		if g, ok := c.registry.(prometheus.Gatherer); ok {
			return g
		}
	}
	return prometheus.NewRegistry()
}

// Resolution counts a finished resolution.
func (c *Collector) Resolution(outcome string) {
	if c == nil {
		return
	}
	c.resolutions.WithLabelValues(outcome).Inc()
}

// CacheHit counts a cache hit.
func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Inc()
}

// Wait counts a wait on another goroutine's resolution.
func (c *Collector) Wait() {
	if c == nil {
		return
	}
	c.waits.Inc()
}

// RewriteSteps observes the length of a rewrite chain.
func (c *Collector) RewriteSteps(n int) {
	if c == nil {
		return
	}
	c.rewriteSteps.Observe(float64(n))
}

// ProviderBuilt counts a built provider.
func (c *Collector) ProviderBuilt() {
	if c == nil {
		return
	}
	c.providersBuilt.Inc()
}

// ProviderGet counts an instance request on a root provider.
func (c *Collector) ProviderGet() {
	if c == nil {
		return
	}
	c.providerGets.Inc()
}
