package grapht

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/centraunit/grapht/internal/logger"
	"github.com/centraunit/grapht/internal/metrics"
	"github.com/centraunit/grapht/reflection"
	"github.com/centraunit/grapht/resolver"
	"github.com/centraunit/grapht/spi"
)

// Container resolves types against an immutable configuration and hands out
// providers. Its resolution cache lives until Discard. A Container is safe
// for concurrent use.
type Container struct {
	id      string
	config  spi.InjectorConfiguration
	ex      *reflection.Extractor
	log     *zap.Logger
	metrics *metrics.Collector

	resolver *resolver.Resolver
	graph    *resolver.GraphBuilder

	mu        sync.Mutex
	roots     map[*resolver.Node]Provider
	discarded bool
}

func newContainer(cfg spi.InjectorConfiguration, ex *reflection.Extractor, opts ...Option) (*Container, error) {
	o := &options{config: DefaultConfig()}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	log := o.logger
	if log == nil {
		l, err := logger.New(o.config.Logging)
		if err != nil {
			return nil, &ConfigError{Err: err}
		}
		log = l
	}

	col, err := metrics.New(o.config.Metrics, o.registerer)
	if err != nil {
		return nil, err
	}

	scope := o.config.cachePolicy()
	if o.scope != nil {
		scope = *o.scope
	}

	id := uuid.NewString()
	log = log.With(zap.String("container_id", id))

	c := &Container{
		id:      id,
		config:  cfg,
		ex:      ex,
		log:     log,
		metrics: col,
		resolver: resolver.New(cfg,
			resolver.WithLogger(log),
			resolver.WithMetrics(col),
			resolver.WithMaxRewriteSlack(o.config.MaxRewriteSlack),
		),
		graph: resolver.NewGraphBuilder(scope,
			resolver.WithGraphLogger(log),
			resolver.WithGraphMetrics(col),
		),
		roots: make(map[*resolver.Node]Provider),
	}
	log.Info("container created",
		zap.Int("rules", len(cfg.Rules())),
		zap.Stringer("default_scope", scope),
	)
	return c, nil
}

// ID returns the container's unique id, used in its log lines.
func (c *Container) ID() string {
	return c.id
}

// Configuration returns the rules the container resolves with.
func (c *Container) Configuration() spi.InjectorConfiguration {
	return c.config
}

// Gatherer returns the registry holding the container's metrics.
func (c *Container) Gatherer() prometheus.Gatherer {
	return c.metrics.Gatherer()
}

// Graph resolves t under role and returns the resolved tree without
// building providers.
func (c *Container) Graph(t reflect.Type, role *Role) (*resolver.Node, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("type cannot be nil")
	}
	return c.resolver.Resolve(c.ex.Desire(t, role))
}

// Resolve returns the provider for t under role. Resolving the same type and
// role again returns the same provider.
func (c *Container) Resolve(t reflect.Type, role *Role) (Provider, error) {
	n, err := c.Graph(t, role)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.discarded {
		return nil, ErrContainerDiscarded
	}
	if p, ok := c.roots[n]; ok {
		return p, nil
	}

	built, err := c.graph.Build(n)
	if err != nil {
		return nil, err
	}
	p := &countingProvider{target: built, metrics: c.metrics}
	c.roots[n] = p
	c.log.Debug("resolved root provider", zap.Stringer("desire", n.Desire))
	return p, nil
}

// Instance resolves t under role and gets one instance from its provider.
func (c *Container) Instance(t reflect.Type, role *Role) (any, error) {
	p, err := c.Resolve(t, role)
	if err != nil {
		return nil, err
	}
	v, err := p.Get()
	if err != nil {
		return nil, &InitializationError{Type: t.String(), Err: err}
	}
	return v, nil
}

// Discard releases the resolution cache and built providers. Providers
// handed out before remain usable; the container itself rejects further
// resolutions.
func (c *Container) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.discarded {
		return
	}
	c.discarded = true
	c.roots = make(map[*resolver.Node]Provider)
	c.resolver.Reset()
	c.graph.Reset()
	c.log.Info("container discarded")
}

func (c *Container) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discarded {
		return ErrContainerDiscarded
	}
	return nil
}

// Resolve returns an instance of T from c. An optional role qualifies the
// request.
func Resolve[T any](c *Container, role ...*Role) (T, error) {
	var zero T
	t := TypeOf[T]()

	v, err := c.Instance(t, firstRole(role))
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &TypeMismatchError{Expected: t.String(), Got: reflect.TypeOf(v).String()}
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](c *Container, role ...*Role) T {
	v, err := Resolve[T](c, role...)
	if err != nil {
		panic(err)
	}
	return v
}

// ResolveProvider returns a typed provider function for T.
func ResolveProvider[T any](c *Container, role ...*Role) (func() (T, error), error) {
	t := TypeOf[T]()
	p, err := c.Resolve(t, firstRole(role))
	if err != nil {
		return nil, err
	}
	return func() (T, error) {
		var zero T
		v, err := p.Get()
		if err != nil {
			return zero, &InitializationError{Type: t.String(), Err: err}
		}
		if v == nil {
			return zero, nil
		}
		typed, ok := v.(T)
		if !ok {
			return zero, &TypeMismatchError{Expected: t.String(), Got: reflect.TypeOf(v).String()}
		}
		return typed, nil
	}, nil
}

func firstRole(roles []*Role) *Role {
	if len(roles) > 0 {
		return roles[0]
	}
	return nil
}

// countingProvider records instance requests on root providers.
type countingProvider struct {
	target  Provider
	metrics *metrics.Collector
}

func (p *countingProvider) Get() (any, error) {
	p.metrics.ProviderGet()
	return p.target.Get()
}
