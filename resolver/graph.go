package resolver

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/centraunit/grapht/internal/metrics"
	"github.com/centraunit/grapht/spi"
)

// GraphBuilder turns resolved nodes into providers. Providers are built
// bottom-up and remembered per node; nodes with equal satisfactions and
// identical dependency providers share one provider, so a shared subtree is
// never instantiated twice.
type GraphBuilder struct {
	policy  spi.CachePolicy
	log     *zap.Logger
	metrics *metrics.Collector

	mu     sync.Mutex
	built  map[*Node]*builtProvider
	merged map[mergeKey]*builtProvider
	nextID int
}

type builtProvider struct {
	id       int
	provider spi.Provider
}

type mergeKey struct {
	sat    any
	policy spi.CachePolicy
	deps   string
}

// GraphOption configures a GraphBuilder.
type GraphOption func(*GraphBuilder)

// WithGraphLogger sets the builder's logger.
func WithGraphLogger(l *zap.Logger) GraphOption {
	return func(b *GraphBuilder) {
		if l != nil {
			b.log = l
		}
	}
}

// WithGraphMetrics records built providers on c.
func WithGraphMetrics(c *metrics.Collector) GraphOption {
	return func(b *GraphBuilder) { b.metrics = c }
}

// NewGraphBuilder creates a builder. policy applies to nodes whose rules
// expressed no preference; NoPreference itself means Memoize.
func NewGraphBuilder(policy spi.CachePolicy, opts ...GraphOption) *GraphBuilder {
	if policy == spi.NoPreference {
		policy = spi.Memoize
	}
	b := &GraphBuilder{
		policy: policy,
		log:    zap.NewNop(),
		built:  make(map[*Node]*builtProvider),
		merged: make(map[mergeKey]*builtProvider),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the provider for root, building the providers of its
// dependencies first.
func (b *GraphBuilder) Build(root *Node) (spi.Provider, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, n := range root.Order() {
		if _, ok := b.built[n]; ok {
			continue
		}
		bp, err := b.buildNode(n)
		if err != nil {
			return nil, err
		}
		b.built[n] = bp
	}
	return b.built[root].provider, nil
}

// Reset forgets every provider built so far.
func (b *GraphBuilder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.built = make(map[*Node]*builtProvider)
	b.merged = make(map[mergeKey]*builtProvider)
}

// buildNode builds n, whose dependencies are already built.
func (b *GraphBuilder) buildNode(n *Node) (*builtProvider, error) {
	policy := n.Policy
	if policy == spi.NoPreference {
		policy = b.policy
	}

	deps := make([]spi.Provider, len(n.Dependencies))
	ids := make([]string, len(n.Dependencies))
	for i, d := range n.Dependencies {
		bp := b.built[d]
		deps[i] = bp.provider
		ids[i] = strconv.Itoa(bp.id)
	}

	key := mergeKey{sat: n.Satisfaction.Key(), policy: policy, deps: strings.Join(ids, ",")}
	if bp, ok := b.merged[key]; ok {
		return bp, nil
	}

	p, err := n.Satisfaction.MakeProvider(deps)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider for %s: %w", n.Satisfaction, err)
	}
	if policy == spi.Memoize && !n.Satisfaction.Eager() {
		p = spi.MemoizeProvider(p)
	}

	b.nextID++
	bp := &builtProvider{id: b.nextID, provider: p}
	b.merged[key] = bp
	b.metrics.ProviderBuilt()
	b.log.Debug("built provider",
		zap.Stringer("satisfaction", n.Satisfaction),
		zap.Stringer("policy", policy),
	)
	return bp, nil
}
