// Package resolver turns desires into trees of satisfactions by applying
// context-scoped bind rules, and builds provider graphs from those trees.
package resolver

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/centraunit/grapht/internal/metrics"
	"github.com/centraunit/grapht/spi"
)

// DefaultMaxRewriteSlack is the number of bind rule applications allowed per
// desire beyond one per declared rule. Default steps are not counted; a
// repeated desire already ends the loop.
const DefaultMaxRewriteSlack = 8

// Resolver resolves desires against an injector configuration. It caches
// every resolution by context path and desire, so equal desires in equal
// contexts share one *Node. A Resolver is safe for concurrent use.
type Resolver struct {
	rules       []spi.ScopedRule
	maxRewrites int
	log         *zap.Logger
	metrics     *metrics.Collector

	paths    *pathTable
	sessions atomic.Uint64

	mu      sync.Mutex
	entries map[cacheKey]*entry
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics records resolution activity on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Resolver) { r.metrics = c }
}

// WithMaxRewriteSlack overrides DefaultMaxRewriteSlack.
func WithMaxRewriteSlack(n int) Option {
	return func(r *Resolver) {
		if n >= 0 {
			r.maxRewrites = len(r.rules) + n
		}
	}
}

// New creates a resolver for cfg.
func New(cfg spi.InjectorConfiguration, opts ...Option) *Resolver {
	var rules []spi.ScopedRule
	if cfg != nil {
		rules = cfg.Rules()
	}
	r := &Resolver{
		rules:       rules,
		maxRewrites: len(rules) + DefaultMaxRewriteSlack,
		log:         zap.NewNop(),
		paths:       newPathTable(),
		entries:     make(map[cacheKey]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rules returns the scoped rules the resolver was built with.
func (r *Resolver) Rules() []spi.ScopedRule {
	out := make([]spi.ScopedRule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Resolve resolves d at the root context.
func (r *Resolver) Resolve(d spi.Desire) (*Node, error) {
	return r.ResolveIn(d, nil)
}

// ResolveIn resolves d as if it were requested while building the types on
// ctx, outermost first.
func (r *Resolver) ResolveIn(d spi.Desire, ctx []spi.ContextElement) (*Node, error) {
	s := &session{id: r.sessions.Add(1)}
	n, err := r.resolve(s, d, r.paths.of(ctx))
	r.metrics.Resolution(outcome(err))
	if err != nil {
		r.log.Debug("resolution failed",
			zap.Stringer("desire", d),
			zap.Error(err),
		)
	}
	return n, err
}

// Reset drops every cached resolution.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[cacheKey]*entry)
}

// resolve answers from the cache or computes the node for d at p. Keys being
// resolved by this session are cycles; keys being resolved by another
// session are waited for.
func (r *Resolver) resolve(s *session, d spi.Desire, p *path) (*Node, error) {
	key := cacheKey{path: p, desire: d.Key()}

	r.mu.Lock()
	if e, ok := r.entries[key]; ok {
		switch e.state {
		case stateResolved:
			r.mu.Unlock()
			r.metrics.CacheHit()
			return e.node, nil
		case stateFailed:
			r.mu.Unlock()
			r.metrics.CacheHit()
			return nil, e.err
		case stateResolving:
			if e.owner == s.id {
				r.mu.Unlock()
				return nil, &CyclicDependencyError{Chain: s.chain(d)}
			}
			done := e.done
			r.mu.Unlock()

			r.metrics.Wait()
			r.log.Debug("waiting for concurrent resolution", zap.Stringer("desire", d))
			<-done
			return e.result()
		}
	}
	e := newEntry(s.id)
	r.entries[key] = e
	r.mu.Unlock()

	n, err := r.compute(s, d, p)

	r.mu.Lock()
	e.finish(n, err)
	r.mu.Unlock()
	return n, err
}

// compute runs the rewrite loop for d and resolves the dependencies of the
// chosen satisfaction one level deeper.
func (r *Resolver) compute(s *session, d spi.Desire, p *path) (*Node, error) {
	original := d
	chain := []spi.Desire{d}
	seen := map[spi.DesireKey]bool{d.Key(): true}

	var (
		applied    []spi.BindRule
		policy     = spi.NoPreference
		terminated bool
	)

	for d.Satisfaction() == nil {
		var next spi.Desire
		if !terminated {
			sr, err := selectRule(r.rules, d, p.elems)
			if err != nil {
				return nil, err
			}
			if sr != nil {
				if len(applied) >= r.maxRewrites {
					return nil, &ResolutionLoopError{Desire: original, Chain: chain, Limit: r.maxRewrites}
				}
				next = sr.Rule.Apply(d)
				applied = append(applied, sr.Rule)
				if cp := sr.Rule.CachePolicy(); cp != spi.NoPreference {
					policy = cp
				}
				terminated = sr.Rule.Terminates()
				r.log.Debug("applied bind rule",
					zap.Stringer("desire", d),
					zap.Stringer("rule", sr.Rule),
					zap.Stringer("context", sr.Context),
				)
			}
		}
		if next == nil {
			def, err := d.Default()
			if err != nil || def == nil {
				return nil, &UnresolvableDesireError{Desire: d, Context: append([]spi.ContextElement(nil), p.elems...), Err: err}
			}
			next = def
		}

		k := next.Key()
		chain = append(chain, next)
		if seen[k] {
			return nil, &ResolutionLoopError{Desire: original, Chain: chain, Limit: r.maxRewrites}
		}
		seen[k] = true
		d = next
	}
	r.metrics.RewriteSteps(len(chain) - 1)

	sat := d.Satisfaction()
	if !spi.Assignable(sat.Type(), original.Type()) || !spi.Assignable(sat.Type(), d.Type()) {
		return nil, &InvalidSatisfactionError{Desire: original, Satisfaction: sat}
	}

	node := &Node{
		Desire:       original,
		Resolved:     d,
		Satisfaction: sat,
		Policy:       policy,
		Context:      append([]spi.ContextElement(nil), p.elems...),
		Rules:        applied,
	}

	deps := sat.Dependencies()
	if len(deps) == 0 {
		return node, nil
	}

	// A cycle is the same satisfaction and role entered twice on this stack.
	// Leaves are exempt: a same-typed leaf below its consumer is not a cycle.
	key := satKey{sat: sat.Key(), role: original.Role()}
	if s.entered(key) {
		return nil, &CyclicDependencyError{Chain: s.cycle(key, original)}
	}

	child := r.paths.child(p, spi.ContextElement{Type: sat.Type(), Role: original.Role()})
	s.push(frame{desire: original, key: key})
	defer s.pop()

	node.Dependencies = make([]*Node, len(deps))
	for i, dep := range deps {
		n, err := r.resolve(s, dep, child)
		if err != nil {
			return nil, err
		}
		node.Dependencies[i] = n
	}
	return node, nil
}
