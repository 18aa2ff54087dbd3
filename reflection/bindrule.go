package reflection

import (
	"fmt"
	"reflect"

	"github.com/centraunit/grapht/spi"
)

// BindRule rewrites desires for a source type, either to a narrower type or
// directly to a satisfaction.
type BindRule struct {
	source    reflect.Type
	qualifier spi.QualifierMatcher
	target    reflect.Type
	sat       spi.Satisfaction
	terminate bool
	policy    spi.CachePolicy
}

var _ spi.BindRule = (*BindRule)(nil)

// RuleOption configures a bind rule.
type RuleOption func(*BindRule)

// Terminate stops rule application after this rule.
func Terminate() RuleOption {
	return func(r *BindRule) { r.terminate = true }
}

// WithCachePolicy sets the cache policy requested by the rule.
func WithCachePolicy(p spi.CachePolicy) RuleOption {
	return func(r *BindRule) { r.policy = p }
}

// NewTypeRule binds source to the implementation type target.
func NewTypeRule(source reflect.Type, q spi.QualifierMatcher, target reflect.Type, opts ...RuleOption) (*BindRule, error) {
	if source == nil || target == nil {
		return nil, fmt.Errorf("bind rule types cannot be nil")
	}
	if !target.AssignableTo(source) {
		return nil, fmt.Errorf("type %v is not assignable to %v", target, source)
	}
	r := &BindRule{source: source, qualifier: q, target: target}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewSatisfactionRule binds source directly to s.
func NewSatisfactionRule(source reflect.Type, q spi.QualifierMatcher, s spi.Satisfaction, opts ...RuleOption) (*BindRule, error) {
	if source == nil || s == nil {
		return nil, fmt.Errorf("bind rule source and satisfaction cannot be nil")
	}
	if !spi.Assignable(s.Type(), source) {
		return nil, fmt.Errorf("%s produces %v, which is not assignable to %v", s, s.Type(), source)
	}
	r := &BindRule{source: source, qualifier: q, sat: s}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Source returns the type the rule matches.
func (r *BindRule) Source() reflect.Type { return r.source }

func (r *BindRule) Matches(d spi.Desire) bool {
	return d.Type() == r.source && r.qualifier.Matches(d.Role())
}

func (r *BindRule) Apply(d spi.Desire) spi.Desire {
	if r.sat != nil {
		return d.Satisfy(r.sat)
	}
	return d.Restrict(r.target)
}

func (r *BindRule) Qualifier() spi.QualifierMatcher { return r.qualifier }

func (r *BindRule) Terminates() bool { return r.terminate }

func (r *BindRule) CachePolicy() spi.CachePolicy { return r.policy }

func (r *BindRule) String() string {
	to := "<nil>"
	switch {
	case r.sat != nil:
		to = r.sat.String()
	case r.target != nil:
		to = r.target.String()
	}
	return fmt.Sprintf("bind %s %v to %s", r.qualifier, r.source, to)
}
