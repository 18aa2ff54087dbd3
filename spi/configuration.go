package spi

// ScopedRule is a bind rule together with the context it is active in.
//
// Order is the declaration position of the rule inside its Group. Rules of
// the same group are ranked by Order when they are otherwise equally
// specific; rules of different groups have no declared precedence.
type ScopedRule struct {
	Context ContextChain
	Rule    BindRule
	Group   int
	Order   int
}

// InjectorConfiguration is an immutable set of context-scoped bind rules.
type InjectorConfiguration interface {
	Rules() []ScopedRule
}

type configuration struct {
	rules []ScopedRule
}

// NewConfiguration returns a configuration holding rules in declaration
// order. Group and Order are reassigned from the argument order.
func NewConfiguration(rules ...ScopedRule) InjectorConfiguration {
	out := make([]ScopedRule, len(rules))
	for i, r := range rules {
		r.Group = 0
		r.Order = i
		out[i] = r
	}
	return &configuration{rules: out}
}

// Merge combines independently declared configurations. Rules keep their
// order inside each configuration, but rules from different configurations
// are not ordered relative to each other.
func Merge(configs ...InjectorConfiguration) InjectorConfiguration {
	var out []ScopedRule
	base := 0
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		next := base + 1
		for _, r := range cfg.Rules() {
			r.Group += base
			if r.Group >= next {
				next = r.Group + 1
			}
			out = append(out, r)
		}
		base = next
	}
	return &configuration{rules: out}
}

// Rules returns a copy of the scoped rules.
func (c *configuration) Rules() []ScopedRule {
	out := make([]ScopedRule, len(c.rules))
	copy(out, c.rules)
	return out
}
