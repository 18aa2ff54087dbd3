package resolver

import (
	"sort"

	"github.com/centraunit/grapht/spi"
)

// candidate is a scoped rule that matches the current desire and context.
type candidate struct {
	rule     *spi.ScopedRule
	length   int
	exact    int
	distance int
}

// compareSpecificity orders a before b when it returns a negative number.
// Longer context chains win, then chains pinning more qualifiers, then
// rules whose qualifier needed fewer inheritance hops.
func compareSpecificity(a, b candidate) int {
	if a.length != b.length {
		return b.length - a.length
	}
	if a.exact != b.exact {
		return b.exact - a.exact
	}
	return a.distance - b.distance
}

// candidates collects the scoped rules applicable to d at elems, most
// specific first. Equally specific rules of one group stay in declaration
// order.
func candidates(rules []spi.ScopedRule, d spi.Desire, elems []spi.ContextElement) []candidate {
	var out []candidate
	for i := range rules {
		sr := &rules[i]
		if !sr.Context.Matches(elems) || !sr.Rule.Matches(d) {
			continue
		}
		dist, ok := sr.Rule.Qualifier().Distance(d.Role())
		if !ok {
			continue
		}
		out = append(out, candidate{
			rule:     sr,
			length:   len(sr.Context),
			exact:    sr.Context.ExactQualifiers(),
			distance: dist,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := compareSpecificity(out[i], out[j]); c != 0 {
			return c < 0
		}
		if out[i].rule.Group != out[j].rule.Group {
			return out[i].rule.Group < out[j].rule.Group
		}
		return out[i].rule.Order < out[j].rule.Order
	})
	return out
}

// selectRule picks the rule to apply to d at elems. It returns nil when no
// rule applies. Equally specific rules from different groups are only
// accepted when they rewrite d to the same desire.
func selectRule(rules []spi.ScopedRule, d spi.Desire, elems []spi.ContextElement) (*spi.ScopedRule, error) {
	cands := candidates(rules, d, elems)
	if len(cands) == 0 {
		return nil, nil
	}

	top := cands[0]
	var (
		topKey    spi.DesireKey
		haveKey   bool
		conflicts []spi.BindRule
	)
	for _, c := range cands[1:] {
		if compareSpecificity(top, c) != 0 {
			break
		}
		if c.rule.Group == top.rule.Group {
			continue
		}
		if !haveKey {
			topKey, haveKey = top.rule.Rule.Apply(d).Key(), true
		}
		if c.rule.Rule.Apply(d).Key() == topKey {
			continue
		}
		conflicts = append(conflicts, c.rule.Rule)
	}
	if len(conflicts) > 0 {
		return nil, &AmbiguousBindingError{
			Desire:  d,
			Context: append([]spi.ContextElement(nil), elems...),
			Rules:   append([]spi.BindRule{top.rule.Rule}, conflicts...),
		}
	}
	return top.rule, nil
}
