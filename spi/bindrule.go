package spi

// BindRule matches desires and rewrites them one step closer to resolution.
// Rules are immutable and Apply must be a pure function of its input.
type BindRule interface {
	// Matches reports whether the rule applies to d.
	Matches(d Desire) bool

	// Apply returns a desire whose resolution also satisfies d.
	Apply(d Desire) Desire

	// Qualifier is the qualifier pattern of the rule, used for ranking.
	Qualifier() QualifierMatcher

	// Terminates reports whether no further rules may be applied to the
	// result of this rule.
	Terminates() bool

	// CachePolicy is the policy requested for desires resolved through
	// this rule.
	CachePolicy() CachePolicy

	String() string
}
