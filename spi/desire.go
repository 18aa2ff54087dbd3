// Package spi defines the contracts between the resolver and the components
// that describe what can be injected: desires, satisfactions, bind rules,
// context chains and injector configurations.
package spi

import (
	"reflect"
)

// Desire is a request for something satisfying a type, optionally qualified
// by a role. Desires are immutable; the Restrict and Satisfy methods return
// new values.
type Desire interface {
	// Type is the requested type.
	Type() reflect.Type

	// Role is the qualifier, nil for the default role.
	Role() *Role

	// Satisfaction returns the concrete satisfaction, or nil when the desire
	// is not yet resolved.
	Satisfaction() Satisfaction

	// Default returns the desire to fall back on when no bind rule applies,
	// or nil when there is none.
	Default() (Desire, error)

	// Restrict narrows the desire to t, keeping the role.
	Restrict(t reflect.Type) Desire

	// Satisfy returns a desire carrying s.
	Satisfy(s Satisfaction) Desire

	// Key returns the comparable identity of the desire.
	Key() DesireKey

	String() string
}

// DesireKey identifies a desire for caching. Two desires with equal keys are
// interchangeable for resolution.
type DesireKey struct {
	Type         reflect.Type
	Role         *Role
	Satisfaction any
}

// KeyOf computes the key of a desire from its parts.
func KeyOf(d Desire) DesireKey {
	k := DesireKey{Type: d.Type(), Role: d.Role()}
	if s := d.Satisfaction(); s != nil {
		k.Satisfaction = s.Key()
	}
	return k
}

// IsSatisfied reports whether d carries a satisfaction assignable to its type.
func IsSatisfied(d Desire) bool {
	s := d.Satisfaction()
	return s != nil && Assignable(s.Type(), d.Type())
}

// Assignable reports whether values of type from can be used where type to
// is requested.
func Assignable(from, to reflect.Type) bool {
	if from == nil || to == nil {
		return false
	}
	return from.AssignableTo(to)
}
