package spi

import (
	"reflect"
)

// Satisfaction is a concrete recipe for producing instances of a type. Its
// dependencies are fixed for its lifetime.
type Satisfaction interface {
	// Type is the type of the produced instances.
	Type() reflect.Type

	// Dependencies lists the desires that must be resolved before a provider
	// can be made, in the order MakeProvider expects their providers.
	Dependencies() []Desire

	// MakeProvider builds a provider given one provider per dependency.
	MakeProvider(deps []Provider) (Provider, error)

	// Key is a comparable value; equal keys mean interchangeable
	// satisfactions.
	Key() any

	// Eager reports whether the satisfaction wraps an existing instance.
	Eager() bool

	String() string
}

// CachePolicy controls whether the provider of a graph node is memoized.
type CachePolicy int

const (
	// NoPreference defers to the container default.
	NoPreference CachePolicy = iota
	// Memoize shares one instance per node in the graph.
	Memoize
	// NewInstance builds a fresh instance on every Get.
	NewInstance
)

func (p CachePolicy) String() string {
	switch p {
	case Memoize:
		return "memoize"
	case NewInstance:
		return "new-instance"
	default:
		return "no-preference"
	}
}

// ParseCachePolicy parses the names produced by CachePolicy.String.
func ParseCachePolicy(s string) (CachePolicy, bool) {
	switch s {
	case "memoize", "shared":
		return Memoize, true
	case "new-instance", "new", "unshared":
		return NewInstance, true
	case "", "no-preference":
		return NoPreference, true
	}
	return NoPreference, false
}
