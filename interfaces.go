package grapht

import (
	"reflect"

	"github.com/centraunit/grapht/spi"
)

// Provider lazily produces instances of a resolved type.
type Provider = spi.Provider

// Role qualifies desires for the same type, e.g. a primary and a fallback
// database.
type Role = spi.Role

// Module groups related bindings so they can be installed together.
type Module interface {
	// Configure declares bindings on ctx, usually the builder's root.
	Configure(ctx Context) error
}

// ModuleFunc adapts a function to Module.
type ModuleFunc func(ctx Context) error

// Configure calls f.
func (f ModuleFunc) Configure(ctx Context) error {
	return f(ctx)
}

// Scope defines whether a resolved graph shares instances of a binding.
type Scope = spi.CachePolicy

// Available scopes
const (
	// ScopeDefault defers to the container's configured policy
	ScopeDefault Scope = spi.NoPreference
	// ScopeSingleton shares one instance per resolved graph
	ScopeSingleton Scope = spi.Memoize
	// ScopeTransient creates a new instance for each request
	ScopeTransient Scope = spi.NewInstance
)

// NewRole declares a role. Roles are compared by identity, so declare each
// role once, typically as a package-level variable.
func NewRole(name string, opts ...spi.RoleOption) *Role {
	return spi.NewRole(name, opts...)
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
