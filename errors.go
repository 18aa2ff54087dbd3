package grapht

import (
	"errors"
	"fmt"

	"github.com/centraunit/grapht/resolver"
)

// Resolution errors, see package resolver.
type (
	UnresolvableDesireError  = resolver.UnresolvableDesireError
	AmbiguousBindingError    = resolver.AmbiguousBindingError
	CyclicDependencyError    = resolver.CyclicDependencyError
	ResolutionLoopError      = resolver.ResolutionLoopError
	InvalidSatisfactionError = resolver.InvalidSatisfactionError
)

var (
	ErrUnresolvable        = resolver.ErrUnresolvable
	ErrAmbiguous           = resolver.ErrAmbiguous
	ErrCyclic              = resolver.ErrCyclic
	ErrResolutionLoop      = resolver.ErrResolutionLoop
	ErrInvalidSatisfaction = resolver.ErrInvalidSatisfaction

	// ErrContainerDiscarded is returned by containers after Discard.
	ErrContainerDiscarded = errors.New("container has been discarded")
)

// InvalidBindingError represents a binding that cannot be turned into a rule.
type InvalidBindingError struct {
	Type string
	Err  error
}

func (e *InvalidBindingError) Error() string {
	return fmt.Sprintf("invalid binding for type %s: %v", e.Type, e.Err)
}

func (e *InvalidBindingError) Unwrap() error {
	return e.Err
}

// NilServiceError represents an attempt to bind a nil instance.
type NilServiceError struct {
	Type string
}

func (e *NilServiceError) Error() string {
	return fmt.Sprintf("nil service provided for type: %s", e.Type)
}

// InitializationError represents a failure while creating an instance.
type InitializationError struct {
	Type string
	Err  error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization failed for type %s: %v", e.Type, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// TypeMismatchError represents a type assertion failure.
type TypeMismatchError struct {
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
}

// ConfigError represents a configuration file that cannot be loaded.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration in %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
