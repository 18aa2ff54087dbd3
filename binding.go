package grapht

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/centraunit/grapht/reflection"
	"github.com/centraunit/grapht/spi"
)

var errDetachedContext = errors.New("context does not belong to a builder")

// Binding declares how desires for T are satisfied in one context. It is
// configured with the chainable methods and completed by one of the To
// methods, which compile it into a bind rule.
type Binding[T any] struct {
	ctx       Context
	source    reflect.Type
	qualifier spi.QualifierMatcher
	terminate bool
	scope     Scope
}

// Bind starts a binding for T in ctx. Without WithRole it applies to
// desires without a role and to roles inheriting the default.
func Bind[T any](ctx Context) *Binding[T] {
	return &Binding[T]{
		ctx:       ctx,
		source:    TypeOf[T](),
		qualifier: spi.MatchDefault(),
	}
}

// WithRole restricts the binding to desires qualified by r or roles
// inheriting from it.
func (b *Binding[T]) WithRole(r *Role) *Binding[T] {
	b.qualifier = spi.MatchRole(r)
	return b
}

// WithAnyRole applies the binding regardless of role.
func (b *Binding[T]) WithAnyRole() *Binding[T] {
	b.qualifier = spi.MatchAny()
	return b
}

// TerminateChain stops further bindings from applying to the target. The
// target is then built from its own defaults.
func (b *Binding[T]) TerminateChain() *Binding[T] {
	b.terminate = true
	return b
}

// In sets the scope of instances built through the binding.
func (b *Binding[T]) In(s Scope) *Binding[T] {
	b.scope = s
	return b
}

// Shared is In(ScopeSingleton).
func (b *Binding[T]) Shared() *Binding[T] {
	return b.In(ScopeSingleton)
}

// Unshared is In(ScopeTransient).
func (b *Binding[T]) Unshared() *Binding[T] {
	return b.In(ScopeTransient)
}

// ToType binds T to the implementation type t, which is resolved further.
func (b *Binding[T]) ToType(t reflect.Type) error {
	if b.ctx.b == nil {
		return b.invalid(errDetachedContext)
	}
	rule, err := reflection.NewTypeRule(b.source, b.qualifier, t, b.options()...)
	if err != nil {
		return b.invalid(err)
	}
	b.ctx.b.addRule(b.ctx, rule)
	return nil
}

// To binds T to the result of constructor, whose parameters become
// dependencies. The constructor is only used for this binding.
func (b *Binding[T]) To(constructor any, opts ...reflection.ConstructorOption) error {
	if b.ctx.b == nil {
		return b.invalid(errDetachedContext)
	}
	c, err := reflection.ParseConstructor(constructor, opts...)
	if err != nil {
		return b.invalid(err)
	}
	return b.toSatisfaction(reflection.NewConstructorSatisfaction(b.ctx.b.ex, c))
}

// ToInstance binds T to v. Every resolution yields v itself.
func (b *Binding[T]) ToInstance(v T) error {
	if b.ctx.b == nil {
		return b.invalid(errDetachedContext)
	}
	if isNil(v) {
		return &NilServiceError{Type: b.source.String()}
	}
	s, err := reflection.NewInstanceSatisfaction(v)
	if err != nil {
		return b.invalid(err)
	}
	return b.toSatisfaction(s)
}

// ToProvider binds T to the Get method of the provider built by
// constructor. Get may return T, a type assignable to T, or any.
func (b *Binding[T]) ToProvider(constructor any, opts ...reflection.ConstructorOption) error {
	if b.ctx.b == nil {
		return b.invalid(errDetachedContext)
	}
	c, err := reflection.ParseConstructor(constructor, opts...)
	if err != nil {
		return b.invalid(err)
	}
	s, err := reflection.NewProviderClassSatisfaction(b.ctx.b.ex, c, b.source)
	if err != nil {
		return b.invalid(err)
	}
	return b.toSatisfaction(s)
}

// ToProviderInstance binds T to the Get method of p.
func (b *Binding[T]) ToProviderInstance(p any) error {
	if b.ctx.b == nil {
		return b.invalid(errDetachedContext)
	}
	if isNil(p) {
		return &NilServiceError{Type: b.source.String()}
	}
	s, err := reflection.NewProviderInstanceSatisfaction(p, b.source)
	if err != nil {
		return b.invalid(err)
	}
	return b.toSatisfaction(s)
}

func (b *Binding[T]) toSatisfaction(s spi.Satisfaction) error {
	rule, err := reflection.NewSatisfactionRule(b.source, b.qualifier, s, b.options()...)
	if err != nil {
		return b.invalid(err)
	}
	b.ctx.b.addRule(b.ctx, rule)
	return nil
}

func (b *Binding[T]) options() []reflection.RuleOption {
	opts := []reflection.RuleOption{reflection.WithCachePolicy(b.scope)}
	if b.terminate {
		opts = append(opts, reflection.Terminate())
	}
	return opts
}

func (b *Binding[T]) invalid(err error) error {
	return &InvalidBindingError{Type: b.source.String(), Err: err}
}

func (b *Binding[T]) String() string {
	return fmt.Sprintf("bind %s %v in %s", b.qualifier, b.source, b.ctx.chain)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
