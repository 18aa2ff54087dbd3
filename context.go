package grapht

import (
	"reflect"

	"github.com/centraunit/grapht/spi"
)

// Context is a position in the binding DSL. Bindings declared through a
// context only apply to desires met while building the types on its chain,
// innermost type last. The root context applies everywhere.
type Context struct {
	b     *Builder
	chain spi.ContextChain
	group int
}

// In narrows the context to dependencies of t requested without a role.
func (c Context) In(t reflect.Type) Context {
	return c.push(spi.ContextMatcher{Type: t, Qualifier: spi.MatchDefault()})
}

// InRole narrows the context to dependencies of t requested with role r.
func (c Context) InRole(t reflect.Type, r *Role) Context {
	return c.push(spi.ContextMatcher{Type: t, Qualifier: spi.MatchRole(r)})
}

// InAny narrows the context to dependencies of t under any role.
func (c Context) InAny(t reflect.Type) Context {
	return c.push(spi.ContextMatcher{Type: t, Qualifier: spi.MatchAny()})
}

// In is the generic form of Context.In.
func In[T any](c Context) Context {
	return c.In(TypeOf[T]())
}

func (c Context) push(m spi.ContextMatcher) Context {
	return Context{b: c.b, chain: c.chain.Push(m), group: c.group}
}

// Chain returns the context chain bindings made here are scoped to.
func (c Context) Chain() spi.ContextChain {
	out := make(spi.ContextChain, len(c.chain))
	copy(out, c.chain)
	return out
}

// Builder returns the builder the context belongs to.
func (c Context) Builder() *Builder {
	return c.b
}
