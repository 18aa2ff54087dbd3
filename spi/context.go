package spi

import (
	"reflect"
	"strings"
)

// ContextElement is one entry of the actual instantiation path: a type being
// built and the role under which it was requested.
type ContextElement struct {
	Type reflect.Type
	Role *Role
}

func (e ContextElement) String() string {
	if e.Role == nil {
		return e.Type.String()
	}
	return e.Role.String() + " " + e.Type.String()
}

// ContextMatcher matches a single context element.
type ContextMatcher struct {
	Type      reflect.Type
	Qualifier QualifierMatcher
}

// Matches reports whether e is matched. Interface matcher types match every
// element type implementing them.
func (m ContextMatcher) Matches(e ContextElement) bool {
	if e.Type == nil || m.Type == nil {
		return false
	}
	if e.Type != m.Type {
		if m.Type.Kind() != reflect.Interface || !e.Type.Implements(m.Type) {
			return false
		}
	}
	return m.Qualifier.Matches(e.Role)
}

func (m ContextMatcher) String() string {
	if m.Qualifier.Kind() == QualifierDefault {
		return m.Type.String()
	}
	return m.Qualifier.String() + " " + m.Type.String()
}

// ContextChain is a pattern over the ancestor path, root-most matcher first.
// It matches an actual path when its matchers match the most recent
// len(chain) elements in order; the empty chain matches every path.
type ContextChain []ContextMatcher

// Matches reports whether the chain matches the tail of path.
func (c ContextChain) Matches(path []ContextElement) bool {
	if len(c) > len(path) {
		return false
	}
	offset := len(path) - len(c)
	for i, m := range c {
		if !m.Matches(path[offset+i]) {
			return false
		}
	}
	return true
}

// ExactQualifiers counts the matchers that pin a qualifier.
func (c ContextChain) ExactQualifiers() int {
	n := 0
	for _, m := range c {
		if m.Qualifier.IsExact() {
			n++
		}
	}
	return n
}

// Push returns a new chain extended with m.
func (c ContextChain) Push(m ContextMatcher) ContextChain {
	out := make(ContextChain, len(c), len(c)+1)
	copy(out, c)
	return append(out, m)
}

func (c ContextChain) String() string {
	if len(c) == 0 {
		return "[]"
	}
	parts := make([]string, len(c))
	for i, m := range c {
		parts[i] = m.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
