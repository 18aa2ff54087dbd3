package spi

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

var roleSeq atomic.Uint64

// Role qualifies a desire so that several dependencies of the same type can be
// bound independently. Roles are compared by pointer identity; a nil *Role is
// the default (unqualified) role.
type Role struct {
	id              uint64
	name            string
	parent          *Role
	inheritsDefault bool
	defaultType     reflect.Type
	defaultInstance any
	hasInstance     bool
}

// RoleOption configures a Role at declaration time.
type RoleOption func(*Role)

// InheritsRole makes the role inherit every binding made for parent unless a
// more specific binding targets the role itself.
func InheritsRole(parent *Role) RoleOption {
	return func(r *Role) {
		r.parent = parent
		r.inheritsDefault = false
	}
}

// InheritsDefault makes the role inherit bindings made for the default role.
func InheritsDefault() RoleOption {
	return func(r *Role) {
		r.parent = nil
		r.inheritsDefault = true
	}
}

// DefaultType sets the implementation used when nothing is bound for the role.
func DefaultType(t reflect.Type) RoleOption {
	return func(r *Role) {
		r.defaultType = t
	}
}

// DefaultInstance sets an instance used when nothing is bound for the role.
func DefaultInstance(v any) RoleOption {
	return func(r *Role) {
		r.defaultInstance = v
		r.hasInstance = v != nil
	}
}

// NewRole declares a new role.
//
//	var Primary = spi.NewRole("primary", spi.InheritsDefault())
func NewRole(name string, opts ...RoleOption) *Role {
	r := &Role{id: roleSeq.Add(1), name: name}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the declared role name.
func (r *Role) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

// Parent returns the role this role inherits from, if any.
func (r *Role) Parent() *Role {
	if r == nil {
		return nil
	}
	return r.parent
}

// InheritsDefault reports whether the inheritance chain of r ends at the
// default role.
func (r *Role) InheritsDefault() bool {
	for cur := r; cur != nil; cur = cur.parent {
		if cur.inheritsDefault {
			return true
		}
	}
	return false
}

// DefaultType returns the default implementation type declared for the role.
func (r *Role) DefaultType() reflect.Type {
	if r == nil {
		return nil
	}
	return r.defaultType
}

// DefaultInstance returns the default instance declared for the role.
func (r *Role) DefaultInstance() (any, bool) {
	if r == nil {
		return nil, false
	}
	return r.defaultInstance, r.hasInstance
}

func (r *Role) String() string {
	if r == nil {
		return "<default>"
	}
	return fmt.Sprintf("@%s", r.name)
}

// QualifierKind enumerates the qualifier patterns a rule or context matcher
// can use.
type QualifierKind int

const (
	// QualifierAny matches every role, including the default role.
	QualifierAny QualifierKind = iota
	// QualifierDefault matches the default role and roles inheriting it.
	QualifierDefault
	// QualifierExact matches one role and the roles inheriting from it.
	QualifierExact
)

// anyDistance ranks "any qualifier" matches after every concrete match.
const anyDistance = 1 << 16

// QualifierMatcher is a qualifier pattern.
type QualifierMatcher struct {
	kind QualifierKind
	role *Role
}

// MatchAny returns a matcher accepting every qualifier.
func MatchAny() QualifierMatcher {
	return QualifierMatcher{kind: QualifierAny}
}

// MatchDefault returns a matcher for the default role.
func MatchDefault() QualifierMatcher {
	return QualifierMatcher{kind: QualifierDefault}
}

// MatchRole returns a matcher for r. A nil role yields MatchDefault.
func MatchRole(r *Role) QualifierMatcher {
	if r == nil {
		return MatchDefault()
	}
	return QualifierMatcher{kind: QualifierExact, role: r}
}

// Kind returns the matcher variant.
func (q QualifierMatcher) Kind() QualifierKind {
	return q.kind
}

// Role returns the role of an exact matcher.
func (q QualifierMatcher) Role() *Role {
	return q.role
}

// IsExact reports whether the matcher pins a qualifier (default or role)
// rather than accepting any.
func (q QualifierMatcher) IsExact() bool {
	return q.kind != QualifierAny
}

// Matches reports whether role satisfies the pattern.
func (q QualifierMatcher) Matches(role *Role) bool {
	_, ok := q.Distance(role)
	return ok
}

// Distance returns the number of inheritance hops needed to match role.
// An exact match has distance zero; QualifierAny matches at a distance larger
// than any inheritance chain.
func (q QualifierMatcher) Distance(role *Role) (int, bool) {
	switch q.kind {
	case QualifierAny:
		return anyDistance, true
	case QualifierDefault:
		if role == nil {
			return 0, true
		}
		hops := 1
		for cur := role; cur != nil; cur = cur.parent {
			if cur.inheritsDefault {
				return hops, true
			}
			hops++
		}
		return 0, false
	case QualifierExact:
		hops := 0
		for cur := role; cur != nil; cur = cur.parent {
			if cur == q.role {
				return hops, true
			}
			hops++
		}
		return 0, false
	}
	return 0, false
}

func (q QualifierMatcher) String() string {
	switch q.kind {
	case QualifierAny:
		return "@*"
	case QualifierDefault:
		return "<default>"
	default:
		return q.role.String()
	}
}
