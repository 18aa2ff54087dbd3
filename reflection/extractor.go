// Package reflection implements desires, satisfactions and bind rules on top
// of Go reflection. Dependencies are discovered from constructor parameters
// and from struct fields tagged with `inject`.
package reflection

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/centraunit/grapht/spi"
)

// Extractor maps concrete types to the desires they depend on. It remembers
// the constructors registered for produced types and the roles that struct
// tags may refer to by name.
type Extractor struct {
	mu           sync.RWMutex
	constructors map[reflect.Type]*Constructor
	roles        map[string]*spi.Role
	fields       *fieldCache
}

// NewExtractor creates an empty extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		constructors: make(map[reflect.Type]*Constructor),
		roles:        make(map[string]*spi.Role),
		fields:       newFieldCache(),
	}
}

// RegisterConstructor makes fn the default way to build its result type.
func (e *Extractor) RegisterConstructor(fn any, opts ...ConstructorOption) (*Constructor, error) {
	c, err := ParseConstructor(fn, opts...)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.constructors[c.out]; exists {
		return nil, fmt.Errorf("constructor already registered for type %v", c.out)
	}
	e.constructors[c.out] = c
	return c, nil
}

// RegisterRole makes r addressable by name from `inject` struct tags.
func (e *Extractor) RegisterRole(r *spi.Role) error {
	if r == nil || r.Name() == "" {
		return fmt.Errorf("role must have a name")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, exists := e.roles[r.Name()]; exists && existing != r {
		return fmt.Errorf("a different role named %q is already registered", r.Name())
	}
	e.roles[r.Name()] = r
	return nil
}

// Role looks up a registered role by name.
func (e *Extractor) Role(name string) (*spi.Role, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.roles[name]
	return r, ok
}

// Constructor returns the constructor registered for t.
func (e *Extractor) Constructor(t reflect.Type) (*Constructor, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.constructors[t]
	return c, ok
}

// Desire creates an unresolved desire for t qualified by role.
func (e *Extractor) Desire(t reflect.Type, role *spi.Role) *Desire {
	return &Desire{typ: t, role: role, ex: e}
}

// DefaultSatisfaction returns the satisfaction used for t when no bind rule
// applies: its registered constructor, or field injection for struct types.
// It returns nil when t cannot be built without a binding.
func (e *Extractor) DefaultSatisfaction(t reflect.Type) (spi.Satisfaction, error) {
	if c, ok := e.Constructor(t); ok {
		return NewConstructorSatisfaction(e, c), nil
	}
	if isStructType(t) {
		return NewStructSatisfaction(e, t)
	}
	return nil, nil
}

// fieldDesires returns the desires of the injectable fields of t.
func (e *Extractor) fieldDesires(t reflect.Type) ([]fieldInfo, []spi.Desire, error) {
	st := t
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
	}

	fields := e.fields.get(st)
	desires := make([]spi.Desire, len(fields))
	for i, f := range fields {
		var role *spi.Role
		if f.roleName != "" {
			r, ok := e.Role(f.roleName)
			if !ok {
				return nil, nil, fmt.Errorf("field %s.%s refers to unknown role %q", st.Name(), f.name, f.roleName)
			}
			role = r
		}
		desires[i] = e.Desire(f.typ, role).at(st.Name() + "." + f.name)
	}
	return fields, desires, nil
}

// paramDesires returns the desires of the parameters of c.
func (e *Extractor) paramDesires(c *Constructor) []spi.Desire {
	desires := make([]spi.Desire, len(c.params))
	for i, p := range c.params {
		desires[i] = e.Desire(p, c.roles[i]).at(fmt.Sprintf("%v#%d", c.fnType, i))
	}
	return desires
}

func isStructType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
