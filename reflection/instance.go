package reflection

import (
	"fmt"
	"reflect"

	"github.com/centraunit/grapht/spi"
)

// InstanceSatisfaction wraps an existing instance. It has no dependencies and
// its provider always returns the same object.
type InstanceSatisfaction struct {
	instance any
	typ      reflect.Type
}

// NewInstanceSatisfaction wraps v, which must not be nil.
func NewInstanceSatisfaction(v any) (*InstanceSatisfaction, error) {
	if v == nil {
		return nil, fmt.Errorf("instance cannot be nil")
	}
	return &InstanceSatisfaction{instance: v, typ: reflect.TypeOf(v)}, nil
}

func (s *InstanceSatisfaction) Type() reflect.Type { return s.typ }

func (s *InstanceSatisfaction) Dependencies() []spi.Desire { return nil }

func (s *InstanceSatisfaction) MakeProvider(deps []spi.Provider) (spi.Provider, error) {
	if err := checkArity(s, deps); err != nil {
		return nil, err
	}
	return &spi.InstanceProvider{Instance: s.instance}, nil
}

type instanceKey struct {
	value any
}

// Key identifies the instance itself when it is safely comparable, and the
// satisfaction otherwise.
func (s *InstanceSatisfaction) Key() any {
	if identityComparable(s.typ) {
		return instanceKey{value: s.instance}
	}
	return s
}

func (s *InstanceSatisfaction) Eager() bool { return true }

// Instance returns the wrapped instance.
func (s *InstanceSatisfaction) Instance() any { return s.instance }

func (s *InstanceSatisfaction) String() string {
	return fmt.Sprintf("Instance(%v)", s.typ)
}

// ProviderInstanceSatisfaction wraps an existing provider object: a
// spi.Provider or any value with a Get() T or Get() (T, error) method.
type ProviderInstanceSatisfaction struct {
	provider any
	get      getter
	typ      reflect.Type
}

// NewProviderInstanceSatisfaction wraps p. When p's Get method returns an
// untyped value, provided is used as the produced type.
func NewProviderInstanceSatisfaction(p any, provided reflect.Type) (*ProviderInstanceSatisfaction, error) {
	if p == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	g, out, err := getterOf(reflect.TypeOf(p))
	if err != nil {
		return nil, err
	}
	typ, err := providedType(out, provided)
	if err != nil {
		return nil, err
	}
	return &ProviderInstanceSatisfaction{provider: p, get: g, typ: typ}, nil
}

func (s *ProviderInstanceSatisfaction) Type() reflect.Type { return s.typ }

func (s *ProviderInstanceSatisfaction) Dependencies() []spi.Desire { return nil }

func (s *ProviderInstanceSatisfaction) MakeProvider(deps []spi.Provider) (spi.Provider, error) {
	if err := checkArity(s, deps); err != nil {
		return nil, err
	}
	target := reflect.ValueOf(s.provider)
	return spi.ProviderFunc(func() (any, error) {
		return s.get(target)
	}), nil
}

type providerInstanceKey struct {
	value any
}

func (s *ProviderInstanceSatisfaction) Key() any {
	if identityComparable(reflect.TypeOf(s.provider)) {
		return providerInstanceKey{value: s.provider}
	}
	return s
}

func (s *ProviderInstanceSatisfaction) Eager() bool { return false }

func (s *ProviderInstanceSatisfaction) String() string {
	return fmt.Sprintf("ProviderInstance(%T)", s.provider)
}

// identityComparable reports whether values of t can be used as map keys
// without risking a runtime panic.
func identityComparable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Chan, reflect.UnsafePointer,
		reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}
