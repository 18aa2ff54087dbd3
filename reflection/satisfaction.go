package reflection

import (
	"fmt"
	"reflect"

	"github.com/centraunit/grapht/spi"
)

// getDependencies resolves every dependency provider in order.
func getDependencies(deps []spi.Provider) ([]any, error) {
	args := make([]any, len(deps))
	for i, p := range deps {
		v, err := p.Get()
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func checkArity(s spi.Satisfaction, deps []spi.Provider) error {
	if want := len(s.Dependencies()); len(deps) != want {
		return fmt.Errorf("%s needs %d dependency providers, got %d", s, want, len(deps))
	}
	return nil
}

// ConstructorSatisfaction builds instances by calling a constructor function.
type ConstructorSatisfaction struct {
	ctor *Constructor
	deps []spi.Desire
}

// NewConstructorSatisfaction wraps c; its parameters become the dependencies.
func NewConstructorSatisfaction(ex *Extractor, c *Constructor) *ConstructorSatisfaction {
	return &ConstructorSatisfaction{ctor: c, deps: ex.paramDesires(c)}
}

func (s *ConstructorSatisfaction) Type() reflect.Type { return s.ctor.out }

func (s *ConstructorSatisfaction) Dependencies() []spi.Desire {
	out := make([]spi.Desire, len(s.deps))
	copy(out, s.deps)
	return out
}

func (s *ConstructorSatisfaction) MakeProvider(deps []spi.Provider) (spi.Provider, error) {
	if err := checkArity(s, deps); err != nil {
		return nil, err
	}
	return spi.ProviderFunc(func() (any, error) {
		args, err := getDependencies(deps)
		if err != nil {
			return nil, err
		}
		return s.ctor.Call(args)
	}), nil
}

func (s *ConstructorSatisfaction) Key() any { return s.ctor }

func (s *ConstructorSatisfaction) Eager() bool { return false }

func (s *ConstructorSatisfaction) String() string {
	return fmt.Sprintf("Constructor(%v)", s.ctor)
}

// StructSatisfaction builds a zero struct and fills its `inject` fields.
type StructSatisfaction struct {
	typ    reflect.Type
	fields []fieldInfo
	deps   []spi.Desire
}

// NewStructSatisfaction inspects t, a struct or pointer-to-struct type.
func NewStructSatisfaction(ex *Extractor, t reflect.Type) (*StructSatisfaction, error) {
	if !isStructType(t) {
		return nil, fmt.Errorf("type %v is not a struct or pointer to struct", t)
	}
	fields, deps, err := ex.fieldDesires(t)
	if err != nil {
		return nil, err
	}
	return &StructSatisfaction{typ: t, fields: fields, deps: deps}, nil
}

func (s *StructSatisfaction) Type() reflect.Type { return s.typ }

func (s *StructSatisfaction) Dependencies() []spi.Desire {
	out := make([]spi.Desire, len(s.deps))
	copy(out, s.deps)
	return out
}

func (s *StructSatisfaction) MakeProvider(deps []spi.Provider) (spi.Provider, error) {
	if err := checkArity(s, deps); err != nil {
		return nil, err
	}
	return spi.ProviderFunc(func() (any, error) {
		args, err := getDependencies(deps)
		if err != nil {
			return nil, err
		}

		st := s.typ
		if st.Kind() == reflect.Ptr {
			st = st.Elem()
		}
		ptr := reflect.New(st)
		for i, f := range s.fields {
			v, err := argValue(args[i], f.typ)
			if err != nil {
				return nil, fmt.Errorf("field %s.%s: %w", st.Name(), f.name, err)
			}
			ptr.Elem().Field(f.index).Set(v)
		}

		if s.typ.Kind() == reflect.Ptr {
			return ptr.Interface(), nil
		}
		return ptr.Elem().Interface(), nil
	}), nil
}

type structKey struct {
	typ reflect.Type
}

func (s *StructSatisfaction) Key() any { return structKey{typ: s.typ} }

func (s *StructSatisfaction) Eager() bool { return false }

func (s *StructSatisfaction) String() string {
	return fmt.Sprintf("Struct(%v)", s.typ)
}
