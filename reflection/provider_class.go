package reflection

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/centraunit/grapht/spi"
)

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// getter invokes the Get method of a provider value.
type getter func(target reflect.Value) (any, error)

// getterOf finds the Get method of provider type t. It accepts Get() T and
// Get() (T, error) and returns the produced type T.
func getterOf(t reflect.Type) (getter, reflect.Type, error) {
	m, ok := t.MethodByName("Get")
	if !ok {
		return nil, nil, fmt.Errorf("type %v has no Get method", t)
	}

	// Method types of concrete types include the receiver.
	mt := m.Type
	recv := 1
	if t.Kind() == reflect.Interface {
		recv = 0
	}
	if mt.NumIn() != recv {
		return nil, nil, fmt.Errorf("%v.Get must not take arguments", t)
	}
	switch {
	case mt.NumOut() == 1 && mt.Out(0) != errorType:
	case mt.NumOut() == 2 && mt.Out(1) == errorType:
	default:
		return nil, nil, fmt.Errorf("%v.Get must return (T) or (T, error)", t)
	}

	returnsError := mt.NumOut() == 2
	g := func(target reflect.Value) (any, error) {
		method := target.MethodByName("Get")
		if !method.IsValid() {
			return nil, fmt.Errorf("%v has no Get method", target.Type())
		}
		results := method.Call(nil)
		if returnsError && !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		return results[0].Interface(), nil
	}
	return g, mt.Out(0), nil
}

// providedType picks the type a provider produces: the declared type when
// Get returns an untyped value, otherwise Get's own result type.
func providedType(out, declared reflect.Type) (reflect.Type, error) {
	if out == anyType {
		if declared == nil {
			return nil, fmt.Errorf("provider returns an untyped value and no provided type was declared")
		}
		return declared, nil
	}
	if declared != nil && !out.AssignableTo(declared) {
		return nil, fmt.Errorf("provider produces %v, which is not assignable to %v", out, declared)
	}
	return out, nil
}

// ProviderClassSatisfaction satisfies a type with a provider built by a
// constructor. The constructor's parameters are the dependencies; the
// provider is built once, on first use, and its Get method is called for
// every instance.
type ProviderClassSatisfaction struct {
	ctor *Constructor
	get  getter
	typ  reflect.Type
	deps []spi.Desire
}

// NewProviderClassSatisfaction wraps the provider constructor c. provided is
// the type bound to the provider and may be nil when Get is typed.
func NewProviderClassSatisfaction(ex *Extractor, c *Constructor, provided reflect.Type) (*ProviderClassSatisfaction, error) {
	g, out, err := getterOf(c.out)
	if err != nil {
		return nil, err
	}
	typ, err := providedType(out, provided)
	if err != nil {
		return nil, err
	}
	return &ProviderClassSatisfaction{ctor: c, get: g, typ: typ, deps: ex.paramDesires(c)}, nil
}

func (s *ProviderClassSatisfaction) Type() reflect.Type { return s.typ }

// ProviderType returns the type of the provider object itself.
func (s *ProviderClassSatisfaction) ProviderType() reflect.Type { return s.ctor.out }

func (s *ProviderClassSatisfaction) Dependencies() []spi.Desire {
	out := make([]spi.Desire, len(s.deps))
	copy(out, s.deps)
	return out
}

func (s *ProviderClassSatisfaction) MakeProvider(deps []spi.Provider) (spi.Provider, error) {
	if err := checkArity(s, deps); err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		target  reflect.Value
		created bool
	)
	build := func() (reflect.Value, error) {
		mu.Lock()
		defer mu.Unlock()
		if created {
			return target, nil
		}
		args, err := getDependencies(deps)
		if err != nil {
			return reflect.Value{}, err
		}
		p, err := s.ctor.Call(args)
		if err != nil {
			return reflect.Value{}, err
		}
		if p == nil {
			return reflect.Value{}, fmt.Errorf("provider constructor %v returned nil", s.ctor)
		}
		target, created = reflect.ValueOf(p), true
		return target, nil
	}

	return spi.ProviderFunc(func() (any, error) {
		p, err := build()
		if err != nil {
			return nil, err
		}
		return s.get(p)
	}), nil
}

type providerClassKey struct {
	ctor *Constructor
	typ  reflect.Type
}

func (s *ProviderClassSatisfaction) Key() any { return providerClassKey{ctor: s.ctor, typ: s.typ} }

func (s *ProviderClassSatisfaction) Eager() bool { return false }

func (s *ProviderClassSatisfaction) String() string {
	return fmt.Sprintf("Provider(%v)", s.ctor.out)
}
