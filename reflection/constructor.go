package reflection

import (
	"fmt"
	"reflect"

	"github.com/centraunit/grapht/spi"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Constructor holds the metadata of a constructor function.
// Supported signatures:
//   - func(Dep1, Dep2, ...) T
//   - func(Dep1, Dep2, ...) (T, error)
type Constructor struct {
	fn           reflect.Value
	fnType       reflect.Type
	out          reflect.Type
	params       []reflect.Type
	roles        []*spi.Role
	returnsError bool
}

// ConstructorOption configures a parsed constructor.
type ConstructorOption func(*Constructor) error

// ParamRole qualifies parameter i of the constructor with role.
func ParamRole(i int, role *spi.Role) ConstructorOption {
	return func(c *Constructor) error {
		if i < 0 || i >= len(c.params) {
			return fmt.Errorf("parameter index %d out of range for %v", i, c.fnType)
		}
		c.roles[i] = role
		return nil
	}
}

// ParseConstructor analyzes a constructor function.
func ParseConstructor(fn any, opts ...ConstructorOption) (*Constructor, error) {
	if fn == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType.Kind())
	}
	if fnValue.IsNil() {
		return nil, fmt.Errorf("constructor cannot be a nil function")
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("constructor %v cannot be variadic", fnType)
	}

	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("constructor must return (T) or (T, error), got %d return values", numOut)
	}
	if fnType.Out(0) == errorType {
		return nil, fmt.Errorf("constructor %v must produce a value before its error", fnType)
	}

	returnsError := false
	if numOut == 2 {
		if fnType.Out(1) != errorType {
			return nil, fmt.Errorf("constructor's second return value must be error, got %v", fnType.Out(1))
		}
		returnsError = true
	}

	params := make([]reflect.Type, fnType.NumIn())
	for i := range params {
		params[i] = fnType.In(i)
	}

	c := &Constructor{
		fn:           fnValue,
		fnType:       fnType,
		out:          fnType.Out(0),
		params:       params,
		roles:        make([]*spi.Role, len(params)),
		returnsError: returnsError,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Out returns the produced type.
func (c *Constructor) Out() reflect.Type {
	return c.out
}

// Params returns the parameter types.
func (c *Constructor) Params() []reflect.Type {
	out := make([]reflect.Type, len(c.params))
	copy(out, c.params)
	return out
}

// Call invokes the constructor with already-resolved arguments.
func (c *Constructor) Call(args []any) (any, error) {
	if len(args) != len(c.params) {
		return nil, fmt.Errorf("constructor %v expects %d arguments, got %d", c.fnType, len(c.params), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := argValue(arg, c.params[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d of %v: %w", i, c.fnType, err)
		}
		in[i] = v
	}

	results := c.fn.Call(in)
	if c.returnsError {
		if errValue := results[1]; !errValue.IsNil() {
			return nil, fmt.Errorf("constructor returned error: %w", errValue.Interface().(error))
		}
	}
	return results[0].Interface(), nil
}

func (c *Constructor) String() string {
	return c.fnType.String()
}

// argValue converts a resolved dependency into a call argument of type t.
func argValue(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not a valid %v", t)
	}
	v := reflect.ValueOf(arg)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%v is not assignable to %v", v.Type(), t)
	}
	return v, nil
}
