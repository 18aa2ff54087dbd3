package reflection_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/centraunit/grapht/reflection"
	"github.com/centraunit/grapht/spi"
)

type engine interface{ Power() int }

type v8 struct{ hp int }

func (e *v8) Power() int { return e.hp }

type car struct {
	Engine engine `inject:""`
	Spare  engine `inject:"spare"`
	Name   string
	hidden engine `inject:""`
}

type engineFactory struct{ hp int }

func (f *engineFactory) Get() (engine, error) { return &v8{hp: f.hp}, nil }

type untypedFactory struct{}

func (untypedFactory) Get() any { return &v8{hp: 1} }

var errStall = errors.New("stall")

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

type ReflectionTestSuite struct {
	suite.Suite
	ex *reflection.Extractor
}

func (s *ReflectionTestSuite) SetupTest() {
	s.ex = reflection.NewExtractor()
}

func (s *ReflectionTestSuite) TestParseConstructor() {
	c, err := reflection.ParseConstructor(func(e engine, n int) (*car, error) { return &car{Engine: e}, nil })
	s.Require().NoError(err)
	s.Equal(typeOf[*car](), c.Out())
	s.Equal([]reflect.Type{typeOf[engine](), typeOf[int]()}, c.Params())

	invalid := []any{
		nil,
		42,
		(func() *car)(nil),
		func(...int) *car { return nil },
		func() {},
		func() error { return nil },
		func() (*car, int) { return nil, 0 },
		func() (*car, error, int) { return nil, nil, 0 },
	}
	for _, fn := range invalid {
		_, err := reflection.ParseConstructor(fn)
		s.Error(err, "%T", fn)
	}

	_, err = reflection.ParseConstructor(func(e engine) *car { return nil }, reflection.ParamRole(1, spi.NewRole("x")))
	s.Error(err)
}

func (s *ReflectionTestSuite) TestConstructorCall() {
	c, err := reflection.ParseConstructor(func(e engine) (*car, error) {
		if e == nil {
			return nil, errStall
		}
		return &car{Engine: e}, nil
	})
	s.Require().NoError(err)

	v, err := c.Call([]any{&v8{hp: 300}})
	s.NoError(err)
	s.Equal(300, v.(*car).Engine.Power())

	_, err = c.Call([]any{nil})
	s.ErrorIs(err, errStall)

	_, err = c.Call(nil)
	s.Error(err)

	_, err = c.Call([]any{"not an engine"})
	s.Error(err)
}

func (s *ReflectionTestSuite) TestStructSatisfaction() {
	spare := spi.NewRole("spare")
	s.Require().NoError(s.ex.RegisterRole(spare))

	sat, err := reflection.NewStructSatisfaction(s.ex, typeOf[*car]())
	s.Require().NoError(err)

	deps := sat.Dependencies()
	s.Require().Len(deps, 2)
	s.Equal(typeOf[engine](), deps[0].Type())
	s.Nil(deps[0].Role())
	s.Same(spare, deps[1].Role())
	s.Equal("car.Spare", deps[1].(*reflection.Desire).InjectionPoint())

	p, err := sat.MakeProvider([]spi.Provider{
		&spi.InstanceProvider{Instance: &v8{hp: 1}},
		&spi.InstanceProvider{Instance: &v8{hp: 2}},
	})
	s.Require().NoError(err)
	v, err := p.Get()
	s.NoError(err)
	built := v.(*car)
	s.Equal(1, built.Engine.Power())
	s.Equal(2, built.Spare.Power())

	_, err = sat.MakeProvider(nil)
	s.Error(err)

	_, err = reflection.NewStructSatisfaction(s.ex, typeOf[engine]())
	s.Error(err)
}

func (s *ReflectionTestSuite) TestUnknownRoleTag() {
	_, err := reflection.NewStructSatisfaction(s.ex, typeOf[car]())
	s.ErrorContains(err, `unknown role "spare"`)
}

func (s *ReflectionTestSuite) TestDefaultSatisfaction() {
	sat, err := s.ex.DefaultSatisfaction(typeOf[engine]())
	s.NoError(err)
	s.Nil(sat)

	_, err = s.ex.RegisterConstructor(func() *v8 { return &v8{hp: 8} })
	s.Require().NoError(err)
	_, err = s.ex.RegisterConstructor(func() (*v8, error) { return nil, nil })
	s.Error(err)

	sat, err = s.ex.DefaultSatisfaction(typeOf[*v8]())
	s.Require().NoError(err)
	s.IsType(&reflection.ConstructorSatisfaction{}, sat)

	d := s.ex.Desire(typeOf[*v8](), nil)
	def, err := d.Default()
	s.Require().NoError(err)
	s.Same(sat.Key(), def.Satisfaction().Key())
}

func (s *ReflectionTestSuite) TestRoleDefaults() {
	inst := &v8{hp: 5}
	byInstance := spi.NewRole("fixed", spi.DefaultInstance(inst))
	byType := spi.NewRole("typed", spi.DefaultType(typeOf[*v8]()))

	def, err := s.ex.Desire(typeOf[engine](), byInstance).Default()
	s.Require().NoError(err)
	s.Equal(typeOf[*v8](), def.Satisfaction().Type())

	def, err = s.ex.Desire(typeOf[engine](), byType).Default()
	s.Require().NoError(err)
	s.Nil(def.Satisfaction())
	s.Equal(typeOf[*v8](), def.Type())
	s.Same(byType, def.Role())
}

func (s *ReflectionTestSuite) TestProviderSatisfactions() {
	c, err := reflection.ParseConstructor(func() *engineFactory { return &engineFactory{hp: 9} })
	s.Require().NoError(err)

	sat, err := reflection.NewProviderClassSatisfaction(s.ex, c, nil)
	s.Require().NoError(err)
	s.Equal(typeOf[engine](), sat.Type())
	s.Equal(typeOf[*engineFactory](), sat.ProviderType())

	p, err := sat.MakeProvider(nil)
	s.Require().NoError(err)
	v, err := p.Get()
	s.NoError(err)
	s.Equal(9, v.(engine).Power())

	_, err = reflection.NewProviderInstanceSatisfaction(untypedFactory{}, nil)
	s.Error(err)

	inst, err := reflection.NewProviderInstanceSatisfaction(untypedFactory{}, typeOf[engine]())
	s.Require().NoError(err)
	s.Equal(typeOf[engine](), inst.Type())

	_, err = reflection.NewProviderInstanceSatisfaction(&engineFactory{}, typeOf[*car]())
	s.Error(err)
	_, err = reflection.NewProviderInstanceSatisfaction(&v8{}, nil)
	s.Error(err)
}

func (s *ReflectionTestSuite) TestInstanceSatisfaction() {
	e := &v8{hp: 7}
	a, err := reflection.NewInstanceSatisfaction(e)
	s.Require().NoError(err)
	b, err := reflection.NewInstanceSatisfaction(e)
	s.Require().NoError(err)

	s.True(a.Eager())
	s.Equal(a.Key(), b.Key())

	p, err := a.MakeProvider(nil)
	s.Require().NoError(err)
	v, err := p.Get()
	s.NoError(err)
	s.Same(e, v)

	_, err = reflection.NewInstanceSatisfaction(nil)
	s.Error(err)
}

func (s *ReflectionTestSuite) TestBindRules() {
	d := s.ex.Desire(typeOf[engine](), nil)

	r, err := reflection.NewTypeRule(typeOf[engine](), spi.MatchDefault(), typeOf[*v8](), reflection.WithCachePolicy(spi.NewInstance))
	s.Require().NoError(err)
	s.True(r.Matches(d))
	s.False(r.Matches(s.ex.Desire(typeOf[engine](), spi.NewRole("other"))))
	s.False(r.Matches(s.ex.Desire(typeOf[*v8](), nil)))
	s.Equal(spi.NewInstance, r.CachePolicy())
	s.False(r.Terminates())

	next := r.Apply(d)
	s.Equal(typeOf[*v8](), next.Type())
	s.Nil(next.Satisfaction())
	s.Equal("bind <default> reflection_test.engine to *reflection_test.v8", r.String())

	inst, err := reflection.NewInstanceSatisfaction(&v8{})
	s.Require().NoError(err)
	sr, err := reflection.NewSatisfactionRule(typeOf[engine](), spi.MatchAny(), inst, reflection.Terminate())
	s.Require().NoError(err)
	s.True(sr.Terminates())
	s.Same(inst, sr.Apply(d).Satisfaction())

	_, err = reflection.NewTypeRule(typeOf[engine](), spi.MatchDefault(), typeOf[car]())
	s.Error(err)
	_, err = reflection.NewSatisfactionRule(typeOf[*car](), spi.MatchDefault(), inst)
	s.Error(err)
}

func TestReflectionSuite(t *testing.T) {
	suite.Run(t, new(ReflectionTestSuite))
}
