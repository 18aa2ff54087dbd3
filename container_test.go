package grapht_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/centraunit/grapht"
	"github.com/centraunit/grapht/mock"
	"github.com/centraunit/grapht/spi"
)

type ContainerTestSuite struct {
	suite.Suite
	b *grapht.Builder
}

func (s *ContainerTestSuite) SetupTest() {
	s.b = grapht.NewBuilder()
	mock.ResetCounters()
}

func (s *ContainerTestSuite) build(opts ...grapht.Option) *grapht.Container {
	c, err := s.b.Build(opts...)
	s.Require().NoError(err)
	return c
}

func (s *ContainerTestSuite) TestBasicResolution() {
	root := s.b.Root()
	s.NoError(s.b.Provide(mock.NewMockDB))
	s.NoError(grapht.Bind[mock.Database](root).ToType(grapht.TypeOf[*mock.MockDB]()))

	db, err := grapht.Resolve[mock.Database](s.build())
	s.NoError(err)
	s.Require().NotNil(db)
	s.Equal("mock", db.Name())
	s.Equal("mock://primary", db.(*mock.MockDB).DSN)
}

func (s *ContainerTestSuite) TestNestedDependencies() {
	root := s.b.Root()
	s.NoError(grapht.Bind[mock.DeepService3](root).ToInstance(&mock.DeepImpl3{Value: "deep"}))
	s.NoError(grapht.Bind[mock.DeepService2](root).ToType(grapht.TypeOf[*mock.DeepImpl2]()))
	s.NoError(grapht.Bind[mock.DeepService1](root).ToType(grapht.TypeOf[*mock.DeepImpl1]()))

	svc1, err := grapht.Resolve[mock.DeepService1](s.build())
	s.NoError(err)
	s.Require().NotNil(svc1)
	s.Equal("deep", svc1.GetService2().GetService3().GetValue())
}

func (s *ContainerTestSuite) TestPartialResolutionFailure() {
	root := s.b.Root()
	s.NoError(grapht.Bind[mock.DeepService1](root).ToType(grapht.TypeOf[*mock.DeepImpl1]()))
	s.NoError(grapht.Bind[mock.DeepService2](root).ToType(grapht.TypeOf[*mock.DeepImpl2]()))

	_, err := grapht.Resolve[mock.DeepService1](s.build())
	s.True(errors.Is(err, grapht.ErrUnresolvable))

	var unresolved *grapht.UnresolvableDesireError
	s.Require().True(errors.As(err, &unresolved))
	s.Equal(grapht.TypeOf[mock.DeepService3](), unresolved.Desire.Type())
	s.Len(unresolved.Context, 2)
}

func (s *ContainerTestSuite) TestComplexDependencySharing() {
	root := s.b.Root()
	s.NoError(s.b.Provide(mock.NewMockDB))
	s.NoError(grapht.Bind[mock.Database](root).ToType(grapht.TypeOf[*mock.MockDB]()))
	s.NoError(grapht.Bind[mock.Cache](root).ToType(grapht.TypeOf[*mock.MockCache]()))

	svc, err := grapht.Resolve[*mock.ComplexService](s.build())
	s.NoError(err)
	s.Same(svc.DB, svc.Cache.Backend())
	s.Equal(int64(1), mock.Created())
}

func (s *ContainerTestSuite) TestUnsharedBinding() {
	root := s.b.Root()
	s.NoError(s.b.Provide(mock.NewMockDB))
	s.NoError(grapht.Bind[mock.Database](root).Unshared().ToType(grapht.TypeOf[*mock.MockDB]()))
	s.NoError(grapht.Bind[mock.Cache](root).ToType(grapht.TypeOf[*mock.MockCache]()))

	svc, err := grapht.Resolve[*mock.ComplexService](s.build())
	s.NoError(err)
	s.NotSame(svc.DB, svc.Cache.Backend())
	s.Equal(int64(2), mock.Created())
}

func (s *ContainerTestSuite) TestDefaultScopeOption() {
	root := s.b.Root()
	s.NoError(grapht.Bind[mock.Database](root).ToType(grapht.TypeOf[*mock.MockDB]()))
	c := s.build(grapht.WithDefaultScope(grapht.ScopeTransient))

	first, err := grapht.Resolve[mock.Database](c)
	s.NoError(err)
	second, err := grapht.Resolve[mock.Database](c)
	s.NoError(err)
	s.NotSame(first, second)
}

func (s *ContainerTestSuite) TestCircularDependency() {
	root := s.b.Root()
	s.NoError(grapht.Bind[mock.CircularService1](root).ToType(grapht.TypeOf[*mock.CircularImpl1]()))
	s.NoError(grapht.Bind[mock.CircularService2](root).ToType(grapht.TypeOf[*mock.CircularImpl2]()))

	_, err := grapht.Resolve[mock.CircularService1](s.build())
	s.Error(err)

	var cycErr *grapht.CyclicDependencyError
	s.True(errors.As(err, &cycErr))
	s.NotEmpty(cycErr.Chain)
}

// listNode injects another node of its own type.
type listNode struct {
	Next *listNode `inject:""`
}

func (s *ContainerTestSuite) TestSameTypeDependency() {
	s.Run("InstanceLeaf", func() {
		s.SetupTest()
		tail := &listNode{}
		s.NoError(grapht.Bind[*listNode](grapht.In[*listNode](s.b.Root())).ToInstance(tail))

		head, err := grapht.Resolve[*listNode](s.build())
		s.Require().NoError(err)
		s.NotSame(tail, head)
		s.Same(tail, head.Next)
	})

	s.Run("DecoratedChild", func() {
		s.SetupTest()
		root := s.b.Root()
		s.NoError(grapht.Bind[mock.Database](root).ToType(grapht.TypeOf[*mock.MockDB]()))
		s.NoError(grapht.Bind[*listNode](grapht.In[*listNode](root)).To(func(db mock.Database) *listNode {
			return &listNode{}
		}))

		head, err := grapht.Resolve[*listNode](s.build())
		s.Require().NoError(err)
		s.Require().NotNil(head.Next)
		s.Nil(head.Next.Next)
	})

	s.Run("UnboundStillCycles", func() {
		s.SetupTest()
		_, err := grapht.Resolve[*listNode](s.build())
		s.ErrorIs(err, grapht.ErrCyclic)
	})
}

func (s *ContainerTestSuite) TestProviderIdentity() {
	root := s.b.Root()
	s.NoError(grapht.Bind[mock.Database](root).ToType(grapht.TypeOf[*mock.MockDB]()))
	c := s.build()

	first, err := c.Resolve(grapht.TypeOf[mock.Database](), nil)
	s.NoError(err)
	second, err := c.Resolve(grapht.TypeOf[mock.Database](), nil)
	s.NoError(err)
	s.Same(first, second)

	a, err := first.Get()
	s.NoError(err)
	b, err := second.Get()
	s.NoError(err)
	s.Same(a, b)
}

func (s *ContainerTestSuite) TestRoles() {
	reporting := grapht.NewRole("reporting")
	s.NoError(s.b.RegisterRole(reporting))

	root := s.b.Root()
	s.NoError(grapht.Bind[mock.Database](root).ToType(grapht.TypeOf[*mock.MockDB]()))
	s.NoError(grapht.Bind[mock.Database](root).WithRole(reporting).ToType(grapht.TypeOf[*mock.ReplicaDB]()))
	c := s.build()

	svc, err := grapht.Resolve[*mock.ReportingService](c)
	s.NoError(err)
	s.IsType(&mock.ReplicaDB{}, svc.DB)

	db, err := grapht.Resolve[mock.Database](c, reporting)
	s.NoError(err)
	s.Equal("replica", db.Name())

	db, err = grapht.Resolve[mock.Database](c)
	s.NoError(err)
	s.Equal("mock", db.Name())
}

func (s *ContainerTestSuite) TestUnregisteredRoleTag() {
	_, err := grapht.Resolve[*mock.ReportingService](s.build())
	s.True(errors.Is(err, grapht.ErrUnresolvable))
	s.Contains(err.Error(), `unknown role "reporting"`)
}

func (s *ContainerTestSuite) TestRoleDefaults() {
	replica := &mock.ReplicaDB{}
	byType := grapht.NewRole("by-type", spi.DefaultType(grapht.TypeOf[*mock.MockDB]()))
	byInstance := grapht.NewRole("by-instance", spi.DefaultInstance(replica))
	c := s.build()

	db, err := grapht.Resolve[mock.Database](c, byType)
	s.NoError(err)
	s.IsType(&mock.MockDB{}, db)

	db, err = grapht.Resolve[mock.Database](c, byInstance)
	s.NoError(err)
	s.Same(replica, db)
}

func (s *ContainerTestSuite) TestConstructorFailure() {
	s.NoError(s.b.Provide(mock.NewFailingDB))
	s.NoError(grapht.Bind[mock.Database](s.b.Root()).ToType(grapht.TypeOf[*mock.MockDB]()))

	_, err := grapht.Resolve[mock.Database](s.build())
	var initErr *grapht.InitializationError
	s.True(errors.As(err, &initErr))
	s.ErrorIs(err, mock.ErrConnectionRefused)
}

func (s *ContainerTestSuite) TestTerminateChain() {
	root := s.b.Root()
	s.NoError(grapht.Bind[mock.Database](root).TerminateChain().ToType(grapht.TypeOf[*mock.MockDB]()))
	s.NoError(grapht.Bind[*mock.MockDB](root).ToInstance(&mock.MockDB{DSN: "bound"}))
	c := s.build()

	db, err := grapht.Resolve[mock.Database](c)
	s.NoError(err)
	s.Equal("", db.(*mock.MockDB).DSN)

	direct, err := grapht.Resolve[*mock.MockDB](c)
	s.NoError(err)
	s.Equal("bound", direct.DSN)
}

func (s *ContainerTestSuite) TestModules() {
	primary := grapht.ModuleFunc(func(ctx grapht.Context) error {
		return grapht.Bind[mock.Database](ctx).ToType(grapht.TypeOf[*mock.MockDB]())
	})
	replica := grapht.ModuleFunc(func(ctx grapht.Context) error {
		return grapht.Bind[mock.Database](ctx).ToType(grapht.TypeOf[*mock.ReplicaDB]())
	})

	s.Run("OrderedInstall", func() {
		b := grapht.NewBuilder()
		s.NoError(b.Install(primary, replica))
		c, err := b.Build()
		s.Require().NoError(err)

		db, err := grapht.Resolve[mock.Database](c)
		s.NoError(err)
		s.Equal("mock", db.Name())
	})

	s.Run("IndependentInstall", func() {
		b := grapht.NewBuilder()
		s.NoError(b.InstallIndependent(primary, replica))
		c, err := b.Build()
		s.Require().NoError(err)

		_, err = grapht.Resolve[mock.Database](c)
		s.True(errors.Is(err, grapht.ErrAmbiguous))

		var ambErr *grapht.AmbiguousBindingError
		s.Require().True(errors.As(err, &ambErr))
		s.Len(ambErr.Rules, 2)
	})

	s.Run("FailingModule", func() {
		b := grapht.NewBuilder()
		bad := grapht.ModuleFunc(func(ctx grapht.Context) error {
			return grapht.Bind[mock.Database](ctx).ToType(grapht.TypeOf[mock.DBConfig]())
		})
		err := b.Install(bad)
		var bindErr *grapht.InvalidBindingError
		s.True(errors.As(err, &bindErr))
	})
}

func (s *ContainerTestSuite) TestDiscard() {
	s.NoError(grapht.Bind[mock.Database](s.b.Root()).ToType(grapht.TypeOf[*mock.MockDB]()))
	c := s.build()

	p, err := c.Resolve(grapht.TypeOf[mock.Database](), nil)
	s.NoError(err)
	before, err := p.Get()
	s.NoError(err)

	c.Discard()
	c.Discard()

	after, err := p.Get()
	s.NoError(err)
	s.Same(before, after)

	_, err = grapht.Resolve[mock.Database](c)
	s.ErrorIs(err, grapht.ErrContainerDiscarded)
	_, err = c.Graph(grapht.TypeOf[mock.Database](), nil)
	s.ErrorIs(err, grapht.ErrContainerDiscarded)
}

func (s *ContainerTestSuite) TestMustResolve() {
	s.NoError(grapht.Bind[mock.Database](s.b.Root()).ToType(grapht.TypeOf[*mock.MockDB]()))
	c := s.build()

	s.NotPanics(func() { grapht.MustResolve[mock.Database](c) })
	s.Panics(func() { grapht.MustResolve[mock.Cache](c) })
}

func (s *ContainerTestSuite) TestResolveProvider() {
	s.NoError(grapht.Bind[mock.Database](s.b.Root()).Unshared().ToType(grapht.TypeOf[*mock.MockDB]()))
	c := s.build()

	get, err := grapht.ResolveProvider[mock.Database](c)
	s.Require().NoError(err)

	first, err := get()
	s.NoError(err)
	second, err := get()
	s.NoError(err)
	s.NotSame(first, second)

	_, err = grapht.ResolveProvider[mock.Cache](c)
	s.True(errors.Is(err, grapht.ErrUnresolvable))
}

func (s *ContainerTestSuite) TestConcurrentResolve() {
	root := s.b.Root()
	s.NoError(s.b.Provide(mock.NewMockDB))
	s.NoError(grapht.Bind[mock.Database](root).ToType(grapht.TypeOf[*mock.MockDB]()))
	s.NoError(grapht.Bind[mock.Cache](root).ToType(grapht.TypeOf[*mock.MockCache]()))
	c := s.build()

	const workers = 50
	results := make([]*mock.ComplexService, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = grapht.Resolve[*mock.ComplexService](c)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		s.NoError(errs[i])
		s.Same(results[0], results[i])
	}
	s.Equal(int64(1), mock.Created())
}

func (s *ContainerTestSuite) TestLoggingAndMetrics() {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()

	s.NoError(grapht.Bind[mock.Database](s.b.Root()).ToType(grapht.TypeOf[*mock.MockDB]()))
	c := s.build(grapht.WithLogger(zap.New(core)), grapht.WithRegisterer(reg))

	_, err := uuid.Parse(c.ID())
	s.NoError(err)

	_, err = grapht.Resolve[mock.Database](c)
	s.NoError(err)
	_, err = grapht.Resolve[mock.Database](c)
	s.NoError(err)

	created := logs.FilterMessage("container created").All()
	s.Require().Len(created, 1)
	s.Equal(c.ID(), created[0].ContextMap()["container_id"])
	s.NotZero(logs.FilterMessage("applied bind rule").Len())

	s.Same(reg, c.Gatherer())
	families, err := reg.Gather()
	s.NoError(err)

	var gets float64
	for _, mf := range families {
		if mf.GetName() == "grapht_provider_gets_total" {
			gets = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	s.Equal(float64(2), gets)
}

func (s *ContainerTestSuite) TestSharedRegisterer() {
	reg := prometheus.NewRegistry()
	s.NoError(grapht.Bind[mock.Database](s.b.Root()).ToType(grapht.TypeOf[*mock.MockDB]()))

	first := s.build(grapht.WithRegisterer(reg))
	second := s.build(grapht.WithRegisterer(reg))

	_, err := grapht.Resolve[mock.Database](first)
	s.NoError(err)
	_, err = grapht.Resolve[mock.Database](second)
	s.NoError(err)

	families, err := reg.Gather()
	s.Require().NoError(err)

	var gets float64
	for _, mf := range families {
		if mf.GetName() == "grapht_provider_gets_total" {
			gets = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	s.Equal(float64(2), gets)
}

func (s *ContainerTestSuite) TestInvalidOptions() {
	_, err := s.b.Build(grapht.WithLogger(nil))
	s.Error(err)

	cfg := grapht.DefaultConfig()
	cfg.CachePolicy = "forever"
	_, err = s.b.Build(grapht.WithConfig(cfg))
	var cfgErr *grapht.ConfigError
	s.True(errors.As(err, &cfgErr))
}

func TestContainerSuite(t *testing.T) {
	suite.Run(t, new(ContainerTestSuite))
}
