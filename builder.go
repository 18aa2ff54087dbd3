package grapht

import (
	"fmt"
	"sync"

	"github.com/centraunit/grapht/reflection"
	"github.com/centraunit/grapht/spi"
)

// Builder collects bindings, constructors and roles, and compiles them into
// an immutable configuration for a Container.
//
// Bindings declared directly or through Install keep their declaration
// order, which breaks ties between equally specific rules. Modules passed to
// InstallIndependent get no order relative to anything else, so equally
// specific conflicting rules between them are reported as ambiguous.
type Builder struct {
	mu     sync.Mutex
	ex     *reflection.Extractor
	groups [][]spi.ScopedRule
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		ex:     reflection.NewExtractor(),
		groups: make([][]spi.ScopedRule, 1),
	}
}

// Root returns the context whose bindings apply everywhere.
func (b *Builder) Root() Context {
	return Context{b: b}
}

// Install configures modules in order on the root context.
func (b *Builder) Install(modules ...Module) error {
	for _, m := range modules {
		if err := m.Configure(b.Root()); err != nil {
			return fmt.Errorf("failed to install module %T: %w", m, err)
		}
	}
	return nil
}

// InstallIndependent configures each module in a group of its own.
func (b *Builder) InstallIndependent(modules ...Module) error {
	for _, m := range modules {
		b.mu.Lock()
		b.groups = append(b.groups, nil)
		group := len(b.groups) - 1
		b.mu.Unlock()

		if err := m.Configure(Context{b: b, group: group}); err != nil {
			return fmt.Errorf("failed to install module %T: %w", m, err)
		}
	}
	return nil
}

// Provide registers constructor as the default way to build its result
// type when no binding applies.
func (b *Builder) Provide(constructor any, opts ...reflection.ConstructorOption) error {
	if _, err := b.ex.RegisterConstructor(constructor, opts...); err != nil {
		return &InvalidBindingError{Type: fmt.Sprintf("%T", constructor), Err: err}
	}
	return nil
}

// RegisterRole makes roles addressable from `inject:"name"` struct tags.
func (b *Builder) RegisterRole(roles ...*Role) error {
	for _, r := range roles {
		if err := b.ex.RegisterRole(r); err != nil {
			return &InvalidBindingError{Type: r.String(), Err: err}
		}
	}
	return nil
}

// Configuration compiles the bindings declared so far.
func (b *Builder) Configuration() spi.InjectorConfiguration {
	b.mu.Lock()
	defer b.mu.Unlock()

	configs := make([]spi.InjectorConfiguration, 0, len(b.groups))
	for _, rules := range b.groups {
		configs = append(configs, spi.NewConfiguration(rules...))
	}
	return spi.Merge(configs...)
}

// Build creates a container from the bindings declared so far. Bindings
// declared afterwards do not affect the container.
func (b *Builder) Build(opts ...Option) (*Container, error) {
	return newContainer(b.Configuration(), b.ex, opts...)
}

func (b *Builder) addRule(ctx Context, rule spi.BindRule) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.groups[ctx.group] = append(b.groups[ctx.group], spi.ScopedRule{
		Context: ctx.Chain(),
		Rule:    rule,
	})
}
