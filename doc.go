// Package grapht is a dependency injection container with contextual
// bindings.
//
// Bindings are declared on a Builder. A binding made on the root context
// applies everywhere; a binding made on a narrower context applies only to
// dependencies discovered while building the types of that context:
//
//	b := grapht.NewBuilder()
//	root := b.Root()
//	_ = grapht.Bind[Store](root).ToType(grapht.TypeOf[*DiskStore]())
//	_ = grapht.Bind[Store](grapht.In[*Importer](root)).ToType(grapht.TypeOf[*MemoryStore]())
//
//	c, _ := b.Build()
//	imp, _ := grapht.Resolve[*Importer](c) // imp.Store is a *MemoryStore
//	st, _ := grapht.Resolve[Store](c)      // st is a *DiskStore
//
// When several bindings match, the one with the longest context wins, then
// the one whose context pins more roles, then the one whose role needed
// fewer inheritance steps, then the one declared first. Bindings from
// modules installed with InstallIndependent have no declaration order
// relative to each other; if they still tie and disagree, resolution fails
// with an AmbiguousBindingError.
//
// Dependencies are constructor parameters (see Builder.Provide and
// Binding.To) or exported struct fields tagged `inject`, optionally naming a
// registered role: `inject:"reporting"`.
//
// Within one resolved graph every binding is shared by default, so a type
// needed twice is built once. Use Binding.Unshared, WithDefaultScope or the
// cache_policy setting to build fresh instances instead.
package grapht
