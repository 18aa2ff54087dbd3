package resolver

import (
	"sync"

	"github.com/centraunit/grapht/spi"
)

// path is an interned context path. Equal paths share one *path, so the
// pointer can be used as a cache key.
type path struct {
	parent *path
	elem   spi.ContextElement
	elems  []spi.ContextElement
}

type pathKey struct {
	parent *path
	elem   spi.ContextElement
}

type pathTable struct {
	mu    sync.Mutex
	root  *path
	paths map[pathKey]*path
}

func newPathTable() *pathTable {
	return &pathTable{root: &path{}, paths: make(map[pathKey]*path)}
}

// child returns the interned path p + e.
func (t *pathTable) child(p *path, e spi.ContextElement) *path {
	k := pathKey{parent: p, elem: e}

	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.paths[k]; ok {
		return c
	}
	elems := make([]spi.ContextElement, len(p.elems), len(p.elems)+1)
	copy(elems, p.elems)
	c := &path{parent: p, elem: e, elems: append(elems, e)}
	t.paths[k] = c
	return c
}

// of interns a whole element list starting at the root.
func (t *pathTable) of(elems []spi.ContextElement) *path {
	p := t.root
	for _, e := range elems {
		p = t.child(p, e)
	}
	return p
}
