package resolver

import (
	"github.com/centraunit/grapht/spi"
)

type entryState int

const (
	stateResolving entryState = iota
	stateResolved
	stateFailed
)

func (s entryState) String() string {
	switch s {
	case stateResolving:
		return "resolving"
	case stateResolved:
		return "resolved"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

type cacheKey struct {
	path   *path
	desire spi.DesireKey
}

// entry is one slot of the resolution cache. done is closed when the owning
// session leaves the resolving state.
type entry struct {
	state entryState
	owner uint64
	done  chan struct{}
	node  *Node
	err   error
}

func newEntry(owner uint64) *entry {
	return &entry{state: stateResolving, owner: owner, done: make(chan struct{})}
}

// finish records the outcome and releases waiters. Callers hold the
// resolver lock.
func (e *entry) finish(n *Node, err error) {
	if err != nil {
		e.state, e.err = stateFailed, err
	} else {
		e.state, e.node = stateResolved, n
	}
	close(e.done)
}

// result reads a finished entry. The close of done orders it after finish.
func (e *entry) result() (*Node, error) {
	return e.node, e.err
}

// satKey identifies a satisfaction under a role. Two frames with the same
// satKey on one stack mean the graph would instantiate itself.
type satKey struct {
	sat  any
	role *spi.Role
}

// frame is one dependency level of a running resolution.
type frame struct {
	desire spi.Desire
	key    satKey
}

// session identifies one top-level resolution and tracks its stack for
// cycle reports.
type session struct {
	id    uint64
	stack []frame
}

func (s *session) push(f frame) { s.stack = append(s.stack, f) }

func (s *session) pop() { s.stack = s.stack[:len(s.stack)-1] }

// chain returns the desires on the stack followed by d.
func (s *session) chain(d spi.Desire) []spi.Desire {
	out := make([]spi.Desire, 0, len(s.stack)+1)
	for _, f := range s.stack {
		out = append(out, f.desire)
	}
	return append(out, d)
}

// entered reports whether k is already on the stack.
func (s *session) entered(k satKey) bool {
	for _, f := range s.stack {
		if f.key == k {
			return true
		}
	}
	return false
}

// cycle returns the desires from the frame that first entered k up to d.
func (s *session) cycle(k satKey, d spi.Desire) []spi.Desire {
	for i, f := range s.stack {
		if f.key == k {
			out := make([]spi.Desire, 0, len(s.stack)-i+1)
			for _, g := range s.stack[i:] {
				out = append(out, g.desire)
			}
			return append(out, d)
		}
	}
	return s.chain(d)
}
