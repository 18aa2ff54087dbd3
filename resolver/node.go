package resolver

import (
	"github.com/centraunit/grapht/spi"
)

// Node is a resolved desire: the satisfaction chosen for it in one context,
// and the resolved dependencies of that satisfaction in declaration order.
// Nodes are shared between every resolution that reached the same desire in
// the same context.
type Node struct {
	// Desire is the desire as it was requested.
	Desire spi.Desire
	// Resolved is the final desire after all rewrites.
	Resolved spi.Desire
	// Satisfaction builds the instances.
	Satisfaction spi.Satisfaction
	// Policy is the strongest cache policy requested by the applied rules.
	Policy spi.CachePolicy
	// Context is the path the desire was resolved in. It is a copy owned by
	// the node.
	Context []spi.ContextElement
	// Rules are the bind rules applied, in order.
	Rules []spi.BindRule
	// Dependencies parallel Satisfaction.Dependencies().
	Dependencies []*Node
}

// Walk visits n and its dependencies depth first. Nodes reachable along
// several paths are visited once.
func (n *Node) Walk(visit func(*Node) error) error {
	return n.walk(make(map[*Node]bool), visit)
}

func (n *Node) walk(seen map[*Node]bool, visit func(*Node) error) error {
	if seen[n] {
		return nil
	}
	seen[n] = true
	if err := visit(n); err != nil {
		return err
	}
	for _, d := range n.Dependencies {
		if err := d.walk(seen, visit); err != nil {
			return err
		}
	}
	return nil
}

// Order returns the nodes reachable from n with every node listed after all
// of its dependencies.
func (n *Node) Order() []*Node {
	var (
		out     []*Node
		visited = make(map[*Node]bool)
		visit   func(*Node)
	)
	visit = func(x *Node) {
		if visited[x] {
			return
		}
		visited[x] = true
		for _, d := range x.Dependencies {
			visit(d)
		}
		out = append(out, x)
	}
	visit(n)
	return out
}

func (n *Node) String() string {
	return n.Desire.String() + " => " + n.Satisfaction.String()
}
