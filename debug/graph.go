package debug

import (
	json "github.com/json-iterator/go"

	"github.com/centraunit/grapht/resolver"
	"github.com/centraunit/grapht/spi"
)

// GraphNode is the JSON form of a resolved node.
type GraphNode struct {
	ID           int          `json:"id"`
	Desire       string       `json:"desire"`
	Type         string       `json:"type"`
	Role         string       `json:"role,omitempty"`
	Satisfaction string       `json:"satisfaction"`
	Policy       string       `json:"policy"`
	Context      []string     `json:"context,omitempty"`
	Rules        []string     `json:"rules,omitempty"`
	Dependencies []*GraphNode `json:"dependencies,omitempty"`
	// Shared is set on repeated occurrences of a node; they carry only the
	// ID of the first occurrence.
	Shared bool `json:"shared,omitempty"`
}

// Describe converts the graph rooted at n.
func Describe(n *resolver.Node) *GraphNode {
	ids := make(map[*resolver.Node]int)

	var conv func(n *resolver.Node) *GraphNode
	conv = func(n *resolver.Node) *GraphNode {
		if id, ok := ids[n]; ok {
			return &GraphNode{
				ID:           id,
				Desire:       n.Desire.String(),
				Type:         n.Desire.Type().String(),
				Satisfaction: n.Satisfaction.String(),
				Policy:       n.Policy.String(),
				Shared:       true,
			}
		}
		ids[n] = len(ids) + 1

		g := &GraphNode{
			ID:           ids[n],
			Desire:       n.Desire.String(),
			Type:         n.Desire.Type().String(),
			Satisfaction: n.Satisfaction.String(),
			Policy:       n.Policy.String(),
		}
		if r := n.Desire.Role(); r != nil {
			g.Role = r.Name()
		}
		for _, e := range n.Context {
			g.Context = append(g.Context, e.String())
		}
		for _, r := range n.Rules {
			g.Rules = append(g.Rules, r.String())
		}
		for _, d := range n.Dependencies {
			g.Dependencies = append(g.Dependencies, conv(d))
		}
		return g
	}
	return conv(n)
}

// MarshalGraph encodes the graph rooted at n as indented JSON.
func MarshalGraph(n *resolver.Node) ([]byte, error) {
	return json.MarshalIndent(Describe(n), "", "  ")
}

// RuleInfo is the JSON form of a scoped bind rule.
type RuleInfo struct {
	Context string `json:"context"`
	Rule    string `json:"rule"`
	Group   int    `json:"group"`
	Order   int    `json:"order"`
}

// DescribeRules lists the rules of cfg in configuration order.
func DescribeRules(cfg spi.InjectorConfiguration) []RuleInfo {
	rules := cfg.Rules()
	out := make([]RuleInfo, len(rules))
	for i, r := range rules {
		out[i] = RuleInfo{
			Context: r.Context.String(),
			Rule:    r.Rule.String(),
			Group:   r.Group,
			Order:   r.Order,
		}
	}
	return out
}
