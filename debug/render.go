// Package debug renders resolved dependency graphs and serves them, along
// with container metrics, over HTTP.
package debug

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/centraunit/grapht/resolver"
	"github.com/centraunit/grapht/spi"
)

// Renderer writes a resolved graph as an indented tree.
type Renderer struct {
	// NoColor disables terminal colors regardless of the output.
	NoColor bool
}

// Render writes n to w, with colors when w is a terminal.
func Render(w io.Writer, n *resolver.Node) error {
	return Renderer{}.Render(w, n)
}

// Render writes n to w. Nodes reached a second time are marked shared and
// not expanded again.
func (r Renderer) Render(w io.Writer, n *resolver.Node) error {
	bw := bufio.NewWriter(w)
	p := r.palette(r.NoColor || !isTerminal(w))
	seen := make(map[*resolver.Node]bool)

	var walk func(n *resolver.Node, prefix string, last, root bool)
	walk = func(n *resolver.Node, prefix string, last, root bool) {
		branch, indent := "", ""
		if !root {
			branch, indent = "├── ", "│   "
			if last {
				branch, indent = "└── ", "    "
			}
		}

		line := fmt.Sprintf("%s%s%s %s %s", prefix, branch, p.desire(n.Desire.String()), p.gray("=>"), p.sat(n.Satisfaction.String()))
		if n.Policy != spi.NoPreference {
			line += " " + p.policy("["+n.Policy.String()+"]")
		}
		if seen[n] {
			fmt.Fprintln(bw, line+" "+p.gray("(shared)"))
			return
		}
		seen[n] = true
		fmt.Fprintln(bw, line)

		for i, d := range n.Dependencies {
			walk(d, prefix+indent, i == len(n.Dependencies)-1, false)
		}
	}
	walk(n, "", true, true)

	return bw.Flush()
}

type palette struct {
	desire, sat, policy, gray func(a ...any) string
}

func (r Renderer) palette(noColor bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		desire: mk(color.FgCyan, color.Bold),
		sat:    mk(color.FgGreen),
		policy: mk(color.FgYellow),
		gray:   mk(color.FgHiBlack),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
