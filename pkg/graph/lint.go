package graph

import (
	"fmt"

	"github.com/aretw0/sopnav/pkg/domain"
)

// Lint reports non-fatal topology findings: decision branches sharing a
// label and nodes that cannot be reached from the entry or re-entry node.
func Lint(g *Graph) []domain.Warning {
	var warnings []domain.Warning

	for _, n := range g.nodes {
		if n.Kind != domain.KindDecision {
			continue
		}
		labels := make(map[string]string)
		for _, e := range g.Outgoing(n.ID) {
			if e.Label == "" {
				continue
			}
			if prev, dup := labels[e.Label]; dup {
				warnings = append(warnings, domain.Warning{
					Kind:   domain.WarnAmbiguousBranch,
					Node:   n.ID,
					Detail: fmt.Sprintf("branches to %q and %q share the label %q", prev, e.To, e.Label),
				})
				continue
			}
			labels[e.Label] = e.To
		}
	}

	reached := g.reachable()
	for _, n := range g.nodes {
		if !reached[n.ID] {
			warnings = append(warnings, domain.Warning{
				Kind:   domain.WarnUnreachableNode,
				Node:   n.ID,
				Detail: "no path from the entry node reaches this node",
			})
		}
	}
	return warnings
}

func (g *Graph) reachable() map[string]bool {
	seen := make(map[string]bool, len(g.nodes))
	queue := []string{g.entry}
	if g.reentry != "" {
		queue = append(queue, g.reentry)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		queue = append(queue, g.Neighbors(id)...)
	}
	return seen
}
