package notation

import (
	"strings"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/graph"
)

const indent = "    "

// Render serializes the topology of g back into flowchart notation.
// Node declarations come first, then edges, both in source order.
func Render(g *graph.Graph, direction string) string {
	if direction == "" {
		direction = "TD"
	}
	var b strings.Builder
	b.WriteString("flowchart " + direction + "\n")
	for _, n := range g.Nodes() {
		b.WriteString(indent + declaration(n.ID, n.Shape, n.Label) + "\n")
	}
	for _, e := range g.Edges() {
		b.WriteString(indent + link(e) + "\n")
	}
	return b.String()
}

// Skeleton renders the label-free topology used under skeleton disclosure.
// Annotation nodes are dropped and edges into them are redirected to the
// first non-annotation nodes that follow the chain.
func Skeleton(g *graph.Graph) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	annotation := make(map[string]bool)
	for _, id := range g.AnnotationNodes() {
		annotation[id] = true
	}

	for _, n := range g.Nodes() {
		if annotation[n.ID] {
			continue
		}
		b.WriteString(indent + declaration(n.ID, n.Shape, n.ID) + "\n")
	}

	type key struct{ from, to, label string }
	seen := make(map[key]bool)
	for _, e := range g.Edges() {
		if annotation[e.From] {
			continue
		}
		targets := []string{e.To}
		if annotation[e.To] {
			targets = collapse(g, e.To, annotation)
		}
		for _, to := range targets {
			k := key{e.From, to, e.Label}
			if seen[k] {
				continue
			}
			seen[k] = true
			b.WriteString(indent + link(domain.Edge{From: e.From, To: to, Label: e.Label, Style: e.Style}) + "\n")
		}
	}
	return b.String()
}

// collapse follows annotation chains from id and returns the non-annotation
// nodes they lead to, in edge order.
func collapse(g *graph.Graph, id string, annotation map[string]bool) []string {
	var out []string
	visited := map[string]bool{}
	var walk func(string)
	walk = func(cur string) {
		if visited[cur] {
			return
		}
		visited[cur] = true
		for _, next := range g.Neighbors(cur) {
			if annotation[next] {
				walk(next)
				continue
			}
			out = append(out, next)
		}
	}
	walk(id)
	return out
}

func declaration(id string, shape domain.Shape, label string) string {
	text := label
	if needsQuotes(label) {
		text = `"` + escape(label) + `"`
	}
	switch shape {
	case domain.ShapeStadium:
		return id + "([" + text + "])"
	case domain.ShapeRhombus:
		return id + "{" + text + "}"
	case domain.ShapeParallelogram:
		return id + "[/" + text + "/]"
	default:
		return id + "[" + text + "]"
	}
}

func link(e domain.Edge) string {
	arrow := "-->"
	if e.Style == domain.EdgeDotted {
		arrow = "-.->"
	}
	if e.Label != "" {
		arrow += "|" + escape(e.Label) + "|"
	}
	return e.From + " " + arrow + " " + e.To
}

func needsQuotes(label string) bool {
	if label == "" || label != strings.TrimSpace(label) {
		return label != ""
	}
	return strings.ContainsAny(label, `[](){}|"/\#`)
}
