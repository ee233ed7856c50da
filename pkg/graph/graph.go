// Package graph holds the immutable workflow model and its legality rules.
//
// A Graph is built once per load and never patched. It may be shared
// read-only between every session navigating the same workflow.
package graph

import (
	"fmt"

	"github.com/aretw0/sopnav/pkg/domain"
)

// DefaultEntry is the conventional entry node id.
const DefaultEntry = "START"

// Graph is the typed, read-only node/edge model of a workflow.
type Graph struct {
	name    string
	digest  string
	entry   string
	reentry string

	nodes []domain.Node
	index map[string]int
	edges []domain.Edge
	out   map[string][]int
	in    map[string]int
}

// Option configures graph construction.
type Option func(*config)

type config struct {
	name    string
	digest  string
	entry   string
	reentry string
}

// WithEntry declares the entry node. Without it the entry is START when
// present, else the first node (in source order) with no incoming edges.
func WithEntry(id string) Option {
	return func(c *config) { c.entry = id }
}

// WithReentry declares the free re-entry node.
func WithReentry(id string) Option {
	return func(c *config) { c.reentry = id }
}

// WithName sets the workflow name.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithDigest records the content digest of the source the graph was built from.
func WithDigest(digest string) Option {
	return func(c *config) { c.digest = digest }
}

// New validates nodes and edges and builds a Graph.
// Structural violations are reported as *domain.ParseError.
func New(nodes []domain.Node, edges []domain.Edge, opts ...Option) (*Graph, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &Graph{
		name:    cfg.name,
		digest:  cfg.digest,
		reentry: cfg.reentry,
		nodes:   make([]domain.Node, 0, len(nodes)),
		index:   make(map[string]int, len(nodes)),
		edges:   make([]domain.Edge, 0, len(edges)),
		out:     make(map[string][]int),
		in:      make(map[string]int),
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, &domain.ParseError{Line: n.Line, Msg: "node with empty id"}
		}
		if prev, dup := g.index[n.ID]; dup {
			return nil, &domain.ParseError{Line: n.Line, Msg: fmt.Sprintf("node %q declared twice (first on line %d)", n.ID, g.nodes[prev].Line)}
		}
		if n.Kind == "" {
			n.Kind = domain.KindOf(n.Shape)
		}
		n.Instruction = n.Instruction.Clone()
		g.index[n.ID] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}

	type edgeKey struct{ from, to, label string }
	seen := make(map[edgeKey]int, len(edges))
	for _, e := range edges {
		if !g.HasNode(e.From) {
			return nil, &domain.ParseError{Line: e.Line, Msg: fmt.Sprintf("edge references undeclared node %q", e.From)}
		}
		if !g.HasNode(e.To) {
			return nil, &domain.ParseError{Line: e.Line, Msg: fmt.Sprintf("edge references undeclared node %q", e.To)}
		}
		key := edgeKey{e.From, e.To, e.Label}
		if first, dup := seen[key]; dup {
			return nil, &domain.ParseError{Line: e.Line, Msg: fmt.Sprintf("duplicate edge %s -> %s with label %q (first on line %d)", e.From, e.To, e.Label, first)}
		}
		seen[key] = e.Line
		if e.Style == "" {
			e.Style = domain.EdgeSolid
		}
		g.out[e.From] = append(g.out[e.From], len(g.edges))
		g.in[e.To]++
		g.edges = append(g.edges, e)
	}

	g.entry = cfg.entry
	if g.entry == "" {
		g.entry = g.defaultEntry()
	}
	if err := g.checkEntry(); err != nil {
		return nil, err
	}
	if err := g.checkDecisions(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) defaultEntry() string {
	if g.HasNode(DefaultEntry) {
		return DefaultEntry
	}
	for _, n := range g.nodes {
		if g.in[n.ID] == 0 && n.Kind != domain.KindAnnotation {
			return n.ID
		}
	}
	return ""
}

func (g *Graph) checkEntry() error {
	if g.entry == "" {
		return &domain.ParseError{Msg: "no entry node: declare entry_node or add a START node"}
	}
	i, ok := g.index[g.entry]
	if !ok {
		return &domain.ParseError{Msg: fmt.Sprintf("entry node %q is not declared", g.entry)}
	}
	entry := &g.nodes[i]
	switch entry.Kind {
	case domain.KindAnnotation:
		return &domain.ParseError{Line: entry.Line, Msg: fmt.Sprintf("entry node %q cannot be an annotation", g.entry)}
	case domain.KindTerminal:
		// A stadium entry opens the workflow; it does not end it.
		entry.Kind = domain.KindAction
	}

	if g.reentry == "" {
		return nil
	}
	r, ok := g.index[g.reentry]
	if !ok {
		return &domain.ParseError{Msg: fmt.Sprintf("re-entry node %q is not declared", g.reentry)}
	}
	if g.nodes[r].Kind == domain.KindAnnotation {
		return &domain.ParseError{Line: g.nodes[r].Line, Msg: fmt.Sprintf("re-entry node %q cannot be an annotation", g.reentry)}
	}
	return nil
}

func (g *Graph) checkDecisions() error {
	for _, n := range g.nodes {
		if n.Kind != domain.KindDecision {
			continue
		}
		if len(g.out[n.ID]) < 2 {
			return &domain.ParseError{Line: n.Line, Msg: fmt.Sprintf("decision node %q needs at least 2 outgoing edges, has %d", n.ID, len(g.out[n.ID]))}
		}
	}
	return nil
}

// Name returns the workflow name.
func (g *Graph) Name() string { return g.name }

// Digest returns the digest of the source the graph was built from.
func (g *Graph) Digest() string { return g.digest }

// Entry returns the entry node id.
func (g *Graph) Entry() string { return g.entry }

// Reentry returns the free re-entry node id, or "".
func (g *Graph) Reentry() string { return g.reentry }

// HasNode reports whether id is part of the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (domain.Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return domain.Node{}, false
	}
	n := g.nodes[i]
	n.Instruction = n.Instruction.Clone()
	return n, true
}

// Nodes returns all nodes in declaration order.
func (g *Graph) Nodes() []domain.Node {
	res := make([]domain.Node, len(g.nodes))
	for i, n := range g.nodes {
		n.Instruction = n.Instruction.Clone()
		res[i] = n
	}
	return res
}

// Edges returns all edges in source order.
func (g *Graph) Edges() []domain.Edge {
	return append([]domain.Edge(nil), g.edges...)
}

// Outgoing returns the edges leaving id in source order.
func (g *Graph) Outgoing(id string) []domain.Edge {
	idx := g.out[id]
	if len(idx) == 0 {
		return nil
	}
	res := make([]domain.Edge, len(idx))
	for i, j := range idx {
		res[i] = g.edges[j]
	}
	return res
}

// Neighbors returns the distinct targets of the edges leaving id, in source order.
func (g *Graph) Neighbors(id string) []string {
	idx := g.out[id]
	res := make([]string, 0, len(idx))
	seen := make(map[string]bool, len(idx))
	for _, j := range idx {
		to := g.edges[j].To
		if !seen[to] {
			seen[to] = true
			res = append(res, to)
		}
	}
	return res
}

// Incoming returns the number of edges that end at id.
func (g *Graph) Incoming(id string) int {
	return g.in[id]
}

// Legal reports whether a move from current to target is allowed:
// the entry and re-entry nodes are always reachable, everything else
// only through an outgoing edge of current.
func (g *Graph) Legal(current, target string) bool {
	if !g.HasNode(target) {
		return false
	}
	if target == g.entry || (g.reentry != "" && target == g.reentry) {
		return true
	}
	if current == "" {
		return false
	}
	for _, j := range g.out[current] {
		if g.edges[j].To == target {
			return true
		}
	}
	return false
}

// LegalNext lists the adjacency moves from current. Before the first move
// the only legal move is the entry node.
func (g *Graph) LegalNext(current string) []string {
	if current == "" {
		return []string{g.entry}
	}
	return g.Neighbors(current)
}

// NodeCount counts the navigable nodes. Annotation nodes are excluded.
func (g *Graph) NodeCount() int {
	count := 0
	for _, n := range g.nodes {
		if n.Kind != domain.KindAnnotation {
			count++
		}
	}
	return count
}

// DecisionNodes lists decision node ids in declaration order.
func (g *Graph) DecisionNodes() []string {
	return g.ofKind(domain.KindDecision)
}

// TerminalNodes lists terminal node ids in declaration order.
func (g *Graph) TerminalNodes() []string {
	return g.ofKind(domain.KindTerminal)
}

// AnnotationNodes lists annotation node ids in declaration order.
func (g *Graph) AnnotationNodes() []string {
	return g.ofKind(domain.KindAnnotation)
}

// InstructedNodes lists ids of nodes with a non-empty instruction payload.
func (g *Graph) InstructedNodes() []string {
	res := []string{}
	for _, n := range g.nodes {
		if !n.Instruction.IsEmpty() {
			res = append(res, n.ID)
		}
	}
	return res
}

// IsTerminal reports whether id names a terminal node.
func (g *Graph) IsTerminal(id string) bool {
	n, ok := g.Node(id)
	return ok && n.Kind == domain.KindTerminal
}

func (g *Graph) ofKind(kind domain.NodeKind) []string {
	res := []string{}
	for _, n := range g.nodes {
		if n.Kind == kind {
			res = append(res, n.ID)
		}
	}
	return res
}
