package dsl

import (
	"fmt"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/graph"
)

// Builder manages the graph construction.
// Nodes and edges keep the order in which they were added.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
	edges []domain.Edge
	opts  []graph.Option
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Name sets the workflow name.
func (b *Builder) Name(name string) *Builder {
	b.opts = append(b.opts, graph.WithName(name))
	return b
}

// Entry declares the entry node.
func (b *Builder) Entry(id string) *Builder {
	b.opts = append(b.opts, graph.WithEntry(id))
	return b
}

// Reentry declares the free re-entry node.
func (b *Builder) Reentry(id string) *Builder {
	b.opts = append(b.opts, graph.WithReentry(id))
	return b
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID:    id,
			Shape: domain.ShapeRectangle,
		},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build validates the nodes and edges and returns an immutable graph.
func (b *Builder) Build() (*graph.Graph, error) {
	nodes := make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		n := b.nodes[id].node
		n.Kind = domain.KindOf(n.Shape)
		nodes = append(nodes, n)
	}

	g, err := graph.New(nodes, b.edges, b.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}

// MustBuild is like Build but panics on error. Intended for tests and examples.
func (b *Builder) MustBuild() *graph.Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}
