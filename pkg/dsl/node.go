package dsl

import "github.com/aretw0/sopnav/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Action marks the node as a rectangle step.
func (n *NodeBuilder) Action(label string) *NodeBuilder {
	return n.shape(domain.ShapeRectangle, label)
}

// Decision marks the node as a rhombus branch point.
func (n *NodeBuilder) Decision(label string) *NodeBuilder {
	return n.shape(domain.ShapeRhombus, label)
}

// Terminal marks the node as a stadium outcome.
func (n *NodeBuilder) Terminal(label string) *NodeBuilder {
	return n.shape(domain.ShapeStadium, label)
}

// Note marks the node as an annotation carrying guidance only.
func (n *NodeBuilder) Note(label string) *NodeBuilder {
	return n.shape(domain.ShapeParallelogram, label)
}

func (n *NodeBuilder) shape(s domain.Shape, label string) *NodeBuilder {
	n.node.Shape = s
	n.node.Label = label
	return n
}

// Describe sets the long-form instruction text.
func (n *NodeBuilder) Describe(text string) *NodeBuilder {
	n.node.Instruction.Description = text
	return n
}

// Capabilities hints the named capabilities usable at this node.
func (n *NodeBuilder) Capabilities(names ...string) *NodeBuilder {
	n.node.Instruction.Capabilities = append(n.node.Instruction.Capabilities, names...)
	return n
}

// Example adds a worked input/output pair.
func (n *NodeBuilder) Example(input, output string) *NodeBuilder {
	n.node.Instruction.Examples = append(n.node.Instruction.Examples, domain.Example{Input: input, Output: output})
	return n
}

// Go adds an unconditional edge to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	return n.edge(target, "", domain.EdgeSolid)
}

// Branch adds a labeled edge to the target node.
func (n *NodeBuilder) Branch(label string, target string) *NodeBuilder {
	return n.edge(target, label, domain.EdgeSolid)
}

// Escalate adds a dotted escalation edge to the target node.
func (n *NodeBuilder) Escalate(label string, target string) *NodeBuilder {
	return n.edge(target, label, domain.EdgeDotted)
}

func (n *NodeBuilder) edge(target, label string, style domain.EdgeStyle) *NodeBuilder {
	n.builder.edges = append(n.builder.edges, domain.Edge{
		From:  n.node.ID,
		To:    target,
		Label: label,
		Style: style,
	})
	return n
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}
