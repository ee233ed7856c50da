package domain

// Shape is the notation delimiter a node was declared with.
type Shape string

const (
	// ShapeStadium is written `ID([text])`.
	ShapeStadium Shape = "stadium"
	// ShapeRectangle is written `ID[text]` or `ID["text"]`.
	ShapeRectangle Shape = "rectangle"
	// ShapeRhombus is written `ID{text}`.
	ShapeRhombus Shape = "rhombus"
	// ShapeParallelogram is written `ID[/text/]`.
	ShapeParallelogram Shape = "parallelogram"
)

// NodeKind is the traversal role of a node.
type NodeKind string

const (
	// KindAction is a step the client performs before moving on.
	KindAction NodeKind = "action"
	// KindDecision branches on the labels of its outgoing edges.
	KindDecision NodeKind = "decision"
	// KindTerminal marks an outcome. Reaching one does not stop the traversal.
	KindTerminal NodeKind = "terminal"
	// KindAnnotation carries guidance only and is bundled into the delivery
	// of the node that precedes it.
	KindAnnotation NodeKind = "annotation"
)

// KindOf maps a notation shape to its default kind.
// The entry node is an exception: a stadium entry is an action.
func KindOf(shape Shape) NodeKind {
	switch shape {
	case ShapeStadium:
		return KindTerminal
	case ShapeRhombus:
		return KindDecision
	case ShapeParallelogram:
		return KindAnnotation
	default:
		return KindAction
	}
}

// Node represents a single step of a workflow.
type Node struct {
	ID    string   `json:"id" yaml:"id"`
	Label string   `json:"label" yaml:"label"`
	Shape Shape    `json:"shape" yaml:"shape"`
	Kind  NodeKind `json:"kind" yaml:"kind"`

	// Instruction is the progressive-disclosure payload. It is always
	// present; an empty one means the label is self-explanatory.
	Instruction Instruction `json:"instruction" yaml:"instruction"`

	// Line is the source line of the node's declaration (0 when built in code).
	Line int `json:"line,omitempty" yaml:"-"`
}

// Text returns the instruction description, falling back to the label.
func (n Node) Text() string {
	if n.Instruction.Description != "" {
		return n.Instruction.Description
	}
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}
