package domain

// EdgeStyle distinguishes ordinary flow from escalation paths.
type EdgeStyle string

const (
	EdgeSolid  EdgeStyle = "solid"  // A --> B
	EdgeDotted EdgeStyle = "dotted" // A -.-> B
)

// ConditionAlways is reported for edges without a label.
const ConditionAlways = "always"

// Edge is a directed relation between two nodes.
type Edge struct {
	From  string    `json:"from" yaml:"from"`
	To    string    `json:"to" yaml:"to"`
	Label string    `json:"label,omitempty" yaml:"label,omitempty"`
	Style EdgeStyle `json:"style,omitempty" yaml:"style,omitempty"`

	Line int `json:"line,omitempty" yaml:"-"`
}

// Condition returns the branch label, or "always" for an unlabeled edge.
func (e Edge) Condition() string {
	if e.Label == "" {
		return ConditionAlways
	}
	return e.Label
}
