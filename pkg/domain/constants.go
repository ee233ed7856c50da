package domain

import "fmt"

// WarningKind classifies a non-fatal consistency finding.
type WarningKind string

const (
	// WarnUnknownCapability: an instruction hints a capability missing from the whitelist.
	WarnUnknownCapability WarningKind = "unknown_capability"
	// WarnOrphanInstruction: an instruction is keyed to a node that does not exist.
	WarnOrphanInstruction WarningKind = "orphan_instruction"
	// WarnAmbiguousBranch: two branches of a decision share a label.
	WarnAmbiguousBranch WarningKind = "ambiguous_branch"
	// WarnUnreachableNode: no path leads from the entry or re-entry node to the node.
	WarnUnreachableNode WarningKind = "unreachable_node"
	// WarnNonTerminalCompletion: a task names a completion node that is not terminal.
	WarnNonTerminalCompletion WarningKind = "non_terminal_completion"
)

// Warning is a ConsistencyWarning surfaced alongside a successful call.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Node   string      `json:"node,omitempty"`
	Detail string      `json:"detail"`
}

func (w Warning) String() string {
	if w.Node == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
	}
	return fmt.Sprintf("%s [%s]: %s", w.Kind, w.Node, w.Detail)
}
