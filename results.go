package sopnav

import (
	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/notation"
)

// DefaultVersion is reported for workflows whose header names none.
const DefaultVersion = "1.0"

// LoadRequest names the workflow to install. Source, when set, is the
// document text itself and wins over Ref.
type LoadRequest struct {
	Ref    string `json:"sop_file,omitempty"`
	Source string `json:"source,omitempty"`
}

// GraphSummary describes the installed topology.
type GraphSummary struct {
	NodeCount        int      `json:"node_count"`
	DecisionNodes    []string `json:"decision_nodes"`
	TerminalNodes    []string `json:"terminal_nodes"`
	NodesWithPrompts []string `json:"nodes_with_prompts"`
}

// LoadResult is returned by a successful load.
type LoadResult struct {
	Agent        string            `json:"agent"`
	Version      string            `json:"version"`
	Description  string            `json:"description,omitempty"`
	Origin       string            `json:"origin"`
	EntryNode    string            `json:"entry_node"`
	ReentryNode  string            `json:"reentry_node,omitempty"`
	Model        *notation.Model   `json:"model,omitempty"`
	MCPServers   []notation.Server `json:"mcp_servers"`
	Capabilities []string          `json:"capabilities"`
	Graph        GraphSummary      `json:"graph"`
	Warnings     []domain.Warning  `json:"warnings"`

	Disclosure Disclosure `json:"disclosure"`
	// Flowchart is set under full disclosure, Skeleton under skeleton disclosure.
	Flowchart string `json:"flowchart,omitempty"`
	Skeleton  string `json:"skeleton,omitempty"`

	SystemPromptSections []string `json:"system_prompt_sections"`
	SystemPrompt         string   `json:"system_prompt"`

	// TasksKept counts the tasks that survived the reload.
	TasksKept int `json:"tasks_kept"`
}

// MoveResult reports a move attempt. Rejected moves carry recovery data.
type MoveResult struct {
	Valid     bool      `json:"valid"`
	Error     string    `json:"error,omitempty"`
	Current   string    `json:"current_node,omitempty"`
	LegalNext []string  `json:"valid_next_nodes"`
	Entry     string    `json:"entry_node,omitempty"`
	Reentry   string    `json:"reentry_node,omitempty"`
	Node      *NodeView `json:"node,omitempty"`
}

// TaskResult is returned by a successful task update.
type TaskResult struct {
	Tasks    []domain.Task    `json:"todos"`
	Tally    domain.Tally     `json:"tally"`
	Summary  string           `json:"summary"`
	Warnings []domain.Warning `json:"warnings"`
}
