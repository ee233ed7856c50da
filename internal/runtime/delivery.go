package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/graph"
)

// EdgeView is an outgoing edge as reported to the client.
type EdgeView struct {
	To        string           `json:"to"`
	Condition string           `json:"condition"`
	Style     domain.EdgeStyle `json:"style,omitempty"`
}

// Annotation is a bundled guidance node.
type Annotation struct {
	ID          string             `json:"id"`
	Text        string             `json:"text"`
	Instruction domain.Instruction `json:"instruction"`
}

// TaskRef points at a task by its position in the submitted list.
type TaskRef struct {
	Index       int               `json:"index"`
	Description string            `json:"desc"`
	Status      domain.TaskStatus `json:"status"`
	Node        string            `json:"task_completion_node"`
}

// Reminder asks the client to update the tasks a move completed.
type Reminder struct {
	Tasks   []TaskRef `json:"tasks"`
	Message string    `json:"message"`
}

// NodeView is the delivery for a validated move.
type NodeView struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Kind  domain.NodeKind `json:"kind"`

	// Text is the instruction description, or the label when the node carries none.
	Text string `json:"node_instructions"`

	// Instruction is nil when the label is self-explanatory.
	Instruction *domain.Instruction `json:"instruction,omitempty"`

	Annotations []Annotation `json:"annotations,omitempty"`
	Edges       []EdgeView   `json:"edges"`
	Path        []string     `json:"path"`
	PathTrace   string       `json:"path_trace"`
	Reminder    *Reminder    `json:"system_reminder,omitempty"`
}

// Deliver builds the response for a move that produced next through step.
// Reported edges leave the last bundled annotation when bundling took place,
// and the target otherwise.
func Deliver(g *graph.Graph, next *domain.Session, step Step) NodeView {
	n, _ := g.Node(step.To)
	view := NodeView{
		ID:        n.ID,
		Label:     n.Label,
		Kind:      n.Kind,
		Text:      n.Text(),
		Edges:     edgeViews(g.Outgoing(step.exit())),
		Path:      append([]string(nil), next.Path...),
		PathTrace: strings.Join(next.Path, " -> "),
		Reminder:  remind(g, next.Tasks, step.To),
	}
	if !n.Instruction.IsEmpty() {
		ins := n.Instruction
		view.Instruction = &ins
	}
	for _, id := range step.Bundled {
		a, _ := g.Node(id)
		view.Annotations = append(view.Annotations, Annotation{ID: a.ID, Text: a.Text(), Instruction: a.Instruction})
	}
	return view
}

func edgeViews(edges []domain.Edge) []EdgeView {
	views := make([]EdgeView, len(edges))
	for i, e := range edges {
		views[i] = EdgeView{To: e.To, Condition: e.Condition(), Style: e.Style}
	}
	return views
}

// remind returns a reminder naming every open task that completes on
// reached, or nil. Only terminal nodes complete tasks.
func remind(g *graph.Graph, tasks []domain.Task, reached string) *Reminder {
	if !g.IsTerminal(reached) {
		return nil
	}

	var refs []TaskRef
	for i, t := range tasks {
		if !t.Open() || t.CompletionNode != reached {
			continue
		}
		refs = append(refs, TaskRef{Index: i, Description: t.Description, Status: t.Status, Node: t.CompletionNode})
	}
	if len(refs) == 0 {
		return nil
	}
	return &Reminder{
		Tasks:   refs,
		Message: fmt.Sprintf("Reached completion node %s: update tasks, share an update with the user and proceed to the next task.", reached),
	}
}
