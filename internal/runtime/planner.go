package runtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/graph"
	"github.com/go-playground/validator/v10"
)

// Plan is the outcome of replacing a session's task list.
type Plan struct {
	Tasks    []domain.Task    `json:"tasks"`
	Tally    domain.Tally     `json:"tally"`
	Summary  string           `json:"summary"`
	Warnings []domain.Warning `json:"warnings,omitempty"`
}

// Planner validates client task lists.
type Planner struct {
	validate *validator.Validate
}

// NewPlanner creates a planner.
func NewPlanner() *Planner {
	return &Planner{validate: validator.New()}
}

// Plan normalizes and validates tasks as a whole. An invalid entry rejects
// the entire list. g may be nil when no workflow is loaded, in which case
// completion nodes are not checked.
func (p *Planner) Plan(g *graph.Graph, tasks []domain.Task) (Plan, error) {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		t.Description = strings.TrimSpace(t.Description)
		t.CompletionNode = strings.TrimSpace(t.CompletionNode)
		if t.Status == "" {
			t.Status = domain.TaskPending
		}
		if err := p.validate.Struct(t); err != nil {
			return Plan{}, fmt.Errorf("%w: task %d: %s", domain.ErrInvalidTask, i, describe(err))
		}
		out[i] = t
	}

	tally := domain.TallyOf(out)
	return Plan{
		Tasks:    out,
		Tally:    tally,
		Summary:  "Tasks updated: " + tally.String(),
		Warnings: completionWarnings(g, out),
	}, nil
}

func completionWarnings(g *graph.Graph, tasks []domain.Task) []domain.Warning {
	if g == nil {
		return nil
	}
	var warnings []domain.Warning
	for i, t := range tasks {
		if t.CompletionNode == "" {
			continue
		}
		switch {
		case !g.HasNode(t.CompletionNode):
			warnings = append(warnings, domain.Warning{
				Kind:   domain.WarnNonTerminalCompletion,
				Node:   t.CompletionNode,
				Detail: fmt.Sprintf("task %d names a node that does not exist; no reminder will fire", i),
			})
		case !g.IsTerminal(t.CompletionNode):
			warnings = append(warnings, domain.Warning{
				Kind:   domain.WarnNonTerminalCompletion,
				Node:   t.CompletionNode,
				Detail: fmt.Sprintf("task %d completes on a node that is not terminal; no reminder will fire", i),
			})
		}
	}
	return warnings
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fieldName(e.Field())))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s, got %q", fieldName(e.Field()), strings.ReplaceAll(e.Param(), " ", ", "), e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fieldName(e.Field()), e.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func fieldName(f string) string {
	switch f {
	case "Description":
		return "desc"
	case "Status":
		return "status"
	default:
		return strings.ToLower(f)
	}
}
