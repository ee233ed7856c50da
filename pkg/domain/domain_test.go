package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		shape domain.Shape
		want  domain.NodeKind
	}{
		{domain.ShapeStadium, domain.KindTerminal},
		{domain.ShapeRectangle, domain.KindAction},
		{domain.ShapeRhombus, domain.KindDecision},
		{domain.ShapeParallelogram, domain.KindAnnotation},
	}
	for _, tt := range tests {
		t.Run(string(tt.shape), func(t *testing.T) {
			assert.Equal(t, tt.want, domain.KindOf(tt.shape))
		})
	}
}

func TestNodeText_FallsBackToLabel(t *testing.T) {
	n := domain.Node{ID: "A", Label: "Greet the customer"}
	assert.Equal(t, "Greet the customer", n.Text())

	n.Instruction.Description = "Say hello and ask for the order id"
	assert.Equal(t, "Say hello and ask for the order id", n.Text())

	assert.Equal(t, "B", domain.Node{ID: "B"}.Text())
}

func TestInstruction_IsEmpty(t *testing.T) {
	assert.True(t, domain.Instruction{}.IsEmpty())
	assert.False(t, domain.Instruction{Capabilities: []string{"lookup"}}.IsEmpty())
	assert.False(t, domain.Instruction{Examples: []domain.Example{{Input: "hi", Output: "hello"}}}.IsEmpty())
}

func TestEdgeCondition(t *testing.T) {
	assert.Equal(t, "always", domain.Edge{From: "A", To: "B"}.Condition())
	assert.Equal(t, "yes", domain.Edge{From: "A", To: "B", Label: "yes"}.Condition())
}

func TestTally(t *testing.T) {
	tasks := []domain.Task{
		{Description: "a", Status: domain.TaskPending},
		{Description: "b", Status: domain.TaskPending},
		{Description: "c", Status: domain.TaskInProgress},
		{Description: "d", Status: domain.TaskCompleted},
	}
	tally := domain.TallyOf(tasks)
	assert.Equal(t, domain.Tally{Pending: 2, InProgress: 1, Completed: 1}, tally)
	assert.Equal(t, "2 pending, 1 in progress, 1 completed", tally.String())
}

func TestSessionClone_IsDeep(t *testing.T) {
	s := domain.NewSession("s1")
	s.Workflow = &domain.WorkflowRef{Name: "retail", Digest: "abc"}
	s.Current = "START"
	s.Path = []string{"START"}
	s.Tasks = []domain.Task{{Description: "refund", Status: domain.TaskPending}}

	c := s.Clone()
	c.Path = append(c.Path, "X")
	c.Tasks[0].Status = domain.TaskCompleted
	c.Workflow.Name = "other"

	assert.Equal(t, []string{"START"}, s.Path)
	assert.Equal(t, domain.TaskPending, s.Tasks[0].Status)
	assert.Equal(t, "retail", s.Workflow.Name)
}

func TestErrors_Match(t *testing.T) {
	var err error = &domain.ParseError{Line: 3, Column: 7, Msg: "undeclared node \"X\""}
	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Equal(t, `line 3, column 7: undeclared node "X"`, err.Error())

	wrapped := fmt.Errorf("load: %w", &domain.IllegalTransitionError{From: "A", To: "C", LegalNext: []string{"B"}})
	assert.ErrorIs(t, wrapped, domain.ErrInvalidMove)

	var ite *domain.IllegalTransitionError
	require.True(t, errors.As(wrapped, &ite))
	assert.Equal(t, []string{"B"}, ite.LegalNext)
	assert.Contains(t, ite.Error(), `cannot reach "C" from "A"`)

	unknown := &domain.UnknownNodeError{Node: "Z", Current: "A", LegalNext: []string{"B", "C"}}
	assert.ErrorIs(t, unknown, domain.ErrInvalidMove)
	assert.Contains(t, unknown.Error(), "B, C")
}

func TestHooksMerge_CallsBoth(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnTasks: func(_ context.Context, _ *domain.TasksEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{OnTasks: func(_ context.Context, _ *domain.TasksEvent) { calls = append(calls, "b") }}

	merged := a.Merge(b)
	merged.OnTasks(context.Background(), &domain.TasksEvent{})
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Nil(t, merged.OnLoad)
}
