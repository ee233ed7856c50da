package runtime_test

import (
	"testing"

	"github.com/aretw0/sopnav/internal/runtime"
	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moveAndDeliver(t *testing.T, s *domain.Session, target string, bundle bool) (*domain.Session, runtime.NodeView) {
	t.Helper()
	g := supportGraph()
	next, step, err := runtime.Move(g, s, target, bundle)
	require.NoError(t, err)
	return next, runtime.Deliver(g, next, step)
}

func TestDeliver_InstructionAndEdges(t *testing.T) {
	s := walk(t, supportGraph(), domain.NewSession("d"), "START", "ROUTE")

	_, view := moveAndDeliver(t, s, "AUTH", false)
	assert.Equal(t, "AUTH", view.ID)
	assert.Equal(t, domain.KindAction, view.Kind)
	assert.Equal(t, "Ask for the email.", view.Text)
	require.NotNil(t, view.Instruction)
	assert.Equal(t, []string{"find_user"}, view.Instruction.Capabilities)
	assert.Equal(t, []runtime.EdgeView{{To: "RETURN_DONE", Condition: "always", Style: domain.EdgeSolid}}, view.Edges)
	assert.Equal(t, "START -> ROUTE -> AUTH", view.PathTrace)
	assert.Nil(t, view.Reminder)
}

func TestDeliver_LabelOnly(t *testing.T) {
	s := walk(t, supportGraph(), domain.NewSession("d"), "START")

	_, view := moveAndDeliver(t, s, "ROUTE", false)
	assert.Equal(t, "What does the user want?", view.Text)
	assert.Nil(t, view.Instruction)
	require.Len(t, view.Edges, 3)
	assert.Equal(t, "return", view.Edges[0].Condition)
	assert.Equal(t, "other", view.Edges[2].Condition)
}

func TestDeliver_BundledAnnotations(t *testing.T) {
	s := walk(t, supportGraph(), domain.NewSession("d"), "START", "ROUTE")

	next, view := moveAndDeliver(t, s, "ASK", true)
	assert.Equal(t, "ASK", view.ID)
	assert.Equal(t, "ASK", next.Current)
	require.Len(t, view.Annotations, 2)
	assert.Equal(t, "Keep answers under three sentences.", view.Annotations[0].Text)
	assert.Equal(t, "Stay on topic", view.Annotations[1].Text)
	assert.Equal(t, []runtime.EdgeView{{To: "ROUTE", Condition: "always", Style: domain.EdgeSolid}}, view.Edges, "edges leave the last annotation")
	assert.Equal(t, next.Path, view.Path)
}

func TestDeliver_ScenarioC_Reminders(t *testing.T) {
	s := walk(t, supportGraph(), domain.NewSession("c"), "START", "ROUTE")
	s.Tasks = []domain.Task{
		{Description: "Return the blender", Status: domain.TaskInProgress, CompletionNode: "RETURN_DONE"},
		{Description: "Cancel order 42", Status: domain.TaskPending, CompletionNode: "CANCEL_DONE"},
	}

	s, view := moveAndDeliver(t, s, "AUTH", false)
	assert.Nil(t, view.Reminder)

	s, view = moveAndDeliver(t, s, "RETURN_DONE", false)
	require.NotNil(t, view.Reminder)
	require.Len(t, view.Reminder.Tasks, 1)
	assert.Equal(t, 0, view.Reminder.Tasks[0].Index)
	assert.Equal(t, "Return the blender", view.Reminder.Tasks[0].Description)
	assert.Contains(t, view.Reminder.Message, "Reached completion node RETURN_DONE")

	s.Tasks[0].Status = domain.TaskCompleted
	s, _ = moveAndDeliver(t, s, "ROUTE", false)
	s, view = moveAndDeliver(t, s, "CANCEL_DONE", false)
	require.NotNil(t, view.Reminder)
	require.Len(t, view.Reminder.Tasks, 1)
	assert.Equal(t, 1, view.Reminder.Tasks[0].Index)

	s.Tasks[1].Status = domain.TaskCompleted
	s, _ = moveAndDeliver(t, s, "ROUTE", false)
	_, view = moveAndDeliver(t, s, "CANCEL_DONE", false)
	assert.Nil(t, view.Reminder, "completed tasks are not reminded again")
}

func TestDeliver_NoReminderOnNonTerminalCompletionNode(t *testing.T) {
	s := walk(t, supportGraph(), domain.NewSession("c"), "START", "ROUTE")
	s.Tasks = []domain.Task{{Description: "Verify identity", Status: domain.TaskPending, CompletionNode: "AUTH"}}

	_, view := moveAndDeliver(t, s, "AUTH", false)
	assert.Nil(t, view.Reminder)
}

func TestDeliver_ReminderGroupsTasksOnOneNode(t *testing.T) {
	s := walk(t, supportGraph(), domain.NewSession("c"), "START", "ROUTE")
	s.Tasks = []domain.Task{
		{Description: "Cancel order 42", Status: domain.TaskPending, CompletionNode: "CANCEL_DONE"},
		{Description: "Return the blender", Status: domain.TaskPending, CompletionNode: "RETURN_DONE"},
		{Description: "Cancel order 43", Status: domain.TaskInProgress, CompletionNode: "CANCEL_DONE"},
	}

	_, view := moveAndDeliver(t, s, "CANCEL_DONE", false)
	require.NotNil(t, view.Reminder)
	require.Len(t, view.Reminder.Tasks, 2)
	assert.Equal(t, 0, view.Reminder.Tasks[0].Index)
	assert.Equal(t, 2, view.Reminder.Tasks[1].Index)
}
