package domain

import "fmt"

// TaskStatus is the progress of a client-managed goal.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// Task is one entry of the client's plan.
// CompletionNode names the terminal node that marks the task done.
type Task struct {
	Description    string     `json:"desc" validate:"required"`
	Status         TaskStatus `json:"status" validate:"required,oneof=pending in_progress completed"`
	Note           string     `json:"note,omitempty"`
	CompletionNode string     `json:"task_completion_node,omitempty"`
}

// Open reports whether the task still expects work.
func (t Task) Open() bool {
	return t.Status != TaskCompleted
}

// Tally counts tasks per status.
type Tally struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// TallyOf counts the given tasks.
func TallyOf(tasks []Task) Tally {
	var t Tally
	for _, task := range tasks {
		switch task.Status {
		case TaskPending:
			t.Pending++
		case TaskInProgress:
			t.InProgress++
		case TaskCompleted:
			t.Completed++
		}
	}
	return t
}

func (t Tally) String() string {
	return fmt.Sprintf("%d pending, %d in progress, %d completed", t.Pending, t.InProgress, t.Completed)
}
