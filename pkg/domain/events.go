package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventLoad   EventType = "load"
	EventMove   EventType = "move"
	EventReject EventType = "reject"
	EventTasks  EventType = "tasks"
)

// Reject reasons carried by RejectEvent.
const (
	ReasonUnknownNode       = "unknown_node"
	ReasonIllegalTransition = "illegal_transition"
	ReasonNotLoaded         = "not_loaded"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Workflow  string    `json:"workflow,omitempty"`
}

// LoadEvent is emitted after a workflow is installed in a session.
type LoadEvent struct {
	EventBase
	Digest    string `json:"digest"`
	NodeCount int    `json:"node_count"`
	Warnings  int    `json:"warnings"`
}

// MoveEvent is emitted after a validated move.
type MoveEvent struct {
	EventBase
	From     string   `json:"from,omitempty"`
	To       string   `json:"to"`
	Bundled  []string `json:"bundled,omitempty"`
	Reset    bool     `json:"reset,omitempty"`
	Reminder bool     `json:"reminder,omitempty"`
}

// RejectEvent is emitted when a move fails validation.
type RejectEvent struct {
	EventBase
	Current string `json:"current,omitempty"`
	Target  string `json:"target"`
	Reason  string `json:"reason"`
}

// TasksEvent is emitted after the task list is replaced.
type TasksEvent struct {
	EventBase
	Tally Tally `json:"tally"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnLoad   func(context.Context, *LoadEvent)
	OnMove   func(context.Context, *MoveEvent)
	OnReject func(context.Context, *RejectEvent)
	OnTasks  func(context.Context, *TasksEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnLoad:   chain(h.OnLoad, other.OnLoad),
		OnMove:   chain(h.OnMove, other.OnMove),
		OnReject: chain(h.OnReject, other.OnReject),
		OnTasks:  chain(h.OnTasks, other.OnTasks),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
