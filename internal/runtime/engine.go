package runtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/sopnav/internal/logging"
	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/graph"
)

// Engine applies loads, moves and task updates to session snapshots.
// It holds no per-session state: every call takes a session and returns
// its successor, leaving persistence and locking to the caller.
type Engine struct {
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	planner *Planner
	bundle  bool
	now     func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithBundling makes moves deliver the annotation chain that follows the target.
func WithBundling(enabled bool) EngineOption {
	return func(e *Engine) {
		e.bundle = enabled
	}
}

// WithClock overrides the time source used for snapshots and events.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:  logging.NewNop(),
		planner: NewPlanner(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load installs g in a copy of s. Traversal state restarts; tasks are kept.
func (e *Engine) Load(ctx context.Context, s *domain.Session, g *graph.Graph, ref domain.WorkflowRef, warnings int) *domain.Session {
	next := s.Clone()
	next.Workflow = &ref
	next.Current = ""
	next.Path = []string{}
	next.UpdatedAt = e.now()

	e.logger.InfoContext(ctx, "workflow loaded",
		"session_id", s.ID,
		"workflow", g.Name(),
		"nodes", g.NodeCount(),
		"warnings", warnings,
	)
	if hook := e.hooks.OnLoad; hook != nil {
		ev := &domain.LoadEvent{
			EventBase: e.base(domain.EventLoad, next),
			Digest:    g.Digest(),
			NodeCount: g.NodeCount(),
			Warnings:  warnings,
		}
		emit(ctx, func(ctx context.Context) { hook(ctx, ev) })
	}
	return next
}

// Goto validates a move to target and returns the successor session with
// the delivery for the node. A nil g means nothing was loaded.
// On error no successor is returned and s is left as it was.
func (e *Engine) Goto(ctx context.Context, s *domain.Session, g *graph.Graph, target string) (*domain.Session, *NodeView, error) {
	if g == nil {
		e.reject(ctx, s, target, domain.ReasonNotLoaded)
		return nil, nil, domain.ErrGraphNotLoaded
	}

	next, step, err := Move(g, s, target, e.bundle)
	if err != nil {
		reason := domain.ReasonIllegalTransition
		var unknown *domain.UnknownNodeError
		if errors.As(err, &unknown) {
			reason = domain.ReasonUnknownNode
		}
		e.reject(ctx, s, target, reason)
		return nil, nil, err
	}
	next.UpdatedAt = e.now()

	view := Deliver(g, next, step)
	e.logger.DebugContext(ctx, "node visited",
		"session_id", s.ID,
		"from", step.From,
		"to", step.To,
		"bundled", len(step.Bundled),
		"path_len", len(next.Path),
	)
	if hook := e.hooks.OnMove; hook != nil {
		ev := &domain.MoveEvent{
			EventBase: e.base(domain.EventMove, next),
			From:      step.From,
			To:        step.To,
			Bundled:   step.Bundled,
			Reset:     step.Reset,
			Reminder:  view.Reminder != nil,
		}
		emit(ctx, func(ctx context.Context) { hook(ctx, ev) })
	}
	return next, &view, nil
}

// LegalNext lists the moves available from current under the engine's
// bundling mode.
func (e *Engine) LegalNext(g *graph.Graph, current string) []string {
	return LegalNext(g, current, e.bundle)
}

// SetTasks replaces the task list of a copy of s. g may be nil.
func (e *Engine) SetTasks(ctx context.Context, s *domain.Session, g *graph.Graph, tasks []domain.Task) (*domain.Session, Plan, error) {
	plan, err := e.planner.Plan(g, tasks)
	if err != nil {
		e.logger.DebugContext(ctx, "task list rejected", "session_id", s.ID, "err", err)
		return nil, Plan{}, err
	}

	next := s.Clone()
	next.Tasks = append([]domain.Task{}, plan.Tasks...)
	next.UpdatedAt = e.now()

	e.logger.DebugContext(ctx, "tasks updated", "session_id", s.ID, "tally", plan.Tally.String())
	if hook := e.hooks.OnTasks; hook != nil {
		ev := &domain.TasksEvent{
			EventBase: e.base(domain.EventTasks, next),
			Tally:     plan.Tally,
		}
		emit(ctx, func(ctx context.Context) { hook(ctx, ev) })
	}
	return next, plan, nil
}

func (e *Engine) reject(ctx context.Context, s *domain.Session, target, reason string) {
	e.logger.DebugContext(ctx, "move rejected",
		"session_id", s.ID,
		"current", s.Current,
		"target", target,
		"reason", reason,
	)
	if e.hooks.OnReject != nil {
		e.hooks.OnReject(ctx, &domain.RejectEvent{
			EventBase: e.base(domain.EventReject, s),
			Current:   s.Current,
			Target:    target,
			Reason:    reason,
		})
	}
}

func (e *Engine) base(t domain.EventType, s *domain.Session) domain.EventBase {
	b := domain.EventBase{Timestamp: e.now(), Type: t, SessionID: s.ID}
	if s.Workflow != nil {
		b.Workflow = s.Workflow.Name
	}
	return b
}
