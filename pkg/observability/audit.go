package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/sopnav/pkg/domain"
)

// AuditHooks logs every lifecycle event at info level, rejections at warn.
func AuditHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnLoad: func(ctx context.Context, e *domain.LoadEvent) {
			logger.InfoContext(ctx, "audit.load",
				"session_id", e.SessionID,
				"workflow", e.Workflow,
				"digest", e.Digest,
				"nodes", e.NodeCount,
			)
		},
		OnMove: func(ctx context.Context, e *domain.MoveEvent) {
			logger.InfoContext(ctx, "audit.move",
				"session_id", e.SessionID,
				"workflow", e.Workflow,
				"from", e.From,
				"to", e.To,
				"reset", e.Reset,
				"reminder", e.Reminder,
			)
		},
		OnReject: func(ctx context.Context, e *domain.RejectEvent) {
			logger.WarnContext(ctx, "audit.reject",
				"session_id", e.SessionID,
				"workflow", e.Workflow,
				"current", e.Current,
				"target", e.Target,
				"reason", e.Reason,
			)
		},
		OnTasks: func(ctx context.Context, e *domain.TasksEvent) {
			logger.InfoContext(ctx, "audit.tasks",
				"session_id", e.SessionID,
				"tally", e.Tally.String(),
			)
		},
	}
}
