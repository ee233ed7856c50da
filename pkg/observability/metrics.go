package observability

import (
	"context"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sopnav"

// Metrics holds the engine's prometheus collectors.
type Metrics struct {
	Loads       *prometheus.CounterVec
	Moves       *prometheus.CounterVec
	Rejected    *prometheus.CounterVec
	TaskUpdates prometheus.Counter
	Reminders   prometheus.Counter
	Bundled     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Workflows installed in a session.",
		}, []string{"agent"}),
		Moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Validated moves by target node.",
		}, []string{"agent", "node"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_moves_total",
			Help:      "Moves that failed validation.",
		}, []string{"agent", "reason"}),
		TaskUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_updates_total",
			Help:      "Task list replacements.",
		}),
		Reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Moves that carried a task reminder.",
		}),
		Bundled: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bundled_nodes",
			Help:      "Annotation nodes delivered with a single move.",
			Buckets:   []float64{0, 1, 2, 4, 8},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Loads, m.Moves, m.Rejected, m.TaskUpdates, m.Reminders, m.Bundled)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnLoad: func(_ context.Context, e *domain.LoadEvent) {
			m.Loads.WithLabelValues(e.Workflow).Inc()
		},
		OnMove: func(_ context.Context, e *domain.MoveEvent) {
			m.Moves.WithLabelValues(e.Workflow, e.To).Inc()
			m.Bundled.Observe(float64(len(e.Bundled)))
			if e.Reminder {
				m.Reminders.Inc()
			}
		},
		OnReject: func(_ context.Context, e *domain.RejectEvent) {
			m.Rejected.WithLabelValues(e.Workflow, e.Reason).Inc()
		},
		OnTasks: func(_ context.Context, _ *domain.TasksEvent) {
			m.TaskUpdates.Inc()
		},
	}
}
