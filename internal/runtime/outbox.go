package runtime

import (
	"context"
	"sync"
)

type outboxKey struct{}

// Outbox holds the lifecycle events produced while a session transaction is
// open. The caller publishes them with Flush once the successor session is
// stored, and drops them when the transaction fails.
type Outbox struct {
	mu      sync.Mutex
	pending []func(context.Context)
}

// WithOutbox returns a context whose load, move and task events are queued
// in o instead of reaching the hooks right away. Rejections are never queued.
func WithOutbox(ctx context.Context, o *Outbox) context.Context {
	return context.WithValue(ctx, outboxKey{}, o)
}

// Flush fires the queued events in order and empties the outbox.
func (o *Outbox) Flush(ctx context.Context) {
	o.mu.Lock()
	pending := o.pending
	o.pending = nil
	o.mu.Unlock()

	for _, fire := range pending {
		fire(ctx)
	}
}

// Len reports the number of queued events.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// emit runs fire now, or queues it when ctx carries an outbox.
func emit(ctx context.Context, fire func(context.Context)) {
	if o, ok := ctx.Value(outboxKey{}).(*Outbox); ok && o != nil {
		o.mu.Lock()
		o.pending = append(o.pending, fire)
		o.mu.Unlock()
		return
	}
	fire(ctx)
}
