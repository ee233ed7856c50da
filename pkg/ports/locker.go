package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes updates to one conversation across engine
// replicas that share a session store. session.Manager takes it around each
// read-modify-write, after the in-process lock for the same session.
type DistributedLocker interface {
	// Lock blocks until the conversation key is held or ctx is done. The lease
	// lapses after ttl so a crashed replica cannot pin a conversation forever.
	// The caller releases the lock through the returned UnlockFunc.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
