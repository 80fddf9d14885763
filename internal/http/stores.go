package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"
)

// Each controller depends on the narrowest interface it needs.

// StoreChecker reports whether the configured note store is reachable.
type StoreChecker interface {
	Ping(ctx context.Context) error
}

// SyncStatus reports the state of the scheduled clippings sync.
type SyncStatus interface {
	IsRunning() bool
	NextSyncTime() *time.Time
}

// TaskQueue enqueues background work and reports its status.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}
