// Package workers provides a keyed worker pool. Jobs with the same key run
// one after another on the same worker; jobs with different keys may run in
// parallel.
package workers

import (
	"context"
	"errors"
	"time"
)

// Job is a unit of work routed by Key.
type Job struct {
	Key  int64  // Routing key, e.g. the chat of an update
	Name string // Short label for logs
	Run  func(ctx context.Context) error
}

// PoolMetrics tracks execution metrics for the worker pool.
type PoolMetrics struct {
	JobsSubmitted uint64
	JobsCompleted uint64
	JobsFailed    uint64
	TotalDuration time.Duration
}

// ErrPoolStopped is returned by Submit after Stop.
var ErrPoolStopped = errors.New("worker pool stopped")

// Constants for worker pool configuration
const (
	DefaultPoolSize  = 4
	DefaultQueueSize = 64
)
