package workers

import (
	"sync/atomic"
	"time"
)

// counters are updated by workers without locking.
type counters struct {
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	busyNanos atomic.Int64
}

// Metrics returns a snapshot of the pool counters.
func (p *WorkerPool) Metrics() PoolMetrics {
	return PoolMetrics{
		JobsSubmitted: p.counters.submitted.Load(),
		JobsCompleted: p.counters.completed.Load(),
		JobsFailed:    p.counters.failed.Load(),
		TotalDuration: time.Duration(p.counters.busyNanos.Load()),
	}
}

func (c *counters) finished(err error, d time.Duration) {
	if err != nil {
		c.failed.Add(1)
	} else {
		c.completed.Add(1)
	}
	c.busyNanos.Add(int64(d))
}
