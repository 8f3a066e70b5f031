package workers

import (
	"context"
	"sync"

	"github.com/aatumaykin/postbot/internal/logger"
)

// WorkerPool runs jobs on a fixed set of workers, each with its own queue.
type WorkerPool struct {
	queues   []chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *logger.Logger
	counters counters

	stopOnce sync.Once
}

// NewPool creates a new worker pool with the specified configuration.
func NewPool(workers int, bufferSize int, log *logger.Logger) *WorkerPool {
	if workers <= 0 {
		workers = DefaultPoolSize
	}
	if bufferSize <= 0 {
		bufferSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	queues := make([]chan Job, workers)
	for i := range queues {
		queues[i] = make(chan Job, bufferSize)
	}
	return &WorkerPool{
		queues: queues,
		ctx:    ctx,
		cancel: cancel,
		logger: log.Component("workers"),
	}
}

// Start initializes and starts all worker goroutines.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool",
		logger.Field{Key: "workers", Value: len(p.queues)},
		logger.Field{Key: "buffer_size", Value: cap(p.queues[0])})

	for i := range p.queues {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a job on the worker owning its key. It blocks while that
// worker's queue is full.
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	if p.ctx.Err() != nil {
		return ErrPoolStopped
	}
	queue := p.queues[p.slot(job.Key)]
	select {
	case queue <- job:
		p.counters.submitted.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolStopped
	}
}

// Stop stops accepting jobs, lets workers finish the job in hand and waits
// for them. Jobs still queued are dropped.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		p.wg.Wait()

		metrics := p.Metrics()
		p.logger.Info("worker pool stopped",
			logger.Field{Key: "jobs_submitted", Value: metrics.JobsSubmitted},
			logger.Field{Key: "jobs_completed", Value: metrics.JobsCompleted},
			logger.Field{Key: "jobs_failed", Value: metrics.JobsFailed})
	})
}

// WorkerCount returns the number of workers.
func (p *WorkerPool) WorkerCount() int {
	return len(p.queues)
}

// QueueSize returns the number of jobs waiting across all workers.
func (p *WorkerPool) QueueSize() int {
	n := 0
	for _, q := range p.queues {
		n += len(q)
	}
	return n
}

func (p *WorkerPool) slot(key int64) int {
	k := key % int64(len(p.queues))
	if k < 0 {
		k = -k
	}
	return int(k)
}
