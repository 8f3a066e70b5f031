package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/aatumaykin/postbot/internal/logger"
)

// worker processes the jobs of one queue in order.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.DebugCtx(p.ctx, "worker started",
		logger.Field{Key: "worker_id", Value: id})

	queue := p.queues[id]
	for {
		select {
		case job := <-queue:
			p.processJob(id, job)

		case <-p.ctx.Done():
			p.logger.DebugCtx(p.ctx, "worker stopping",
				logger.Field{Key: "worker_id", Value: id})
			return
		}
	}
}

// processJob runs a single job with metrics and panic recovery.
func (p *WorkerPool) processJob(workerID int, job Job) {
	startTime := time.Now()

	err := p.run(job)
	duration := time.Since(startTime)

	p.counters.finished(err, duration)
	if err != nil {
		p.logger.ErrorCtx(p.ctx, "job failed", err,
			logger.Field{Key: "worker_id", Value: workerID},
			logger.Field{Key: "job", Value: job.Name},
			logger.Field{Key: "key", Value: job.Key})
	}

	p.logger.DebugCtx(p.ctx, "job processed",
		logger.Field{Key: "worker_id", Value: workerID},
		logger.Field{Key: "job", Value: job.Name},
		logger.Field{Key: "duration_ms", Value: duration.Milliseconds()})
}

func (p *WorkerPool) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during job execution: %v", r)
		}
	}()
	// Jobs are not interrupted on shutdown; Stop waits for them.
	return job.Run(context.WithoutCancel(p.ctx))
}
