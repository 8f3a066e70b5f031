// Package scheduler arms one wait unit per pending task and publishes the
// task's payload to the owner's channel when its instant arrives.
//
// A wait unit never sleeps longer than MaxWait at a time and re-reads the
// task from the store after every wake-up, so cancellation and re-timing are
// plain data changes: the unit notices the task is gone or moved and acts
// accordingly.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/metrics"
	"github.com/aatumaykin/postbot/internal/post"
)

// DefaultMaxWait bounds a single sleep of a wait unit.
const DefaultMaxWait = 60 * time.Second

// Deliverer copies a payload into a destination chat.
type Deliverer interface {
	Deliver(ctx context.Context, payload post.PayloadRef, chatID string) (post.Delivered, error)
}

// Notifier tells an owner what happened to a scheduled task.
type Notifier interface {
	NotifyDelivered(ctx context.Context, task post.Task, delivered post.Delivered)
	NotifyFailed(ctx context.Context, task post.Task, err error)
}

// TaskStore is the subset of the store used by the scheduler.
type TaskStore interface {
	Get(owner post.OwnerID, id string) (post.Task, bool)
	Remove(ctx context.Context, owner post.OwnerID, id string) bool
	Advance(ctx context.Context, owner post.OwnerID, id string, from, next time.Time) bool
	All() []post.Task
}

// ChannelResolver returns the destination chat of an owner.
type ChannelResolver interface {
	Get(owner post.OwnerID) string
}

// Config configures a Scheduler.
type Config struct {
	Location *time.Location
	MaxWait  time.Duration
	Now      func() time.Time
	Metrics  *metrics.PrometheusMetrics
}

// Scheduler is safe for concurrent use.
type Scheduler struct {
	tasks     TaskStore
	channels  ChannelResolver
	deliverer Deliverer
	notifier  Notifier
	logger    *logger.Logger
	metrics   *metrics.PrometheusMetrics

	loc     *time.Location
	maxWait time.Duration
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	started  bool
	armed    map[string]struct{}
	inflight map[string]struct{}
}

// ErrNotStarted is returned when tasks are scheduled before Start.
var ErrNotStarted = errors.New("scheduler is not started")

// New creates a Scheduler.
func New(cfg Config, tasks TaskStore, channels ChannelResolver, deliverer Deliverer, notifier Notifier, log *logger.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		tasks:     tasks,
		channels:  channels,
		deliverer: deliverer,
		notifier:  notifier,
		logger:    log.Component("scheduler"),
		metrics:   cfg.Metrics,
		loc:       cfg.Location,
		maxWait:   cfg.MaxWait,
		now:       cfg.Now,
		armed:     make(map[string]struct{}),
		inflight:  make(map[string]struct{}),
	}
}

// Start enables scheduling. Wait units stop when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true

	s.logger.Info("scheduler started", logger.Field{Key: "max_wait", Value: s.maxWait.String()})
	return nil
}

// Stop cancels every wait unit and waits for them to exit or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for wait units: %w", ctx.Err())
	}
}

// Schedule arms a wait unit for the task. A task that is already armed is ignored.
func (s *Scheduler) Schedule(task post.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if _, ok := s.armed[task.ID]; ok {
		return nil
	}
	s.armed[task.ID] = struct{}{}
	s.metrics.SetArmed(len(s.armed))

	s.wg.Add(1)
	go s.run(s.ctx, task.Owner, task.ID)

	s.logger.Debug("task armed",
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "owner", Value: int64(task.Owner)},
		logger.Field{Key: "target_at", Value: task.TargetAt})
	return nil
}

// Restore arms every stored task once and returns how many were armed.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	n := 0
	for _, task := range s.tasks.All() {
		if err := s.Schedule(task); err != nil {
			return n, err
		}
		n++
	}
	s.logger.InfoCtx(ctx, "tasks restored", logger.Field{Key: "count", Value: n})
	return n, nil
}

// Armed reports whether a wait unit exists for the task ID.
func (s *Scheduler) Armed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.armed[id]
	return ok
}

func (s *Scheduler) disarm(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.armed, id)
	s.metrics.SetArmed(len(s.armed))
}

// run is the wait unit of one task.
func (s *Scheduler) run(ctx context.Context, owner post.OwnerID, id string) {
	defer s.wg.Done()
	defer s.disarm(id)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("wait unit panic recovered", fmt.Errorf("panic: %v", r),
				logger.Field{Key: "task_id", Value: id})
		}
	}()

	for {
		task, ok := s.tasks.Get(owner, id)
		if !ok {
			s.logger.Debug("task gone, wait unit exits", logger.Field{Key: "task_id", Value: id})
			return
		}

		wait := task.TargetAt.Sub(s.now())
		if wait <= 0 {
			switch s.fire(ctx, task) {
			case fireDone:
				return
			case fireBusy:
				wait = min(s.maxWait, time.Second)
			case fireAgain:
				continue
			}
		}
		if wait > s.maxWait {
			wait = s.maxWait
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

type fireResult int

const (
	fireDone fireResult = iota
	fireAgain
	fireBusy
)

// fire publishes the task if it is still pending at the same instant.
// Calling it twice for one occurrence delivers once.
func (s *Scheduler) fire(ctx context.Context, task post.Task) fireResult {
	if !s.begin(task.ID) {
		return fireBusy
	}
	defer s.end(task.ID)

	current, ok := s.tasks.Get(task.Owner, task.ID)
	if !ok {
		s.metrics.RecordDelivery(metrics.ResultSkipped, 0)
		return fireDone
	}
	if !current.TargetAt.Equal(task.TargetAt) {
		return fireAgain
	}

	delivered, err := s.deliver(ctx, current)
	return s.settle(ctx, current, delivered, err)
}

// settle updates the store after a delivery attempt and notifies the owner.
func (s *Scheduler) settle(ctx context.Context, task post.Task, delivered post.Delivered, err error) fireResult {
	result := fireDone
	if task.IsRecurring() {
		next, nextErr := task.Recurrence.NextAfterNow(task.TargetAt, s.now(), s.loc)
		if nextErr != nil {
			s.logger.ErrorCtx(ctx, "cannot compute next occurrence, dropping task", nextErr,
				logger.Field{Key: "task_id", Value: task.ID})
			s.tasks.Remove(ctx, task.Owner, task.ID)
		} else if s.tasks.Advance(ctx, task.Owner, task.ID, task.TargetAt, next) {
			result = fireAgain
			s.logger.InfoCtx(ctx, "recurring task advanced",
				logger.Field{Key: "task_id", Value: task.ID},
				logger.Field{Key: "next", Value: next})
		}
	} else {
		s.tasks.Remove(ctx, task.Owner, task.ID)
	}

	if err != nil {
		s.notifier.NotifyFailed(ctx, task, err)
	} else {
		s.notifier.NotifyDelivered(ctx, task, delivered)
	}
	return result
}

// deliver calls the Deliverer detached from shutdown so an in-flight copy
// is never reported as failed because the process is stopping.
func (s *Scheduler) deliver(ctx context.Context, task post.Task) (post.Delivered, error) {
	chatID := s.channels.Get(task.Owner)
	fields := []logger.Field{
		{Key: "task_id", Value: task.ID},
		{Key: "owner", Value: int64(task.Owner)},
		{Key: "chat_id", Value: chatID},
	}

	delivered, err := s.deliverer.Deliver(context.WithoutCancel(ctx), task.Payload, chatID)
	if err != nil {
		var derr *post.DeliveryError
		if errors.As(err, &derr) {
			fields = append(fields, derr.LogFields()...)
		}
		s.metrics.RecordDelivery(metrics.ResultFailed, 0)
		s.logger.ErrorCtx(ctx, "publication failed", err, fields...)
		return post.Delivered{}, err
	}

	s.metrics.RecordDelivery(metrics.ResultDelivered, s.now().Sub(task.TargetAt))
	s.logger.InfoCtx(ctx, "post published", append(fields, logger.Field{Key: "link", Value: delivered.Link})...)
	return delivered, nil
}

func (s *Scheduler) begin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Scheduler) end(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}
