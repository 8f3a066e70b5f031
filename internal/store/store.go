// Package store keeps every owner's pending tasks and channel binding in
// memory and writes the full state through a Persister after each mutation.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/metrics"
	"github.com/aatumaykin/postbot/internal/post"
)

// DefaultCapacity is the per-owner queue limit.
const DefaultCapacity = 20

// Options configures a Store.
type Options struct {
	Capacity       int
	DefaultChannel string
	Location       *time.Location
	Metrics        *metrics.PrometheusMetrics
}

// Store is safe for concurrent use. Mutations for one owner are serialized
// by a per-owner lock held across the change and its persistence; task
// slices are replaced, never modified in place, so snapshots can share them.
type Store struct {
	persister Persister
	logger    *logger.Logger
	capacity  int
	loc       *time.Location
	metrics   *metrics.PrometheusMetrics

	mu       sync.RWMutex
	tasks    map[post.OwnerID][]post.Task
	channels map[post.OwnerID]string

	locksMu sync.Mutex
	locks   map[post.OwnerID]*sync.Mutex

	saveMu sync.Mutex

	registry *ChannelRegistry
}

// New creates an empty store. A nil persister keeps state in memory only.
func New(p Persister, opts Options, log *logger.Logger) *Store {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	s := &Store{
		persister: p,
		logger:    log.Component("store"),
		capacity:  opts.Capacity,
		loc:       opts.Location,
		metrics:   opts.Metrics,
		tasks:     make(map[post.OwnerID][]post.Task),
		channels:  make(map[post.OwnerID]string),
		locks:     make(map[post.OwnerID]*sync.Mutex),
	}
	s.registry = &ChannelRegistry{store: s, fallback: opts.DefaultChannel}
	return s
}

// Channels returns the channel registry sharing this store's persistence.
func (s *Store) Channels() *ChannelRegistry {
	return s.registry
}

// Capacity returns the per-owner queue limit.
func (s *Store) Capacity() int {
	return s.capacity
}

// LoadAll replaces the in-memory state with the persisted snapshot. On any
// failure the store is left empty and the error is returned for logging only.
func (s *Store) LoadAll(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	snap, err := s.persister.Load(ctx)
	if err != nil {
		s.replace(EmptySnapshot())
		return &post.PersistenceError{Op: "load", Err: err}
	}
	s.replace(snap)

	s.logger.Info("state restored",
		logger.Field{Key: "tasks", Value: snap.TaskCount()},
		logger.Field{Key: "channels", Value: len(snap.Channels)})
	return nil
}

// SaveAll writes the current state through the persister.
func (s *Store) SaveAll(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := s.persister.Save(context.WithoutCancel(ctx), s.Snapshot()); err != nil {
		return &post.PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// Snapshot returns a copy of the full state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Tasks:    make(map[post.OwnerID][]post.Task, len(s.tasks)),
		Channels: make(map[post.OwnerID]string, len(s.channels)),
	}
	for owner, tasks := range s.tasks {
		snap.Tasks[owner] = tasks
	}
	for owner, chat := range s.channels {
		snap.Channels[owner] = chat
	}
	return snap
}

func (s *Store) replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[post.OwnerID][]post.Task, len(snap.Tasks))
	for owner, tasks := range snap.Tasks {
		if len(tasks) == 0 {
			continue
		}
		list := make([]post.Task, len(tasks))
		for i, t := range tasks {
			t.Owner = owner
			t.TargetAt = t.TargetAt.In(s.loc)
			list[i] = t
		}
		s.tasks[owner] = list
	}
	s.channels = make(map[post.OwnerID]string, len(snap.Channels))
	for owner, chat := range snap.Channels {
		s.channels[owner] = chat
	}
}

// persist logs and swallows failures: the in-memory change stands.
func (s *Store) persist(ctx context.Context, op string, owner post.OwnerID) {
	if err := s.SaveAll(ctx); err != nil {
		s.metrics.RecordPersistError()
		s.logger.ErrorCtx(ctx, "failed to persist state", err,
			logger.Field{Key: "op", Value: op},
			logger.Field{Key: "owner", Value: int64(owner)})
	}
}

func (s *Store) lockOwner(owner post.OwnerID) func() {
	s.locksMu.Lock()
	l, ok := s.locks[owner]
	if !ok {
		l = &sync.Mutex{}
		s.locks[owner] = l
	}
	s.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}
