package store

import (
	"context"
	"sort"
	"time"

	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/post"
)

// Append adds a task to the end of its owner's queue and returns its
// 1-based position.
func (s *Store) Append(ctx context.Context, task post.Task) (int, error) {
	unlock := s.lockOwner(task.Owner)
	defer unlock()

	s.mu.Lock()
	current := s.tasks[task.Owner]
	if len(current) >= s.capacity {
		s.mu.Unlock()
		return 0, &post.CapacityError{Limit: s.capacity}
	}
	next := make([]post.Task, len(current), len(current)+1)
	copy(next, current)
	next = append(next, task)
	s.tasks[task.Owner] = next
	s.mu.Unlock()

	s.persist(ctx, "append", task.Owner)

	s.logger.DebugCtx(ctx, "task appended",
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "owner", Value: int64(task.Owner)},
		logger.Field{Key: "target_at", Value: task.TargetAt})
	return len(next), nil
}

// Replace removes the task oldID, if still queued, and appends task in one
// step with a single save. Capacity is checked after the removal. It
// returns the new task's 1-based position.
func (s *Store) Replace(ctx context.Context, oldID string, task post.Task) (int, error) {
	unlock := s.lockOwner(task.Owner)
	defer unlock()

	s.mu.Lock()
	current := s.tasks[task.Owner]
	if i := indexOf(current, oldID); i >= 0 {
		current = without(current, i)
	}
	if len(current) >= s.capacity {
		s.mu.Unlock()
		return 0, &post.CapacityError{Limit: s.capacity}
	}
	next := make([]post.Task, len(current), len(current)+1)
	copy(next, current)
	next = append(next, task)
	s.tasks[task.Owner] = next
	s.mu.Unlock()

	s.persist(ctx, "replace", task.Owner)

	s.logger.DebugCtx(ctx, "task replaced",
		logger.Field{Key: "old_task_id", Value: oldID},
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "owner", Value: int64(task.Owner)},
		logger.Field{Key: "target_at", Value: task.TargetAt})
	return len(next), nil
}

// Remove deletes the task with the given ID. It reports whether the task
// was present.
func (s *Store) Remove(ctx context.Context, owner post.OwnerID, id string) bool {
	unlock := s.lockOwner(owner)
	defer unlock()

	if !s.update(owner, func(list []post.Task) ([]post.Task, bool) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, false
		}
		return without(list, i), true
	}) {
		return false
	}

	s.persist(ctx, "remove", owner)
	return true
}

// RemoveAt deletes the task at a 0-based position in the owner's queue.
func (s *Store) RemoveAt(ctx context.Context, owner post.OwnerID, index int) (post.Task, error) {
	unlock := s.lockOwner(owner)
	defer unlock()

	var removed post.Task
	if !s.update(owner, func(list []post.Task) ([]post.Task, bool) {
		if index < 0 || index >= len(list) {
			return nil, false
		}
		removed = list[index]
		return without(list, index), true
	}) {
		return post.Task{}, post.ErrTaskNotFound
	}

	s.persist(ctx, "remove", owner)
	return removed, nil
}

// Advance moves a recurring task to its next instant. The change applies
// only while the task still targets from, so concurrent deliveries of the
// same occurrence advance it once.
func (s *Store) Advance(ctx context.Context, owner post.OwnerID, id string, from, next time.Time) bool {
	unlock := s.lockOwner(owner)
	defer unlock()

	if !s.update(owner, func(list []post.Task) ([]post.Task, bool) {
		i := indexOf(list, id)
		if i < 0 || !list[i].TargetAt.Equal(from) {
			return nil, false
		}
		out := make([]post.Task, len(list))
		copy(out, list)
		out[i].TargetAt = next
		return out, true
	}) {
		return false
	}

	s.persist(ctx, "advance", owner)
	return true
}

// List returns a copy of the owner's queue in insertion order.
func (s *Store) List(owner post.OwnerID) []post.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.tasks[owner]
	out := make([]post.Task, len(list))
	copy(out, list)
	return out
}

// Get looks up a task by ID.
func (s *Store) Get(owner post.OwnerID, id string) (post.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.tasks[owner]
	if i := indexOf(list, id); i >= 0 {
		return list[i], true
	}
	return post.Task{}, false
}

// Contains reports whether the owner still has the task.
func (s *Store) Contains(owner post.OwnerID, id string) bool {
	_, ok := s.Get(owner, id)
	return ok
}

// Count returns the length of the owner's queue.
func (s *Store) Count(owner post.OwnerID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks[owner])
}

// All returns every task, grouped by owner in ascending owner order.
func (s *Store) All() []post.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make([]post.OwnerID, 0, len(s.tasks))
	for owner := range s.tasks {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })

	var out []post.Task
	for _, owner := range owners {
		out = append(out, s.tasks[owner]...)
	}
	return out
}

// update applies fn to the owner's queue under the write lock. fn returns
// the replacement slice and whether anything changed.
func (s *Store) update(owner post.OwnerID, fn func([]post.Task) ([]post.Task, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := fn(s.tasks[owner])
	if !changed {
		return false
	}
	if len(next) == 0 {
		delete(s.tasks, owner)
	} else {
		s.tasks[owner] = next
	}
	return true
}

func indexOf(list []post.Task, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func without(list []post.Task, i int) []post.Task {
	out := make([]post.Task, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}
