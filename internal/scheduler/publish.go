package scheduler

import (
	"context"

	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/post"
)

// PublishNow delivers a pending task immediately. A one-off task is removed
// afterwards; a recurring task keeps its schedule. The owner gets the result
// as the return value, not through the Notifier.
func (s *Scheduler) PublishNow(ctx context.Context, owner post.OwnerID, id string) (post.Delivered, error) {
	if !s.begin(id) {
		return post.Delivered{}, post.ErrTaskBusy
	}
	defer s.end(id)

	task, ok := s.tasks.Get(owner, id)
	if !ok {
		return post.Delivered{}, post.ErrTaskNotFound
	}

	delivered, err := s.deliver(ctx, task)
	if err != nil {
		return post.Delivered{}, err
	}

	if !task.IsRecurring() {
		s.tasks.Remove(ctx, owner, id)
	}

	s.logger.InfoCtx(ctx, "task published on demand",
		logger.Field{Key: "task_id", Value: id},
		logger.Field{Key: "recurring", Value: task.IsRecurring()})
	return delivered, nil
}

// PublishPayload delivers a held message that never became a task.
func (s *Scheduler) PublishPayload(ctx context.Context, owner post.OwnerID, payload post.PayloadRef) (post.Delivered, error) {
	chatID := s.channels.Get(owner)
	delivered, err := s.deliverer.Deliver(context.WithoutCancel(ctx), payload, chatID)
	if err != nil {
		s.logger.ErrorCtx(ctx, "immediate publication failed", err,
			logger.Field{Key: "owner", Value: int64(owner)},
			logger.Field{Key: "chat_id", Value: chatID})
		return post.Delivered{}, err
	}
	return delivered, nil
}
