package conversation

import (
	"context"
	"errors"

	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/messages"
	"github.com/aatumaykin/postbot/internal/post"
)

func (m *Machine) handleButton(ctx context.Context, sess *session, e Button) Reply {
	task, ok := m.tasks.Get(e.Owner, e.TaskID)
	if !ok {
		return rejected(constants.MsgButtonProcessed, post.ErrTaskNotFound)
	}

	switch e.Action {
	case constants.ButtonPublish:
		return m.publishTask(ctx, e)
	case constants.ButtonCancel:
		if !m.tasks.Remove(ctx, e.Owner, e.TaskID) {
			return rejected(constants.MsgButtonProcessed, post.ErrTaskNotFound)
		}
		m.logger.InfoCtx(ctx, "task cancelled by button", logger.Field{Key: "task_id", Value: e.TaskID})
		return Reply{Outcome: OutcomeCancelled, Text: constants.MsgButtonCancelled, Edit: true}
	case constants.ButtonRetime:
		sess.state = StateAwaitingTime
		sess.held = &held{payload: task.Payload, preview: task.Preview, retime: task.ID}
		return Reply{Outcome: OutcomeRetimePrompt, Text: constants.MsgRetimePrompt, Edit: true}
	}

	return rejected(constants.MsgButtonUnknown, nil)
}

func (m *Machine) publishTask(ctx context.Context, e Button) Reply {
	delivered, err := m.publisher.PublishNow(ctx, e.Owner, e.TaskID)
	switch {
	case err == nil:
		return Reply{Outcome: OutcomePublished, Text: messages.FormatButtonPublished(delivered.Link), Edit: true}
	case errors.Is(err, post.ErrTaskBusy):
		return rejected(constants.MsgPublishBusy, err)
	case errors.Is(err, post.ErrTaskNotFound):
		return rejected(constants.MsgButtonProcessed, err)
	default:
		return rejected(messages.FormatPublishFailedNow(err), err)
	}
}
