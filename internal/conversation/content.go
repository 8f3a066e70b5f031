package conversation

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/messages"
	"github.com/aatumaykin/postbot/internal/post"
)

func (m *Machine) handleContent(ctx context.Context, sess *session, e Content) Reply {
	switch sess.state {
	case StateAwaitingChannel:
		return m.designateChannel(ctx, sess, e)
	case StateAwaitingTime:
		return m.acceptTime(ctx, sess, e)
	default:
		return m.holdPost(ctx, sess, e)
	}
}

func (m *Machine) holdPost(ctx context.Context, sess *session, e Content) Reply {
	if m.tasks.Count(e.Owner) >= m.tasks.Capacity() {
		return rejected(messages.FormatQueueFull(m.tasks.Capacity()), &post.CapacityError{Limit: m.tasks.Capacity()})
	}

	preview := post.MakePreview(e.Text, e.Caption)
	sess.state = StateAwaitingTime
	sess.held = &held{payload: e.Payload, preview: preview}

	m.logger.DebugCtx(ctx, "post held",
		logger.Field{Key: "owner", Value: int64(e.Owner)},
		logger.Field{Key: "message_id", Value: e.Payload.MessageID})
	return Reply{Outcome: OutcomeHeld, Text: messages.FormatAccepted(preview)}
}

func (m *Machine) acceptTime(ctx context.Context, sess *session, e Content) Reply {
	now := m.clock()
	text := strings.TrimSpace(e.Text)

	res, err := m.parser.Parse(text, now)
	if err != nil {
		m.metrics.RecordParse(parseOutcome(err))
		return rejected(messages.FormatParseError(text, err), err)
	}
	m.metrics.RecordParse(string(res.Rule))

	h := sess.held
	task := post.NewTask(e.Owner, h.payload, h.preview, res.At, res.Recurrence, now)
	var position int
	if h.retime != "" {
		position, err = m.tasks.Replace(ctx, h.retime, task)
	} else {
		position, err = m.tasks.Append(ctx, task)
	}
	if err != nil {
		sess.reset()
		var capErr *post.CapacityError
		if errors.As(err, &capErr) {
			return rejected(messages.FormatQueueFull(capErr.Limit), err)
		}
		m.logger.ErrorCtx(ctx, "failed to store task", err, logger.Field{Key: "owner", Value: int64(e.Owner)})
		return rejected(constants.MsgInternalError, err)
	}
	sess.reset()

	if err := m.publisher.Schedule(task); err != nil {
		// The task is stored and will be armed on the next restore.
		m.logger.ErrorCtx(ctx, "failed to arm task", err, logger.Field{Key: "task_id", Value: task.ID})
	}

	m.logger.InfoCtx(ctx, "post scheduled",
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "owner", Value: int64(e.Owner)},
		logger.Field{Key: "target_at", Value: task.TargetAt},
		logger.Field{Key: "rule", Value: string(res.Rule)},
		logger.Field{Key: "retime", Value: h.retime != ""})

	return Reply{
		Outcome: OutcomeScheduled,
		Text:    messages.FormatScheduled(task, now, position, m.zoneLabel),
		Task:    &task,
	}
}

func (m *Machine) designateChannel(ctx context.Context, sess *session, e Content) Reply {
	if e.Forward == nil || !isChannelType(e.Forward.ChatType) {
		return rejected(constants.MsgChannelRejected, post.ErrChannelDesignation)
	}

	chat := strconv.FormatInt(e.Forward.ChatID, 10)
	m.channels.Set(ctx, e.Owner, chat)
	sess.reset()

	return Reply{Outcome: OutcomeChannelSet, Text: messages.FormatChannelChanged(chat)}
}

func isChannelType(t string) bool {
	return t == "channel" || t == "supergroup"
}

func parseOutcome(err error) string {
	switch {
	case errors.Is(err, post.ErrPastInstant):
		return "past"
	case errors.Is(err, post.ErrMissingTime):
		return "missing_time"
	case errors.Is(err, post.ErrMissingQuantity):
		return "missing_quantity"
	default:
		return "unrecognized"
	}
}
