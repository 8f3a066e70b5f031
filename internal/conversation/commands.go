package conversation

import (
	"context"
	"strconv"
	"strings"

	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/messages"
	"github.com/aatumaykin/postbot/internal/post"
)

func (m *Machine) handleCommand(ctx context.Context, sess *session, e Command) Reply {
	m.logger.DebugCtx(ctx, "command received",
		logger.Field{Key: "owner", Value: int64(e.Owner)},
		logger.Field{Key: "command", Value: e.Name},
		logger.Field{Key: "state", Value: sess.state.String()})

	switch e.Name {
	case constants.CommandStart, constants.CommandHelp:
		return Reply{Outcome: OutcomeHelp, Text: messages.FormatHelp(m.clock(), m.zoneLabel)}
	case constants.CommandList:
		return Reply{Outcome: OutcomeListed, Text: messages.FormatQueue(m.tasks.List(e.Owner))}
	case constants.CommandStatus:
		text := messages.FormatStatus(m.channels.Get(e.Owner), m.tasks.Count(e.Owner), m.tasks.Capacity())
		return Reply{Outcome: OutcomeStatus, Text: text}
	case constants.CommandSetChannel:
		sess.state = StateAwaitingChannel
		sess.held = nil
		return Reply{Outcome: OutcomeChannelPrompt, Text: constants.MsgSetChannelPrompt}
	case constants.CommandCancel:
		return m.cancel(ctx, sess, e)
	case constants.CommandNow:
		return m.publishHeld(ctx, sess, e)
	}

	return Reply{Outcome: OutcomeHelp, Text: messages.FormatHelp(m.clock(), m.zoneLabel)}
}

// cancel removes the n-th task of /list. Without an argument it aborts the
// current flow instead, if there is one.
func (m *Machine) cancel(ctx context.Context, sess *session, e Command) Reply {
	args := strings.TrimSpace(e.Args)
	if args == "" {
		if sess.state != StateIdle {
			sess.reset()
			return Reply{Outcome: OutcomeAborted, Text: constants.MsgFlowAborted}
		}
		return rejected(constants.MsgCancelUsage, post.ErrTaskNotFound)
	}

	n, err := strconv.Atoi(strings.Fields(args)[0])
	if err != nil || n < 1 {
		return rejected(constants.MsgCancelBadIndex, post.ErrTaskNotFound)
	}

	task, err := m.tasks.RemoveAt(ctx, e.Owner, n-1)
	if err != nil {
		return rejected(constants.MsgCancelBadIndex, err)
	}

	m.logger.InfoCtx(ctx, "task cancelled",
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "owner", Value: int64(e.Owner)},
		logger.Field{Key: "index", Value: n})
	return Reply{Outcome: OutcomeCancelled, Text: messages.FormatCancelled(n)}
}

// publishHeld delivers the post waiting for its time right away.
func (m *Machine) publishHeld(ctx context.Context, sess *session, e Command) Reply {
	if sess.state != StateAwaitingTime || sess.held == nil {
		return rejected(constants.MsgNothingPending, post.ErrNothingPending)
	}

	h := sess.held
	delivered, err := m.publisher.PublishPayload(ctx, e.Owner, h.payload)
	if err != nil {
		// The post stays held so the owner can still give a time.
		return rejected(messages.FormatPublishFailedNow(err), err)
	}

	if h.retime != "" {
		m.tasks.Remove(ctx, e.Owner, h.retime)
	}
	sess.reset()

	m.logger.InfoCtx(ctx, "held post published",
		logger.Field{Key: "owner", Value: int64(e.Owner)},
		logger.Field{Key: "link", Value: delivered.Link})
	return Reply{Outcome: OutcomePublished, Text: messages.FormatPublishedNow(delivered.Link)}
}
