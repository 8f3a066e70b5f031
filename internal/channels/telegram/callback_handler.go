package telegram

import (
	"context"

	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/conversation"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/post"
	"github.com/mymmrac/telego"
)

// handleCallback processes an inline button press. Outcomes that change the
// task are appended to the button's message and its keyboard is removed;
// anything else is shown as a short notice.
func (c *Connector) handleCallback(ctx context.Context, query *telego.CallbackQuery) error {
	if !c.isAllowedUser(query.From.ID) {
		c.logger.WarnCtx(ctx, "callback query blocked - user not in whitelist",
			logger.Field{Key: "user_id", Value: query.From.ID},
			logger.Field{Key: "username", Value: query.From.Username})
		return c.answerCallback(ctx, query.ID, constants.MsgAccessDenied, true)
	}

	action, taskID, ok := parseCallbackData(query.Data)
	if !ok {
		return c.answerCallback(ctx, query.ID, constants.MsgButtonUnknown, false)
	}

	reply := c.handler.Handle(ctx, conversation.Button{
		Owner:  post.OwnerID(query.From.ID),
		Action: action,
		TaskID: taskID,
	})

	c.logger.DebugCtx(ctx, "button handled",
		logger.Field{Key: "user_id", Value: query.From.ID},
		logger.Field{Key: "action", Value: action},
		logger.Field{Key: "task_id", Value: taskID},
		logger.Field{Key: "outcome", Value: string(reply.Outcome)})

	if !reply.Edit {
		return c.answerCallback(ctx, query.ID, reply.Text, reply.Err != nil)
	}

	if err := c.answerCallback(ctx, query.ID, "", false); err != nil {
		c.logger.WarnCtx(ctx, "failed to answer callback query",
			logger.Field{Key: "callback_query_id", Value: query.ID},
			logger.Field{Key: "error", Value: err.Error()})
	}
	return c.appendToMessage(ctx, query.Message, reply.Text)
}

// appendToMessage adds text to the message carrying the pressed button.
func (c *Connector) appendToMessage(ctx context.Context, target telego.MaybeInaccessibleMessage, text string) error {
	msg, ok := target.(*telego.Message)
	if !ok || msg == nil {
		c.logger.DebugCtx(ctx, "button message is inaccessible, edit skipped")
		return nil
	}

	if err := c.wait(ctx); err != nil {
		return err
	}
	sendCtx, cancel := c.sendTimeout(ctx)
	defer cancel()

	_, err := c.bot.EditMessageText(sendCtx, &telego.EditMessageTextParams{
		ChatID:    telego.ChatID{ID: msg.Chat.ID},
		MessageID: msg.MessageID,
		Text:      msg.Text + text,
	})
	return err
}

func (c *Connector) answerCallback(ctx context.Context, queryID, text string, alert bool) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	sendCtx, cancel := c.sendTimeout(ctx)
	defer cancel()

	return c.bot.AnswerCallbackQuery(sendCtx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       alert,
	})
}
