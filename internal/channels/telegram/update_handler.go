package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/conversation"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/post"
	"github.com/mymmrac/telego"
)

// handleMessage maps a private message to a conversation event and sends
// the reply back to the same chat.
func (c *Connector) handleMessage(ctx context.Context, msg *telego.Message) error {
	if msg.From == nil || msg.Chat.Type != telego.ChatTypePrivate {
		c.logger.DebugCtx(ctx, "non-private message ignored",
			logger.Field{Key: "chat_id", Value: msg.Chat.ID},
			logger.Field{Key: "chat_type", Value: msg.Chat.Type})
		return nil
	}

	if !c.isAllowedUser(msg.From.ID) {
		c.logger.WarnCtx(ctx, "message blocked - user not in whitelist",
			logger.Field{Key: "user_id", Value: msg.From.ID},
			logger.Field{Key: "username", Value: msg.From.Username})
		return c.sendText(ctx, msg.Chat.ID, constants.MsgAccessDenied, nil)
	}

	reply := c.handler.Handle(ctx, messageEvent(msg))

	if reply.Err != nil {
		c.logger.DebugCtx(ctx, "event rejected",
			logger.Field{Key: "user_id", Value: msg.From.ID},
			logger.Field{Key: "outcome", Value: string(reply.Outcome)},
			logger.Field{Key: "reason", Value: reply.Err.Error()})
	}

	var markup *telego.InlineKeyboardMarkup
	if reply.Task != nil {
		markup = taskKeyboard(reply.Task.ID)
	}
	if err := c.sendText(ctx, msg.Chat.ID, reply.Text, markup); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// messageEvent converts a Telegram message into a Command or Content event.
func messageEvent(msg *telego.Message) conversation.Event {
	owner := post.OwnerID(msg.From.ID)

	if name, args, ok := parseCommand(msg.Text); ok {
		return conversation.Command{Owner: owner, Name: name, Args: args}
	}

	return conversation.Content{
		Owner:   owner,
		Payload: post.PayloadRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID},
		Text:    msg.Text,
		Caption: msg.Caption,
		Forward: forwardOrigin(msg.ForwardOrigin),
	}
}

// parseCommand splits "/cmd@bot args" into a lower-case name and the rest.
func parseCommand(text string) (name, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}

// forwardOrigin extracts the source chat of a forwarded message. Only
// channel posts and anonymous group admins carry a chat.
func forwardOrigin(origin telego.MessageOrigin) *conversation.ForwardOrigin {
	switch o := origin.(type) {
	case *telego.MessageOriginChannel:
		return &conversation.ForwardOrigin{ChatID: o.Chat.ID, ChatType: o.Chat.Type, Title: o.Chat.Title}
	case *telego.MessageOriginChat:
		return &conversation.ForwardOrigin{ChatID: o.SenderChat.ID, ChatType: o.SenderChat.Type, Title: o.SenderChat.Title}
	case nil:
		return nil
	}
	// Forwards from users: a designation attempt that must be refused.
	return &conversation.ForwardOrigin{ChatType: telego.ChatTypePrivate}
}
