package telegram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/messages"
	"github.com/aatumaykin/postbot/internal/post"
	"github.com/mymmrac/telego"
)

var errNoChannel = errors.New("no channel configured")

// Deliver copies the referenced message into the channel. The copy carries
// no "forwarded from" header.
func (c *Connector) Deliver(ctx context.Context, payload post.PayloadRef, chat string) (post.Delivered, error) {
	target, err := parseChat(chat)
	if err != nil {
		return post.Delivered{}, &post.DeliveryError{Reason: post.ReasonUnreachable, ChatID: chat, Err: err}
	}
	if c.bot == nil {
		return post.Delivered{}, &post.DeliveryError{Reason: post.ReasonUnreachable, ChatID: chat, Err: errors.New("telegram bot is not connected")}
	}

	if err := c.wait(ctx); err != nil {
		return post.Delivered{}, &post.DeliveryError{Reason: post.ReasonUnknown, ChatID: chat, Err: err}
	}

	// The copy runs under the caller context only, without a send timeout.
	copied, err := c.bot.CopyMessage(ctx, &telego.CopyMessageParams{
		ChatID:     target,
		FromChatID: telego.ChatID{ID: payload.ChatID},
		MessageID:  payload.MessageID,
	})
	if err != nil {
		derr := c.deliveryError(chat, err)
		c.logger.WarnCtx(ctx, "copy message failed", derr.LogFields()...)
		return post.Delivered{}, derr
	}

	return post.Delivered{
		ChatID:    chat,
		MessageID: copied.MessageID,
		Link:      MessageLink(chat, copied.MessageID),
	}, nil
}

// NotifyDelivered tells the owner where and when the post went out.
func (c *Connector) NotifyDelivered(ctx context.Context, task post.Task, delivered post.Delivered) {
	text := messages.FormatPublished(delivered.Link, c.now().In(c.loc), c.zoneLabel)
	if err := c.sendText(ctx, int64(task.Owner), text, nil); err != nil {
		c.logger.WarnCtx(ctx, "delivery notification lost",
			logger.Field{Key: "task_id", Value: task.ID})
	}
}

// NotifyFailed tells the owner that a scheduled post could not be published.
func (c *Connector) NotifyFailed(ctx context.Context, task post.Task, err error) {
	text := messages.FormatPublishFailed(task.Preview, err)
	if sendErr := c.sendText(ctx, int64(task.Owner), text, nil); sendErr != nil {
		c.logger.WarnCtx(ctx, "failure notification lost",
			logger.Field{Key: "task_id", Value: task.ID})
	}
}

func (c *Connector) deliveryError(chat string, err error) *post.DeliveryError {
	if details, ok := errorDetails(err, chat); ok {
		return &post.DeliveryError{Reason: details.Reason(), ChatID: chat, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &post.DeliveryError{Reason: post.ReasonUnreachable, ChatID: chat, Err: err}
	}
	return &post.DeliveryError{Reason: post.ReasonUnknown, ChatID: chat, Err: err}
}

// parseChat accepts a numeric chat ID or @username.
func parseChat(chat string) (telego.ChatID, error) {
	chat = strings.TrimSpace(chat)
	if chat == "" {
		return telego.ChatID{}, errNoChannel
	}
	if strings.HasPrefix(chat, "@") {
		return telego.ChatID{Username: chat}, nil
	}
	id, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		return telego.ChatID{}, fmt.Errorf("invalid chat %q: %w", chat, err)
	}
	return telego.ChatID{ID: id}, nil
}

// MessageLink builds a t.me link to a channel message. Private channels use
// the /c/ form with the -100 prefix stripped.
func MessageLink(chat string, messageID int) string {
	if name, ok := strings.CutPrefix(chat, "@"); ok {
		return fmt.Sprintf("https://t.me/%s/%d", name, messageID)
	}
	id := strings.TrimPrefix(strings.TrimPrefix(chat, "-100"), "-")
	return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
}
