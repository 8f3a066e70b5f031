package telegram

import (
	"context"
	"errors"
	"time"

	"github.com/aatumaykin/postbot/internal/channels"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/retry"
	"github.com/mymmrac/telego"
	telegoapi "github.com/mymmrac/telego/telegoapi"
)

// sendText sends a plain text message to the owner, retrying on rate limits
// and server errors.
func (c *Connector) sendText(ctx context.Context, chatID int64, text string, markup *telego.InlineKeyboardMarkup) error {
	params := &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	err := retry.Do(ctx, retry.Config{MaxAttempts: c.cfg.NotifyAttempts}, classifyRetry, func() error {
		if err := c.wait(ctx); err != nil {
			return err
		}
		sendCtx, cancel := c.sendTimeout(ctx)
		defer cancel()
		_, err := c.bot.SendMessage(sendCtx, params)
		return err
	})
	if err != nil {
		fields := []logger.Field{{Key: "chat_id", Value: chatID}}
		if details, ok := errorDetails(err, ""); ok {
			fields = details.LogFields()
		}
		c.logger.ErrorCtx(ctx, "failed to send message", err, fields...)
	}
	return err
}

// classifyRetry retries Telegram 429 and 5xx answers, honouring retry_after,
// and falls back to message matching for transport errors.
func classifyRetry(err error) (bool, time.Duration) {
	if details, ok := errorDetails(err, ""); ok {
		return details.IsRetryable(), details.RetryAfter()
	}
	return retry.IsRetryable(err), 0
}

// errorDetails extracts the Telegram API error, if err carries one.
func errorDetails(err error, chatID string) (*channels.TelegramErrorDetails, bool) {
	var apiErr *telegoapi.Error
	if !errors.As(err, &apiErr) {
		return nil, false
	}
	details := &channels.TelegramErrorDetails{
		ErrorCode:   apiErr.ErrorCode,
		Description: apiErr.Description,
		ChatID:      chatID,
		Timestamp:   time.Now(),
	}
	if apiErr.Parameters != nil {
		details.RetryAfterSec = apiErr.Parameters.RetryAfter
	}
	return details, true
}
