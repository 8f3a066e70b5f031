// Package channels holds transport-neutral helpers shared by messenger
// connectors.
package channels

import (
	"fmt"
	"strings"
	"time"

	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/post"
)

// ErrorDetails - универсальный интерфейс для детализации ошибок каналов
type ErrorDetails interface {
	// Error возвращает текстовое описание ошибки
	Error() string

	// IsRetryable указывает, можно ли повторить отправку
	IsRetryable() bool

	// RetryAfter возвращает задержку перед повторной отправкой
	RetryAfter() time.Duration

	// Reason классифицирует ошибку публикации
	Reason() post.DeliveryReason

	// LogFields возвращает поля для структурированного логирования
	LogFields() []logger.Field
}

// TelegramErrorDetails - детализация ошибки Telegram API
type TelegramErrorDetails struct {
	ErrorCode     int       // Код ошибки (400, 429, 403 и т.д.)
	Description   string    // Описание ошибки от Telegram
	RetryAfterSec int       // Задержка в секундах (для rate limiting)
	ChatID        string    // Чат, в который шла отправка
	Timestamp     time.Time // Время ошибки
}

// Error возвращает текстовое описание ошибки
func (d *TelegramErrorDetails) Error() string {
	return fmt.Sprintf("telegram api %d: %s", d.ErrorCode, d.Description)
}

// IsRetryable проверяет, можно ли повторить отправку
func (d *TelegramErrorDetails) IsRetryable() bool {
	// Rate limiting (429) и временные ошибки можно повторить
	return d.ErrorCode == 429 || (d.ErrorCode >= 500 && d.ErrorCode < 600)
}

// RetryAfter возвращает задержку перед повторной отправкой
func (d *TelegramErrorDetails) RetryAfter() time.Duration {
	if d.RetryAfterSec > 0 {
		return time.Duration(d.RetryAfterSec) * time.Second
	}
	if d.ErrorCode >= 500 && d.ErrorCode < 600 {
		return 5 * time.Second
	}
	return 0
}

// Reason maps the API response to a delivery failure class.
func (d *TelegramErrorDetails) Reason() post.DeliveryReason {
	desc := strings.ToLower(d.Description)
	switch {
	case d.ErrorCode == 403:
		return post.ReasonForbidden
	case strings.Contains(desc, "message to copy not found"),
		strings.Contains(desc, "message not found"):
		return post.ReasonPayloadGone
	case strings.Contains(desc, "chat not found"),
		strings.Contains(desc, "chat_id is empty"),
		strings.Contains(desc, "peer_id_invalid"):
		return post.ReasonUnreachable
	case strings.Contains(desc, "not enough rights"),
		strings.Contains(desc, "need administrator rights"):
		return post.ReasonForbidden
	case d.IsRetryable():
		return post.ReasonUnreachable
	}
	return post.ReasonUnknown
}

// LogFields возвращает поля для структурированного логирования
func (d *TelegramErrorDetails) LogFields() []logger.Field {
	return []logger.Field{
		{Key: "error_code", Value: d.ErrorCode},
		{Key: "error_description", Value: d.Description},
		{Key: "retry_after", Value: d.RetryAfterSec},
		{Key: "chat_id", Value: d.ChatID},
	}
}
