package config

import (
	"strings"
)

// maskSecret маскирует секрет, оставляя только первые 4 и последние 4 символа
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) < 8 {
		return "***"
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}

// maskTelegramToken оставляет bot_id видимым для диагностики
func maskTelegramToken(token string) string {
	if token == "" {
		return ""
	}
	botID, secret, ok := strings.Cut(token, ":")
	if !ok {
		return maskSecret(token)
	}
	return botID + ":" + maskSecret(secret)
}

// Masked returns a copy safe to print or log.
func (c *Config) Masked() Config {
	out := *c
	out.Telegram.Token = maskTelegramToken(c.Telegram.Token)
	out.Telegram.AllowedUsers = append([]string(nil), c.Telegram.AllowedUsers...)
	return out
}

// formatValidationError форматирует ошибку валидации с маскированным секретом
func formatValidationError(field, message string, secret string) error {
	errorMsg := field + ": " + message
	if masked := maskTelegramToken(secret); masked != "" {
		errorMsg += " (value: " + masked + ")"
	}
	return &ValidationError{Field: field, Message: errorMsg}
}

// ValidationError представляет ошибку валидации с дополнительной информацией
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
