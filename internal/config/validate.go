package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validate проверяет валидность конфигурации и возвращает все найденные ошибки
func (c *Config) Validate() []error {
	var errors []error

	if err := validatePath(c.Workspace.Path, "workspace.path"); err != nil {
		errors = append(errors, err)
	}

	// Telegram
	if c.Telegram.Token == "" {
		errors = append(errors, fmt.Errorf("telegram.token is required"))
	} else if err := validateTelegramToken(c.Telegram.Token); err != nil {
		errors = append(errors, err)
	}
	if c.Telegram.DefaultChannel != "" && !isChatRef(c.Telegram.DefaultChannel) {
		errors = append(errors, fmt.Errorf("invalid telegram.default_channel: %s (expected numeric chat ID or @username)", c.Telegram.DefaultChannel))
	}
	for _, user := range c.Telegram.AllowedUsers {
		if _, err := strconv.ParseInt(user, 10, 64); err != nil {
			errors = append(errors, fmt.Errorf("invalid telegram.allowed_users entry: %q (expected numeric user ID)", user))
		}
	}
	if c.Telegram.RateLimitPerSecond < 0 {
		errors = append(errors, fmt.Errorf("telegram.rate_limit_per_second must be positive"))
	}
	if c.Telegram.LongPollTimeout < 0 {
		errors = append(errors, fmt.Errorf("telegram.long_poll_timeout must be >= 0"))
	}

	// Scheduler
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("invalid scheduler.timezone: %s", c.Scheduler.Timezone))
	}
	if c.Scheduler.QueueCapacity < 1 {
		errors = append(errors, fmt.Errorf("scheduler.queue_capacity must be >= 1"))
	}
	if c.Scheduler.MaxWaitSeconds < 1 {
		errors = append(errors, fmt.Errorf("scheduler.max_wait_seconds must be >= 1"))
	}
	if c.Scheduler.GraceSeconds < 0 {
		errors = append(errors, fmt.Errorf("scheduler.grace_seconds must be >= 0"))
	}
	if c.Scheduler.DefaultHour < 0 || c.Scheduler.DefaultHour > 23 {
		errors = append(errors, fmt.Errorf("scheduler.default_hour must be between 0 and 23 (got %d)", c.Scheduler.DefaultHour))
	}
	if c.Scheduler.DefaultMinute < 0 || c.Scheduler.DefaultMinute > 59 {
		errors = append(errors, fmt.Errorf("scheduler.default_minute must be between 0 and 59 (got %d)", c.Scheduler.DefaultMinute))
	}

	// Storage
	switch c.Storage.Driver {
	case DriverJSONFile, DriverSQLite:
	default:
		errors = append(errors, fmt.Errorf("invalid storage.driver: %s (expected: %s, %s)", c.Storage.Driver, DriverJSONFile, DriverSQLite))
	}
	if c.Storage.Path != "" {
		if err := validatePath(c.Storage.Path, "storage.path"); err != nil {
			errors = append(errors, err)
		}
	}

	// Logging
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
	}
	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errors = append(errors, fmt.Errorf("metrics.listen is required when metrics are enabled"))
	}

	if c.Workers.PoolSize < 0 || c.Workers.QueueSize < 0 {
		errors = append(errors, fmt.Errorf("workers.pool_size and workers.queue_size must be >= 0"))
	}

	return errors
}

func validateTelegramToken(token string) error {
	botID, secret, ok := strings.Cut(token, ":")
	if !ok || strings.Contains(secret, ":") {
		return formatValidationError("telegram.token", "invalid format (expected <bot_id>:<token>)", token)
	}

	if len(botID) < 3 || len(botID) > 15 {
		return formatValidationError("telegram.token", fmt.Sprintf("invalid bot ID length (expected 3-15 digits, got %d)", len(botID)), token)
	}
	for _, r := range botID {
		if r < '0' || r > '9' {
			return formatValidationError("telegram.token", "bot ID must contain digits only", token)
		}
	}

	if len(secret) < 10 || len(secret) > 50 {
		return formatValidationError("telegram.token", fmt.Sprintf("invalid token length (expected 10-50 characters, got %d)", len(secret)), token)
	}

	return nil
}

func validatePath(path, fieldName string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if strings.HasPrefix(path, "~") {
		return nil
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}
	return nil
}

func isChatRef(s string) bool {
	if strings.HasPrefix(s, "@") {
		return len(s) > 1
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
