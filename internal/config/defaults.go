package config

import "github.com/aatumaykin/postbot/internal/constants"

// applyDefaults применяет значения по умолчанию
func applyDefaults(c *Config) {
	if c.Workspace.Path == "" {
		c.Workspace.Path = constants.DefaultDataDir
	}

	if c.Telegram.SendTimeoutSeconds == 0 {
		c.Telegram.SendTimeoutSeconds = 10
	}
	if c.Telegram.RateLimitPerSecond == 0 {
		c.Telegram.RateLimitPerSecond = constants.DefaultRateLimit
	}
	if c.Telegram.LongPollTimeout == 0 {
		c.Telegram.LongPollTimeout = constants.DefaultLongPollTimeout
	}
	if c.Telegram.NotifyAttempts == 0 {
		c.Telegram.NotifyAttempts = 3
	}

	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = constants.DefaultTimezone
	}
	if c.Scheduler.ZoneLabel == "" {
		c.Scheduler.ZoneLabel = constants.DefaultZoneLabel
	}
	if c.Scheduler.MaxWaitSeconds == 0 {
		c.Scheduler.MaxWaitSeconds = int(constants.DefaultMaxWait.Seconds())
	}
	if c.Scheduler.QueueCapacity == 0 {
		c.Scheduler.QueueCapacity = constants.DefaultQueueCapacity
	}
	if c.Scheduler.GraceSeconds == 0 {
		c.Scheduler.GraceSeconds = int(constants.DefaultGrace.Seconds())
	}
	if c.Scheduler.DefaultHour == 0 && c.Scheduler.DefaultMinute == 0 {
		c.Scheduler.DefaultHour = constants.DefaultHour
		c.Scheduler.DefaultMinute = constants.DefaultMinute
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverJSONFile
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.Metrics.Listen == "" {
		c.Metrics.Listen = "127.0.0.1:9464"
	}
}
