// Package config provides configuration loading and validation for postbot.
// TOML is the primary format; files ending in .yaml or .yml are read as YAML
// with the same keys.
//
// Configuration structure:
//   - [workspace]: data directory (snapshot, pid file)
//   - [telegram]: bot token, default channel, whitelist, rate limits
//   - [scheduler]: reference time zone, queue capacity, parser defaults
//   - [storage]: persistence backend (jsonfile or sqlite) and its path
//   - [logging]: level, format and output
//   - [metrics]: Prometheus endpoint
//   - [workers]: update handling pool
//
// Environment variables can be referenced using ${VAR} or ${VAR:default},
// for example: token = "${POSTBOT_TELEGRAM_TOKEN}"
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/aatumaykin/postbot/internal/constants"
)

// Config represents the main application configuration.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace" yaml:"workspace"`
	Telegram  TelegramConfig  `toml:"telegram" yaml:"telegram"`
	Scheduler SchedulerConfig `toml:"scheduler" yaml:"scheduler"`
	Storage   StorageConfig   `toml:"storage" yaml:"storage"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `toml:"metrics" yaml:"metrics"`
	Workers   WorkersConfig   `toml:"workers" yaml:"workers"`
}

// WorkspaceConfig представляет конфигурацию workspace
type WorkspaceConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// TelegramConfig представляет конфигурацию Telegram бота
type TelegramConfig struct {
	Token string `toml:"token" yaml:"token"`
	// DefaultChannel is used for owners who never ran /setchannel.
	// Either a numeric chat ID or @username.
	DefaultChannel     string   `toml:"default_channel" yaml:"default_channel"`
	AllowedUsers       []string `toml:"allowed_users" yaml:"allowed_users"`
	SendTimeoutSeconds int      `toml:"send_timeout_seconds" yaml:"send_timeout_seconds"`
	RateLimitPerSecond float64  `toml:"rate_limit_per_second" yaml:"rate_limit_per_second"`
	LongPollTimeout    int      `toml:"long_poll_timeout" yaml:"long_poll_timeout"`
	NotifyAttempts     int      `toml:"notify_attempts" yaml:"notify_attempts"`
}

// SendTimeout returns the timeout for replies to the owner.
func (c TelegramConfig) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutSeconds) * time.Second
}

// SchedulerConfig представляет конфигурацию планировщика
type SchedulerConfig struct {
	Timezone       string `toml:"timezone" yaml:"timezone"`
	ZoneLabel      string `toml:"zone_label" yaml:"zone_label"`
	MaxWaitSeconds int    `toml:"max_wait_seconds" yaml:"max_wait_seconds"`
	QueueCapacity  int    `toml:"queue_capacity" yaml:"queue_capacity"`
	GraceSeconds   int    `toml:"grace_seconds" yaml:"grace_seconds"`
	DefaultHour    int    `toml:"default_hour" yaml:"default_hour"`
	DefaultMinute  int    `toml:"default_minute" yaml:"default_minute"`
}

// Location loads the reference time zone.
func (c SchedulerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// MaxWait returns the upper bound of one scheduler sleep.
func (c SchedulerConfig) MaxWait() time.Duration {
	return time.Duration(c.MaxWaitSeconds) * time.Second
}

// Grace returns how far in the past a parsed instant may lie.
func (c SchedulerConfig) Grace() time.Duration {
	return time.Duration(c.GraceSeconds) * time.Second
}

// Storage drivers.
const (
	DriverJSONFile = "jsonfile"
	DriverSQLite   = "sqlite"
)

// StorageConfig представляет конфигурацию хранилища очереди
type StorageConfig struct {
	Driver string `toml:"driver" yaml:"driver"`
	// Path defaults to a file inside the workspace named after the driver.
	Path string `toml:"path" yaml:"path"`
}

// LoggingConfig представляет конфигурацию логирования
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	Output string `toml:"output" yaml:"output"`
}

// MetricsConfig представляет конфигурацию Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Listen  string `toml:"listen" yaml:"listen"`
}

// WorkersConfig представляет конфигурацию worker pool
type WorkersConfig struct {
	PoolSize  int `toml:"pool_size" yaml:"pool_size"`
	QueueSize int `toml:"queue_size" yaml:"queue_size"`
}

// StoragePath returns the resolved snapshot location.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	if c.Storage.Driver == DriverSQLite {
		return filepath.Join(c.Workspace.Path, constants.SQLiteFileName)
	}
	return filepath.Join(c.Workspace.Path, constants.StateFileName)
}
