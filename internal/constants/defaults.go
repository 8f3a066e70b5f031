package constants

import "time"

// DefaultVersion is the default version of the application
const DefaultVersion = "0.1.0-dev"

// DefaultBuildTime is the default build time when not provided at build time
const DefaultBuildTime = "unknown"

// DefaultGitCommit is the default git commit hash when not provided at build time
const DefaultGitCommit = "unknown"

// DefaultGoVersion is the default Go version when not provided at build time
const DefaultGoVersion = "unknown"

// DefaultTimezone is the reference zone for every user-facing time.
const DefaultTimezone = "Europe/Moscow"

// DefaultZoneLabel is printed next to times in replies.
const DefaultZoneLabel = "МСК"

// DefaultQueueCapacity is the per-owner queue limit.
const DefaultQueueCapacity = 20

// DefaultMaxWait bounds one sleep of a scheduler wait unit.
const DefaultMaxWait = 60 * time.Second

// DefaultGrace is how far in the past a parsed instant may lie and still be accepted.
const DefaultGrace = time.Minute

// DefaultHour and DefaultMinute are used when an expression has no time of day.
const (
	DefaultHour   = 9
	DefaultMinute = 0
)

// DefaultRateLimit is the outbound Telegram request rate per second.
const DefaultRateLimit = 25

// DefaultLongPollTimeout is the getUpdates timeout in seconds.
const DefaultLongPollTimeout = 30

// DateTimeLayout formats instants in replies.
const DateTimeLayout = "02.01.2006 15:04"

// TimeDateLayout formats the publication time in notifications.
const TimeDateLayout = "15:04 02.01.2006"

// ListLayout formats instants in /list.
const ListLayout = "02.01 15:04"
