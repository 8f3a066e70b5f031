package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validToken = "123456789:ABCdefGHIjklMNOpqrSTUvwxYZ"

func validConfig() *Config {
	cfg := &Config{
		Workspace: WorkspaceConfig{Path: "/var/lib/postbot"},
		Telegram:  TelegramConfig{Token: validToken},
	}
	applyDefaults(cfg)
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "~/.postbot", cfg.Workspace.Path)
	assert.Equal(t, "Europe/Moscow", cfg.Scheduler.Timezone)
	assert.Equal(t, "МСК", cfg.Scheduler.ZoneLabel)
	assert.Equal(t, 20, cfg.Scheduler.QueueCapacity)
	assert.Equal(t, 60, cfg.Scheduler.MaxWaitSeconds)
	assert.Equal(t, 60, cfg.Scheduler.GraceSeconds)
	assert.Equal(t, 9, cfg.Scheduler.DefaultHour)
	assert.Equal(t, DriverJSONFile, cfg.Storage.Driver)
	assert.Equal(t, float64(25), cfg.Telegram.RateLimitPerSecond)
	assert.Equal(t, 30, cfg.Telegram.LongPollTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, time.Minute, cfg.Scheduler.MaxWait())
	assert.Equal(t, time.Minute, cfg.Scheduler.Grace())
}

func TestParse_TOML(t *testing.T) {
	t.Setenv("POSTBOT_TEST_TOKEN", validToken)
	data := `
[workspace]
path = "/srv/postbot"

[telegram]
token = "${POSTBOT_TEST_TOKEN}"
default_channel = "${POSTBOT_TEST_CHANNEL:-1001234567890}"
allowed_users = ["42", "43"]

[scheduler]
timezone = "Europe/Berlin"
zone_label = "CET"
queue_capacity = 5

[storage]
driver = "sqlite"
`
	cfg, err := Parse([]byte(data), ".toml")
	require.NoError(t, err)

	assert.Equal(t, validToken, cfg.Telegram.Token)
	assert.Equal(t, "-1001234567890", cfg.Telegram.DefaultChannel)
	assert.Equal(t, []string{"42", "43"}, cfg.Telegram.AllowedUsers)
	assert.Equal(t, "CET", cfg.Scheduler.ZoneLabel)
	assert.Equal(t, 5, cfg.Scheduler.QueueCapacity)
	assert.Equal(t, filepath.Join("/srv/postbot", "postbot.db"), cfg.StoragePath())
	assert.Empty(t, cfg.Validate())

	loc, err := cfg.Scheduler.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestParse_YAML(t *testing.T) {
	data := `
workspace:
  path: /srv/postbot
telegram:
  token: "` + validToken + `"
  default_channel: "@news"
storage:
  driver: jsonfile
  path: /data/queue.json
metrics:
  enabled: true
  listen: ":9464"
`
	cfg, err := Parse([]byte(data), ".yaml")
	require.NoError(t, err)

	assert.Equal(t, "@news", cfg.Telegram.DefaultChannel)
	assert.Equal(t, "/data/queue.json", cfg.StoragePath())
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9464", cfg.Metrics.Listen)
	assert.Empty(t, cfg.Validate())
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("[telegram\ntoken="), ".toml")
	assert.Error(t, err)

	_, err = Parse([]byte("telegram: [unclosed"), ".yml")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[telegram]\ntoken = \""+validToken+"\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, validToken, cfg.Telegram.Token)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing token", func(c *Config) { c.Telegram.Token = "" }, "telegram.token is required"},
		{"bad token", func(c *Config) { c.Telegram.Token = "abc" }, "telegram.token"},
		{"bad channel", func(c *Config) { c.Telegram.DefaultChannel = "news" }, "telegram.default_channel"},
		{"bad allowed user", func(c *Config) { c.Telegram.AllowedUsers = []string{"bob"} }, "allowed_users"},
		{"bad timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, "scheduler.timezone"},
		{"zero capacity", func(c *Config) { c.Scheduler.QueueCapacity = -1 }, "queue_capacity"},
		{"bad default hour", func(c *Config) { c.Scheduler.DefaultHour = 24 }, "default_hour"},
		{"bad driver", func(c *Config) { c.Storage.Driver = "redis" }, "storage.driver"},
		{"path traversal", func(c *Config) { c.Storage.Path = "/data/../etc/passwd" }, "storage.path"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			joined := ""
			for _, e := range errs {
				joined += e.Error() + "\n"
			}
			assert.Contains(t, joined, tt.wantErr)
		})
	}
}

func TestValidateTelegramToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", validToken, false},
		{"no colon", "123456789ABCdef", true},
		{"short bot id", "12:ABCdefGHIjklMNO", true},
		{"letters in bot id", "12a456789:ABCdefGHIjklMNO", true},
		{"short secret", "123456789:abc", true},
		{"two colons", "123456789:ABCdef:GHIjklMNO", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTelegramToken(tt.token)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "telegram.token", verr.Field)
			assert.NotContains(t, verr.Error(), "GHIjkl")
		})
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("POSTBOT_TEST_SET", "value")

	assert.Equal(t, "value", expandEnv("${POSTBOT_TEST_SET}"))
	assert.Equal(t, "value", expandEnv("${POSTBOT_TEST_SET:other}"))
	assert.Equal(t, "fallback", expandEnv("${POSTBOT_TEST_UNSET:fallback}"))
	assert.Equal(t, "", expandEnv("${POSTBOT_TEST_UNSET}"))
	assert.Equal(t, "plain", expandEnv("plain"))
	assert.Equal(t, "${broken", expandEnv("${broken"))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".postbot"), expandHome("~/.postbot"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}

func TestMasked(t *testing.T) {
	cfg := validConfig()
	masked := cfg.Masked()

	assert.True(t, strings.HasPrefix(masked.Telegram.Token, "123456789:"))
	assert.NotEqual(t, cfg.Telegram.Token, masked.Telegram.Token)
	assert.Equal(t, validToken, cfg.Telegram.Token)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "***", maskSecret("short"))
	assert.Equal(t, "abcd****wxyz", maskSecret("abcd1234wxyz"))
	assert.Equal(t, "", maskTelegramToken(""))
	assert.Equal(t, "123:abcd****wxyz", maskTelegramToken("123:abcd1234wxyz"))
}
