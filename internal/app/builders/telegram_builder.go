package builders

import (
	"context"
	"fmt"
	"time"

	"github.com/aatumaykin/postbot/internal/channels/telegram"
	"github.com/aatumaykin/postbot/internal/config"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/metrics"
)

type TelegramBuilder struct {
	config *config.Config
	logger *logger.Logger
}

func NewTelegramBuilder(cfg *config.Config, log *logger.Logger) *TelegramBuilder {
	return &TelegramBuilder{
		config: cfg,
		logger: log,
	}
}

// Build creates the connector and checks the token. Polling is started
// later, once the conversation handler is attached.
func (b *TelegramBuilder) Build(ctx context.Context, bot telegram.BotInterface, loc *time.Location, now func() time.Time, m *metrics.PrometheusMetrics) (*telegram.Connector, error) {
	tg := telegram.New(b.config.Telegram, telegram.Options{
		Bot:       bot,
		Location:  loc,
		ZoneLabel: b.config.Scheduler.ZoneLabel,
		Now:       now,
		Metrics:   m,
		Workers:   b.config.Workers,
	}, b.logger)

	if err := tg.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect telegram: %w", err)
	}
	return tg, nil
}
