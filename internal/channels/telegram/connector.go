// Package telegram connects the bot to Telegram using the Telego library.
//
// Features:
//   - Long polling for receiving updates from private chats
//   - Whitelist-based user authorization
//   - Per-owner ordered update handling on a keyed worker pool
//   - Publication by copyMessage and owner notifications
//   - Shared outbound rate limit
package telegram

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/aatumaykin/postbot/internal/config"
	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/conversation"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/metrics"
	"github.com/aatumaykin/postbot/internal/workers"
	"github.com/mymmrac/telego"
	"golang.org/x/time/rate"
)

// Handler processes conversation events.
type Handler interface {
	Handle(ctx context.Context, ev conversation.Event) conversation.Reply
}

// Options configures a Connector beyond its config section.
type Options struct {
	// Bot replaces the real Telegram client, mainly in tests.
	Bot       BotInterface
	Location  *time.Location
	ZoneLabel string
	Now       func() time.Time
	Metrics   *metrics.PrometheusMetrics
	Workers   config.WorkersConfig
}

// Connector represents the Telegram bot connector
type Connector struct {
	cfg       config.TelegramConfig
	logger    *logger.Logger
	bot       BotInterface
	handler   Handler
	limiter   *rate.Limiter
	pool      *workers.WorkerPool
	metrics   *metrics.PrometheusMetrics
	loc       *time.Location
	zoneLabel string
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Telegram connector
func New(cfg config.TelegramConfig, opts Options, log *logger.Logger) *Connector {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ZoneLabel == "" {
		opts.ZoneLabel = constants.DefaultZoneLabel
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	limit := rate.Limit(cfg.RateLimitPerSecond)
	if cfg.RateLimitPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := int(cfg.RateLimitPerSecond)
	if burst < 1 {
		burst = 1
	}

	log = log.Component("telegram")
	return &Connector{
		cfg:       cfg,
		logger:    log,
		bot:       opts.Bot,
		limiter:   rate.NewLimiter(limit, burst),
		pool:      workers.NewPool(opts.Workers.PoolSize, opts.Workers.QueueSize, log),
		metrics:   opts.Metrics,
		loc:       opts.Location,
		zoneLabel: opts.ZoneLabel,
		now:       opts.Now,
		ctx:       context.Background(),
	}
}

// SetHandler sets the conversation handler. It must be called before Start.
func (c *Connector) SetHandler(h Handler) {
	c.handler = h
}

// Connect creates the Telegram client if none was injected and checks the
// token. Delivery works after Connect even before Start.
func (c *Connector) Connect(ctx context.Context) error {
	if c.bot == nil {
		if c.cfg.Token == "" {
			return fmt.Errorf("telegram token is required")
		}
		bot, err := telego.NewBot(c.cfg.Token)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram bot: %w", err)
		}
		c.bot = NewBotAdapter(bot)
	}

	botUser, err := c.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}

	c.logger.Info("telegram bot initialized",
		logger.Field{Key: "bot_id", Value: botUser.ID},
		logger.Field{Key: "username", Value: botUser.Username})
	return nil
}

// Start registers commands and starts receiving updates. It returns once
// polling is running; Stop ends it.
func (c *Connector) Start(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("telegram connector has no handler")
	}
	if c.bot == nil {
		if err := c.Connect(ctx); err != nil {
			return err
		}
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	if err := c.registerCommands(); err != nil {
		c.logger.ErrorCtx(c.ctx, "failed to register bot commands", err)
	}

	updates, err := c.bot.UpdatesViaLongPolling(c.ctx, &telego.GetUpdatesParams{
		Timeout:        c.cfg.LongPollTimeout,
		AllowedUpdates: []string{"message", "callback_query"},
	})
	if err != nil {
		c.cancel()
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	c.pool.Start()
	c.wg.Add(1)
	go c.poll(updates)

	c.logger.Info("telegram connector started",
		logger.Field{Key: "allowed_users", Value: len(c.cfg.AllowedUsers)})
	return nil
}

// Stop stops polling and waits for updates in hand to be answered.
func (c *Connector) Stop() {
	c.logger.Info("stopping telegram connector")

	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.pool.Stop()

	c.logger.Info("telegram connector stopped gracefully")
}

// registerCommands registers bot commands with Telegram
func (c *Connector) registerCommands() error {
	commands := make([]telego.BotCommand, 0, len(constants.BotCommands))
	for _, cmd := range constants.BotCommands {
		commands = append(commands, telego.BotCommand{Command: cmd.Name, Description: cmd.Description})
	}

	if err := c.wait(c.ctx); err != nil {
		return err
	}
	if err := c.bot.SetMyCommands(c.ctx, &telego.SetMyCommandsParams{Commands: commands}); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	c.logger.Info("bot commands registered successfully",
		logger.Field{Key: "count", Value: len(commands)})
	return nil
}

// isAllowedUser checks if the user is allowed based on the whitelist configuration
func (c *Connector) isAllowedUser(userID int64) bool {
	if len(c.cfg.AllowedUsers) == 0 {
		return true
	}
	return slices.Contains(c.cfg.AllowedUsers, strconv.FormatInt(userID, 10))
}

// wait blocks until the shared rate limiter admits one more request.
func (c *Connector) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// sendTimeout returns a context for replies, edits and callback answers.
// Deliveries never use it.
func (c *Connector) sendTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.cfg.SendTimeout()
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
