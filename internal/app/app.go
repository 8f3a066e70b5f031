// Package app wires the postbot components together and manages their
// lifecycle: storage, the Telegram connector, the conversation machine,
// the scheduler and the optional metrics endpoint.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/aatumaykin/postbot/internal/channels/telegram"
	"github.com/aatumaykin/postbot/internal/config"
	"github.com/aatumaykin/postbot/internal/conversation"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/metrics"
	"github.com/aatumaykin/postbot/internal/scheduler"
	"github.com/aatumaykin/postbot/internal/store"
	"github.com/aatumaykin/postbot/internal/version"
	"github.com/aatumaykin/postbot/internal/workspace"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "postbot"

// shutdownTimeout bounds the wait for in-flight deliveries on Stop.
const shutdownTimeout = 30 * time.Second

// App represents the main application structure.
type App struct {
	// Configuration and core services
	config *config.Config
	logger *logger.Logger

	// Injected dependencies; real ones are used when nil
	fs       afero.Fs
	bot      telegram.BotInterface
	now      func() time.Time
	registry *prometheus.Registry

	// Components
	workspace  *workspace.Workspace
	metrics    *metrics.PrometheusMetrics
	persister  store.Persister
	store      *store.Store
	telegram   *telegram.Connector
	scheduler  *scheduler.Scheduler
	machine    *conversation.Machine
	releasePID func() error

	// Context management
	ctx    context.Context
	cancel context.CancelFunc

	// Thread-safety
	mu      sync.Mutex
	started bool
}

// Option customizes an App, mainly for tests.
type Option func(*App)

// WithBot replaces the Telegram client.
func WithBot(bot telegram.BotInterface) Option {
	return func(a *App) { a.bot = bot }
}

// WithFs replaces the filesystem used for the JSON snapshot.
func WithFs(fs afero.Fs) Option {
	return func(a *App) { a.fs = fs }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New creates a new App. Components are created by Initialize.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) *App {
	a := &App{
		config:   cfg,
		logger:   log,
		fs:       afero.NewOsFs(),
		now:      time.Now,
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until ctx is cancelled or the
// metrics server fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(ctx); err != nil {
		if shutdownErr := a.Shutdown(); shutdownErr != nil {
			a.logger.Error("shutdown after failed start", shutdownErr)
		}
		return err
	}

	g, gctx := errgroup.WithContext(a.ctx)
	if a.config.Metrics.Enabled {
		g.Go(func() error {
			if err := metrics.Serve(gctx, a.config.Metrics.Listen, a.registry, a.logger); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	a.logger.Info(version.FormatStartupMessage())
	runErr := g.Wait()

	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Store returns the task store; nil before Initialize.
func (a *App) Store() *store.Store {
	return a.store
}

// Gatherer exposes the metrics registry.
func (a *App) Gatherer() prometheus.Gatherer {
	return a.registry
}
