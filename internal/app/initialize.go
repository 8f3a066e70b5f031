package app

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/aatumaykin/postbot/internal/app/builders"
	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/conversation"
	"github.com/aatumaykin/postbot/internal/ipc"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/metrics"
	"github.com/aatumaykin/postbot/internal/scheduler"
	"github.com/aatumaykin/postbot/internal/store"
	"github.com/aatumaykin/postbot/internal/timeparse"
	"github.com/aatumaykin/postbot/internal/workspace"
)

// Initialize creates and starts every component. Persisted tasks are
// re-armed before polling starts, so no update is handled against a
// half-restored queue.
func (a *App) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return fmt.Errorf("application already started")
	}

	// 1. Create application context
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.started = true

	loc, err := a.config.Scheduler.Location()
	if err != nil {
		return err
	}

	// 2. Workspace and single-instance guard
	a.workspace = workspace.New(a.config.Workspace, a.fs)
	if err := a.workspace.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	if _, onDisk := a.fs.(*afero.OsFs); onDisk {
		release, err := ipc.Acquire(a.workspace.Subpath(constants.PIDFileName))
		if err != nil {
			return err
		}
		a.releasePID = release
	}

	// 3. Metrics
	a.metrics = metrics.InitPrometheusMetrics(MetricsNamespace, a.registry)

	// 4. Storage
	storage := builders.NewStorageBuilder(a.config, a.logger)
	a.persister, err = storage.BuildPersister(a.ctx, a.workspace, loc)
	if err != nil {
		return err
	}
	a.store = storage.BuildStore(a.ctx, a.persister, loc, store.Options{Metrics: a.metrics})

	// 5. Telegram connector
	a.telegram, err = builders.NewTelegramBuilder(a.config, a.logger).Build(a.ctx, a.bot, loc, a.now, a.metrics)
	if err != nil {
		return err
	}

	// 6. Scheduler
	a.scheduler = scheduler.New(scheduler.Config{
		Location: loc,
		MaxWait:  a.config.Scheduler.MaxWait(),
		Now:      a.now,
		Metrics:  a.metrics,
	}, a.store, a.store.Channels(), a.telegram, a.telegram, a.logger)

	// 7. Conversation machine
	parser := timeparse.New(timeparse.Config{
		Location:      loc,
		Grace:         a.config.Scheduler.Grace(),
		DefaultHour:   a.config.Scheduler.DefaultHour,
		DefaultMinute: a.config.Scheduler.DefaultMinute,
	})
	a.machine = conversation.New(conversation.Config{
		Now:       a.now,
		Location:  loc,
		ZoneLabel: a.config.Scheduler.ZoneLabel,
		Metrics:   a.metrics,
	}, a.store, a.store.Channels(), a.scheduler, parser, a.logger)
	a.telegram.SetHandler(a.machine)

	// 8. Start scheduling and re-arm persisted tasks
	if err := a.scheduler.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	if _, err := a.scheduler.Restore(a.ctx); err != nil {
		return fmt.Errorf("failed to restore tasks: %w", err)
	}

	// 9. Receive updates
	if err := a.telegram.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start telegram connector: %w", err)
	}

	a.logger.Info("application initialized",
		logger.Field{Key: "timezone", Value: loc.String()},
		logger.Field{Key: "storage", Value: a.config.Storage.Driver},
		logger.Field{Key: "tasks", Value: len(a.store.All())})
	return nil
}
