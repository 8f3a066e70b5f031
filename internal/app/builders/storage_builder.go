package builders

import (
	"context"
	"fmt"
	"time"

	"github.com/aatumaykin/postbot/internal/config"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/store"
	"github.com/aatumaykin/postbot/internal/store/jsonfile"
	"github.com/aatumaykin/postbot/internal/store/sqlite"
	"github.com/aatumaykin/postbot/internal/workspace"
)

type StorageBuilder struct {
	config *config.Config
	logger *logger.Logger
}

func NewStorageBuilder(cfg *config.Config, log *logger.Logger) *StorageBuilder {
	return &StorageBuilder{
		config: cfg,
		logger: log,
	}
}

// BuildPersister opens the configured snapshot backend. Relative storage
// paths are resolved inside the workspace.
func (b *StorageBuilder) BuildPersister(ctx context.Context, ws *workspace.Workspace, loc *time.Location) (store.Persister, error) {
	path, err := ws.ResolvePath(b.config.StoragePath())
	if err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}

	switch b.config.Storage.Driver {
	case config.DriverSQLite:
		p, err := sqlite.Open(ctx, path, loc, b.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		b.logger.Info("storage opened",
			logger.Field{Key: "driver", Value: config.DriverSQLite},
			logger.Field{Key: "path", Value: path})
		return p, nil
	case config.DriverJSONFile, "":
		b.logger.Info("storage opened",
			logger.Field{Key: "driver", Value: config.DriverJSONFile},
			logger.Field{Key: "path", Value: path})
		return jsonfile.New(ws.Fs(), path, loc, b.logger), nil
	}
	return nil, fmt.Errorf("unknown storage driver: %s", b.config.Storage.Driver)
}

// BuildStore creates the task store and loads the persisted snapshot. An
// unreadable snapshot is logged and the bot starts with an empty queue.
func (b *StorageBuilder) BuildStore(ctx context.Context, p store.Persister, loc *time.Location, opts store.Options) *store.Store {
	opts.Capacity = b.config.Scheduler.QueueCapacity
	opts.DefaultChannel = b.config.Telegram.DefaultChannel
	opts.Location = loc

	s := store.New(p, opts, b.logger)
	if err := s.LoadAll(ctx); err != nil {
		b.logger.ErrorCtx(ctx, "failed to load queue, starting empty", err)
	}
	return s
}
