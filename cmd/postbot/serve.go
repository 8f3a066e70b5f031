package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/postbot/internal/app"
	"github.com/aatumaykin/postbot/internal/config"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/messages"
	"github.com/aatumaykin/postbot/internal/version"
)

var serveLogLevel string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot (main command)",
	Long: `Start the bot with the specified configuration.
Pending posts are restored from storage and re-armed before updates are
received. SIGINT or SIGTERM triggers a graceful shutdown.`,
	RunE: serveHandler,
}

func init() {
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
}

func serveHandler(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override log level if flag is set
	if serveLogLevel != "" {
		cfg.Logging.Level = serveLogLevel
	}

	if err := reportValidation(cmd, cfg); err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting postbot",
		logger.Field{Key: "version", Value: version.Version},
		logger.Field{Key: "git_commit", Value: version.GitCommit},
		logger.Field{Key: "config", Value: configPath},
		logger.Field{Key: "workspace", Value: cfg.Workspace.Path},
		logger.Field{Key: "storage", Value: cfg.Storage.Driver},
		logger.Field{Key: "timezone", Value: cfg.Scheduler.Timezone})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("postbot stopped with error", err)
		return err
	}
	return nil
}

// errInvalidConfig is returned after validation errors were printed.
var errInvalidConfig = errors.New("configuration is invalid")

// reportValidation prints every validation error of cfg.
func reportValidation(cmd *cobra.Command, cfg *config.Config) error {
	errs := cfg.Validate()
	if len(errs) == 0 {
		return nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), messages.FormatValidationErrors(errs))
	return errInvalidConfig
}
