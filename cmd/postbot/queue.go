package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aatumaykin/postbot/internal/app/builders"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/messages"
	"github.com/aatumaykin/postbot/internal/post"
	"github.com/aatumaykin/postbot/internal/store"
	"github.com/aatumaykin/postbot/internal/workspace"
)

var (
	queueOwner  int64
	queueFormat string
)

// queueCmd groups commands that inspect persisted state.
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the persisted queue",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending posts from storage",
	Long: `Read the persisted snapshot through the configured storage backend and
print every owner's pending posts. Safe to run while the bot is serving.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		loc, err := cfg.Scheduler.Location()
		if err != nil {
			return err
		}
		log, err := logger.New(logger.Config{Level: "warn", Format: "text", Output: "stderr"})
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ws := workspace.New(cfg.Workspace, afero.NewOsFs())
		p, err := builders.NewStorageBuilder(cfg, log).BuildPersister(ctx, ws, loc)
		if err != nil {
			return err
		}
		defer func() { _ = p.Close() }()

		snap, err := p.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to read queue: %w", err)
		}
		return renderQueue(cmd.OutOrStdout(), snap, post.OwnerID(queueOwner), queueFormat)
	},
}

func init() {
	queueListCmd.Flags().Int64Var(&queueOwner, "owner", 0, "only this Telegram user ID")
	queueListCmd.Flags().StringVar(&queueFormat, "format", "text", "output format: text or yaml")
	queueCmd.AddCommand(queueListCmd)
}

// renderQueue prints snap, limited to owner when it is non-zero.
func renderQueue(out io.Writer, snap store.Snapshot, owner post.OwnerID, format string) error {
	if owner != 0 {
		filtered := store.EmptySnapshot()
		if tasks, ok := snap.Tasks[owner]; ok {
			filtered.Tasks[owner] = tasks
		}
		if chat, ok := snap.Channels[owner]; ok {
			filtered.Channels[owner] = chat
		}
		snap = filtered
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(store.EncodeDocument(snap))
	case "text", "":
	default:
		return fmt.Errorf("unknown format %q (text, yaml)", format)
	}

	owners := snap.Owners()
	if len(owners) == 0 {
		_, err := fmt.Fprintln(out, messages.FormatQueue(nil))
		return err
	}
	for _, o := range owners {
		channel := snap.Channels[o]
		if channel == "" {
			channel = "-"
		}
		if _, err := fmt.Fprintf(out, "owner %d, channel %s\n%s\n\n", o, channel, messages.FormatQueue(snap.Tasks[o])); err != nil {
			return err
		}
	}
	return nil
}
