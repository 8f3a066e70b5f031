package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/messages"
	"github.com/aatumaykin/postbot/internal/timeparse"
)

var parseAt string

// parseCmd dry-runs the time expression parser.
var parseCmd = &cobra.Command{
	Use:   "parse <expression>",
	Short: "Show how a time expression would be scheduled",
	Example: `  postbot parse "через 15 минут"
  postbot parse "каждый понедельник в 10:00" --at "18.10.2026 09:00"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		loc, err := cfg.Scheduler.Location()
		if err != nil {
			return err
		}

		now := time.Now().In(loc)
		if parseAt != "" {
			now, err = time.ParseInLocation(constants.DateTimeLayout, parseAt, loc)
			if err != nil {
				return fmt.Errorf("invalid --at (want %q): %w", constants.DateTimeLayout, err)
			}
		}

		parser := timeparse.New(timeparse.Config{
			Location:      loc,
			Grace:         cfg.Scheduler.Grace(),
			DefaultHour:   cfg.Scheduler.DefaultHour,
			DefaultMinute: cfg.Scheduler.DefaultMinute,
		})
		return printParse(cmd, parser, args[0], now, cfg.Scheduler.ZoneLabel)
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseAt, "at", "", "reference time in the configured zone, \"02.01.2006 15:04\"")
}

func printParse(cmd *cobra.Command, parser *timeparse.Parser, expr string, now time.Time, zoneLabel string) error {
	res, err := parser.Parse(expr, now)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), messages.FormatParseError(expr, err))
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "rule:   %s\n", res.Rule)
	fmt.Fprintf(out, "at:     %s (%s)\n", res.At.Format(constants.DateTimeLayout), zoneLabel)
	hours, minutes := messages.Remaining(now, res.At)
	fmt.Fprintf(out, "in:     %d h %d min\n", hours, minutes)
	if res.Recurrence.IsSet() {
		fmt.Fprintf(out, "repeat: %s\n", messages.FormatRecurrence(res.Recurrence))
	}
	return nil
}
