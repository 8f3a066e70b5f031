package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/messages"
)

var configShowFormat string

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate and inspect postbot configuration.`,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), messages.FormatConfigLoadError(err))
			return err
		}
		if err := reportValidation(cmd, cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), constants.MsgConfigValid)
		return nil
	},
}

// configShowCmd prints the effective configuration with secrets masked.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print effective configuration (secrets masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		masked := cfg.Masked()

		out := cmd.OutOrStdout()
		switch configShowFormat {
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer func() { _ = enc.Close() }()
			return enc.Encode(masked)
		case "toml", "":
			return toml.NewEncoder(out).Encode(masked)
		}
		return fmt.Errorf("unknown format %q (toml, yaml)", configShowFormat)
	},
}

func init() {
	configShowCmd.Flags().StringVar(&configShowFormat, "format", "toml", "output format: toml or yaml")

	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
