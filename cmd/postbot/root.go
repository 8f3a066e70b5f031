package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/postbot/internal/config"
	"github.com/aatumaykin/postbot/internal/constants"
)

var (
	configPath string
	envPath    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "postbot",
	Short: "postbot - deferred channel publishing bot",
	Long: `postbot is a Telegram bot that accepts posts in a private chat,
asks when to publish them and copies them into a channel at that time.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", constants.DefaultConfigPath, "path to config file (.toml or .yaml)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", constants.DefaultEnvPath, "path to optional .env file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(parseCmd)
}

// loadConfig reads the .env file, if any, and the configuration.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvOptional(envPath); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
