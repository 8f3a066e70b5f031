package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/postbot/internal/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Display the version, build time, git commit and Go version of postbot.`,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "postbot - deferred channel publishing bot")
		fmt.Fprintln(cmd.OutOrStdout(), version.Get())
	},
}
