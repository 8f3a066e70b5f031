package main

import (
	"os"

	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/version"
)

// Set through -ldflags "-X main.Version=...".
var (
	Version   = constants.DefaultVersion
	BuildTime = constants.DefaultBuildTime
	GitCommit = constants.DefaultGitCommit
	GoVersion = constants.DefaultGoVersion
)

func init() {
	version.SetInfo(Version, BuildTime, GitCommit, GoVersion)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
