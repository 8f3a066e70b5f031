// Package version holds build information injected through -ldflags.
package version

import (
	"fmt"
	"runtime"

	"github.com/aatumaykin/postbot/internal/constants"
)

var (
	Version   = constants.DefaultVersion
	BuildTime = constants.DefaultBuildTime
	GitCommit = constants.DefaultGitCommit
	GoVersion = constants.DefaultGoVersion
)

// Info is a printable copy of the build information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// SetInfo overrides the build information; empty values are ignored.
func SetInfo(v, bt, gc, gv string) {
	if v != "" {
		Version = v
	}
	if bt != "" {
		BuildTime = bt
	}
	if gc != "" {
		GitCommit = gc
	}
	if gv != "" {
		GoVersion = gv
	}
}

// Get returns the current build information. An unknown Go version is
// filled from the running binary.
func Get() Info {
	gv := GoVersion
	if gv == constants.DefaultGoVersion {
		gv = runtime.Version()
	}
	return Info{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit, GoVersion: gv}
}

func (i Info) String() string {
	return fmt.Sprintf("Version: %s\nBuild Time: %s\nGit Commit: %s\nGo Version: %s",
		i.Version, i.BuildTime, i.GitCommit, i.GoVersion)
}

// FormatStartupMessage is logged once the bot is serving.
func FormatStartupMessage() string {
	return fmt.Sprintf("postbot started (version %s, built %s)", Version, BuildTime)
}
