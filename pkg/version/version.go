// Package version reports the build of pi-static-ip. Values are set with
// -ldflags at release time; development builds fall back to the VCS
// stamp the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "unknown"

var (
	// Version is the current version of the application
	Version = "0.1.0-dev"

	// GitCommit is the git commit hash (set during build)
	GitCommit = unknown

	// BuildDate is the build date (set during build)
	BuildDate = unknown
)

// Info returns formatted version information
func Info() string {
	commit, date := buildStamp()
	return fmt.Sprintf("pi-static-ip version %s (commit: %s, built: %s)",
		Version, commit, date)
}

// Short returns just the version number
func Short() string {
	return Version
}

// buildStamp prefers the ldflags values and otherwise reads vcs.revision
// and vcs.time from the embedded build info.
func buildStamp() (commit, date string) {
	commit, date = GitCommit, BuildDate
	if commit != unknown && date != unknown {
		return commit, date
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, date
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == unknown && s.Value != "" {
				commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if date == unknown && s.Value != "" {
				date = s.Value
			}
		}
	}
	return commit, date
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
