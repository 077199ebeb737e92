package version

import (
	"fmt"
	"runtime/debug"
)

// These variables are set at build time via ldflags, e.g.
//
//	-X github.com/nursix/gims/internal/version.Version=1.4.0
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns the version string
func String() string {
	return fmt.Sprintf("gims %s (commit: %s, built: %s)", Version, shortCommit(), BuildTime)
}

func shortCommit() string {
	commit := Commit
	if commit == "unknown" {
		commit = vcsRevision()
	}
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

// vcsRevision falls back to the revision stamped by go build.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return s.Value
		}
	}
	return "unknown"
}
