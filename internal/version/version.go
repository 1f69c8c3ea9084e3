// Package version reports build metadata injected with -ldflags:
//
//	go build -ldflags "-X github.com/HerbHall/netscope/internal/version.Version=1.2.0"
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info is the one-line banner printed by `netscope version`.
func Info() string {
	return fmt.Sprintf("NetScope %s (commit %s, built %s, %s %s/%s)",
		Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns the bare version, e.g. "1.2.0" or "dev".
func Short() string {
	return Version
}

// Map returns the build metadata for JSON responses.
func Map() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}
