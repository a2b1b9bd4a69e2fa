package version

import (
	"fmt"
	"runtime"
)

// Service is the name reported by the health endpoint and the startup log.
const Service = "merchant-insights"

// Set with -ldflags "-X github.com/frostdev-ops/merchant-insights/pkg/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains all build-related information
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// GetVersion returns Version, or "dev-<short commit>" for development builds.
func GetVersion() string {
	if !IsDevBuild() {
		return Version
	}
	commit := GitCommit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	if commit == "" {
		commit = "unknown"
	}
	return "dev-" + commit
}

func GetFullVersion() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s)",
		Service, GetVersion(), GitCommit, BuildDate, GoVersion)
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Service:   Service,
		Version:   GetVersion(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
	}
}

// IsDevBuild returns true if this is a development build
func IsDevBuild() bool {
	return Version == "dev"
}
