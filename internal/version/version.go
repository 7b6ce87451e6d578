package version

import (
	"fmt"
	"runtime/debug"
)

// revisionLength is how many characters of the VCS revision are shown when Commit is not injected.
const revisionLength = 8

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time. Falls back to the module's VCS revision.
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("rpmstamp version: %s, commit: %s, built at: %s", Version, commit(), BuildTime)
}

// commit prefers the ldflags value and otherwise reads vcs.revision from the build info.
func commit() string {
	if Commit != "none" && Commit != "" {
		return Commit
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Commit
	}

	for _, setting := range info.Settings {
		if setting.Key != "vcs.revision" || setting.Value == "" {
			continue
		}

		if len(setting.Value) > revisionLength {
			return setting.Value[:revisionLength]
		}

		return setting.Value
	}

	return Commit
}
