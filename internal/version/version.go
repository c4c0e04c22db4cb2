package version

import "fmt"

// AppName is the product name shown in notifications and autostart entries.
const AppName = "alarm-clock"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.3.0"
	// Commit is the short git SHA embedded at build time (or "none").
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
	return fmt.Sprintf("%s %s (commit %s, built %s)", AppName, Version, Commit, BuildTime)
}

// UserAgent identifies a binary of the project to the daemon, e.g. "alarm-ctl/0.3.0".
func UserAgent(binary string) string {
	return binary + "/" + Version
}
