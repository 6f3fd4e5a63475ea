package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/integra-bridge/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/integra-bridge/internal/version.Commit=abc1234"
//
// Anything left empty is filled from the embedded VCS stamp.
var (
	Version   = ""
	Commit    = ""
	BuildDate = ""
)

func init() {
	fill(readSettings())
}

func readSettings() map[string]string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	return settings
}

// fill completes missing fields from VCS build settings, falling back to
// "dev" and "unknown".
func fill(settings map[string]string) {
	if Commit == "" {
		if rev := settings["vcs.revision"]; rev != "" {
			if len(rev) > 7 {
				rev = rev[:7]
			}
			if settings["vcs.modified"] == "true" {
				rev += "-dirty"
			}
			Commit = rev
		}
	}

	var stamp time.Time
	if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); err == nil {
		stamp = t.UTC()
	}
	if BuildDate == "" && !stamp.IsZero() {
		BuildDate = stamp.Format(time.DateOnly)
	}
	if Version == "" && !stamp.IsZero() {
		Version = "dev-" + stamp.Format("20060102")
	}

	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// Full returns the version with its commit, e.g. "v0.3.0 (commit: abc1234)".
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// String is the one-line banner printed by the version command.
func String(name string) string {
	s := name + " " + Full()
	if BuildDate != "" {
		s += ", built " + BuildDate
	}
	return s
}
