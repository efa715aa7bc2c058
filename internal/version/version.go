// Package version identifies the build of the wled tools.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set at release time:
//
//	go build -ldflags="-X github.com/muurk/wledbackup/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/wledbackup/internal/version.Commit=abc123" ./cmd/...
//
// Unset values are derived from the VCS stamp in the build info.
var (
	Version = ""
	Commit  = ""
)

const shortCommit = 7

func init() {
	vcs := vcsSettings()
	if Commit == "" {
		Commit = commitFrom(vcs)
	}
	if Version == "" {
		Version = devVersion(vcs, time.Now())
	}
}

func vcsSettings() map[string]string {
	settings := map[string]string{}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	return settings
}

// commitFrom returns the short revision, suffixed "-dirty" for a modified
// tree, or "unknown".
func commitFrom(vcs map[string]string) string {
	rev := vcs["vcs.revision"]
	if rev == "" {
		return "unknown"
	}
	if len(rev) > shortCommit {
		rev = rev[:shortCommit]
	}
	if vcs["vcs.modified"] == "true" {
		rev += "-dirty"
	}
	return rev
}

// devVersion names an untagged build after its commit date, or after now
// when the build carries no VCS time.
func devVersion(vcs map[string]string, now time.Time) string {
	if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
		return "dev-" + t.Format("20060102")
	}
	return "dev-" + now.Format("20060102-150405")
}

// Full returns the version with its commit.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent identifies a tool in requests to devices.
func UserAgent(tool string) string {
	return tool + "/" + Version
}
