package version

import (
	"strings"
	"testing"
	"time"
)

func TestPopulated(t *testing.T) {
	if Version == "" {
		t.Error("Version is empty")
	}
	if Commit == "" {
		t.Error("Commit is empty")
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.HasPrefix(full, Version) || !strings.Contains(full, "commit: "+Commit) {
		t.Errorf("Full() = %q", full)
	}
}

func TestUserAgent(t *testing.T) {
	if got, want := UserAgent("wled-backup"), "wled-backup/"+Version; got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}

func TestCommitFrom(t *testing.T) {
	tests := []struct {
		vcs  map[string]string
		want string
	}{
		{map[string]string{}, "unknown"},
		{map[string]string{"vcs.revision": "0123456789abcdef"}, "0123456"},
		{map[string]string{"vcs.revision": "abc"}, "abc"},
		{map[string]string{"vcs.revision": "0123456789abcdef", "vcs.modified": "true"}, "0123456-dirty"},
	}
	for _, tt := range tests {
		if got := commitFrom(tt.vcs); got != tt.want {
			t.Errorf("commitFrom(%v) = %q, want %q", tt.vcs, got, tt.want)
		}
	}
}

func TestDevVersion(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	if got := devVersion(map[string]string{"vcs.time": "2025-11-20T10:00:00Z"}, now); got != "dev-20251120" {
		t.Errorf("with vcs time = %q", got)
	}
	if got := devVersion(map[string]string{}, now); got != "dev-20260304-050607" {
		t.Errorf("without vcs time = %q", got)
	}
}
