package backup

import (
	"net/netip"
	"strings"

	"github.com/muurk/wledbackup/internal/wled"
)

// Output file names inside a device directory
const (
	ConfigFile  = "cfg.json"
	LastIPFile  = "last_ip"
	PresetsFile = "presets.json"
	StateFile   = "state.json"
)

// IdentitySource records how an identity was derived.
type IdentitySource int

const (
	// FromName means the device's own id.name was used.
	FromName IdentitySource = iota
	// FromAddress means the device had no usable name.
	FromAddress
)

// ResolveIdentity derives the directory name for a device from its raw
// cfg.json. The host address is used when the declared name is missing, is
// the factory default, or cannot be used as a single directory name.
func ResolveIdentity(cfg []byte, host netip.Addr) (string, IdentitySource) {
	name := wled.DeclaredName(cfg)
	if wled.IsPlaceholderName(name) || !isSafeDirName(name) {
		return host.String(), FromAddress
	}
	return name, FromName
}

// isSafeDirName accepts names usable as one visible directory at the
// repository root. Hidden names (.git among them) and names starting with
// '-' are refused.
func isSafeDirName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "-") {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
