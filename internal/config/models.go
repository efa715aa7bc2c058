package config

import (
	"fmt"
	"time"
)

// Backup variants
const (
	VariantFiles   = "files"
	VariantPresets = "presets"
)

// CurrentVersion is the config file format version.
const CurrentVersion = 1

// File represents the optional defaults file of wled-backup.
// Every key is optional; a zero value means "not set in the file".
type File struct {
	Version int `yaml:"version,omitempty"`

	// Output is the backup git working copy
	Output string `yaml:"output,omitempty"`

	// Subnets are swept when none are given on the command line
	Subnets []string `yaml:"subnets,omitempty"`

	// Push pushes after committing
	Push bool `yaml:"push,omitempty"`

	// Variant selects "files" (full filesystem mirror) or "presets"
	Variant string `yaml:"variant,omitempty"`

	// Timeout is the per-request device timeout (e.g. "5s")
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MDNS adds devices found via mDNS to the sweep
	MDNS bool `yaml:"mdns,omitempty"`

	// State saves the WebSocket state snapshot
	State bool `yaml:"state,omitempty"`
}

// Validate checks the file for values the tool cannot use.
func (f *File) Validate() error {
	if f.Version != 0 && f.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", f.Version, CurrentVersion)
	}
	if f.Variant != "" {
		if err := ValidateVariant(f.Variant); err != nil {
			return err
		}
	}
	if f.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", f.Timeout)
	}
	return nil
}

// ValidateVariant checks a backup variant name.
func ValidateVariant(variant string) error {
	switch variant {
	case VariantFiles, VariantPresets:
		return nil
	default:
		return fmt.Errorf("unknown variant %q (expected %q or %q)", variant, VariantFiles, VariantPresets)
	}
}

// Example returns a populated file used by "config init".
func Example() *File {
	return &File{
		Version: CurrentVersion,
		Output:  "/var/backups/wled",
		Subnets: []string{"192.168.1.0/24"},
		Variant: VariantFiles,
		Timeout: 5 * time.Second,
	}
}
