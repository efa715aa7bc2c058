package wled

import (
	"encoding/json"
	"strings"
)

// DefaultName is the name WLED ships with. Devices still using it cannot be
// told apart by name.
const DefaultName = "WLED"

// Device API paths
const (
	ConfigPath       = "/cfg.json"
	PresetsPath      = "/presets.json"
	FileListPath     = "/edit?list=/"
	TimeSettingsPath = "/settings/time"
	WebSocketPath    = "/ws"
)

// FileTypeFile marks a regular file in the /edit listing.
const FileTypeFile = "file"

// FileEntry is one entry of the /edit?list=/ listing.
type FileEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size,omitempty"`
}

// IsFile reports whether the entry is a regular file.
func (f FileEntry) IsFile() bool {
	return f.Type == FileTypeFile
}

// RelativePath returns the entry name with any leading separator removed.
func (f FileEntry) RelativePath() string {
	return strings.TrimLeft(f.Name, "/")
}

// DeclaredName extracts id.name from a cfg.json document. It returns ""
// when the document is not an object, has no id object, or the name is not
// a string.
func DeclaredName(cfg []byte) string {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(cfg, &doc); err != nil {
		return ""
	}

	var id map[string]json.RawMessage
	if err := json.Unmarshal(doc["id"], &id); err != nil {
		return ""
	}

	var name string
	if err := json.Unmarshal(id["name"], &name); err != nil {
		return ""
	}
	return name
}

// IsPlaceholderName reports whether name is empty or the factory default.
// Surrounding whitespace is ignored.
func IsPlaceholderName(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || strings.EqualFold(name, DefaultName)
}

// ParseFileList decodes the /edit listing.
func ParseFileList(body []byte) ([]FileEntry, error) {
	var entries []FileEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
