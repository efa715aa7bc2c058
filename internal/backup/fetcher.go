package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/wledbackup/internal/logging"
	"github.com/muurk/wledbackup/internal/wled"
)

// Fetcher retrieves the resources that depend on a device's identity and
// writes them under the device directory.
type Fetcher interface {
	Fetch(ctx context.Context, client *wled.Client, device *Device) *FetchReport
}

// FileFailure records one resource that could not be saved.
type FileFailure struct {
	Path string
	Err  error
}

// FetchReport summarises one device's fetch.
type FetchReport struct {
	// Status of the top-level resource (presets document or file listing)
	Status wled.Status

	// Written lists the paths saved, relative to the device directory
	Written []string

	// Failed lists resources that were attempted and not saved
	Failed []FileFailure

	// Repaired is true when the repair hook ran
	Repaired bool
}

// Partial reports whether some resources failed.
func (r *FetchReport) Partial() bool {
	return len(r.Failed) > 0
}

func (r *FetchReport) fail(path string, err error) {
	r.Failed = append(r.Failed, FileFailure{Path: path, Err: err})
}

// RepairHook is called when a device serves a resource that is not valid
// JSON and repair mode is on. resource is the request path and body the
// bytes received.
type RepairHook func(ctx context.Context, device *Device, resource string, body []byte)

// LogRepairHook returns a hook that only records the broken resource.
// What an automated repair should do is still an open decision.
func LogRepairHook(logger *zap.Logger) RepairHook {
	logger = logging.OrNop(logger)
	return func(_ context.Context, device *Device, resource string, body []byte) {
		logger.Info("repair broken resource",
			zap.Stringer("host", device.Host),
			zap.String("name", device.Identity),
			zap.String("resource", resource),
			zap.Int("bytes", len(body)),
		)
	}
}

// PresetsFetcher saves /presets.json. This is how backups worked before
// the device filesystem listing was used.
type PresetsFetcher struct {
	Repair     bool
	RepairHook RepairHook
	logger     *zap.Logger
}

// NewPresetsFetcher creates a presets fetcher.
func NewPresetsFetcher(repair bool, logger *zap.Logger) *PresetsFetcher {
	return &PresetsFetcher{
		Repair:     repair,
		RepairHook: LogRepairHook(logger),
		logger:     logging.OrNop(logger),
	}
}

// Fetch implements Fetcher.
func (f *PresetsFetcher) Fetch(ctx context.Context, client *wled.Client, device *Device) *FetchReport {
	report := &FetchReport{}

	out := client.Presets(ctx)
	report.Status = out.Status

	switch out.Status {
	case wled.Unreachable:
		f.logger.Debug("error downloading presets",
			zap.String("name", device.Identity),
			zap.Error(out.Err),
		)
		report.fail(PresetsFile, out.Err)

	case wled.InvalidResponse:
		f.logger.Info("presets not valid",
			zap.String("name", device.Identity),
			zap.Stringer("host", device.Host),
		)
		report.fail(PresetsFile, out.Err)
		report.Repaired = runRepair(ctx, f.Repair, f.RepairHook, device, wled.PresetsPath, out.Body)

	case wled.Success:
		if err := writeDeviceFile(device.Dir, PresetsFile, out.Body); err != nil {
			f.logger.Warn("failed to save presets", zap.String("name", device.Identity), zap.Error(err))
			report.fail(PresetsFile, err)
			break
		}
		report.Written = append(report.Written, PresetsFile)
	}

	return report
}

// FileListFetcher mirrors every regular file in the device filesystem.
type FileListFetcher struct {
	Repair     bool
	RepairHook RepairHook
	logger     *zap.Logger
}

// NewFileListFetcher creates a file-listing fetcher.
func NewFileListFetcher(repair bool, logger *zap.Logger) *FileListFetcher {
	return &FileListFetcher{
		Repair:     repair,
		RepairHook: LogRepairHook(logger),
		logger:     logging.OrNop(logger),
	}
}

// Fetch implements Fetcher. Files are fetched one at a time in listing
// order; a failed file is recorded and the rest are still fetched.
func (f *FileListFetcher) Fetch(ctx context.Context, client *wled.Client, device *Device) *FetchReport {
	report := &FetchReport{}

	entries, out := client.ListFiles(ctx)
	report.Status = out.Status

	switch out.Status {
	case wled.Unreachable:
		f.logger.Info("error downloading file list",
			zap.String("name", device.Identity),
			zap.Error(out.Err),
		)
		report.fail(wled.FileListPath, out.Err)
		return report

	case wled.InvalidResponse:
		f.logger.Info("file list not valid",
			zap.String("name", device.Identity),
			zap.Stringer("host", device.Host),
		)
		report.fail(wled.FileListPath, out.Err)
		report.Repaired = runRepair(ctx, f.Repair, f.RepairHook, device, wled.FileListPath, out.Body)
		return report
	}

	for _, entry := range entries {
		if !entry.IsFile() {
			continue
		}
		if ctx.Err() != nil {
			report.fail(entry.RelativePath(), ctx.Err())
			continue
		}

		rel := entry.RelativePath()
		if _, err := devicePath(device.Dir, rel); err != nil {
			f.logger.Warn("skipping file with unsafe name",
				zap.String("name", device.Identity),
				zap.String("file", entry.Name),
			)
			report.fail(rel, err)
			continue
		}

		data, err := client.File(ctx, rel)
		if err != nil {
			f.logger.Warn("failed to download file",
				zap.String("name", device.Identity),
				zap.String("file", rel),
				zap.String("reason", wled.ShortErrorMessage(err)),
			)
			report.fail(rel, err)
			continue
		}

		if err := writeDeviceFile(device.Dir, rel, data); err != nil {
			f.logger.Warn("failed to save file",
				zap.String("name", device.Identity),
				zap.String("file", rel),
				zap.Error(err),
			)
			report.fail(rel, err)
			continue
		}

		f.logger.Debug("saved file",
			zap.String("name", device.Identity),
			zap.String("file", rel),
			zap.Int("bytes", len(data)),
		)
		report.Written = append(report.Written, rel)
	}

	return report
}

func runRepair(ctx context.Context, enabled bool, hook RepairHook, device *Device, resource string, body []byte) bool {
	if !enabled || hook == nil {
		return false
	}
	hook(ctx, device, resource, body)
	return true
}

// writeDeviceFile writes data to rel under dir, creating parent directories.
// rel must stay inside dir.
func writeDeviceFile(dir, rel string, data []byte) error {
	path, err := devicePath(dir, rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

func devicePath(dir, rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimLeft(rel, "/")))
	if clean == "." || clean == ".." || filepath.IsAbs(clean) ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("refusing to write %q outside the device directory", rel)
	}
	for _, part := range strings.Split(clean, string(filepath.Separator)) {
		if strings.EqualFold(part, ".git") {
			return "", fmt.Errorf("refusing to write %q into a .git directory", rel)
		}
	}
	return filepath.Join(dir, clean), nil
}
