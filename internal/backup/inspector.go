package backup

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/muurk/wledbackup/internal/logging"
	"github.com/muurk/wledbackup/internal/wled"
)

// Device is a host that answered /cfg.json with valid JSON.
type Device struct {
	// Host is the address the device answered on
	Host netip.Addr

	// Identity names the device's backup directory
	Identity string

	// Source records whether Identity came from the device name or address
	Source IdentitySource

	// Dir is the absolute path of the device's backup directory
	Dir string
}

// InspectResult is the outcome of inspecting one host.
type InspectResult struct {
	// Status is Unreachable for hosts that are not devices, InvalidResponse
	// for devices with a broken configuration, Success otherwise.
	Status wled.Status

	// Device is set when Status is Success
	Device *Device

	// Err carries the request or parse error for non-success results
	Err error
}

// Inspector checks whether a host is a WLED device and saves its configuration.
type Inspector struct {
	outputDir string
	logger    *zap.Logger
}

// NewInspector creates an inspector writing under outputDir.
func NewInspector(outputDir string, logger *zap.Logger) *Inspector {
	return &Inspector{
		outputDir: outputDir,
		logger:    logging.OrNop(logger),
	}
}

// Inspect fetches /cfg.json from the host. On success it creates the device
// directory, writes the configuration verbatim to cfg.json and the host
// address to last_ip.
//
// A host that is not a device, or a device whose configuration is not JSON,
// is reported through the result and never as an error. The returned error is
// reserved for local filesystem failures.
func (i *Inspector) Inspect(ctx context.Context, client *wled.Client, host netip.Addr) (InspectResult, error) {
	i.logger.Debug("checking host", zap.Stringer("host", host))

	out := client.Config(ctx)
	switch out.Status {
	case wled.Unreachable:
		i.logger.Debug("host is not a WLED node",
			zap.Stringer("host", host),
			zap.String("reason", wled.ShortErrorMessage(out.Err)),
		)
		return InspectResult{Status: wled.Unreachable, Err: out.Err}, nil

	case wled.InvalidResponse:
		i.logger.Info("config not valid, skipping host",
			zap.Stringer("host", host),
			zap.Int("bytes", len(out.Body)),
		)
		return InspectResult{Status: wled.InvalidResponse, Err: out.Err}, nil
	}

	identity, source := ResolveIdentity(out.Body, host)
	if source == FromAddress {
		i.logger.Warn("device does not have a proper name, using its address",
			zap.Stringer("host", host),
			zap.String("declared_name", wled.DeclaredName(out.Body)),
		)
	} else {
		i.logger.Info("found WLED",
			zap.String("name", identity),
			zap.Stringer("host", host),
		)
	}

	device := &Device{
		Host:     host,
		Identity: identity,
		Source:   source,
		Dir:      filepath.Join(i.outputDir, identity),
	}

	if err := os.MkdirAll(device.Dir, 0o755); err != nil {
		return InspectResult{}, fmt.Errorf("failed to create device directory %s: %w", device.Dir, err)
	}
	if err := os.WriteFile(filepath.Join(device.Dir, ConfigFile), out.Body, 0o644); err != nil {
		return InspectResult{}, fmt.Errorf("failed to write %s for %s: %w", ConfigFile, identity, err)
	}
	if err := os.WriteFile(filepath.Join(device.Dir, LastIPFile), []byte(host.String()), 0o644); err != nil {
		return InspectResult{}, fmt.Errorf("failed to write %s for %s: %w", LastIPFile, identity, err)
	}

	return InspectResult{Status: wled.Success, Device: device}, nil
}
