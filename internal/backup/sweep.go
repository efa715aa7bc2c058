package backup

import (
	"context"
	"fmt"
	"net/netip"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wledbackup/internal/logging"
	"github.com/muurk/wledbackup/internal/wled"
)

// Stager stages a device directory in the output repository.
type Stager interface {
	Add(ctx context.Context, name string) error
}

// ProgressFunc is called after each host is visited.
type ProgressFunc func(done, total int, host netip.Addr)

// Options configures a sweep.
type Options struct {
	// Port is the device HTTP port
	Port int

	// HostPorts overrides Port for individual hosts, such as the port a
	// device advertised over mDNS
	HostPorts map[netip.Addr]int

	// Timeout is the per-request timeout
	Timeout time.Duration

	// State enables saving the WebSocket state snapshot as state.json
	State bool

	// UserAgent is sent to devices when set
	UserAgent string
}

// DeviceReport is the per-device part of a sweep report.
type DeviceReport struct {
	Device *Device
	Fetch  *FetchReport
}

// HostError records a host whose backup failed locally.
type HostError struct {
	Host netip.Addr
	Err  error
}

// Report summarises a sweep.
type Report struct {
	HostsScanned  int
	Devices       []DeviceReport
	InvalidConfig []netip.Addr
	HostErrors    []HostError
	Duration      time.Duration
}

// PartialDevices counts devices with at least one failed resource.
func (r *Report) PartialDevices() int {
	n := 0
	for _, d := range r.Devices {
		if d.Fetch != nil && d.Fetch.Partial() {
			n++
		}
	}
	return n
}

// Sweeper visits hosts one at a time: inspect, fetch, stage.
type Sweeper struct {
	inspector *Inspector
	fetcher   Fetcher
	stager    Stager
	opts      Options
	logger    *zap.Logger
	progress  ProgressFunc

	// NewClient builds the device client for a host. Tests replace it.
	NewClient func(host netip.Addr) *wled.Client
}

// NewSweeper creates a sweeper writing to outputDir.
func NewSweeper(outputDir string, fetcher Fetcher, stager Stager, opts Options, logger *zap.Logger) *Sweeper {
	if opts.Port == 0 {
		opts.Port = wled.DefaultPort
	}
	if opts.Timeout == 0 {
		opts.Timeout = wled.DefaultTimeout
	}

	s := &Sweeper{
		inspector: NewInspector(outputDir, logger),
		fetcher:   fetcher,
		stager:    stager,
		opts:      opts,
		logger:    logging.OrNop(logger),
	}
	s.NewClient = func(host netip.Addr) *wled.Client {
		client := wled.NewClient(host.String(), s.port(host))
		client.SetTimeout(s.opts.Timeout)
		client.UserAgent = s.opts.UserAgent
		return client
	}
	return s
}

func (s *Sweeper) port(host netip.Addr) int {
	if p, ok := s.opts.HostPorts[host]; ok && p > 0 {
		return p
	}
	return s.opts.Port
}

// OnProgress registers a progress callback.
func (s *Sweeper) OnProgress(fn ProgressFunc) {
	s.progress = fn
}

// Run sweeps hosts in order. A host that fails never stops the sweep; a
// failed git add does, since the run could no longer commit what it saved.
// Cancelling ctx stops the sweep before the next host.
func (s *Sweeper) Run(ctx context.Context, hosts []netip.Addr) (*Report, error) {
	start := time.Now()
	report := &Report{}
	defer func() { report.Duration = time.Since(start) }()

	for i, host := range hosts {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("sweep interrupted after %d of %d hosts: %w", i, len(hosts), err)
		}

		if err := s.visit(ctx, host, report); err != nil {
			return report, err
		}
		report.HostsScanned++

		if s.progress != nil {
			s.progress(i+1, len(hosts), host)
		}
	}

	s.logger.Info("sweep complete",
		zap.Int("hosts", report.HostsScanned),
		zap.Int("devices", len(report.Devices)),
		zap.Int("partial", report.PartialDevices()),
		zap.Int("invalid_config", len(report.InvalidConfig)),
	)
	return report, nil
}

func (s *Sweeper) visit(ctx context.Context, host netip.Addr, report *Report) error {
	client := s.NewClient(host)

	result, err := s.inspector.Inspect(ctx, client, host)
	if err != nil {
		s.logger.Error("failed to save device configuration", zap.Stringer("host", host), zap.Error(err))
		report.HostErrors = append(report.HostErrors, HostError{Host: host, Err: err})
		return nil
	}

	switch result.Status {
	case wled.Unreachable:
		return nil
	case wled.InvalidResponse:
		report.InvalidConfig = append(report.InvalidConfig, host)
		return nil
	}

	device := result.Device
	fetch := s.fetcher.Fetch(ctx, client, device)
	if s.opts.State {
		s.saveState(ctx, client, device, fetch)
	}
	report.Devices = append(report.Devices, DeviceReport{Device: device, Fetch: fetch})

	if s.stager != nil {
		if err := s.stager.Add(ctx, filepath.Base(device.Dir)); err != nil {
			return fmt.Errorf("failed to stage %s: %w", device.Identity, err)
		}
	}
	return nil
}

func (s *Sweeper) saveState(ctx context.Context, client *wled.Client, device *Device, fetch *FetchReport) {
	out := client.StateSnapshot(ctx)
	if !out.OK() {
		s.logger.Info("no state snapshot",
			zap.String("name", device.Identity),
			zap.String("status", out.Status.String()),
			zap.Error(out.Err),
		)
		fetch.fail(StateFile, out.Err)
		return
	}

	if err := writeDeviceFile(device.Dir, StateFile, out.Body); err != nil {
		fetch.fail(StateFile, err)
		return
	}
	fetch.Written = append(fetch.Written, StateFile)
}
