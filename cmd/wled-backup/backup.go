package main

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/muurk/wledbackup/internal/backup"
	"github.com/muurk/wledbackup/internal/config"
	"github.com/muurk/wledbackup/internal/discovery"
	"github.com/muurk/wledbackup/internal/logging"
	"github.com/muurk/wledbackup/internal/repo"
	"github.com/muurk/wledbackup/internal/subnet"
	"github.com/muurk/wledbackup/internal/ui"
	"github.com/muurk/wledbackup/internal/version"
	"github.com/muurk/wledbackup/internal/wled"
)

var (
	outputDir   string
	push        bool
	variant     string
	repair      bool
	saveState   bool
	timeout     time.Duration
	port        int
	useMDNS     bool
	mdnsTimeout time.Duration
	lockTimeout time.Duration
	maxHosts    uint64
	configPath  string
	logLevel    string
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&outputDir, "output", "o", "", "Backup git working copy (required)")
	f.BoolVar(&push, "push", false, "Push after committing")
	f.StringVar(&variant, "variant", config.VariantFiles, "What to save: files (whole device filesystem) or presets")
	f.BoolVar(&repair, "repair", false, "Report devices serving broken JSON files")
	f.BoolVar(&saveState, "state", false, "Also save the device state snapshot over WebSocket")
	f.DurationVar(&timeout, "timeout", wled.DefaultTimeout, "Per-request device timeout")
	f.IntVar(&port, "port", wled.DefaultPort, "Device HTTP port")
	f.BoolVar(&useMDNS, "mdns", false, "Add devices announced via mDNS")
	f.DurationVar(&mdnsTimeout, "mdns-timeout", discovery.DefaultScanTimeout, "How long to listen for mDNS announcements")
	f.DurationVar(&lockTimeout, "lock-timeout", 2*time.Second, "How long to wait for another run on the same output")
	f.Uint64Var(&maxHosts, "max-hosts", 0, "Refuse to sweep more subnet hosts than this (0: no limit)")
	f.StringVar(&configPath, "config", "", "Config file (default: "+defaultConfigPathHint()+")")
	f.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, silent (env "+logging.LogLevelEnvVar+")")
}

func defaultConfigPathHint() string {
	path, err := config.GetConfigPath()
	if err != nil {
		return "none"
	}
	return path
}

// runOptions is the effective configuration of one run after the config
// file and flags are merged.
type runOptions struct {
	Output  string
	Subnets []string
	Push    bool
	Variant string
	Timeout time.Duration
	MDNS    bool
	State   bool
}

// changedFunc reports whether a flag was set on the command line.
type changedFunc func(name string) bool

// mergeOptions layers flags over the config file. Positional subnets replace
// the file's list; every other flag wins only when given explicitly.
func mergeOptions(file *config.File, args []string, flags runOptions, changed changedFunc) runOptions {
	opts := flags

	if !changed("output") && file.Output != "" {
		opts.Output = file.Output
	}
	if !changed("push") && file.Push {
		opts.Push = true
	}
	if !changed("variant") && file.Variant != "" {
		opts.Variant = file.Variant
	}
	if !changed("timeout") && file.Timeout > 0 {
		opts.Timeout = file.Timeout
	}
	if !changed("mdns") && file.MDNS {
		opts.MDNS = true
	}
	if !changed("state") && file.State {
		opts.State = true
	}

	opts.Subnets = args
	if len(opts.Subnets) == 0 {
		opts.Subnets = file.Subnets
	}
	return opts
}

func (o runOptions) validate() error {
	if o.Output == "" {
		return errors.New("--output is required (or set output in the config file)")
	}
	if err := config.ValidateVariant(o.Variant); err != nil {
		return err
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("--timeout must be positive, got %s", o.Timeout)
	}
	if len(o.Subnets) == 0 && !o.MDNS {
		return errors.New("no subnets given and --mdns not set, nothing to back up")
	}
	return nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(logLevel)
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	file, err := config.Load(configPath)
	if err != nil {
		return err
	}

	opts := mergeOptions(file, args, runOptions{
		Output:  outputDir,
		Push:    push,
		Variant: variant,
		Timeout: timeout,
		MDNS:    useMDNS,
		State:   saveState,
	}, cmd.Flags().Changed)
	if err := opts.validate(); err != nil {
		return err
	}

	// Every subnet is checked before any network activity.
	if err := subnet.CheckLimit(opts.Subnets, maxHosts); err != nil {
		return err
	}
	if n, _ := subnet.CountAll(opts.Subnets); n > subnet.LargeSweep {
		logger.Warn("large sweep, this will take a long time",
			zap.Uint64("hosts", n),
			zap.Duration("timeout_per_host", opts.Timeout),
		)
	}
	hosts, err := subnet.ExpandAll(opts.Subnets)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lock, err := repo.Lock(opts.Output, lockTimeout)
	if err != nil {
		return err
	}
	defer lock.Release()

	repository := repo.New(opts.Output, logger)
	if err := repository.Check(ctx); err != nil {
		return fmt.Errorf("%s is not a usable git working copy: %w", opts.Output, err)
	}

	var hostPorts map[netip.Addr]int
	if opts.MDNS {
		hosts, hostPorts, err = discoverHosts(ctx, hosts, logger)
		if err != nil {
			return err
		}
	}

	printer := ui.NewPrinter(os.Stdout)
	printer.PrintHeader(ui.NewHeader("WLED BACKUP", "wled-backup "+strings.Join(os.Args[1:], " "),
		ui.Param{Key: "Output", Value: opts.Output},
		ui.Param{Key: "Subnets", Value: subnetsLabel(opts.Subnets)},
		ui.Param{Key: "Variant", Value: opts.Variant},
		ui.Param{Key: "Hosts", Value: fmt.Sprintf("%d", len(hosts))},
	))

	sweeper := backup.NewSweeper(opts.Output, newFetcher(opts.Variant, logger), repository, backup.Options{
		Port:      port,
		HostPorts: hostPorts,
		Timeout:   opts.Timeout,
		State:     opts.State,
		UserAgent: version.UserAgent("wled-backup"),
	}, logger)

	var bar *ui.SweepProgress
	if showProgress(logging.ResolveLevel(logLevel)) {
		bar = ui.NewSweepProgress(os.Stderr)
		sweeper.OnProgress(func(done, total int, host netip.Addr) {
			bar.Update(done, total, host.String())
		})
	}

	report, err := sweeper.Run(ctx, hosts)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	committed, err := repository.Commit(ctx, repo.CommitMessage)
	if err != nil {
		return err
	}
	if opts.Push {
		if err := repository.Push(ctx); err != nil {
			return err
		}
	}

	return printer.PrintResult(summarize(report, committed, opts.Push))
}

// discoverHosts appends mDNS devices to hosts and returns the port each
// device advertised. A failed browse is fatal only when it was the sole
// source of hosts.
func discoverHosts(ctx context.Context, hosts []netip.Addr, logger *zap.Logger) ([]netip.Addr, map[netip.Addr]int, error) {
	scanner := discovery.NewScanner(logger)
	scanner.Timeout = mdnsTimeout

	devices, err := scanner.Scan(ctx)
	if err != nil {
		if len(hosts) == 0 {
			return nil, nil, fmt.Errorf("mDNS discovery failed: %w", err)
		}
		logger.Warn("mDNS discovery failed, continuing with subnets only", zap.Error(err))
		return hosts, nil, nil
	}

	before := len(hosts)
	hosts = discovery.AppendHosts(hosts, devices)
	logger.Info("mDNS discovery complete",
		zap.Int("announced", len(devices)),
		zap.Int("added", len(hosts)-before),
	)
	return hosts, discovery.Ports(devices), nil
}

func newFetcher(variant string, logger *zap.Logger) backup.Fetcher {
	if variant == config.VariantPresets {
		return backup.NewPresetsFetcher(repair, logger)
	}
	return backup.NewFileListFetcher(repair, logger)
}

// showProgress reports whether the progress line may be drawn. It shares
// stderr with the log, so it is only shown on a terminal and when info
// lines are not being written.
func showProgress(level string) bool {
	if !ui.IsTerminal(os.Stderr) {
		return false
	}
	switch level {
	case "silent", "off":
		return true
	}
	return logging.ParseLevel(level) >= zapcore.WarnLevel
}

func subnetsLabel(subnets []string) string {
	if len(subnets) == 0 {
		return "(mDNS only)"
	}
	return strings.Join(subnets, ", ")
}

// summarize builds the closing result box of a run.
func summarize(report *backup.Report, committed, pushed bool) *ui.Result {
	typ, title := ui.ResultSuccess, "Backup complete"
	if report.PartialDevices() > 0 {
		typ, title = ui.ResultWarning, "Backup complete with missing files"
	}

	result := ui.NewResult(typ, title).
		AddDetail("Hosts scanned", fmt.Sprintf("%d", report.HostsScanned)).
		AddDetail("Devices saved", fmt.Sprintf("%d", len(report.Devices))).
		AddDetail("Invalid config", fmt.Sprintf("%d", len(report.InvalidConfig))).
		AddDetail("Duration", report.Duration.Round(time.Millisecond).String())

	switch {
	case committed && pushed:
		result.AddDetail("Commit", "created and pushed")
	case committed:
		result.AddDetail("Commit", "created")
	default:
		result.AddDetail("Commit", "nothing changed")
	}

	for _, d := range report.Devices {
		if d.Fetch == nil || !d.Fetch.Partial() {
			continue
		}
		for _, f := range d.Fetch.Failed {
			result.AddItem(fmt.Sprintf("%s (%s): %s %s", d.Device.Identity, d.Device.Host, f.Path, wled.ShortErrorMessage(f.Err)))
		}
	}
	return result
}
