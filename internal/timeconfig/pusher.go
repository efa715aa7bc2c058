package timeconfig

import (
	"context"
	"net/netip"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wledbackup/internal/logging"
	"github.com/muurk/wledbackup/internal/wled"
)

// DefaultTimeout is the per-host request timeout.
const DefaultTimeout = 5 * time.Second

// HostFailure records a host the settings could not be applied to.
type HostFailure struct {
	Host netip.Addr
	Err  error
}

// PushReport summarises a push.
type PushReport struct {
	Applied  []netip.Addr
	Failed   []HostFailure
	Duration time.Duration
}

// Pusher posts time settings to every host of a sweep.
type Pusher struct {
	Settings Settings
	Port     int
	Timeout  time.Duration

	// UserAgent is sent to devices when set
	UserAgent string

	// NewClient builds the device client for a host. Tests replace it.
	NewClient func(host netip.Addr) *wled.Client

	logger *zap.Logger
}

// NewPusher creates a pusher for settings.
func NewPusher(settings Settings, logger *zap.Logger) *Pusher {
	p := &Pusher{
		Settings: settings,
		Port:     wled.DefaultPort,
		Timeout:  DefaultTimeout,
		logger:   logging.OrNop(logger),
	}
	p.NewClient = func(host netip.Addr) *wled.Client {
		client := wled.NewClient(host.String(), p.Port)
		client.SetTimeout(p.Timeout)
		client.UserAgent = p.UserAgent
		return client
	}
	return p
}

// Push submits the settings to each host in order. A host that fails is
// logged and recorded; the push continues with the next one. Only a
// cancelled ctx stops it early.
func (p *Pusher) Push(ctx context.Context, hosts []netip.Addr) *PushReport {
	start := time.Now()
	report := &PushReport{}
	defer func() { report.Duration = time.Since(start) }()

	form := p.Settings.FormData()
	if p.Settings.Empty() {
		p.logger.Warn("no settings given, submitting an empty form")
	}

	for _, host := range hosts {
		if ctx.Err() != nil {
			p.logger.Warn("push interrupted", zap.Int("remaining", len(hosts)-len(report.Applied)-len(report.Failed)))
			break
		}

		if err := p.NewClient(host).PostForm(ctx, wled.TimeSettingsPath, form); err != nil {
			p.logger.Error("error setting config",
				zap.Stringer("host", host),
				zap.String("reason", wled.ShortErrorMessage(err)),
				zap.Error(err),
			)
			report.Failed = append(report.Failed, HostFailure{Host: host, Err: err})
			continue
		}

		p.logger.Info("applied time settings", zap.Stringer("host", host))
		report.Applied = append(report.Applied, host)
	}

	p.logger.Info("push complete",
		zap.Int("applied", len(report.Applied)),
		zap.Int("failed", len(report.Failed)),
	)
	return report
}
