package discovery

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/wledbackup/internal/logging"
)

const (
	// ServiceType is the mDNS service type WLED advertises
	ServiceType = "_wled._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default browse window
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the HTTP port assumed when an entry carries none
	DefaultPort = 80
)

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is how long to collect answers
	Timeout time.Duration

	logger *zap.Logger
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner(logger *zap.Logger) *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		logger:  logging.OrNop(logger),
	}
}

// Scan browses for WLED devices until the timeout expires or ctx is
// cancelled, and returns every device that answered with a usable address.
// A device announced more than once is returned once.
func (s *Scanner) Scan(ctx context.Context) ([]*Device, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu      sync.Mutex
		devices []*Device
		seen    = make(map[netip.Addr]bool)
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				device := parseServiceEntry(entry)
				if device == nil {
					s.logger.Debug("ignoring mDNS entry without address", zap.String("instance", entry.Instance))
					continue
				}

				mu.Lock()
				if !seen[device.Addr] {
					seen[device.Addr] = true
					devices = append(devices, device)
					s.logger.Debug("discovered WLED via mDNS",
						zap.String("instance", device.Instance),
						zap.Stringer("addr", device.Addr),
					)
				}
				mu.Unlock()
			}
		}
	}()

	s.logger.Info("browsing mDNS", zap.String("service", ServiceType), zap.Duration("timeout", timeout))
	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	s.logger.Info("mDNS browse complete", zap.Int("devices", len(devices)))
	return append([]*Device(nil), devices...), nil
}

// parseServiceEntry converts a zeroconf service entry to a Device.
// Returns nil when the entry carries no address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil {
		return nil
	}

	// Prefer IPv4, fall back to IPv6.
	addr, ok := firstAddr(entry.AddrIPv4)
	if !ok {
		addr, ok = firstAddr(entry.AddrIPv6)
	}
	if !ok {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Device{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		Addr:         addr,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

func firstAddr(ips []net.IP) (netip.Addr, bool) {
	for _, ip := range ips {
		if addr, ok := netip.AddrFromSlice(ip); ok {
			return addr.Unmap(), true
		}
	}
	return netip.Addr{}, false
}

// AppendHosts appends the addresses of devices to hosts, skipping any
// address already present. Order is preserved.
func AppendHosts(hosts []netip.Addr, devices []*Device) []netip.Addr {
	seen := make(map[netip.Addr]bool, len(hosts)+len(devices))
	for _, h := range hosts {
		seen[h] = true
	}
	for _, d := range devices {
		if seen[d.Addr] {
			continue
		}
		seen[d.Addr] = true
		hosts = append(hosts, d.Addr)
	}
	return hosts
}

// Ports maps each device address to its advertised HTTP port. When an
// address is announced twice the first device wins.
func Ports(devices []*Device) map[netip.Addr]int {
	ports := make(map[netip.Addr]int, len(devices))
	for _, d := range devices {
		if _, ok := ports[d.Addr]; ok || d.Port <= 0 {
			continue
		}
		ports[d.Addr] = d.Port
	}
	return ports
}
