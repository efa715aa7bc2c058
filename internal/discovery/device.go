package discovery

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"
)

// Device represents a WLED device found via mDNS
type Device struct {
	// Instance is the advertised service instance name (e.g., "wled-porch")
	Instance string

	// Hostname is the mDNS hostname (e.g., "wled-porch.local.")
	Hostname string

	// Addr is the device address, IPv4 when the device announced one
	Addr netip.Addr

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the TXT record data (WLED publishes "mac=...")
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("WLED %s at %s", d.Instance, net.JoinHostPort(d.Addr.String(), strconv.Itoa(d.Port)))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
