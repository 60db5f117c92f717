package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Daemon is one peripheral daemon found on the local network.
type Daemon struct {
	// Hostname is the mDNS hostname (e.g., "workshop-pi.local")
	Hostname string

	// IP is the IPv4 address
	IP string

	// Port is the daemon's command port (typically 8888)
	Port int

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the daemon was found
	DiscoveredAt time.Time
}

// String returns a human-readable description of the daemon.
func (d *Daemon) String() string {
	return fmt.Sprintf("daemon at %s:%d (%s)", d.IP, d.Port, d.Hostname)
}

// Addr returns the dial address for the daemon.
func (d *Daemon) Addr() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// GetMetadata retrieves a TXT record value by key, or "" if not present.
func (d *Daemon) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
