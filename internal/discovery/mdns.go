package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type daemons are advertised under
	// (the daemon itself does not advertise; an avahi service file on the
	// host typically provides the record).
	ServiceType = "_pigpio._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for daemon discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the daemon's standard command port
	DefaultPort = 8888
)

// Scanner handles mDNS daemon discovery.
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration
}

// NewScanner creates a scanner with default settings.
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// ScanForDaemons discovers all advertised daemons on the local network.
func (s *Scanner) ScanForDaemons() ([]*Daemon, error) {
	return s.ScanForDaemonsWithContext(context.Background())
}

// ScanForDaemonsWithContext discovers daemons with a custom context.
func (s *Scanner) ScanForDaemonsWithContext(ctx context.Context) ([]*Daemon, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	daemons := make([]*Daemon, 0)
	collected := make(chan struct{})

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		defer close(collected)
		for entry := range entries {
			if d := parseServiceEntry(entry); d != nil {
				daemons = append(daemons, d)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-collected

	return daemons, nil
}

// Probe checks whether something is listening on the daemon port at host,
// for networks without mDNS records. It only verifies TCP reachability;
// the first real command confirms the protocol.
func Probe(host string, port int, timeout time.Duration) (*Daemon, error) {
	if port == 0 {
		port = DefaultPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("no daemon reachable at %s: %w", addr, err)
	}
	conn.Close()

	return &Daemon{
		Hostname:     host,
		IP:           host,
		Port:         port,
		DiscoveredAt: time.Now(),
	}, nil
}

// parseServiceEntry converts a zeroconf service entry to a Daemon.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Daemon {
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" {
		for _, addr := range entry.AddrIPv6 {
			ip = addr.String()
			break
		}
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		if k, v, ok := strings.Cut(txt, "="); ok {
			metadata[k] = v
		}
	}

	return &Daemon{
		Hostname:     strings.TrimSuffix(entry.HostName, "."),
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForDaemons discovers daemons using a one-off scanner with the given
// timeout.
func ScanForDaemons(timeout time.Duration) ([]*Daemon, error) {
	s := NewScanner()
	if timeout > 0 {
		s.Timeout = timeout
	}
	return s.ScanForDaemons()
}
