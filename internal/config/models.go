package config

import "time"

// Registry is the entire user configuration file: the set of known daemons
// plus application preferences. It stores client-side metadata only; the
// daemons themselves keep no per-client state.
type Registry struct {
	Version     int                `yaml:"version"`
	Daemons     map[string]*Daemon `yaml:"daemons,omitempty"` // Keyed by user-chosen name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Daemon is one known peripheral daemon.
type Daemon struct {
	Host     string    `yaml:"host"`                // Hostname or IP
	Port     int       `yaml:"port,omitempty"`      // 0 means the default port 8888
	Nickname string    `yaml:"nickname,omitempty"`  // Free-form label
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last successful connection or scan hit
}

// Preferences are application-wide settings.
type Preferences struct {
	DefaultDaemon    string `yaml:"default_daemon,omitempty"`  // Name used when no --host is given
	ScanTimeout      int    `yaml:"scan_timeout,omitempty"`    // mDNS scan timeout in seconds
	CommandTimeoutMs int    `yaml:"command_timeout,omitempty"` // Per-command reply timeout, 0 = none
}
