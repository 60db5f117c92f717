package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "pigwire"
	configFile = "daemons.yaml"

	// Environment variables honored for daemon addressing, matching the
	// convention the daemon's own tooling uses.
	AddrEnvVar = "PIGPIO_ADDR"
	PortEnvVar = "PIGPIO_PORT"
)

var (
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
	globalRegistryErr  error

	fileMutex sync.Mutex
)

// GetConfigDir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/pigwire or $HOME/.config/pigwire
//   - macOS: $HOME/.config/pigwire
//   - Windows: %LOCALAPPDATA%\pigwire
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// NewRegistry returns an empty registry with defaults.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Daemons: make(map[string]*Daemon),
		Preferences: &Preferences{
			ScanTimeout: 10,
		},
	}
}

// LoadRegistry loads the registry from disk, returning a default registry
// when no file exists yet. Repeated calls return the same instance.
func LoadRegistry() (*Registry, error) {
	globalRegistryOnce.Do(func() {
		path, err := GetConfigPath()
		if err != nil {
			globalRegistryErr = err
			return
		}
		globalRegistry, globalRegistryErr = loadPath(path)
	})
	return globalRegistry, globalRegistryErr
}

// loadPath reads and validates a registry file.
func loadPath(path string) (*Registry, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewRegistry(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if registry.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", registry.Version)
	}

	if registry.Daemons == nil {
		registry.Daemons = make(map[string]*Daemon)
	}
	if registry.Preferences == nil {
		registry.Preferences = &Preferences{ScanTimeout: 10}
	}

	return &registry, nil
}

// Save writes the registry to disk atomically (write-then-rename).
func (r *Registry) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return r.savePath(path)
}

func (r *Registry) savePath(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# pigwire daemon registry
# Stores known peripheral daemons and client preferences.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// Remember records a daemon under the given name, updating its last-seen
// time.
func (r *Registry) Remember(name, host string, port int) {
	if r.Daemons == nil {
		r.Daemons = make(map[string]*Daemon)
	}
	r.Daemons[name] = &Daemon{
		Host:     host,
		Port:     port,
		LastSeen: time.Now(),
	}
}

// Addr returns the daemon's dial address, applying the default port when
// none is recorded.
func (d *Daemon) Addr() string {
	port := d.Port
	if port == 0 {
		port = 8888
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(port))
}

// ResolveAddr decides which daemon address to dial, in priority order:
// an explicit host flag, the PIGPIO_ADDR/PIGPIO_PORT environment, the
// registry's default daemon, and finally localhost.
func ResolveAddr(flagHost string, flagPort int, reg *Registry) string {
	if flagHost != "" {
		port := flagPort
		if port == 0 {
			port = 8888
		}
		return net.JoinHostPort(flagHost, strconv.Itoa(port))
	}

	if host := os.Getenv(AddrEnvVar); host != "" {
		port := 8888
		if p, err := strconv.Atoi(os.Getenv(PortEnvVar)); err == nil && p > 0 {
			port = p
		}
		return net.JoinHostPort(host, strconv.Itoa(port))
	}

	if reg != nil && reg.Preferences != nil && reg.Preferences.DefaultDaemon != "" {
		if d, ok := reg.Daemons[reg.Preferences.DefaultDaemon]; ok {
			return d.Addr()
		}
	}

	return "localhost:8888"
}
