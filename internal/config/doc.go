// Package config stores the user's daemon registry: named daemon
// addresses plus client preferences, kept as YAML under the OS config
// directory ($XDG_CONFIG_HOME/pigwire/daemons.yaml on Linux).
//
// Address resolution for CLI commands is layered: an explicit --host flag
// beats the PIGPIO_ADDR/PIGPIO_PORT environment variables, which beat the
// registry's default daemon, which beats localhost. Saves are atomic
// (write to a temp file, then rename) so a crash cannot corrupt the
// registry.
package config
