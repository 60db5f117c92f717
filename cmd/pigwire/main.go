// Pigwire is a command-line client for the pigpio daemon socket interface.
//
// It speaks the daemon's binary command protocol over TCP (or a WebSocket
// tunnel), providing GPIO read/write/mode/PWM/servo operations, a live
// terminal monitor for pin level changes, mDNS daemon discovery, and an
// MQTT bridge that republishes level changes to a broker.
//
// Usage:
//
//	pigwire [command] [flags]
//
// The daemon address is taken from --host/--port, then the PIGPIO_ADDR and
// PIGPIO_PORT environment variables, then the configured default daemon,
// falling back to localhost:8888.
// See 'pigwire --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pigwire/pigwire/internal/logging"
	"github.com/pigwire/pigwire/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pigwire",
	Short: "Remote GPIO client for the pigpio daemon",
	Long: `A command-line client for the pigpio daemon socket interface.

Connects to a pigpio daemon over TCP, issues GPIO commands, and streams
pin level change notifications. Supports daemon discovery via mDNS, a
live terminal monitor, and an MQTT bridge for level changes.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pigwire %s\n", version.Full())
	},
}
