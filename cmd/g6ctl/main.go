// G6ctl is a control utility for the Sound Blaster X G6 USB audio device.
//
// It speaks the vendor HID protocol directly: SBX effect toggles and levels,
// output routing between speakers and headphones, gaming modes, the
// hardware equalizer, and a live monitor for device-initiated changes
// (relay button, volume knob).
//
// Usage:
//
//	g6ctl [command] [flags]
//
// Running without arguments prints the current device status.
// See 'g6ctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/g6audio/g6ctl/internal/logging"
	"github.com/g6audio/g6ctl/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "g6ctl",
	Short: "Sound Blaster X G6 Control Utility",
	Long: `A standalone utility for controlling the Sound Blaster X G6 over USB HID.

Provides SBX effect control, output routing, gaming modes, equalizer
access, a live monitor dashboard, and a local event bridge.

If no command is specified, the current device status is printed.`,
	Version: version.Version,
	// Silent by default; G6CTL_LOG_LEVEL turns on zap output with hex/ascii
	// frame dumps at debug
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: show status when no subcommand provided
		return runStatus(cmd, args)
	},
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
		fmt.Printf("g6ctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
