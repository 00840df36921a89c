package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/g6audio/g6ctl/internal/config"
	"github.com/g6audio/g6ctl/internal/device"
	"github.com/g6audio/g6ctl/internal/hidio"
	"github.com/g6audio/g6ctl/internal/protocol"
	"github.com/g6audio/g6ctl/internal/server"
	"github.com/g6audio/g6ctl/internal/tui"
)

// Command flags
var (
	outputFormat string
	serveHost    string
	servePort    int
	serveLog     string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(outputCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(presetCmd)
	rootCmd.AddCommand(eqCmd)
	rootCmd.AddCommand(firmwareCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(serveCmd)
}

// withDevice loads the settings registry, opens a device session and runs fn.
// The persisted profile is replayed before the first read when the
// restore_on_connect preference is set.
func withDevice(fn func(*device.Manager, *config.Registry) error) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	manager := device.NewManager(registry.ManagerOptions())

	if registry.Preferences != nil && registry.Preferences.RestoreOnConnect {
		if settings, ok := registry.Settings(); ok {
			manager.Store().Restore(settings)
		}
	}

	if err := manager.Connect(); err != nil {
		if hint := device.GetTroubleshootingHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
			fmt.Fprintln(os.Stderr)
		}
		return err
	}
	defer func() { _ = manager.Disconnect() }()

	return fn(manager, registry)
}

// persistState saves the current device state as the new profile
func persistState(manager *device.Manager, registry *config.Registry) {
	registry.RecordSettings(manager.State())
	if err := registry.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save profile: %v\n", err)
	}
}

// reportWrite prints the outcome of a device write. An unconfirmed write is
// reported as a warning, not a failure: the state was applied optimistically
// and the broadcast listener corrects it if the device disagrees.
func reportWrite(err error, what string) error {
	if err == nil {
		fmt.Printf("✓ %s\n", what)
		return nil
	}
	if device.IsUnconfirmed(err) {
		fmt.Printf("⚠ %s (device did not confirm, state applied optimistically)\n", what)
		return nil
	}
	return err
}

// statusCmd shows the full device state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device status",
	Long: `Connect to the device, read back its full state and display it.

The read covers output routing, all SBX effects, gaming modes, the
equalizer and the firmware version.`,
	Example: `  # Detailed status
  g6ctl status

  # JSON output for scripting
  g6ctl status --format json`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withDevice(func(manager *device.Manager, registry *config.Registry) error {
		state := manager.State()

		switch outputFormat {
		case "json":
			data, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			fmt.Println(string(data))
		default:
			printStatus(state)
		}

		persistState(manager, registry)
		return nil
	})
}

func printStatus(state device.Settings) {
	fmt.Println("Sound Blaster X G6")
	fmt.Printf("  Firmware:  %s\n", orUnknown(state.Firmware))
	fmt.Printf("  Output:    %s\n", state.OutputStr)
	fmt.Printf("  SBX Mode:  %s\n", onOff(state.SBXMode))
	fmt.Printf("  Scout:     %s\n", onOff(state.ScoutMode))
	fmt.Println()

	fmt.Println("Effects:")
	for _, effect := range protocol.Effects() {
		setting := state.Effect(effect)
		line := fmt.Sprintf("  %-12s %-4s %3d%%", effect.String(), onOff(setting.Enabled), setting.Level)
		if effect == protocol.EffectSmartVolume && state.SmartVolumePreset != protocol.PresetNone {
			line += fmt.Sprintf("  (preset: %s)", state.SmartVolumePreset)
		}
		fmt.Println(line)
	}

	if caps := capabilityNames(state.Capabilities); len(caps) > 0 {
		fmt.Println()
		fmt.Printf("Capabilities: %s\n", strings.Join(caps, ", "))
	}

	if len(state.Equalizer) > 0 {
		fmt.Println()
		fmt.Printf("Equalizer (%d bands):\n", len(state.Equalizer))
		for _, band := range state.Equalizer {
			fmt.Printf("  band %2d: %3d%%\n", band.Band, band.Level)
		}
	}
}

func capabilityNames(caps byte) []string {
	var names []string
	if caps&protocol.CapSurround != 0 {
		names = append(names, "surround")
	}
	if caps&protocol.CapCrystalizer != 0 {
		names = append(names, "crystalizer")
	}
	if caps&protocol.CapBass != 0 {
		names = append(names, "bass")
	}
	if caps&protocol.CapSmartVolume != 0 {
		names = append(names, "smartvolume")
	}
	if caps&protocol.CapDialogPlus != 0 {
		names = append(names, "dialogplus")
	}
	return names
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// setCmd changes one SBX effect
var setCmd = &cobra.Command{
	Use:   "set <effect> <on|off> [level]",
	Short: "Set an SBX effect",
	Long: `Enable or disable an SBX effect, optionally setting its level.

Effects: surround, crystalizer, bass, smartvolume, dialogplus.
Levels are percentages from 0 to 100.`,
	Example: `  # Enable bass boost at 75%
  g6ctl set bass on 75

  # Disable surround, keeping its stored level
  g6ctl set surround off

  # Change crystalizer level without touching the toggle
  g6ctl set crystalizer on 40`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	effect, err := protocol.ParseEffect(args[0])
	if err != nil {
		return err
	}

	enabled, err := parseOnOff(args[1])
	if err != nil {
		return err
	}

	var level *uint8
	if len(args) == 3 {
		parsed, err := strconv.ParseUint(args[2], 10, 8)
		if err != nil || parsed > 100 {
			return fmt.Errorf("invalid level %q (expected 0-100)", args[2])
		}
		v := uint8(parsed)
		level = &v
	}

	return withDevice(func(manager *device.Manager, registry *config.Registry) error {
		err := manager.SetEffect(effect, enabled, level)
		what := fmt.Sprintf("%s %s", effect, onOff(enabled))
		if level != nil {
			what += fmt.Sprintf(" at %d%%", *level)
		}
		if err := reportWrite(err, what); err != nil {
			return err
		}
		persistState(manager, registry)
		return nil
	})
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid value %q (expected on or off)", s)
	}
}

// outputCmd switches or shows the output route
var outputCmd = &cobra.Command{
	Use:   "output [speakers|headphones|toggle]",
	Short: "Show or switch the output route",
	Long: `Switch the output relay between speakers and headphones.

Without an argument, the current route is printed. The relay switch is
applied optimistically: the device reports the change back on the status
interface rather than acknowledging the command.`,
	Example: `  # Show current output
  g6ctl output

  # Switch to speakers
  g6ctl output speakers

  # Flip whichever way it is
  g6ctl output toggle`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOutput,
}

func runOutput(cmd *cobra.Command, args []string) error {
	return withDevice(func(manager *device.Manager, registry *config.Registry) error {
		if len(args) == 0 {
			fmt.Println(manager.State().OutputStr)
			return nil
		}

		var err error
		switch strings.ToLower(args[0]) {
		case "speakers":
			err = manager.SetOutput(protocol.RouteSpeakers)
		case "headphones":
			err = manager.SetOutput(protocol.RouteHeadphones)
		case "toggle":
			err = manager.ToggleOutput()
		default:
			return fmt.Errorf("invalid output %q (expected speakers, headphones or toggle)", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("✓ output %s\n", manager.State().OutputStr)
		persistState(manager, registry)
		return nil
	})
}

// modeCmd flips the gaming mode switches
var modeCmd = &cobra.Command{
	Use:   "mode <sbx|scout> <on|off>",
	Short: "Set SBX master or Scout Mode",
	Long: `Flip the SBX master switch or Scout Mode.

The SBX master switch gates the whole effect block; Scout Mode is the
footstep-enhancement profile. The two are independent.`,
	Example: `  # Enable the SBX effect block
  g6ctl mode sbx on

  # Enable Scout Mode
  g6ctl mode scout on`,
	Args: cobra.ExactArgs(2),
	RunE: runMode,
}

func runMode(cmd *cobra.Command, args []string) error {
	enabled, err := parseOnOff(args[1])
	if err != nil {
		return err
	}

	return withDevice(func(manager *device.Manager, registry *config.Registry) error {
		var opErr error
		switch strings.ToLower(args[0]) {
		case "sbx":
			opErr = manager.SetSBXMode(enabled)
		case "scout":
			opErr = manager.SetScoutMode(enabled)
		default:
			return fmt.Errorf("invalid mode %q (expected sbx or scout)", args[0])
		}

		if err := reportWrite(opErr, fmt.Sprintf("%s mode %s", strings.ToLower(args[0]), onOff(enabled))); err != nil {
			return err
		}
		persistState(manager, registry)
		return nil
	})
}

// presetCmd sets the smart volume preset
var presetCmd = &cobra.Command{
	Use:   "preset <none|night|loud>",
	Short: "Set the Smart Volume preset",
	Example: `  # Night mode compression
  g6ctl preset night

  # Back to no preset
  g6ctl preset none`,
	Args: cobra.ExactArgs(1),
	RunE: runPreset,
}

func runPreset(cmd *cobra.Command, args []string) error {
	preset := protocol.SmartVolumePreset(strings.ToLower(args[0]))
	switch preset {
	case protocol.PresetNone, protocol.PresetNight, protocol.PresetLoud:
	default:
		return fmt.Errorf("invalid preset %q (expected none, night or loud)", args[0])
	}

	return withDevice(func(manager *device.Manager, registry *config.Registry) error {
		if err := reportWrite(manager.SetSmartVolumePreset(preset), "smart volume preset "+string(preset)); err != nil {
			return err
		}
		persistState(manager, registry)
		return nil
	})
}

// eqCmd sets one equalizer band
var eqCmd = &cobra.Command{
	Use:   "eq <band> <level>",
	Short: "Set an equalizer band",
	Long: fmt.Sprintf(`Set one hardware equalizer band to a 0-100 level.

Band indices run from 0 to %d.`, protocol.EqualizerBandMax),
	Example: `  # Boost band 3 to 70%
  g6ctl eq 3 70`,
	Args: cobra.ExactArgs(2),
	RunE: runEq,
}

func runEq(cmd *cobra.Command, args []string) error {
	band, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil || band > uint64(protocol.EqualizerBandMax) {
		return fmt.Errorf("invalid band %q (expected 0-%d)", args[0], protocol.EqualizerBandMax)
	}
	level, err := strconv.ParseUint(args[1], 10, 8)
	if err != nil || level > 100 {
		return fmt.Errorf("invalid level %q (expected 0-100)", args[1])
	}

	return withDevice(func(manager *device.Manager, registry *config.Registry) error {
		err := manager.SetEqualizerBand(byte(band), uint8(level))
		if err := reportWrite(err, fmt.Sprintf("equalizer band %d at %d%%", band, level)); err != nil {
			return err
		}
		persistState(manager, registry)
		return nil
	})
}

// firmwareCmd prints firmware and capability information
var firmwareCmd = &cobra.Command{
	Use:   "firmware",
	Short: "Show firmware version and capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(manager *device.Manager, registry *config.Registry) error {
			state := manager.State()
			fmt.Printf("Firmware:     %s\n", orUnknown(state.Firmware))
			fmt.Printf("Capabilities: 0x%02x", state.Capabilities)
			if caps := capabilityNames(state.Capabilities); len(caps) > 0 {
				fmt.Printf(" (%s)", strings.Join(caps, ", "))
			}
			fmt.Println()
			return nil
		})
	},
}

// devicesCmd enumerates attached G6 interfaces without opening a session
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List attached G6 HID interfaces",
	Long: `Enumerate the HID interfaces the G6 exposes on the USB bus.

This does not open a device session; it only lists what the HID layer can
see. Useful for diagnosing permission problems.`,
	RunE: runDevices,
}

func runDevices(cmd *cobra.Command, args []string) error {
	devices, err := hidio.ListDevices()
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		fmt.Println("No G6 devices found.")
		fmt.Println()
		fmt.Println("Troubleshooting:")
		fmt.Println("  - Check the USB cable and that the device is powered on")
		fmt.Println("  - On Linux, verify udev rules grant access to hidraw nodes")
		fmt.Println("  - Close other software that may hold the device open")
		return nil
	}

	fmt.Printf("Found %d interface(s):\n\n", len(devices))
	for i, dev := range devices {
		fmt.Printf("%d. %s\n", i+1, orUnknown(dev.Product))
		fmt.Printf("   Interface: %d%s\n", dev.Interface, interfaceRole(dev.Interface))
		fmt.Printf("   Serial:    %s\n", orUnknown(dev.SerialNumber))
		fmt.Printf("   Path:      %s\n", dev.Path)
		fmt.Println()
	}
	return nil
}

func interfaceRole(iface int) string {
	switch iface {
	case protocol.ControlInterface:
		return " (control)"
	case protocol.StatusInterface:
		return " (status broadcasts)"
	case protocol.KnobInterface:
		return " (volume knob)"
	default:
		return ""
	}
}

// monitorCmd launches the live TUI dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Launch the live monitor dashboard",
	Long: `Launch a live dashboard showing device state and events as they happen.

The dashboard follows hardware-initiated changes (relay button presses,
volume knob motion) and can drive effect toggles, the output switch and
gaming modes directly.`,
	RunE: runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	return withDevice(func(manager *device.Manager, registry *config.Registry) error {
		if err := tui.Run(manager); err != nil {
			return fmt.Errorf("monitor error: %w", err)
		}
		persistState(manager, registry)
		return nil
	})
}

// serveCmd runs the local event bridge
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP/WebSocket event bridge",
	Long: `Run a local bridge exposing device state and the event stream.

Endpoints:
  GET /state   - current settings snapshot as JSON
  GET /events  - WebSocket stream of device events
  GET /healthz - connection flag and client count

The bridge holds the device session open until interrupted.`,
	Example: `  # Serve on the default local port
  g6ctl serve

  # Custom bind address
  g6ctl serve --host 0.0.0.0 --port 9000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Bind address")
	serveCmd.Flags().IntVar(&servePort, "port", 8732, "Bind port")
	serveCmd.Flags().StringVar(&serveLog, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	return withDevice(func(manager *device.Manager, registry *config.Registry) error {
		srv, err := server.New(&server.Config{
			Host:     serveHost,
			Port:     servePort,
			LogLevel: serveLog,
		}, manager)
		if err != nil {
			return err
		}
		return srv.Start()
	})
}
