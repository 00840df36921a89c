package protocol

import "fmt"

// USB identifiers for the Sound Blaster X G6.
const (
	VendorID  uint16 = 0x041e // Creative Technology Ltd
	ProductID uint16 = 0x3256 // Sound Blaster X G6
)

// HID interface numbers. The G6 exposes two audio and several HID
// interfaces; only the control interface accepts command frames, the others
// silently ignore them. The status and knob interfaces carry unsolicited
// broadcasts.
const (
	ControlInterface = 4
	StatusInterface  = 3
	KnobInterface    = 5
)

// Frame layout constants
const (
	FrameSync = 0x5a // byte 0 of every control frame
	FrameSize = 64   // payload size; writes prepend a report id byte
	ReportID  = 0x00 // mandatory leading report id on writes
)

// Family is the command family carried in byte 1 of every control frame.
// It selects which protocol sub-area the frame belongs to.
type Family byte

const (
	FamilyIdentification Family = 0x05 // device info and capability flags
	FamilyFirmware       Family = 0x07 // firmware version (ASCII mode discovered)
	FamilyHardwareStatus Family = 0x10 // hardware state
	FamilyAudioControl   Family = 0x11 // read/commit for SBX and EQ parameters
	FamilyDataControl    Family = 0x12 // parameter data writes
	FamilyBatchControl   Family = 0x15 // multiple params simultaneously
	FamilyProcessing     Family = 0x20 // audio processing engine
	FamilyGaming         Family = 0x26 // SBX master and Scout Mode switches
	FamilyRouting        Family = 0x2c // output relay switching
	FamilyDeviceConfig   Family = 0x30 // general device settings
	FamilyDigitalFilter  Family = 0x39 // DAC filter selection
	FamilySystemConfig   Family = 0x3a // LEDs, system parameters
)

// String returns a human-readable family name
func (f Family) String() string {
	switch f {
	case FamilyIdentification:
		return "Identification"
	case FamilyFirmware:
		return "Firmware"
	case FamilyHardwareStatus:
		return "HardwareStatus"
	case FamilyAudioControl:
		return "AudioControl"
	case FamilyDataControl:
		return "DataControl"
	case FamilyBatchControl:
		return "BatchControl"
	case FamilyProcessing:
		return "Processing"
	case FamilyGaming:
		return "Gaming"
	case FamilyRouting:
		return "Routing"
	case FamilyDeviceConfig:
		return "DeviceConfig"
	case FamilyDigitalFilter:
		return "DigitalFilter"
	case FamilySystemConfig:
		return "SystemConfig"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", byte(f))
	}
}

// Operation bytes within families (byte 2 of a control frame)
const (
	OpData      = 0x07 // FamilyDataControl: write parameter data
	OpRead      = 0x03 // FamilyAudioControl: read/commit a parameter
	OpReport    = 0x08 // FamilyAudioControl: parameter report from device
	OpQuery     = 0x0a // live-state query
	OpRouteSet  = 0x05 // FamilyRouting: select output destination
	OpCommit    = 0x01 // FamilyRouting: commit the relay switch
	OpAsciiMode = 0x01 // FamilyFirmware: ASCII response mode (with sub-op 0x02)
)

// Selector chooses the parameter space for audio control operations.
// It is written big-endian at bytes 3-4 of data/read frames.
type Selector uint16

const (
	SelectorSBX       Selector = 0x0196 // SBX audio effects
	SelectorEqualizer Selector = 0x0195 // equalizer bands
)

// Low returns the selector low byte, the form report frames carry
func (s Selector) Low() byte {
	return byte(s)
}

// String returns a human-readable selector name
func (s Selector) String() string {
	switch s {
	case SelectorSBX:
		return "SBX"
	case SelectorEqualizer:
		return "Equalizer"
	default:
		return fmt.Sprintf("Selector(0x%04x)", uint16(s))
	}
}

// FeatureID is the per-selector parameter id carried at byte 5 of data/read
// frames and byte 6 of report frames.
type FeatureID byte

// SBX feature ids (SelectorSBX). Toggles carry exactly 0.0 or 1.0; level
// sliders carry 0.0-1.0. The slider id is the toggle id plus one, except for
// bass which lives at the top of the id space.
const (
	FeatureSurroundToggle    FeatureID = 0x00
	FeatureSurroundLevel     FeatureID = 0x01
	FeatureDialogPlusToggle  FeatureID = 0x02
	FeatureDialogPlusLevel   FeatureID = 0x03
	FeatureSmartVolumeToggle FeatureID = 0x04
	FeatureSmartVolumeLevel  FeatureID = 0x05
	FeatureSmartVolumePreset FeatureID = 0x06
	FeatureCrystalizerToggle FeatureID = 0x07
	FeatureCrystalizerLevel  FeatureID = 0x08
	FeatureBassToggle        FeatureID = 0x18
	FeatureBassLevel         FeatureID = 0x19
)

// Effect identifies one of the five SBX audio effects
type Effect int

const (
	EffectSurround Effect = iota
	EffectCrystalizer
	EffectBass
	EffectSmartVolume
	EffectDialogPlus
)

// ToggleID returns the feature id of the effect's on/off switch
func (e Effect) ToggleID() FeatureID {
	switch e {
	case EffectSurround:
		return FeatureSurroundToggle
	case EffectCrystalizer:
		return FeatureCrystalizerToggle
	case EffectBass:
		return FeatureBassToggle
	case EffectSmartVolume:
		return FeatureSmartVolumeToggle
	default:
		return FeatureDialogPlusToggle
	}
}

// LevelID returns the feature id of the effect's intensity slider
func (e Effect) LevelID() FeatureID {
	switch e {
	case EffectSurround:
		return FeatureSurroundLevel
	case EffectCrystalizer:
		return FeatureCrystalizerLevel
	case EffectBass:
		return FeatureBassLevel
	case EffectSmartVolume:
		return FeatureSmartVolumeLevel
	default:
		return FeatureDialogPlusLevel
	}
}

// String returns the effect's command-line name
func (e Effect) String() string {
	switch e {
	case EffectSurround:
		return "surround"
	case EffectCrystalizer:
		return "crystalizer"
	case EffectBass:
		return "bass"
	case EffectSmartVolume:
		return "smartvolume"
	case EffectDialogPlus:
		return "dialogplus"
	default:
		return fmt.Sprintf("Effect(%d)", int(e))
	}
}

// Effects returns all five effects in display order
func Effects() []Effect {
	return []Effect{
		EffectSurround,
		EffectCrystalizer,
		EffectBass,
		EffectSmartVolume,
		EffectDialogPlus,
	}
}

// ParseEffect resolves a command-line effect name
func ParseEffect(name string) (Effect, error) {
	for _, e := range Effects() {
		if e.String() == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown effect %q (want surround, crystalizer, bass, smartvolume or dialogplus)", name)
}

// Parameter id ranges scanned during a full resync.
const (
	SBXFeatureMax    FeatureID = 0x1d // SBX ids 0x00..0x1d, inclusive
	EqualizerBandMax FeatureID = 0x1b // EQ band ids 0x00..0x1b, inclusive
)

// Gaming-family feature ids (byte 4 of 0x26 data frames)
const (
	GamingFeatureSBX   = 0x01 // SBX master switch
	GamingFeatureScout = 0x02 // Scout Mode
)

// Gaming live-state bitmask bits (byte 6 of 0x26 query reports)
const (
	GamingMaskSBX   = 0x01
	GamingMaskScout = 0x02
)

// Route is the output destination code used by the routing family.
type Route byte

const (
	RouteSpeakers   Route = 0x02
	RouteHeadphones Route = 0x04
)

// Valid reports whether r is a known destination code
func (r Route) Valid() bool {
	return r == RouteSpeakers || r == RouteHeadphones
}

// Other returns the opposite destination
func (r Route) Other() Route {
	if r == RouteSpeakers {
		return RouteHeadphones
	}
	return RouteSpeakers
}

// String returns a human-readable route name
func (r Route) String() string {
	switch r {
	case RouteSpeakers:
		return "speakers"
	case RouteHeadphones:
		return "headphones"
	default:
		return fmt.Sprintf("Route(0x%02x)", byte(r))
	}
}

// Capability bits reported at byte 3 of the identification response
// (5a 05 04 <flags>).
const (
	CapSurround    = 1 << 0
	CapCrystalizer = 1 << 1
	CapBass        = 1 << 2
	CapSmartVolume = 1 << 3
	CapDialogPlus  = 1 << 4
)
