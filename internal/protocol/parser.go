package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Toggle floats on the wire are exactly 1.0 or 0.0; tolerance only absorbs
// float32 round-trips, never partial states.
const toggleEpsilon = 0.0001

// Message represents a decoded inbound frame
type Message interface {
	Family() Family
	String() string
}

// EffectReport (0x11/0x08) - current value of one SBX or equalizer parameter.
// The device emits these in response to read/commit frames and as echoes
// after data writes.
type EffectReport struct {
	Selector Selector  // SBX or equalizer parameter space
	Feature  FeatureID // parameter id within the selector
	Value    float32   // raw wire float
}

func (m *EffectReport) Family() Family { return FamilyAudioControl }

// Enabled interprets the value as a toggle state
func (m *EffectReport) Enabled() bool {
	return m.Value > toggleEpsilon
}

// Level interprets the value as a 0-100 percent slider
func (m *EffectReport) Level() uint8 {
	return LevelFromValue(m.Value)
}

func (m *EffectReport) String() string {
	return fmt.Sprintf("EffectReport{selector=%s, feature=0x%02x, value=%.4f}",
		m.Selector, byte(m.Feature), m.Value)
}

// RouteReport (0x2c) - output relay position
type RouteReport struct {
	Route Route
}

func (m *RouteReport) Family() Family { return FamilyRouting }

func (m *RouteReport) String() string {
	return fmt.Sprintf("RouteReport{route=%s}", m.Route)
}

// GamingStateReport (0x26/0x0a) - SBX master and Scout Mode bitmask
type GamingStateReport struct {
	SBXMode   bool // bit 0
	ScoutMode bool // bit 1
}

func (m *GamingStateReport) Family() Family { return FamilyGaming }

func (m *GamingStateReport) String() string {
	return fmt.Sprintf("GamingState{sbx=%t, scout=%t}", m.SBXMode, m.ScoutMode)
}

// ModeReport (0x26/0x05) - echo of a single mode switch write
type ModeReport struct {
	Feature byte // GamingFeatureSBX or GamingFeatureScout
	Enabled bool
}

func (m *ModeReport) Family() Family { return FamilyGaming }

func (m *ModeReport) String() string {
	return fmt.Sprintf("ModeReport{feature=0x%02x, enabled=%t}", m.Feature, m.Enabled)
}

// IdentificationReport (0x05) - device identity and capability flags
type IdentificationReport struct {
	Capabilities byte // Cap* bits
	Raw          []byte
}

func (m *IdentificationReport) Family() Family { return FamilyIdentification }

// Has reports whether a capability bit is set
func (m *IdentificationReport) Has(cap byte) bool {
	return m.Capabilities&cap != 0
}

func (m *IdentificationReport) String() string {
	return fmt.Sprintf("Identification{capabilities=0x%02x}", m.Capabilities)
}

// FirmwareReport (0x07/0x10) - firmware version as printable ASCII
type FirmwareReport struct {
	Version string
}

func (m *FirmwareReport) Family() Family { return FamilyFirmware }

func (m *FirmwareReport) String() string {
	return fmt.Sprintf("Firmware{version=%q}", m.Version)
}

// Unrecognized - fallback for frames the decoder cannot classify. The device
// emits transitional frames while flushing its response buffer after writes,
// so unknown frames are routine and never an error.
type Unrecognized struct {
	Raw []byte
}

func (m *Unrecognized) Family() Family {
	if len(m.Raw) > 1 {
		return Family(m.Raw[1])
	}
	return 0
}

func (m *Unrecognized) String() string {
	n := len(m.Raw)
	if n > 8 {
		n = 8
	}
	return fmt.Sprintf("Unrecognized{len=%d, head=% 02x}", len(m.Raw), m.Raw[:n])
}

// Decode classifies an inbound control frame. It never fails: frames that
// cannot be classified come back as Unrecognized for the caller to log and
// discard.
func Decode(frame []byte) Message {
	if len(frame) < 3 || frame[0] != FrameSync {
		return &Unrecognized{Raw: frame}
	}

	switch {
	case frame[1] == byte(FamilyAudioControl) && frame[2] == OpReport:
		return decodeEffectReport(frame)
	case frame[1] == byte(FamilyRouting):
		return decodeRouteReport(frame)
	case frame[1] == byte(FamilyGaming) && frame[2] == OpQuery:
		return decodeGamingState(frame)
	case frame[1] == byte(FamilyGaming) && frame[2] == OpRouteSet:
		return decodeModeReport(frame)
	case frame[1] == byte(FamilyIdentification):
		return decodeIdentification(frame)
	case frame[1] == byte(FamilyFirmware):
		return decodeFirmware(frame)
	default:
		return &Unrecognized{Raw: frame}
	}
}

// decodeEffectReport parses 5a 11 08 01 00 <96|95> <feature> <f32 LE>
func decodeEffectReport(frame []byte) Message {
	if len(frame) < 11 {
		return &Unrecognized{Raw: frame}
	}

	var sel Selector
	switch frame[5] {
	case SelectorSBX.Low():
		sel = SelectorSBX
	case SelectorEqualizer.Low():
		sel = SelectorEqualizer
	default:
		return &Unrecognized{Raw: frame}
	}

	return &EffectReport{
		Selector: sel,
		Feature:  FeatureID(frame[6]),
		Value:    math.Float32frombits(binary.LittleEndian.Uint32(frame[7:11])),
	}
}

// decodeRouteReport parses 5a 2c <op> .. frames. Route set echoes (op 0x05)
// carry the code at byte 4. Live-state reports (op 0x0a) answer the query
// with its selector bytes still in place, so their code sits at byte 9; the
// byte 4 position is kept as a fallback for short relay echoes. Commit
// echoes carry no route and fall through.
func decodeRouteReport(frame []byte) Message {
	if len(frame) < 5 || (frame[2] != OpQuery && frame[2] != OpRouteSet) {
		return &Unrecognized{Raw: frame}
	}

	route := Route(frame[4])
	if frame[2] == OpQuery && len(frame) > 9 {
		if r := Route(frame[9]); r.Valid() {
			route = r
		}
	}
	if !route.Valid() {
		return &Unrecognized{Raw: frame}
	}

	return &RouteReport{Route: route}
}

// decodeGamingState parses 5a 26 0a .. with the mode bitmask at byte 6
func decodeGamingState(frame []byte) Message {
	if len(frame) < 7 {
		return &Unrecognized{Raw: frame}
	}

	mask := frame[6]
	return &GamingStateReport{
		SBXMode:   mask&GamingMaskSBX != 0,
		ScoutMode: mask&GamingMaskScout != 0,
	}
}

// decodeModeReport parses 5a 26 05 07 <feature> 00 <enabled>
func decodeModeReport(frame []byte) Message {
	if len(frame) < 7 {
		return &Unrecognized{Raw: frame}
	}

	feature := frame[4]
	if feature != GamingFeatureSBX && feature != GamingFeatureScout {
		return &Unrecognized{Raw: frame}
	}

	return &ModeReport{
		Feature: feature,
		Enabled: frame[6] == 0x01,
	}
}

// decodeIdentification parses 5a 05 04 <capabilities>
func decodeIdentification(frame []byte) Message {
	if len(frame) < 4 {
		return &Unrecognized{Raw: frame}
	}

	return &IdentificationReport{
		Capabilities: frame[3],
		Raw:          frame,
	}
}

// decodeFirmware parses 5a 07 10 <ascii..> 00. The version is the first
// printable run after the header, null-terminated. Frames with no printable
// run are the binary-mode variant and come back Unrecognized.
func decodeFirmware(frame []byte) Message {
	if len(frame) < 4 || frame[2] != 0x10 {
		return &Unrecognized{Raw: frame}
	}

	start := -1
	for i := 3; i < len(frame); i++ {
		if frame[i] >= 0x20 && frame[i] < 0x7f {
			start = i
			break
		}
	}
	if start == -1 {
		return &Unrecognized{Raw: frame}
	}

	end := start
	for end < len(frame) && frame[end] >= 0x20 && frame[end] < 0x7f {
		end++
	}

	version := string(frame[start:end])
	if version == "" {
		return &Unrecognized{Raw: frame}
	}

	return &FirmwareReport{Version: version}
}

// LevelFromValue converts a wire float in [0.0,1.0] to a 0-100 percent
// integer, rounding to nearest.
func LevelFromValue(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 100
	}
	// The multiply stays in float32 so a wire value lands back on the
	// integer percent it encodes instead of drifting a half step low.
	return uint8(math.Round(float64(v * 100)))
}

// ValueFromLevel converts a 0-100 percent integer to the wire float
func ValueFromLevel(level uint8) float32 {
	return float32(level) / 100.0
}

// SmartVolumePreset names the special smart volume preset encoded as a wire
// float: 0.5 is night mode, 1.0 is loud mode, 0.0 is none.
type SmartVolumePreset string

const (
	PresetNone  SmartVolumePreset = "none"
	PresetNight SmartVolumePreset = "night"
	PresetLoud  SmartVolumePreset = "loud"
)

// PresetFromValue decodes the smart volume preset float
func PresetFromValue(v float32) SmartVolumePreset {
	switch {
	case math.Abs(float64(v)-0.5) < 0.001:
		return PresetNight
	case math.Abs(float64(v)-1.0) < 0.001:
		return PresetLoud
	default:
		return PresetNone
	}
}

// ValueFromPreset encodes a smart volume preset as its wire float
func ValueFromPreset(p SmartVolumePreset) float32 {
	switch p {
	case PresetNight:
		return 0.5
	case PresetLoud:
		return 1.0
	default:
		return 0.0
	}
}
