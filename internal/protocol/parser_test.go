package protocol

import (
	"testing"
)

func TestDecodeEffectReport(t *testing.T) {
	tests := []struct {
		name         string
		frame        []byte
		wantSelector Selector
		wantFeature  FeatureID
		wantEnabled  bool
		wantLevel    uint8
	}{
		{
			name:         "crystalizer enabled",
			frame:        frameWith(0x5a, 0x11, 0x08, 0x01, 0x00, 0x96, 0x07, 0x00, 0x00, 0x80, 0x3f),
			wantSelector: SelectorSBX,
			wantFeature:  FeatureCrystalizerToggle,
			wantEnabled:  true,
			wantLevel:    100,
		},
		{
			name:         "bass slider 75 percent",
			frame:        frameWith(0x5a, 0x11, 0x08, 0x01, 0x00, 0x96, 0x19, 0x00, 0x00, 0x40, 0x3f),
			wantSelector: SelectorSBX,
			wantFeature:  FeatureBassLevel,
			wantEnabled:  true,
			wantLevel:    75,
		},
		{
			name:         "surround disabled",
			frame:        frameWith(0x5a, 0x11, 0x08, 0x01, 0x00, 0x96, 0x00, 0x00, 0x00, 0x00, 0x00),
			wantSelector: SelectorSBX,
			wantFeature:  FeatureSurroundToggle,
			wantEnabled:  false,
			wantLevel:    0,
		},
		{
			name:         "equalizer band gain",
			frame:        frameWith(0x5a, 0x11, 0x08, 0x01, 0x00, 0x95, 0x05, 0x00, 0x00, 0x00, 0x3f),
			wantSelector: SelectorEqualizer,
			wantFeature:  0x05,
			wantEnabled:  true,
			wantLevel:    50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Decode(tt.frame)
			report, ok := msg.(*EffectReport)
			if !ok {
				t.Fatalf("decoded %T, want *EffectReport", msg)
			}
			if report.Selector != tt.wantSelector {
				t.Errorf("selector = %s, want %s", report.Selector, tt.wantSelector)
			}
			if report.Feature != tt.wantFeature {
				t.Errorf("feature = 0x%02x, want 0x%02x", byte(report.Feature), byte(tt.wantFeature))
			}
			if report.Enabled() != tt.wantEnabled {
				t.Errorf("enabled = %t, want %t", report.Enabled(), tt.wantEnabled)
			}
			if report.Level() != tt.wantLevel {
				t.Errorf("level = %d, want %d", report.Level(), tt.wantLevel)
			}
		})
	}
}

func TestDecodeRouteReport(t *testing.T) {
	tests := []struct {
		name      string
		frame     []byte
		wantRoute Route
		wantOK    bool
	}{
		{
			name:      "live state headphones",
			frame:     frameWith(0x5a, 0x2c, 0x0a, 0x02, 0x04),
			wantRoute: RouteHeadphones,
			wantOK:    true,
		},
		{
			name:      "live state speakers",
			frame:     frameWith(0x5a, 0x2c, 0x0a, 0x02, 0x02),
			wantRoute: RouteSpeakers,
			wantOK:    true,
		},
		{
			name:      "route set echo",
			frame:     frameWith(0x5a, 0x2c, 0x05, 0x00, 0x04),
			wantRoute: RouteHeadphones,
			wantOK:    true,
		},
		{
			// hardware answers the state query with its selector bytes in
			// place and the code at byte 9
			name:      "live state with query selector",
			frame:     frameWith(0x5a, 0x2c, 0x0a, 0x02, 0x82, 0x02, 0x00, 0x00, 0x00, 0x04),
			wantRoute: RouteHeadphones,
			wantOK:    true,
		},
		{
			name:      "byte 9 wins over byte 4",
			frame:     frameWith(0x5a, 0x2c, 0x0a, 0x02, 0x04, 0x00, 0x00, 0x00, 0x00, 0x02),
			wantRoute: RouteSpeakers,
			wantOK:    true,
		},
		{
			name:   "unknown code at offset 4",
			frame:  frameWith(0x5a, 0x2c, 0x0a, 0x02, 0x07),
			wantOK: false,
		},
		{
			name:   "commit echo carries no route",
			frame:  frameWith(0x5a, 0x2c, 0x01, 0x01),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Decode(tt.frame)
			report, ok := msg.(*RouteReport)
			if ok != tt.wantOK {
				t.Fatalf("decoded %T, want RouteReport=%t", msg, tt.wantOK)
			}
			if ok && report.Route != tt.wantRoute {
				t.Errorf("route = %s, want %s", report.Route, tt.wantRoute)
			}
		})
	}
}

func TestDecodeGamingState(t *testing.T) {
	tests := []struct {
		name      string
		mask      byte
		wantSBX   bool
		wantScout bool
	}{
		{"both off", 0x00, false, false},
		{"sbx only", 0x01, true, false},
		{"scout only", 0x02, false, true},
		{"both on", 0x03, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := frameWith(0x5a, 0x26, 0x0a, 0x00, 0x00, 0x00, tt.mask)
			msg := Decode(frame)
			state, ok := msg.(*GamingStateReport)
			if !ok {
				t.Fatalf("decoded %T, want *GamingStateReport", msg)
			}
			if state.SBXMode != tt.wantSBX {
				t.Errorf("sbx = %t, want %t", state.SBXMode, tt.wantSBX)
			}
			if state.ScoutMode != tt.wantScout {
				t.Errorf("scout = %t, want %t", state.ScoutMode, tt.wantScout)
			}
		})
	}
}

func TestDecodeModeReport(t *testing.T) {
	tests := []struct {
		name        string
		frame       []byte
		wantFeature byte
		wantEnabled bool
		wantOK      bool
	}{
		{
			name:        "sbx enabled echo",
			frame:       frameWith(0x5a, 0x26, 0x05, 0x07, 0x01, 0x00, 0x01),
			wantFeature: GamingFeatureSBX,
			wantEnabled: true,
			wantOK:      true,
		},
		{
			name:        "scout disabled echo",
			frame:       frameWith(0x5a, 0x26, 0x05, 0x07, 0x02, 0x00, 0x00),
			wantFeature: GamingFeatureScout,
			wantEnabled: false,
			wantOK:      true,
		},
		{
			name:   "unknown mode feature",
			frame:  frameWith(0x5a, 0x26, 0x05, 0x07, 0x09, 0x00, 0x01),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Decode(tt.frame)
			report, ok := msg.(*ModeReport)
			if ok != tt.wantOK {
				t.Fatalf("decoded %T, want ModeReport=%t", msg, tt.wantOK)
			}
			if !ok {
				return
			}
			if report.Feature != tt.wantFeature {
				t.Errorf("feature = 0x%02x, want 0x%02x", report.Feature, tt.wantFeature)
			}
			if report.Enabled != tt.wantEnabled {
				t.Errorf("enabled = %t, want %t", report.Enabled, tt.wantEnabled)
			}
		})
	}
}

func TestDecodeIdentification(t *testing.T) {
	frame := frameWith(0x5a, 0x05, 0x04, 0x1f)
	msg := Decode(frame)

	report, ok := msg.(*IdentificationReport)
	if !ok {
		t.Fatalf("decoded %T, want *IdentificationReport", msg)
	}
	if report.Capabilities != 0x1f {
		t.Errorf("capabilities = 0x%02x, want 0x1f", report.Capabilities)
	}

	for _, cap := range []byte{CapSurround, CapCrystalizer, CapBass, CapSmartVolume, CapDialogPlus} {
		if !report.Has(cap) {
			t.Errorf("capability 0x%02x not reported with mask 0x1f", cap)
		}
	}

	partial := Decode(frameWith(0x5a, 0x05, 0x04, 0x05)).(*IdentificationReport)
	if !partial.Has(CapSurround) || partial.Has(CapCrystalizer) || !partial.Has(CapBass) {
		t.Errorf("capability decode wrong for mask 0x05: %s", partial)
	}
}

func TestDecodeFirmware(t *testing.T) {
	tests := []struct {
		name        string
		frame       []byte
		wantVersion string
		wantOK      bool
	}{
		{
			name:        "ascii version",
			frame:       asciiFirmwareFrame("G6 FW 2.1.191208.1600"),
			wantVersion: "G6 FW 2.1.191208.1600",
			wantOK:      true,
		},
		{
			name:        "version after leading nulls",
			frame:       asciiFirmwareFrameAt("1.2.3", 6),
			wantVersion: "1.2.3",
			wantOK:      true,
		},
		{
			name:   "binary mode response has no printable run",
			frame:  frameWith(0x5a, 0x07, 0x10, 0x01, 0x02, 0x03),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Decode(tt.frame)
			report, ok := msg.(*FirmwareReport)
			if ok != tt.wantOK {
				t.Fatalf("decoded %T, want FirmwareReport=%t", msg, tt.wantOK)
			}
			if ok && report.Version != tt.wantVersion {
				t.Errorf("version = %q, want %q", report.Version, tt.wantVersion)
			}
		})
	}
}

// asciiFirmwareFrame builds 5a 07 10 <version> 00 padded to 64 bytes
func asciiFirmwareFrame(version string) []byte {
	return asciiFirmwareFrameAt(version, 3)
}

func asciiFirmwareFrameAt(version string, offset int) []byte {
	f := frameWith(0x5a, 0x07, 0x10)
	copy(f[offset:], version)
	return f
}

func TestDecodeUnrecognized(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"empty", nil},
		{"too short", []byte{0x5a, 0x11}},
		{"wrong sync", frameWith(0x7e, 0x11, 0x08)},
		{"unknown family", frameWith(0x5a, 0x99, 0x01)},
		{"effect report unknown selector", frameWith(0x5a, 0x11, 0x08, 0x01, 0x00, 0x42, 0x07, 0x00, 0x00, 0x80, 0x3f)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Decode(tt.frame)
			if _, ok := msg.(*Unrecognized); !ok {
				t.Errorf("decoded %T, want *Unrecognized", msg)
			}
		})
	}
}

func TestLevelConversion(t *testing.T) {
	tests := []struct {
		value float32
		want  uint8
	}{
		{0.0, 0},
		{1.0, 100},
		{0.75, 75},
		{0.5, 50},
		{0.333, 33},
		{0.005, 1},
		{-0.5, 0}, // out-of-range wire values clamp
		{1.5, 100},
	}

	for _, tt := range tests {
		if got := LevelFromValue(tt.value); got != tt.want {
			t.Errorf("LevelFromValue(%v) = %d, want %d", tt.value, got, tt.want)
		}
	}

	// Round-trip: every integer level survives the wire encoding
	for level := uint8(0); level <= 100; level++ {
		if got := LevelFromValue(ValueFromLevel(level)); got != level {
			t.Errorf("round-trip %d -> %v -> %d", level, ValueFromLevel(level), got)
		}
	}
}

func TestPresetConversion(t *testing.T) {
	tests := []struct {
		value float32
		want  SmartVolumePreset
	}{
		{0.0, PresetNone},
		{0.5, PresetNight},
		{1.0, PresetLoud},
		{0.3, PresetNone},
	}

	for _, tt := range tests {
		if got := PresetFromValue(tt.value); got != tt.want {
			t.Errorf("PresetFromValue(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}

	for _, p := range []SmartVolumePreset{PresetNone, PresetNight, PresetLoud} {
		if got := PresetFromValue(ValueFromPreset(p)); got != p {
			t.Errorf("preset round-trip %s -> %v -> %s", p, ValueFromPreset(p), got)
		}
	}
}

func TestDecodeStatusBroadcast(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{
			name: "relay moved to headphones",
			data: append(make([]byte, 10), 0x04),
			want: "RouteReport{route=headphones}",
		},
		{
			name: "relay moved to speakers",
			data: append(make([]byte, 10), 0x02),
			want: "RouteReport{route=speakers}",
		},
		{
			name: "other button event",
			data: append(make([]byte, 10), 0x10),
			want: "ButtonReport{code=0x10}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := DecodeStatusBroadcast(tt.data)
			if msg.String() != tt.want {
				t.Errorf("got %s, want %s", msg, tt.want)
			}
		})
	}

	if _, ok := DecodeStatusBroadcast(make([]byte, 5)).(*Unrecognized); !ok {
		t.Error("truncated status report should decode as Unrecognized")
	}
}

func TestDecodeKnobBroadcast(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantDelta int8
	}{
		{"clockwise step", []byte{0x01}, 1},
		{"counter-clockwise step", []byte{0xff}, -1},
		{"multi step", []byte{0x03, 0x00}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := DecodeKnobBroadcast(tt.data)
			knob, ok := msg.(*KnobReport)
			if !ok {
				t.Fatalf("decoded %T, want *KnobReport", msg)
			}
			if knob.Delta != tt.wantDelta {
				t.Errorf("delta = %d, want %d", knob.Delta, tt.wantDelta)
			}
		})
	}

	if _, ok := DecodeKnobBroadcast(nil).(*Unrecognized); !ok {
		t.Error("empty knob report should decode as Unrecognized")
	}
}

func BenchmarkDecodeEffectReport(b *testing.B) {
	frame := frameWith(0x5a, 0x11, 0x08, 0x01, 0x00, 0x96, 0x07, 0x00, 0x00, 0x80, 0x3f)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Decode(frame)
	}
}
