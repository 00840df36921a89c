package protocol

import (
	"bytes"
	"testing"
)

// frameWith pads a leading byte sequence to a full 64-byte frame
func frameWith(head ...byte) []byte {
	f := make([]byte, FrameSize)
	copy(f, head)
	return f
}

func TestSetToggleFrames(t *testing.T) {
	tests := []struct {
		name       string
		selector   Selector
		feature    FeatureID
		enabled    bool
		wantData   []byte
		wantCommit []byte
	}{
		{
			name:     "crystalizer on",
			selector: SelectorSBX,
			feature:  FeatureCrystalizerToggle,
			enabled:  true,
			// 1.0 as little-endian float32: 00 00 80 3f
			wantData:   frameWith(0x5a, 0x12, 0x07, 0x01, 0x96, 0x07, 0x00, 0x00, 0x80, 0x3f),
			wantCommit: frameWith(0x5a, 0x11, 0x03, 0x01, 0x96, 0x07),
		},
		{
			name:       "bass off",
			selector:   SelectorSBX,
			feature:    FeatureBassToggle,
			enabled:    false,
			wantData:   frameWith(0x5a, 0x12, 0x07, 0x01, 0x96, 0x18),
			wantCommit: frameWith(0x5a, 0x11, 0x03, 0x01, 0x96, 0x18),
		},
		{
			name:       "surround on",
			selector:   SelectorSBX,
			feature:    FeatureSurroundToggle,
			enabled:    true,
			wantData:   frameWith(0x5a, 0x12, 0x07, 0x01, 0x96, 0x00, 0x00, 0x00, 0x80, 0x3f),
			wantCommit: frameWith(0x5a, 0x11, 0x03, 0x01, 0x96, 0x00),
		},
	}

	enc := NewEncoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames := enc.SetToggle(tt.selector, tt.feature, tt.enabled)
			if len(frames) != 2 {
				t.Fatalf("expected 2 frames (data+commit), got %d", len(frames))
			}
			if !bytes.Equal(frames[0], tt.wantData) {
				t.Errorf("data frame mismatch:\n got  % 02x\n want % 02x", frames[0][:12], tt.wantData[:12])
			}
			if !bytes.Equal(frames[1], tt.wantCommit) {
				t.Errorf("commit frame mismatch:\n got  % 02x\n want % 02x", frames[1][:12], tt.wantCommit[:12])
			}
		})
	}
}

func TestSetLevelFrames(t *testing.T) {
	tests := []struct {
		name     string
		selector Selector
		feature  FeatureID
		percent  uint8
		wantData []byte
		wantErr  bool
	}{
		{
			name:     "crystalizer 75 percent",
			selector: SelectorSBX,
			feature:  FeatureCrystalizerLevel,
			percent:  75,
			// 0.75 as little-endian float32: 00 00 40 3f
			wantData: frameWith(0x5a, 0x12, 0x07, 0x01, 0x96, 0x08, 0x00, 0x00, 0x40, 0x3f),
		},
		{
			name:     "equalizer band full",
			selector: SelectorEqualizer,
			feature:  0x03,
			percent:  100,
			wantData: frameWith(0x5a, 0x12, 0x07, 0x01, 0x95, 0x03, 0x00, 0x00, 0x80, 0x3f),
		},
		{
			name:     "zero",
			selector: SelectorSBX,
			feature:  FeatureBassLevel,
			percent:  0,
			wantData: frameWith(0x5a, 0x12, 0x07, 0x01, 0x96, 0x19),
		},
		{
			name:     "out of range",
			selector: SelectorSBX,
			feature:  FeatureBassLevel,
			percent:  101,
			wantErr:  true,
		},
	}

	enc := NewEncoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, err := enc.SetLevel(tt.selector, tt.feature, tt.percent)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for out-of-range level")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(frames[0], tt.wantData) {
				t.Errorf("data frame mismatch:\n got  % 02x\n want % 02x", frames[0][:12], tt.wantData[:12])
			}
		})
	}
}

func TestSetRouteFrames(t *testing.T) {
	tests := []struct {
		name    string
		route   Route
		wantSet []byte
		wantErr bool
	}{
		{
			name:    "headphones",
			route:   RouteHeadphones,
			wantSet: frameWith(0x5a, 0x2c, 0x05, 0x00, 0x04),
		},
		{
			name:    "speakers",
			route:   RouteSpeakers,
			wantSet: frameWith(0x5a, 0x2c, 0x05, 0x00, 0x02),
		},
		{
			name:    "unknown code",
			route:   Route(0x09),
			wantErr: true,
		},
	}

	wantCommit := frameWith(0x5a, 0x2c, 0x01, 0x01)

	enc := NewEncoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, err := enc.SetRoute(tt.route)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unknown route")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(frames) != 2 {
				t.Fatalf("expected 2 frames, got %d", len(frames))
			}
			if !bytes.Equal(frames[0], tt.wantSet) {
				t.Errorf("route set mismatch:\n got  % 02x\n want % 02x", frames[0][:6], tt.wantSet[:6])
			}
			if !bytes.Equal(frames[1], wantCommit) {
				t.Errorf("route commit mismatch:\n got  % 02x\n want % 02x", frames[1][:6], wantCommit[:6])
			}
		})
	}
}

func TestSetGamingModeFrames(t *testing.T) {
	tests := []struct {
		name     string
		feature  byte
		enabled  bool
		wantData []byte
	}{
		{
			name:     "sbx master on",
			feature:  GamingFeatureSBX,
			enabled:  true,
			wantData: frameWith(0x5a, 0x26, 0x05, 0x07, 0x01, 0x00, 0x01),
		},
		{
			name:     "scout mode off",
			feature:  GamingFeatureScout,
			enabled:  false,
			wantData: frameWith(0x5a, 0x26, 0x05, 0x07, 0x02, 0x00, 0x00),
		},
	}

	wantCommit := frameWith(0x5a, 0x26, 0x03, 0x08, 0xff, 0xff)

	enc := NewEncoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames := enc.SetGamingMode(tt.feature, tt.enabled)
			if !bytes.Equal(frames[0], tt.wantData) {
				t.Errorf("data mismatch:\n got  % 02x\n want % 02x", frames[0][:8], tt.wantData[:8])
			}
			if !bytes.Equal(frames[1], wantCommit) {
				t.Errorf("commit mismatch:\n got  % 02x\n want % 02x", frames[1][:8], wantCommit[:8])
			}
		})
	}
}

func TestQueryFrames(t *testing.T) {
	enc := NewEncoder()

	tests := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"identification", enc.IdentificationQuery(), frameWith(0x5a, 0x05, 0x01, 0x00)},
		{"firmware ascii", enc.FirmwareQuery(), frameWith(0x5a, 0x07, 0x01, 0x02)},
		{"hardware status", enc.HardwareStatusQuery(), frameWith(0x5a, 0x10, 0x01, 0x00)},
		{"routing state", enc.RoutingStateQuery(), frameWith(0x5a, 0x2c, 0x0a, 0x02, 0x82, 0x02)},
		{"gaming state", enc.GamingStateQuery(), frameWith(0x5a, 0x26, 0x0a, 0x00)},
		{"read bass toggle", enc.ReadParameter(SelectorSBX, FeatureBassToggle), frameWith(0x5a, 0x11, 0x03, 0x01, 0x96, 0x18)},
		{"read eq band", enc.ReadParameter(SelectorEqualizer, 0x1b), frameWith(0x5a, 0x11, 0x03, 0x01, 0x95, 0x1b)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.got, tt.want) {
				t.Errorf("frame mismatch:\n got  % 02x\n want % 02x", tt.got[:8], tt.want[:8])
			}
		})
	}
}

func TestAllFramesAre64Bytes(t *testing.T) {
	enc := NewEncoder()

	var frames [][]byte
	frames = append(frames, enc.SetToggle(SelectorSBX, FeatureSurroundToggle, true)...)
	levelFrames, _ := enc.SetLevel(SelectorSBX, FeatureSurroundLevel, 50)
	frames = append(frames, levelFrames...)
	routeFrames, _ := enc.SetRoute(RouteSpeakers)
	frames = append(frames, routeFrames...)
	frames = append(frames, enc.SetGamingMode(GamingFeatureSBX, true)...)
	frames = append(frames,
		enc.IdentificationQuery(),
		enc.FirmwareQuery(),
		enc.HardwareStatusQuery(),
		enc.RoutingStateQuery(),
		enc.GamingStateQuery(),
	)

	for i, f := range frames {
		if len(f) != FrameSize {
			t.Errorf("frame %d: length %d, want %d", i, len(f), FrameSize)
		}
		if f[0] != FrameSync {
			t.Errorf("frame %d: sync byte 0x%02x, want 0x%02x", i, f[0], FrameSync)
		}
	}
}

func TestWithReportID(t *testing.T) {
	frame := frameWith(0x5a, 0x11, 0x03, 0x01, 0x96, 0x00)
	out := WithReportID(frame)

	if len(out) != FrameSize+1 {
		t.Fatalf("length %d, want %d", len(out), FrameSize+1)
	}
	if out[0] != ReportID {
		t.Errorf("report id 0x%02x, want 0x%02x", out[0], ReportID)
	}
	if !bytes.Equal(out[1:], frame) {
		t.Error("payload shifted after report id prepend")
	}
}

func TestValidateFrame(t *testing.T) {
	tests := []struct {
		name    string
		frame   []byte
		wantErr bool
	}{
		{"valid", frameWith(0x5a, 0x11, 0x08), false},
		{"short", []byte{0x5a, 0x11}, true},
		{"bad sync", frameWith(0x7e, 0x11, 0x08), true},
		{"empty", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFrame(tt.frame)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFrame() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func BenchmarkSetToggle(b *testing.B) {
	enc := NewEncoder()
	for i := 0; i < b.N; i++ {
		enc.SetToggle(SelectorSBX, FeatureBassToggle, true)
	}
}
