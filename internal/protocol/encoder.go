package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encoder builds the control frames the G6 accepts. All methods return
// complete 64-byte frames without the report id; the transport prepends it.
//
// Parameter writes are two-frame sequences: a data frame carrying the value,
// then a commit frame that makes the device apply and echo it. Sending the
// data frame alone changes nothing audible.
type Encoder struct{}

// NewEncoder creates a command encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

// dataFrame builds a 0x12 parameter write:
// 5a 12 07 01 <sel hi> <sel lo> <feat> <f32 LE>.
// The selector is big-endian on the wire, the float little-endian.
func (e *Encoder) dataFrame(sel Selector, feature FeatureID, value float32) []byte {
	frame := NewFrame(FamilyDataControl, OpData, byte(sel>>8), byte(sel), byte(feature))
	binary.LittleEndian.PutUint32(frame[6:10], math.Float32bits(value))
	return frame
}

// readFrame builds a 0x11 read/commit: 5a 11 03 <sel hi> <sel lo> <feat>
func (e *Encoder) readFrame(sel Selector, feature FeatureID) []byte {
	return NewFrame(FamilyAudioControl, OpRead, byte(sel>>8), byte(sel), byte(feature))
}

// SetParameter returns the data+commit pair that writes value to a feature.
// The same frame pair serves toggles (value exactly 0.0 or 1.0) and sliders.
func (e *Encoder) SetParameter(sel Selector, feature FeatureID, value float32) [][]byte {
	return [][]byte{
		e.dataFrame(sel, feature, value),
		e.readFrame(sel, feature),
	}
}

// SetToggle returns the frame pair that switches a boolean feature. Toggle
// values on the wire are exactly 1.0 or 0.0; anything else is rejected by
// the device.
func (e *Encoder) SetToggle(sel Selector, feature FeatureID, enabled bool) [][]byte {
	var v float32
	if enabled {
		v = 1.0
	}
	return e.SetParameter(sel, feature, v)
}

// SetLevel returns the frame pair that sets a 0-100 percent slider. Values
// above 100 are an error, never clamped.
func (e *Encoder) SetLevel(sel Selector, feature FeatureID, percent uint8) ([][]byte, error) {
	if percent > 100 {
		return nil, fmt.Errorf("level %d out of range 0-100", percent)
	}
	return e.SetParameter(sel, feature, float32(percent)/100.0), nil
}

// ReadParameter returns the single frame that requests the current value of
// a feature. The device answers with a 0x11/0x08 report.
func (e *Encoder) ReadParameter(sel Selector, feature FeatureID) []byte {
	return e.readFrame(sel, feature)
}

// SetRoute returns the frame pair that flips the output relay: a route
// select followed by a commit. The device does not echo the switch; the
// relay settles mechanically and a broadcast reports the result later.
func (e *Encoder) SetRoute(route Route) ([][]byte, error) {
	if !route.Valid() {
		return nil, fmt.Errorf("unknown route 0x%02x", byte(route))
	}
	return [][]byte{
		NewFrame(FamilyRouting, OpRouteSet, 0x00, byte(route)),
		NewFrame(FamilyRouting, OpCommit, 0x01),
	}, nil
}

// SetGamingMode returns the frame pair that switches an 0x26-family mode
// (SBX master or Scout Mode) on or off.
func (e *Encoder) SetGamingMode(feature byte, enabled bool) [][]byte {
	var v byte
	if enabled {
		v = 0x01
	}
	return [][]byte{
		NewFrame(FamilyGaming, 0x05, 0x07, feature, 0x00, v),
		NewFrame(FamilyGaming, 0x03, 0x08, 0xff, 0xff),
	}
}

// IdentificationQuery returns the frame requesting device identity and
// capability flags.
func (e *Encoder) IdentificationQuery() []byte {
	return NewFrame(FamilyIdentification, 0x01, 0x00)
}

// FirmwareQuery returns the frame requesting the firmware version in ASCII
// mode.
func (e *Encoder) FirmwareQuery() []byte {
	return NewFrame(FamilyFirmware, OpAsciiMode, 0x02)
}

// HardwareStatusQuery returns the frame requesting hardware state
func (e *Encoder) HardwareStatusQuery() []byte {
	return NewFrame(FamilyHardwareStatus, 0x01, 0x00)
}

// RoutingStateQuery returns the frame requesting the current relay position
func (e *Encoder) RoutingStateQuery() []byte {
	return NewFrame(FamilyRouting, OpQuery, 0x02, 0x82, 0x02)
}

// GamingStateQuery returns the frame requesting the SBX/Scout mode bitmask
func (e *Encoder) GamingStateQuery() []byte {
	return NewFrame(FamilyGaming, OpQuery, 0x00)
}
