package protocol

import "fmt"

// The G6 pushes unsolicited reports on two HID interfaces separate from the
// control channel: a status interface that announces hardware button events
// and relay changes, and a knob interface that streams volume wheel deltas.
// Neither uses the 64-byte control frame format.

// Status broadcast layout: 10-byte header followed by a state code. Relay
// codes reuse the routing family's destination values.
const statusCodeOffset = 10

// ButtonReport - a hardware button event that is not a relay change
type ButtonReport struct {
	Code byte
	Raw  []byte
}

func (m *ButtonReport) Family() Family { return FamilyHardwareStatus }

func (m *ButtonReport) String() string {
	return fmt.Sprintf("ButtonReport{code=0x%02x}", m.Code)
}

// KnobReport - a volume wheel movement, positive is clockwise
type KnobReport struct {
	Delta int8
}

func (m *KnobReport) Family() Family { return FamilyHardwareStatus }

func (m *KnobReport) String() string {
	return fmt.Sprintf("KnobReport{delta=%+d}", m.Delta)
}

// DecodeStatusBroadcast classifies a report from the status interface.
// Relay position codes decode to RouteReport so the device-initiated output
// switch (long button press) flows through the same state update path as a
// host-initiated one.
func DecodeStatusBroadcast(data []byte) Message {
	if len(data) <= statusCodeOffset {
		return &Unrecognized{Raw: data}
	}

	code := data[statusCodeOffset]
	if route := Route(code); route.Valid() {
		return &RouteReport{Route: route}
	}

	return &ButtonReport{Code: code, Raw: data}
}

// DecodeKnobBroadcast decodes a report from the knob interface: a signed
// step delta in byte 0.
func DecodeKnobBroadcast(data []byte) Message {
	if len(data) == 0 {
		return &Unrecognized{Raw: data}
	}
	return &KnobReport{Delta: int8(data[0])}
}
