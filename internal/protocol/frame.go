package protocol

import "fmt"

// NewFrame allocates a zero-padded 64-byte control frame with the sync byte
// and family set. The remaining bytes are filled in by the encoder.
func NewFrame(family Family, body ...byte) []byte {
	frame := make([]byte, FrameSize)
	frame[0] = FrameSync
	frame[1] = byte(family)
	copy(frame[2:], body)
	return frame
}

// WithReportID prepends the HID report id required on every write. The
// result is 65 bytes on the wire.
func WithReportID(frame []byte) []byte {
	out := make([]byte, len(frame)+1)
	out[0] = ReportID
	copy(out[1:], frame)
	return out
}

// ValidateFrame checks that data is a plausible inbound control frame:
// 64 bytes starting with the sync byte. Broadcast channels use their own
// formats and are not validated here.
func ValidateFrame(data []byte) error {
	if len(data) != FrameSize {
		return fmt.Errorf("frame length %d, expected %d", len(data), FrameSize)
	}
	if data[0] != FrameSync {
		return fmt.Errorf("bad sync byte 0x%02x", data[0])
	}
	return nil
}
