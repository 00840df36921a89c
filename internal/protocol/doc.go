// Package protocol implements the Sound Blaster X G6 HID control protocol.
//
// This package handles construction and decoding of the vendor-specific
// 64-byte HID reports the G6 exchanges on its control interface, plus the
// unsolicited broadcast formats on the status and knob interfaces.
//
// # Frame Overview
//
// Every control frame is 64 bytes with this structure:
//   - Sync byte: 0x5a
//   - Family byte: selects the protocol sub-area (0x11 audio control,
//     0x12 data writes, 0x26 gaming modes, 0x2c routing, ...)
//   - Operation and family-specific fields
//   - Zero padding to 64 bytes
//
// Writes prepend a mandatory 0x00 report id, making them 65 bytes on the
// wire. Omitting it shifts every payload byte and corrupts the command.
//
// # Parameter Writes
//
// Audio parameters are written as a two-frame sequence:
//   - DATA (0x12/0x07): selector, feature id, IEEE 754 float value
//   - COMMIT (0x11/0x03): same selector and feature, applies the value
//
// The device answers a commit with an effect report (0x11/0x08) echoing the
// applied value. Toggles use exactly 0.0/1.0; sliders use 0.0-1.0 mapped
// from 0-100 percent.
//
// # Usage Example - Encoding
//
//	enc := protocol.NewEncoder()
//	frames, err := enc.SetLevel(protocol.SelectorSBX, protocol.FeatureBassLevel, 75)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range frames {
//	    transport.Write(f) // Write prepends the report id
//	}
//
// # Usage Example - Decoding
//
//	msg := protocol.Decode(frame)
//	switch m := msg.(type) {
//	case *protocol.EffectReport:
//	    fmt.Printf("feature 0x%02x = %d%%\n", m.Feature, m.Level())
//	case *protocol.Unrecognized:
//	    // routine during post-write buffer flushing, log and drop
//	}
//
// # Error Handling
//
// Decoding never fails. Frames that cannot be classified return
// Unrecognized: the device emits stale and transitional frames while
// flushing its response buffer after writes, so unknown frames are an
// expected part of normal operation.
//
// # Thread Safety
//
// All construction and decoding functions are stateless and safe for
// concurrent use.
package protocol
