// Package hidio provides frame transport over the G6's USB HID interfaces.
//
// The G6 exposes several HID interfaces; commands go to the control
// interface, while two further interfaces push unsolicited button and
// volume-wheel broadcasts. Transports are opened per interface and carry
// fixed 64-byte reports (65 on write, with the mandatory leading report id).
//
// Read timeouts are reported as (nil, nil) rather than errors: the device
// stays silent unless spoken to or touched, so most reads time out. Device
// removal is reported as ErrDeviceGone and ends the session.
package hidio
