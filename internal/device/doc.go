// Package device manages the session with a Sound Blaster X G6.
//
// The Manager owns the control transport, the settings store and the
// broadcast listeners. All host-initiated operations go through a single
// mutex: the G6 cannot handle interleaved command streams, and the
// write-then-confirm discipline needs exclusive use of the read side.
//
// # Write-then-confirm
//
// After any write the device buffers stale responses and flushes them on
// subsequent reads. Setting a parameter therefore sends the DATA+COMMIT
// pair and then reads up to a bounded number of frames, discarding
// everything that is not the echo of the value just written. If the budget
// runs out the value is applied to the store optimistically and the call
// returns an unconfirmed-write error, which callers may treat as a warning.
//
// # Output relay
//
// The output switch drives a mechanical relay and is never echoed on the
// control channel. SetOutput applies the new route optimistically without a
// confirming read; a status broadcast corrects the store later if the relay
// landed elsewhere. Switching to the already-active route writes nothing.
//
// # Events
//
// Subscribers receive every state change, whether host-initiated (a Set
// call) or device-initiated (button press, volume wheel). Each event
// carries a full settings snapshot taken after the change.
package device
