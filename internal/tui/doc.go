// Package tui implements the live monitor dashboard.
//
// The dashboard is a Bubble Tea program that renders the current device state
// and folds in manager events as they arrive: host-initiated changes, relay
// button presses, volume knob motion. It also drives a small set of writes
// directly (effect toggles, output switch, gaming modes) so the monitor can
// double as a quick control surface.
//
// # Event Plumbing
//
// The model owns a subscription channel from the device manager. A pump
// command blocks on the channel and converts each event into a tea.Msg; the
// update loop re-issues the pump after every event. Device writes run as
// commands off the update loop and report back through opResultMsg, so the
// UI never blocks on the drain protocol.
//
// # Layout
//
// Four panels inside a shared application frame: connection status, effect
// rows with level bars, an equalizer sparkline, and a rolling event log.
// Width adapts to the terminal within [MinTerminalWidth, MaxContentWidth].
package tui
