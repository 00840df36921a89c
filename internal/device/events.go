package device

import "time"

// EventType identifies what a state event describes
type EventType string

const (
	// EventConnected - a session was established and the full resync completed
	EventConnected EventType = "connected"
	// EventDisconnected - the session ended (explicit close or device removal)
	EventDisconnected EventType = "disconnected"
	// EventOutputChanged - the output relay moved, host- or device-initiated
	EventOutputChanged EventType = "output_changed"
	// EventEffectChanged - an SBX effect toggle, level or preset changed
	EventEffectChanged EventType = "effect_changed"
	// EventModeChanged - the SBX master switch or Scout Mode flipped
	EventModeChanged EventType = "mode_changed"
	// EventEqualizerChanged - an equalizer band level changed
	EventEqualizerChanged EventType = "equalizer_changed"
	// EventKnobTurned - the volume wheel moved
	EventKnobTurned EventType = "knob_turned"
	// EventButtonPressed - a hardware button event that is not a relay change
	EventButtonPressed EventType = "button_pressed"
	// EventListenerStopped - the broadcast listener terminated; no further
	// device-initiated events will arrive until reconnect
	EventListenerStopped EventType = "listener_stopped"
	// EventSnapshot - not produced by the manager; consumers that replay
	// current state to late subscribers tag the replayed event with this
	EventSnapshot EventType = "snapshot"
)

// Event is one state change notification. Every event carries a full
// settings snapshot taken after the change was applied, so consumers never
// have to reassemble state from deltas.
type Event struct {
	Type   EventType `json:"type"`
	Field  string    `json:"field,omitempty"`  // which setting changed
	Reason string    `json:"reason,omitempty"` // for disconnected / listener_stopped
	Delta  int8      `json:"delta,omitempty"`  // knob steps, positive is clockwise
	Code   byte      `json:"code,omitempty"`   // raw hardware button code
	State  Settings  `json:"state"`
	Time   time.Time `json:"time"`
}
