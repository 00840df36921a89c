package device

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/g6audio/g6ctl/internal/hidio"
	"github.com/g6audio/g6ctl/internal/protocol"
)

// broadcastReadTimeout bounds each listener read so shutdown is observed
// promptly; the broadcast interfaces are silent most of the time.
const broadcastReadTimeout = 500 * time.Millisecond

// startListeners launches one goroutine per configured broadcast interface.
// Missing openers just mean no device-initiated events from that channel;
// the control session works without them.
func (m *Manager) startListeners() {
	if m.opts.StatusOpener != nil {
		m.spawnListener("status", m.opts.StatusOpener, protocol.DecodeStatusBroadcast)
	}
	if m.opts.KnobOpener != nil {
		m.spawnListener("knob", m.opts.KnobOpener, protocol.DecodeKnobBroadcast)
	}
}

func (m *Manager) spawnListener(name string, opener hidio.Opener, decode func([]byte) protocol.Message) {
	transport, err := opener()
	if err != nil {
		m.logger.Warn("broadcast interface unavailable",
			zap.String("listener", name), zap.Error(err))
		return
	}

	m.listeners.Add(1)
	go func() {
		defer m.listeners.Done()
		defer transport.Close()
		m.listen(name, transport, decode)
	}()
}

// listen pumps one broadcast interface until shutdown or device removal
func (m *Manager) listen(name string, transport hidio.Transport, decode func([]byte) protocol.Message) {
	logger := m.logger.With(zap.String("listener", name))
	logger.Debug("broadcast listener started")

	for {
		if m.stopped() {
			logger.Debug("broadcast listener stopped")
			return
		}

		data, err := transport.Read(broadcastReadTimeout)
		if err != nil {
			if m.stopped() {
				return
			}
			reason := "read failed"
			gone := errors.Is(err, hidio.ErrDeviceGone)
			if gone {
				reason = "device removed"
			}
			logger.Warn("broadcast listener terminated", zap.Error(err))
			m.publish(Event{Type: EventListenerStopped, Field: name, Reason: reason})
			if gone {
				// the whole device is gone, not just this interface; tear
				// the session down off this goroutine so closeLocked can
				// wait for it
				go m.teardown("device removed")
			}
			return
		}
		if data == nil {
			continue
		}

		m.handleBroadcast(decode(data), logger)
	}
}

// handleBroadcast folds a device-initiated report into the store and fans
// out the matching event. Relay broadcasts go through the same state update
// path as host-initiated switches, so a long button press on the device is
// indistinguishable from a SetOutput call downstream.
func (m *Manager) handleBroadcast(msg protocol.Message, logger *zap.Logger) {
	switch b := msg.(type) {
	case *protocol.RouteReport:
		if m.store.Apply(b) != "" {
			logger.Info("device switched output", zap.String("route", b.Route.String()))
			m.publish(Event{Type: EventOutputChanged, Field: "output"})
		}
	case *protocol.KnobReport:
		m.publish(Event{Type: EventKnobTurned, Delta: b.Delta})
	case *protocol.ButtonReport:
		logger.Debug("button event", zap.Uint8("code", b.Code))
		m.publish(Event{Type: EventButtonPressed, Code: b.Code})
	default:
		logger.Debug("unclassified broadcast", zap.String("message", msg.String()))
	}
}
