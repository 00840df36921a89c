package device

import (
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/g6audio/g6ctl/internal/hidio"
	"github.com/g6audio/g6ctl/internal/logging"
	"github.com/g6audio/g6ctl/internal/protocol"
)

const (
	// DefaultDrainReads bounds the reads spent hunting for a write echo.
	// The device flushes roughly this many stale frames after a write.
	DefaultDrainReads = 8
	// DefaultDrainDelay paces drain reads so the device has time to emit
	// the next buffered frame.
	DefaultDrainDelay = 20 * time.Millisecond
	// DefaultReadTimeout bounds a single read during queries and drains
	DefaultReadTimeout = 1 * time.Second

	// connectTimeoutLimit aborts the connect resync after this many
	// consecutive unanswered queries
	connectTimeoutLimit = 3

	// confirmEpsilon absorbs float32 round-trips when matching an echo
	// against the value just written
	confirmEpsilon = 0.0001
)

// Options configures a Manager. Zero-value fields fall back to defaults;
// openers default to the real G6 HID interfaces and are swappable for tests.
type Options struct {
	ControlOpener hidio.Opener
	StatusOpener  hidio.Opener
	KnobOpener    hidio.Opener

	DrainReads  int
	DrainDelay  time.Duration
	ReadTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.ControlOpener == nil {
		o.ControlOpener = hidio.ControlOpener()
	}
	if o.DrainReads <= 0 {
		o.DrainReads = DefaultDrainReads
	}
	if o.DrainDelay <= 0 {
		o.DrainDelay = DefaultDrainDelay
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
}

// Manager owns the device session: the control transport, the state store,
// the broadcast listeners and the write-then-confirm discipline. One mutex
// serializes all control operations; the G6 confuses interleaved command
// streams.
type Manager struct {
	mu      sync.Mutex
	opts    Options
	enc     *protocol.Encoder
	store   *Store
	control hidio.Transport

	stopMu sync.Mutex
	stop   chan struct{}

	listeners sync.WaitGroup

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int

	logger *zap.Logger
}

// NewManager creates a manager with the given options
func NewManager(opts Options) *Manager {
	opts.applyDefaults()
	return &Manager{
		opts:   opts,
		enc:    protocol.NewEncoder(),
		store:  NewStore(),
		subs:   make(map[int]chan Event),
		logger: logging.GetLogger().With(zap.String("component", "device-manager")),
	}
}

// State returns a snapshot of the current settings
func (m *Manager) State() Settings {
	return m.store.Snapshot()
}

// Store exposes the settings store for persistence
func (m *Manager) Store() *Store {
	return m.store
}

// Subscribe registers an event consumer. The returned cancel releases the
// subscription. Slow consumers lose events rather than stalling the session.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Event, 32)
	m.subs[id] = ch

	cancel := func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (m *Manager) publish(ev Event) {
	ev.Time = time.Now()
	ev.State = m.store.Snapshot()

	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Connect opens the control interface and resynchronizes the store from the
// device: identification, hardware status, routing and gaming state, every
// known SBX and equalizer parameter, then the firmware version. Individual
// query timeouts are tolerated; three in a row abort the attempt.
func (m *Manager) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.control != nil {
		return nil
	}

	transport, err := m.opts.ControlOpener()
	if err != nil {
		if errors.Is(err, hidio.ErrNotFound) {
			return NewNotFoundError(err)
		}
		return NewConnectFailedError("failed to open control interface", err)
	}
	m.control = transport

	m.stopMu.Lock()
	m.stop = make(chan struct{})
	m.stopMu.Unlock()

	if err := m.resync(); err != nil {
		m.closeLocked("connect failed")
		return err
	}

	m.store.SetConnected(true)
	m.store.MarkFullRead(time.Now())
	m.startListeners()

	m.logger.Info("device connected",
		zap.String("firmware", m.store.Snapshot().Firmware))
	m.publish(Event{Type: EventConnected})
	return nil
}

// resync drives the full state read. Caller holds the mutex.
func (m *Manager) resync() error {
	timeouts := 0

	// The first identification response after plugging in is often a stale
	// frame from a previous session; query twice and keep the second.
	queries := [][]byte{
		m.enc.IdentificationQuery(),
		m.enc.IdentificationQuery(),
		m.enc.HardwareStatusQuery(),
		m.enc.RoutingStateQuery(),
		m.enc.GamingStateQuery(),
	}
	for f := protocol.FeatureID(0); f <= protocol.SBXFeatureMax; f++ {
		queries = append(queries, m.enc.ReadParameter(protocol.SelectorSBX, f))
	}
	for f := protocol.FeatureID(0); f <= protocol.EqualizerBandMax; f++ {
		queries = append(queries, m.enc.ReadParameter(protocol.SelectorEqualizer, f))
	}
	queries = append(queries, m.enc.FirmwareQuery())

	for _, frame := range queries {
		msg, err := m.query(frame)
		if err != nil {
			return NewConnectFailedError("state read failed", err)
		}
		if msg == nil {
			timeouts++
			if timeouts >= connectTimeoutLimit {
				return NewConnectFailedError("device stopped answering state reads", nil)
			}
			continue
		}
		timeouts = 0
		if field := m.store.Apply(msg); field != "" {
			m.logger.Debug("state read", zap.String("field", field), zap.String("message", msg.String()))
		}
	}
	return nil
}

// query writes one frame and decodes the answer. A nil message with nil
// error means the read timed out.
func (m *Manager) query(frame []byte) (protocol.Message, error) {
	if err := m.control.Write(frame); err != nil {
		return nil, err
	}
	data, err := m.control.Read(m.opts.ReadTimeout)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return protocol.Decode(data), nil
}

// Disconnect ends the session. The stop channel is closed before taking the
// operation mutex so an in-flight drain observes the shutdown instead of
// holding the lock until its read budget runs out.
func (m *Manager) Disconnect() error {
	m.stopMu.Lock()
	if m.stop != nil {
		select {
		case <-m.stop:
		default:
			close(m.stop)
		}
	}
	m.stopMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.control == nil {
		return nil
	}
	m.closeLocked("requested")
	return nil
}

// closeLocked tears down the session. Caller holds the mutex.
func (m *Manager) closeLocked(reason string) {
	m.stopMu.Lock()
	if m.stop != nil {
		select {
		case <-m.stop:
		default:
			close(m.stop)
		}
	}
	m.stopMu.Unlock()

	if m.control != nil {
		m.control.Close()
		m.control = nil
	}
	m.listeners.Wait()

	wasConnected := m.store.Snapshot().Connected
	m.store.SetConnected(false)
	if wasConnected {
		m.logger.Info("device disconnected", zap.String("reason", reason))
		m.publish(Event{Type: EventDisconnected, Reason: reason})
	}
}

// failOp classifies a transport error surfaced mid-operation. Device removal
// ends the session on the spot: the transport is torn down, the store is
// marked disconnected and EventDisconnected goes out before the caller sees
// the error. Caller holds the mutex.
func (m *Manager) failOp(operation string, err error) error {
	if errors.Is(err, hidio.ErrDeviceGone) {
		m.closeLocked("device removed")
		return NewDisconnectedError(operation)
	}
	return NewWriteError(operation, err)
}

// teardown is closeLocked for callers that do not hold the mutex, used by
// the broadcast listeners when the device vanishes under them.
func (m *Manager) teardown(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.control == nil {
		return
	}
	m.closeLocked(reason)
}

// stopped reports whether Disconnect has been requested
func (m *Manager) stopped() bool {
	m.stopMu.Lock()
	defer m.stopMu.Unlock()
	if m.stop == nil {
		return true
	}
	select {
	case <-m.stop:
		return true
	default:
		return false
	}
}

// SetEffect switches one SBX effect and, when level is non-nil, its
// intensity. Each sub-parameter is written and confirmed independently.
func (m *Manager) SetEffect(effect protocol.Effect, enabled bool, level *uint8) error {
	if level != nil && *level > 100 {
		return NewInvalidArgumentError("level must be 0-100")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.control == nil {
		return NewDisconnectedError("set_effect")
	}

	var want float32
	if enabled {
		want = 1.0
	}

	// An unconfirmed sub-write is a warning, not a failure: the value was
	// applied optimistically, so the remaining sub-parameters still go out
	// and a single unconfirmed error covers the whole operation.
	var unconfirmed error

	frames := m.enc.SetToggle(protocol.SelectorSBX, effect.ToggleID(), enabled)
	if err := m.writeConfirmed(frames, protocol.SelectorSBX, effect.ToggleID(), want); err != nil {
		if !IsUnconfirmed(err) {
			return err
		}
		unconfirmed = err
	}

	if level != nil {
		frames, ferr := m.enc.SetLevel(protocol.SelectorSBX, effect.LevelID(), *level)
		if ferr != nil {
			return NewInvalidArgumentError(ferr.Error())
		}
		if err := m.writeConfirmed(frames, protocol.SelectorSBX, effect.LevelID(), protocol.ValueFromLevel(*level)); err != nil {
			if !IsUnconfirmed(err) {
				return err
			}
			unconfirmed = err
		}
	}

	m.publish(Event{Type: EventEffectChanged, Field: effect.String()})
	return unconfirmed
}

// SetSmartVolumePreset writes the smart volume special preset
func (m *Manager) SetSmartVolumePreset(preset protocol.SmartVolumePreset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.control == nil {
		return NewDisconnectedError("set_smart_volume_preset")
	}

	want := protocol.ValueFromPreset(preset)
	frames := m.enc.SetParameter(protocol.SelectorSBX, protocol.FeatureSmartVolumePreset, want)
	err := m.writeConfirmed(frames, protocol.SelectorSBX, protocol.FeatureSmartVolumePreset, want)
	if err != nil && !IsUnconfirmed(err) {
		return err
	}
	m.publish(Event{Type: EventEffectChanged, Field: "smart_volume_preset"})
	return err
}

// SetEqualizerBand writes one equalizer band level
func (m *Manager) SetEqualizerBand(band byte, level uint8) error {
	if protocol.FeatureID(band) > protocol.EqualizerBandMax {
		return NewInvalidArgumentError("equalizer band out of range")
	}
	if level > 100 {
		return NewInvalidArgumentError("level must be 0-100")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.control == nil {
		return NewDisconnectedError("set_equalizer_band")
	}

	frames, ferr := m.enc.SetLevel(protocol.SelectorEqualizer, protocol.FeatureID(band), level)
	if ferr != nil {
		return NewInvalidArgumentError(ferr.Error())
	}
	err := m.writeConfirmed(frames, protocol.SelectorEqualizer, protocol.FeatureID(band), protocol.ValueFromLevel(level))
	if err != nil && !IsUnconfirmed(err) {
		return err
	}
	m.publish(Event{Type: EventEqualizerChanged, Field: "equalizer"})
	return err
}

// SetSBXMode flips the SBX master switch
func (m *Manager) SetSBXMode(enabled bool) error {
	return m.setGamingMode(protocol.GamingFeatureSBX, "sbx_mode", enabled)
}

// SetScoutMode flips Scout Mode
func (m *Manager) SetScoutMode(enabled bool) error {
	return m.setGamingMode(protocol.GamingFeatureScout, "scout_mode", enabled)
}

func (m *Manager) setGamingMode(feature byte, field string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.control == nil {
		return NewDisconnectedError("set_mode")
	}

	frames := m.enc.SetGamingMode(feature, enabled)
	err := m.writeModeConfirmed(frames, feature, enabled)
	if err != nil && !IsUnconfirmed(err) {
		return err
	}
	m.publish(Event{Type: EventModeChanged, Field: field})
	return err
}

// SetOutput moves the output relay. The relay settles mechanically and the
// device never echoes the switch on the control channel, so the new route
// is applied optimistically; a later broadcast corrects the store if the
// relay landed elsewhere. Setting the already-active route sends nothing.
func (m *Manager) SetOutput(route protocol.Route) error {
	if !route.Valid() {
		return NewInvalidArgumentError("unknown output route")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.control == nil {
		return NewDisconnectedError("set_output")
	}

	if m.store.Snapshot().Output == route {
		return nil
	}

	frames, err := m.enc.SetRoute(route)
	if err != nil {
		return NewInvalidArgumentError(err.Error())
	}
	for _, frame := range frames {
		if werr := m.control.Write(frame); werr != nil {
			return m.failOp("route switch failed", werr)
		}
	}

	m.store.SetOutput(route)
	m.logger.Info("output switched", zap.String("route", route.String()))
	m.publish(Event{Type: EventOutputChanged, Field: "output"})
	return nil
}

// ToggleOutput switches to whichever route is not active
func (m *Manager) ToggleOutput() error {
	return m.SetOutput(m.store.Snapshot().Output.Other())
}

// writeConfirmed sends a DATA+COMMIT pair, then drains buffered responses
// until the device echoes the written value. Stale frames surfaced during
// the drain are discarded, never applied: only the frame matching this
// write may update the store. Exhausting the read budget applies the value
// optimistically and reports it as unconfirmed. Caller holds the mutex.
func (m *Manager) writeConfirmed(frames [][]byte, sel protocol.Selector, feature protocol.FeatureID, want float32) error {
	for _, frame := range frames {
		if err := m.control.Write(frame); err != nil {
			return m.failOp("parameter write failed", err)
		}
	}

	for i := 0; i < m.opts.DrainReads; i++ {
		if m.stopped() {
			return NewDisconnectedError("write confirmation")
		}

		data, err := m.control.Read(m.opts.ReadTimeout)
		if err != nil {
			return m.failOp("confirmation read failed", err)
		}
		if data != nil {
			report, ok := protocol.Decode(data).(*protocol.EffectReport)
			if ok && report.Selector == sel && report.Feature == feature &&
				math.Abs(float64(report.Value-want)) < confirmEpsilon {
				m.store.Apply(report)
				return nil
			}
			m.logger.Debug("drained stale frame", zap.Int("read", i+1))
		}

		time.Sleep(m.opts.DrainDelay)
	}

	m.applyOptimistic(sel, feature, want)
	m.logger.Warn("write unconfirmed, state applied optimistically",
		zap.String("selector", sel.String()),
		zap.Uint8("feature", byte(feature)))
	return NewUnconfirmedError("device never echoed the written value")
}

// writeModeConfirmed is writeConfirmed for the gaming family, whose echo is
// a mode report rather than an effect report. Caller holds the mutex.
func (m *Manager) writeModeConfirmed(frames [][]byte, feature byte, enabled bool) error {
	for _, frame := range frames {
		if err := m.control.Write(frame); err != nil {
			return m.failOp("mode write failed", err)
		}
	}

	for i := 0; i < m.opts.DrainReads; i++ {
		if m.stopped() {
			return NewDisconnectedError("write confirmation")
		}

		data, err := m.control.Read(m.opts.ReadTimeout)
		if err != nil {
			return m.failOp("confirmation read failed", err)
		}
		if data != nil {
			report, ok := protocol.Decode(data).(*protocol.ModeReport)
			if ok && report.Feature == feature && report.Enabled == enabled {
				m.store.Apply(report)
				return nil
			}
		}

		time.Sleep(m.opts.DrainDelay)
	}

	m.store.Apply(&protocol.ModeReport{Feature: feature, Enabled: enabled})
	m.logger.Warn("mode write unconfirmed, state applied optimistically",
		zap.Uint8("feature", feature))
	return NewUnconfirmedError("device never echoed the mode switch")
}

// applyOptimistic folds the value we just wrote into the store as if the
// device had echoed it
func (m *Manager) applyOptimistic(sel protocol.Selector, feature protocol.FeatureID, value float32) {
	m.store.Apply(&protocol.EffectReport{
		Selector: sel,
		Feature:  feature,
		Value:    value,
	})
}
