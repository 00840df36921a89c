package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/g6audio/g6ctl/internal/device"
	"github.com/g6audio/g6ctl/internal/protocol"
)

// eventLogSize is how many recent events the dashboard keeps visible
const eventLogSize = 6

// Controller is the device-facing surface the monitor drives. *device.Manager
// satisfies it.
type Controller interface {
	State() device.Settings
	SetEffect(effect protocol.Effect, enabled bool, level *uint8) error
	ToggleOutput() error
	SetSBXMode(enabled bool) error
	SetScoutMode(enabled bool) error
}

// Messages for async operations
type eventMsg device.Event

type eventStreamClosedMsg struct{}

type opResultMsg struct {
	action string
	err    error
}

// monitorKeyMap defines key bindings for the monitor screen
type monitorKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Output key.Binding
	SBX    key.Binding
	Scout  key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Output, k.SBX, k.Scout, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.Output, k.SBX, k.Scout, k.Quit},
	}
}

// logEntry is one line of the recent event log
type logEntry struct {
	Time time.Time
	Text string
}

// MonitorModel is the live dashboard. It renders device state and folds in
// events from the manager subscription as they arrive.
type MonitorModel struct {
	controller Controller
	events     <-chan device.Event

	// Device state
	State device.Settings

	// UI state
	Width  int
	Height int
	Cursor int // focused effect row

	// Activity
	Log       []logEntry
	LastKnob  int8
	LastError error

	Spinner spinner.Model
	Help    help.Model
	Keys    monitorKeyMap

	quitting bool
}

// NewMonitorModel creates the dashboard model over an existing subscription
func NewMonitorModel(controller Controller, events <-chan device.Event) MonitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	keys := monitorKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "toggle effect"),
		),
		Output: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "switch output"),
		),
		SBX: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "sbx mode"),
		),
		Scout: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "scout mode"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	width, height := GetTerminalSize()

	return MonitorModel{
		controller: controller,
		events:     events,
		State:      controller.State(),
		Width:      width,
		Height:     height,
		Spinner:    s,
		Help:       help.New(),
		Keys:       keys,
	}
}

// Init starts the spinner and the event pump
func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, waitForEvent(m.events))
}

// waitForEvent blocks on the subscription channel and converts the next
// event into a tea message
func waitForEvent(events <-chan device.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventStreamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// Update handles all messages
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.applyEvent(device.Event(msg))
		return m, waitForEvent(m.events)

	case eventStreamClosedMsg:
		m.logLine(time.Now(), "event stream closed")
		return m, nil

	case opResultMsg:
		if msg.err != nil {
			m.LastError = msg.err
			m.logLine(time.Now(), fmt.Sprintf("%s failed: %v", msg.action, msg.err))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m MonitorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	effects := protocol.Effects()

	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil

	case key.Matches(msg, m.Keys.Down):
		if m.Cursor < len(effects)-1 {
			m.Cursor++
		}
		return m, nil

	case key.Matches(msg, m.Keys.Toggle):
		effect := effects[m.Cursor]
		enabled := !m.State.Effect(effect).Enabled
		return m, m.runOp("toggle "+effect.String(), func() error {
			return m.controller.SetEffect(effect, enabled, nil)
		})

	case key.Matches(msg, m.Keys.Output):
		return m, m.runOp("switch output", m.controller.ToggleOutput)

	case key.Matches(msg, m.Keys.SBX):
		enabled := !m.State.SBXMode
		return m, m.runOp("sbx mode", func() error {
			return m.controller.SetSBXMode(enabled)
		})

	case key.Matches(msg, m.Keys.Scout):
		enabled := !m.State.ScoutMode
		return m, m.runOp("scout mode", func() error {
			return m.controller.SetScoutMode(enabled)
		})
	}

	return m, nil
}

// runOp executes a device write off the update loop
func (m MonitorModel) runOp(action string, op func() error) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{action: action, err: op()}
	}
}

// applyEvent folds one device event into the model
func (m *MonitorModel) applyEvent(ev device.Event) {
	m.State = ev.State

	switch ev.Type {
	case device.EventKnobTurned:
		m.LastKnob = ev.Delta
		m.logLine(ev.Time, fmt.Sprintf("knob %+d", ev.Delta))
	case device.EventButtonPressed:
		m.logLine(ev.Time, fmt.Sprintf("button 0x%02x", ev.Code))
	case device.EventOutputChanged:
		m.logLine(ev.Time, "output -> "+ev.State.OutputStr)
	case device.EventEffectChanged, device.EventModeChanged, device.EventEqualizerChanged:
		m.logLine(ev.Time, string(ev.Type)+" "+ev.Field)
	case device.EventDisconnected:
		text := "disconnected"
		if ev.Reason != "" {
			text += " (" + ev.Reason + ")"
		}
		m.logLine(ev.Time, text)
	case device.EventListenerStopped:
		m.logLine(ev.Time, "listener stopped: "+ev.Field)
	default:
		m.logLine(ev.Time, string(ev.Type))
	}
}

func (m *MonitorModel) logLine(t time.Time, text string) {
	if t.IsZero() {
		t = time.Now()
	}
	m.Log = append(m.Log, logEntry{Time: t, Text: text})
	if len(m.Log) > eventLogSize {
		m.Log = m.Log[len(m.Log)-eventLogSize:]
	}
}

// View renders the dashboard
func (m MonitorModel) View() string {
	if m.quitting {
		return ""
	}

	width := ClampWidth(m.Width)

	sections := []string{
		m.renderStatusPanel(width),
		m.renderEffectsPanel(width),
		m.renderEqualizerPanel(width),
		m.renderEventPanel(width),
	}
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return RenderAppFrame(content, m.Help.View(m.Keys), m.Width, m.Height)
}

func (m MonitorModel) renderStatusPanel(width int) string {
	var status string
	if m.State.Connected {
		status = ConnectedStyle.Render("● connected")
	} else {
		status = DisconnectedStyle.Render(m.Spinner.View() + " disconnected")
	}

	firmware := m.State.Firmware
	if firmware == "" {
		firmware = "unknown"
	}

	line1 := status +
		LabelStyle.Render("   firmware ") + ValueStyle.Render(firmware) +
		LabelStyle.Render("   caps ") + ValueStyle.Render(fmt.Sprintf("0x%02x", m.State.Capabilities))

	line2 := LabelStyle.Render("output   ") + ValueStyle.Render(m.State.OutputStr) +
		LabelStyle.Render("   sbx ") + renderOnOff(m.State.SBXMode) +
		LabelStyle.Render("   scout ") + renderOnOff(m.State.ScoutMode)

	if m.LastKnob != 0 {
		line2 += LabelStyle.Render("   knob ") + ValueStyle.Render(fmt.Sprintf("%+d", m.LastKnob))
	}

	return PanelStyle(width).Render(line1 + "\n" + line2)
}

func (m MonitorModel) renderEffectsPanel(width int) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Effects"))
	b.WriteString("\n")

	barWidth := width - 40
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 30 {
		barWidth = 30
	}

	for i, effect := range protocol.Effects() {
		setting := m.State.Effect(effect)

		marker := DisabledStyle.Render("○")
		if setting.Enabled {
			marker = EnabledStyle.Render("●")
		}

		name := fmt.Sprintf("%-12s", effect.String())
		row := fmt.Sprintf("%s %s %s %3d%%", marker, name, RenderLevelBar(setting.Level, barWidth), setting.Level)

		if i == m.Cursor {
			b.WriteString(SelectedRowStyle.Render("→ " + row))
		} else {
			b.WriteString(RowStyle.Render("  " + row))
		}
		b.WriteString("\n")
	}

	if m.State.SmartVolumePreset != protocol.PresetNone {
		b.WriteString(LabelStyle.Render("  smart volume preset: "))
		b.WriteString(ValueStyle.Render(string(m.State.SmartVolumePreset)))
		b.WriteString("\n")
	}

	return PanelStyle(width).Render(strings.TrimRight(b.String(), "\n"))
}

func (m MonitorModel) renderEqualizerPanel(width int) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Equalizer"))
	b.WriteString("\n")

	if len(m.State.Equalizer) == 0 {
		b.WriteString(LabelStyle.Render("no band data yet"))
	} else {
		for _, band := range m.State.Equalizer {
			b.WriteString(LevelGlyph(band.Level))
		}
		b.WriteString(LabelStyle.Render(fmt.Sprintf("  (%d bands)", len(m.State.Equalizer))))
	}

	return PanelStyle(width).Render(b.String())
}

func (m MonitorModel) renderEventPanel(width int) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Recent Events"))
	b.WriteString("\n")

	if len(m.Log) == 0 {
		b.WriteString(LabelStyle.Render("waiting for device activity..."))
	} else {
		for i, entry := range m.Log {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(EventTimeStyle.Render(entry.Time.Format("15:04:05")))
			b.WriteString(" ")
			b.WriteString(entry.Text)
		}
	}

	if m.LastError != nil {
		b.WriteString("\n")
		b.WriteString(WarnTextStyle.Render("last error: " + m.LastError.Error()))
	}

	return PanelStyle(width).Render(b.String())
}

func renderOnOff(enabled bool) string {
	if enabled {
		return EnabledStyle.Render("on")
	}
	return DisabledStyle.Render("off")
}

// Session is a Controller that also hands out event subscriptions
type Session interface {
	Controller
	Subscribe() (<-chan device.Event, func())
}

// Run starts the monitor over the given session and blocks until the user
// quits. The subscription is cancelled on exit.
func Run(session Session) error {
	events, cancel := session.Subscribe()
	defer cancel()

	model := NewMonitorModel(session, events)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
