package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/g6audio/g6ctl/internal/version"
)

// Application branding constants
const (
	AppName   = "G6 LIVE MONITOR"
	GitHubURL = "github.com/g6audio/g6ctl"
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 110 // Maximum content width before capping
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF5555") // Red

	TextColor   = lipgloss.Color("#FFFFFF") // White
	SubtleColor = lipgloss.Color("#626262") // Gray
	BorderColor = lipgloss.Color("#7D56F4") // Purple (same as primary)
)

// Common styles
var (
	// TitleStyle is for panel titles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	// ConnectedStyle marks an established device session
	ConnectedStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	// DisconnectedStyle marks a missing device session
	DisconnectedStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				Bold(true)

	// EnabledStyle is for active effect markers
	EnabledStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	// DisabledStyle is for inactive effect markers
	DisabledStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// SelectedRowStyle highlights the focused effect row
	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true)

	// RowStyle is for unfocused effect rows
	RowStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// LabelStyle is for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// ValueStyle is for field values
	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// EventTimeStyle is for event log timestamps
	EventTimeStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// EventTypeStyle is for event log type tags
	EventTypeStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// WarnTextStyle is for transient warning lines
	WarnTextStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// SpinnerStyle is for the connect spinner
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)
)

// PanelStyle returns the border style for dashboard panels
func PanelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Width(width - 2).
		Padding(0, 1)
}

// GetTerminalSize returns the current terminal width and height, with fallback
func GetTerminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth, 24
	}
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if width > MaxContentWidth {
		width = MaxContentWidth
	}
	return width, height
}

// ClampWidth applies the layout bounds to a reported terminal width
func ClampWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// BuildHeaderContent creates the header line with app name and GitHub URL
func BuildHeaderContent() string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + AppVersion())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderAppFrame wraps dashboard content with the shared header, footer and
// outer border. Every monitor screen renders through this so the chrome stays
// identical as panels change.
func RenderAppFrame(content string, footerText string, terminalWidth int, terminalHeight int) string {
	width := ClampWidth(terminalWidth)

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(width - 4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(width - 4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(width - 4).
		Padding(0, 1)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(BuildHeaderContent()),
		contentStyle.Render(content),
		footerStyle.Render(lipgloss.NewStyle().Foreground(SubtleColor).Render(footerText)),
	)

	border := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(width - 2).
		AlignVertical(lipgloss.Top)

	if terminalHeight > 4 {
		border = border.Height(terminalHeight - 2)
	}

	return border.Render(inner)
}

// levelGlyphs maps a 0-100 level onto a single bar character
var levelGlyphs = []rune(" ▁▂▃▄▅▆▇█")

// LevelGlyph returns a one-character bar for a 0-100 level
func LevelGlyph(level uint8) string {
	if level > 100 {
		level = 100
	}
	idx := int(level) * (len(levelGlyphs) - 1) / 100
	return string(levelGlyphs[idx])
}

// RenderLevelBar renders a fixed-width horizontal bar for a 0-100 level
func RenderLevelBar(level uint8, width int) string {
	if width < 2 {
		width = 2
	}
	if level > 100 {
		level = 100
	}
	filled := int(level) * width / 100
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}
