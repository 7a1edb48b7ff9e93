package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/modbusdash/internal/dashboard"
	"github.com/muurk/modbusdash/internal/version"
)

// AppName is shown in the container header
const AppName = "MODBUS DASHBOARD"

// AppVersion returns the build version
func AppVersion() string {
	return version.Version
}

// Layout constants
const (
	MinTerminalWidth = 72
	defaultWidth     = 80
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500")
	ErrorColor     = lipgloss.Color("#FF0000")

	TextColor      = lipgloss.Color("#FFFFFF")
	SubtleColor    = lipgloss.Color("#626262")
	BorderColor    = lipgloss.Color("#7D56F4")
	HighlightColor = lipgloss.Color("#43BF6D")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(1, 0)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(HighlightColor).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().Foreground(SubtleColor)

	SpinnerStyle = lipgloss.NewStyle().Foreground(PrimaryColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor)

	// Panels hold the connection form and the category table
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor).
			Padding(0, 1)

	FocusedPanelStyle = PanelStyle.BorderForeground(PrimaryColor)

	FieldLabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Width(9)

	TabStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Padding(0, 2)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(0, 2)

	OnStyle  = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	OffStyle = lipgloss.NewStyle().Foreground(SubtleColor)

	ConnectedBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(SecondaryColor).
			Padding(0, 1)

	DisconnectedBadge = lipgloss.NewStyle().
				Foreground(TextColor).
				Background(SubtleColor).
				Padding(0, 1)
)

// RenderBadge renders the connection state pill
func RenderBadge(state dashboard.ConnectionState) string {
	if state == dashboard.Connected {
		return ConnectedBadge.Render(state.String())
	}
	return DisconnectedBadge.Render(state.String())
}

// RenderToast renders a notification in its severity color
func RenderToast(n *dashboard.Notification) string {
	if n == nil {
		return ""
	}
	color := lipgloss.Color(n.Severity.Color())
	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render(n.String())
}

// RenderError renders an error message
func RenderError(text string) string {
	return ErrorStyle.Render("✗ " + text)
}

// BuildHeaderContent renders the app name, version and the active gateway
func BuildHeaderContent(gatewayURL string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " " + AppVersion())
	if gatewayURL == "" {
		return left
	}
	right := MutedStyle.Render(gatewayURL)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps a screen with the shared header, a
// footer holding the help text, and an outer border.
func RenderApplicationContainer(content, footerText, gatewayURL string, width, height int) string {
	if width <= 0 {
		width = defaultWidth
	}

	section := lipgloss.NewStyle().
		BorderForeground(BorderColor).
		Width(width-4).
		Padding(0, 1)

	header := section.BorderStyle(lipgloss.Border{Bottom: "─"}).
		Render(BuildHeaderContent(gatewayURL))
	footer := section.BorderStyle(lipgloss.Border{Top: "─"}).
		Render(MutedStyle.Render(footerText))
	body := lipgloss.NewStyle().Width(width - 4).Render(content)

	inner := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)

	outer := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(width - 2)
	if height > 2 {
		outer = outer.Height(height - 2).AlignVertical(lipgloss.Top)
	}
	return outer.Render(inner)
}
