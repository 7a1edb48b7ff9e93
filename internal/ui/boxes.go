package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Detail is one key/value line in a box. Details keep their order.
type Detail struct {
	Key   string
	Value string
}

// D is shorthand for building a Detail
func D(key, value string) Detail {
	return Detail{Key: key, Value: value}
}

// RenderHeader renders a command banner: title, command line and parameters
func RenderHeader(title, command string, params []Detail, width int) string {
	width = clampWidth(width)

	top := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(title)),
		HeaderCommandStyle.Render(command),
	)

	content := top
	if len(params) > 0 {
		lines := make([]string, 0, len(params))
		for _, p := range params {
			lines = append(lines, ParamKeyStyle.Render(p.Key+":")+" "+ParamValueStyle.Render(p.Value))
		}
		content = lipgloss.JoinVertical(lipgloss.Left,
			top,
			RenderHorizontalDivider(width-6, "─"),
			strings.Join(lines, "\n"),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(content)
}

// RenderSuccessBox renders a green result box
func RenderSuccessBox(title string, details []Detail, width int) string {
	lines := titleLines(SuccessTitleStyle, SuccessMarker, "SUCCESS", title)
	lines = append(lines, detailLines(details)...)
	return boxStyle(SuccessColor, width).Render(strings.Join(lines, "\n"))
}

// RenderWarningBox renders an orange result box
func RenderWarningBox(title string, details []Detail, width int) string {
	lines := titleLines(WarningTitleStyle, WarningMarker, "WARNING", title)
	lines = append(lines, detailLines(details)...)
	return boxStyle(WarningColor, width).Render(strings.Join(lines, "\n"))
}

// RenderErrorBox renders a red result box with optional hints
func RenderErrorBox(title string, err error, hints []string, width int) string {
	lines := titleLines(ErrorTitleStyle, FailureMarker, "FAILED", title)

	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+err.Error()), "")
	}

	if len(hints) > 0 {
		inner := []string{HintTitleStyle.Render("Troubleshooting:"), ""}
		for _, h := range hints {
			inner = append(inner, HintItemStyle.Render("  • "+h))
		}
		innerWidth := clampWidth(width) - 12
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(MutedColor).
			Width(innerWidth).
			Padding(0, 1).
			MarginLeft(3).
			Render(strings.Join(inner, "\n"))
		lines = append(lines, box, "")
	}

	return boxStyle(ErrorColor, width).Render(strings.Join(lines, "\n"))
}

func titleLines(style lipgloss.Style, marker, label, title string) []string {
	return []string{
		"",
		style.Render(fmt.Sprintf("   %s  %s  ─  %s", marker, label, title)),
		"",
	}
}

func detailLines(details []Detail) []string {
	lines := make([]string, 0, len(details)+1)
	for _, d := range details {
		lines = append(lines, ResultKeyStyle.Render("   "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
	}
	return append(lines, "")
}
