package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// --- UI Styles ---
var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#01B4E4"))
	subtitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#90CEA1")).Italic(true)
	subtleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	dividerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cursorLineStyle = lipgloss.NewStyle().Background(lipgloss.Color("#2A2B3D"))
	cursorBarStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#FFAB78"))
	matchStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	ratingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5C518"))
	yearStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	placeholderSign = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("[no poster]")
	sectionStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#01B4E4")).Margin(1, 0, 0, 0)
)

// renderFooter creates a consistent footer across all views
// statusLine: optional status information (shown in subtleStyle)
// helpLines: help text lines (shown in helpStyle)
func renderFooter(statusLine string, helpLines ...string) string {
	var b strings.Builder

	if statusLine != "" {
		b.WriteString(subtleStyle.Render(statusLine) + "\n")
	}

	for _, line := range helpLines {
		b.WriteString(helpStyle.Render(line) + "\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}
