package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorPrimary   = lipgloss.Color("39")  // blue
	colorSecondary = lipgloss.Color("245") // gray
	colorSuccess   = lipgloss.Color("42")  // green
	colorDanger    = lipgloss.Color("196") // red
	colorWarning   = lipgloss.Color("214") // orange
	colorMuted     = lipgloss.Color("240") // dark gray

	activeTab = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(colorPrimary).
			Padding(0, 2)

	inactiveTab = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Padding(0, 2)

	statusBar = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	selectedRow = lipgloss.NewStyle().
			Background(lipgloss.Color("236"))

	pendingStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	runningStyle  = lipgloss.NewStyle().Foreground(colorPrimary)
	panickedStyle = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)

	errStyle  = lipgloss.NewStyle().Foreground(colorDanger)
	infoStyle = lipgloss.NewStyle().Foreground(colorSuccess)
)

// styleStatus colors a heartbeat status. A stopped queue is muted, a live
// queue with no work left is green.
func styleStatus(status string, drained bool) string {
	switch {
	case status == "stopped":
		return mutedStyle.Render(status)
	case status == "active" && drained:
		return infoStyle.Render("idle")
	case status == "active":
		return runningStyle.Render("busy")
	default:
		return status
	}
}

// styleCount renders n with style when it is non-zero.
func styleCount[N int | uint64](n N, style lipgloss.Style) string {
	s := formatCount(uint64(n))
	if n == 0 {
		return mutedStyle.Render(s)
	}
	return style.Render(s)
}
