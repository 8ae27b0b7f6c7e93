package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/clockwise/internal/store"
)

// Palette
var (
	colorPrimary    = lipgloss.Color("#6C63FF")
	colorWork       = lipgloss.Color("#2ECC71")
	colorShortBreak = lipgloss.Color("#F39C12")
	colorLongBreak  = lipgloss.Color("#7AA2F7")
	colorPaused     = lipgloss.Color("#E0AF68")
	colorOverrun    = lipgloss.Color("#E74C3C")
	colorMuted      = lipgloss.Color("#666666")
	colorFg         = lipgloss.Color("#C0CAF5")
	colorSubtle     = lipgloss.Color("#414868")
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	// activePanelStyle frames whatever belongs to the running task.
	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	idleTimerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMuted).
			Align(lipgloss.Center)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	workStyle      = lipgloss.NewStyle().Foreground(colorWork)
	breakStyle     = lipgloss.NewStyle().Foreground(colorShortBreak)
	longBreakStyle = lipgloss.NewStyle().Foreground(colorLongBreak)
	pausedStyle    = lipgloss.NewStyle().Foreground(colorPaused)
	overrunStyle   = lipgloss.NewStyle().Foreground(colorOverrun)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	nameStyle      = lipgloss.NewStyle().Foreground(colorLongBreak)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(colorOverrun).Bold(true)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)
)

// phaseStyle colors a session by its type; breaks of longBreakSeconds or
// more count as long.
func phaseStyle(sessionType string, durationSeconds int) lipgloss.Style {
	switch {
	case sessionType == store.SessionWork:
		return workStyle
	case durationSeconds >= longBreakSeconds:
		return longBreakStyle
	}
	return breakStyle
}

// timerStyle is the big countdown for a session.
func timerStyle(sessionType string, durationSeconds int) lipgloss.Style {
	return phaseStyle(sessionType, durationSeconds).Bold(true).Align(lipgloss.Center)
}
