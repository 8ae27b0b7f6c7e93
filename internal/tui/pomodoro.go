package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/clockwise/internal/store"
	"github.com/sadopc/clockwise/internal/tracker"
)

// longBreakSeconds marks the closing break of the cycle.
const longBreakSeconds = 900

// pomodoroModel shows the countdown and cycle progress of the running task.
type pomodoroModel struct {
	now    func() time.Time
	width  int
	height int

	task *tracker.TaskView
}

func newPomodoroModel(now func() time.Time) pomodoroModel {
	return pomodoroModel{now: now}
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

// setTasks picks the running task out of a fresh load.
func (p *pomodoroModel) setTasks(views []tracker.TaskView) {
	p.task = nil
	for i := range views {
		if views[i].Running() {
			t := views[i]
			p.task = &t
			return
		}
	}
}

func (p pomodoroModel) phase() string {
	if p.task == nil || p.task.Active == nil {
		return "IDLE"
	}
	if p.task.Active.SessionType == store.SessionWork {
		return "WORK"
	}
	if p.task.Active.DurationSeconds >= longBreakSeconds {
		return "LONG BREAK"
	}
	return "SHORT BREAK"
}

func (p pomodoroModel) view() string {
	w := p.width - 4
	title := titleStyle.Render("Pomodoro Session")

	if p.task == nil || p.task.Active == nil {
		content := lipgloss.JoinVertical(lipgloss.Center,
			title,
			"",
			idleTimerStyle.Width(w-6).Render(formatPomodoroTime(25*time.Minute)),
			mutedStyle.Render("No session running"),
			"",
			mutedStyle.Render("Start a task from the Tasks view"),
		)
		return panelStyle.Width(w).Render(content)
	}

	active := p.task.Active
	left := formatPomodoroTime(p.task.Remaining(p.now()))
	timeDisplay := timerStyle(active.SessionType, active.DurationSeconds).Width(w - 6).Render(left)
	phaseLabel := phaseStyle(active.SessionType, active.DurationSeconds).Bold(true).Render(p.phase())

	ends := mutedStyle.Render("ends at " + active.EndsAt.Local().Format("15:04:05"))

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		nameStyle.Render(p.task.Name),
		"",
		timeDisplay,
		phaseLabel,
		ends,
		"",
		p.renderProgress(),
	)

	controls := mutedStyle.Render("space: pause  x: complete")
	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

// renderProgress draws one mark per session of the cycle.
func (p pomodoroModel) renderProgress() string {
	var parts []string
	done := 0
	for _, s := range p.task.Sessions {
		switch {
		case s.IsActive:
			parts = append(parts, phaseStyle(s.Type, s.DurationSeconds).Render("◐"))
		case s.Consumed:
			done++
			parts = append(parts, phaseStyle(s.Type, s.DurationSeconds).Render("●"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	progress := strings.Join(parts, " ")
	counter := mutedStyle.Render(fmt.Sprintf("  %d/%d", done, len(p.task.Sessions)))
	return progress + counter
}

func formatPomodoroTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}
