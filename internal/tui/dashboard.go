package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/clockwise/internal/command"
	"github.com/sadopc/clockwise/internal/store"
	"github.com/sadopc/clockwise/internal/tracker"
)

// dashboardModel lists tasks and drives their lifecycle.
type dashboardModel struct {
	cmds   *command.Commands
	now    func() time.Time
	width  int
	height int

	all    []tracker.TaskView
	tasks  []tracker.TaskView
	cursor int

	// filter indexes tracker.Statuses plus one; zero lists every task.
	filter int
}

func newDashboardModel(c *command.Commands, now func() time.Time) dashboardModel {
	return dashboardModel{cmds: c, now: now}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) selected() *tracker.TaskView {
	if d.cursor < 0 || d.cursor >= len(d.tasks) {
		return nil
	}
	return &d.tasks[d.cursor]
}

// running returns the task with an active session, if any, whether or not
// the filter shows it.
func (d dashboardModel) running() *tracker.TaskView {
	for i := range d.all {
		if d.all[i].Running() {
			return &d.all[i]
		}
	}
	return nil
}

func (d dashboardModel) statusFilter() tracker.StatusFilter {
	if d.filter == 0 {
		return nil
	}
	return tracker.StatusFilter{tracker.Statuses[d.filter-1]}
}

// cycleFilter steps through every status, then back to all tasks.
func (d *dashboardModel) cycleFilter() {
	d.filter = (d.filter + 1) % (len(tracker.Statuses) + 1)
	d.applyFilter()
}

func (d *dashboardModel) applyFilter() {
	d.tasks = d.statusFilter().Views(d.all)
	if d.cursor >= len(d.tasks) {
		d.cursor = max(0, len(d.tasks)-1)
	}
}

// actionDoneMsg reports the outcome of a lifecycle command.
type actionDoneMsg struct {
	text string
	err  error
}

func runAction(text string, fn func(ctx context.Context) command.Response[command.Unit]) tea.Cmd {
	return func() tea.Msg {
		if err := fn(context.Background()).Err(); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{text: text}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		if msg.err != nil {
			return d, nil
		}
		d.all = msg.views
		d.applyFilter()
		return d, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
			return d, nil
		case key.Matches(msg, keys.Down):
			if d.cursor < len(d.tasks)-1 {
				d.cursor++
			}
			return d, nil
		case key.Matches(msg, keys.Filter):
			d.cycleFilter()
			return d, nil
		}

		t := d.selected()
		if t == nil {
			if key.Matches(msg, keys.Start, keys.ForceStart, keys.Pause, keys.Complete, keys.Delete) {
				text := "No tasks yet. Press n to create one."
				if len(d.all) > 0 {
					text = "No task selected."
				}
				return d, func() tea.Msg {
					return statusMsg{text: text, isError: true}
				}
			}
			return d, nil
		}
		return d, d.act(msg, t)
	}
	return d, nil
}

// act maps a lifecycle key onto a command against t.
func (d dashboardModel) act(msg tea.KeyMsg, t *tracker.TaskView) tea.Cmd {
	if t == nil {
		return nil
	}
	id, name := t.ID, t.Name

	switch {
	case key.Matches(msg, keys.Start):
		return runAction("Started "+name, func(ctx context.Context) command.Response[command.Unit] {
			return d.cmds.StartTask(ctx, id, false)
		})
	case key.Matches(msg, keys.ForceStart):
		return runAction("Started "+name, func(ctx context.Context) command.Response[command.Unit] {
			return d.cmds.StartTask(ctx, id, true)
		})
	case key.Matches(msg, keys.Pause):
		if t.Status == store.StatusPaused {
			return runAction("Resumed "+name, func(ctx context.Context) command.Response[command.Unit] {
				return d.cmds.ResumeTask(ctx, id)
			})
		}
		return runAction("Paused "+name, func(ctx context.Context) command.Response[command.Unit] {
			return d.cmds.PauseTask(ctx, id)
		})
	case key.Matches(msg, keys.Complete):
		return runAction("Completed "+name, func(ctx context.Context) command.Response[command.Unit] {
			return d.cmds.CompleteTask(ctx, id)
		})
	case key.Matches(msg, keys.Delete):
		return runAction("Deleted "+name, func(ctx context.Context) command.Response[command.Unit] {
			return d.cmds.DeleteTask(ctx, id)
		})
	}
	return nil
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4
	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderRunningPanel(contentWidth),
		d.renderTaskList(contentWidth),
	)
}

func (d dashboardModel) renderRunningPanel(w int) string {
	t := d.running()
	if t == nil || t.Active == nil {
		content := lipgloss.JoinVertical(lipgloss.Center,
			idleTimerStyle.Width(w-6).Render("00:00:00"),
			mutedStyle.Render("■  IDLE"),
			mutedStyle.Render("Select a task and press s to start"),
		)
		return panelStyle.Width(w).Render(content)
	}

	active := t.Active
	left := formatDuration(t.Remaining(d.now()))
	timeDisplay := timerStyle(active.SessionType, active.DurationSeconds).Width(w - 6).Render(left)
	mark, label := "◐", "BREAK"
	if active.SessionType == store.SessionWork {
		mark, label = "●", "WORK"
	}
	indicator := phaseStyle(active.SessionType, active.DurationSeconds).
		Render(fmt.Sprintf("%s  %s  %d/%d", mark, label, active.SessionNumber, len(t.Sessions)))

	taskLine := nameStyle.Render(t.Name)
	if t.Owner != "" {
		taskLine += mutedStyle.Render(" / " + t.Owner)
	}

	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, taskLine)
	return activePanelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderTaskList(w int) string {
	title := titleStyle.Render("Tasks")
	if d.filter != 0 {
		title += mutedStyle.Render("  status: " + statusLabel(d.statusFilter().String()))
	}
	if len(d.tasks) == 0 {
		empty := "No tasks yet. Press n to create one."
		if len(d.all) > 0 {
			empty = "No tasks match the filter. Press f to change it."
		}
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render(empty),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-24s %-12s %-10s %6s  %s", "Name", "Owner", "Date", "Est.", "Status")))

	for i, t := range d.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == d.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := style.Render(fmt.Sprintf("%s%s %-24s %-12s %-10s %6s  %s",
			cursor,
			statusIcon(t.Status),
			truncate(t.Name, 24),
			truncate(t.Owner, 12),
			t.ScheduledDate,
			formatHours(t.EstimatedSeconds()),
			statusLabel(t.Status),
		))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  s: start  S: force start  space: pause/resume  x: complete  d: delete  n: new  f: filter"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func statusIcon(status string) string {
	switch status {
	case store.StatusInProgress:
		return workStyle.Render("●")
	case store.StatusWaiting:
		return breakStyle.Render("◐")
	case store.StatusPaused:
		return pausedStyle.Render("⏸")
	case store.StatusCompleted:
		return mutedStyle.Render("✓")
	}
	return mutedStyle.Render("○")
}

func statusLabel(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
