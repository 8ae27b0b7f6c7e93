// Package tui is the terminal front end: a task list, the running session's
// countdown and a daily report, kept current by polling the tracker.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/clockwise/internal/command"
	"github.com/sadopc/clockwise/internal/export"
	"github.com/sadopc/clockwise/internal/store"
	"github.com/sadopc/clockwise/internal/tracker"
)

// collapseDebounce drops collapse toggles that repeat faster than this.
const collapseDebounce = 300 * time.Millisecond

var exportFormats = []export.Format{export.FormatCSV, export.FormatJSON, export.FormatYAML}

type Options struct {
	// PollInterval is how often elapsed sessions are advanced.
	PollInterval time.Duration
	// ExportDir receives export files. Defaults to the home directory.
	ExportDir string
	// Location decides which day is today.
	Location *time.Location
	Now      func() time.Time
}

// appContext is the hotkey state shared across key handlers.
type appContext struct {
	collapsed  bool
	lastToggle time.Time
}

// toggleCollapse flips the collapsed flag unless the last flip was too
// recent. It reports whether the flag changed.
func (c *appContext) toggleCollapse(now time.Time) bool {
	if !c.lastToggle.IsZero() && now.Sub(c.lastToggle) < collapseDebounce {
		return false
	}
	c.lastToggle = now
	c.collapsed = !c.collapsed
	return true
}

// App is the root Bubble Tea model.
type App struct {
	cmds   *command.Commands
	opts   Options
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	ctx      appContext
	lastPoll time.Time

	dashboard dashboardModel
	session   pomodoroModel
	reports   reportsModel
	form      taskForm

	help        help.Model
	status      string
	statusError bool
}

func NewApp(c *command.Commands, opts Options) App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}

	h := help.New()
	h.ShowAll = false

	return App{
		cmds:       c,
		opts:       opts,
		activeView: viewTasks,
		dashboard:  newDashboardModel(c, opts.Now),
		session:    newPomodoroModel(opts.Now),
		reports:    newReportsModel(c, opts.Now, opts.Location),
		form:       newTaskForm(c),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.poll(),
		a.loadTasks(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) loadTasks() tea.Cmd {
	return func() tea.Msg {
		res := a.cmds.LoadTasksWithSessions(context.Background())
		return tasksLoadedMsg{views: res.Data, err: res.Err()}
	}
}

func (a App) poll() tea.Cmd {
	return func() tea.Msg {
		res := a.cmds.CheckPomodoroSessions(context.Background())
		if err := res.Err(); err != nil {
			return statusMsg{text: fmt.Sprintf("Poll error: %v", err), isError: true}
		}
		return advancedMsg{ids: res.Data}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.session.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.form.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// The form captures every key while open.
		if a.form.active {
			var cmd tea.Cmd
			a.form, cmd = a.form.update(msg)
			return a, cmd
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Collapse):
			a.ctx.toggleCollapse(a.opts.Now())
			return a, nil
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.New):
			var cmd tea.Cmd
			a.activeView = viewTasks
			a.form, cmd = a.form.show(a.today())
			return a, cmd
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTasks
			return a, a.loadTasks()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewSession
			return a, a.loadTasks()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

		// The session view only pauses or completes the running task.
		if a.activeView == viewSession {
			if key.Matches(msg, keys.Pause, keys.Complete) {
				return a, a.dashboard.act(msg, a.dashboard.running())
			}
			return a, nil
		}

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		now := a.opts.Now()
		if now.Sub(a.lastPoll) >= a.opts.PollInterval {
			a.lastPoll = now
			cmds = append(cmds, a.poll())
		}
		return a, tea.Batch(cmds...)

	case advancedMsg:
		if len(msg.ids) == 0 {
			return a, nil
		}
		a.setStatus(fmt.Sprintf("Session elapsed for %s", formatIDs(msg.ids)), false)
		return a, a.refreshAll()

	case tasksLoadedMsg:
		if msg.err != nil {
			a.setStatus("Error: "+msg.err.Error(), true)
		}
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		if msg.err == nil {
			a.session.setTasks(msg.views)
		}
		return a, cmd

	case actionDoneMsg:
		if msg.err != nil {
			a.setStatus("Error: "+msg.err.Error(), true)
			return a, nil
		}
		a.setStatus(msg.text, false)
		return a, a.refreshAll()

	case taskCreatedMsg:
		a.setStatus("Created "+msg.name, false)
		return a, a.refreshAll()

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil
	}

	if a.form.active {
		var cmd tea.Cmd
		a.form, cmd = a.form.update(msg)
		return a, cmd
	}
	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTasks:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	}
	return a, cmd
}

func (a App) refreshCurrentView() tea.Cmd {
	if a.activeView == viewReports {
		return a.reports.refresh()
	}
	return a.loadTasks()
}

func (a App) refreshAll() tea.Cmd {
	if a.activeView == viewReports {
		return tea.Batch(a.loadTasks(), a.reports.refresh())
	}
	return a.loadTasks()
}

func (a *App) setStatus(text string, isError bool) {
	a.status = text
	a.statusError = isError
}

func (a App) today() string {
	return a.opts.Now().In(a.opts.Location).Format(store.DateLayout)
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return "task " + strings.Join(parts, ", ")
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}
	if a.ctx.collapsed {
		return a.renderCollapsed()
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch {
	case a.form.active:
		content = a.form.view()
	case a.activeView == viewTasks:
		content = a.dashboard.view()
	case a.activeView == viewSession:
		content = a.session.view()
	case a.activeView == viewReports:
		content = a.reports.view()
	}

	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

// renderCollapsed is the single-line view shown while collapsed.
func (a App) renderCollapsed() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("clockwise")
	line := mutedStyle.Render("  idle")
	if t := a.dashboard.running(); t != nil && t.Active != nil {
		line = a.sessionBadge(t) + "  " + t.Name
	}
	return headerStyle.Render(title + line + mutedStyle.Render("  m: expand"))
}

// sessionBadge is the phase mark and countdown of the running session.
func (a App) sessionBadge(t *tracker.TaskView) string {
	mark := "◐"
	if t.Active.SessionType == store.SessionWork {
		mark = "●"
	}
	left := formatDuration(t.Remaining(a.opts.Now()))
	return phaseStyle(t.Active.SessionType, t.Active.DurationSeconds).Render("  " + mark + " " + left)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("clockwise")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := statusStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	sessionInfo := ""
	if t := a.dashboard.running(); t != nil && t.Active != nil {
		sessionInfo = a.sessionBadge(t)
	}

	left := footerStyle.Render(helpView)
	right := sessionInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Export Format"), "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+strings.ToUpper(string(f))))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format export.Format) tea.Cmd {
	return func() tea.Msg {
		res := a.cmds.Summaries(context.Background())
		if err := res.Err(); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		dir := a.opts.ExportDir
		if dir == "" {
			dir, _ = os.UserHomeDir()
		}
		now := a.opts.Now()
		path := filepath.Join(dir, fmt.Sprintf("clockwise-export-%s.%s", now.In(a.opts.Location).Format(store.DateLayout), format))
		if err := export.ToFile(path, format, res.Data, now); err != nil {
			return statusMsg{text: fmt.Sprintf("%s error: %v", strings.ToUpper(string(format)), err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
