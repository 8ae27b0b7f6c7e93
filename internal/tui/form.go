package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/clockwise/internal/command"
	"github.com/sadopc/clockwise/internal/store"
)

// taskForm collects the fields of a new task.
type taskForm struct {
	cmds   *command.Commands
	width  int
	active bool
	form   *huh.Form

	// Field pointers survive value copies of the model.
	name  *string
	owner *string
	hours *string
	date  *string
}

func newTaskForm(c *command.Commands) taskForm {
	name, owner, hours, date := "", "", "", ""
	return taskForm{cmds: c, name: &name, owner: &owner, hours: &hours, date: &date}
}

func (f *taskForm) setSize(w, _ int) {
	f.width = w
}

func validateHours(s string) error {
	h, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("enter a number of hours")
	}
	if h < 0 {
		return errors.New("hours must not be negative")
	}
	return nil
}

func validateDate(s string) error {
	if _, err := time.Parse(store.DateLayout, strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func (f taskForm) show(today string) (taskForm, tea.Cmd) {
	*f.name = ""
	*f.owner = ""
	*f.hours = "1"
	*f.date = today

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task Name").Value(f.name).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("name is required")
				}
				return nil
			}),
			huh.NewInput().Title("Owner").Value(f.owner),
			huh.NewInput().Title("Estimated Hours").Value(f.hours).Validate(validateHours),
			huh.NewInput().Title("Scheduled Date").Value(f.date).Validate(validateDate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	f.active = true
	return f, f.form.Init()
}

func (f taskForm) update(msg tea.Msg) (taskForm, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		f.active = false
		f.form = nil
		return f, nil
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	switch f.form.State {
	case huh.StateCompleted:
		f.active = false
		return f, f.submit()
	case huh.StateAborted:
		f.active = false
		f.form = nil
		return f, nil
	}
	return f, cmd
}

func (f taskForm) submit() tea.Cmd {
	name := strings.TrimSpace(*f.name)
	owner := strings.TrimSpace(*f.owner)
	date := strings.TrimSpace(*f.date)
	hours, _ := strconv.ParseFloat(strings.TrimSpace(*f.hours), 64)

	return func() tea.Msg {
		res := f.cmds.AddTask(context.Background(), name, owner, hours, date)
		if err := res.Err(); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return taskCreatedMsg{name: res.Data.Name}
	}
}

func (f taskForm) view() string {
	if f.form == nil {
		return ""
	}
	content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Task"), "", f.form.View())
	return panelStyle.Width(f.width - 4).Render(content)
}
