package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/clockwise/internal/command"
	"github.com/sadopc/clockwise/internal/store"
	"github.com/sadopc/clockwise/internal/tracker"
)

// reportsModel charts worked against estimated time for one scheduled day.
type reportsModel struct {
	cmds   *command.Commands
	now    func() time.Time
	loc    *time.Location
	width  int
	height int

	summaries []tracker.Summary
	offset    int // days back from today (0 = today)

	chart barchart.Model
}

func newReportsModel(c *command.Commands, now func() time.Time, loc *time.Location) reportsModel {
	return reportsModel{
		cmds:  c,
		now:   now,
		loc:   loc,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	summaries []tracker.Summary
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		res := r.cmds.Summaries(context.Background())
		if err := res.Err(); err != nil {
			return statusMsg{text: fmt.Sprintf("Report error: %v", err), isError: true}
		}
		return reportsDataMsg{summaries: res.Data}
	}
}

func (r reportsModel) day() string {
	return r.now().In(r.loc).AddDate(0, 0, -r.offset).Format(store.DateLayout)
}

// daySummaries keeps the tasks scheduled for the selected day.
func (r reportsModel) daySummaries() []tracker.Summary {
	day := r.day()
	var out []tracker.Summary
	for _, s := range r.summaries {
		if s.Task.ScheduledDate == day {
			out = append(out, s)
		}
	}
	return out
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.summaries = msg.summaries
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			r.buildChart()
			return r, nil
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			r.buildChart()
			return r, nil
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	workedStyle := workStyle
	leftStyle := lipgloss.NewStyle().Foreground(colorSubtle)
	overStyle := overrunStyle

	var bars []barchart.BarData
	for _, s := range r.daySummaries() {
		worked := float64(s.WorkedSeconds) / 60
		estimate := float64(s.Task.EstimatedSeconds()) / 60

		values := []barchart.BarValue{{Name: "worked", Value: min(worked, estimate), Style: workedStyle}}
		if worked < estimate {
			values = append(values, barchart.BarValue{Name: "left", Value: estimate - worked, Style: leftStyle})
		} else if worked > estimate {
			values = append(values, barchart.BarValue{Name: "over", Value: worked - estimate, Style: overStyle})
		}

		bars = append(bars, barchart.BarData{
			Label:  truncate(s.Task.Name, 10),
			Values: values,
		})
	}

	if len(bars) == 0 {
		bars = []barchart.BarData{{
			Label:  "",
			Values: []barchart.BarValue{{Name: "", Value: 0, Style: leftStyle}},
		}}
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	day, _ := time.ParseInLocation(store.DateLayout, r.day(), r.loc)
	dateLabel := mutedStyle.Render(day.Format("Mon Jan 02, 2006"))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Reports"), "  ", dateLabel)

	legend := "  " + strings.Join([]string{
		workStyle.Render("●") + " worked",
		lipgloss.NewStyle().Foreground(colorSubtle).Render("●") + " left",
		overrunStyle.Render("●") + " over",
	}, "  ")

	nav := mutedStyle.Render("  ←/→: previous/next day")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", legend, "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	sums := r.daySummaries()
	if len(sums) == 0 {
		return mutedStyle.Render("  No tasks scheduled for this day")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %10s %10s %10s", "Task", "Estimate", "Worked", "Remaining")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 57))))

	for _, s := range sums {
		remaining := formatSeconds(s.RemainingSeconds)
		if s.RemainingSeconds < 0 {
			remaining = overrunStyle.Render(remaining)
		}
		rows = append(rows, fmt.Sprintf("  %-24s %10s %10s %10s",
			truncate(s.Task.Name, 24),
			formatSeconds(s.Task.EstimatedSeconds()),
			formatSeconds(s.WorkedSeconds),
			remaining,
		))
	}
	return strings.Join(rows, "\n")
}
