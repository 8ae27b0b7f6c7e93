package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/clockwise/internal/tracker"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTasks viewState = iota
	viewSession
	viewReports
)

var viewNames = []string{"Tasks", "Session", "Reports"}

// --- Messages ---

type tasksLoadedMsg struct {
	views []tracker.TaskView
	err   error
}

// advancedMsg reports the tasks a poll moved to their next session.
type advancedMsg struct {
	ids []int64
}

type taskCreatedMsg struct {
	name string
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}
