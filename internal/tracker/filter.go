package tracker

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sadopc/clockwise/internal/store"
)

// Statuses lists every task status in lifecycle order.
var Statuses = []string{
	store.StatusPending,
	store.StatusInProgress,
	store.StatusWaiting,
	store.StatusPaused,
	store.StatusCompleted,
}

// StatusFilter selects tasks by status. An empty filter selects every task.
type StatusFilter []string

// ParseStatusFilter validates values and drops duplicates. Each value may
// itself be a comma-separated list.
func ParseStatusFilter(values []string) (StatusFilter, error) {
	var f StatusFilter
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if !slices.Contains(Statuses, s) {
				return nil, &Error{KindValidation, fmt.Sprintf("unknown task status %q", s)}
			}
			if !slices.Contains(f, s) {
				f = append(f, s)
			}
		}
	}
	return f, nil
}

func (f StatusFilter) Match(status string) bool {
	return len(f) == 0 || slices.Contains(f, status)
}

// Tasks returns the tasks f selects, in their original order.
func (f StatusFilter) Tasks(tasks []store.Task) []store.Task {
	if len(f) == 0 {
		return tasks
	}
	out := make([]store.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t.Status) {
			out = append(out, t)
		}
	}
	return out
}

// Views returns the task views f selects, in their original order.
func (f StatusFilter) Views(views []TaskView) []TaskView {
	if len(f) == 0 {
		return views
	}
	out := make([]TaskView, 0, len(views))
	for _, v := range views {
		if f.Match(v.Status) {
			out = append(out, v)
		}
	}
	return out
}

func (f StatusFilter) String() string {
	if len(f) == 0 {
		return "all"
	}
	return strings.Join(f, ",")
}
