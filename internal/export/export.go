// Package export writes task time accounting to CSV, JSON and YAML files.
package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sadopc/clockwise/internal/tracker"
)

type document struct {
	ExportedAt string     `json:"exported_at" yaml:"exported_at"`
	Count      int        `json:"count" yaml:"count"`
	Tasks      []taskItem `json:"tasks" yaml:"tasks"`
}

type taskItem struct {
	ID               int64     `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	Owner            string    `json:"owner,omitempty" yaml:"owner,omitempty"`
	EstimatedHours   float64   `json:"estimated_hours" yaml:"estimated_hours"`
	ScheduledDate    string    `json:"scheduled_date" yaml:"scheduled_date"`
	Status           string    `json:"status" yaml:"status"`
	StartedAt        string    `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt      string    `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	WorkedSeconds    int64     `json:"worked_seconds" yaml:"worked_seconds"`
	Worked           string    `json:"worked" yaml:"worked"`
	RemainingSeconds int64     `json:"remaining_seconds" yaml:"remaining_seconds"`
	Remaining        string    `json:"remaining" yaml:"remaining"`
	Logs             []logItem `json:"logs" yaml:"logs"`
}

type logItem struct {
	ID          int64  `json:"id" yaml:"id"`
	StartTime   string `json:"start_time" yaml:"start_time"`
	EndTime     string `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	DurationSec int64  `json:"duration_seconds" yaml:"duration_seconds"`
	Duration    string `json:"duration" yaml:"duration"`
}

// Format names an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv, json or yaml)", s)
}

// Write encodes sums to w in the given format.
func Write(w io.Writer, f Format, sums []tracker.Summary, now time.Time) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, sums)
	case FormatJSON:
		return WriteJSON(w, sums, now)
	case FormatYAML:
		return WriteYAML(w, sums, now)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// ToFile writes sums to path in the given format.
func ToFile(path string, f Format, sums []tracker.Summary, now time.Time) error {
	return toFile(path, func(w io.Writer) error {
		return Write(w, f, sums, now)
	})
}

func newDocument(sums []tracker.Summary, now time.Time) document {
	doc := document{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Count:      len(sums),
	}
	for _, s := range sums {
		item := taskItem{
			ID:               s.Task.ID,
			Name:             s.Task.Name,
			Owner:            s.Task.Owner,
			EstimatedHours:   s.Task.EstimatedHours,
			ScheduledDate:    s.Task.ScheduledDate,
			Status:           s.Task.Status,
			StartedAt:        formatOptional(s.Task.StartedAt),
			CompletedAt:      formatOptional(s.Task.CompletedAt),
			WorkedSeconds:    s.WorkedSeconds,
			Worked:           FormatDuration(s.WorkedSeconds),
			RemainingSeconds: s.RemainingSeconds,
			Remaining:        FormatDuration(s.RemainingSeconds),
			Logs:             []logItem{},
		}
		for _, l := range s.Logs {
			item.Logs = append(item.Logs, logItem{
				ID:          l.ID,
				StartTime:   l.StartedAt.Local().Format(time.RFC3339),
				EndTime:     formatOptional(l.EndedAt),
				DurationSec: l.Seconds,
				Duration:    FormatDuration(l.Seconds),
			})
		}
		doc.Tasks = append(doc.Tasks, item)
	}
	return doc
}

// toFile creates path and hands it to write.
func toFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}

// FormatDuration renders seconds as HH:MM:SS, with a leading minus for
// overruns.
func FormatDuration(secs int64) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}
