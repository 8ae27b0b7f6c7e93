package store

import (
	"math"
	"time"
)

// Task status values.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusWaiting    = "waiting"
	StatusPaused     = "paused"
	StatusCompleted  = "completed"
)

// Pomodoro session types.
const (
	SessionWork  = "work"
	SessionBreak = "break"
)

// DateLayout is the format of Task.ScheduledDate.
const DateLayout = "2006-01-02"

type Task struct {
	ID             int64      `json:"id" yaml:"id"`
	Name           string     `json:"name" yaml:"name"`
	Owner          string     `json:"owner" yaml:"owner"`
	EstimatedHours float64    `json:"estimated_hours" yaml:"estimated_hours"`
	ScheduledDate  string     `json:"scheduled_date" yaml:"scheduled_date"`
	Status         string     `json:"status" yaml:"status"`
	CreatedAt      time.Time  `json:"created_at" yaml:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Running reports whether the task is in a work or break session.
func (t Task) Running() bool {
	return t.Status == StatusInProgress || t.Status == StatusWaiting
}

// EstimatedSeconds rounds the estimate to whole seconds.
func (t Task) EstimatedSeconds() int64 {
	return int64(math.Round(t.EstimatedHours * 3600))
}

type PomodoroSession struct {
	ID              int64      `json:"id"`
	TaskID          int64      `json:"task_id"`
	SessionNumber   int        `json:"session_number"`
	Type            string     `json:"session_type"`
	DurationSeconds int        `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	ConsumedAt      *time.Time `json:"consumed_at,omitempty"`
}

func (p PomodoroSession) Duration() time.Duration {
	return time.Duration(p.DurationSeconds) * time.Second
}

type TimeLog struct {
	ID        int64      `json:"id" yaml:"id"`
	TaskID    int64      `json:"task_id" yaml:"task_id"`
	StartedAt time.Time  `json:"started_at" yaml:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`
}

// Open reports whether the interval is still accruing.
func (l TimeLog) Open() bool {
	return l.EndedAt == nil
}

// ActiveSession is an active_sessions row joined with the session it points at.
type ActiveSession struct {
	TaskID          int64     `json:"task_id"`
	SessionID       int64     `json:"pomodoro_id"`
	StartedAt       time.Time `json:"started_at"`
	SessionNumber   int       `json:"session_number"`
	Type            string    `json:"session_type"`
	DurationSeconds int       `json:"duration_seconds"`
}

// EndsAt is the nominal end of the session.
func (a ActiveSession) EndsAt() time.Time {
	return a.StartedAt.Add(time.Duration(a.DurationSeconds) * time.Second)
}

// Due reports whether the session's duration has fully elapsed at now.
func (a ActiveSession) Due(now time.Time) bool {
	return !now.Before(a.EndsAt())
}
