package tracker

import (
	"context"
	"time"

	"github.com/sadopc/clockwise/internal/store"
)

// ActiveInfo describes the session a task is currently counting down.
type ActiveInfo struct {
	SessionID       int64     `json:"pomodoro_id"`
	SessionNumber   int       `json:"session_number"`
	SessionType     string    `json:"session_type"`
	DurationSeconds int       `json:"duration_seconds"`
	StartedAt       time.Time `json:"started_at"`
	EndsAt          time.Time `json:"ends_at"`
}

// SessionInfo is one stage of a task's cycle.
type SessionInfo struct {
	store.PomodoroSession
	IsActive  bool       `json:"is_active"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Consumed  bool       `json:"consumed"`
}

// TaskView is a task annotated with its session state.
type TaskView struct {
	store.Task
	Active   *ActiveInfo   `json:"active_session,omitempty"`
	Sessions []SessionInfo `json:"pomodoro_sessions"`
}

// Remaining returns how long the active session has left at now.
func (v TaskView) Remaining(now time.Time) time.Duration {
	if v.Active == nil {
		return 0
	}
	d := v.Active.EndsAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// LoadTasks returns every task ordered by schedule date then creation.
func (s *Service) LoadTasks(ctx context.Context) ([]store.Task, error) {
	var tasks []store.Task
	err := s.withTx(ctx, func(tx *store.Tx) error {
		var err error
		tasks, err = tx.ListTasks()
		return err
	})
	return tasks, err
}

// TodayTasks returns the tasks scheduled for the current date in the
// service's location.
func (s *Service) TodayTasks(ctx context.Context) ([]store.Task, error) {
	today := s.Now().In(s.loc).Format(store.DateLayout)
	var tasks []store.Task
	err := s.withTx(ctx, func(tx *store.Tx) error {
		var err error
		tasks, err = tx.ListTasksByDate(today)
		return err
	})
	return tasks, err
}

// LoadTasksWithSessions returns running tasks first, each with its active
// session and its full cycle.
func (s *Service) LoadTasksWithSessions(ctx context.Context) ([]TaskView, error) {
	var views []TaskView
	err := s.withTx(ctx, func(tx *store.Tx) error {
		views = nil
		tasks, err := tx.ListTasksRunningFirst()
		if err != nil {
			return err
		}
		active, err := tx.ListActiveSessions()
		if err != nil {
			return err
		}
		byTask := make(map[int64]store.ActiveSession, len(active))
		for _, a := range active {
			byTask[a.TaskID] = a
		}

		for _, task := range tasks {
			sessions, err := tx.ListSessions(task.ID)
			if err != nil {
				return err
			}
			v := TaskView{Task: task, Sessions: make([]SessionInfo, 0, len(sessions))}
			a, ok := byTask[task.ID]
			if ok {
				v.Active = &ActiveInfo{
					SessionID:       a.SessionID,
					SessionNumber:   a.SessionNumber,
					SessionType:     a.Type,
					DurationSeconds: a.DurationSeconds,
					StartedAt:       a.StartedAt,
					EndsAt:          a.EndsAt(),
				}
			}
			for _, p := range sessions {
				info := SessionInfo{PomodoroSession: p, Consumed: p.ConsumedAt != nil}
				if ok && a.SessionID == p.ID {
					started := a.StartedAt
					info.IsActive = true
					info.StartedAt = &started
				}
				v.Sessions = append(v.Sessions, info)
			}
			views = append(views, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// TimeLogs returns the task's work intervals, oldest first.
func (s *Service) TimeLogs(ctx context.Context, id int64) ([]Span, error) {
	sum, err := s.Summarize(ctx, id)
	if err != nil {
		return nil, err
	}
	return sum.Logs, nil
}
