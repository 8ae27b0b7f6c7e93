package tracker

import (
	"context"
	"strings"
	"time"

	"github.com/sadopc/clockwise/internal/store"
)

// NewTask holds the caller-supplied fields of a task.
type NewTask struct {
	Name           string
	Owner          string
	EstimatedHours float64
	ScheduledDate  string
}

func (n NewTask) validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrNameRequired
	}
	// Written this way so NaN is rejected too.
	if !(n.EstimatedHours >= 0) {
		return ErrNegativeHours
	}
	if _, err := time.Parse(store.DateLayout, n.ScheduledDate); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// AddTask creates a pending task and materializes its pomodoro cycle.
func (s *Service) AddTask(ctx context.Context, n NewTask) (*store.Task, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}
	now := s.Now()

	var task *store.Task
	err := s.withTx(ctx, func(tx *store.Tx) error {
		var err error
		task, err = tx.CreateTask(strings.TrimSpace(n.Name), strings.TrimSpace(n.Owner), n.EstimatedHours, n.ScheduledDate, now)
		if err != nil {
			return err
		}
		return tx.EnsureSessions(task.ID, now)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("task created", "task_id", task.ID, "name", task.Name, "scheduled_date", task.ScheduledDate)
	return task, nil
}

// Start begins the task's next session. When another task is running and
// force is set, that task is paused first; otherwise Start fails with
// ErrAnotherTaskActive.
func (s *Service) Start(ctx context.Context, id int64, force bool) error {
	now := s.Now()

	var paused []int64
	var status string
	err := s.withTx(ctx, func(tx *store.Tx) error {
		if _, err := getTask(tx, id); err != nil {
			return err
		}

		open, err := tx.HasOpenTimeLog(id)
		if err != nil {
			return err
		}
		active, err := tx.GetActiveSession(id)
		if err != nil {
			return err
		}
		if open || active != nil {
			return ErrTaskAlreadyActive
		}

		others, err := tx.RunningTaskIDs(id)
		if err != nil {
			return err
		}
		if len(others) > 0 {
			if !force {
				return ErrAnotherTaskActive
			}
			for _, other := range others {
				if err := pauseTask(tx, other, now); err != nil {
					return err
				}
			}
			paused = others
		}

		status, err = startNextSession(tx, id, now, true)
		return err
	})
	if err != nil {
		return err
	}

	for _, other := range paused {
		s.log.Debug("task force-paused", "task_id", other, "by", id)
	}
	s.log.Debug("task started", "task_id", id, "status", status)
	return nil
}

// Pause interrupts the task's running session.
func (s *Service) Pause(ctx context.Context, id int64) error {
	now := s.Now()
	err := s.withTx(ctx, func(tx *store.Tx) error {
		if _, err := getTask(tx, id); err != nil {
			return err
		}
		active, err := tx.GetActiveSession(id)
		if err != nil {
			return err
		}
		if active == nil {
			return ErrNoActiveSession
		}
		return pauseTask(tx, id, now)
	})
	if err != nil {
		return err
	}
	s.log.Debug("task paused", "task_id", id)
	return nil
}

// Resume starts the next session of a paused task.
func (s *Service) Resume(ctx context.Context, id int64) error {
	now := s.Now()

	var status string
	err := s.withTx(ctx, func(tx *store.Tx) error {
		task, err := getTask(tx, id)
		if err != nil {
			return err
		}
		if task.Status != store.StatusPaused {
			return ErrTaskNotPaused
		}

		others, err := tx.RunningTaskIDs(id)
		if err != nil {
			return err
		}
		if len(others) > 0 {
			return ErrAnotherTaskActive
		}

		active, err := tx.GetActiveSession(id)
		if err != nil {
			return err
		}
		if active != nil {
			return ErrSessionExists
		}

		status, err = startNextSession(tx, id, now, false)
		return err
	})
	if err != nil {
		return err
	}
	s.log.Debug("task resumed", "task_id", id, "status", status)
	return nil
}

// Complete ends the task regardless of the sessions it has left. Completing
// an already completed task changes nothing.
func (s *Service) Complete(ctx context.Context, id int64) error {
	now := s.Now()
	err := s.withTx(ctx, func(tx *store.Tx) error {
		task, err := getTask(tx, id)
		if err != nil {
			return err
		}
		if task.Status == store.StatusCompleted {
			return nil
		}
		if _, err := tx.DeleteActiveSession(id); err != nil {
			return err
		}
		if _, err := tx.CloseOpenTimeLog(id, now); err != nil {
			return err
		}
		return tx.CompleteTask(id, now)
	})
	if err != nil {
		return err
	}
	s.log.Debug("task completed", "task_id", id)
	return nil
}

// Delete removes the task together with its logs and sessions.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.withTx(ctx, func(tx *store.Tx) error {
		deleted, err := tx.DeleteTask(id)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Debug("task deleted", "task_id", id)
	return nil
}

// pauseTask closes the open log before dropping the active session so an
// advancement tick never sees a session without its log closed.
func pauseTask(tx *store.Tx, id int64, now time.Time) error {
	if _, err := tx.CloseOpenTimeLog(id, now); err != nil {
		return err
	}
	if _, err := tx.DeleteActiveSession(id); err != nil {
		return err
	}
	return tx.SetTaskStatus(id, store.StatusPaused)
}

// startNextSession activates the first unconsumed session of the task, or
// completes the task when none is left. It returns the resulting status.
func startNextSession(tx *store.Tx, id int64, now time.Time, stampStart bool) (string, error) {
	if err := tx.EnsureSessions(id, now); err != nil {
		return "", err
	}
	next, err := tx.NextSession(id)
	if err != nil {
		return "", err
	}
	if next == nil {
		return store.StatusCompleted, tx.CompleteTask(id, now)
	}

	if err := tx.CreateActiveSession(id, next.ID, now); err != nil {
		return "", err
	}
	if err := tx.ConsumeSession(next.ID, now); err != nil {
		return "", err
	}

	status := store.StatusWaiting
	if next.Type == store.SessionWork {
		status = store.StatusInProgress
	}
	if err := tx.SetTaskStatus(id, status); err != nil {
		return "", err
	}
	if stampStart {
		if err := tx.MarkTaskStarted(id, now); err != nil {
			return "", err
		}
	}
	if next.Type == store.SessionWork {
		if _, err := tx.OpenTimeLog(id, now); err != nil {
			return "", err
		}
	}
	return status, nil
}
