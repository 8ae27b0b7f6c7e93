package tracker

import (
	"context"
	"time"

	"github.com/sadopc/clockwise/internal/store"
)

type transition struct {
	taskID int64
	from   store.ActiveSession
	status string
}

// Advance moves every task whose active session has elapsed at now to its
// next session, or to completion when its cycle is exhausted, and returns
// the ids of the tasks it moved. Work logs are closed at the session's
// nominal end rather than at now, so the accounted time does not depend on
// how late the poll arrives. Calling Advance again with the same instant
// does nothing.
func (s *Service) Advance(ctx context.Context, now time.Time) ([]int64, error) {
	now = now.UTC().Truncate(time.Second)

	var moved []transition
	err := s.withTx(ctx, func(tx *store.Tx) error {
		moved = nil
		active, err := tx.ListActiveSessions()
		if err != nil {
			return err
		}
		for _, a := range active {
			if !a.Due(now) {
				continue
			}
			if _, err := tx.DeleteActiveSession(a.TaskID); err != nil {
				return err
			}
			// A log already closed by a manual pause is left alone.
			if a.Type == store.SessionWork {
				if _, err := tx.CloseOpenTimeLog(a.TaskID, a.EndsAt()); err != nil {
					return err
				}
			}
			status, err := startNextSession(tx, a.TaskID, now, true)
			if err != nil {
				return err
			}
			moved = append(moved, transition{taskID: a.TaskID, from: a, status: status})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(moved))
	for _, m := range moved {
		s.log.Debug("session elapsed",
			"task_id", m.taskID,
			"session", m.from.SessionNumber,
			"type", m.from.Type,
			"status", m.status,
		)
		ids = append(ids, m.taskID)
	}
	return ids, nil
}

// Check advances sessions against the service clock.
func (s *Service) Check(ctx context.Context) ([]int64, error) {
	return s.Advance(ctx, s.Now())
}
