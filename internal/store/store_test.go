package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// inTx runs fn in a transaction and fails the test on error.
func inTx(t *testing.T, s *Store, fn func(tx *Tx) error) {
	t.Helper()
	require.NoError(t, s.InTx(context.Background(), fn))
}

// createTask is a test helper that inserts a pending task with sessions.
func createTask(t *testing.T, s *Store, name, date string) *Task {
	t.Helper()
	var task *Task
	inTx(t, s, func(tx *Tx) error {
		var err error
		task, err = tx.CreateTask(name, "ana", 1.5, date, t0)
		if err != nil {
			return err
		}
		return tx.EnsureSessions(task.ID, t0)
	})
	return task
}

func countRows(t *testing.T, s *Store, table string, taskID int64) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE task_id = ?`, taskID).Scan(&n))
	return n
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestNewWithPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "clockwise.db")
	s, err := New(path)
	require.NoError(t, err)
	createTask(t, s, "Persisted", "2026-03-14")
	require.NoError(t, s.Close())

	// Reopen: rows survive and migration does not run again.
	s2, err := New(path)
	require.NoError(t, err)
	defer s2.Close()

	inTx(t, s2, func(tx *Tx) error {
		tasks, err := tx.ListTasks()
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Persisted", tasks[0].Name)
		return nil
	})
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, "clockwise.db", filepath.Base(path))
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk, timeout int
	require.NoError(t, s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	require.NoError(t, s.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 1, fk)
	assert.Equal(t, 5000, timeout)
}

func TestDSN(t *testing.T) {
	const opts = "_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	assert.Equal(t, "/tmp/clockwise.db?"+opts, dsn("/tmp/clockwise.db"))
	assert.Equal(t, ":memory:?"+opts, dsn(":memory:"))
	assert.Equal(t, "file:/tmp/c.db?mode=rwc&"+opts, dsn("file:/tmp/c.db?mode=rwc"))
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.migrate())
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.InTx(context.Background(), func(tx *Tx) error {
		if _, err := tx.CreateTask("Doomed", "", 1, "2026-03-14", t0); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	inTx(t, s, func(tx *Tx) error {
		tasks, err := tx.ListTasks()
		require.NoError(t, err)
		assert.Empty(t, tasks, "rolled back insert is visible")
		return nil
	})
}

// Two handles on one file stand in for two clockwise processes. Each
// transaction reads before it writes, so it must hold the write lock from
// BEGIN for the other handle's commits not to invalidate it.
func TestConcurrentStoresOnOneFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	first, err := New(path)
	require.NoError(t, err)
	defer first.Close()
	second, err := New(path)
	require.NoError(t, err)
	defer second.Close()

	const rounds = 25
	errs := make(chan error, 2*rounds)
	var wg sync.WaitGroup
	for _, s := range []*Store{first, second} {
		wg.Add(1)
		go func(s *Store) {
			defer wg.Done()
			for range rounds {
				errs <- s.InTx(context.Background(), func(tx *Tx) error {
					tasks, err := tx.ListTasks()
					if err != nil {
						return err
					}
					time.Sleep(time.Millisecond)
					_, err = tx.CreateTask(fmt.Sprintf("task %02d", len(tasks)), "", 1, "2026-03-14", t0)
					return err
				})
			}
		}(s)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Every transaction saw all the inserts committed before it.
	inTx(t, first, func(tx *Tx) error {
		tasks, err := tx.ListTasks()
		require.NoError(t, err)
		require.Len(t, tasks, 2*rounds)
		for i, task := range tasks {
			assert.Equal(t, fmt.Sprintf("task %02d", i), task.Name)
		}
		return nil
	})
}

// ============================================================
// Tasks
// ============================================================

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "Write report", "2026-03-14")

	assert.NotZero(t, task.ID)
	assert.Equal(t, "Write report", task.Name)
	assert.Equal(t, "ana", task.Owner)
	assert.Equal(t, 1.5, task.EstimatedHours)
	assert.Equal(t, StatusPending, task.Status)
	assert.True(t, task.CreatedAt.Equal(t0), "CreatedAt = %v", task.CreatedAt)
	assert.Nil(t, task.StartedAt)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, int64(5400), task.EstimatedSeconds())
}

func TestEstimatedSecondsRounds(t *testing.T) {
	tests := []struct {
		hours float64
		want  int64
	}{
		{0, 0},
		{0.5, 1800},
		{2.01, 7236},
		{0.1, 360},
		{1.0 / 3, 1200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Task{EstimatedHours: tt.hours}.EstimatedSeconds(), "hours %v", tt.hours)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s := newTestStore(t)
	inTx(t, s, func(tx *Tx) error {
		_, err := tx.GetTask(999)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		return nil
	})
}

func TestListTasksOrder(t *testing.T) {
	s := newTestStore(t)
	createTask(t, s, "Later", "2026-03-15")
	createTask(t, s, "First", "2026-03-14")
	createTask(t, s, "Second", "2026-03-14")

	inTx(t, s, func(tx *Tx) error {
		tasks, err := tx.ListTasks()
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, []string{"First", "Second", "Later"}, taskNames(tasks))
		return nil
	})
}

func taskNames(tasks []Task) []string {
	names := make([]string, len(tasks))
	for i, task := range tasks {
		names[i] = task.Name
	}
	return names
}

func TestListTasksEmpty(t *testing.T) {
	s := newTestStore(t)
	inTx(t, s, func(tx *Tx) error {
		tasks, err := tx.ListTasks()
		require.NoError(t, err)
		assert.Nil(t, tasks)
		return nil
	})
}

func TestListTasksRunningFirst(t *testing.T) {
	s := newTestStore(t)
	createTask(t, s, "Early", "2026-03-01")
	running := createTask(t, s, "Running", "2026-03-20")

	inTx(t, s, func(tx *Tx) error {
		require.NoError(t, tx.SetTaskStatus(running.ID, StatusWaiting))
		tasks, err := tx.ListTasksRunningFirst()
		require.NoError(t, err)
		assert.Equal(t, []string{"Running", "Early"}, taskNames(tasks))
		return nil
	})
}

func TestListTasksByDate(t *testing.T) {
	s := newTestStore(t)
	createTask(t, s, "Today", "2026-03-14")
	createTask(t, s, "Yesterday", "2026-03-13")

	inTx(t, s, func(tx *Tx) error {
		tasks, err := tx.ListTasksByDate("2026-03-14")
		require.NoError(t, err)
		assert.Equal(t, []string{"Today"}, taskNames(tasks))
		return nil
	})
}

func TestRunningTaskIDs(t *testing.T) {
	s := newTestStore(t)
	a := createTask(t, s, "A", "2026-03-14")
	b := createTask(t, s, "B", "2026-03-14")
	c := createTask(t, s, "C", "2026-03-14")

	inTx(t, s, func(tx *Tx) error {
		require.NoError(t, tx.SetTaskStatus(a.ID, StatusInProgress))
		require.NoError(t, tx.SetTaskStatus(b.ID, StatusWaiting))
		require.NoError(t, tx.SetTaskStatus(c.ID, StatusPaused))

		ids, err := tx.RunningTaskIDs(a.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{b.ID}, ids)
		return nil
	})
}

func TestMarkTaskStartedOnlyOnce(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "Once", "2026-03-14")

	inTx(t, s, func(tx *Tx) error {
		require.NoError(t, tx.MarkTaskStarted(task.ID, t0.Add(time.Minute)))
		require.NoError(t, tx.MarkTaskStarted(task.ID, t0.Add(time.Hour)))
		got, err := tx.GetTask(task.ID)
		require.NoError(t, err)
		require.NotNil(t, got.StartedAt)
		assert.True(t, got.StartedAt.Equal(t0.Add(time.Minute)), "StartedAt = %v, want first stamp", got.StartedAt)
		return nil
	})
}

func TestCompleteTask(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "Finish", "2026-03-14")

	inTx(t, s, func(tx *Tx) error {
		require.NoError(t, tx.CompleteTask(task.ID, t0.Add(time.Hour)))
		got, err := tx.GetTask(task.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, got.CompletedAt.Equal(t0.Add(time.Hour)), "CompletedAt = %v", got.CompletedAt)
		return nil
	})
}

func TestInvalidStatusRejected(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "Bad", "2026-03-14")

	err := s.InTx(context.Background(), func(tx *Tx) error {
		return tx.SetTaskStatus(task.ID, "sleeping")
	})
	assert.Error(t, err, "expected CHECK constraint failure")
}

func TestDeleteTaskCascades(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "Gone", "2026-03-14")

	inTx(t, s, func(tx *Tx) error {
		next, err := tx.NextSession(task.ID)
		require.NoError(t, err)
		require.NoError(t, tx.CreateActiveSession(task.ID, next.ID, t0))
		_, err = tx.OpenTimeLog(task.ID, t0)
		return err
	})

	inTx(t, s, func(tx *Tx) error {
		deleted, err := tx.DeleteTask(task.ID)
		require.NoError(t, err)
		assert.True(t, deleted, "expected delete to report a row")
		return nil
	})

	for _, table := range []string{"pomodoro_sessions", "task_time_logs", "active_sessions"} {
		assert.Zero(t, countRows(t, s, table, task.ID), "%s still has rows after delete", table)
	}

	inTx(t, s, func(tx *Tx) error {
		deleted, err := tx.DeleteTask(task.ID)
		require.NoError(t, err)
		assert.False(t, deleted, "second delete should report no rows")
		return nil
	})
}

// ============================================================
// Pomodoro sessions
// ============================================================

func TestEnsureSessionsMaterializesCycle(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "Cycle", "2026-03-14")

	inTx(t, s, func(tx *Tx) error {
		sessions, err := tx.ListSessions(task.ID)
		require.NoError(t, err)
		require.Len(t, sessions, len(Cycle))
		for i, p := range sessions {
			assert.Equal(t, i+1, p.SessionNumber)
			assert.Equal(t, Cycle[i].Type, p.Type, "session %d", i+1)
			assert.Equal(t, Cycle[i].DurationSeconds, p.DurationSeconds, "session %d", i+1)
			assert.True(t, p.CreatedAt.Equal(t0), "session %d CreatedAt = %v", i+1, p.CreatedAt)
		}
		assert.Equal(t, 900, sessions[7].DurationSeconds, "last break should be long")
		return nil
	})
}

func TestEnsureSessionsIdempotent(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "Twice", "2026-03-14")

	inTx(t, s, func(tx *Tx) error {
		return tx.EnsureSessions(task.ID, t0.Add(time.Hour))
	})
	assert.Equal(t, 8, countRows(t, s, "pomodoro_sessions", task.ID))
}

func TestNextSessionSkipsConsumed(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "Next", "2026-03-14")

	inTx(t, s, func(tx *Tx) error {
		first, err := tx.NextSession(task.ID)
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, 1, first.SessionNumber)
		assert.Equal(t, SessionWork, first.Type)

		require.NoError(t, tx.ConsumeSession(first.ID, t0))
		second, err := tx.NextSession(task.ID)
		require.NoError(t, err)
		require.NotNil(t, second)
		assert.Equal(t, 2, second.SessionNumber)
		assert.Equal(t, SessionBreak, second.Type)
		return nil
	})
}

func TestNextSessionExhausted(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "Exhaust", "2026-03-14")

	inTx(t, s, func(tx *Tx) error {
		sessions, err := tx.ListSessions(task.ID)
		require.NoError(t, err)
		for _, p := range sessions {
			require.NoError(t, tx.ConsumeSession(p.ID, t0))
		}
		next, err := tx.NextSession(task.ID)
		require.NoError(t, err)
		assert.Nil(t, next)
		return nil
	})
}

func TestNextSessionWithoutTemplate(t *testing.T) {
	s := newTestStore(t)
	inTx(t, s, func(tx *Tx) error {
		task, err := tx.CreateTask("Bare", "", 1, "2026-03-14", t0)
		require.NoError(t, err)
		next, err := tx.NextSession(task.ID)
		require.NoError(t, err)
		assert.Nil(t, next, "task without template has no next session")
		return nil
	})
}

// ============================================================
// Active sessions
// ============================================================

func TestActiveSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "Active", "2026-03-14")

	inTx(t, s, func(tx *Tx) error {
		none, err := tx.GetActiveSession(task.ID)
		require.NoError(t, err)
		assert.Nil(t, none)

		next, err := tx.NextSession(task.ID)
		require.NoError(t, err)
		require.NoError(t, tx.CreateActiveSession(task.ID, next.ID, t0))

		a, err := tx.GetActiveSession(task.ID)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, next.ID, a.SessionID)
		assert.Equal(t, SessionWork, a.Type)
		assert.Equal(t, 1500, a.DurationSeconds)
		assert.True(t, a.EndsAt().Equal(t0.Add(25*time.Minute)), "EndsAt = %v", a.EndsAt())
		assert.False(t, a.Due(t0.Add(1499*time.Second)), "not due before its duration")
		assert.True(t, a.Due(t0.Add(1500*time.Second)), "due at exactly its duration")

		assert.Error(t, tx.CreateActiveSession(task.ID, next.ID, t0),
			"second active session for the same task")

		all, err := tx.ListActiveSessions()
		require.NoError(t, err)
		assert.Len(t, all, 1)

		deleted, err := tx.DeleteActiveSession(task.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		return nil
	})
}

func TestActiveSessionRequiresSession(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "FK", "2026-03-14")

	err := s.InTx(context.Background(), func(tx *Tx) error {
		return tx.CreateActiveSession(task.ID, 424242, t0)
	})
	assert.Error(t, err, "expected foreign key failure")
}

// ============================================================
// Time logs
// ============================================================

func TestTimeLogOpenClose(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "Logs", "2026-03-14")

	inTx(t, s, func(tx *Tx) error {
		l, err := tx.OpenTimeLog(task.ID, t0)
		require.NoError(t, err)
		assert.True(t, l.Open())

		open, err := tx.HasOpenTimeLog(task.ID)
		require.NoError(t, err)
		assert.True(t, open)

		closed, err := tx.CloseOpenTimeLog(task.ID, t0.Add(10*time.Minute))
		require.NoError(t, err)
		assert.True(t, closed)

		closed, err = tx.CloseOpenTimeLog(task.ID, t0.Add(20*time.Minute))
		require.NoError(t, err)
		assert.False(t, closed, "closing with no open log")

		logs, err := tx.ListTimeLogs(task.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		require.NotNil(t, logs[0].EndedAt)
		assert.True(t, logs[0].EndedAt.Equal(t0.Add(10*time.Minute)), "EndedAt = %v", logs[0].EndedAt)
		return nil
	})
}

func TestSecondOpenTimeLogRejected(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "Unique", "2026-03-14")

	inTx(t, s, func(tx *Tx) error {
		_, err := tx.OpenTimeLog(task.ID, t0)
		return err
	})
	err := s.InTx(context.Background(), func(tx *Tx) error {
		_, err := tx.OpenTimeLog(task.ID, t0.Add(time.Minute))
		return err
	})
	assert.Error(t, err, "unique index should reject a second open log")
}

func TestListTimeLogsOrdered(t *testing.T) {
	s := newTestStore(t)
	task := createTask(t, s, "Ordered", "2026-03-14")

	inTx(t, s, func(tx *Tx) error {
		for _, offset := range []time.Duration{time.Hour, 0} {
			_, err := tx.OpenTimeLog(task.ID, t0.Add(offset))
			require.NoError(t, err)
			_, err = tx.CloseOpenTimeLog(task.ID, t0.Add(offset+time.Minute))
			require.NoError(t, err)
		}
		logs, err := tx.ListTimeLogs(task.ID)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.True(t, logs[0].StartedAt.Equal(t0), "logs not ordered by start: %+v", logs)
		assert.True(t, logs[1].StartedAt.Equal(t0.Add(time.Hour)), "logs not ordered by start: %+v", logs)
		return nil
	})
}
