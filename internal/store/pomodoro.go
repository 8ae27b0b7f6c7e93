package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Stage is one entry of the pomodoro cycle template.
type Stage struct {
	Type            string
	DurationSeconds int
}

// Cycle is the fixed work/break sequence materialized for every task:
// four 25 minute work blocks, short breaks between them, and a long break.
var Cycle = []Stage{
	{SessionWork, 1500},
	{SessionBreak, 300},
	{SessionWork, 1500},
	{SessionBreak, 300},
	{SessionWork, 1500},
	{SessionBreak, 300},
	{SessionWork, 1500},
	{SessionBreak, 900},
}

const sessionColumns = `id, task_id, session_number, session_type, duration_seconds, created_at, consumed_at`

// EnsureSessions inserts the Cycle for taskID unless the task already has
// sessions.
func (t *Tx) EnsureSessions(taskID int64, now time.Time) error {
	var count int
	err := t.tx.QueryRow(`SELECT COUNT(*) FROM pomodoro_sessions WHERE task_id = ?`, taskID).Scan(&count)
	if err != nil {
		return fmt.Errorf("count sessions for task %d: %w", taskID, err)
	}
	if count > 0 {
		return nil
	}

	created := formatTime(now)
	for i, st := range Cycle {
		_, err := t.tx.Exec(
			`INSERT INTO pomodoro_sessions (task_id, session_number, session_type, duration_seconds, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			taskID, i+1, st.Type, st.DurationSeconds, created,
		)
		if err != nil {
			return fmt.Errorf("insert session %d for task %d: %w", i+1, taskID, err)
		}
	}
	return nil
}

func (t *Tx) ListSessions(taskID int64) ([]PomodoroSession, error) {
	rows, err := t.tx.Query(
		`SELECT `+sessionColumns+` FROM pomodoro_sessions WHERE task_id = ? ORDER BY session_number ASC`, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []PomodoroSession
	for rows.Next() {
		p, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *p)
	}
	return sessions, rows.Err()
}

// NextSession returns the lowest-numbered session that has never been
// started, or nil when the cycle is exhausted.
func (t *Tx) NextSession(taskID int64) (*PomodoroSession, error) {
	row := t.tx.QueryRow(
		`SELECT `+sessionColumns+` FROM pomodoro_sessions
		 WHERE task_id = ? AND consumed_at IS NULL
		 ORDER BY session_number ASC LIMIT 1`, taskID,
	)
	p, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next session for task %d: %w", taskID, err)
	}
	return p, nil
}

// ConsumeSession marks a session as started; it is never offered again.
func (t *Tx) ConsumeSession(id int64, now time.Time) error {
	_, err := t.tx.Exec(
		`UPDATE pomodoro_sessions SET consumed_at = ? WHERE id = ? AND consumed_at IS NULL`, formatTime(now), id,
	)
	if err != nil {
		return fmt.Errorf("consume session %d: %w", id, err)
	}
	return nil
}

const activeSelect = `SELECT a.task_id, a.pomodoro_id, a.started_at, p.session_number, p.session_type, p.duration_seconds
	FROM active_sessions a
	JOIN pomodoro_sessions p ON p.id = a.pomodoro_id`

func (t *Tx) CreateActiveSession(taskID, sessionID int64, now time.Time) error {
	_, err := t.tx.Exec(
		`INSERT INTO active_sessions (task_id, pomodoro_id, started_at) VALUES (?, ?, ?)`,
		taskID, sessionID, formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("start session %d for task %d: %w", sessionID, taskID, err)
	}
	return nil
}

// GetActiveSession returns nil when the task is not running a session.
func (t *Tx) GetActiveSession(taskID int64) (*ActiveSession, error) {
	row := t.tx.QueryRow(activeSelect+` WHERE a.task_id = ?`, taskID)
	a, err := scanActive(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active session for task %d: %w", taskID, err)
	}
	return a, nil
}

func (t *Tx) ListActiveSessions() ([]ActiveSession, error) {
	rows, err := t.tx.Query(activeSelect + ` ORDER BY a.task_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var active []ActiveSession
	for rows.Next() {
		a, err := scanActive(rows)
		if err != nil {
			return nil, err
		}
		active = append(active, *a)
	}
	return active, rows.Err()
}

func (t *Tx) DeleteActiveSession(taskID int64) (bool, error) {
	res, err := t.tx.Exec(`DELETE FROM active_sessions WHERE task_id = ?`, taskID)
	if err != nil {
		return false, fmt.Errorf("delete active session for task %d: %w", taskID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func scanSession(r rowScanner) (*PomodoroSession, error) {
	p := &PomodoroSession{}
	var createdAt string
	var consumedAt sql.NullString
	err := r.Scan(&p.ID, &p.TaskID, &p.SessionNumber, &p.Type, &p.DurationSeconds, &createdAt, &consumedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.ConsumedAt = parseNullTime(consumedAt)
	return p, nil
}

func scanActive(r rowScanner) (*ActiveSession, error) {
	a := &ActiveSession{}
	var startedAt string
	err := r.Scan(&a.TaskID, &a.SessionID, &startedAt, &a.SessionNumber, &a.Type, &a.DurationSeconds)
	if err != nil {
		return nil, err
	}
	a.StartedAt = parseTime(startedAt)
	return a, nil
}
