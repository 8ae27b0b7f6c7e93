package store

import (
	"database/sql"
	"fmt"
	"time"
)

const logColumns = `id, task_id, started_at, ended_at`

func (t *Tx) OpenTimeLog(taskID int64, now time.Time) (*TimeLog, error) {
	res, err := t.tx.Exec(
		`INSERT INTO task_time_logs (task_id, started_at) VALUES (?, ?)`, taskID, formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("open time log for task %d: %w", taskID, err)
	}
	id, _ := res.LastInsertId()
	return t.GetTimeLog(id)
}

func (t *Tx) GetTimeLog(id int64) (*TimeLog, error) {
	l, err := scanTimeLog(t.tx.QueryRow(`SELECT `+logColumns+` FROM task_time_logs WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get time log %d: %w", id, err)
	}
	return l, nil
}

func (t *Tx) HasOpenTimeLog(taskID int64) (bool, error) {
	var count int
	err := t.tx.QueryRow(
		`SELECT COUNT(*) FROM task_time_logs WHERE task_id = ? AND ended_at IS NULL`, taskID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count open time logs for task %d: %w", taskID, err)
	}
	return count > 0, nil
}

// CloseOpenTimeLog sets ended_at on the task's open log, if any, and reports
// whether a log was closed.
func (t *Tx) CloseOpenTimeLog(taskID int64, at time.Time) (bool, error) {
	res, err := t.tx.Exec(
		`UPDATE task_time_logs SET ended_at = ? WHERE task_id = ? AND ended_at IS NULL`,
		formatTime(at), taskID,
	)
	if err != nil {
		return false, fmt.Errorf("close time log for task %d: %w", taskID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListTimeLogs returns the task's intervals ordered by start time.
func (t *Tx) ListTimeLogs(taskID int64) ([]TimeLog, error) {
	rows, err := t.tx.Query(
		`SELECT `+logColumns+` FROM task_time_logs WHERE task_id = ? ORDER BY started_at ASC, id ASC`, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list time logs: %w", err)
	}
	defer rows.Close()

	var logs []TimeLog
	for rows.Next() {
		l, err := scanTimeLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func scanTimeLog(r rowScanner) (*TimeLog, error) {
	l := &TimeLog{}
	var startedAt string
	var endedAt sql.NullString
	if err := r.Scan(&l.ID, &l.TaskID, &startedAt, &endedAt); err != nil {
		return nil, err
	}
	l.StartedAt = parseTime(startedAt)
	l.EndedAt = parseNullTime(endedAt)
	return l, nil
}
