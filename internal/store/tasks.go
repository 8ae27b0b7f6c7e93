package store

import (
	"database/sql"
	"fmt"
	"time"
)

const taskColumns = `id, name, owner, estimated_hours, scheduled_date, status, created_at, started_at, completed_at`

func (t *Tx) CreateTask(name, owner string, estimatedHours float64, scheduledDate string, now time.Time) (*Task, error) {
	res, err := t.tx.Exec(
		`INSERT INTO tasks (name, owner, estimated_hours, scheduled_date, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		name, owner, estimatedHours, scheduledDate, StatusPending, formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	return t.GetTask(id)
}

// GetTask returns the task or an error wrapping sql.ErrNoRows.
func (t *Tx) GetTask(id int64) (*Task, error) {
	row := t.tx.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return task, nil
}

// ListTasks returns every task ordered by schedule, then creation.
func (t *Tx) ListTasks() ([]Task, error) {
	return t.queryTasks(`SELECT ` + taskColumns + ` FROM tasks ORDER BY scheduled_date ASC, created_at ASC, id ASC`)
}

// ListTasksRunningFirst orders in_progress/waiting tasks before the rest.
func (t *Tx) ListTasksRunningFirst() ([]Task, error) {
	return t.queryTasks(`SELECT ` + taskColumns + ` FROM tasks
		ORDER BY CASE WHEN status IN ('in_progress', 'waiting') THEN 0 ELSE 1 END ASC,
		         scheduled_date ASC, created_at ASC, id ASC`)
}

func (t *Tx) ListTasksByDate(date string) ([]Task, error) {
	return t.queryTasks(`SELECT `+taskColumns+` FROM tasks WHERE scheduled_date = ? ORDER BY created_at ASC, id ASC`, date)
}

// RunningTaskIDs lists tasks in_progress or waiting, other than exceptID.
func (t *Tx) RunningTaskIDs(exceptID int64) ([]int64, error) {
	rows, err := t.tx.Query(
		`SELECT id FROM tasks WHERE status IN ('in_progress', 'waiting') AND id != ? ORDER BY id`, exceptID,
	)
	if err != nil {
		return nil, fmt.Errorf("list running tasks: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *Tx) SetTaskStatus(id int64, status string) error {
	_, err := t.tx.Exec(`UPDATE tasks SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set task %d status: %w", id, err)
	}
	return nil
}

// MarkTaskStarted stamps started_at only if it was never set.
func (t *Tx) MarkTaskStarted(id int64, now time.Time) error {
	_, err := t.tx.Exec(
		`UPDATE tasks SET started_at = ? WHERE id = ? AND started_at IS NULL`, formatTime(now), id,
	)
	if err != nil {
		return fmt.Errorf("mark task %d started: %w", id, err)
	}
	return nil
}

func (t *Tx) CompleteTask(id int64, now time.Time) error {
	_, err := t.tx.Exec(
		`UPDATE tasks SET status = ?, completed_at = ? WHERE id = ?`, StatusCompleted, formatTime(now), id,
	)
	if err != nil {
		return fmt.Errorf("complete task %d: %w", id, err)
	}
	return nil
}

// DeleteTask removes the task; foreign keys cascade to its logs, sessions
// and active session.
func (t *Tx) DeleteTask(id int64) (bool, error) {
	res, err := t.tx.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (t *Tx) queryTasks(query string, args ...any) ([]Task, error) {
	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (*Task, error) {
	task := &Task{}
	var createdAt string
	var startedAt, completedAt sql.NullString
	err := r.Scan(&task.ID, &task.Name, &task.Owner, &task.EstimatedHours, &task.ScheduledDate,
		&task.Status, &createdAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	task.CreatedAt = parseTime(createdAt)
	task.StartedAt = parseNullTime(startedAt)
	task.CompletedAt = parseNullTime(completedAt)
	return task, nil
}
