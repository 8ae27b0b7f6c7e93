// Package command is the request/response surface over the tracker. No
// error crosses it: every call returns a Response whose Error carries a kind
// and a message fit for display.
package command

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/sadopc/clockwise/internal/store"
	"github.com/sadopc/clockwise/internal/tracker"
)

// StorageFailure is the message shown in place of storage error details.
const StorageFailure = "storage failure"

type Failure struct {
	Kind    tracker.Kind `json:"kind"`
	Message string       `json:"message"`
}

func (f *Failure) Error() string { return f.Message }

type Response[T any] struct {
	OK    bool     `json:"ok"`
	Data  T        `json:"data"`
	Error *Failure `json:"error,omitempty"`
}

// MarshalJSON always writes data on success, even when it is empty, and
// leaves it out on failure.
func (r Response[T]) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return json.Marshal(struct {
			OK    bool     `json:"ok"`
			Error *Failure `json:"error"`
		}{r.OK, r.Error})
	}
	return json.Marshal(struct {
		OK   bool `json:"ok"`
		Data T    `json:"data"`
	}{r.OK, r.Data})
}

// Unit is the payload of commands that only report success.
type Unit struct{}

// Err returns the failure as an error, or nil on success.
func (r Response[T]) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

type Commands struct {
	svc *tracker.Service
	log *slog.Logger
}

func New(svc *tracker.Service, log *slog.Logger) *Commands {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Commands{svc: svc, log: log}
}

func respond[T any](c *Commands, op string, data T, err error) Response[T] {
	if err == nil {
		return Response[T]{OK: true, Data: data}
	}
	kind := tracker.KindOf(err)
	msg := err.Error()
	if kind == tracker.KindStorage {
		c.log.Error("command failed", "op", op, "err", err)
		msg = StorageFailure
	}
	return Response[T]{Error: &Failure{Kind: kind, Message: msg}}
}

func (c *Commands) LoadTasks(ctx context.Context) Response[[]store.Task] {
	tasks, err := c.svc.LoadTasks(ctx)
	return respond(c, "load_tasks", tasks, err)
}

func (c *Commands) LoadTasksWithSessions(ctx context.Context) Response[[]tracker.TaskView] {
	views, err := c.svc.LoadTasksWithSessions(ctx)
	return respond(c, "load_tasks_with_sessions", views, err)
}

func (c *Commands) AddTask(ctx context.Context, name, owner string, estimatedHours float64, scheduledDate string) Response[*store.Task] {
	task, err := c.svc.AddTask(ctx, tracker.NewTask{
		Name:           name,
		Owner:          owner,
		EstimatedHours: estimatedHours,
		ScheduledDate:  scheduledDate,
	})
	return respond(c, "add_task", task, err)
}

func (c *Commands) StartTask(ctx context.Context, id int64, force bool) Response[Unit] {
	return respond(c, "start_task", Unit{}, c.svc.Start(ctx, id, force))
}

func (c *Commands) PauseTask(ctx context.Context, id int64) Response[Unit] {
	return respond(c, "pause_task", Unit{}, c.svc.Pause(ctx, id))
}

func (c *Commands) ResumeTask(ctx context.Context, id int64) Response[Unit] {
	return respond(c, "resume_task", Unit{}, c.svc.Resume(ctx, id))
}

func (c *Commands) CompleteTask(ctx context.Context, id int64) Response[Unit] {
	return respond(c, "complete_task", Unit{}, c.svc.Complete(ctx, id))
}

func (c *Commands) DeleteTask(ctx context.Context, id int64) Response[Unit] {
	return respond(c, "delete_task", Unit{}, c.svc.Delete(ctx, id))
}

// GetTaskRemainingTime returns signed seconds left on the estimate.
func (c *Commands) GetTaskRemainingTime(ctx context.Context, id int64) Response[int64] {
	secs, err := c.svc.RemainingTime(ctx, id)
	return respond(c, "get_task_remaining_time", secs, err)
}

func (c *Commands) GetTodayTasks(ctx context.Context) Response[[]store.Task] {
	tasks, err := c.svc.TodayTasks(ctx)
	return respond(c, "get_today_tasks", tasks, err)
}

// CheckPomodoroSessions advances elapsed sessions and returns the ids of
// the tasks that moved.
func (c *Commands) CheckPomodoroSessions(ctx context.Context) Response[[]int64] {
	ids, err := c.svc.Check(ctx)
	return respond(c, "check_pomodoro_sessions", ids, err)
}

func (c *Commands) GetTaskTimeLogs(ctx context.Context, id int64) Response[[]tracker.Span] {
	logs, err := c.svc.TimeLogs(ctx, id)
	return respond(c, "get_task_time_logs", logs, err)
}

func (c *Commands) Summaries(ctx context.Context) Response[[]tracker.Summary] {
	sums, err := c.svc.Summaries(ctx)
	return respond(c, "summaries", sums, err)
}
