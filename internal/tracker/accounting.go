package tracker

import (
	"context"
	"time"

	"github.com/sadopc/clockwise/internal/store"
)

// Span is a time log with its length in whole seconds. Open logs are
// measured up to the instant they were read.
type Span struct {
	store.TimeLog
	Seconds int64 `json:"seconds" yaml:"seconds"`
}

// Summary is a task with its accounted time.
type Summary struct {
	Task             store.Task `json:"task" yaml:"task"`
	WorkedSeconds    int64      `json:"worked_seconds" yaml:"worked_seconds"`
	RemainingSeconds int64      `json:"remaining_seconds" yaml:"remaining_seconds"`
	Logs             []Span     `json:"logs" yaml:"logs"`
}

func measure(logs []store.TimeLog, now time.Time) ([]Span, int64) {
	spans := make([]Span, 0, len(logs))
	var total int64
	for _, l := range logs {
		end := now
		if l.EndedAt != nil {
			end = *l.EndedAt
		}
		secs := int64(end.Sub(l.StartedAt) / time.Second)
		total += secs
		spans = append(spans, Span{TimeLog: l, Seconds: secs})
	}
	return spans, total
}

func summarize(tx *store.Tx, task store.Task, now time.Time) (*Summary, error) {
	logs, err := tx.ListTimeLogs(task.ID)
	if err != nil {
		return nil, err
	}
	spans, worked := measure(logs, now)
	return &Summary{
		Task:             task,
		WorkedSeconds:    worked,
		RemainingSeconds: task.EstimatedSeconds() - worked,
		Logs:             spans,
	}, nil
}

// Summarize returns the accounted time of a single task.
func (s *Service) Summarize(ctx context.Context, id int64) (*Summary, error) {
	now := s.Now()
	var sum *Summary
	err := s.withTx(ctx, func(tx *store.Tx) error {
		task, err := getTask(tx, id)
		if err != nil {
			return err
		}
		sum, err = summarize(tx, *task, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// RemainingTime is the estimate minus the time worked so far, in seconds.
// It goes negative once the estimate is exceeded.
func (s *Service) RemainingTime(ctx context.Context, id int64) (int64, error) {
	sum, err := s.Summarize(ctx, id)
	if err != nil {
		return 0, err
	}
	return sum.RemainingSeconds, nil
}

// WorkedTime is the total of the task's time logs, in seconds.
func (s *Service) WorkedTime(ctx context.Context, id int64) (int64, error) {
	sum, err := s.Summarize(ctx, id)
	if err != nil {
		return 0, err
	}
	return sum.WorkedSeconds, nil
}

// Summaries accounts every task, in schedule order.
func (s *Service) Summaries(ctx context.Context) ([]Summary, error) {
	now := s.Now()
	var out []Summary
	err := s.withTx(ctx, func(tx *store.Tx) error {
		out = nil
		tasks, err := tx.ListTasks()
		if err != nil {
			return err
		}
		for _, task := range tasks {
			sum, err := summarize(tx, task, now)
			if err != nil {
				return err
			}
			out = append(out, *sum)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
