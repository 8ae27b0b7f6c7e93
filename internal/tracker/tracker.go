// Package tracker schedules pomodoro sessions for tasks and accounts for the
// time worked on them. Every operation reconstructs its state from the store
// and runs under a single lock inside a single transaction.
package tracker

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sadopc/clockwise/internal/store"
)

// Service is the task lifecycle controller and session advancement engine.
type Service struct {
	mu    sync.Mutex
	store *store.Store
	now   func() time.Time
	loc   *time.Location
	log   *slog.Logger
}

type Option func(*Service)

// WithClock replaces the wall clock used by every operation except Advance,
// which takes its instant explicitly.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone used to decide which date is "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		now:   time.Now,
		loc:   time.Local,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current instant, truncated to the second
// precision timestamps are stored with.
func (s *Service) Now() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// withTx serializes fn against every other operation and commits its writes
// atomically.
func (s *Service) withTx(ctx context.Context, fn func(tx *store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.InTx(ctx, fn)
}

// getTask maps a missing row to ErrTaskNotFound.
func getTask(tx *store.Tx, id int64) (*store.Task, error) {
	task, err := tx.GetTask(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	return task, err
}
