package tracker

import (
	"context"
	"log/slog"
	"time"
)

// Poller drives Check on a fixed period. A missed tick is harmless since
// elapsed sessions are detected from stored timestamps.
type Poller struct {
	svc      *Service
	interval time.Duration
	notify   func(ids []int64)
	log      *slog.Logger
}

// NewPoller returns a poller that calls notify with the ids of the tasks
// each tick advanced. Ticks that advance nothing are not reported.
func NewPoller(svc *Service, interval time.Duration, notify func(ids []int64)) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{svc: svc, interval: interval, notify: notify, log: svc.log}
}

// Tick runs a single poll.
func (p *Poller) Tick(ctx context.Context) error {
	ids, err := p.svc.Check(ctx)
	if err != nil {
		return err
	}
	if len(ids) > 0 && p.notify != nil {
		p.notify(ids)
	}
	return nil
}

// Run polls until ctx is done. Failed polls are logged and retried on the
// next tick.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if err := p.Tick(ctx); err != nil {
		p.log.Error("poll failed", "err", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				p.log.Error("poll failed", "err", err)
			}
		}
	}
}
