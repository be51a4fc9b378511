package tracker

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultCheckInterval   = 60 * time.Minute
	DefaultFirstCheckDelay = 30 * time.Second
)

type ScheduleConfig struct {
	Interval   time.Duration
	FirstDelay time.Duration
}

// Run scans once after cfg.FirstDelay and then every cfg.Interval until ctx
// is cancelled.
func (t *Tracker) Run(ctx context.Context, cfg ScheduleConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	firstDelay := cfg.FirstDelay
	if firstDelay < 0 {
		firstDelay = 0
	}

	t.logger.Info("scheduler started", "interval", interval, "first_check_in", firstDelay)

	first := time.NewTimer(firstDelay)
	defer first.Stop()

	select {
	case <-ctx.Done():
		t.logger.Info("scheduler stopped")
		return
	case <-first.C:
		t.scheduledScan(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			t.scheduledScan(ctx)
		}
	}
}

func (t *Tracker) scheduledScan(ctx context.Context) {
	_, err := t.Scan(ctx)
	switch {
	case errors.Is(err, ErrScanInProgress):
		t.logger.Info("skipping scheduled scan, another scan is running")
	case err != nil:
		t.logger.Error("scheduled scan failed", "error", err)
	}
}
