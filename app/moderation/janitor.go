package moderation

import (
	"context"
	"fmt"
	"time"

	"nuclight.org/moderation-tg-bot/pkg/logger"
)

type Purger interface {
	PurgeSubmissions(ctx context.Context, before time.Time) (int64, error)
}

// Janitor reclaims ledger entries older than Retention.
type Janitor struct {
	Log       logger.Logger
	Ledger    Purger
	Retention time.Duration
	Interval  time.Duration

	now func() time.Time
}

// Run sweeps once immediately and then every Interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		if _, err := j.Sweep(ctx); err != nil {
			j.Log.Error("purging stale submissions", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep purges entries older than Retention. A non-positive Retention would
// reach live entries and is refused.
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	if j.Retention <= 0 {
		return 0, fmt.Errorf("retention %s must be positive", j.Retention)
	}

	now := time.Now
	if j.now != nil {
		now = j.now
	}

	cutoff := now().Add(-j.Retention)
	n, err := j.Ledger.PurgeSubmissions(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	if n > 0 {
		purgedCounter.Add(float64(n))
		j.Log.Info("stale submissions purged", "count", n)
	}

	return n, nil
}
