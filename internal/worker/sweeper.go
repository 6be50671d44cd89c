package worker

import (
	"context"
	"log/slog"
	"time"

	"posbridge/internal/metrics"
	"posbridge/internal/store"
)

// Sweeper evicts records nobody will poll for anymore. Retention is
// calendar-based, not a sliding 24h window: everything received before
// yesterday's local midnight goes.
type Sweeper struct {
	store        *store.Store
	metrics      *metrics.Registry
	interval     time.Duration
	startupDelay time.Duration
}

func NewSweeper(st *store.Store, m *metrics.Registry) *Sweeper {
	return &Sweeper{
		store:        st,
		metrics:      m,
		interval:     time.Hour,
		startupDelay: 5 * time.Second,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	slog.Info("starting retention sweeper", "interval", s.interval)

	startup := time.NewTimer(s.startupDelay)
	defer startup.Stop()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		case <-startup.C:
			s.Sweep()
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one eviction pass. Pure housekeeping, never fails.
func (s *Sweeper) Sweep() {
	cutoff := RetentionCutoff(time.Now())
	orders, cancellations, events := s.store.Sweep(cutoff)

	total := orders + cancellations + events
	if total > 0 {
		s.metrics.SweeperEvicted.Add(float64(total))
		slog.Info("cleanup removed old records",
			"orders", orders, "cancellations", cancellations, "webhooks", events)
	}
}

// RetentionCutoff is yesterday at local midnight relative to now.
func RetentionCutoff(now time.Time) time.Time {
	y := now.AddDate(0, 0, -1)
	return time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, y.Location())
}
