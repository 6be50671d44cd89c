package worker

import (
	"context"
	"log/slog"
	"time"

	"posbridge/internal/metrics"
	"posbridge/internal/model"
	"posbridge/internal/service"
	"posbridge/internal/store"
)

// Reconciler periodically re-checks locally tracked NEW orders against the
// platform's source of truth: orders the platform reports cancelled or
// unknown are dropped, accepted ones are promoted. Terminal statuses are
// never revisited.
type Reconciler struct {
	store    *store.Store
	client   *service.YemekSepetiClient
	metrics  *metrics.Registry
	interval time.Duration
	warmup   time.Duration
}

func NewReconciler(st *store.Store, client *service.YemekSepetiClient, m *metrics.Registry, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reconciler{
		store:    st,
		client:   client,
		metrics:  m,
		interval: interval,
		warmup:   30 * time.Second,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	slog.Info("starting order reconciler", "interval", r.interval)

	warmup := time.NewTimer(r.warmup)
	defer warmup.Stop()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reconciler stopped")
			return
		case <-warmup.C:
			r.runCycle(ctx)
		case <-ticker.C:
			r.runCycle(ctx)
		}
	}
}

// runCycle is the failure boundary: nothing a cycle does may kill the timer
// loop.
func (r *Reconciler) runCycle(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("reconciliation cycle panicked", "panic", rec)
		}
	}()
	r.Reconcile(ctx)
}

// Reconcile runs one cycle. Transport and auth failures are logged and the
// affected orders are left for the next interval.
func (r *Reconciler) Reconcile(ctx context.Context) {
	if !r.client.Configured() {
		slog.Info("reconciliation skipped, upstream credentials not configured")
		return
	}
	if r.store.OrderCount() == 0 {
		return
	}

	if _, err := r.client.Token(ctx); err != nil {
		slog.Error("upstream login failed, deferring cycle", "error", err)
		return
	}

	pending := r.store.ListByStatus(model.StatusNew, nil)
	slog.Info("validating orders against upstream", "count", len(pending))

	var stale []string
	for _, o := range pending {
		if o.OrderToken == "" {
			continue
		}

		remote, err := r.client.OrderStatus(ctx, o.OrderToken)
		if err != nil {
			slog.Error("order status check failed", "token", o.OrderToken, "error", err)
			continue
		}

		switch remote.Status {
		case service.StatusNotFound, "cancelled":
			stale = append(stale, o.StorageKey)
		case "accepted":
			r.store.SetStatus(o.OrderToken, model.StatusAccepted, model.StatusAccepted.TimestampField())
			r.metrics.ReconcilerAccepted.Inc()
			slog.Info("order accepted upstream", "token", o.OrderToken)
		}
	}

	// deletions are applied only after the scan so upstream calls never
	// interleave with collection mutation
	deleted := 0
	for _, key := range stale {
		if err := r.store.DeleteByToken(key); err == nil {
			deleted++
		}
	}
	if deleted > 0 {
		r.metrics.ReconcilerDeleted.Add(float64(deleted))
		slog.Info("removed stale orders", "count", deleted)
	}
}
