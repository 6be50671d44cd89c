package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"posbridge/internal/metrics"
	"posbridge/internal/model"
	"posbridge/internal/store"
)

// PendingOrdersHandler lists NEW orders for the POS. The reference behavior
// serves only orders from the current calendar day; ?today=false lifts the
// filter.
func PendingOrdersHandler(st *store.Store, m *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var since *time.Time
		if r.URL.Query().Get("today") != "false" {
			t := startOfToday()
			since = &t
		}

		orders := st.ListByStatus(model.StatusNew, since)
		m.PollRequests.Inc()
		slog.Info("order polling", "count", len(orders))

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"count":   len(orders),
			"orders":  orders,
		})
	}
}

// DeleteOrderHandler acknowledges an order by storage key, OrderId or
// OrderToken, whichever the POS happened to keep.
func DeleteOrderHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "orderId")

		deletedBy, err := st.DeleteByOrderIDOrToken(id)
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("order not found for deletion", "id", id)
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Order not found"})
			return
		}

		slog.Info("order deleted", "id", id, "deletedBy", deletedBy)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "deletedBy": deletedBy})
	}
}

func ListCancellationsHandler(st *store.Store, m *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cancellations := st.ListCancellations()
		m.PollRequests.Inc()
		slog.Info("cancellation polling", "count", len(cancellations))

		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"count":         len(cancellations),
			"cancellations": cancellations,
		})
	}
}

func DeleteCancellationHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "cancellationId")

		if err := st.DeleteCancellation(id); errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Cancellation not found"})
			return
		}

		slog.Info("cancellation deleted", "id", id)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

// PollEventsHandler lists GetirYemek events, optionally scoped to one
// restaurant via its secret key.
func PollEventsHandler(st *store.Store, m *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secretKey := r.URL.Query().Get("restaurantSecretKey")

		events := st.ListEvents(secretKey)
		m.PollRequests.Inc()
		slog.Info("webhook polling", "count", len(events))

		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"webhooks": events,
		})
	}
}

func DeleteEventHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "webhookId")

		if err := st.DeleteEvent(id); errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false})
			return
		}

		slog.Info("webhook deleted", "id", id)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
