package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"posbridge/internal/metrics"
	"posbridge/internal/model"
	"posbridge/internal/normalize"
	"posbridge/internal/store"
)

// OrderDispatchHandler receives a new-order webhook from the platform,
// normalizes it and tracks it as NEW for the POS to poll. publicBaseURL is
// the configured callback origin; when empty (local/dev) the request host is
// used instead.
func OrderDispatchHandler(st *store.Store, publicBaseURL string, m *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteID := chi.URLParam(r, "remoteId")

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			raw = nil
		}

		origin := publicBaseURL
		if origin == "" {
			origin = "http://" + r.Host
		}

		order := normalize.Order(remoteID, raw, origin)
		st.Put(order.OrderToken, order)
		m.OrdersReceived.Inc()

		slog.Info("order received",
			"vendor", remoteID,
			"token", order.OrderToken,
			"items", len(order.Items),
			"total", order.TotalAmount,
			"deliveryType", order.DeliveryType)

		// the acknowledgement id is minted fresh on every call, including
		// redeliveries of an already-tracked token
		ack := model.RemoteOrderRef{VendorID: remoteID, OrderToken: order.OrderToken, IssuedAt: time.Now()}
		writeJSON(w, http.StatusOK, map[string]any{
			"remoteResponse": map[string]string{"remoteOrderId": ack.String()},
		})
	}
}

var cancellationLexicon = map[string]bool{
	"cancelled": true,
	"rejected":  true,
	"cancel":    true,
}

// OrderStatusUpdateHandler receives platform status updates. Cancellation
// statuses produce a CancellationRecord and mark the tracked order
// CANCELLED; anything else is acknowledged without processing.
func OrderStatusUpdateHandler(st *store.Store, m *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteID := chi.URLParam(r, "remoteId")
		remoteOrderID := chi.URLParam(r, "remoteOrderId")

		raw, _ := io.ReadAll(r.Body)
		var update map[string]any
		_ = json.Unmarshal(raw, &update)

		status := strings.ToLower(firstString(update, "status"))
		slog.Info("order status update", "vendor", remoteID, "remoteOrderId", remoteOrderID, "status", status)

		if cancellationLexicon[status] {
			rec := newCancellation(remoteID, remoteOrderID, raw, update)
			st.AddCancellation(rec)
			st.SetStatus(rec.OrderID, model.StatusCancelled, model.StatusCancelled.TimestampField())
			st.RecordCancelReason(rec.OrderID, rec.Reason)
			m.CancellationsReceived.Inc()

			slog.Info("cancellation recorded",
				"id", rec.ID, "token", rec.OrderID, "reason", rec.Reason, "cancelledBy", rec.CancelledBy)
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Status update received"})
	}
}

// OrderCancelHandler is the alternate cancellation shape some integrations
// send instead of a posOrderStatus update.
func OrderCancelHandler(st *store.Store, m *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteID := chi.URLParam(r, "remoteId")
		remoteOrderID := chi.URLParam(r, "remoteOrderId")

		raw, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(raw, &payload)

		rec := newCancellation(remoteID, remoteOrderID, raw, payload)
		st.AddCancellation(rec)
		st.SetStatus(rec.OrderID, model.StatusCancelled, model.StatusCancelled.TimestampField())
		st.RecordCancelReason(rec.OrderID, rec.Reason)
		m.CancellationsReceived.Inc()

		slog.Info("cancellation recorded", "id", rec.ID, "token", rec.OrderID, "reason", rec.Reason)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

// MenuImportHandler acknowledges menu pulls without processing them.
func MenuImportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("menu import request", "vendor", chi.URLParam(r, "remoteId"))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("Accepted"))
	}
}

func newCancellation(remoteID, remoteOrderID string, raw []byte, payload map[string]any) model.CancellationRecord {
	// the composite id is vendor_token_millis; fall back to the split
	// decoder because this id was minted by us but round-tripped externally
	ref := model.ParseRemoteOrderID(remoteOrderID)
	now := time.Now()

	reason := firstString(payload, "reason", "cancelReason", "rejectionReason")
	if reason == "" {
		reason = "UNKNOWN"
	}
	cancelledBy := firstString(payload, "cancelledBy", "initiator")
	if cancelledBy == "" {
		cancelledBy = "PLATFORM"
	}

	return model.CancellationRecord{
		ID:              "cancel_" + uuid.NewString(),
		OrderID:         ref.OrderToken,
		RemoteOrderID:   remoteOrderID,
		RemoteID:        remoteID,
		Status:          "CANCELLED",
		Reason:          reason,
		ReasonCode:      firstString(payload, "reasonCode", "cancelReasonCode"),
		CancelledBy:     cancelledBy,
		Note:            firstString(payload, "note", "cancelNote"),
		OriginalPayload: rawOrEmptyObject(raw),
		CancelledAt:     now,
		CreatedAt:       now,
	}
}
