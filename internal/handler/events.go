package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"posbridge/internal/metrics"
	"posbridge/internal/model"
	"posbridge/internal/store"
)

// PlatformEventHandler ingests GetirYemek webhooks. The payload is stored
// opaque and always acknowledged with 200 OK; the platform has no retry
// contract worth signalling errors to.
func PlatformEventHandler(st *store.Store, eventType model.EventType, defaultSecretKey string, m *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		data := rawOrEmptyObject(raw)

		if eventType == model.EventCancelOrder {
			// cancellations arrive bare but the POS expects them wrapped
			wrapped, err := json.Marshal(map[string]json.RawMessage{"foodOrder": data})
			if err == nil {
				data = wrapped
			}
		}

		secretKey := r.Header.Get("x-restaurant-secret-key")
		if secretKey == "" {
			secretKey = defaultSecretKey
		}

		ev := model.InboundEvent{
			ID:                  uuid.NewString(),
			Type:                eventType,
			Data:                data,
			RestaurantSecretKey: secretKey,
			Timestamp:           time.Now(),
		}
		st.AppendEvent(ev)
		m.EventsReceived.Inc()

		slog.Info("platform event received", "type", eventType, "id", ev.ID)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
