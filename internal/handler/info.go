package handler

import (
	"net/http"

	"posbridge/internal/store"
)

func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "posbridge"})
	}
}

// RootHandler summarizes what the relay is holding, for eyeballing a
// deployment.
func RootHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "posbridge webhook & polling relay",
			"yemeksepeti": map[string]any{
				"totalOrders":          st.OrderCount(),
				"ordersByStatus":       st.CountsByStatus(),
				"pendingCancellations": st.CancellationCount(),
			},
			"getiryemek": map[string]any{
				"pendingWebhooks": st.EventCount(),
			},
			"endpoints": map[string]any{
				"yemeksepeti": map[string]any{
					"orderWebhook":        "POST /order/{remoteId}",
					"statusUpdate":        "PUT /remoteId/{remoteId}/remoteOrder/{remoteOrderId}/posOrderStatus",
					"cancelWebhook":       "POST /remoteId/{remoteId}/remoteOrder/{remoteOrderId}/cancel",
					"orderPolling":        "GET /api/yemeksepeti/pending-orders",
					"cancellationPolling": "GET /api/yemeksepeti/cancellations",
					"deleteCancellation":  "DELETE /api/yemeksepeti/cancellations/{cancellationId}",
				},
				"getiryemek": map[string]any{
					"webhooks": []string{"POST /webhook/newOrder", "POST /webhook/cancelOrder", "POST /webhook/courierArrival"},
					"polling":  "GET /poll/webhooks?restaurantSecretKey=xxx",
					"delete":   "DELETE /api/getiryemek/webhooks/{webhookId}",
				},
			},
		})
	}
}
