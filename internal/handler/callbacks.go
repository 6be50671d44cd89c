package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"posbridge/internal/model"
	"posbridge/internal/store"
)

// TerminalCallback stands in for the platform's asynchronous accept/reject
// callback. By default the order is kept with its terminal status for the
// audit trail; deleteOnTerminal restores the old behavior of removing it
// from the polling set immediately.
func TerminalCallback(st *store.Store, status model.OrderStatus, deleteOnTerminal bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "orderId")
		action := strings.ToLower(string(status))

		if deleteOnTerminal {
			if err := st.DeleteByToken(token); err == nil {
				action += "_and_removed"
				slog.Info("order removed from queue", "token", token, "status", status)
			}
		} else {
			st.SetStatus(token, status, status.TimestampField())
			slog.Info("order status set", "token", token, "status", status)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"orderId": token,
			"action":  action,
		})
	}
}

// ProgressCallback stands in for the prepared/picked-up notifications; these
// never remove the order.
func ProgressCallback(st *store.Store, status model.OrderStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "orderId")

		st.SetStatus(token, status, status.TimestampField())
		slog.Info("order status set", "token", token, "status", status)

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "orderId": token})
	}
}
