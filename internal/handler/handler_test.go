package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posbridge/internal/handler"
	"posbridge/internal/metrics"
	"posbridge/internal/model"
	"posbridge/internal/mw"
	"posbridge/internal/store"
)

const (
	ysKey    = "ys-test-key"
	getirKey = "getir-test-key"
)

func newRouter(st *store.Store, terminalDelete bool) chi.Router {
	m := metrics.NewRegistry()

	r := chi.NewRouter()
	r.Post("/order/{remoteId}", handler.OrderDispatchHandler(st, "http://localhost:3000", m))
	r.Put("/remoteId/{remoteId}/remoteOrder/{remoteOrderId}/posOrderStatus", handler.OrderStatusUpdateHandler(st, m))
	r.Post("/remoteId/{remoteId}/remoteOrder/{remoteOrderId}/cancel", handler.OrderCancelHandler(st, m))
	r.Get("/menuimport/{remoteId}", handler.MenuImportHandler())

	r.Post("/webhook/newOrder", handler.PlatformEventHandler(st, model.EventNewOrder, "default-secret", m))
	r.Post("/webhook/cancelOrder", handler.PlatformEventHandler(st, model.EventCancelOrder, "default-secret", m))
	r.Post("/webhook/courierArrival", handler.PlatformEventHandler(st, model.EventCourierArrival, "default-secret", m))

	r.Post("/test-callbacks/order-accepted/{orderId}", handler.TerminalCallback(st, model.StatusAccepted, terminalDelete))
	r.Post("/test-callbacks/order-rejected/{orderId}", handler.TerminalCallback(st, model.StatusRejected, terminalDelete))
	r.Post("/test-callbacks/order-prepared/{orderId}", handler.ProgressCallback(st, model.StatusPrepared))
	r.Post("/test-callbacks/order-pickedup/{orderId}", handler.ProgressCallback(st, model.StatusPickedUp))

	r.Group(func(r chi.Router) {
		r.Use(mw.APIKey(ysKey))
		r.Get("/api/yemeksepeti/pending-orders", handler.PendingOrdersHandler(st, m))
		r.Delete("/api/yemeksepeti/orders/{orderId}", handler.DeleteOrderHandler(st))
		r.Get("/api/yemeksepeti/cancellations", handler.ListCancellationsHandler(st, m))
		r.Delete("/api/yemeksepeti/cancellations/{cancellationId}", handler.DeleteCancellationHandler(st))
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.APIKey(getirKey))
		r.Get("/poll/webhooks", handler.PollEventsHandler(st, m))
		r.Delete("/api/getiryemek/webhooks/{webhookId}", handler.DeleteEventHandler(st))
	})

	r.Get("/health", handler.HealthHandler())
	r.Get("/", handler.RootHandler(st))
	return r
}

func do(t *testing.T, r chi.Router, method, path, body, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestOrderDispatch(t *testing.T) {
	st := store.New()
	r := newRouter(st, false)

	body := `{"token":"T1","code":"C1","customer":{"firstName":"Ayşe"},` +
		`"products":[{"name":"Pizza","quantity":2,"unitPrice":50,"paidPrice":100}],` +
		`"price":{"grandTotal":100}}`

	w := do(t, r, http.MethodPost, "/order/V1", body, "")
	require.Equal(t, http.StatusOK, w.Code)

	res := decode(t, w)
	remote, ok := res["remoteResponse"].(map[string]any)
	require.True(t, ok)
	remoteOrderID, _ := remote["remoteOrderId"].(string)
	assert.Contains(t, remoteOrderID, "T1")

	tracked, ok := st.Get("T1")
	require.True(t, ok)
	assert.Equal(t, model.StatusNew, tracked.Status)
	require.Len(t, tracked.Order.Items, 1)
	assert.Equal(t, "100", tracked.Order.Items[0].TotalPrice.String())
	assert.Equal(t, "100", tracked.Order.TotalAmount.String())
}

func TestOrderDispatchFreshAckPerCall(t *testing.T) {
	st := store.New()
	r := newRouter(st, false)

	first := decode(t, do(t, r, http.MethodPost, "/order/V1", `{"token":"T1"}`, ""))
	second := decode(t, do(t, r, http.MethodPost, "/order/V1", `{"token":"T1"}`, ""))

	id1 := first["remoteResponse"].(map[string]any)["remoteOrderId"].(string)
	id2 := second["remoteResponse"].(map[string]any)["remoteOrderId"].(string)
	assert.Contains(t, id1, "V1_T1_")
	assert.Contains(t, id2, "V1_T1_")
	assert.Equal(t, 1, st.OrderCount())
}

func TestStatusUpdateCancellation(t *testing.T) {
	st := store.New()
	st.Put("T1", model.CanonicalOrder{OrderToken: "T1"})
	r := newRouter(st, false)

	w := do(t, r, http.MethodPut, "/remoteId/V1/remoteOrder/V1_T1_1700000000000/posOrderStatus",
		`{"status":"cancelled","reason":"CUSTOMER"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	records := st.ListCancellations()
	require.Len(t, records, 1)
	assert.Equal(t, "T1", records[0].OrderID)
	assert.Equal(t, "CUSTOMER", records[0].Reason)
	assert.Equal(t, "PLATFORM", records[0].CancelledBy)
	assert.Equal(t, "V1", records[0].RemoteID)

	tracked, ok := st.Get("T1")
	require.True(t, ok)
	assert.Equal(t, model.StatusCancelled, tracked.Status)
	assert.Equal(t, "CUSTOMER", tracked.CancelReason)
}

func TestStatusUpdateCancellationLexicon(t *testing.T) {
	for _, status := range []string{"cancelled", "REJECTED", "Cancel"} {
		st := store.New()
		r := newRouter(st, false)

		do(t, r, http.MethodPut, "/remoteId/V1/remoteOrder/V1_T1_1/posOrderStatus",
			`{"status":"`+status+`"}`, "")

		records := st.ListCancellations()
		require.Len(t, records, 1, status)
		assert.Equal(t, "UNKNOWN", records[0].Reason)
	}
}

func TestStatusUpdateNonCancellation(t *testing.T) {
	st := store.New()
	st.Put("T1", model.CanonicalOrder{OrderToken: "T1"})
	r := newRouter(st, false)

	w := do(t, r, http.MethodPut, "/remoteId/V1/remoteOrder/V1_T1_1/posOrderStatus",
		`{"status":"order_picked_up"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, st.ListCancellations())
	tracked, _ := st.Get("T1")
	assert.Equal(t, model.StatusNew, tracked.Status)
}

func TestAlternateCancelEndpoint(t *testing.T) {
	st := store.New()
	r := newRouter(st, false)

	w := do(t, r, http.MethodPost, "/remoteId/V1/remoteOrder/V1_T7_1/cancel",
		`{"cancelReason":"LOGISTICS","initiator":"COURIER"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	records := st.ListCancellations()
	require.Len(t, records, 1)
	assert.Equal(t, "T7", records[0].OrderID)
	assert.Equal(t, "LOGISTICS", records[0].Reason)
	assert.Equal(t, "COURIER", records[0].CancelledBy)
}

func TestMenuImport(t *testing.T) {
	w := do(t, newRouter(store.New(), false), http.MethodGet, "/menuimport/V1", "", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Accepted", w.Body.String())
}

func TestPlatformEvents(t *testing.T) {
	st := store.New()
	r := newRouter(st, false)

	req := httptest.NewRequest(http.MethodPost, "/webhook/newOrder", strings.NewReader(`{"id":"g1"}`))
	req.Header.Set("x-restaurant-secret-key", "rest-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	// no header falls back to the configured default
	do(t, r, http.MethodPost, "/webhook/courierArrival", `{"orderId":"g2"}`, "")

	events := st.ListEvents("")
	require.Len(t, events, 2)
	assert.Equal(t, model.EventNewOrder, events[0].Type)
	assert.Equal(t, "rest-1", events[0].RestaurantSecretKey)
	assert.Equal(t, "default-secret", events[1].RestaurantSecretKey)
}

func TestCancelOrderEventWrapsPayload(t *testing.T) {
	st := store.New()
	r := newRouter(st, false)

	do(t, r, http.MethodPost, "/webhook/cancelOrder", `{"id":"g9"}`, "")

	events := st.ListEvents("")
	require.Len(t, events, 1)

	var data map[string]map[string]string
	require.NoError(t, json.Unmarshal(events[0].Data, &data))
	assert.Equal(t, "g9", data["foodOrder"]["id"])
}

func TestPlatformEventsMalformedPayload(t *testing.T) {
	st := store.New()
	r := newRouter(st, false)

	w := do(t, r, http.MethodPost, "/webhook/newOrder", "{broken", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, st.EventCount())
}

func TestPollingUnauthorized(t *testing.T) {
	st := store.New()
	st.Put("T1", model.CanonicalOrder{OrderToken: "T1"})
	r := newRouter(st, false)

	for _, key := range []string{"", "wrong-key"} {
		w := do(t, r, http.MethodGet, "/api/yemeksepeti/pending-orders", "", key)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = do(t, r, http.MethodDelete, "/api/yemeksepeti/orders/T1", "", key)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// nothing was touched
	assert.True(t, st.Has("T1"))
}

func TestPendingOrders(t *testing.T) {
	st := store.New()
	st.Put("T1", model.CanonicalOrder{OrderToken: "T1", OrderID: "C1"})
	st.Put("T2", model.CanonicalOrder{OrderToken: "T2"})
	st.SetStatus("T2", model.StatusAccepted, "acceptedAt")
	r := newRouter(st, false)

	w := do(t, r, http.MethodGet, "/api/yemeksepeti/pending-orders", "", ysKey)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode(t, w)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, float64(1), res["count"])

	orders, ok := res["orders"].([]any)
	require.True(t, ok)
	require.Len(t, orders, 1)
	first := orders[0].(map[string]any)
	assert.Equal(t, "T1", first["_railwayKey"])
	assert.Equal(t, "C1", first["OrderId"])
	assert.NotEmpty(t, first["CreatedAt"])
}

func TestDeleteOrder(t *testing.T) {
	st := store.New()
	st.Put("T1", model.CanonicalOrder{OrderToken: "T1", OrderID: "C1"})
	r := newRouter(st, false)

	w := do(t, r, http.MethodDelete, "/api/yemeksepeti/orders/C1", "", ysKey)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, "orderId", res["deletedBy"])

	w = do(t, r, http.MethodDelete, "/api/yemeksepeti/orders/C1", "", ysKey)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestCancellationPolling(t *testing.T) {
	st := store.New()
	r := newRouter(st, false)

	do(t, r, http.MethodPut, "/remoteId/V1/remoteOrder/V1_T1_1/posOrderStatus",
		`{"status":"cancelled","reason":"CUSTOMER"}`, "")

	w := do(t, r, http.MethodGet, "/api/yemeksepeti/cancellations", "", ysKey)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode(t, w)
	assert.Equal(t, float64(1), res["count"])
	records := res["cancellations"].([]any)
	first := records[0].(map[string]any)
	assert.Equal(t, "T1", first["orderId"])
	assert.NotNil(t, first["originalPayload"])

	id := first["id"].(string)
	w = do(t, r, http.MethodDelete, "/api/yemeksepeti/cancellations/"+id, "", ysKey)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodDelete, "/api/yemeksepeti/cancellations/"+id, "", ysKey)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhookPolling(t *testing.T) {
	st := store.New()
	r := newRouter(st, false)

	req := httptest.NewRequest(http.MethodPost, "/webhook/newOrder", strings.NewReader(`{}`))
	req.Header.Set("x-restaurant-secret-key", "rest-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/webhook/newOrder", strings.NewReader(`{}`))
	req.Header.Set("x-restaurant-secret-key", "rest-2")
	r.ServeHTTP(httptest.NewRecorder(), req)

	w := do(t, r, http.MethodGet, "/poll/webhooks?restaurantSecretKey=rest-2", "", getirKey)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode(t, w)
	webhooks := res["webhooks"].([]any)
	require.Len(t, webhooks, 1)
	ev := webhooks[0].(map[string]any)
	assert.Equal(t, "rest-2", ev["restaurantSecretKey"])

	id := ev["id"].(string)
	w = do(t, r, http.MethodDelete, "/api/getiryemek/webhooks/"+id, "", getirKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, st.EventCount())

	w = do(t, r, http.MethodDelete, "/api/getiryemek/webhooks/"+id, "", getirKey)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTerminalCallbackKeepsOrderByDefault(t *testing.T) {
	st := store.New()
	st.Put("T1", model.CanonicalOrder{OrderToken: "T1"})
	r := newRouter(st, false)

	w := do(t, r, http.MethodPost, "/test-callbacks/order-accepted/T1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "accepted", decode(t, w)["action"])

	tracked, ok := st.Get("T1")
	require.True(t, ok)
	assert.Equal(t, model.StatusAccepted, tracked.Status)
	assert.Contains(t, tracked.StatusTimestamps, "acceptedAt")
}

func TestTerminalCallbackDeletePolicy(t *testing.T) {
	st := store.New()
	st.Put("T1", model.CanonicalOrder{OrderToken: "T1"})
	r := newRouter(st, true)

	w := do(t, r, http.MethodPost, "/test-callbacks/order-rejected/T1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rejected_and_removed", decode(t, w)["action"])
	assert.False(t, st.Has("T1"))
}

func TestProgressCallback(t *testing.T) {
	st := store.New()
	st.Put("T1", model.CanonicalOrder{OrderToken: "T1"})
	r := newRouter(st, false)

	w := do(t, r, http.MethodPost, "/test-callbacks/order-prepared/T1", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	tracked, _ := st.Get("T1")
	assert.Equal(t, model.StatusPrepared, tracked.Status)

	// unknown tokens are acknowledged without effect
	w = do(t, r, http.MethodPost, "/test-callbacks/order-pickedup/ghost", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndRoot(t *testing.T) {
	st := store.New()
	st.Put("T1", model.CanonicalOrder{OrderToken: "T1"})
	r := newRouter(st, false)

	w := do(t, r, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = do(t, r, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	ys := res["yemeksepeti"].(map[string]any)
	assert.Equal(t, float64(1), ys["totalOrders"])
}
