package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	OrdersReceived        prometheus.Counter
	CancellationsReceived prometheus.Counter
	EventsReceived        prometheus.Counter
	PollRequests          prometheus.Counter

	ReconcilerAccepted prometheus.Counter
	ReconcilerDeleted  prometheus.Counter
	SweeperEvicted     prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	ordersReceived := prometheus.NewCounter(prometheus.CounterOpts{Name: "posbridge_orders_received_total"})
	cancellationsReceived := prometheus.NewCounter(prometheus.CounterOpts{Name: "posbridge_cancellations_received_total"})
	eventsReceived := prometheus.NewCounter(prometheus.CounterOpts{Name: "posbridge_platform_events_received_total"})
	pollRequests := prometheus.NewCounter(prometheus.CounterOpts{Name: "posbridge_poll_requests_total"})
	reconcilerAccepted := prometheus.NewCounter(prometheus.CounterOpts{Name: "posbridge_reconciler_accepted_total"})
	reconcilerDeleted := prometheus.NewCounter(prometheus.CounterOpts{Name: "posbridge_reconciler_deleted_total"})
	sweeperEvicted := prometheus.NewCounter(prometheus.CounterOpts{Name: "posbridge_sweeper_evicted_total"})

	r.MustRegister(ordersReceived, cancellationsReceived, eventsReceived, pollRequests,
		reconcilerAccepted, reconcilerDeleted, sweeperEvicted)

	return &Registry{
		reg:                   r,
		OrdersReceived:        ordersReceived,
		CancellationsReceived: cancellationsReceived,
		EventsReceived:        eventsReceived,
		PollRequests:          pollRequests,
		ReconcilerAccepted:    reconcilerAccepted,
		ReconcilerDeleted:     reconcilerDeleted,
		SweeperEvicted:        sweeperEvicted,
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
