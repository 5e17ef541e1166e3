package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	actionsEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "empdesk",
			Name:      "actions_enqueued_total",
			Help:      "Pending actions enqueued by kind.",
		},
		[]string{"kind"},
	)

	actionsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "empdesk",
			Name:      "actions_delivered_total",
			Help:      "Pending actions confirmed by the remote side, by kind.",
		},
		[]string{"kind"},
	)

	deliveryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "empdesk",
			Name:      "action_delivery_failures_total",
			Help:      "Failed delivery attempts by kind.",
		},
		[]string{"kind"},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "empdesk",
			Name:      "pending_actions",
			Help:      "Current pending-action queue depth.",
		},
	)

	stalledActions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "empdesk",
			Name:      "stalled_actions",
			Help:      "Queued actions whose kind has no registered handler.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "empdesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			actionsEnqueued,
			actionsDelivered,
			deliveryFailures,
			queueDepth,
			stalledActions,
			httpRequests,
		)
	})
}

func IncEnqueued(kind string) {
	actionsEnqueued.WithLabelValues(kind).Inc()
}

func IncDelivered(kind string) {
	actionsDelivered.WithLabelValues(kind).Inc()
}

func IncDeliveryFailed(kind string) {
	deliveryFailures.WithLabelValues(kind).Inc()
}

func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

func SetStalledActions(n int) {
	stalledActions.Set(float64(n))
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
