// Package metrics exposes Prometheus instrumentation for the ledger gateway,
// the pool poller and navigation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledgerdash"

// Outcome labels for gateway requests.
const (
	OutcomeOK          = "ok"
	OutcomeNetwork     = "network_error"
	OutcomeApplication = "application_error"
)

var (
	gatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Ledger API requests by operation and outcome.",
	}, []string{"op", "outcome"})

	gatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_seconds",
		Help:      "Ledger API round trip latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	poolPolls = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pool_polls_total",
		Help:      "Transaction pool polls issued.",
	})

	poolStaleDiscards = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pool_stale_discards_total",
		Help:      "Pool responses discarded because a newer poll was already applied.",
	})

	navigations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "navigations_total",
		Help:      "Route changes by destination route.",
	}, []string{"route"})
)

// RecordGatewayRequest records one completed ledger call.
func RecordGatewayRequest(op, outcome string, elapsed time.Duration) {
	gatewayRequests.WithLabelValues(op, outcome).Inc()
	gatewayLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// RecordPoolPoll counts an issued pool poll.
func RecordPoolPoll() {
	poolPolls.Inc()
}

// RecordStaleDiscard counts a pool response dropped for being out of order.
func RecordStaleDiscard() {
	poolStaleDiscards.Inc()
}

// RecordNavigation counts a route change.
func RecordNavigation(route string) {
	navigations.WithLabelValues(route).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
