package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(gatewayCallLatencyMs)
}

var gatewayCallLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "gateway_call_latency_ms",
		Help:    "Payment gateway round-trip latency distribution in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
	},
	[]string{"call", "success"},
)

func ObserveGatewayCall(call string, success bool, latencyMs float64) {
	gatewayCallLatencyMs.WithLabelValues(norm(call), strconv.FormatBool(success)).
		Observe(latencyMs)
}
