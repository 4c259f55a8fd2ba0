package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		chargesTotal,
		refundsTotal,
		revenueMinorUnits,
	)
}

var (
	chargesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processor_charges_total",
			Help: "Charge attempts by outcome (succeeded/declined/error).",
		},
		[]string{"outcome"},
	)

	refundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processor_refunds_total",
			Help: "Refund attempts by outcome (succeeded/error).",
		},
		[]string{"outcome"},
	)

	revenueMinorUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processor_revenue_minor_units_total",
			Help: "Monetary value of successful charges in minor units, by currency.",
		},
		[]string{"currency"},
	)
)

func IncCharge(outcome string) {
	chargesTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncRefund(outcome string) {
	refundsTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddRevenue(currency string, minorUnits int64) {
	revenueMinorUnits.WithLabelValues(norm(currency)).Add(float64(minorUnits))
}
