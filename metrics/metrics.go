// Package metrics exposes Prometheus instrumentation for the bridge:
//   - bridge_orders_submitted_total{side}
//   - bridge_orders_skipped_total{reason}
//   - bridge_order_errors_total
//   - bridge_fill_checks_total{status}
//   - bridge_nav_usd
//   - bridge_drawdown_1d
//   - bridge_breaker_paused
//
// Collectors are registered in init() and served by the promhttp handler
// when metrics are enabled in the run config.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ordersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_orders_submitted_total",
			Help: "Orders accepted by the broker",
		},
		[]string{"side"},
	)

	ordersSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_orders_skipped_total",
			Help: "Non-error decisions not to trade, by reason code",
		},
		[]string{"reason"},
	)

	orderErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_order_errors_total",
			Help: "Broker submissions that failed",
		},
	)

	fillChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_fill_checks_total",
			Help: "Fill verifications by outcome (full|partial|failed)",
		},
		[]string{"status"},
	)

	navGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_nav_usd",
			Help: "Last refreshed net liquidation value",
		},
	)

	drawdownGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_drawdown_1d",
			Help: "Most recent 1-day drawdown (negative = loss)",
		},
	)

	breakerPaused = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_breaker_paused",
			Help: "1 when the circuit breaker blocks dispatch",
		},
	)
)

func init() {
	prometheus.MustRegister(ordersSubmitted, ordersSkipped, orderErrors)
	prometheus.MustRegister(fillChecks)
	prometheus.MustRegister(navGauge, drawdownGauge, breakerPaused)
}

func OrderSubmitted(side string) { ordersSubmitted.WithLabelValues(side).Inc() }
func OrderSkipped(reason string) { ordersSkipped.WithLabelValues(reason).Inc() }
func OrderError()                { orderErrors.Inc() }
func FillCheck(status string)    { fillChecks.WithLabelValues(status).Inc() }
func SetNAV(v float64)           { navGauge.Set(v) }
func SetDrawdown1d(v float64)    { drawdownGauge.Set(v) }

func SetBreakerPaused(paused bool) {
	if paused {
		breakerPaused.Set(1)
	} else {
		breakerPaused.Set(0)
	}
}

// Handler returns the Prometheus text exposition handler.
func Handler() http.Handler { return promhttp.Handler() }
