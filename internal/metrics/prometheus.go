package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks admin HTTP request latency by method,
	// path, and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hft_http_request_duration_seconds",
			Help:    "Admin HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "path", "status"},
	)

	// OrdersTotal counts submitted orders by action (submit, cancel).
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hft_orders_total",
			Help: "Total number of orders submitted, by action",
		},
		[]string{"action"},
	)

	// TradesTotal counts executed trades.
	TradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hft_trades_total",
			Help: "Total number of trades executed",
		},
	)

	// OrderBookDepth tracks the snapshot's price-level count per side.
	OrderBookDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hft_orderbook_depth",
			Help: "Current order book level count by side",
		},
		[]string{"side"},
	)

	// MatchLatency mirrors Collector's histogram as a native Prometheus
	// histogram, so latency can be graphed without polling the core
	// SystemMetrics record.
	MatchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hft_match_latency_seconds",
			Help:    "Order submission-to-match latency",
			Buckets: prometheus.ExponentialBuckets(1e-7, 2, 20),
		},
	)

	// TradeRingDropped counts trades dropped because the SPSC ring was
	// full at push time.
	TradeRingDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hft_trade_ring_dropped_total",
			Help: "Total trades dropped because the trade ring was full",
		},
	)
)

// PrometheusMiddleware records admin HTTP request duration.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()

		HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
		).Observe(duration)
	}
}
