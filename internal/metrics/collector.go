// Package metrics implements the concurrent latency and counter sink
// used on the matching engine's hot path, plus a Prometheus mirror for
// operational dashboards.
package metrics

import (
	"sync/atomic"

	"github.com/hft-lab/matchcore/internal/domain"
)

// Collector is a wait-free sink for per-operation latency samples and
// counter increments, safe for many concurrent producers. Reads are
// consistent per-field but do not form an atomic multi-field snapshot.
type Collector struct {
	ordersProcessed uint64
	tradesExecuted  uint64
	totalLatencyNs  uint64
	latencySamples  uint64
	minLatencyNs    uint64
	maxLatencyNs    uint64
	histogram       [domain.HistogramBuckets]uint64
}

// NewCollector returns a Collector with all counters zero and the
// running minimum primed to the largest uint64.
func NewCollector() *Collector {
	return &Collector{minLatencyNs: ^uint64(0)}
}

// RecordLatency adds ns to the running sum, increments the sample
// count, updates the running min/max via compare-exchange retry loops,
// and increments exactly one histogram bucket.
func (c *Collector) RecordLatency(ns uint64) {
	atomic.AddUint64(&c.totalLatencyNs, ns)
	atomic.AddUint64(&c.latencySamples, 1)
	casMin(&c.minLatencyNs, ns)
	casMax(&c.maxLatencyNs, ns)
	atomic.AddUint64(&c.histogram[bucketFor(ns)], 1)
}

func casMin(addr *uint64, ns uint64) {
	for {
		cur := atomic.LoadUint64(addr)
		if ns >= cur {
			return
		}
		if atomic.CompareAndSwapUint64(addr, cur, ns) {
			return
		}
	}
}

func casMax(addr *uint64, ns uint64) {
	for {
		cur := atomic.LoadUint64(addr)
		if ns <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(addr, cur, ns) {
			return
		}
	}
}

// bucketFor maps a latency sample to its histogram bucket: 50 linear
// buckets over [0, MaxLatencyNs), with samples at or above the bound
// clamped into the last bucket.
func bucketFor(ns uint64) uint64 {
	if ns >= domain.MaxLatencyNs {
		return domain.HistogramBuckets - 1
	}
	b := ns * domain.HistogramBuckets / domain.MaxLatencyNs
	if b >= domain.HistogramBuckets {
		b = domain.HistogramBuckets - 1
	}
	return b
}

// IncrementOrdersProcessed adds one to the processed-order counter.
func (c *Collector) IncrementOrdersProcessed() {
	atomic.AddUint64(&c.ordersProcessed, 1)
}

// IncrementTradesExecuted adds one to the executed-trade counter.
func (c *Collector) IncrementTradesExecuted() {
	atomic.AddUint64(&c.tradesExecuted, 1)
}

// CurrentMetrics returns a SystemMetrics with counters read at call
// time. Host fields (CPU/memory/network) are left zero here; a
// HostProbe collaborator fills them in.
func (c *Collector) CurrentMetrics(at domain.Timestamp) domain.SystemMetrics {
	samples := atomic.LoadUint64(&c.latencySamples)
	total := atomic.LoadUint64(&c.totalLatencyNs)
	var avg uint64
	if samples > 0 {
		avg = total / samples
	}

	minNs := atomic.LoadUint64(&c.minLatencyNs)
	if samples == 0 {
		minNs = 0
	}

	return domain.SystemMetrics{
		Timestamp:       at,
		OrdersProcessed: atomic.LoadUint64(&c.ordersProcessed),
		TradesExecuted:  atomic.LoadUint64(&c.tradesExecuted),
		AvgLatencyNs:    avg,
		MaxLatencyNs:    atomic.LoadUint64(&c.maxLatencyNs),
		MinLatencyNs:    minNs,
	}
}

// Histogram returns a copy of all bucket counts.
func (c *Collector) Histogram() [domain.HistogramBuckets]uint64 {
	var out [domain.HistogramBuckets]uint64
	for i := range out {
		out[i] = atomic.LoadUint64(&c.histogram[i])
	}
	return out
}
