package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordLatency_UpdatesSumCountMinMax(t *testing.T) {
	c := NewCollector()

	c.RecordLatency(100)
	c.RecordLatency(300)
	c.RecordLatency(200)

	m := c.CurrentMetrics(0)
	assert.EqualValues(t, 200, m.AvgLatencyNs)
	assert.EqualValues(t, 100, m.MinLatencyNs)
	assert.EqualValues(t, 300, m.MaxLatencyNs)
}

func TestCurrentMetrics_ZeroSamples(t *testing.T) {
	c := NewCollector()
	m := c.CurrentMetrics(0)
	assert.Zero(t, m.AvgLatencyNs)
	assert.Zero(t, m.MinLatencyNs)
	assert.Zero(t, m.MaxLatencyNs)
}

func TestHistogram_BucketPlacement(t *testing.T) {
	c := NewCollector()

	c.RecordLatency(0)          // bucket 0
	c.RecordLatency(999_999)    // last bucket
	c.RecordLatency(5_000_000)  // clamped into last bucket
	c.RecordLatency(20_000)     // bucket floor(20000*50/1e6) = 1

	hist := c.Histogram()
	assert.EqualValues(t, 1, hist[0])
	assert.EqualValues(t, 1, hist[1])
	assert.EqualValues(t, 2, hist[49])

	var total uint64
	for _, v := range hist {
		total += v
	}
	assert.EqualValues(t, 4, total)
}

func TestCounters_IncrementIndependently(t *testing.T) {
	c := NewCollector()
	c.IncrementOrdersProcessed()
	c.IncrementOrdersProcessed()
	c.IncrementTradesExecuted()

	m := c.CurrentMetrics(0)
	assert.EqualValues(t, 2, m.OrdersProcessed)
	assert.EqualValues(t, 1, m.TradesExecuted)
}

func TestRecordLatency_ConcurrentProducers(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(ns uint64) {
			defer wg.Done()
			c.RecordLatency(ns)
		}(uint64(i))
	}
	wg.Wait()

	m := c.CurrentMetrics(0)
	assert.EqualValues(t, 100, sumHistogram(c))
	assert.EqualValues(t, 0, m.MinLatencyNs)
	assert.EqualValues(t, 99, m.MaxLatencyNs)
}

func sumHistogram(c *Collector) uint64 {
	var total uint64
	for _, v := range c.Histogram() {
		total += v
	}
	return total
}
