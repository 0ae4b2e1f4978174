package transport

import (
	"sync/atomic"

	"github.com/hft-lab/matchcore/internal/domain"
)

// MetricsSlot has the same shape and seqlock protocol as SnapshotSlot,
// carrying a SystemMetrics payload instead.
type MetricsSlot struct {
	sequence atomic.Uint64
	ready    atomic.Bool
	payload  domain.SystemMetrics
}

// NewMetricsSlot returns a zeroed slot.
func NewMetricsSlot() *MetricsSlot {
	return &MetricsSlot{}
}

// Publish writes new metrics and makes them visible to readers.
func (s *MetricsSlot) Publish(m domain.SystemMetrics) {
	s.payload = m
	s.sequence.Add(1)
	s.ready.Store(true)
}

// Read returns the current payload, its sequence number, and whether
// the slot has ever been published to, retrying on a torn read.
func (s *MetricsSlot) Read() (domain.SystemMetrics, uint64, bool) {
	for {
		if !s.ready.Load() {
			return domain.SystemMetrics{}, 0, false
		}
		seqBefore := s.sequence.Load()
		payload := s.payload
		seqAfter := s.sequence.Load()
		if seqBefore == seqAfter {
			return payload, seqAfter, true
		}
	}
}

// Sequence returns the current publish sequence.
func (s *MetricsSlot) Sequence() uint64 {
	return s.sequence.Load()
}
