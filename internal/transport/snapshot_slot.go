// Package transport implements the three fixed-layout shared regions the
// engine publishes and the broadcaster reads: a latest-snapshot slot, a
// latest-metrics slot, and a bounded single-producer/single-consumer
// trade ring. Every region uses only inline value records and
// atomically addressable coordination fields, in keeping with a
// process-crash-tolerant layout: no pointers are shared between writer
// and reader.
//
// No shared-memory or mmap library appears anywhere in the retrieved
// dependency corpus, so these regions live in-process as plain Go
// structs guarded only by the coordination fields the protocol itself
// requires; a separate process boundary is approximated at a higher
// layer (see cmd/engine and cmd/broadcaster).
package transport

import (
	"sync/atomic"

	"github.com/hft-lab/matchcore/internal/domain"
)

// SnapshotSlot is the single-writer, many-reader latest-value slot for
// order book snapshots. Publish protocol (writer): write the payload,
// then increment sequence, then set ready. Read protocol (reader,
// seqlock-style): read sequence, read the payload, re-read sequence;
// retry if the two sequence reads differ, since that means the
// payload was torn by a concurrent publish.
type SnapshotSlot struct {
	sequence atomic.Uint64
	ready    atomic.Bool
	payload  domain.OrderBookSnapshot
}

// NewSnapshotSlot returns a zeroed slot: sequence 0, ready false, as
// required before any reader or writer thread starts.
func NewSnapshotSlot() *SnapshotSlot {
	return &SnapshotSlot{}
}

// Publish writes a new snapshot and makes it visible to readers.
func (s *SnapshotSlot) Publish(snap domain.OrderBookSnapshot) {
	s.payload = snap
	s.sequence.Add(1)
	s.ready.Store(true)
}

// Read returns the current payload, its sequence number, and whether
// the slot has ever been published to. It retries internally until it
// observes a torn-free read (sequence unchanged across the read).
func (s *SnapshotSlot) Read() (domain.OrderBookSnapshot, uint64, bool) {
	for {
		if !s.ready.Load() {
			return domain.OrderBookSnapshot{}, 0, false
		}
		seqBefore := s.sequence.Load()
		payload := s.payload
		seqAfter := s.sequence.Load()
		if seqBefore == seqAfter {
			return payload, seqAfter, true
		}
	}
}

// Sequence returns the current publish sequence without reading the
// payload, for readers that only need to detect a new update.
func (s *SnapshotSlot) Sequence() uint64 {
	return s.sequence.Load()
}
