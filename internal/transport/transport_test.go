package transport

import (
	"testing"

	"github.com/hft-lab/matchcore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotSlot_NotReadyUntilPublished(t *testing.T) {
	slot := NewSnapshotSlot()
	_, _, ok := slot.Read()
	assert.False(t, ok)
}

func TestSnapshotSlot_PublishThenRead(t *testing.T) {
	slot := NewSnapshotSlot()
	snap := domain.OrderBookSnapshot{Symbol: domain.NewSymbol("BTCUSD"), Timestamp: 42}

	slot.Publish(snap)

	got, seq, ok := slot.Read()
	require.True(t, ok)
	assert.EqualValues(t, 1, seq)
	assert.Equal(t, snap, got)
}

// S7 — Snapshot monotonicity: two reads with no intervening publish
// compare equal and the sequence never regresses.
func TestSnapshotSlot_SequenceMonotonic(t *testing.T) {
	slot := NewSnapshotSlot()
	slot.Publish(domain.OrderBookSnapshot{Timestamp: 1})
	_, seq1, _ := slot.Read()

	got2, seq2, _ := slot.Read()
	assert.Equal(t, seq1, seq2)
	assert.EqualValues(t, 1, got2.Timestamp)

	slot.Publish(domain.OrderBookSnapshot{Timestamp: 2})
	_, seq3, _ := slot.Read()
	assert.Greater(t, seq3, seq2)
}

func TestMetricsSlot_PublishThenRead(t *testing.T) {
	slot := NewMetricsSlot()
	m := domain.SystemMetrics{OrdersProcessed: 10}

	slot.Publish(m)

	got, seq, ok := slot.Read()
	require.True(t, ok)
	assert.EqualValues(t, 1, seq)
	assert.Equal(t, m, got)
}

func TestTradeRing_PushPopRoundTrip(t *testing.T) {
	ring := NewTradeRing()
	trade := domain.Trade{BuyOrderID: 1, SellOrderID: 2, Price: 100, Quantity: 5}

	require.True(t, ring.Push(trade))
	got, ok := ring.Pop()
	require.True(t, ok)
	assert.Equal(t, trade, got)
}

func TestTradeRing_PopEmpty(t *testing.T) {
	ring := NewTradeRing()
	_, ok := ring.Pop()
	assert.False(t, ok)
}

// S6 — Ring full.
func TestTradeRing_FullThenRecoversAfterPop(t *testing.T) {
	ring := NewTradeRing()

	for i := 0; i < TradeRingCapacity; i++ {
		require.True(t, ring.Push(domain.Trade{BuyOrderID: domain.OrderID(i)}))
	}

	assert.False(t, ring.Push(domain.Trade{BuyOrderID: 9999}))
	assert.Equal(t, TradeRingCapacity, ring.Len())

	_, ok := ring.Pop()
	require.True(t, ok)

	assert.True(t, ring.Push(domain.Trade{BuyOrderID: 9999}))
	assert.Equal(t, TradeRingCapacity, ring.Len())
}

func TestTradeRing_FIFOOrder(t *testing.T) {
	ring := NewTradeRing()
	for i := 0; i < 5; i++ {
		require.True(t, ring.Push(domain.Trade{BuyOrderID: domain.OrderID(i)}))
	}
	for i := 0; i < 5; i++ {
		got, ok := ring.Pop()
		require.True(t, ok)
		assert.Equal(t, domain.OrderID(i), got.BuyOrderID)
	}
}
