// Package domain defines the core value types shared by the order book,
// the metrics collector, and the shared transport regions.
package domain

import "encoding/json"

// Price is a fixed-point integer in the symbol's minimum price increment
// (the reference uses cents).
type Price int64

// Quantity is a resting or traded amount, always non-negative.
type Quantity uint32

// OrderID is globally monotonic within a single engine instance.
type OrderID uint64

// Timestamp is nanoseconds since an unspecified epoch. Only relative
// ordering between timestamps within one engine instance is meaningful.
type Timestamp int64

// Side is which book an order rests on.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// OrderType enumerates supported order types. Only Limit is accepted by
// the matching engine; Market/Stop are named for wire
// compatibility with the original system but rejected on submission.
type OrderType uint8

const (
	Limit OrderType = iota
	Market
	Stop
)

// SymbolLen is the fixed width of the ASCII, NUL-padded symbol tag
// carried on Order, Trade, and OrderBookSnapshot.
const SymbolLen = 16

// Symbol is a fixed-size ASCII tag, NUL-padded, matching the wire layout
// described for cross-process transport.
type Symbol [SymbolLen]byte

// NewSymbol truncates or NUL-pads s to fit a Symbol.
func NewSymbol(s string) Symbol {
	var sym Symbol
	copy(sym[:], s)
	return sym
}

func (s Symbol) String() string {
	n := 0
	for n < len(s) && s[n] != 0 {
		n++
	}
	return string(s[:n])
}

// MarshalJSON renders a Symbol as its trimmed string form, so the wire
// JSON carries "BTCUSD" rather than a 16-element byte array.
func (s Symbol) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a Symbol from its string form.
func (s *Symbol) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = NewSymbol(str)
	return nil
}

// Order is the mutable-quantity record tracked by the book. Identity
// (OrderID) never changes; Quantity (the remaining quantity) is decremented in place by
// the matching algorithm. Modification is cancel-then-add: a fresh
// Order value with the same ID replaces the old one and loses time
// priority.
type Order struct {
	ID        OrderID   `json:"id"`
	Symbol    Symbol    `json:"symbol"`
	Price     Price     `json:"price"`
	Quantity  Quantity  `json:"quantity"` // remaining quantity
	Side      Side      `json:"side"`
	Type      OrderType `json:"type"`
	Timestamp Timestamp `json:"timestamp"`
}

// Trade is emitted by the matching algorithm and never mutated once
// created.
type Trade struct {
	BuyOrderID  OrderID   `json:"buy_order_id"`
	SellOrderID OrderID   `json:"sell_order_id"`
	Price       Price     `json:"price"`
	Quantity    Quantity  `json:"quantity"`
	Timestamp   Timestamp `json:"timestamp"`
	Symbol      Symbol    `json:"symbol"`
}

// MaxBookLevels bounds the number of levels a snapshot carries per side.
const MaxBookLevels = 20

// BookLevel is one row of an OrderBookSnapshot: an aggregated price
// level with its total resting quantity and order count.
type BookLevel struct {
	Price      Price    `json:"price"`
	Quantity   Quantity `json:"quantity"`
	OrderCount uint32   `json:"order_count"`
}

// OrderBookSnapshot is a fully owned, point-in-time value copy of the
// top of book. Mutating the book after a snapshot is taken never
// affects a previously captured snapshot.
type OrderBookSnapshot struct {
	Symbol    Symbol                   `json:"symbol"`
	Timestamp Timestamp                `json:"timestamp"`
	Bids      [MaxBookLevels]BookLevel `json:"bids"`
	Asks      [MaxBookLevels]BookLevel `json:"asks"`
	BidCount  uint32                   `json:"bid_count"`
	AskCount  uint32                   `json:"ask_count"`
}

// HistogramBuckets is the fixed bucket count of the latency histogram:
// 50 linear buckets over [0, MaxLatencyNs).
const HistogramBuckets = 50

// MaxLatencyNs is the exclusive upper bound of the histogram's linear
// range; samples at or above this all land in the last bucket.
const MaxLatencyNs = 1_000_000

// SystemMetrics is a value record of the latest counter reads and
// latency summary. It is not a cross-field atomic snapshot: individual
// fields are each consistent, but the record as a whole may reflect
// slightly different instants for different fields.
type SystemMetrics struct {
	Timestamp        Timestamp `json:"timestamp"`
	CPUUsageTenths   uint64    `json:"cpu_usage_tenths"`
	MemoryUsageBytes uint64    `json:"memory_usage_bytes"`
	NetworkBytesSent uint64    `json:"network_bytes_sent"`
	NetworkBytesRecv uint64    `json:"network_bytes_recv"`
	OrdersProcessed  uint64    `json:"orders_processed"`
	TradesExecuted   uint64    `json:"trades_executed"`
	AvgLatencyNs     uint64    `json:"avg_latency_ns"`
	MaxLatencyNs     uint64    `json:"max_latency_ns"`
	MinLatencyNs     uint64    `json:"min_latency_ns"`
}
