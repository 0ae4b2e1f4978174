// Package engine wires the order book, the metrics collector, and the
// shared transport regions together behind a single logical writer, as
// required by the concurrency model: one submitter goroutine owns all
// order-book mutations and snapshot production; a separate metrics
// publisher goroutine only touches the wait-free Collector, the host
// probe and the metrics slot, so it never needs to serialize against
// the submitter.
package engine

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hft-lab/matchcore/internal/domain"
	"github.com/hft-lab/matchcore/internal/hostprobe"
	"github.com/hft-lab/matchcore/internal/metrics"
	"github.com/hft-lab/matchcore/internal/orderbook"
	"github.com/hft-lab/matchcore/internal/transport"
)

// Config controls channel buffering and publisher cadence. The
// defaults use the reference cadence: ~10 kHz for snapshots and
// ~10 Hz for metrics.
type Config struct {
	Symbol           string
	ChannelBuffer    int
	SnapshotInterval time.Duration
	MetricsInterval  time.Duration
}

// DefaultConfig returns sane defaults for a single-symbol engine.
func DefaultConfig(symbol string) Config {
	return Config{
		Symbol:           symbol,
		ChannelBuffer:    4096,
		SnapshotInterval: 100 * time.Microsecond,
		MetricsInterval:  100 * time.Millisecond,
	}
}

type requestKind int

const (
	reqAdd requestKind = iota
	reqCancel
	reqModify
	reqSnapshot
)

type request struct {
	kind     requestKind
	order    *domain.Order
	cancelID domain.OrderID
	modPrice domain.Price
	modQty   domain.Quantity
	resp     chan response
}

type response struct {
	err      error
	canceled *domain.Order
}

// Engine is a single-symbol matching engine with its own order book,
// metrics collector, and shared transport regions.
type Engine struct {
	cfg       Config
	book      *orderbook.OrderBook
	collector *metrics.Collector
	probe     *hostprobe.Probe

	SnapshotSlot *transport.SnapshotSlot
	MetricsSlot  *transport.MetricsSlot
	TradeRing    *transport.TradeRing

	commands chan request
	nextID   atomic.Uint64
	running  atomic.Bool
	wg       sync.WaitGroup
	done     chan struct{}
	now      func() domain.Timestamp
}

// New constructs an Engine. The order book's trade sink is the engine
// itself, so every trade also updates the collector and the trade ring
// synchronously on the submitter goroutine.
func New(cfg Config) *Engine {
	e := &Engine{
		cfg:          cfg,
		collector:    metrics.NewCollector(),
		probe:        hostprobe.New(),
		SnapshotSlot: transport.NewSnapshotSlot(),
		MetricsSlot:  transport.NewMetricsSlot(),
		TradeRing:    transport.NewTradeRing(),
		commands:     make(chan request, cfg.ChannelBuffer),
		done:         make(chan struct{}),
		now:          func() domain.Timestamp { return domain.Timestamp(time.Now().UnixNano()) },
	}
	e.book = orderbook.New(cfg.Symbol, e, e.now)
	return e
}

// OnTrade implements orderbook.TradeSink. It runs synchronously on the
// submitter goroutine: it must not block and must not call back into
// the Engine.
func (e *Engine) OnTrade(t domain.Trade) {
	if !e.TradeRing.Push(t) {
		metrics.TradeRingDropped.Inc()
		log.Printf("engine: %v, dropping trade", domain.ErrRingFull)
	}
	e.collector.IncrementTradesExecuted()
	metrics.TradesTotal.Inc()
}

// NextOrderID returns a fresh, globally monotonic order ID for this
// engine instance. Callers (HTTP handlers, the synthetic order-flow
// generator) use this instead of minting their own IDs.
func (e *Engine) NextOrderID() domain.OrderID {
	return domain.OrderID(e.nextID.Add(1))
}

// SubmitOrder hands order to the submitter goroutine and blocks for the
// result. order.Timestamp is stamped here if unset.
func (e *Engine) SubmitOrder(order *domain.Order) error {
	if order.Timestamp == 0 {
		order.Timestamp = e.now()
	}
	resp := make(chan response, 1)
	e.commands <- request{kind: reqAdd, order: order, resp: resp}
	return (<-resp).err
}

// CancelOrder hands a cancel request to the submitter goroutine and
// returns the canceled order, or nil if the id was unknown.
func (e *Engine) CancelOrder(id domain.OrderID) *domain.Order {
	resp := make(chan response, 1)
	e.commands <- request{kind: reqCancel, cancelID: id, resp: resp}
	return (<-resp).canceled
}

// ModifyOrder hands a modify request to the submitter goroutine.
func (e *Engine) ModifyOrder(id domain.OrderID, newPrice domain.Price, newQty domain.Quantity) error {
	resp := make(chan response, 1)
	e.commands <- request{kind: reqModify, cancelID: id, modPrice: newPrice, modQty: newQty, resp: resp}
	return (<-resp).err
}

// Start launches the submitter, snapshot-publisher, and metrics-
// publisher goroutines. Snapshot production is routed onto the
// submitter goroutine as a command, rather than guarded by a lock, so
// a snapshot is always a consistent point-in-time copy with no torn
// traversal possible.
func (e *Engine) Start() {
	e.running.Store(true)

	e.wg.Add(1)
	go e.runSubmitter()

	e.wg.Add(1)
	go e.runSnapshotPublisher()

	e.wg.Add(1)
	go e.runMetricsPublisher()
}

// Stop cooperatively signals shutdown and waits for all three
// goroutines to exit. It clears the running flag and closes the done
// channel; each loop sees the closed channel at its next natural pause
// point (while waiting for a tick or for the next command); no
// in-flight match is ever interrupted.
func (e *Engine) Stop() {
	e.running.Store(false)
	close(e.done)
	e.wg.Wait()
}

func (e *Engine) runSubmitter() {
	defer e.wg.Done()
	log.Println("engine: submitter started")
	for {
		select {
		case req := <-e.commands:
			e.handle(req)
		case <-e.done:
			log.Println("engine: submitter stopped")
			return
		}
	}
}

func (e *Engine) handle(req request) {
	switch req.kind {
	case reqAdd:
		start := time.Now()
		err := e.book.AddOrder(req.order)
		elapsed := time.Since(start)
		e.collector.RecordLatency(uint64(elapsed.Nanoseconds()))
		e.collector.IncrementOrdersProcessed()
		metrics.MatchLatency.Observe(elapsed.Seconds())
		req.resp <- response{err: err}
	case reqCancel:
		canceled := e.book.CancelOrder(req.cancelID)
		req.resp <- response{canceled: canceled}
	case reqModify:
		err := e.book.ModifyOrder(req.cancelID, req.modPrice, req.modQty, e.now())
		req.resp <- response{err: err}
	case reqSnapshot:
		snap := e.book.Snapshot(e.now())
		e.SnapshotSlot.Publish(snap)
		metrics.OrderBookDepth.WithLabelValues("bid").Set(float64(snap.BidCount))
		metrics.OrderBookDepth.WithLabelValues("ask").Set(float64(snap.AskCount))
		req.resp <- response{}
	}
}

func (e *Engine) runSnapshotPublisher() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			resp := make(chan response, 1)
			select {
			case e.commands <- request{kind: reqSnapshot, resp: resp}:
				<-resp
			case <-e.done:
				return
			}
		}
	}
}

func (e *Engine) runMetricsPublisher() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			m := e.collector.CurrentMetrics(e.now())
			m.CPUUsageTenths = e.probe.CPUUsageTenths()
			m.MemoryUsageBytes = e.probe.MemoryUsageBytes()
			m.NetworkBytesSent, m.NetworkBytesRecv = e.probe.NetworkBytes()
			e.MetricsSlot.Publish(m)
		}
	}
}

// Snapshot asks the submitter goroutine for a fresh snapshot, which it
// publishes to SnapshotSlot, and returns the slot's contents. Intended
// for the admin HTTP surface and tests that don't want to wait on the
// publisher cadence.
func (e *Engine) Snapshot() domain.OrderBookSnapshot {
	resp := make(chan response, 1)
	e.commands <- request{kind: reqSnapshot, resp: resp}
	<-resp
	snap, _, _ := e.SnapshotSlot.Read()
	return snap
}

// CurrentMetrics returns the collector's live counters directly,
// without waiting on the metrics publisher's cadence.
func (e *Engine) CurrentMetrics() domain.SystemMetrics {
	return e.collector.CurrentMetrics(e.now())
}

// Running reports whether Start has been called and Stop has not.
func (e *Engine) Running() bool {
	return e.running.Load()
}
