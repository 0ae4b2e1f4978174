// Package orderbook implements a price-time priority limit order book.
//
// Price levels are kept in a google/btree index per side so that best-price
// lookup and level insertion/removal run in O(log L), where L is the number
// of distinct prices on that side — this replaces the linear best-price
// rescan an earlier version of this book used. Orders within a level are
// kept in a container/list FIFO queue, and a per-order-ID map stores a
// locator (side, list element; the price is read from the order itself)
// so cancel is also O(log L) rather
// than a scan across the level's orders.
package orderbook

import (
	"container/list"

	"github.com/google/btree"
	"github.com/hft-lab/matchcore/internal/domain"
)

// TradeSink receives trades in emission order, invoked synchronously on
// the writer goroutine. It must not block and must not re-enter the
// OrderBook that is calling it.
type TradeSink interface {
	OnTrade(domain.Trade)
}

// TradeSinkFunc adapts a function to a TradeSink.
type TradeSinkFunc func(domain.Trade)

func (f TradeSinkFunc) OnTrade(t domain.Trade) { f(t) }

// bidKey orders the bid btree so that Min() yields the highest price.
type bidKey domain.Price

func (a bidKey) Less(than btree.Item) bool { return a > than.(bidKey) }

// askKey orders the ask btree so that Min() yields the lowest price.
type askKey domain.Price

func (a askKey) Less(than btree.Item) bool { return a < than.(askKey) }

type priceLevel struct {
	price    domain.Price
	totalQty domain.Quantity
	orders   *list.List // of *domain.Order, FIFO by arrival
}

type locator struct {
	side domain.Side
	elem *list.Element
}

// OrderBook is a single-symbol, single-writer limit order book. All
// mutating methods must be called from one logical writer; Snapshot may
// be called from that same writer to produce a value copy for readers.
type OrderBook struct {
	symbol domain.Symbol
	sink   TradeSink

	bids      *btree.BTree
	asks      *btree.BTree
	bidLevels map[domain.Price]*priceLevel
	askLevels map[domain.Price]*priceLevel
	locators  map[domain.OrderID]*locator

	now func() domain.Timestamp
}

// New creates an empty order book for symbol. now supplies the timestamp
// used to stamp emitted trades; pass a fixed clock in tests for
// deterministic output.
func New(symbol string, sink TradeSink, now func() domain.Timestamp) *OrderBook {
	return &OrderBook{
		symbol:    domain.NewSymbol(symbol),
		sink:      sink,
		bids:      btree.New(32),
		asks:      btree.New(32),
		bidLevels: make(map[domain.Price]*priceLevel),
		askLevels: make(map[domain.Price]*priceLevel),
		locators:  make(map[domain.OrderID]*locator),
		now:       now,
	}
}

func (ob *OrderBook) levelsFor(side domain.Side) map[domain.Price]*priceLevel {
	if side == domain.Buy {
		return ob.bidLevels
	}
	return ob.askLevels
}

func (ob *OrderBook) treeFor(side domain.Side) *btree.BTree {
	if side == domain.Buy {
		return ob.bids
	}
	return ob.asks
}

func (ob *OrderBook) insertLevel(side domain.Side, price domain.Price) *priceLevel {
	levels := ob.levelsFor(side)
	if lvl, ok := levels[price]; ok {
		return lvl
	}
	lvl := &priceLevel{price: price, orders: list.New()}
	levels[price] = lvl
	if side == domain.Buy {
		ob.bids.ReplaceOrInsert(bidKey(price))
	} else {
		ob.asks.ReplaceOrInsert(askKey(price))
	}
	return lvl
}

func (ob *OrderBook) removeLevelIfEmpty(side domain.Side, lvl *priceLevel) {
	if lvl.orders.Len() > 0 {
		return
	}
	delete(ob.levelsFor(side), lvl.price)
	if side == domain.Buy {
		ob.bids.Delete(bidKey(lvl.price))
	} else {
		ob.asks.Delete(askKey(lvl.price))
	}
}

func (ob *OrderBook) bestBidLevel() *priceLevel {
	item := ob.bids.Min()
	if item == nil {
		return nil
	}
	return ob.bidLevels[domain.Price(item.(bidKey))]
}

func (ob *OrderBook) bestAskLevel() *priceLevel {
	item := ob.asks.Min()
	if item == nil {
		return nil
	}
	return ob.askLevels[domain.Price(item.(askKey))]
}

// AddOrder inserts order at the tail of its (side, price) level and runs
// the match loop before returning. The book is guaranteed not crossed
// once AddOrder returns.
func (ob *OrderBook) AddOrder(order *domain.Order) error {
	if _, exists := ob.locators[order.ID]; exists {
		return domain.ErrDuplicateOrderID
	}
	if order.Quantity == 0 || order.Price <= 0 || order.Type != domain.Limit {
		return domain.ErrInvalidOrder
	}

	lvl := ob.insertLevel(order.Side, order.Price)
	elem := lvl.orders.PushBack(order)
	lvl.totalQty += order.Quantity
	ob.locators[order.ID] = &locator{side: order.Side, elem: elem}

	ob.match()
	return nil
}

// CancelOrder removes id from the book if present and returns it.
// Unknown ids are a silent no-op returning nil.
func (ob *OrderBook) CancelOrder(id domain.OrderID) *domain.Order {
	loc, ok := ob.locators[id]
	if !ok {
		return nil
	}
	order := loc.elem.Value.(*domain.Order)
	lvl := ob.levelsFor(loc.side)[order.Price]
	lvl.orders.Remove(loc.elem)
	lvl.totalQty -= order.Quantity
	ob.removeLevelIfEmpty(loc.side, lvl)
	delete(ob.locators, id)
	return order
}

// ModifyOrder is cancel-then-add with the same id, a new price/quantity,
// and a fresh timestamp — an explicit, documented loss of time priority.
// Unknown ids are a silent no-op.
func (ob *OrderBook) ModifyOrder(id domain.OrderID, newPrice domain.Price, newQty domain.Quantity, at domain.Timestamp) error {
	loc, ok := ob.locators[id]
	if !ok {
		return nil
	}
	if newQty == 0 || newPrice <= 0 {
		return domain.ErrInvalidOrder
	}
	old := loc.elem.Value.(*domain.Order)
	side, symbol, typ := old.Side, old.Symbol, old.Type
	ob.CancelOrder(id)

	fresh := &domain.Order{
		ID:        id,
		Symbol:    symbol,
		Price:     newPrice,
		Quantity:  newQty,
		Side:      side,
		Type:      typ,
		Timestamp: at,
	}
	return ob.AddOrder(fresh)
}

// match runs the price-time priority crossing loop until the book is no
// longer crossed. It executes synchronously inside AddOrder.
func (ob *OrderBook) match() {
	for {
		bidLvl := ob.bestBidLevel()
		askLvl := ob.bestAskLevel()
		if bidLvl == nil || askLvl == nil || bidLvl.price < askLvl.price {
			return
		}

		buyElem := bidLvl.orders.Front()
		sellElem := askLvl.orders.Front()
		buy := buyElem.Value.(*domain.Order)
		sell := sellElem.Value.(*domain.Order)

		tradeQty := min(buy.Quantity, sell.Quantity)

		var tradePrice domain.Price
		if buy.Timestamp < sell.Timestamp {
			tradePrice = buy.Price
		} else {
			// Timestamps tie or the ask arrived first: prefer the
			// ask's price (deterministic tie-break).
			tradePrice = sell.Price
		}

		ob.sink.OnTrade(domain.Trade{
			BuyOrderID:  buy.ID,
			SellOrderID: sell.ID,
			Price:       tradePrice,
			Quantity:    tradeQty,
			Timestamp:   ob.now(),
			Symbol:      ob.symbol,
		})

		buy.Quantity -= tradeQty
		sell.Quantity -= tradeQty
		bidLvl.totalQty -= tradeQty
		askLvl.totalQty -= tradeQty

		if buy.Quantity == 0 {
			bidLvl.orders.Remove(buyElem)
			delete(ob.locators, buy.ID)
		}
		if sell.Quantity == 0 {
			askLvl.orders.Remove(sellElem)
			delete(ob.locators, sell.ID)
		}
		ob.removeLevelIfEmpty(domain.Buy, bidLvl)
		ob.removeLevelIfEmpty(domain.Sell, askLvl)
	}
}

// Snapshot returns a fully owned, point-in-time copy of the top of book.
func (ob *OrderBook) Snapshot(at domain.Timestamp) domain.OrderBookSnapshot {
	snap := domain.OrderBookSnapshot{Symbol: ob.symbol, Timestamp: at}

	n := 0
	ob.bids.Ascend(func(item btree.Item) bool {
		if n >= domain.MaxBookLevels {
			return false
		}
		lvl := ob.bidLevels[domain.Price(item.(bidKey))]
		snap.Bids[n] = domain.BookLevel{Price: lvl.price, Quantity: lvl.totalQty, OrderCount: uint32(lvl.orders.Len())}
		n++
		return true
	})
	snap.BidCount = uint32(n)

	n = 0
	ob.asks.Ascend(func(item btree.Item) bool {
		if n >= domain.MaxBookLevels {
			return false
		}
		lvl := ob.askLevels[domain.Price(item.(askKey))]
		snap.Asks[n] = domain.BookLevel{Price: lvl.price, Quantity: lvl.totalQty, OrderCount: uint32(lvl.orders.Len())}
		n++
		return true
	})
	snap.AskCount = uint32(n)

	return snap
}

// MidPrice returns (best bid + best ask) / 2, or 0 if either side is empty.
func (ob *OrderBook) MidPrice() float64 {
	bidLvl, askLvl := ob.bestBidLevel(), ob.bestAskLevel()
	if bidLvl == nil || askLvl == nil {
		return 0
	}
	return float64(bidLvl.price+askLvl.price) / 2
}

// Spread returns best ask - best bid, or 0 if either side is empty.
func (ob *OrderBook) Spread() domain.Price {
	bidLvl, askLvl := ob.bestBidLevel(), ob.bestAskLevel()
	if bidLvl == nil || askLvl == nil {
		return 0
	}
	return askLvl.price - bidLvl.price
}

// OrderCount reports the number of resting orders across both sides.
func (ob *OrderBook) OrderCount() int {
	return len(ob.locators)
}
