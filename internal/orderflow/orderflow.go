// Package orderflow generates uniformly distributed synthetic limit
// orders, standing in for the external OrderFlow collaborator that
// spec.md deliberately keeps outside the core contract. It mirrors the
// reference implementation's simulate_order_flow loop: a random side,
// a price within a band around a reference price, a random quantity,
// and a randomized inter-arrival delay between submissions.
package orderflow

import (
	"context"
	"math/rand"
	"time"

	"github.com/hft-lab/matchcore/internal/domain"
)

// Config controls the shape of the generated order stream.
type Config struct {
	Symbol           string
	ReferencePrice   domain.Price
	PriceBand        domain.Price // orders land within ±PriceBand of ReferencePrice
	MinQuantity      domain.Quantity
	MaxQuantity      domain.Quantity
	MinInterArrival  time.Duration
	MaxInterArrival  time.Duration
}

// DefaultConfig matches the original implementation's constants: a
// 50000-60000 cent price band and 1-100 unit quantities.
func DefaultConfig(symbol string) Config {
	return Config{
		Symbol:          symbol,
		ReferencePrice:  55000,
		PriceBand:       5000,
		MinQuantity:     1,
		MaxQuantity:     100,
		MinInterArrival: time.Millisecond,
		MaxInterArrival: 10 * time.Millisecond,
	}
}

// Submitter is the subset of the engine's public surface a generator
// needs to drive order flow.
type Submitter interface {
	SubmitOrder(order *domain.Order) error
}

// Generator produces synthetic orders and submits them to a Submitter
// until its context is canceled.
type Generator struct {
	cfg    Config
	sub    Submitter
	nextID func() domain.OrderID
	now    func() domain.Timestamp
}

// New returns a Generator. nextID must produce fresh, non-colliding
// order IDs (typically the engine's NextOrderID).
func New(cfg Config, sub Submitter, nextID func() domain.OrderID, now func() domain.Timestamp) *Generator {
	return &Generator{cfg: cfg, sub: sub, nextID: nextID, now: now}
}

// Run submits synthetic orders in a loop until ctx is canceled.
func (g *Generator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		order := g.randomOrder()
		_ = g.sub.SubmitOrder(order) // best-effort; validation errors are expected noise

		delay := g.randomDelay()
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (g *Generator) randomOrder() *domain.Order {
	side := domain.Buy
	if rand.Intn(2) == 1 {
		side = domain.Sell
	}

	offset := domain.Price(rand.Int63n(int64(2*g.cfg.PriceBand+1))) - g.cfg.PriceBand
	price := g.cfg.ReferencePrice + offset

	span := g.cfg.MaxQuantity - g.cfg.MinQuantity + 1
	qty := g.cfg.MinQuantity + domain.Quantity(rand.Intn(int(span)))

	return &domain.Order{
		ID:        g.nextID(),
		Symbol:    domain.NewSymbol(g.cfg.Symbol),
		Price:     price,
		Quantity:  qty,
		Side:      side,
		Type:      domain.Limit,
		Timestamp: g.now(),
	}
}

func (g *Generator) randomDelay() time.Duration {
	span := int64(g.cfg.MaxInterArrival - g.cfg.MinInterArrival)
	if span <= 0 {
		return g.cfg.MinInterArrival
	}
	return g.cfg.MinInterArrival + time.Duration(rand.Int63n(span))
}
