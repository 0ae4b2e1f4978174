package orderflow

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hft-lab/matchcore/internal/domain"
	"github.com/stretchr/testify/assert"
)

type collectingSubmitter struct {
	mu     sync.Mutex
	orders []*domain.Order
}

func (c *collectingSubmitter) SubmitOrder(order *domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = append(c.orders, order)
	return nil
}

func (c *collectingSubmitter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.orders)
}

func TestGenerator_SubmitsWithinPriceBand(t *testing.T) {
	sub := &collectingSubmitter{}
	cfg := DefaultConfig("BTCUSD")
	cfg.MinInterArrival = 0
	cfg.MaxInterArrival = time.Microsecond

	var id atomic.Uint64
	gen := New(cfg, sub, func() domain.OrderID {
		return domain.OrderID(id.Add(1))
	}, func() domain.Timestamp { return 0 })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	gen.Run(ctx)

	assert.NotZero(t, sub.count())
	for _, o := range sub.orders {
		assert.GreaterOrEqual(t, o.Price, cfg.ReferencePrice-cfg.PriceBand)
		assert.LessOrEqual(t, o.Price, cfg.ReferencePrice+cfg.PriceBand)
		assert.GreaterOrEqual(t, o.Quantity, cfg.MinQuantity)
		assert.LessOrEqual(t, o.Quantity, cfg.MaxQuantity)
		assert.Equal(t, domain.Limit, o.Type)
	}
}

func TestGenerator_StopsOnCancel(t *testing.T) {
	sub := &collectingSubmitter{}
	cfg := DefaultConfig("BTCUSD")

	gen := New(cfg, sub, func() domain.OrderID { return 1 }, func() domain.Timestamp { return 0 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		gen.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
