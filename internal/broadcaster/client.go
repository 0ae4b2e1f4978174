package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hft-lab/matchcore/internal/domain"
)

// EngineClient polls a running cmd/engine process's admin HTTP surface.
// This HTTP hop is the transmission format spec.md leaves outside the
// core contract; the seqlock and ring semantics it carries over are
// implemented and tested independently, inside internal/transport.
type EngineClient struct {
	baseURL string
	http    *http.Client
}

// NewEngineClient returns a client pointed at an engine's base URL,
// e.g. "http://localhost:8080".
func NewEngineClient(baseURL string) *EngineClient {
	return &EngineClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *EngineClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		// The engine's HTTP surface is this reader's only view of the
		// shared transport regions; if it can't be reached, the region
		// is effectively gone from this reader's perspective.
		return fmt.Errorf("%w: %v", domain.ErrTransportGone, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("broadcaster: engine returned %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// FetchSnapshot retrieves the latest order book snapshot.
func (c *EngineClient) FetchSnapshot(ctx context.Context) (domain.OrderBookSnapshot, error) {
	var snap domain.OrderBookSnapshot
	err := c.get(ctx, "/snapshot", &snap)
	return snap, err
}

// FetchMetrics retrieves the latest system metrics.
func (c *EngineClient) FetchMetrics(ctx context.Context) (domain.SystemMetrics, error) {
	var m domain.SystemMetrics
	err := c.get(ctx, "/metrics", &m)
	return m, err
}

// FetchTrades drains and returns any trades the engine's ring has
// accumulated since the last poll.
func (c *EngineClient) FetchTrades(ctx context.Context) ([]domain.Trade, error) {
	var trades []domain.Trade
	err := c.get(ctx, "/trades", &trades)
	return trades, err
}
