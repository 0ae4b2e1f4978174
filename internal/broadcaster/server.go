package broadcaster

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hft-lab/matchcore/internal/domain"
)

// Config controls the poll cadence against the engine and the CORS
// policy applied to the public surface.
type Config struct {
	EngineBaseURL string
	CORSOrigin    string
	PollInterval  time.Duration
}

// DefaultConfig fills in the reference poll cadence and a permissive
// CORS origin suitable for local development.
func DefaultConfig(engineBaseURL string) Config {
	return Config{
		EngineBaseURL: engineBaseURL,
		CORSOrigin:    "*",
		PollInterval:  50 * time.Millisecond,
	}
}

// outboundMessage is the envelope every websocket push is wrapped in,
// so a single connection can be told what kind of payload arrived.
type outboundMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Server polls an engine process over HTTP and republishes snapshots,
// trades, and metrics to websocket subscribers.
type Server struct {
	cfg      Config
	engine   *EngineClient
	upgrader websocket.Upgrader

	snapshotHub *Hub[domain.OrderBookSnapshot]
	tradeHub    *Hub[domain.Trade]
	metricsHub  *Hub[domain.SystemMetrics]
}

// New constructs a Server. Call Run to start polling and serve Router
// with an http.Server.
func New(cfg Config) *Server {
	return &Server{
		cfg:         cfg,
		engine:      NewEngineClient(cfg.EngineBaseURL),
		upgrader:    websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		snapshotHub: NewHub[domain.OrderBookSnapshot](),
		tradeHub:    NewHub[domain.Trade](),
		metricsHub:  NewHub[domain.SystemMetrics](),
	}
}

// Router builds the chi router for the public HTTP+WS surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ws/snapshots", s.handleSnapshotStream)
	r.Get("/ws/trades", s.handleTradeStream)
	r.Get("/ws/metrics", s.handleMetricsStream)
	return r
}

// Run polls the engine on cfg.PollInterval until ctx is canceled,
// broadcasting whatever it fetches to the relevant hub.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Server) pollOnce(ctx context.Context) {
	if snap, err := s.engine.FetchSnapshot(ctx); err == nil {
		s.snapshotHub.Broadcast(snap)
	} else {
		log.Printf("broadcaster: fetch snapshot: %v", err)
	}

	if m, err := s.engine.FetchMetrics(ctx); err == nil {
		s.metricsHub.Broadcast(m)
	} else {
		log.Printf("broadcaster: fetch metrics: %v", err)
	}

	trades, err := s.engine.FetchTrades(ctx)
	if err != nil {
		log.Printf("broadcaster: fetch trades: %v", err)
		return
	}
	for _, t := range trades {
		s.tradeHub.Broadcast(t)
	}
}

func (s *Server) handleSnapshotStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sessionID := uuid.New().String()
	log.Printf("broadcaster: snapshot subscriber %s connected", sessionID)

	sub := s.snapshotHub.Subscribe(32)
	defer s.snapshotHub.Unsubscribe(sub)

	for snap := range sub.C() {
		if err := conn.WriteJSON(outboundMessage{Type: "snapshot", Data: snap}); err != nil {
			return
		}
	}
}

func (s *Server) handleTradeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sessionID := uuid.New().String()
	log.Printf("broadcaster: trade subscriber %s connected", sessionID)

	sub := s.tradeHub.Subscribe(64)
	defer s.tradeHub.Unsubscribe(sub)

	for trade := range sub.C() {
		if err := conn.WriteJSON(outboundMessage{Type: "trade", Data: trade}); err != nil {
			return
		}
	}
}

func (s *Server) handleMetricsStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sessionID := uuid.New().String()
	log.Printf("broadcaster: metrics subscriber %s connected", sessionID)

	sub := s.metricsHub.Subscribe(8)
	defer s.metricsHub.Unsubscribe(sub)

	for m := range sub.C() {
		if err := conn.WriteJSON(outboundMessage{Type: "metrics", Data: m}); err != nil {
			return
		}
	}
}
