package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hft-lab/matchcore/internal/domain"
	"github.com/hft-lab/matchcore/internal/engine"
	"github.com/hft-lab/matchcore/internal/metrics"
	"github.com/hft-lab/matchcore/internal/orderflow"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func main() {
	log.Println("starting matching engine...")

	symbol := getEnv("SYMBOL", "BTCUSD")
	cfg := engine.DefaultConfig(symbol)
	cfg.ChannelBuffer = parseIntEnv("CHANNEL_BUFFER", cfg.ChannelBuffer)

	e := engine.New(cfg)
	e.Start()

	var flowCancel context.CancelFunc
	if getEnv("SYNTHETIC_ORDER_FLOW", "false") == "true" {
		flowCtx, cancel := context.WithCancel(context.Background())
		flowCancel = cancel
		gen := orderflow.New(orderflow.DefaultConfig(symbol), e, e.NextOrderID, func() domain.Timestamp {
			return domain.Timestamp(time.Now().UnixNano())
		})
		go gen.Run(flowCtx)
		log.Println("synthetic order flow enabled")
	}

	r := gin.Default()
	r.Use(metrics.PrometheusMiddleware())

	r.POST("/orders", func(c *gin.Context) {
		var order domain.Order
		if err := c.ShouldBindJSON(&order); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if order.ID == 0 {
			order.ID = e.NextOrderID()
		}
		metrics.OrdersTotal.WithLabelValues("submit").Inc()
		if err := e.SubmitOrder(&order); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, order)
	})

	r.DELETE("/orders/:id", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}
		metrics.OrdersTotal.WithLabelValues("cancel").Inc()
		canceled := e.CancelOrder(domain.OrderID(id))
		if canceled == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusOK, canceled)
	})

	r.GET("/snapshot", func(c *gin.Context) {
		c.JSON(http.StatusOK, e.Snapshot())
	})

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, e.CurrentMetrics())
	})

	r.GET("/trades", func(c *gin.Context) {
		trades := make([]domain.Trade, 0, 64)
		for {
			t, ok := e.TradeRing.Pop()
			if !ok {
				break
			}
			trades = append(trades, t)
		}
		c.JSON(http.StatusOK, trades)
	})

	r.GET("/healthz", func(c *gin.Context) {
		if !e.Running() {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusOK)
	})

	port := getEnv("PORT", "8080")
	srv := &http.Server{Addr: ":" + port, Handler: r}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsSrv := &http.Server{Addr: ":" + metricsPort, Handler: metricsMux}

	go func() {
		log.Printf("metrics server listening on :%s", metricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server error: %v", err)
		}
	}()

	go func() {
		log.Printf("engine http server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	if flowCancel != nil {
		flowCancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("http server shutdown error: %v", err)
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}
	e.Stop()

	log.Println("matching engine stopped.")
}
