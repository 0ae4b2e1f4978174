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

	"github.com/hft-lab/matchcore/internal/broadcaster"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %s", key, v, fallback)
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func main() {
	log.Println("starting broadcaster...")

	engineURL := getEnv("ENGINE_URL", "http://localhost:8080")
	cfg := broadcaster.DefaultConfig(engineURL)
	cfg.CORSOrigin = getEnv("CORS_ORIGIN", cfg.CORSOrigin)
	cfg.PollInterval = parseDurationEnv("POLL_INTERVAL_MS", cfg.PollInterval)

	b := broadcaster.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)

	port := getEnv("PORT", "8081")
	srv := &http.Server{Addr: ":" + port, Handler: b.Router()}

	go func() {
		log.Printf("broadcaster http server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown error: %v", err)
	}

	log.Println("broadcaster stopped.")
}
