package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-storefront/internal/checkout"
	"ms-storefront/internal/config"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/receipts"
	"ms-storefront/internal/slugcache"
	"ms-storefront/internal/sse"
	"ms-storefront/internal/storefront/api"
	"ms-storefront/internal/telemetry"
	"ms-storefront/internal/ticketapi"
)

func main() {
	ctx := context.Background()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	// --- SQLite Setup (local receipts) ---
	sqldb, err := sql.Open("sqlite", cfg.Receipts.DBPath)
	if err != nil {
		log.Fatal("STARTUP", fmt.Sprintf("Failed to open receipts database: %v", err))
	}
	defer sqldb.Close()

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	receiptStore := receipts.NewStore(bunDB)
	if err := receiptStore.Migrate(ctx); err != nil {
		log.Fatal("STARTUP", fmt.Sprintf("Failed to migrate receipts table: %v", err))
	}

	// --- Redis Setup (last event slug cache) ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("STARTUP", fmt.Sprintf("Failed to connect to Redis: %v", err))
	}
	slugs := slugcache.NewCache(redisClient, cfg.Redis.SlugTTL)

	// --- Kafka Setup (checkout telemetry) ---
	var publisher checkout.TelemetryPublisher
	if cfg.Kafka.Enabled {
		if err := telemetry.EnsureTopicExists(cfg.Kafka.Brokers, cfg.Kafka.Topic); err != nil {
			log.Warn("STARTUP", fmt.Sprintf("Could not ensure Kafka topic %s: %v", cfg.Kafka.Topic, err))
		}
		producer := telemetry.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
	} else {
		log.Info("STARTUP", "Kafka telemetry disabled")
	}

	// --- Upstream ticket API ---
	apiClient := ticketapi.NewClient(cfg.TicketAPI, &http.Client{Timeout: cfg.TicketAPI.Timeout}, log)

	// --- Checkout core ---
	verifier := checkout.NewVerifier(apiClient, log)
	orchestrator := checkout.NewOrchestrator(apiClient, verifier, slugs, receiptStore, publisher, log)
	emitter := sse.NewCheckoutStateEmitter()
	sessions := checkout.NewSessionManager(orchestrator, emitter)

	qrGen := receipts.NewQRGenerator(cfg.Receipts.QRSecret)
	handler := api.NewHandler(sessions, apiClient, receiptStore, qrGen, slugs, emitter, log)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/v1/pricing", handler.PricingPreview)
	r.Get("/api/v1/events/{eventId}/ticket-types", handler.ListTicketTypes)

	r.Post("/api/v1/checkouts", handler.OpenCheckout)
	r.Get("/api/v1/checkouts/{checkoutId}", handler.GetCheckout)
	r.Get("/api/v1/checkouts/{checkoutId}/events", handler.StreamCheckoutEvents)
	r.Post("/api/v1/checkouts/{checkoutId}/submit", handler.SubmitCheckout)
	r.Post("/api/v1/checkouts/{checkoutId}/retry", handler.RetryCheckout)
	r.Delete("/api/v1/checkouts/{checkoutId}", handler.CloseCheckout)

	r.Get("/api/v1/buyers/{email}/last-event", handler.LastEventSlug)
	r.Get("/api/v1/receipts/{reference}", handler.GetReceipt)
	r.Get("/api/v1/receipts/{reference}/qr", handler.GetReceiptQR)

	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout stays unset: it would cut long-lived SSE streams.
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("STARTUP", fmt.Sprintf("Storefront service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("STARTUP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SHUTDOWN", "Shutdown signal received, cleaning up")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SHUTDOWN", fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	log.Info("SHUTDOWN", "Server exited gracefully")
}
