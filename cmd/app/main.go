package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecommerce-payments/internal/config"
	pg "ecommerce-payments/internal/infra/db/postgres"
	"ecommerce-payments/internal/infra/gateway"
	"ecommerce-payments/internal/infra/logging"
	"ecommerce-payments/internal/infra/metrics"
	red "ecommerce-payments/internal/infra/redis"
	"ecommerce-payments/internal/infra/web"
	"ecommerce-payments/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted tokens)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	idemStore := red.NewIdempotencyStore(redisClient, cfg.Redis.IdempotencyTTL)

	// ---- Gateway ----
	stripe, err := gateway.NewStripeGateway(
		cfg.Payment.Stripe.SecretKey,
		cfg.Payment.Stripe.PublishableKey,
		cfg.Payment.Stripe.BaseURL,
	)
	if err != nil {
		log.Fatalf("stripe gateway: %v", err)
	}

	// ---- Repositories / use cases ----
	responseRepo := pg.NewResponseRepo(pool)
	processor := usecase.NewPaymentProcessor(stripe, responseRepo, logger)

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- HTTP server ----
	server := web.NewServer(&cfg.Server, processor, responseRepo, idemStore, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}
