package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/attendance/internal/api"
	"example.com/attendance/internal/auth"
	"example.com/attendance/internal/config"
	"example.com/attendance/internal/outbox"
	"example.com/attendance/internal/router"
	"example.com/attendance/internal/storage"
	"example.com/attendance/internal/telegram"
	httptransport "example.com/attendance/internal/transport/http"
)

func main() {
	cfg := config.Load()
	logger := cfg.Logger().With("service", "attendance-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	mux := http.NewServeMux()
	api.NewHandler(store.Repository, store.History, api.WithHealthCheck(store.Ping)).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	if cfg.BotToken != "" {
		client := telegram.NewClient(cfg.TelegramAPIURL, cfg.BotToken, telegram.WithClientLogger(logger))
		rt := router.New(store.Repository, router.WithLogger(logger), router.WithAttempts(uint(max(cfg.PersistenceAttempts, 1))))
		bot := telegram.NewBot(rt, client, telegram.WithLogger(logger))
		mux.Handle(telegram.WebhookPath, telegram.NewWebhookHandler(bot, cfg.WebhookSecret, logger))
	} else {
		logger.Warn("BOT_TOKEN not set, webhook disabled")
	}

	var dispatcher *outbox.Dispatcher
	if store.Pool != nil && cfg.OutboxEnabled {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(store.Pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize, outbox.WithLogger(logger))
		go dispatcher.Start(ctx)
	}

	authMiddleware := auth.NewMiddleware(
		auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		auth.PublicPaths("/healthz", "/metrics", telegram.WebhookPath),
	)
	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress),
		httptransport.LogRequests(logger, authMiddleware.Wrap(mux)))

	if err := httptransport.Serve(ctx, server, 15*time.Second, logger); err != nil {
		logger.Error("server error", "error", err)
	}
	cancel()

	if dispatcher != nil {
		dispatcher.Wait()
	}
	logger.Info("attendance api stopped")
}
