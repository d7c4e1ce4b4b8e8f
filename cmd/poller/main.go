package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/attendance/internal/config"
	"example.com/attendance/internal/outbox"
	"example.com/attendance/internal/router"
	"example.com/attendance/internal/storage"
	"example.com/attendance/internal/telegram"
	httptransport "example.com/attendance/internal/transport/http"
)

func main() {
	cfg := config.Load()
	logger := cfg.Logger().With("service", "attendance-poller")

	if cfg.BotToken == "" {
		logger.Error("BOT_TOKEN is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	client := telegram.NewClient(cfg.TelegramAPIURL, cfg.BotToken,
		telegram.WithClientLogger(logger),
		telegram.WithHTTPClient(&http.Client{Timeout: cfg.PollTimeout + 10*time.Second}),
	)
	rt := router.New(store.Repository, router.WithLogger(logger), router.WithAttempts(uint(max(cfg.PersistenceAttempts, 1))))
	bot := telegram.NewBot(rt, client, telegram.WithLogger(logger))
	poller := telegram.NewPoller(client, bot, cfg.PollTimeout, logger)

	var dispatcher *outbox.Dispatcher
	if store.Pool != nil && cfg.OutboxEnabled {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(store.Pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize, outbox.WithLogger(logger))
		go dispatcher.Start(ctx)
	}

	metricsSrv := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.MetricsAddress), promhttp.Handler())
	go func() {
		if err := httptransport.Serve(ctx, metricsSrv, 5*time.Second, logger); err != nil {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("bot polling started", "storage", store.Driver())
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("poller stopped", "error", err)
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
	logger.Info("attendance poller stopped")
}
