package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/skywatcher-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/skywatcher-etl/internal/adapter/kafka"
	"github.com/couchcryptid/skywatcher-etl/internal/adapter/memory"
	"github.com/couchcryptid/skywatcher-etl/internal/config"
	"github.com/couchcryptid/skywatcher-etl/internal/observability"
	"github.com/couchcryptid/skywatcher-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	dedupeSize := 0
	if cfg.DedupeEnabled {
		dedupeSize = cfg.DedupeCacheSize
		logger.Info("duplicate feed suppression enabled", "cache_size", dedupeSize)
	} else {
		logger.Info("duplicate feed suppression disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	store := memory.NewReportStore()
	transformer := pipeline.NewTransformer(dedupeSize, logger)

	p := pipeline.New(reader, transformer, pipeline.FanOut(writer, store), logger, metrics, cfg.BatchSize)

	weather := httpadapter.NewWeatherHandler(p, store, cfg.MaxFeedBytes, metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, weather, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	logger.Info("skywatcher etl started",
		"source_topic", cfg.KafkaSourceTopic,
		"sink_topic", cfg.KafkaSinkTopic,
		"batch_size", cfg.BatchSize,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
