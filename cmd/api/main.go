package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aremuc/home-monitor-iot/internal/blob"
	"github.com/aremuc/home-monitor-iot/internal/classifier"
	"github.com/aremuc/home-monitor-iot/internal/config"
	"github.com/aremuc/home-monitor-iot/internal/events"
	"github.com/aremuc/home-monitor-iot/internal/handlers"
	"github.com/aremuc/home-monitor-iot/internal/ingest"
	"github.com/aremuc/home-monitor-iot/internal/log"
	"github.com/aremuc/home-monitor-iot/internal/query"
	"github.com/aremuc/home-monitor-iot/internal/server"
	"github.com/aremuc/home-monitor-iot/internal/store"
	"github.com/aremuc/home-monitor-iot/internal/store/postgres"
	"github.com/aremuc/home-monitor-iot/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	records, err := newRecordStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open record store")
	}

	blobs, err := newBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init blob store")
	}

	tagger := classifier.New(cfg.Classifier, logger)

	var redisClient *redis.Client
	var publisher *events.Publisher
	if cfg.Events.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Events.Redis.Addr,
			Password: cfg.Events.Redis.Password,
			DB:       cfg.Events.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		publisher = events.NewPublisher(redisClient, cfg.Events.Stream, logger)
	}

	pipeline := ingest.NewPipeline(records, blobs, tagger, publisher, logger)
	queries := query.NewService(records)

	handlerSet := handlers.NewHandlerSet(logger, cfg, pipeline, queries, blobs, records)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, records, redisClient)
}

func newRecordStore(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (store.RecordStore, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return postgres.New(ctx, cfg.Store.Postgres)
	default:
		logger.Info().Str("path", cfg.Store.SQLite.Path).Msg("using sqlite record store")
		return sqlite.New(cfg.Store.SQLite.Path)
	}
}

func newBlobStore(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (blob.Store, error) {
	switch cfg.Blob.Driver {
	case "s3":
		s3Store, err := blob.NewS3Store(cfg.Blob.S3)
		if err != nil {
			return nil, err
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
		return s3Store, nil
	default:
		logger.Info().Str("dir", cfg.Blob.Dir).Msg("using filesystem blob store")
		return blob.NewFSStore(cfg.Blob.Dir)
	}
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, records store.RecordStore, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if err := records.Close(); err != nil {
		logger.Error().Err(err).Msg("record store close error")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
