package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aremuc/home-monitor-iot/internal/config"
	"github.com/aremuc/home-monitor-iot/internal/events"
	"github.com/aremuc/home-monitor-iot/internal/log"
	"github.com/aremuc/home-monitor-iot/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Events.Redis.Addr,
		Password: cfg.Events.Redis.Password,
		DB:       cfg.Events.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	alerter := notify.NewAlerter("person", logger)
	consumer := events.NewConsumer(
		client,
		cfg.Events.Stream,
		cfg.Events.Group,
		cfg.Events.Consumer,
		30*time.Second,
		logger,
		alerter,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := consumer.Start(ctx); err != nil && err != context.Canceled {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	time.Sleep(500 * time.Millisecond)
}
