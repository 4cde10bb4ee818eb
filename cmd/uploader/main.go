package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/aremuc/home-monitor-iot/internal/config"
	"github.com/aremuc/home-monitor-iot/internal/log"
	"github.com/aremuc/home-monitor-iot/internal/uploader"
)

func main() {
	cfg, err := config.LoadUploader()
	if err != nil {
		panic(err)
	}

	logger := log.NewLeveled(cfg.Logging.Level)

	u := uploader.New(cfg.ServerURL, cfg.ImagesDir, &http.Client{Timeout: cfg.Timeout}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	submit := func() {
		if err := u.UploadOnce(ctx); err != nil {
			logger.Error().Err(err).Msg("upload failed")
		}
	}

	// First capture right away, then on the schedule.
	submit()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Schedule, submit); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.Schedule).Msg("invalid schedule")
	}
	scheduler.Start()

	logger.Info().
		Str("server", cfg.ServerURL).
		Str("dir", cfg.ImagesDir).
		Str("schedule", cfg.Schedule).
		Msg("capture uploader running")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	<-scheduler.Stop().Done()
}
