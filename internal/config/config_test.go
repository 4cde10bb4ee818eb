package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.HTTP.Port != 8000 {
		t.Errorf("HTTP.Port = %d, want 8000", cfg.HTTP.Port)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Store.Driver = %q, want sqlite", cfg.Store.Driver)
	}
	if cfg.Store.SQLite.Path != "home_monitor.db" {
		t.Errorf("Store.SQLite.Path = %q", cfg.Store.SQLite.Path)
	}
	if cfg.Blob.Driver != "filesystem" {
		t.Errorf("Blob.Driver = %q, want filesystem", cfg.Blob.Driver)
	}
	if cfg.Blob.Dir != "images" {
		t.Errorf("Blob.Dir = %q, want images", cfg.Blob.Dir)
	}
	if cfg.Classifier.URL != "https://api.imagga.com/v2/tags" {
		t.Errorf("Classifier.URL = %q", cfg.Classifier.URL)
	}
	if cfg.Classifier.Timeout != 30*time.Second {
		t.Errorf("Classifier.Timeout = %v, want 30s", cfg.Classifier.Timeout)
	}
	if cfg.Events.Enabled {
		t.Error("Events.Enabled = true, want false by default")
	}
	if cfg.Events.Stream != "monitor:ingested" {
		t.Errorf("Events.Stream = %q", cfg.Events.Stream)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HOMEMONITOR_ENVIRONMENT", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("Environment = %q, want production", cfg.Environment)
	}
}

func TestLoadUploader_Defaults(t *testing.T) {
	cfg, err := LoadUploader()
	if err != nil {
		t.Fatalf("LoadUploader error: %v", err)
	}

	if cfg.ServerURL != "http://127.0.0.1:8000/api/image" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.ImagesDir != "pi_images" {
		t.Errorf("ImagesDir = %q, want pi_images", cfg.ImagesDir)
	}
	if cfg.Schedule != "@every 10m" {
		t.Errorf("Schedule = %q, want @every 10m", cfg.Schedule)
	}
}
