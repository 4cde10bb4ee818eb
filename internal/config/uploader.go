package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// UploaderConfig drives the capture uploader binary that runs on the
// camera host, not the API service itself.
type UploaderConfig struct {
	ServerURL string
	ImagesDir string
	Schedule  string
	Timeout   time.Duration
	Logging   LoggingConfig
}

type LoggingConfig struct {
	Level string
}

func LoadUploader() (*UploaderConfig, error) {
	v := viper.New()
	v.SetConfigName("uploader")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("HOMEMONITOR_UPLOADER")
	v.AutomaticEnv()

	v.SetDefault("serverurl", "http://127.0.0.1:8000/api/image")
	v.SetDefault("imagesdir", "pi_images")
	v.SetDefault("schedule", "@every 10m")
	v.SetDefault("timeout", "1m")
	v.SetDefault("logging.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg UploaderConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	return &cfg, nil
}
