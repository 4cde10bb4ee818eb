package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type SQLiteConfig struct {
	Path string
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

// StoreConfig selects the record store backend. Driver is either
// "sqlite" or "postgres".
type StoreConfig struct {
	Driver   string
	SQLite   SQLiteConfig
	Postgres PostgresConfig
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// BlobConfig selects where raw image bytes live. Driver is either
// "filesystem" or "s3".
type BlobConfig struct {
	Driver string
	Dir    string
	S3     S3Config
}

type ClassifierConfig struct {
	URL       string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// EventsConfig controls the optional ingestion event stream. When
// disabled the pipeline runs without publishing anything.
type EventsConfig struct {
	Enabled  bool
	Stream   string
	Group    string
	Consumer string
	Redis    RedisConfig
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Store            StoreConfig
	Blob             BlobConfig
	Classifier       ClassifierConfig
	Events           EventsConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("HOMEMONITOR")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8000)
	v.SetDefault("http.readtimeout", "30s")
	v.SetDefault("http.writetimeout", "60s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite.path", "home_monitor.db")
	v.SetDefault("store.postgres.maxopen", 30)
	v.SetDefault("store.postgres.maxidle", 10)
	v.SetDefault("store.postgres.connmaxlifetime", "30m")

	v.SetDefault("blob.driver", "filesystem")
	v.SetDefault("blob.dir", "images")
	v.SetDefault("blob.s3.bucket", "home-monitor-images")
	v.SetDefault("blob.s3.usessl", false)
	v.SetDefault("blob.s3.region", "us-east-1")

	v.SetDefault("classifier.url", "https://api.imagga.com/v2/tags")
	v.SetDefault("classifier.timeout", "30s")

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.stream", "monitor:ingested")
	v.SetDefault("events.group", "monitor-notifiers")
	v.SetDefault("events.consumer", "notifier-1")
	v.SetDefault("events.redis.addr", "127.0.0.1:6379")
	v.SetDefault("events.redis.db", 0)
}
