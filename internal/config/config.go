package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

const (
	defaultStoreDriver     = DriverPostgres
	defaultBoltPath        = "podplay.db"
	defaultRedisAddr       = "127.0.0.1:6379"
	defaultPort            = "8080"
	defaultFeedTimeout     = 30 * time.Second
	defaultRefreshSchedule = "@every 1h"
	defaultRateLimit       = 5.0
	defaultRateBurst       = 10
	defaultLogLevel        = "info"
)

type Config struct {
	DatabaseURL      string
	StoreDriver      string
	BoltPath         string
	RedisAddr        string
	Port             string
	BaseURL          string
	TelegramBotToken string
	FeedTimeout      time.Duration
	RefreshSchedule  string
	RateLimit        float64
	RateBurst        int
	LogLevel         string
}

// Load reads the configuration from the environment, after loading a .env
// file if one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded")
	}

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StoreDriver:      getEnvOrDefault("STORE_DRIVER", defaultStoreDriver),
		BoltPath:         getEnvOrDefault("BOLT_PATH", defaultBoltPath),
		RedisAddr:        getEnvOrDefault("REDIS_ADDR", defaultRedisAddr),
		Port:             getEnvOrDefault("PORT", defaultPort),
		BaseURL:          os.Getenv("BASE_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		RefreshSchedule:  getEnvOrDefault("REFRESH_SCHEDULE", defaultRefreshSchedule),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
	}

	var err error
	if cfg.FeedTimeout, err = getDuration("FEED_TIMEOUT", defaultFeedTimeout); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getFloat("RATE_LIMIT", defaultRateLimit); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = getInt("RATE_BURST", defaultRateBurst); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverBolt:
		return nil
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
}

// ValidateStore checks the settings needed to open the configured store.
// Binaries that never open a store skip it.
func (c *Config) ValidateStore() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %q", c.StoreDriver)
		}
	case DriverBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("BOLT_PATH is required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	return nil
}

// SharedStore reports an error when the configured store cannot be opened
// by more than one process. The bolt file is locked by the server, which
// then runs the refresh tasks itself.
func (c *Config) SharedStore() error {
	if c.StoreDriver == DriverBolt {
		return fmt.Errorf("store driver %q is single-process: refresh tasks run inside the server, do not start a separate worker", c.StoreDriver)
	}
	return nil
}

// SetupLogging applies the configured log level to the global logger.
func (c *Config) SetupLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("invalid log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}
