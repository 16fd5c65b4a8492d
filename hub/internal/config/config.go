package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	GRPCAddress       string
	HTTPPort          string
	LogLevel          string
	DefaultScanPath   string
	HistoryBackend    string
	HistoryMaxEntries int64
	SQLitePath        string

	RedisEnabled  bool
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	NATSEnabled       bool
	NATSURL           string
	NATSToken         string
	NATSSubjectPrefix string
}

// LoadConfig reads config.yaml from the working directory if present and
// lets environment variables override every key.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("GRPC_ADDRESS", ":50051")
	v.SetDefault("HTTP_PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEFAULT_SCAN_PATH", "/tmp")
	v.SetDefault("HISTORY_BACKEND", "memory")
	v.SetDefault("HISTORY_MAX_ENTRIES", 1000)
	v.SetDefault("SQLITE_PATH", "./scanfleet.db")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NATS_ENABLED", false)
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("NATS_TOKEN", "")
	v.SetDefault("NATS_SUBJECT_PREFIX", "scanfleet")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		GRPCAddress:       v.GetString("GRPC_ADDRESS"),
		HTTPPort:          v.GetString("HTTP_PORT"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		DefaultScanPath:   v.GetString("DEFAULT_SCAN_PATH"),
		HistoryBackend:    v.GetString("HISTORY_BACKEND"),
		HistoryMaxEntries: v.GetInt64("HISTORY_MAX_ENTRIES"),
		SQLitePath:        v.GetString("SQLITE_PATH"),
		RedisEnabled:      v.GetBool("REDIS_ENABLED"),
		RedisAddress:      v.GetString("REDIS_ADDRESS"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		NATSEnabled:       v.GetBool("NATS_ENABLED"),
		NATSURL:           v.GetString("NATS_URL"),
		NATSToken:         v.GetString("NATS_TOKEN"),
		NATSSubjectPrefix: v.GetString("NATS_SUBJECT_PREFIX"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the hub cannot start with
func (c *Config) Validate() error {
	switch c.HistoryBackend {
	case "memory", "sqlite":
	case "redis":
		if !c.RedisEnabled {
			return fmt.Errorf("history backend redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("unsupported history backend: %s", c.HistoryBackend)
	}
	return nil
}
