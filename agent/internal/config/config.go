package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HubAddress           string
	Hostname             string
	Version              string
	LogLevel             string
	HeartbeatInterval    time.Duration
	ConnectRetryInterval time.Duration
	ScannerBinary        string
	MaxConcurrentScans   int
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("HUB_ADDRESS", "localhost:50051")
	v.SetDefault("HOSTNAME", "")
	v.SetDefault("AGENT_VERSION", "0.1.0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HEARTBEAT_INTERVAL", "2s")
	v.SetDefault("CONNECT_RETRY_INTERVAL", "2s")
	v.SetDefault("SCANNER_BINARY", "clamdscan")
	v.SetDefault("MAX_CONCURRENT_SCANS", 0)

	// Try to read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config := &Config{
		HubAddress:           v.GetString("HUB_ADDRESS"),
		Hostname:             v.GetString("HOSTNAME"),
		Version:              v.GetString("AGENT_VERSION"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		HeartbeatInterval:    v.GetDuration("HEARTBEAT_INTERVAL"),
		ConnectRetryInterval: v.GetDuration("CONNECT_RETRY_INTERVAL"),
		ScannerBinary:        v.GetString("SCANNER_BINARY"),
		MaxConcurrentScans:   v.GetInt("MAX_CONCURRENT_SCANS"),
	}

	if config.Hostname == "" {
		config.Hostname = getHostname()
	}
	if config.HeartbeatInterval <= 0 {
		return nil, fmt.Errorf("HEARTBEAT_INTERVAL must be positive, got %s", config.HeartbeatInterval)
	}
	if config.ConnectRetryInterval <= 0 {
		return nil, fmt.Errorf("CONNECT_RETRY_INTERVAL must be positive, got %s", config.ConnectRetryInterval)
	}

	return config, nil
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
