package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config struct for environment variables.
type Config struct {
	UnityHost      string        `envconfig:"UNITY_HOST" default:"localhost"`
	UnityPort      string        `envconfig:"UNITY_PORT" default:"6400"`
	CommandTimeout time.Duration `envconfig:"COMMAND_TIMEOUT" default:"30s"`

	AssetRoot          string        `envconfig:"ASSET_ROOT" default:"Assets"`
	CacheDir           string        `envconfig:"CACHE_DIR"`
	DownloadTimeout    time.Duration `envconfig:"DOWNLOAD_TIMEOUT" default:"10m"`
	MaxParallelImports int           `envconfig:"MAX_PARALLEL_IMPORTS" default:"1"`
	CacheRetention     time.Duration `envconfig:"CACHE_RETENTION" default:"168h"`
	SweepInterval      time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`

	ServeMode         string `envconfig:"SERVE_MODE" default:"stdio"`
	SSEBindAddress    string `envconfig:"SSE_BIND_ADDRESS" default:"0.0.0.0:8090"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"INFO"`
	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL"`
	DBPath            string `envconfig:"DB_PATH" default:"imports.db"`

	Telemetry struct {
		Enabled bool `split_words:"true" default:"true"`
	}

	Web struct {
		BindAddress     string        `split_words:"true" default:"0.0.0.0:9091"`
		ReadTimeout     time.Duration `split_words:"true" default:"30s"`
		WriteTimeout    time.Duration `split_words:"true" default:"30s"`
		IdleTimeout     time.Duration `split_words:"true" default:"5s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	}
}

// LoadConfig reads environment variables and populates the Config struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	return &cfg, nil
}

// ResolveCacheDir returns the configured cache directory, defaulting to
// ~/.unity_asset_cache when unset.
func (c *Config) ResolveCacheDir() (string, error) {
	if c.CacheDir != "" {
		return c.CacheDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	return filepath.Join(home, ".unity_asset_cache"), nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
