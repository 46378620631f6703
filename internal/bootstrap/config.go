package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/neighborcast/neighborcast-api/config"
)

// LoggerOptions selects the log handler.
type LoggerOptions struct {
	Writer io.Writer // defaults to os.Stdout
	Dev    bool      // colourised console output instead of JSON
	Level  slog.Level
}

// NewLogger builds a JSON logger, or a tint console logger in dev mode.
func NewLogger(opts LoggerOptions) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	if opts.Dev {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level}))
}

// InitLogger initializes the structured logger from config and installs it as the default.
func InitLogger(cfg *config.AppConfig) *slog.Logger {
	opts := LoggerOptions{Level: slog.LevelInfo}
	if cfg != nil {
		opts.Dev = cfg.IsDev
		opts.Level = cfg.LogLevel
	}
	logger := NewLogger(opts)
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
