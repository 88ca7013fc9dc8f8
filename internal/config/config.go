// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	Rating      RatingConfig      `koanf:"rating"`
	Prediction  PredictionConfig  `koanf:"prediction"`
	Improvement ImprovementConfig `koanf:"improvement"`
	Feedback    FeedbackConfig    `koanf:"feedback"`
	Store       StoreConfig       `koanf:"store"`
	Checkpoint  CheckpointConfig  `koanf:"checkpoint"`
	TextGen     TextGenConfig     `koanf:"textgen"`
}

// RatingConfig tunes the rating engine.
type RatingConfig struct {
	// HistoryLimit caps the retained prediction history; 0 keeps everything.
	HistoryLimit int `koanf:"history_limit"`
}

// PredictionConfig tunes the prediction model.
type PredictionConfig struct {
	// Seed drives the synthetic history generator; 0 seeds from the clock.
	Seed int64 `koanf:"seed"`

	// RetainTraining keeps the first fitted learner across calls.
	RetainTraining bool `koanf:"retain_training"`
}

// ImprovementConfig tunes the improvement model.
type ImprovementConfig struct {
	// DefaultTasks is the task count used when a request does not set one.
	DefaultTasks int `koanf:"default_tasks"`
}

// FeedbackConfig sizes the feedback pipeline.
type FeedbackConfig struct {
	QueueSize  int `koanf:"queue_size"`
	DedupeSize int `koanf:"dedupe_size"`
}

// StoreConfig selects where model blobs are persisted.
type StoreConfig struct {
	// Driver is one of file, sqlite, redis.
	Driver        string `koanf:"driver"`
	Path          string `koanf:"path"`
	SQLitePath    string `koanf:"sqlite_path"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	KeyPrefix     string `koanf:"key_prefix"`
}

// CheckpointConfig schedules periodic model saves.
type CheckpointConfig struct {
	// Schedule is a cron expression; empty disables checkpoints.
	Schedule string `koanf:"schedule"`
}

// TextGenConfig configures the chat-completions client.
type TextGenConfig struct {
	// APIKey enables live text generation when set.
	APIKey    string `koanf:"api_key"`
	BaseURL   string `koanf:"base_url"`
	Model     string `koanf:"model"`
	TimeoutMS int    `koanf:"timeout_ms"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",
		Rating: RatingConfig{
			HistoryLimit: 0,
		},
		Prediction: PredictionConfig{
			Seed:           0,
			RetainTraining: false,
		},
		Improvement: ImprovementConfig{
			DefaultTasks: 5,
		},
		Feedback: FeedbackConfig{
			QueueSize:  1024,
			DedupeSize: 10_000,
		},
		Store: StoreConfig{
			Driver:     "file",
			Path:       "data",
			SQLitePath: "data/edurate.db",
			RedisAddr:  "localhost:6379",
			KeyPrefix:  "edurate:",
		},
		Checkpoint: CheckpointConfig{
			Schedule: "@every 5m",
		},
		TextGen: TextGenConfig{
			BaseURL:   "https://api.groq.com/openai/v1",
			Model:     "llama-3.3-70b-versatile",
			TimeoutMS: 60_000,
		},
	}
}
