package rating

import (
	"time"

	"github.com/okian/edurate/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithWeights starts the engine from a custom weight vector. Invalid vectors
// are ignored; valid ones are normalized to sum to 1.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if w.valid() {
			e.weights = w.normalized()
		}
	}
}

// WithHistoryLimit caps the retained prediction history. Zero keeps everything.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.historyLimit = n
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
