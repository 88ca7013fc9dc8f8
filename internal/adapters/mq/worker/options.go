// Package worker applies queued feedback to the rating engine.
package worker

import (
	"github.com/okian/edurate/pkg/logger"
)

// Option applies a configuration option to the FeedbackWorker.
type Option func(*FeedbackWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *FeedbackWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *FeedbackWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
