package service

import (
	"time"

	"github.com/okian/edurate/internal/adapters/blobstore"
	"github.com/okian/edurate/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the capacity of the feedback queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the feedback id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithHistoryLimit caps the rating history kept by the engine. Zero keeps everything.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.historyLimit = n
		}
	}
}

// WithPredictionSeed seeds the synthetic history generator. Zero seeds from the clock.
func WithPredictionSeed(seed int64) Option {
	return func(s *Service) {
		s.predictionSeed = seed
	}
}

// WithRetainTraining keeps the first fitted prediction learner across calls.
func WithRetainTraining(retain bool) Option {
	return func(s *Service) {
		s.retainTraining = retain
	}
}

// WithDefaultTasks sets the plan size used when a request leaves it unset.
func WithDefaultTasks(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultTasks = n
		}
	}
}

// WithStore persists model snapshots in store. The service closes it on Stop.
func WithStore(store blobstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCompleter enables live text generation for skills, plans and narratives.
func WithCompleter(c Completer) Option {
	return func(s *Service) {
		if c != nil {
			s.completer = c
		}
	}
}

// WithCheckpointSchedule sets the cron expression for periodic saves.
// An empty schedule disables them.
func WithCheckpointSchedule(spec string) Option {
	return func(s *Service) {
		s.checkpointSpec = spec
	}
}

// WithClock overrides the time source of the models.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
