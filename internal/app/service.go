// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the batch tools.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/edurate/internal/adapters/blobstore"
	eventqueue "github.com/okian/edurate/internal/adapters/mq/queue"
	"github.com/okian/edurate/internal/adapters/mq/worker"
	"github.com/okian/edurate/internal/adapters/scheduler"
	"github.com/okian/edurate/internal/adapters/standings"
	"github.com/okian/edurate/internal/domain/dedupe"
	"github.com/okian/edurate/internal/domain/improvement"
	"github.com/okian/edurate/internal/domain/model"
	"github.com/okian/edurate/internal/domain/prediction"
	"github.com/okian/edurate/internal/domain/rating"
	"github.com/okian/edurate/internal/domain/records"
	"github.com/okian/edurate/internal/domain/skills"
	"github.com/okian/edurate/pkg/logger"
	"github.com/okian/edurate/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// Completer is a text generation client shared by every live capability.
type Completer interface {
	Complete(ctx context.Context, p model.Prompt) (string, error)
}

// Service wires the rating, improvement and prediction models together with
// the feedback pipeline, the standings and model persistence.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine     *rating.Engine
	planner    *improvement.Model
	narrator   *improvement.Narrator
	predictor  *prediction.Model
	extractor  *records.Extractor
	standings  standings.Store
	deduper    dedupe.Deduper
	queue      *eventqueue.InMemoryQueue
	worker     *worker.FeedbackWorker
	scheduler  *scheduler.Scheduler
	store      blobstore.Store
	completer  Completer
	workerStop context.CancelFunc

	// Configuration
	queueSize      int
	dedupeSize     int
	historyLimit   int
	predictionSeed int64
	retainTraining bool
	defaultTasks   int
	checkpointSpec string
	now            func() time.Time

	// State
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:    1024,
		dedupeSize:   10_000,
		defaultTasks: improvement.DefaultTasks,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the models, restores persisted state and starts the feedback
// worker and the checkpoint schedule.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting rating service...")

	s.engine = rating.NewEngine(
		rating.WithHistoryLimit(s.historyLimit),
		rating.WithClock(s.now),
	)

	var (
		advisor  improvement.Advisor = improvement.NewFallbackAdvisor(s.now)
		assessor skills.Assessor     = skills.NewKeywordAssessor()
	)
	if s.completer != nil {
		advisor = improvement.NewLLMAdvisor(s.completer, improvement.WithAdvisorClock(s.now))
		assessor = skills.NewLLMAssessor(s.completer)
	}
	s.planner = improvement.NewModel(
		improvement.WithAdvisor(advisor),
		improvement.WithClock(s.now),
	)
	s.narrator = improvement.NewNarrator(s.completer)
	s.extractor = records.NewExtractor(records.WithAssessor(assessor))
	s.predictor = prediction.NewModel(
		prediction.WithSeed(s.predictionSeed),
		prediction.WithRetainTraining(s.retainTraining),
		prediction.WithClock(s.now),
	)

	s.restore(ctx)

	s.standings = standings.NewTreapStore()
	for _, r := range s.engine.History() {
		s.standings.Upsert(ctx, r.StudentID, r.OverallRating, r.Tier)
	}

	s.scheduler = scheduler.NewScheduler()
	checkpoints := s.store != nil && s.checkpointSpec != ""
	if checkpoints {
		if err := s.scheduler.Schedule(s.checkpointSpec, s.checkpoint); err != nil {
			return err
		}
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.worker = worker.NewFeedbackWorker(s.queue, s.engine)

	// The worker outlives the start context; Stop drains it.
	workerCtx, cancel := context.WithCancel(context.Background())
	s.workerStop = cancel
	go s.worker.Run(workerCtx)

	if checkpoints {
		s.scheduler.Start()
	}

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("students", s.standings.Count(ctx)),
		logger.Bool("textgen", s.completer != nil),
		logger.Bool("persistent", s.store != nil),
		logger.String("checkpoint", s.checkpointSpec),
	)
	return nil
}

// Stop drains pending feedback, saves a final checkpoint and releases the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping rating service...")

	s.scheduler.Stop(ctx)

	if err := s.worker.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "feedback worker did not drain", logger.Error(err))
	}
	s.workerStop()

	if s.store != nil {
		if err := s.checkpoint(ctx); err != nil {
			s.logger.Error(ctx, "final checkpoint failed", logger.Error(err))
		}
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "error closing model store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// Checkpoint saves the three model snapshots. Every snapshot is attempted;
// the returned error joins the individual failures. Without a store it is a no-op.
func (s *Service) Checkpoint(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.checkpoint(ctx)
}

func (s *Service) checkpoint(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	var errs []error
	if err := blobstore.SaveJSON(ctx, s.store, blobstore.RatingModel, s.engine.Snapshot()); err != nil {
		errs = append(errs, err)
	}
	if err := blobstore.SaveJSON(ctx, s.store, blobstore.ImprovementModel, s.planner.Snapshot()); err != nil {
		errs = append(errs, err)
	}
	if err := blobstore.SaveJSON(ctx, s.store, blobstore.PredictionModel, s.predictor.Snapshot()); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Debug(ctx, "models checkpointed")
	return nil
}

// restore loads whatever snapshots the store holds. Missing or unreadable
// snapshots leave the defaults in place.
func (s *Service) restore(ctx context.Context) {
	if s.store == nil {
		return
	}

	var rs rating.Snapshot
	if s.load(ctx, blobstore.RatingModel, &rs) {
		if err := s.engine.Restore(rs); err != nil {
			s.logger.Warn(ctx, "rating snapshot rejected, using defaults", logger.Error(err))
		}
	}

	var is improvement.Snapshot
	if s.load(ctx, blobstore.ImprovementModel, &is) {
		s.planner.Restore(is)
	}

	var ps prediction.Snapshot
	if s.load(ctx, blobstore.PredictionModel, &ps) {
		s.predictor.Restore(ps)
	}
}

func (s *Service) load(ctx context.Context, name string, v any) bool {
	err := blobstore.LoadJSON(ctx, s.store, name, v)
	switch {
	case err == nil:
		s.logger.Info(ctx, "model restored", logger.String("model", name))
		return true
	case errors.Is(err, blobstore.ErrNotFound):
		s.logger.Info(ctx, "no saved model, using defaults", logger.String("model", name))
	default:
		s.logger.Warn(ctx, "could not load model, using defaults",
			logger.String("model", name), logger.Error(err))
	}
	return false
}

// ready reports whether the components are built.
func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// TextGenAvailable reports whether live text generation is configured.
func (s *Service) TextGenAvailable() bool {
	return s.completer != nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":    s.started,
		"queueSize":  s.queueSize,
		"dedupeSize": s.dedupeSize,
		"textgen":    s.completer != nil,
		"persistent": s.store != nil,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		students := s.standings.Count(ctx)
		perf := s.engine.Performance()

		stats["queueLength"] = queueLen
		stats["students"] = students
		stats["feedbackProcessed"] = s.worker.Processed()
		stats["dedupeEntries"] = s.deduper.Size()
		stats["totalPredictions"] = perf.TotalPredictions
		stats["plansCreated"] = len(s.planner.History())

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStandingsSize(students)
	}

	return stats
}
