package worker

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/okian/edurate/internal/adapters/mq/queue"
	"github.com/okian/edurate/pkg/logger"
	"github.com/okian/edurate/pkg/metrics"
)

// Applier folds one feedback observation into the weights.
type Applier interface {
	AdaptWeights(ctx context.Context, fb queue.Event)
}

// Queue defines how the worker receives events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Event
}

// Worker processes feedback events.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown closes the queue when it can, then waits for the remaining
	// events to be applied.
	Shutdown(ctx context.Context) error
}

// FeedbackWorker is the only writer of the engine weights.
type FeedbackWorker struct {
	queue   Queue
	applier Applier
	name    string

	processed atomic.Int64
	done      chan struct{}

	logger logger.Logger
}

// NewFeedbackWorker creates a worker with configuration options.
func NewFeedbackWorker(q Queue, applier Applier, opts ...Option) *FeedbackWorker {
	w := &FeedbackWorker{
		queue:   q,
		applier: applier,
		name:    "feedback-worker",
		done:    make(chan struct{}),
		logger:  logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes events until the queue channel closes or ctx is canceled.
func (w *FeedbackWorker) Run(ctx context.Context) {
	defer close(w.done)

	w.logger.Info(ctx, "feedback worker started", logger.String("name", w.name))
	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				w.logger.Info(ctx, "feedback worker drained", logger.Int("processed", int(w.processed.Load())))
				return
			}
			w.process(ctx, e)
		}
	}
}

func (w *FeedbackWorker) process(ctx context.Context, e queue.Event) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordFeedbackError()
			w.logger.Error(ctx, "feedback processing panicked",
				logger.String("feedback_id", e.FeedbackID),
				logger.Any("panic", r))
		}
	}()

	w.applier.AdaptWeights(ctx, e)
	w.processed.Add(1)
	metrics.RecordFeedbackApplied(math.Abs(e.Delta()))
}

// Processed returns the number of events applied so far.
func (w *FeedbackWorker) Processed() int64 {
	return w.processed.Load()
}

// Shutdown closes the queue if it is closable and waits for Run to return.
func (w *FeedbackWorker) Shutdown(ctx context.Context) error {
	if closer, ok := w.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			w.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
