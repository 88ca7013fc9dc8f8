package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/edurate/internal/domain/model"
)

func feedback(id string) model.Feedback {
	return model.Feedback{FeedbackID: id, StudentID: "STU001", ActualRating: 80, PredictedRating: 75.94, WeakCategory: "exam"}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if err := q.Enqueue(ctx, feedback("fb1")); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	e := <-q.Dequeue(ctx)
	if e.FeedbackID != "fb1" {
		t.Errorf("expected fb1, got %v", e.FeedbackID)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for _, id := range []string{"fb1", "fb2"} {
		if err := q.Enqueue(ctx, feedback(id)); err != nil {
			t.Fatalf("expected enqueue of %s to succeed, got %v", id, err)
		}
	}
	if err := q.Enqueue(ctx, feedback("fb3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CloseDrains(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	_ = q.Enqueue(ctx, feedback("fb1"))
	_ = q.Enqueue(ctx, feedback("fb2"))
	if err := q.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected second close to be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Enqueue(ctx, feedback("fb3")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	var got []string
	for e := range q.Dequeue(ctx) {
		got = append(got, e.FeedbackID)
	}
	if len(got) != 2 || got[0] != "fb1" || got[1] != "fb2" {
		t.Errorf("expected buffered events in order, got %v", got)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = q.Enqueue(context.Background(), feedback("fb1"))
	if err := q.Enqueue(ctx, feedback("fb2")); err == nil {
		t.Error("expected enqueue on a full queue with a cancelled context to fail")
	}
}
