// Package standings ranks students by their latest overall rating.
package standings

import (
	"context"

	"github.com/okian/edurate/internal/domain/types"
)

// Store provides read/write access to the standings.
type Store interface {
	// Upsert records the latest rating of a student, replacing any earlier one.
	// It reports whether the student was new.
	Upsert(ctx context.Context, studentID string, rating float64, tier string) bool

	// Rank returns the current entry for a student.
	// Returns ErrNotFound if the student is unknown.
	Rank(ctx context.Context, studentID string) (types.Entry, error)

	// TopN returns the top-N entries ordered by rating desc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// All returns every entry in rank order.
	All(ctx context.Context) []types.Entry

	// Count returns the number of students tracked.
	Count(ctx context.Context) int
}
