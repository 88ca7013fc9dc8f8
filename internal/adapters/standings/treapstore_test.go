package standings

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/okian/edurate/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	if added := store.Upsert(ctx, "STU001", 75.94, "EXCELLENT"); !added {
		t.Error("expected first upsert to add the student")
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	entry, err := store.Rank(ctx, "STU001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 {
		t.Errorf("expected rank 1, got %d", entry.Rank)
	}
	if entry.Rating != 75.94 {
		t.Errorf("expected rating 75.94, got %f", entry.Rating)
	}
	if entry.Tier != "EXCELLENT" {
		t.Errorf("expected tier EXCELLENT, got %s", entry.Tier)
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].StudentID != "STU001" {
		t.Errorf("unexpected top entries: %+v", entries)
	}
}

func TestTreapStore_UpsertReplacesLatest(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	store.Upsert(ctx, "a", 90, "ELITE")
	store.Upsert(ctx, "b", 80, "EXCELLENT")

	if added := store.Upsert(ctx, "a", 60, "DEVELOPING"); added {
		t.Error("expected re-rating to replace, not add")
	}
	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}

	entry, err := store.Rank(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 2 || entry.Rating != 60 || entry.Tier != "DEVELOPING" {
		t.Errorf("expected a at rank 2 with 60 DEVELOPING, got %+v", entry)
	}
}

func TestTreapStore_TiesShareRank(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	store.Upsert(ctx, "carol", 70, "GOOD")
	store.Upsert(ctx, "alice", 88, "ELITE")
	store.Upsert(ctx, "bob", 88, "ELITE")
	store.Upsert(ctx, "dave", 50, "DEVELOPING")

	entries, err := store.TopN(ctx, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		id   string
		rank int
	}{{"alice", 1}, {"bob", 1}, {"carol", 3}, {"dave", 4}}
	for i, w := range want {
		if entries[i].StudentID != w.id || entries[i].Rank != w.rank {
			t.Errorf("position %d: expected %s rank %d, got %s rank %d",
				i, w.id, w.rank, entries[i].StudentID, entries[i].Rank)
		}
	}

	entry, _ := store.Rank(ctx, "bob")
	if entry.Rank != 1 {
		t.Errorf("expected bob rank 1, got %d", entry.Rank)
	}
	entry, _ = store.Rank(ctx, "carol")
	if entry.Rank != 3 {
		t.Errorf("expected carol rank 3, got %d", entry.Rank)
	}
}

func TestTreapStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if _, err := store.Rank(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	if all := store.All(ctx); len(all) != 0 {
		t.Errorf("expected no entries, got %d", len(all))
	}
}

func TestTreapStore_MatchesSortedOracle(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	rng := rand.New(rand.NewSource(1))

	latest := map[string]float64{}
	for i := 0; i < 2000; i++ {
		id := fmt.Sprintf("s%03d", rng.Intn(300))
		rating := float64(rng.Intn(40)) + 50 // plenty of ties
		store.Upsert(ctx, id, rating, "")
		latest[id] = rating
	}

	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if latest[ids[i]] != latest[ids[j]] {
			return latest[ids[i]] > latest[ids[j]]
		}
		return ids[i] < ids[j]
	})

	all := store.All(ctx)
	if len(all) != len(ids) {
		t.Fatalf("expected %d entries, got %d", len(ids), len(all))
	}
	for i, e := range all {
		if e.StudentID != ids[i] {
			t.Fatalf("position %d: expected %s, got %s", i, ids[i], e.StudentID)
		}
		higher := 0
		for _, id := range ids {
			if latest[id] > latest[e.StudentID] {
				higher++
			}
		}
		if e.Rank != higher+1 {
			t.Errorf("%s: expected rank %d, got %d", e.StudentID, higher+1, e.Rank)
		}
		r, err := store.Rank(ctx, e.StudentID)
		if err != nil || r.Rank != e.Rank {
			t.Errorf("%s: Rank disagrees with All: %d vs %d (%v)", e.StudentID, r.Rank, e.Rank, err)
		}
	}
}
