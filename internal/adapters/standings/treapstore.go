package standings

import (
	"context"
	"hash/fnv"
	"math"
	"sync"

	"github.com/okian/edurate/internal/domain/types"
	"github.com/okian/edurate/pkg/logger"
	"github.com/okian/edurate/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: rating DESC, then studentID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the standings
// from best to worst. Subtree sizes make rank queries O(log n).

// ratingScale converts ratings to fixed point so equal ratings compare equal.
const ratingScale = 1_000_000

type ratingFP int64

func toFixedPoint(x float64) ratingFP {
	if math.IsNaN(x) {
		return 0
	}
	return ratingFP(math.Round(x * ratingScale))
}

func toFloat(x ratingFP) float64 {
	return float64(x) / ratingScale
}

type record struct {
	rating ratingFP
	tier   string
}

type node struct {
	id     string
	rating ratingFP
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aRating, aID) should appear before (bRating, bID).
func less(aRating ratingFP, aID string, bRating ratingFP, bID string) bool {
	if aRating != bRating {
		return aRating > bRating
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// priority hashes the id so the tree shape does not depend on insert order.
func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, id string, rating ratingFP) *node {
	if n == nil {
		return &node{id: id, rating: rating, prio: priority(id), size: 1}
	}
	if less(rating, id, n.rating, n.id) {
		n.left = insert(n.left, id, rating)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, rating)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, rating ratingFP) *node {
	if n == nil {
		return nil
	}
	if rating == n.rating && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, rating)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, rating)
		}
	} else if less(rating, id, n.rating, n.id) {
		n.left = deleteNode(n.left, id, rating)
	} else {
		n.right = deleteNode(n.right, id, rating)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes hold a rating strictly above r.
func countAbove(n *node, r ratingFP) int {
	count := 0
	for n != nil {
		if n.rating > r {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collect appends up to limit nodes in rank order.
func collect(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collect(n.right, limit, out)
	}
}

// TreapStore keeps the standings in a treap keyed by (rating, id).
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
	log  logger.Logger
}

// NewTreapStore constructs an empty store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]record),
		log:  logger.Get().Named("standings"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert implements Store.Upsert in O(log n) expected time.
func (s *TreapStore) Upsert(ctx context.Context, studentID string, rating float64, tier string) bool {
	r := toFixedPoint(rating)

	s.mu.Lock()
	old, exists := s.byID[studentID]
	if exists {
		s.root = deleteNode(s.root, studentID, old.rating)
	}
	s.byID[studentID] = record{rating: r, tier: tier}
	s.root = insert(s.root, studentID, r)
	size := len(s.byID)
	s.mu.Unlock()

	if !exists {
		metrics.UpdateStandingsSize(size)
		s.log.Debug(ctx, "student added to standings",
			logger.String("student_id", studentID),
			logger.Float64("rating", rating))
	}
	return !exists
}

// Rank returns the competition rank of a student: one plus the number of
// students rated strictly higher.
func (s *TreapStore) Rank(_ context.Context, studentID string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[studentID]
	if !ok {
		return types.Entry{}, ErrNotFound
	}
	return types.Entry{
		Rank:      countAbove(s.root, rec.rating) + 1,
		StudentID: studentID,
		Rating:    toFloat(rec.rating),
		Tier:      rec.tier,
	}, nil
}

// TopN returns the top n entries. Tied ratings share a rank and the next
// rank skips accordingly.
func (s *TreapStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries(n), nil
}

// All returns every entry in rank order.
func (s *TreapStore) All(_ context.Context) []types.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries(len(s.byID))
}

// Count returns the number of students.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// entries assumes the read lock is held.
func (s *TreapStore) entries(limit int) []types.Entry {
	nodes := make([]*node, 0, min(limit, len(s.byID)))
	collect(s.root, limit, &nodes)

	out := make([]types.Entry, 0, len(nodes))
	for i, n := range nodes {
		rank := i + 1
		if i > 0 && n.rating == nodes[i-1].rating {
			rank = out[i-1].Rank
		}
		out = append(out, types.Entry{
			Rank:      rank,
			StudentID: n.id,
			Rating:    toFloat(n.rating),
			Tier:      s.byID[n.id].tier,
		})
	}
	return out
}
