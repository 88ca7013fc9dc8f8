package prediction

import (
	"fmt"
	"math"
)

const (
	epsilon     = 1e-12
	maxIncrease = 30.0
)

// Predictor learns an improvement classifier and a mark-increase regressor
// from standardized rows.
type Predictor interface {
	Fit(x [][]float64, improves []bool, increases []float64) error
	// Predict returns the probability of improving and the expected mark increase.
	Predict(x []float64) (probability, increase float64, err error)
}

// CentroidPredictor is a deterministic nearest-centroid classifier paired
// with an inverse-distance regressor. When training saw a single class its
// probability is 1.
type CentroidPredictor struct {
	dim       int
	centroids map[bool][]float64
	rows      [][]float64
	targets   []float64
}

// NewCentroidPredictor creates an unfitted predictor.
func NewCentroidPredictor() *CentroidPredictor {
	return &CentroidPredictor{}
}

// Fit stores the rows and computes one centroid per observed class.
func (p *CentroidPredictor) Fit(x [][]float64, improves []bool, increases []float64) error {
	if len(x) == 0 {
		return ErrEmptyTraining
	}
	if len(improves) != len(x) || len(increases) != len(x) {
		return fmt.Errorf("%w: %d rows, %d labels, %d targets", ErrDimension, len(x), len(improves), len(increases))
	}
	dim := len(x[0])
	sums := map[bool][]float64{}
	counts := map[bool]float64{}
	rows := make([][]float64, 0, len(x))
	for i, r := range x {
		if len(r) != dim {
			return fmt.Errorf("%w: got %d, want %d", ErrDimension, len(r), dim)
		}
		c := improves[i]
		if sums[c] == nil {
			sums[c] = make([]float64, dim)
		}
		for j, v := range r {
			sums[c][j] += v
		}
		counts[c]++
		rows = append(rows, append([]float64(nil), r...))
	}
	for c, s := range sums {
		for j := range s {
			s[j] /= counts[c]
		}
	}
	p.dim = dim
	p.centroids = sums
	p.rows = rows
	p.targets = append([]float64(nil), increases...)
	return nil
}

// Predict scores one standardized row.
func (p *CentroidPredictor) Predict(x []float64) (float64, float64, error) {
	if p.centroids == nil {
		return 0, 0, ErrNotFitted
	}
	if len(x) != p.dim {
		return 0, 0, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(x), p.dim)
	}
	return p.probability(x), clip(p.increase(x), 0, maxIncrease), nil
}

func (p *CentroidPredictor) probability(x []float64) float64 {
	pos, hasPos := p.centroids[true]
	neg, hasNeg := p.centroids[false]
	if !hasPos || !hasNeg {
		return 1
	}
	dPos := distance(x, pos)
	dNeg := distance(x, neg)
	if dPos+dNeg < epsilon {
		return 0.5
	}
	return dNeg / (dPos + dNeg)
}

// increase averages the training targets weighted by inverse distance,
// relative to the nearest row. Rows that coincide with x take all the weight.
func (p *CentroidPredictor) increase(x []float64) float64 {
	dists := make([]float64, len(p.rows))
	nearest := math.Inf(1)
	for i, r := range p.rows {
		dists[i] = distance(x, r)
		nearest = math.Min(nearest, dists[i])
	}
	var num, den float64
	for i, d := range dists {
		var w float64
		switch {
		case nearest < epsilon:
			if d < epsilon {
				w = 1
			}
		default:
			w = nearest / d
		}
		num += w * p.targets[i]
		den += w
	}
	return num / den
}

func distance(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}
