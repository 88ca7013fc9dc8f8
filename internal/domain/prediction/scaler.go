package prediction

import (
	"fmt"
	"math"
)

// Scaler standardizes columns to zero mean and unit variance. Columns with
// zero variance are only centred.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler computes per-column means and population standard deviations.
func FitScaler(rows [][]float64) (Scaler, error) {
	if len(rows) == 0 {
		return Scaler{}, ErrEmptyTraining
	}
	dim := len(rows[0])
	s := Scaler{Mean: make([]float64, dim), Scale: make([]float64, dim)}
	for _, r := range rows {
		if len(r) != dim {
			return Scaler{}, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(r), dim)
		}
		for j, v := range r {
			s.Mean[j] += v
		}
	}
	n := float64(len(rows))
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	for _, r := range rows {
		for j, v := range r {
			d := v - s.Mean[j]
			s.Scale[j] += d * d
		}
	}
	for j := range s.Scale {
		sd := math.Sqrt(s.Scale[j] / n)
		if sd < epsilon {
			sd = 1
		}
		s.Scale[j] = sd
	}
	return s, nil
}

// Transform standardizes one row.
func (s Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(x), len(s.Mean))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}
