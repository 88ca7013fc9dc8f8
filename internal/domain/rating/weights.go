package rating

// Weight keys.
const (
	WeightAttendance = "attendance"
	WeightHomework   = "homework"
	WeightClasswork  = "classwork"
	WeightClassFocus = "class_focus"
	WeightExam       = "exam"
	WeightSkills     = "skills"
)

const (
	weightStep = 0.01
	weightCap  = 0.5
)

// WeightKeys lists the weight keys in a stable order.
var WeightKeys = []string{WeightAttendance, WeightHomework, WeightClasswork, WeightClassFocus, WeightExam, WeightSkills}

// Weights maps each category key to its share of the overall rating.
type Weights map[string]float64

// DefaultWeights returns a fresh copy of the initial weight vector.
func DefaultWeights() Weights {
	return Weights{
		WeightAttendance: 0.2,
		WeightHomework:   0.15,
		WeightClasswork:  0.1,
		WeightClassFocus: 0.15,
		WeightExam:       0.25,
		WeightSkills:     0.15,
	}
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Sum adds every weight.
func (w Weights) Sum() float64 {
	total := 0.0
	for _, k := range WeightKeys {
		total += w[k]
	}
	return total
}

// normalized rescales the vector so it sums to 1.
func (w Weights) normalized() Weights {
	total := w.Sum()
	if total <= 0 {
		return DefaultWeights()
	}
	out := make(Weights, len(WeightKeys))
	for _, k := range WeightKeys {
		out[k] = w[k] / total
	}
	return out
}

// valid reports whether every key is present and non-negative.
func (w Weights) valid() bool {
	for _, k := range WeightKeys {
		v, ok := w[k]
		if !ok || v < 0 {
			return false
		}
	}
	return w.Sum() > 0
}
