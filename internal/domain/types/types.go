// Package types contains common types used across the application
package types

// Entry represents one row of the standings.
type Entry struct {
	Rank      int     `json:"rank"`
	StudentID string  `json:"student_id"`
	Rating    float64 `json:"overall_rating"`
	Tier      string  `json:"tier"`
}

// Summary aggregates a set of ratings.
type Summary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Highest float64 `json:"highest"`
	Lowest  float64 `json:"lowest"`
}

// Summarize computes count, mean, max and min over the entries' ratings.
// An empty slice yields the zero Summary.
func Summarize(entries []Entry) Summary {
	if len(entries) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(entries), Highest: entries[0].Rating, Lowest: entries[0].Rating}
	total := 0.0
	for _, e := range entries {
		total += e.Rating
		if e.Rating > s.Highest {
			s.Highest = e.Rating
		}
		if e.Rating < s.Lowest {
			s.Lowest = e.Rating
		}
	}
	s.Average = total / float64(len(entries))
	return s
}
