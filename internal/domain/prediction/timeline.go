// Package prediction forecasts whether and by how much a student improves
// over fixed timelines, from a synthetic session history and a task load.
package prediction

import "fmt"

// Timeline is one forecast horizon. Multiplier scales the task load.
type Timeline struct {
	Code       string  `json:"code"`
	Label      string  `json:"label"`
	Multiplier float64 `json:"multiplier"`
}

// Timelines lists every horizon in display order.
var Timelines = []Timeline{
	{Code: "1w", Label: "1 Week", Multiplier: 0.15},
	{Code: "3w", Label: "3 Weeks", Multiplier: 0.35},
	{Code: "1m", Label: "1 Month", Multiplier: 0.5},
	{Code: "2m", Label: "2 Months", Multiplier: 0.7},
	{Code: "6m", Label: "6 Months", Multiplier: 0.95},
	{Code: "1y", Label: "1 Year", Multiplier: 1.0},
}

// LookupTimelines resolves codes in the order given. No codes means all.
func LookupTimelines(codes ...string) ([]Timeline, error) {
	if len(codes) == 0 {
		return append([]Timeline(nil), Timelines...), nil
	}
	out := make([]Timeline, 0, len(codes))
	for _, c := range codes {
		found := false
		for _, t := range Timelines {
			if t.Code == c {
				out = append(out, t)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTimeline, c)
		}
	}
	return out, nil
}

func multipliers() map[string]float64 {
	m := make(map[string]float64, len(Timelines))
	for _, t := range Timelines {
		m[t.Code] = t.Multiplier
	}
	return m
}
