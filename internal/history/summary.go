package history

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the retained samples of one series.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Last   float64 `json:"last"`
}

// Summarize computes count, extrema, mean and sample standard deviation.
// A single sample has zero deviation.
func Summarize(samples []Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	vals := make([]float64, len(samples))
	for i, s := range samples {
		vals[i] = s.Value
	}
	s := Summary{
		Count: len(vals),
		Min:   floats.Min(vals),
		Max:   floats.Max(vals),
		Last:  vals[len(vals)-1],
	}
	if len(vals) == 1 {
		s.Mean = vals[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(vals, nil)
	return s
}
