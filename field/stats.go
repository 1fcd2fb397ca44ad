package field

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the decoded wind speeds of a field.
type Stats struct {
	Min, Max, Mean float64

	// Quantiles holds one value per requested probability, in order.
	Quantiles []float64
}

// SpeedStats computes speed statistics over every sample of every
// timestep. Probabilities outside [0, 1] are clamped.
func (f *Field) SpeedStats(p ...float64) Stats {
	speeds := make([]float64, len(f.a))
	for i := range speeds {
		u := f.rangeA.Lerp(float64(f.a[i]) / 255)
		v := f.rangeB.Lerp(float64(f.b[i]) / 255)
		speeds[i] = math.Hypot(u, v)
	}
	slices.Sort(speeds)

	st := Stats{
		Min:       floats.Min(speeds),
		Max:       floats.Max(speeds),
		Mean:      stat.Mean(speeds, nil),
		Quantiles: make([]float64, len(p)),
	}
	for i, q := range p {
		st.Quantiles[i] = stat.Quantile(math.Min(math.Max(q, 0), 1), stat.Empirical, speeds, nil)
	}
	return st
}

// SpeedStats is Field.SpeedStats on the stored field.
func (s *Store) SpeedStats(p ...float64) Stats { return s.field.SpeedStats(p...) }
