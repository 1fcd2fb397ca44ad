package field

import (
	"errors"
	"fmt"
	"math"
)

// Synthetic generator kinds.
const (
	KindUniform = "uniform"
	KindVortex  = "vortex"
	KindGyre    = "gyre"
)

// ErrUnknownKind is returned by Synthetic.Generate for an unknown kind.
var ErrUnknownKind = errors.New("field: unknown synthetic kind")

// Synthetic describes a generated field. Components are produced in
// [-1, 1] and quantized into RangeA and RangeB; v is positive towards
// the north.
type Synthetic struct {
	Kind           string
	Width, Height  int
	TimeSteps      int
	RangeA, RangeB Range
}

// DefaultSynthetic is a 64x32 double gyre over 8 timesteps.
func DefaultSynthetic() Synthetic {
	return Synthetic{
		Kind:      KindGyre,
		Width:     64,
		Height:    32,
		TimeSteps: 8,
		RangeA:    Range{Min: -10, Max: 10},
		RangeB:    Range{Min: -10, Max: 10},
	}
}

// Generate builds the field.
func (s Synthetic) Generate() (*Field, error) {
	var gen func(x, y, t float64) (u, v float64)
	switch s.Kind {
	case KindUniform:
		gen = uniform
	case KindVortex:
		gen = vortex
	case KindGyre, "":
		gen = gyre
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
	if s.Width <= 0 || s.Height <= 0 || s.TimeSteps <= 0 {
		return nil, fmt.Errorf("%w: %dx%d with %d timesteps", ErrInvalidDimensions, s.Width, s.Height, s.TimeSteps)
	}

	n := s.Width * s.Height * s.TimeSteps
	a := make([]uint8, n)
	b := make([]uint8, n)
	ra, rb := s.RangeA, s.RangeB
	i := 0
	for t := range s.TimeSteps {
		tt := float64(t) / float64(max(s.TimeSteps-1, 1))
		for y := range s.Height {
			// Cell centers, y growing northwards.
			yy := 1 - (float64(y)+0.5)/float64(s.Height)
			for x := range s.Width {
				xx := (float64(x) + 0.5) / float64(s.Width)
				u, v := gen(xx, yy, tt)
				a[i] = ra.Quantize(ra.Lerp((u + 1) / 2))
				b[i] = rb.Quantize(rb.Lerp((v + 1) / 2))
				i++
			}
		}
	}
	return New(a, b, s.RangeA, s.RangeB, s.Width, s.Height, s.TimeSteps)
}

func uniform(_, _, _ float64) (u, v float64) { return 0.6, 0.2 }

// vortex is a solid-body rotation around the domain center, clipped
// to unit speed.
func vortex(x, y, _ float64) (u, v float64) {
	dx, dy := x-0.5, y-0.5
	u, v = -2*dy, 2*dx
	if r := math.Hypot(u, v); r > 1 {
		u, v = u/r, v/r
	}
	return u, v
}

// gyre is the periodically forced double gyre on [0,2]x[0,1] with
// amplitude 1, perturbation 0.25 and one full period over the field.
func gyre(x, y, t float64) (u, v float64) {
	const eps = 0.25
	x *= 2
	s := math.Sin(2 * math.Pi * t)
	a := eps * s
	b := 1 - 2*eps*s
	f := a*x*x + b*x
	df := 2*a*x + b
	u = -math.Pi * math.Sin(math.Pi*f) * math.Cos(math.Pi*y)
	v = math.Pi * math.Cos(math.Pi*f) * math.Sin(math.Pi*y) * df
	return clampUnit(u / math.Pi), clampUnit(v / (1.5 * math.Pi))
}

func clampUnit(v float64) float64 { return math.Min(math.Max(v, -1), 1) }
