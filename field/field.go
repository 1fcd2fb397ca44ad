// Package field holds wind vector fields and packs them into the
// per-timestep textures the particle engine samples.
//
// A Field is two quantized components (0-255) over a width x height
// grid and one or more timesteps. Row 0 of the grid is the northern
// edge. Samples are laid out timestep-major, then row, then column:
//
//	index = t*width*height + y*width + x
//
// A Store packs adjacent timesteps into RGBA8 frame pairs so a shader
// can interpolate between them with a single texture lookup.
package field

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrInvalidDimensions is returned when sample lengths disagree
	// with each other or with width*height*timeSteps.
	ErrInvalidDimensions = errors.New("field: invalid dimensions")

	// ErrFrameIndexOutOfRange is returned for a frame pair index
	// outside [0, TimestepCount()).
	ErrFrameIndexOutOfRange = errors.New("field: frame index out of range")
)

// Range is the physical interval a quantized component maps onto.
type Range struct {
	Min, Max float64
}

// Lerp maps t in [0, 1] linearly onto the range.
func (r Range) Lerp(t float64) float64 {
	return r.Min + (r.Max-r.Min)*t
}

// Quantize is the inverse of Lerp over bytes: it maps v to the nearest
// of 256 levels, clamping values outside the range.
func (r Range) Quantize(v float64) uint8 {
	span := r.Max - r.Min
	if span == 0 || math.IsNaN(v) {
		return 0
	}
	t := (v - r.Min) / span
	return uint8(math.Round(math.Min(math.Max(t, 0), 1) * 255))
}

// Field is an immutable quantized vector field.
type Field struct {
	a, b           []uint8
	rangeA, rangeB Range
	width, height  int
	timeSteps      int
}

// New validates and copies the samples.
func New(a, b []uint8, rangeA, rangeB Range, width, height, timeSteps int) (*Field, error) {
	if width <= 0 || height <= 0 || timeSteps <= 0 {
		return nil, fmt.Errorf("%w: %dx%d with %d timesteps", ErrInvalidDimensions, width, height, timeSteps)
	}
	if width > math.MaxInt/height || width*height > math.MaxInt/timeSteps {
		return nil, fmt.Errorf("%w: %dx%d with %d timesteps overflows", ErrInvalidDimensions, width, height, timeSteps)
	}
	n := width * height * timeSteps
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: component lengths %d and %d differ", ErrInvalidDimensions, len(a), len(b))
	}
	if len(a) != n {
		return nil, fmt.Errorf("%w: %d samples for %dx%dx%d (want %d)", ErrInvalidDimensions, len(a), width, height, timeSteps, n)
	}
	return &Field{
		a:         slices.Clone(a),
		b:         slices.Clone(b),
		rangeA:    rangeA,
		rangeB:    rangeB,
		width:     width,
		height:    height,
		timeSteps: timeSteps,
	}, nil
}

// Width returns the grid width.
func (f *Field) Width() int { return f.width }

// Height returns the grid height.
func (f *Field) Height() int { return f.height }

// TimeSteps returns the number of timesteps.
func (f *Field) TimeSteps() int { return f.timeSteps }

// Ranges returns the physical ranges of both components.
func (f *Field) Ranges() (a, b Range) { return f.rangeA, f.rangeB }

func (f *Field) index(x, y, t int) int {
	return t*f.width*f.height + y*f.width + x
}

// Sample returns the raw quantized components at (x, y, t).
func (f *Field) Sample(x, y, t int) (a, b uint8) {
	i := f.index(x, y, t)
	return f.a[i], f.b[i]
}

// Velocity returns the physical components at (x, y, t).
func (f *Field) Velocity(x, y, t int) (u, v float64) {
	a, b := f.Sample(x, y, t)
	return f.rangeA.Lerp(float64(a) / 255), f.rangeB.Lerp(float64(b) / 255)
}
