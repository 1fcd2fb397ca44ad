// Package ramp builds the speed-to-color lookup texture.
//
// A Ramp is a sorted list of color stops rasterized like a horizontal
// CSS linear gradient 256 pixels wide. The pixels are then laid out as
// a 16x16 texture: row r holds speeds in [r/16, (r+1)/16), so a lookup
// quantizes speed into 16 buckets.
package ramp

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/mazznoer/csscolorparser"
)

var (
	// ErrStopOutOfRange is returned for a stop offset outside [0, 1].
	ErrStopOutOfRange = errors.New("ramp: stop offset out of range")

	// ErrTooFewStops is returned when a ramp has no stops.
	ErrTooFewStops = errors.New("ramp: too few stops")

	// ErrUnknownPreset is returned by Preset for an unknown name.
	ErrUnknownPreset = errors.New("ramp: unknown preset")
)

// Stop is a color at an offset along the ramp.
type Stop struct {
	Offset float64 // 0.0 to 1.0
	Color  color.NRGBA
}

// Ramp is an immutable sorted stop list.
type Ramp struct {
	stops []Stop
}

// New validates and sorts stops. Stops sharing an offset keep their
// order, producing a hard edge.
func New(stops ...Stop) (*Ramp, error) {
	if len(stops) == 0 {
		return nil, ErrTooFewStops
	}
	sorted := make([]Stop, len(stops))
	copy(sorted, stops)
	for _, s := range sorted {
		if math.IsNaN(s.Offset) || s.Offset < 0 || s.Offset > 1 {
			return nil, fmt.Errorf("%w: %v", ErrStopOutOfRange, s.Offset)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})
	return &Ramp{stops: sorted}, nil
}

// MustNew is like New but panics on error.
func MustNew(stops ...Stop) *Ramp {
	r, err := New(stops...)
	if err != nil {
		panic(err)
	}
	return r
}

// ParseStops builds a ramp from offsets mapped to CSS color strings
// such as "rgba(44,123,182,0.5)" or "#d7191c".
func ParseStops(stops map[float64]string) (*Ramp, error) {
	list := make([]Stop, 0, len(stops))
	for off, s := range stops {
		c, err := ParseColor(s)
		if err != nil {
			return nil, fmt.Errorf("ramp: stop %v: %w", off, err)
		}
		list = append(list, Stop{Offset: off, Color: c})
	}
	return New(list...)
}

// ParseColor parses a CSS color string.
func ParseColor(s string) (color.NRGBA, error) {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return color.NRGBA{}, err
	}
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}, nil
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}

// Stops returns a copy of the sorted stops.
func (r *Ramp) Stops() []Stop {
	out := make([]Stop, len(r.stops))
	copy(out, r.stops)
	return out
}

// rgba mirrors the CSS rgba() notation.
func rgba(r, g, b uint8, a float64) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: to8(a)}
}

// Default returns the point-mode ramp: blue through yellow to red with
// alpha rising with speed.
func Default() *Ramp {
	return MustNew(
		Stop{0.0, rgba(44, 123, 182, 0.5)},
		Stop{0.1, rgba(0, 166, 202, 0.7)},
		Stop{0.2, rgba(0, 204, 188, 0.8)},
		Stop{0.3, rgba(144, 235, 157, 0.8)},
		Stop{0.5, rgba(255, 255, 140, 0.9)},
		Stop{0.7, rgba(249, 208, 87, 1)},
		Stop{0.8, rgba(242, 158, 46, 1)},
		Stop{1.0, rgba(215, 25, 28, 1)},
	)
}

// Ribbon returns the ribbon-mode ramp: the Default hues at lower
// alpha, since overlapping segments accumulate.
func Ribbon() *Ramp {
	return MustNew(
		Stop{0.0, rgba(44, 123, 182, 0.2)},
		Stop{0.1, rgba(0, 166, 202, 0.2)},
		Stop{0.2, rgba(0, 204, 188, 0.5)},
		Stop{0.3, rgba(144, 235, 157, 0.5)},
		Stop{0.5, rgba(255, 255, 140, 0.5)},
		Stop{0.7, rgba(249, 208, 87, 0.7)},
		Stop{0.8, rgba(242, 158, 46, 0.7)},
		Stop{1.0, rgba(215, 25, 28, 0.7)},
	)
}
