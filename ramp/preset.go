package ramp

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/mazznoer/colorgrad"
)

// presetStops is the number of stops sampled from a preset gradient.
const presetStops = 32

var presets = map[string]func() []color.Color{
	"viridis": func() []color.Color { return colorgrad.Viridis().Colors(presetStops) },
	"inferno": func() []color.Color { return colorgrad.Inferno().Colors(presetStops) },
	"magma":   func() []color.Color { return colorgrad.Magma().Colors(presetStops) },
	"plasma":  func() []color.Color { return colorgrad.Plasma().Colors(presetStops) },
	"turbo":   func() []color.Color { return colorgrad.Turbo().Colors(presetStops) },
}

// Presets returns the preset names, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns an opaque ramp sampled from a named gradient.
func Preset(name string) (*Ramp, error) {
	sample, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	colors := sample()
	stops := make([]Stop, len(colors))
	for i, c := range colors {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		n.A = 255
		stops[i] = Stop{Offset: float64(i) / float64(len(colors)-1), Color: n}
	}
	return New(stops...)
}
