package windgl

import (
	"fmt"
	"math"
	"strings"

	"github.com/prajeeshag/windgl/ramp"
)

// Mode selects how particles are stored and drawn.
type Mode int

const (
	// ModePoint keeps one position and age per particle and draws each
	// particle as a point. Trails come from the fading accumulator.
	ModePoint Mode = iota

	// ModeRibbon keeps a history of TailLength positions per particle
	// and draws it as connected segments fading with age.
	ModeRibbon
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModePoint:
		return "point"
	case ModeRibbon:
		return "ribbon"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "point" or "ribbon".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "point", "points", "":
		return ModePoint, nil
	case "ribbon", "ribbons", "tail":
		return ModeRibbon, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidParams, s)
}

// Params are the tunables of an engine. FadeOpacity, SpeedFactor,
// DropRate and the speed color range take effect on the next Draw;
// Density and TailLength take effect on the next Reset.
type Params struct {
	// FadeOpacity scales the previous frame each draw; trails n frames
	// old keep about FadeOpacity^n of their alpha.
	FadeOpacity float64

	// SpeedFactor scales the per-tick displacement.
	SpeedFactor float64

	// DropRate is the base aging rate per tick.
	DropRate float64

	// SpeedColorMin and SpeedColorMax bound the speeds mapped onto the
	// color ramp.
	SpeedColorMin, SpeedColorMax float64

	// Density is the number of particles per surface pixel, in [0, 1].
	Density float64

	// TailLength is the number of positions kept per ribbon.
	TailLength int
}

// DefaultParams returns the tuned defaults of a mode.
func DefaultParams(m Mode) Params {
	if m == ModeRibbon {
		return Params{
			FadeOpacity:   0.99,
			SpeedFactor:   3.5,
			DropRate:      0.09,
			SpeedColorMin: 1,
			SpeedColorMax: 15,
			Density:       0.02,
			TailLength:    70,
		}
	}
	return Params{
		FadeOpacity:   0.96,
		SpeedFactor:   1.9,
		DropRate:      0.009,
		SpeedColorMin: 1,
		SpeedColorMax: 15,
		Density:       0.02,
		TailLength:    1,
	}
}

// Validate reports parameters no engine can run with.
func (p Params) Validate(m Mode) error {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	switch {
	case !finite(p.FadeOpacity) || p.FadeOpacity < 0 || p.FadeOpacity > 1:
		return fmt.Errorf("%w: fade opacity %v outside [0, 1]", ErrInvalidParams, p.FadeOpacity)
	case !finite(p.SpeedFactor):
		return fmt.Errorf("%w: speed factor %v", ErrInvalidParams, p.SpeedFactor)
	case !finite(p.DropRate) || p.DropRate < 0 || p.DropRate > 1:
		return fmt.Errorf("%w: drop rate %v outside [0, 1]", ErrInvalidParams, p.DropRate)
	case !finite(p.SpeedColorMin) || !finite(p.SpeedColorMax) || p.SpeedColorMax < p.SpeedColorMin:
		return fmt.Errorf("%w: speed color range [%v, %v]", ErrInvalidParams, p.SpeedColorMin, p.SpeedColorMax)
	case !finite(p.Density) || p.Density < 0 || p.Density > 1:
		return fmt.Errorf("%w: density %v outside [0, 1]", ErrInvalidParams, p.Density)
	case m == ModeRibbon && p.TailLength < 2:
		return fmt.Errorf("%w: tail length %d below 2", ErrInvalidParams, p.TailLength)
	}
	return nil
}

// Option configures an engine during New.
//
// Example:
//
//	eng, err := windgl.New(surface, f,
//	    windgl.WithMode(windgl.ModeRibbon),
//	    windgl.WithTailLength(40),
//	    windgl.WithSeed(1),
//	)
type Option func(*options)

type options struct {
	mode    Mode
	edits   []func(*Params)
	ramp    *ramp.Ramp
	seed    uint64
	seeded  bool
	origin  Vec2
	size    Vec2
	hasView bool
}

// WithMode selects the particle variant. Mode defaults are applied
// before any other tunable option regardless of order.
func WithMode(m Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithParams replaces every tunable.
func WithParams(p Params) Option {
	return func(o *options) {
		o.edits = append(o.edits, func(dst *Params) { *dst = p })
	}
}

// WithFadeOpacity sets the per-frame trail fade.
func WithFadeOpacity(v float64) Option {
	return func(o *options) {
		o.edits = append(o.edits, func(p *Params) { p.FadeOpacity = v })
	}
}

// WithSpeedFactor sets the displacement scale.
func WithSpeedFactor(v float64) Option {
	return func(o *options) {
		o.edits = append(o.edits, func(p *Params) { p.SpeedFactor = v })
	}
}

// WithDropRate sets the base aging rate.
func WithDropRate(v float64) Option {
	return func(o *options) {
		o.edits = append(o.edits, func(p *Params) { p.DropRate = v })
	}
}

// WithSpeedColorRange sets the speeds mapped to the ends of the ramp.
func WithSpeedColorRange(lo, hi float64) Option {
	return func(o *options) {
		o.edits = append(o.edits, func(p *Params) { p.SpeedColorMin, p.SpeedColorMax = lo, hi })
	}
}

// WithDensity sets particles per pixel.
func WithDensity(v float64) Option {
	return func(o *options) {
		o.edits = append(o.edits, func(p *Params) { p.Density = v })
	}
}

// WithTailLength sets the ribbon history length.
func WithTailLength(n int) Option {
	return func(o *options) {
		o.edits = append(o.edits, func(p *Params) { p.TailLength = n })
	}
}

// WithRamp replaces the mode's default color ramp.
func WithRamp(r *ramp.Ramp) Option {
	return func(o *options) { o.ramp = r }
}

// WithSeed makes the initial particle state and per-frame random seeds
// reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithViewportMapping sets the initial viewport mapping. The default
// maps the whole field onto the surface.
func WithViewportMapping(origin, size Vec2) Option {
	return func(o *options) {
		o.origin, o.size = origin, size
		o.hasView = true
	}
}

func (o *options) params() Params {
	p := DefaultParams(o.mode)
	for _, edit := range o.edits {
		edit(&p)
	}
	return p
}
