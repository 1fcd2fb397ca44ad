// Package config loads windgl settings from YAML.
//
// Settings start from the embedded defaults.yaml; a user file given to
// [Load] overwrites only the keys it names.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prajeeshag/windgl"
	"github.com/prajeeshag/windgl/field"
	"github.com/prajeeshag/windgl/ramp"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned for settings no tool can run with.
var ErrInvalid = errors.New("config: invalid")

// Config holds every setting of the windgl tools.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Ramp      RampConfig      `yaml:"ramp"`
	Viewport  ViewportConfig  `yaml:"viewport"`
	Surface   SurfaceConfig   `yaml:"surface"`
	Animation AnimationConfig `yaml:"animation"`
	Field     FieldConfig     `yaml:"field"`
	Output    OutputConfig    `yaml:"output"`
}

// EngineConfig holds the engine tunables. Unset (nil) fields keep the
// mode defaults; zero is a value like any other.
type EngineConfig struct {
	Mode          string   `yaml:"mode"`
	FadeOpacity   *float64 `yaml:"fade_opacity,omitempty"`
	SpeedFactor   *float64 `yaml:"speed_factor,omitempty"`
	DropRate      *float64 `yaml:"drop_rate,omitempty"`
	SpeedColorMin *float64 `yaml:"speed_color_min,omitempty"`
	SpeedColorMax *float64 `yaml:"speed_color_max,omitempty"`
	Density       *float64 `yaml:"density,omitempty"`
	TailLength    *int     `yaml:"tail_length,omitempty"`
	Seed          *uint64  `yaml:"seed,omitempty"`
}

// Params returns the mode defaults with the set fields applied.
func (e EngineConfig) Params(m windgl.Mode) windgl.Params {
	p := windgl.DefaultParams(m)
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.FadeOpacity, e.FadeOpacity)
	set(&p.SpeedFactor, e.SpeedFactor)
	set(&p.DropRate, e.DropRate)
	set(&p.SpeedColorMin, e.SpeedColorMin)
	set(&p.SpeedColorMax, e.SpeedColorMax)
	set(&p.Density, e.Density)
	if e.TailLength != nil {
		p.TailLength = *e.TailLength
	}
	return p
}

// RampConfig selects the color ramp. Stops win over Preset.
type RampConfig struct {
	Preset string       `yaml:"preset"`
	Stops  []StopConfig `yaml:"stops"`
}

// StopConfig is one ramp stop with a CSS color.
type StopConfig struct {
	Stop  float64 `yaml:"stop"`
	Color string  `yaml:"color"`
}

// ViewportConfig is the initial viewport mapping.
type ViewportConfig struct {
	Origin [2]float64 `yaml:"origin"`
	Size   [2]float64 `yaml:"size"`
}

// SurfaceConfig is the render surface size in pixels.
type SurfaceConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// AnimationConfig controls the frame loop.
type AnimationConfig struct {
	FPS         float64       `yaml:"fps"`
	TimeStep    float64       `yaml:"time_step"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// FieldConfig parameterizes the synthetic field generator.
type FieldConfig struct {
	Kind      string     `yaml:"kind"`
	Width     int        `yaml:"width"`
	Height    int        `yaml:"height"`
	TimeSteps int        `yaml:"time_steps"`
	RangeU    [2]float64 `yaml:"range_u"`
	RangeV    [2]float64 `yaml:"range_v"`
}

// OutputConfig controls where rendered frames go.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Frames    int    `yaml:"frames"`
	Stats     bool   `yaml:"stats"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: parsing embedded defaults: %v", err))
	}
	return cfg
}

// Load reads path over the embedded defaults and validates the result.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that are not checked by the engine.
func (c *Config) Validate() error {
	mode, err := windgl.ParseMode(c.Engine.Mode)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Engine.Params(mode).Validate(mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch {
	case c.Surface.Width < 0 || c.Surface.Height < 0:
		return fmt.Errorf("%w: surface %dx%d", ErrInvalid, c.Surface.Width, c.Surface.Height)
	case !(c.Animation.FPS > 0):
		return fmt.Errorf("%w: fps %v", ErrInvalid, c.Animation.FPS)
	case c.Animation.SettleDelay < 0:
		return fmt.Errorf("%w: settle delay %v", ErrInvalid, c.Animation.SettleDelay)
	case c.Output.Frames < 0:
		return fmt.Errorf("%w: %d frames", ErrInvalid, c.Output.Frames)
	}
	if _, err := c.Ramp.Build(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// Mode returns the parsed engine mode.
func (c *Config) Mode() (windgl.Mode, error) {
	return windgl.ParseMode(c.Engine.Mode)
}

// FrameInterval returns the wall time between frames.
func (c *Config) FrameInterval() time.Duration {
	if !(c.Animation.FPS > 0) {
		return time.Second / 60
	}
	return time.Duration(float64(time.Second) / c.Animation.FPS)
}

// Build returns the configured ramp, or nil when the mode default
// applies.
func (r RampConfig) Build() (*ramp.Ramp, error) {
	if len(r.Stops) > 0 {
		stops := make(map[float64]string, len(r.Stops))
		for _, s := range r.Stops {
			if _, dup := stops[s.Stop]; dup {
				return nil, fmt.Errorf("ramp: duplicate stop %v", s.Stop)
			}
			stops[s.Stop] = s.Color
		}
		return ramp.ParseStops(stops)
	}
	if r.Preset == "" {
		return nil, nil
	}
	return ramp.Preset(r.Preset)
}

// EngineOptions converts the engine, ramp and viewport sections to
// engine options.
func (c *Config) EngineOptions() ([]windgl.Option, error) {
	mode, err := c.Mode()
	if err != nil {
		return nil, err
	}
	e := c.Engine
	opts := []windgl.Option{windgl.WithMode(mode)}
	// Only set fields become options, so a viewer can rebuild the
	// engine in the other mode on top of that mode's defaults.
	for _, t := range []struct {
		v    *float64
		with func(float64) windgl.Option
	}{
		{e.FadeOpacity, windgl.WithFadeOpacity},
		{e.SpeedFactor, windgl.WithSpeedFactor},
		{e.DropRate, windgl.WithDropRate},
		{e.Density, windgl.WithDensity},
	} {
		if t.v != nil {
			opts = append(opts, t.with(*t.v))
		}
	}
	if e.SpeedColorMin != nil || e.SpeedColorMax != nil {
		p := e.Params(mode)
		opts = append(opts, windgl.WithSpeedColorRange(p.SpeedColorMin, p.SpeedColorMax))
	}
	if e.TailLength != nil {
		opts = append(opts, windgl.WithTailLength(*e.TailLength))
	}
	if e.Seed != nil {
		opts = append(opts, windgl.WithSeed(*e.Seed))
	}

	r, err := c.Ramp.Build()
	if err != nil {
		return nil, err
	}
	if r != nil {
		opts = append(opts, windgl.WithRamp(r))
	}

	if v := c.Viewport; v.Size != ([2]float64{}) {
		opts = append(opts, windgl.WithViewportMapping(
			windgl.Vec2{X: v.Origin[0], Y: v.Origin[1]},
			windgl.Vec2{X: v.Size[0], Y: v.Size[1]},
		))
	}
	return opts, nil
}

// Synthetic returns the field generator described by the field section.
func (c *Config) Synthetic() field.Synthetic {
	f := c.Field
	return field.Synthetic{
		Kind:      f.Kind,
		Width:     f.Width,
		Height:    f.Height,
		TimeSteps: f.TimeSteps,
		RangeA:    field.Range{Min: f.RangeU[0], Max: f.RangeU[1]},
		RangeB:    field.Range{Min: f.RangeV[0], Max: f.RangeV[1]},
	}
}
