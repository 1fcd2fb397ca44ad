// Package viewer is the interactive state behind windview: a wind layer
// over an equirectangular world that can be panned, zoomed and scrubbed
// in time. It has no windowing dependency; the command maps input
// events onto its methods and blits [Viewer.Frame].
package viewer

import (
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/prajeeshag/windgl"
	"github.com/prajeeshag/windgl/field"
	"github.com/prajeeshag/windgl/layer"
	"github.com/prajeeshag/windgl/render"
)

const (
	minZoom = 1
	maxZoom = 32

	// DensityStep is the density change per key press.
	DensityStep = 0.005

	// ScrubStep is the time position change per key press.
	ScrubStep = 0.01
)

// World is the extent of the field.
var World = layer.Bounds{West: -180, North: 90, East: 180, South: -90}

// Config configures a Viewer.
type Config struct {
	// Options are applied to every engine before the mode and density
	// from Settings.
	Options     []windgl.Option
	Settings    Settings
	SettleDelay time.Duration
	// Rate is the animation speed in time positions per second.
	Rate float64
}

// Viewer owns a layer, its engine and surface.
type Viewer struct {
	field   *field.Field
	opts    []windgl.Option
	rate    float64
	surface *render.OffscreenSurface
	layer   *layer.Layer

	container image.Rectangle
	zoom      float64
	centerLon float64
	centerLat float64
	mode      windgl.Mode
	density   float64
	animate   bool
	paused    bool

	mu    sync.Mutex
	frame *image.RGBA
	seq   uint64
}

// New creates a viewer drawing on dev. The layer stays paused until the
// first Resize.
func New(dev render.Device, f *field.Field, cfg Config) (*Viewer, error) {
	st := cfg.Settings
	mode, err := windgl.ParseMode(st.Mode)
	if err != nil {
		return nil, err
	}
	v := &Viewer{
		field:   f,
		opts:    cfg.Options,
		rate:    cfg.Rate,
		zoom:    clamp(st.Zoom, minZoom, maxZoom),
		mode:    mode,
		density: st.Density,
		animate: st.Animate,
	}
	if v.density <= 0 {
		v.density = windgl.DefaultParams(mode).Density
	}

	v.surface, err = render.NewOffscreenSurface(dev, 0, 0)
	if err != nil {
		return nil, err
	}
	eng, err := v.newEngine()
	if err != nil {
		v.surface.Release()
		return nil, err
	}
	lopts := []layer.Option{layer.WithFrameHook(v.capture)}
	if cfg.SettleDelay > 0 {
		lopts = append(lopts, layer.WithSettleDelay(cfg.SettleDelay))
	}
	v.layer, err = layer.New(eng, v.surface, lopts...)
	if err != nil {
		_ = eng.Close()
		v.surface.Release()
		return nil, err
	}
	v.layer.SetTimePosition(st.TimePosition)
	v.applyAnimation()
	return v, nil
}

func (v *Viewer) newEngine() (windgl.Engine, error) {
	opts := append([]windgl.Option{}, v.opts...)
	opts = append(opts, windgl.WithMode(v.mode), windgl.WithDensity(v.density))
	return windgl.New(v.surface, v.field, opts...)
}

// capture runs after every drawn frame with the layer locked.
func (v *Viewer) capture(windgl.Engine, float64) {
	img, err := v.surface.Image()
	if err != nil {
		windgl.Logger().Warn("viewer: readback failed", "err", err)
		return
	}
	v.mu.Lock()
	v.frame = img
	v.seq++
	v.mu.Unlock()
}

// Frame returns the last drawn frame, where to draw it in the window,
// and a sequence number that changes with every frame. img is nil
// before the first frame.
func (v *Viewer) Frame() (img *image.RGBA, at image.Point, seq uint64) {
	c := v.layer.Canvas()
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frame, c.Rect.Min, v.seq
}

// Layer returns the underlying layer.
func (v *Viewer) Layer() *layer.Layer { return v.layer }

// Project maps geographic coordinates to window pixels.
func (v *Viewer) Project(lon, lat float64) (x, y float64) {
	w, h := v.worldSize()
	c := v.container
	cx := float64(c.Min.X) + float64(c.Dx())/2
	cy := float64(c.Min.Y) + float64(c.Dy())/2
	return cx + (lon-v.centerLon)/360*w, cy - (lat-v.centerLat)/180*h
}

// unproject is the inverse of Project.
func (v *Viewer) unproject(x, y float64) (lon, lat float64) {
	w, h := v.worldSize()
	c := v.container
	cx := float64(c.Min.X) + float64(c.Dx())/2
	cy := float64(c.Min.Y) + float64(c.Dy())/2
	return v.centerLon + (x-cx)/w*360, v.centerLat - (y-cy)/h*180
}

func (v *Viewer) worldSize() (w, h float64) {
	w = float64(v.container.Dx()) * v.zoom
	return w, w / 2
}

// refit schedules the layer to fit the current view.
func (v *Viewer) refit() {
	v.layer.Resume(layer.ComputeCanvas(World.Project(v), v.container))
}

// Resize sets the window size.
func (v *Viewer) Resize(w, h int) {
	r := image.Rect(0, 0, w, h)
	if r == v.container {
		return
	}
	v.container = r
	v.refit()
}

// Zoom multiplies the zoom by factor, keeping the point under (x, y)
// in place.
func (v *Viewer) Zoom(factor, x, y float64) {
	if !(factor > 0) {
		return
	}
	lon, lat := v.unproject(x, y)
	z := clamp(v.zoom*factor, minZoom, maxZoom)
	if z == v.zoom {
		return
	}
	v.zoom = z
	w, h := v.worldSize()
	c := v.container
	cx := float64(c.Min.X) + float64(c.Dx())/2
	cy := float64(c.Min.Y) + float64(c.Dy())/2
	v.centerLon = lon - (x-cx)/w*360
	v.centerLat = lat + (y-cy)/h*180
	v.refit()
}

// Pan moves the view by (dx, dy) window pixels.
func (v *Viewer) Pan(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	w, h := v.worldSize()
	if w == 0 {
		return
	}
	v.centerLon -= dx / w * 360
	v.centerLat += dy / h * 180
	v.centerLon = clamp(v.centerLon, -180, 180)
	v.centerLat = clamp(v.centerLat, -90, 90)
	v.refit()
}

// TogglePause stops or restarts drawing.
func (v *Viewer) TogglePause() { v.paused = !v.paused }

// Paused reports whether drawing is stopped by TogglePause.
func (v *Viewer) Paused() bool { return v.paused }

// ToggleAnimation starts or stops advancing the time position.
func (v *Viewer) ToggleAnimation() {
	v.animate = !v.animate
	v.applyAnimation()
}

func (v *Viewer) applyAnimation() {
	if v.animate {
		v.layer.Animate(v.rate)
	} else {
		v.layer.Animate(0)
	}
}

// Scrub moves the time position by dt, wrapping at the ends.
func (v *Viewer) Scrub(dt float64) {
	t := math.Mod(v.layer.TimePosition()+dt, 1)
	if t < 0 {
		t++
	}
	v.layer.SetTimePosition(t)
}

// Mode returns the particle mode.
func (v *Viewer) Mode() windgl.Mode { return v.mode }

// ToggleMode rebuilds the engine in the other mode.
func (v *Viewer) ToggleMode() error {
	next := windgl.ModeRibbon
	if v.mode == windgl.ModeRibbon {
		next = windgl.ModePoint
	}
	v.layer.Pause()
	prev := v.mode
	v.mode = next
	eng, err := v.newEngine()
	if err != nil {
		v.mode = prev
		v.refit()
		return fmt.Errorf("viewer: switching to %s: %w", next, err)
	}
	if old := v.layer.SetEngine(eng); old != nil {
		_ = old.Close()
	}
	v.refit()
	return nil
}

// Density returns the particle density.
func (v *Viewer) Density() float64 { return v.density }

// AdjustDensity changes the density by d and reallocates the particles.
func (v *Viewer) AdjustDensity(d float64) {
	n := clamp(v.density+d, 0, 1)
	if n == v.density {
		return
	}
	v.layer.Pause()
	v.density = n
	v.layer.Engine().SetDensity(n)
	v.refit()
}

// Step advances the layer by elapsed unless paused.
func (v *Viewer) Step(elapsed time.Duration) error {
	if v.paused {
		return nil
	}
	return v.layer.Step(elapsed)
}

// Settings returns the state worth restoring.
func (v *Viewer) Settings() Settings {
	return Settings{
		Mode:         v.mode.String(),
		Density:      v.density,
		TimePosition: v.layer.TimePosition(),
		Animate:      v.animate,
		Zoom:         v.zoom,
	}
}

// Close releases the engine and the surface.
func (v *Viewer) Close() error {
	v.layer.Close()
	err := v.layer.Engine().Close()
	v.surface.Release()
	return err
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Min(math.Max(x, lo), hi)
}
