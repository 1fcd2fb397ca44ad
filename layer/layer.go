// Package layer drives a windgl engine from a host map view.
//
// The host reports interaction through [Layer.Pause] and
// [Layer.Resume]; the layer waits for the view to settle, fits its
// surface to the visible part of the grid, resets the engine and
// resumes ticking. Drawing happens on the goroutine running
// [Layer.Run] and from the settle timer, serialized by the layer.
package layer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/prajeeshag/windgl"
	"github.com/prajeeshag/windgl/render"
)

// Defaults.
const (
	DefaultSettleDelay   = 16 * time.Millisecond
	DefaultFrameInterval = time.Second / 60
)

// ErrNoSurface is returned by New when no surface is given.
var ErrNoSurface = errors.New("layer: no surface")

// Surface is a render surface the layer can fit to the canvas.
// *render.OffscreenSurface implements it.
type Surface interface {
	render.Surface
	Resize(w, h int) error
}

// State is the animation state of a Layer.
type State int

const (
	// Paused layers do not draw.
	Paused State = iota
	// Running layers draw on every tick.
	Running
)

// String returns the state name.
func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "paused"
}

type stopper interface {
	Stop() bool
}

// Layer owns an engine and the surface it draws into.
type Layer struct {
	settle   time.Duration
	interval time.Duration
	onFrame  func(eng windgl.Engine, timePos float64)

	// afterFunc schedules the settle callback.
	afterFunc func(time.Duration, func()) stopper

	mu      sync.Mutex
	engine  windgl.Engine
	surface Surface
	state   State
	canvas  Canvas
	timePos float64
	rate    float64
	timer   stopper
	gen     uint64
	err     error
}

// Option configures a Layer.
type Option func(*Layer)

// WithSettleDelay sets how long Resume waits for the view to settle.
func WithSettleDelay(d time.Duration) Option {
	return func(l *Layer) {
		if d >= 0 {
			l.settle = d
		}
	}
}

// WithFrameInterval sets the tick period of Run.
func WithFrameInterval(d time.Duration) Option {
	return func(l *Layer) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithFrameHook registers fn to run after every drawn frame with the
// time position it was drawn at. fn runs with the layer locked and
// must not call back into the layer.
func WithFrameHook(fn func(eng windgl.Engine, timePos float64)) Option {
	return func(l *Layer) { l.onFrame = fn }
}

// New returns a paused layer. The engine must draw into surface.
func New(eng windgl.Engine, surface Surface, opts ...Option) (*Layer, error) {
	if surface == nil {
		return nil, ErrNoSurface
	}
	if eng == nil {
		return nil, fmt.Errorf("layer: no engine")
	}
	l := &Layer{
		settle:   DefaultSettleDelay,
		interval: DefaultFrameInterval,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		engine:  eng,
		surface: surface,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Engine returns the engine the layer drives.
func (l *Layer) Engine() windgl.Engine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine
}

// SetEngine replaces the engine, for example after a mode change. The
// new engine is reset on the next Resume. The old engine is returned
// so the caller can close it.
func (l *Layer) SetEngine(eng windgl.Engine) windgl.Engine {
	l.mu.Lock()
	defer l.mu.Unlock()
	old := l.engine
	l.engine = eng
	return old
}

// State returns the animation state.
func (l *Layer) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Canvas returns the canvas applied by the last settle.
func (l *Layer) Canvas() Canvas {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canvas
}

// Err returns the error of the last settle, if any.
func (l *Layer) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Pause stops drawing and cancels a pending resume.
func (l *Layer) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelLocked()
	l.state = Paused
}

// Resume pauses the layer and schedules c to be applied once no other
// Resume arrives for the settle delay. The surface is then resized to
// the canvas, the engine gets the canvas viewport mapping and a Reset,
// and the layer runs again unless the canvas is empty.
func (l *Layer) Resume(c Canvas) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelLocked()
	l.state = Paused
	gen := l.gen
	l.timer = l.afterFunc(l.settle, func() { l.apply(gen, c) })
}

func (l *Layer) cancelLocked() {
	l.gen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// apply runs on the settle timer. Superseded generations are ignored
// because Stop does not wait for a callback already running.
func (l *Layer) apply(gen uint64, c Canvas) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return
	}
	l.timer = nil
	l.canvas = c
	l.err = l.fitLocked(c)
	if l.err != nil {
		windgl.Logger().Warn("layer: settle failed", "err", l.err)
		return
	}
	if c.Empty() || !l.engine.Ready() {
		windgl.Logger().Debug("layer: canvas empty, staying paused", "rect", c.Rect)
		return
	}
	l.state = Running
	windgl.Logger().Debug("layer: resumed", "rect", c.Rect,
		"origin", c.Origin, "size", c.Size, "particles", l.engine.Particles())
}

func (l *Layer) fitLocked(c Canvas) error {
	if err := l.surface.Resize(c.Rect.Dx(), c.Rect.Dy()); err != nil {
		return fmt.Errorf("layer: resize: %w", err)
	}
	l.engine.SetViewportMapping(c.Origin, c.Size)
	if err := l.engine.Reset(); err != nil {
		return fmt.Errorf("layer: reset: %w", err)
	}
	return nil
}

// SetTimePosition sets the time position, clamped to [0, 1].
func (l *Layer) SetTimePosition(t float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timePos = clampUnit(t)
}

// TimePosition returns the time position of the next frame.
func (l *Layer) TimePosition() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timePos
}

// Animate makes every tick advance the time position by rate per
// second, wrapping at 1. Zero stops the animation.
func (l *Layer) Animate(rate float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rate = rate
}

// Step draws one frame if the layer is running and then advances the
// time position by elapsed. A paused layer neither draws nor advances.
func (l *Layer) Step(elapsed time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != Running {
		return nil
	}
	err := l.engine.Draw(l.timePos)
	if errors.Is(err, windgl.ErrResourceNotReady) {
		l.state = Paused
		return nil
	}
	if err != nil {
		return err
	}
	if l.onFrame != nil {
		l.onFrame(l.engine, l.timePos)
	}
	if l.rate != 0 {
		t := math.Mod(l.timePos+l.rate*elapsed.Seconds(), 1)
		if t < 0 {
			t++
		}
		l.timePos = t
	}
	return nil
}

// Run ticks the layer at the frame interval until ctx ends or a draw
// fails. It returns ctx.Err() on cancellation.
func (l *Layer) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			if err := l.Step(elapsed); err != nil {
				return err
			}
		}
	}
}

// Close cancels a pending resume and pauses the layer. The engine and
// surface stay owned by the caller.
func (l *Layer) Close() {
	l.Pause()
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
