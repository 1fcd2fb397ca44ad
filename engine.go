package windgl

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/prajeeshag/windgl/field"
	"github.com/prajeeshag/windgl/internal/shaders"
	"github.com/prajeeshag/windgl/ramp"
	"github.com/prajeeshag/windgl/render"
)

// Vec2 is a point or extent in normalized field coordinates.
type Vec2 struct {
	X, Y float64
}

// Engine is a particle flow visualization bound to one surface.
//
// An Engine is not safe for concurrent use: the host serializes calls,
// normally from its animation loop.
type Engine interface {
	// Reset reallocates the particle state and screen accumulator for
	// the current surface size and density. A zero-area surface leaves
	// the engine not ready without error.
	Reset() error

	// SetViewportMapping sets the visible part of the field as a
	// fraction of its extent. It takes effect on the next Draw.
	SetViewportMapping(origin, size Vec2)

	// ViewportMapping returns the current mapping.
	ViewportMapping() (origin, size Vec2)

	// Draw renders one frame at timeFraction in [0, 1) of the field's
	// time span, then advances the particles.
	Draw(timeFraction float64) error

	// Ready reports whether Draw can run.
	Ready() bool

	Mode() Mode
	Params() Params
	SetFadeOpacity(v float64)
	SetSpeedFactor(v float64)
	SetDropRate(v float64)
	SetSpeedColorRange(lo, hi float64)

	// SetDensity takes effect on the next Reset.
	SetDensity(v float64)

	// Particles returns the number of simulated particles. Ribbons
	// count once regardless of tail length.
	Particles() int

	// FrameIndex and BlendFactor report the frame pair selection of
	// the last Draw.
	FrameIndex() int
	BlendFactor() float64

	// Snapshot reads the particle state and accumulator back.
	Snapshot() (*Snapshot, error)

	// Close releases every device resource the engine created. The
	// surface and its device stay with the caller.
	Close() error
}

// slot is a texture together with the framebuffer rendering into it.
type slot struct {
	tex render.Texture
	fb  render.Framebuffer
}

// simulation is the variant specific part of an engine.
type simulation interface {
	mode() Mode
	compile(dev render.Device) error
	alloc(e *engine, w, h int) error
	release(dev render.Device)
	destroy()
	particles() int
	draw(e *engine, target render.Framebuffer) error
	step(e *engine) error
	state() (pos, age *PingPong[slot])
}

type engine struct {
	surface render.Surface
	dev     render.Device
	store   *field.Store
	sim     simulation

	params       Params
	origin, size Vec2
	rng          *rand.Rand

	rampTex render.Texture
	quad    render.Buffer
	screen  *render.Program

	// Allocated by Reset.
	accum *PingPong[slot]
	ready bool

	wind       render.Texture
	frameIndex int
	blend      float64
	drawn      bool
	closed     bool
}

var _ Engine = (*engine)(nil)

// New creates an engine drawing f into surface and calls Reset.
//
// Programs are compiled here; a ShaderCompileError or ProgramLinkError
// from render is fatal. The field frame textures and the color ramp
// are uploaded once and live until Close.
func New(surface render.Surface, f *field.Field, opts ...Option) (Engine, error) {
	if surface == nil || surface.Device() == nil {
		return nil, errors.New("windgl: nil surface")
	}
	if f == nil {
		return nil, errors.New("windgl: nil field")
	}
	o := options{mode: ModePoint, size: Vec2{1, 1}}
	for _, opt := range opts {
		opt(&o)
	}
	p := o.params()
	if err := p.Validate(o.mode); err != nil {
		return nil, err
	}

	var sim simulation
	switch o.mode {
	case ModePoint:
		sim = &pointSim{}
	case ModeRibbon:
		sim = &ribbonSim{}
	default:
		return nil, fmt.Errorf("%w: unknown mode %v", ErrInvalidParams, o.mode)
	}

	seed := o.seed
	if !o.seeded {
		seed = rand.Uint64()
	}
	e := &engine{
		surface: surface,
		dev:     surface.Device(),
		store:   field.NewStore(f),
		sim:     sim,
		params:  p,
		origin:  o.origin,
		size:    o.size,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	if err := e.init(o.ramp); err != nil {
		_ = e.Close()
		return nil, err
	}
	if err := e.Reset(); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func (e *engine) init(r *ramp.Ramp) error {
	if err := e.store.Upload(e.dev); err != nil {
		return err
	}
	if r == nil {
		r = ramp.Default()
		if e.sim.mode() == ModeRibbon {
			r = ramp.Ribbon()
		}
	}
	// Nearest filtering keeps the 16 speed buckets apart.
	tex, err := e.dev.CreateTexture(render.TextureDescriptor{
		Label:  "ramp",
		Width:  ramp.Side,
		Height: ramp.Side,
		Filter: render.FilterNearest,
	}, r.Texture())
	if err != nil {
		return fmt.Errorf("windgl: ramp texture: %w", err)
	}
	e.rampTex = tex

	quad, err := e.dev.CreateBuffer(render.BufferDescriptor{Label: "quad", Data: shaders.QuadVertices})
	if err != nil {
		return fmt.Errorf("windgl: quad buffer: %w", err)
	}
	e.quad = quad

	if e.screen, err = shaders.Compile(e.dev, shaders.Screen); err != nil {
		return err
	}
	return e.sim.compile(e.dev)
}

func (e *engine) Reset() error {
	if e.closed {
		return ErrClosed
	}
	e.release()

	w, h := e.surface.Size()
	if w <= 0 || h <= 0 || e.surface.Framebuffer() == nil {
		slogger().Debug("windgl: reset on empty surface", "width", w, "height", h)
		return nil
	}
	a, err := newSlot(e.dev, "screen-0", w, h, nil)
	if err != nil {
		return err
	}
	b, err := newSlot(e.dev, "screen-1", w, h, nil)
	if err != nil {
		destroySlot(e.dev, a)
		return err
	}
	e.accum = NewPingPong(a, b)

	if err := e.sim.alloc(e, w, h); err != nil {
		e.release()
		return err
	}
	e.ready = true
	e.drawn = false
	slogger().Debug("windgl: reset",
		"mode", e.sim.mode(), "width", w, "height", h, "particles", e.sim.particles())
	return nil
}

// release destroys everything Reset allocates. It is safe on a fresh
// engine.
func (e *engine) release() {
	e.ready = false
	e.sim.release(e.dev)
	if e.accum != nil {
		for _, s := range e.accum.Slots() {
			destroySlot(e.dev, s)
		}
		e.accum = nil
	}
}

func (e *engine) SetViewportMapping(origin, size Vec2) {
	e.origin, e.size = origin, size
}

func (e *engine) ViewportMapping() (origin, size Vec2) { return e.origin, e.size }

func (e *engine) Ready() bool { return e.ready && !e.closed }

func (e *engine) Mode() Mode { return e.sim.mode() }

func (e *engine) Params() Params { return e.params }

func (e *engine) SetFadeOpacity(v float64) { e.params.FadeOpacity = clamp(v, 0, 1) }

func (e *engine) SetSpeedFactor(v float64) { e.params.SpeedFactor = v }

func (e *engine) SetDropRate(v float64) { e.params.DropRate = clamp(v, 0, 1) }

func (e *engine) SetSpeedColorRange(lo, hi float64) {
	if hi < lo {
		lo, hi = hi, lo
	}
	e.params.SpeedColorMin, e.params.SpeedColorMax = lo, hi
}

func (e *engine) SetDensity(v float64) { e.params.Density = clamp(v, 0, 1) }

func (e *engine) Particles() int { return e.sim.particles() }

func (e *engine) FrameIndex() int { return e.frameIndex }

func (e *engine) BlendFactor() float64 { return e.blend }

func (e *engine) Draw(timeFraction float64) error {
	if e.closed {
		return ErrClosed
	}
	out := e.surface.Framebuffer()
	if !e.ready || out == nil {
		return ErrResourceNotReady
	}

	idx, blend := SelectFrame(timeFraction, e.store.TimestepCount())
	wind, err := e.store.Texture(idx)
	if err != nil {
		return fmt.Errorf("windgl: draw: %w", err)
	}
	changed := !e.drawn || blend != e.blend
	e.wind, e.frameIndex, e.blend = wind, idx, blend

	fade := e.params.FadeOpacity
	if e.sim.mode() == ModeRibbon && changed {
		fade *= 0.99
	}

	// Fade the previous frame into a cleared slot, then add particles.
	dst := e.accum.Write()
	if err := e.dev.Clear(dst.fb, render.Transparent); err != nil {
		return err
	}
	if err := e.drawScreen("screen/fade", dst.fb, e.accum.Read().tex, fade, render.BlendNone); err != nil {
		return err
	}
	if err := e.sim.draw(e, dst.fb); err != nil {
		return err
	}

	// Present over whatever the host shows below the surface.
	if err := e.dev.Clear(out, render.Transparent); err != nil {
		return err
	}
	if err := e.drawScreen("screen/present", out, dst.tex, 1, render.BlendAlpha); err != nil {
		return err
	}
	e.accum.Swap()

	if err := e.sim.step(e); err != nil {
		return err
	}
	e.drawn = true
	return nil
}

func (e *engine) drawScreen(label string, target render.Framebuffer, src render.Texture, opacity float64, blend render.Blend) error {
	b := binder{prog: e.screen}
	b.uniform("u_opacity", float32(opacity))
	b.texture("u_screen", src)
	if b.err != nil {
		return b.err
	}
	return e.dev.Draw(e.quadCommand(label, e.screen, target, blend))
}

func (e *engine) quadCommand(label string, p *render.Program, target render.Framebuffer, blend render.Blend) *render.DrawCommand {
	return &render.DrawCommand{
		Label:       label,
		Program:     p,
		Target:      target,
		Primitive:   render.Triangles,
		Blend:       blend,
		Attributes:  []render.AttributeBinding{{Name: "a_pos", Buffer: e.quad}},
		VertexCount: len(shaders.QuadVertices) / 2,
	}
}

// bindWind sets the uniforms and texture every field lookup reads.
func (e *engine) bindWind(b *binder) {
	ra, rb := e.store.Field().Ranges()
	b.uniform("u_wind_min", float32(ra.Min), float32(rb.Min))
	b.uniform("u_wind_max", float32(ra.Max), float32(rb.Max))
	b.uniform("u_origin", float32(e.origin.X), float32(e.origin.Y))
	b.uniform("u_size", float32(e.size.X), float32(e.size.Y))
	b.uniform("u_time_fac", float32(e.blend))
	b.texture("u_wind", e.wind)
}

func (e *engine) randSeed() float32 { return float32(e.rng.Float64()) }

func (e *engine) Close() error {
	if e.closed {
		return nil
	}
	e.release()
	e.sim.destroy()
	if e.screen != nil {
		e.screen.Destroy()
		e.screen = nil
	}
	if e.quad != nil {
		e.dev.DestroyBuffer(e.quad)
		e.quad = nil
	}
	if e.rampTex != nil {
		e.dev.DestroyTexture(e.rampTex)
		e.rampTex = nil
	}
	e.store.Release()
	e.closed = true
	return nil
}

// binder sets uniforms and textures on one program, keeping the first
// error.
type binder struct {
	prog *render.Program
	err  error
}

func (b *binder) uniform(name string, v ...float32) {
	if b.err == nil {
		b.err = b.prog.SetUniform(name, v...)
	}
}

func (b *binder) texture(name string, t render.Texture) {
	if b.err == nil {
		_, b.err = b.prog.BindTexture(name, t)
	}
}

func newSlot(dev render.Device, label string, w, h int, pix []byte) (slot, error) {
	tex, err := dev.CreateTexture(render.TextureDescriptor{
		Label:  label,
		Width:  w,
		Height: h,
		Filter: render.FilterNearest,
	}, pix)
	if err != nil {
		return slot{}, fmt.Errorf("windgl: %s: %w", label, err)
	}
	fb, err := dev.CreateFramebuffer(tex)
	if err != nil {
		dev.DestroyTexture(tex)
		return slot{}, fmt.Errorf("windgl: %s: %w", label, err)
	}
	return slot{tex: tex, fb: fb}, nil
}

func destroySlot(dev render.Device, s slot) {
	if s.fb != nil {
		dev.DestroyFramebuffer(s.fb)
	}
	if s.tex != nil {
		dev.DestroyTexture(s.tex)
	}
}

// newSlotPair creates a ping-pong pair both initialized with pix.
func newSlotPair(dev render.Device, label string, w, h int, pix []byte) (*PingPong[slot], error) {
	a, err := newSlot(dev, label+"-0", w, h, pix)
	if err != nil {
		return nil, err
	}
	b, err := newSlot(dev, label+"-1", w, h, pix)
	if err != nil {
		destroySlot(dev, a)
		return nil, err
	}
	return NewPingPong(a, b), nil
}

func destroyPair(dev render.Device, p *PingPong[slot]) {
	if p == nil {
		return
	}
	for _, s := range p.Slots() {
		destroySlot(dev, s)
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
