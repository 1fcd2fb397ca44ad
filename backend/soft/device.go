// Package soft is a CPU implementation of render.Device.
//
// It executes each program's Kernel instead of WGSL and follows the same
// rasterization rules a GPU does: pixel-center sampling, the top-left
// fill rule for triangles, 1px points and lines, clamp-to-edge texture
// addressing and round-to-nearest unorm8 output. Results are
// deterministic, which makes the device the reference for engine tests.
package soft

import (
	"fmt"
	"sync"

	"github.com/prajeeshag/windgl/backend"
	"github.com/prajeeshag/windgl/internal/parallel"
	"github.com/prajeeshag/windgl/render"
)

// Default limits.
const (
	DefaultMaxTextureSize  = 8192
	DefaultMaxTextureUnits = 16
)

func init() {
	backend.Register(backend.Soft, func() (render.Device, error) {
		return New(), nil
	})
	backend.RegisterLogger(backend.Soft, SetLogger)
}

// Option configures a Device.
type Option func(*options)

type options struct {
	maxTextureSize int
	workers        int
}

// WithMaxTextureSize lowers or raises the largest texture dimension.
func WithMaxTextureSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTextureSize = n
		}
	}
}

// WithWorkers sets the number of rasterizer goroutines. Zero uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// Counts reports live resources of a device.
type Counts struct {
	Textures     int
	Buffers      int
	Framebuffers int
	Pipelines    int
}

// Device is the CPU device. Like a GPU queue it expects calls from one
// goroutine; draws fan out internally.
type Device struct {
	caps   render.Capabilities
	pool   *parallel.WorkerPool
	mu     sync.Mutex
	live   Counts
	closed bool
}

var _ render.Device = (*Device)(nil)

// New creates a CPU device.
func New(opts ...Option) *Device {
	o := options{maxTextureSize: DefaultMaxTextureSize}
	for _, opt := range opts {
		opt(&o)
	}
	d := &Device{
		caps: render.Capabilities{
			Name:            "soft",
			MaxTextureSize:  o.maxTextureSize,
			MaxTextureUnits: DefaultMaxTextureUnits,
		},
		pool: parallel.NewWorkerPool(o.workers),
	}
	slogger().Debug("soft device created", "workers", d.pool.Workers(), "maxTextureSize", o.maxTextureSize)
	return d
}

// Capabilities reports the device limits.
func (d *Device) Capabilities() render.Capabilities { return d.caps }

// Live returns the number of live resources.
func (d *Device) Live() Counts {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

func (d *Device) count(f func(*Counts)) {
	d.mu.Lock()
	f(&d.live)
	d.mu.Unlock()
}

// CreateTexture creates an RGBA8 texture.
func (d *Device) CreateTexture(desc render.TextureDescriptor, pixels []byte) (render.Texture, error) {
	if d.closed {
		return nil, render.ErrDestroyed
	}
	if err := desc.Check(d.caps, pixels); err != nil {
		return nil, err
	}
	t := &texture{
		dev:    d,
		w:      desc.Width,
		h:      desc.Height,
		filter: desc.Filter,
		label:  desc.Label,
		pix:    make([]byte, desc.Width*desc.Height*4),
	}
	copy(t.pix, pixels)
	d.count(func(c *Counts) { c.Textures++ })
	return t, nil
}

// DestroyTexture releases a texture. Destroying twice is a no-op.
func (d *Device) DestroyTexture(rt render.Texture) {
	t, ok := rt.(*texture)
	if !ok || t.dev != d || t.destroyed {
		return
	}
	t.destroyed = true
	t.pix = nil
	d.count(func(c *Counts) { c.Textures-- })
}

// CreateBuffer copies desc.Data into a vertex buffer.
func (d *Device) CreateBuffer(desc render.BufferDescriptor) (render.Buffer, error) {
	if d.closed {
		return nil, render.ErrDestroyed
	}
	b := &buffer{dev: d, label: desc.Label, data: append([]float32(nil), desc.Data...)}
	d.count(func(c *Counts) { c.Buffers++ })
	return b, nil
}

// DestroyBuffer releases a buffer.
func (d *Device) DestroyBuffer(rb render.Buffer) {
	b, ok := rb.(*buffer)
	if !ok || b.dev != d || b.destroyed {
		return
	}
	b.destroyed = true
	b.data = nil
	d.count(func(c *Counts) { c.Buffers-- })
}

// CreateFramebuffer makes a texture of this device renderable.
func (d *Device) CreateFramebuffer(rt render.Texture) (render.Framebuffer, error) {
	t, err := d.texture(rt)
	if err != nil {
		return nil, err
	}
	d.count(func(c *Counts) { c.Framebuffers++ })
	return &framebuffer{dev: d, tex: t}, nil
}

// DestroyFramebuffer releases a framebuffer. Its texture stays alive.
func (d *Device) DestroyFramebuffer(rf render.Framebuffer) {
	f, ok := rf.(*framebuffer)
	if !ok || f.dev != d || f.destroyed {
		return
	}
	f.destroyed = true
	d.count(func(c *Counts) { c.Framebuffers-- })
}

// CreatePipeline checks that the program can run here.
func (d *Device) CreatePipeline(p *render.Program) (render.Pipeline, error) {
	if d.closed {
		return nil, render.ErrDestroyed
	}
	if p.Kernel() == nil {
		return nil, fmt.Errorf("%w: %q", render.ErrNoKernel, p.Label())
	}
	for _, a := range p.Attributes() {
		if a.Location >= render.MaxAttributes {
			return nil, fmt.Errorf("soft: %q: attribute %s at @location(%d), limit %d",
				p.Label(), a.Name, a.Location, render.MaxAttributes)
		}
	}
	if p.Varyings() > render.MaxVaryings {
		return nil, fmt.Errorf("soft: %q: %d varying components, limit %d", p.Label(), p.Varyings(), render.MaxVaryings)
	}
	d.count(func(c *Counts) { c.Pipelines++ })
	return &pipeline{dev: d, label: p.Label()}, nil
}

// DestroyPipeline releases a pipeline.
func (d *Device) DestroyPipeline(rp render.Pipeline) {
	p, ok := rp.(*pipeline)
	if !ok || p.dev != d || p.destroyed {
		return
	}
	p.destroyed = true
	d.count(func(c *Counts) { c.Pipelines-- })
}

// Clear fills the framebuffer with c.
func (d *Device) Clear(rf render.Framebuffer, c render.Color) error {
	f, err := d.framebuffer(rf)
	if err != nil {
		return err
	}
	px := quantize(c)
	pix := f.tex.pix
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:i+4], px[:])
	}
	return nil
}

// ReadPixels copies the framebuffer contents.
func (d *Device) ReadPixels(rf render.Framebuffer) ([]byte, error) {
	f, err := d.framebuffer(rf)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), f.tex.pix...), nil
}

// Close stops the rasterizer workers.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.pool.Close()
	if live := d.Live(); live != (Counts{}) {
		slogger().Warn("soft device closed with live resources", "live", live)
	}
	return nil
}

func (d *Device) texture(rt render.Texture) (*texture, error) {
	if rt == nil {
		return nil, fmt.Errorf("soft: nil texture")
	}
	t, ok := rt.(*texture)
	if !ok || t.dev != d {
		return nil, fmt.Errorf("%w: texture %q", render.ErrForeignResource, rt.Label())
	}
	if t.destroyed {
		return nil, fmt.Errorf("%w: texture %q", render.ErrDestroyed, t.label)
	}
	return t, nil
}

func (d *Device) framebuffer(rf render.Framebuffer) (*framebuffer, error) {
	if rf == nil {
		return nil, render.ErrNoTarget
	}
	f, ok := rf.(*framebuffer)
	if !ok || f.dev != d {
		return nil, fmt.Errorf("%w: framebuffer", render.ErrForeignResource)
	}
	if f.destroyed || f.tex.destroyed {
		return nil, fmt.Errorf("%w: framebuffer of %q", render.ErrDestroyed, f.tex.label)
	}
	return f, nil
}

// NewSurface creates an offscreen surface on the device.
func NewSurface(d *Device, w, h int) (*render.OffscreenSurface, error) {
	return render.NewOffscreenSurface(d, w, h)
}
