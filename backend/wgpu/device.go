// Copyright 2026 The windgl Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/prajeeshag/windgl/render"
)

// ErrNoHAL is returned when a provider does not expose HAL objects.
var ErrNoHAL = errors.New("wgpu: provider does not expose a HAL device")

// Counts reports live resources of a device.
type Counts struct {
	Textures     int
	Buffers      int
	Framebuffers int
	Pipelines    int
}

// retired holds per-submission objects until the queue completes them.
type retired struct {
	index   uint64
	release func()
}

// Device is a render.Device backed by a HAL device and queue. Like the
// queue it wraps, it expects calls from one goroutine.
type Device struct {
	device hal.Device
	queue  hal.Queue
	caps   render.Capabilities

	// release destroys what Open created. Nil for shared devices.
	release func()

	pending []retired
	live    Counts
	closed  bool
}

var _ render.Device = (*Device)(nil)

// NewFromHAL wraps an open HAL device. limits are the limits the device
// was opened with. The device is not destroyed by Close.
func NewFromHAL(device hal.Device, queue hal.Queue, name string, limits gputypes.Limits) *Device {
	units := int(min(limits.MaxSampledTexturesPerShaderStage, limits.MaxSamplersPerShaderStage))
	if units <= 0 {
		units = render.DefaultTextureUnits
	}
	d := &Device{
		device: device,
		queue:  queue,
		caps: render.Capabilities{
			Name:            "wgpu (" + name + ")",
			MaxTextureSize:  int(limits.MaxTextureDimension2D),
			MaxTextureUnits: units,
			ExecutesWGSL:    true,
		},
	}
	slogger().Debug("wgpu device created", "adapter", name,
		"maxTextureSize", d.caps.MaxTextureSize, "textureUnits", units)
	return d
}

// NewFromProvider shares the HAL device of a host application. The
// provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue, as gogpu applications do.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
	}
	return NewFromHAL(device, queue, provider.AdapterInfo().Name, gputypes.DefaultLimits()), nil
}

// Capabilities reports the device limits.
func (d *Device) Capabilities() render.Capabilities { return d.caps }

// Live returns the number of live resources.
func (d *Device) Live() Counts { return d.live }

// CreateTexture creates an RGBA8 texture with its view and sampler.
// Nil pixels upload zeros so new textures never hold stale memory.
func (d *Device) CreateTexture(desc render.TextureDescriptor, pixels []byte) (render.Texture, error) {
	if d.closed {
		return nil, render.ErrDestroyed
	}
	if err := desc.Check(d.caps, pixels); err != nil {
		return nil, err
	}
	t := &texture{dev: d, w: desc.Width, h: desc.Height, filter: desc.Filter, label: desc.Label}

	raw, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          t.extent(),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        textureFormat,
		Usage:         textureUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture %q: %w", desc.Label, err)
	}
	t.raw = raw

	t.view, err = d.device.CreateTextureView(raw, &hal.TextureViewDescriptor{
		Label:           desc.Label + "-view",
		Format:          textureFormat,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(raw)
		return nil, fmt.Errorf("wgpu: create view of %q: %w", desc.Label, err)
	}

	mode := filterMode(desc.Filter)
	t.sampler, err = d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label + "-sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    mode,
		MinFilter:    mode,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
	})
	if err != nil {
		d.device.DestroyTextureView(t.view)
		d.device.DestroyTexture(raw)
		return nil, fmt.Errorf("wgpu: create sampler of %q: %w", desc.Label, err)
	}

	if pixels == nil {
		pixels = make([]byte, desc.Width*desc.Height*4)
	}
	if err := d.upload(t, pixels); err != nil {
		d.destroyTexture(t)
		return nil, err
	}
	d.live.Textures++
	return t, nil
}

// upload writes tightly packed rows into t. The queue leaves the
// texture ready for sampling.
func (d *Device) upload(t *texture, pixels []byte) error {
	size := t.extent()
	err := d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.raw, Aspect: gputypes.TextureAspectAll},
		pixels,
		&hal.ImageDataLayout{BytesPerRow: uint32(t.w * 4), RowsPerImage: uint32(t.h)},
		&size,
	)
	if err != nil {
		return fmt.Errorf("wgpu: upload %q: %w", t.label, err)
	}
	t.state = gputypes.TextureUsageTextureBinding
	return nil
}

// DestroyTexture releases a texture. Destroying twice is a no-op.
func (d *Device) DestroyTexture(rt render.Texture) {
	t, ok := rt.(*texture)
	if !ok || t.dev != d || t.destroyed {
		return
	}
	d.retire(func() { d.destroyTexture(t) })
	t.destroyed = true
	d.live.Textures--
}

func (d *Device) destroyTexture(t *texture) {
	d.device.DestroySampler(t.sampler)
	d.device.DestroyTextureView(t.view)
	d.device.DestroyTexture(t.raw)
}

// CreateBuffer uploads desc.Data into a vertex buffer.
func (d *Device) CreateBuffer(desc render.BufferDescriptor) (render.Buffer, error) {
	if d.closed {
		return nil, render.ErrDestroyed
	}
	data := floatBytes(desc.Data)
	// Zero-sized buffers are invalid; an empty buffer still gets one word.
	size := max(uint64(len(data)), 4)
	raw, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create buffer %q: %w", desc.Label, err)
	}
	if len(data) > 0 {
		if err := d.queue.WriteBuffer(raw, 0, data); err != nil {
			d.device.DestroyBuffer(raw)
			return nil, fmt.Errorf("wgpu: upload %q: %w", desc.Label, err)
		}
	}
	d.live.Buffers++
	return &buffer{dev: d, label: desc.Label, n: len(desc.Data), raw: raw}, nil
}

// DestroyBuffer releases a buffer.
func (d *Device) DestroyBuffer(rb render.Buffer) {
	b, ok := rb.(*buffer)
	if !ok || b.dev != d || b.destroyed {
		return
	}
	raw := b.raw
	d.retire(func() { d.device.DestroyBuffer(raw) })
	b.destroyed = true
	d.live.Buffers--
}

// CreateFramebuffer makes a texture of this device renderable. Every
// texture is created with render attachment usage, so this only checks
// ownership.
func (d *Device) CreateFramebuffer(rt render.Texture) (render.Framebuffer, error) {
	t, err := d.texture(rt)
	if err != nil {
		return nil, err
	}
	d.live.Framebuffers++
	return &framebuffer{dev: d, tex: t}, nil
}

// DestroyFramebuffer releases a framebuffer. Its texture stays alive.
func (d *Device) DestroyFramebuffer(rf render.Framebuffer) {
	f, ok := rf.(*framebuffer)
	if !ok || f.dev != d || f.destroyed {
		return
	}
	f.destroyed = true
	d.live.Framebuffers--
}

// Clear fills the framebuffer with c in a render pass of its own.
func (d *Device) Clear(rf render.Framebuffer, c render.Color) error {
	f, err := d.framebuffer(rf)
	if err != nil {
		return err
	}
	return d.encode("clear "+f.tex.label, func(enc hal.CommandEncoder) error {
		if b, ok := f.tex.barrier(gputypes.TextureUsageRenderAttachment); ok {
			enc.TransitionTextures([]hal.TextureBarrier{b})
		}
		pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "clear " + f.tex.label,
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       f.tex.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: clearColor(c),
			}},
		})
		pass.End()
		return nil
	}, nil)
}

// ReadPixels copies the framebuffer into a staging buffer and waits for
// the device to finish.
func (d *Device) ReadPixels(rf render.Framebuffer) ([]byte, error) {
	f, err := d.framebuffer(rf)
	if err != nil {
		return nil, err
	}
	t := f.tex
	w, h := uint32(t.w), uint32(t.h)

	// Copy rows must be aligned to 256 bytes.
	const copyPitchAlignment = 256
	bytesPerRow := w * 4
	pitch := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	size := uint64(pitch) * uint64(h)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback " + t.label,
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	err = d.encode("readback "+t.label, func(enc hal.CommandEncoder) error {
		if b, ok := t.barrier(gputypes.TextureUsageCopySrc); ok {
			enc.TransitionTextures([]hal.TextureBarrier{b})
		}
		enc.CopyTextureToBuffer(t.raw, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{BytesPerRow: pitch, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: t.raw, Aspect: gputypes.TextureAspectAll},
			Size:         t.extent(),
		}})
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	if err := d.sync(); err != nil {
		return nil, err
	}

	m, err := d.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("wgpu: map staging buffer: %w", err)
	}
	if !m.IsCoherent {
		slogger().Debug("wgpu readback from non-coherent memory", "texture", t.label)
	}
	src := unsafeBytes(m.Ptr, size)
	out := make([]byte, int(bytesPerRow)*int(h))
	for y := range int(h) {
		copy(out[y*int(bytesPerRow):(y+1)*int(bytesPerRow)], src[y*int(pitch):])
	}
	if err := d.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("wgpu: unmap staging buffer: %w", err)
	}
	return out, nil
}

// Close waits for outstanding work and releases device-wide resources.
// A device from Open is destroyed with its instance.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	err := d.sync()
	d.closed = true
	if d.live != (Counts{}) {
		slogger().Warn("wgpu device closed with live resources", "live", d.live)
	}
	if d.release != nil {
		d.release()
		d.release = nil
	}
	return err
}

// encode records one command buffer with record and submits it. done
// runs once the submission completes.
func (d *Device) encode(label string, record func(hal.CommandEncoder) error, done func()) error {
	d.reclaim(d.queue.PollCompleted())

	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return fmt.Errorf("wgpu: begin %s: %w", label, err)
	}
	if err := record(enc); err != nil {
		enc.DiscardEncoding()
		return err
	}
	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end %s: %w", label, err)
	}
	index, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		d.device.FreeCommandBuffer(cmd)
		return fmt.Errorf("wgpu: submit %s: %w", label, err)
	}
	d.pending = append(d.pending, retired{index: index, release: func() {
		d.device.FreeCommandBuffer(cmd)
		if done != nil {
			done()
		}
	}})
	return nil
}

// retire releases obj after everything submitted so far completes.
func (d *Device) retire(release func()) {
	if len(d.pending) == 0 {
		release()
		return
	}
	d.pending = append(d.pending, retired{index: d.pending[len(d.pending)-1].index, release: release})
}

// reclaim releases the objects of submissions up to index.
func (d *Device) reclaim(index uint64) {
	n := 0
	for _, r := range d.pending {
		if r.index > index {
			break
		}
		r.release()
		n++
	}
	d.pending = d.pending[n:]
}

// sync waits for the device to go idle and releases everything pending.
func (d *Device) sync() error {
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("wgpu: wait idle: %w", err)
	}
	for _, r := range d.pending {
		r.release()
	}
	d.pending = d.pending[:0]
	return nil
}

func (d *Device) texture(rt render.Texture) (*texture, error) {
	if rt == nil {
		return nil, fmt.Errorf("wgpu: nil texture")
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

func (d *Device) buffer(rb render.Buffer) (*buffer, error) {
	b, ok := rb.(*buffer)
	if !ok || b.dev != d {
		return nil, fmt.Errorf("%w: buffer %q", render.ErrForeignResource, rb.Label())
	}
	if b.destroyed {
		return nil, fmt.Errorf("%w: buffer %q", render.ErrDestroyed, b.label)
	}
	return b, nil
}

func (d *Device) framebuffer(rf render.Framebuffer) (*framebuffer, error) {
	if d.closed {
		return nil, render.ErrDestroyed
	}
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

func floatBytes(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
	}
	return out
}

// unsafeBytes views a mapped range as a byte slice.
func unsafeBytes(p unsafe.Pointer, n uint64) []byte {
	return unsafe.Slice((*byte)(p), n)
}
