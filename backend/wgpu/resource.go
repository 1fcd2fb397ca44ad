package wgpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/prajeeshag/windgl/render"
)

// textureFormat is the only color format windgl uses.
const textureFormat = gputypes.TextureFormatRGBA8Unorm

// textureUsage lets every texture be uploaded, sampled, rendered into
// and read back, since the engine ping-pongs between those roles.
const textureUsage = gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageRenderAttachment

type texture struct {
	dev     *Device
	w, h    int
	filter  render.Filter
	label   string
	raw     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler

	// state is the usage the texture was last transitioned to.
	state     gputypes.TextureUsage
	destroyed bool
}

func (t *texture) Width() int            { return t.w }
func (t *texture) Height() int           { return t.h }
func (t *texture) Filter() render.Filter { return t.filter }
func (t *texture) Label() string         { return t.label }

func (t *texture) extent() hal.Extent3D {
	return hal.Extent3D{Width: uint32(t.w), Height: uint32(t.h), DepthOrArrayLayers: 1}
}

// barrier returns the transition to usage, or false when the texture is
// already there.
func (t *texture) barrier(usage gputypes.TextureUsage) (hal.TextureBarrier, bool) {
	if t.state == usage {
		return hal.TextureBarrier{}, false
	}
	b := hal.TextureBarrier{
		Texture: t.raw,
		Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll, MipLevelCount: 1, ArrayLayerCount: 1},
		Usage:   hal.TextureUsageTransition{OldUsage: t.state, NewUsage: usage},
	}
	t.state = usage
	return b, true
}

type buffer struct {
	dev       *Device
	label     string
	n         int
	raw       hal.Buffer
	destroyed bool
}

func (b *buffer) Len() int      { return b.n }
func (b *buffer) Label() string { return b.label }

type framebuffer struct {
	dev       *Device
	tex       *texture
	destroyed bool
}

func (f *framebuffer) Texture() render.Texture { return f.tex }

func filterMode(f render.Filter) gputypes.FilterMode {
	if f == render.FilterLinear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

// clearColor converts a straight-alpha color to the clear value of a
// render pass, clamped to the unorm range.
func clearColor(c render.Color) gputypes.Color {
	ch := func(v float32) float64 {
		if !(v > 0) {
			return 0
		}
		return float64(min(v, 1))
	}
	return gputypes.Color{R: ch(c.R), G: ch(c.G), B: ch(c.B), A: ch(c.A)}
}
