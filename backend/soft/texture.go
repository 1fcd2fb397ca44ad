package soft

import (
	"math"

	"github.com/prajeeshag/windgl/render"
)

type texture struct {
	dev       *Device
	w, h      int
	filter    render.Filter
	label     string
	pix       []byte
	destroyed bool
}

func (t *texture) Width() int            { return t.w }
func (t *texture) Height() int           { return t.h }
func (t *texture) Filter() render.Filter { return t.filter }
func (t *texture) Label() string         { return t.label }

// texel returns the texel at (x, y) clamped to the edge.
func (t *texture) texel(x, y int) render.Color {
	x = min(max(x, 0), t.w-1)
	y = min(max(y, 0), t.h-1)
	i := (y*t.w + x) * 4
	p := t.pix[i : i+4 : i+4]
	return render.Color{
		R: float32(p[0]) / 255,
		G: float32(p[1]) / 255,
		B: float32(p[2]) / 255,
		A: float32(p[3]) / 255,
	}
}

// sample reads the texture at normalized (u, v).
func (t *texture) sample(u, v float32) render.Color {
	if t.destroyed {
		return render.Transparent
	}
	x := u * float32(t.w)
	y := v * float32(t.h)
	if t.filter == render.FilterNearest {
		return t.texel(int(floor32(x)), int(floor32(y)))
	}

	x -= 0.5
	y -= 0.5
	x0, y0 := floor32(x), floor32(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	c00 := t.texel(ix, iy)
	c10 := t.texel(ix+1, iy)
	c01 := t.texel(ix, iy+1)
	c11 := t.texel(ix+1, iy+1)
	return render.Color{
		R: bilerp(c00.R, c10.R, c01.R, c11.R, fx, fy),
		G: bilerp(c00.G, c10.G, c01.G, c11.G, fx, fy),
		B: bilerp(c00.B, c10.B, c01.B, c11.B, fx, fy),
		A: bilerp(c00.A, c10.A, c01.A, c11.A, fx, fy),
	}
}

func bilerp(c00, c10, c01, c11, fx, fy float32) float32 {
	top := c00 + (c10-c00)*fx
	bottom := c01 + (c11-c01)*fx
	return top + (bottom-top)*fy
}

func floor32(v float32) float32 { return float32(math.Floor(float64(v))) }

// Sample implements render.TextureSampler for kernels.
func (d *Device) Sample(rt render.Texture, u, v float32) render.Color {
	t, ok := rt.(*texture)
	if !ok || t.dev != d {
		return render.Transparent
	}
	return t.sample(u, v)
}

type buffer struct {
	dev       *Device
	label     string
	data      []float32
	destroyed bool
}

func (b *buffer) Len() int      { return len(b.data) }
func (b *buffer) Label() string { return b.label }

type framebuffer struct {
	dev       *Device
	tex       *texture
	destroyed bool
}

func (f *framebuffer) Texture() render.Texture { return f.tex }

type pipeline struct {
	dev       *Device
	label     string
	destroyed bool
}

func (p *pipeline) Label() string { return p.label }

// unorm converts [0,1] to a byte with round-to-nearest. NaN maps to 0.
func unorm(v float32) byte {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}

func quantize(c render.Color) [4]byte {
	return [4]byte{unorm(c.R), unorm(c.G), unorm(c.B), unorm(c.A)}
}
