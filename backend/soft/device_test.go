package soft

import (
	"errors"
	"image"
	"testing"

	"github.com/prajeeshag/windgl/render"
)

const solidVertex = `
@vertex
fn vs_main(@location(0) a_pos: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(a_pos, 0.0, 1.0);
}
`

const solidFragment = `
struct Params {
    u_color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> params: Params;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return params.u_color;
}
`

type solidKernel struct{}

type solidShader struct{ c render.Color }

func (solidKernel) Prepare(env *render.Env) render.Shader {
	v := env.Program().UniformValue("u_color")
	return solidShader{c: render.Color{R: v[0], G: v[1], B: v[2], A: v[3]}}
}

func (s solidShader) Vertex(in *render.VertexInput, out *render.VertexOutput) {
	out.Position = [4]float32{in.Attributes[0][0], in.Attributes[0][1], 0, 1}
}

func (s solidShader) Fragment(*render.FragmentInput) (render.Color, bool) { return s.c, true }

const texturedVertex = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) a_pos: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(a_pos, 0.0, 1.0);
    out.uv = vec2<f32>(a_pos.x + 1.0, 1.0 - a_pos.y) * 0.5;
    return out;
}
`

const texturedFragment = `
@group(0) @binding(0) var u_tex: texture_2d<f32>;
@group(0) @binding(1) var u_tex_sampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(u_tex, u_tex_sampler, uv);
}
`

type texturedKernel struct{}

type texturedShader struct{ tex render.Sampled }

func (texturedKernel) Prepare(env *render.Env) render.Shader {
	return texturedShader{tex: env.Texture("u_tex")}
}

func (s texturedShader) Vertex(in *render.VertexInput, out *render.VertexOutput) {
	x, y := in.Attributes[0][0], in.Attributes[0][1]
	out.Position = [4]float32{x, y, 0, 1}
	out.Varyings[0] = (x + 1) * 0.5
	out.Varyings[1] = (1 - y) * 0.5
}

func (s texturedShader) Fragment(in *render.FragmentInput) (render.Color, bool) {
	return s.tex.Sample(in.Varyings[0], in.Varyings[1]), true
}

var fullScreenQuad = []float32{-1, -1, 1, -1, -1, 1, -1, 1, 1, -1, 1, 1}

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	d := New(WithWorkers(3))
	t.Cleanup(func() { d.Close() })
	return d
}

func newTarget(t *testing.T, d *Device, w, h int) render.Framebuffer {
	t.Helper()
	tex, err := d.CreateTexture(render.TextureDescriptor{Label: "target", Width: w, Height: h}, nil)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	fb, err := d.CreateFramebuffer(tex)
	if err != nil {
		t.Fatalf("CreateFramebuffer: %v", err)
	}
	return fb
}

func newBuffer(t *testing.T, d *Device, data []float32) render.Buffer {
	t.Helper()
	b, err := d.CreateBuffer(render.BufferDescriptor{Data: data})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	return b
}

func solidProgram(t *testing.T, d *Device, c render.Color) *render.Program {
	t.Helper()
	p, err := render.CompileProgram(d, render.ProgramSource{
		Label: "solid", Vertex: solidVertex, Fragment: solidFragment, Kernel: solidKernel{},
	})
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	if err := p.SetUniform("u_color", c.R, c.G, c.B, c.A); err != nil {
		t.Fatalf("SetUniform: %v", err)
	}
	return p
}

func pixel(t *testing.T, d *Device, fb render.Framebuffer, x, y int) [4]byte {
	t.Helper()
	pix, err := d.ReadPixels(fb)
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	i := (y*fb.Texture().Width() + x) * 4
	return [4]byte{pix[i], pix[i+1], pix[i+2], pix[i+3]}
}

func TestFullScreenQuadCoversEveryPixelOnce(t *testing.T) {
	d := newTestDevice(t)
	fb := newTarget(t, d, 37, 23)
	p := solidProgram(t, d, render.Color{R: 1, A: 0.5})

	err := d.Draw(&render.DrawCommand{
		Program:     p,
		Target:      fb,
		Primitive:   render.Triangles,
		Blend:       render.BlendAlpha,
		Attributes:  []render.AttributeBinding{{Name: "a_pos", Buffer: newBuffer(t, d, fullScreenQuad)}},
		VertexCount: 6,
	})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}

	pix, _ := d.ReadPixels(fb)
	for i := 0; i < len(pix); i += 4 {
		// One blend of (1,0,0,0.5) over transparent: R=128, A=128.
		if pix[i] != 128 || pix[i+3] != 128 {
			t.Fatalf("pixel %d = %v, want R=128 A=128", i/4, pix[i:i+4])
		}
	}
}

func TestViewportLimitsDraw(t *testing.T) {
	d := newTestDevice(t)
	fb := newTarget(t, d, 8, 8)
	p := solidProgram(t, d, render.Color{G: 1, A: 1})

	err := d.Draw(&render.DrawCommand{
		Program:     p,
		Target:      fb,
		Viewport:    image.Rect(4, 4, 8, 8),
		Attributes:  []render.AttributeBinding{{Name: "a_pos", Buffer: newBuffer(t, d, fullScreenQuad)}},
		VertexCount: 6,
	})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if got := pixel(t, d, fb, 3, 3); got != ([4]byte{}) {
		t.Errorf("outside viewport = %v, want untouched", got)
	}
	if got := pixel(t, d, fb, 4, 4); got != ([4]byte{0, 255, 0, 255}) {
		t.Errorf("inside viewport = %v", got)
	}
}

func TestPointsAndLines(t *testing.T) {
	d := newTestDevice(t)
	p := solidProgram(t, d, render.Color{B: 1, A: 1})

	t.Run("points", func(t *testing.T) {
		fb := newTarget(t, d, 4, 4)
		// NDC (-0.75, 0.75) is the center of pixel (0, 0); (0.25, -0.25) of (2, 2).
		buf := newBuffer(t, d, []float32{-0.75, 0.75, 0.25, -0.25, 5, 5})
		err := d.Draw(&render.DrawCommand{
			Program: p, Target: fb, Primitive: render.Points,
			Attributes:  []render.AttributeBinding{{Name: "a_pos", Buffer: buf}},
			VertexCount: 3,
		})
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		lit := 0
		pix, _ := d.ReadPixels(fb)
		for i := 3; i < len(pix); i += 4 {
			if pix[i] != 0 {
				lit++
			}
		}
		if lit != 2 {
			t.Errorf("lit = %d, want 2", lit)
		}
		if pixel(t, d, fb, 0, 0)[2] != 255 || pixel(t, d, fb, 2, 2)[2] != 255 {
			t.Error("points not at expected pixels")
		}
	})

	t.Run("lines exclude last pixel", func(t *testing.T) {
		fb := newTarget(t, d, 4, 4)
		// Row 0 from pixel 0 to pixel 3: pixels 0..2 drawn.
		buf := newBuffer(t, d, []float32{-0.75, 0.75, 0.75, 0.75, 0, 0, 0, 0})
		err := d.Draw(&render.DrawCommand{
			Program: p, Target: fb, Primitive: render.Lines,
			Attributes:  []render.AttributeBinding{{Name: "a_pos", Buffer: buf}},
			VertexCount: 4,
		})
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		for x := range 4 {
			want := byte(255)
			if x == 3 {
				want = 0
			}
			if got := pixel(t, d, fb, x, 0)[3]; got != want {
				t.Errorf("pixel (%d,0) alpha = %d, want %d", x, got, want)
			}
		}
		pix, _ := d.ReadPixels(fb)
		for i := 4 * 4 * 1; i < len(pix); i += 4 {
			if pix[i+3] != 0 {
				t.Fatalf("degenerate segment drew pixel %d", i/4)
			}
		}
	})
}

func TestTextureSampling(t *testing.T) {
	d := newTestDevice(t)
	// 2x1: black, white.
	pixels := []byte{0, 0, 0, 255, 255, 255, 255, 255}

	for _, tc := range []struct {
		filter render.Filter
		want   [4]byte // at target pixel (1,0) of a 4x1 target, u = 0.375
	}{
		{render.FilterNearest, [4]byte{0, 0, 0, 255}},
		{render.FilterLinear, [4]byte{64, 64, 64, 255}},
	} {
		t.Run(tc.filter.String(), func(t *testing.T) {
			tex, err := d.CreateTexture(render.TextureDescriptor{Width: 2, Height: 1, Filter: tc.filter}, pixels)
			if err != nil {
				t.Fatalf("CreateTexture: %v", err)
			}
			p, err := render.CompileProgram(d, render.ProgramSource{
				Label: "textured", Vertex: texturedVertex, Fragment: texturedFragment, Kernel: texturedKernel{},
			})
			if err != nil {
				t.Fatalf("CompileProgram: %v", err)
			}
			if _, err := p.BindTexture("u_tex", tex); err != nil {
				t.Fatalf("BindTexture: %v", err)
			}
			fb := newTarget(t, d, 4, 1)
			err = d.Draw(&render.DrawCommand{
				Program: p, Target: fb,
				Attributes:  []render.AttributeBinding{{Name: "a_pos", Buffer: newBuffer(t, d, fullScreenQuad)}},
				VertexCount: 6,
			})
			if err != nil {
				t.Fatalf("Draw: %v", err)
			}
			if got := pixel(t, d, fb, 1, 0); got != tc.want {
				t.Errorf("pixel = %v, want %v", got, tc.want)
			}
			if got := pixel(t, d, fb, 3, 0); got != ([4]byte{255, 255, 255, 255}) {
				t.Errorf("edge pixel = %v, want clamp to white", got)
			}
		})
	}
}

func TestResourceLifetime(t *testing.T) {
	d := newTestDevice(t)
	other := newTestDevice(t)

	tex, _ := d.CreateTexture(render.TextureDescriptor{Width: 2, Height: 2}, nil)
	fb, _ := d.CreateFramebuffer(tex)
	buf := newBuffer(t, d, []float32{1, 2})
	if got := d.Live(); got != (Counts{Textures: 1, Buffers: 1, Framebuffers: 1}) {
		t.Fatalf("Live() = %+v", got)
	}

	if _, err := other.CreateFramebuffer(tex); !errors.Is(err, render.ErrForeignResource) {
		t.Errorf("foreign texture: err = %v", err)
	}
	if err := d.Clear(fb, render.Color{R: 1, A: 1}); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := pixel(t, d, fb, 1, 1); got != ([4]byte{255, 0, 0, 255}) {
		t.Errorf("cleared pixel = %v", got)
	}

	d.DestroyFramebuffer(fb)
	d.DestroyFramebuffer(fb)
	d.DestroyTexture(tex)
	d.DestroyBuffer(buf)
	if got := d.Live(); got != (Counts{}) {
		t.Errorf("Live() after destroy = %+v", got)
	}
	if err := d.Clear(fb, render.Transparent); !errors.Is(err, render.ErrDestroyed) {
		t.Errorf("Clear destroyed: err = %v", err)
	}
	if _, err := d.CreateTexture(render.TextureDescriptor{Width: 0, Height: 2}, nil); !errors.Is(err, render.ErrInvalidDimensions) {
		t.Errorf("zero width: err = %v", err)
	}
}

func TestSurfaceResize(t *testing.T) {
	d := newTestDevice(t)
	s, err := NewSurface(d, 4, 3)
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	if w, h := s.Size(); w != 4 || h != 3 || s.Framebuffer() == nil {
		t.Fatalf("Size() = %dx%d, fb %v", w, h, s.Framebuffer())
	}
	if err := s.Resize(0, 3); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if s.Framebuffer() != nil {
		t.Error("zero-area surface has a framebuffer")
	}
	img, err := s.Image()
	if err != nil || img.Bounds().Dx() != 0 {
		t.Errorf("Image() = %v, %v", img.Bounds(), err)
	}
	s.Release()
	if got := d.Live(); got.Textures != 0 || got.Framebuffers != 0 {
		t.Errorf("Live() = %+v after release", got)
	}
}
