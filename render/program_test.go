package render

import (
	"errors"
	"strings"
	"testing"
)

// stubDevice records pipeline lifetimes and creates plain resources.
type stubDevice struct {
	caps      Capabilities
	pipelines int
}

type stubTexture struct {
	w, h   int
	filter Filter
	label  string
}

func (t *stubTexture) Width() int     { return t.w }
func (t *stubTexture) Height() int    { return t.h }
func (t *stubTexture) Filter() Filter { return t.filter }
func (t *stubTexture) Label() string  { return t.label }

type stubBuffer struct {
	n     int
	label string
}

func (b *stubBuffer) Len() int      { return b.n }
func (b *stubBuffer) Label() string { return b.label }

type stubFramebuffer struct{ tex Texture }

func (f *stubFramebuffer) Texture() Texture { return f.tex }

type stubPipeline struct{ label string }

func (p *stubPipeline) Label() string { return p.label }

func newStubDevice() *stubDevice {
	return &stubDevice{caps: Capabilities{Name: "stub", MaxTextureSize: 64, MaxTextureUnits: 4, ExecutesWGSL: true}}
}

func (d *stubDevice) Capabilities() Capabilities { return d.caps }

func (d *stubDevice) CreateTexture(desc TextureDescriptor, pixels []byte) (Texture, error) {
	if err := desc.Check(d.caps, pixels); err != nil {
		return nil, err
	}
	return &stubTexture{w: desc.Width, h: desc.Height, filter: desc.Filter, label: desc.Label}, nil
}
func (d *stubDevice) DestroyTexture(Texture) {}
func (d *stubDevice) CreateBuffer(desc BufferDescriptor) (Buffer, error) {
	return &stubBuffer{n: len(desc.Data), label: desc.Label}, nil
}
func (d *stubDevice) DestroyBuffer(Buffer) {}
func (d *stubDevice) CreateFramebuffer(t Texture) (Framebuffer, error) {
	return &stubFramebuffer{tex: t}, nil
}
func (d *stubDevice) DestroyFramebuffer(Framebuffer) {}
func (d *stubDevice) CreatePipeline(p *Program) (Pipeline, error) {
	d.pipelines++
	return &stubPipeline{label: p.Label()}, nil
}
func (d *stubDevice) DestroyPipeline(Pipeline) { d.pipelines-- }
func (d *stubDevice) Clear(Framebuffer, Color) error { return nil }
func (d *stubDevice) Draw(*DrawCommand) error { return nil }
func (d *stubDevice) ReadPixels(Framebuffer) ([]byte, error) { return nil, nil }
func (d *stubDevice) Close() error { return nil }

const testVertex = `
struct Params {
    u_scale: f32,
    u_offset: vec2<f32>,
}

@group(0) @binding(0) var<uniform> params: Params;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) a_pos: vec2<f32>, @location(1) a_index: f32) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(a_pos * params.u_scale + params.u_offset, 0.0, 1.0);
    out.uv = a_pos + vec2<f32>(a_index, 0.0);
    return out;
}
`

const testFragment = `
struct Params {
    u_scale: f32,
    u_offset: vec2<f32>,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var u_screen: texture_2d<f32>;
@group(0) @binding(2) var u_screen_sampler: sampler;
@group(0) @binding(3) var u_ramp: texture_2d<f32>;
@group(0) @binding(4) var u_ramp_sampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let c = textureSample(u_screen, u_screen_sampler, uv);
    let r = textureSample(u_ramp, u_ramp_sampler, uv);
    return c * params.u_scale + r;
}
`

func compileTest(t *testing.T, dev Device, vs, fs string) (*Program, error) {
	t.Helper()
	return CompileProgram(dev, ProgramSource{Label: "test", Vertex: vs, Fragment: fs})
}

func mustCompile(t *testing.T, dev Device) *Program {
	t.Helper()
	p, err := compileTest(t, dev, testVertex, testFragment)
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	t.Cleanup(p.Destroy)
	return p
}

func TestCompileProgramReflection(t *testing.T) {
	dev := newStubDevice()
	p := mustCompile(t, dev)

	attrs := p.Attributes()
	if len(attrs) != 2 {
		t.Fatalf("Attributes() = %v, want 2", attrs)
	}
	if attrs[0] != (Attribute{Name: "a_pos", Location: 0, Components: 2}) {
		t.Errorf("attrs[0] = %+v", attrs[0])
	}
	if attrs[1] != (Attribute{Name: "a_index", Location: 1, Components: 1}) {
		t.Errorf("attrs[1] = %+v", attrs[1])
	}
	if _, ok := p.Attribute("a_missing"); ok {
		t.Error("Attribute(a_missing) found")
	}

	scale, ok := p.Uniform("u_scale")
	if !ok || scale.Offset != 0 || scale.Components != 1 {
		t.Errorf("u_scale = %+v, %v", scale, ok)
	}
	offset, ok := p.Uniform("u_offset")
	if !ok || offset.Offset != 8 || offset.Components != 2 {
		t.Errorf("u_offset = %+v, %v", offset, ok)
	}
	if got := len(p.UniformBlock()); got != 16 {
		t.Errorf("uniform block = %d bytes, want 16", got)
	}
	if p.UniformBinding() != 0 {
		t.Errorf("UniformBinding() = %d, want 0", p.UniformBinding())
	}

	tex := p.Textures()
	if len(tex) != 2 {
		t.Fatalf("Textures() = %v", tex)
	}
	if tex[0].Name != "u_screen" || tex[0].Binding != 1 || tex[0].SamplerBinding != 2 {
		t.Errorf("tex[0] = %+v", tex[0])
	}
	if tex[0].Vertex || !tex[0].Fragment {
		t.Errorf("tex[0] stages = vertex %v fragment %v", tex[0].Vertex, tex[0].Fragment)
	}
	if p.Varyings() != 2 {
		t.Errorf("Varyings() = %d, want 2", p.Varyings())
	}
	if dev.pipelines != 1 {
		t.Errorf("pipelines = %d, want 1", dev.pipelines)
	}
}

func TestCompileProgramErrors(t *testing.T) {
	tests := []struct {
		name    string
		vs, fs  string
		stage   Stage
		link    bool
		logPart string
	}{
		{
			name:  "vertex syntax",
			vs:    "@vertex fn vs_main( -> {",
			fs:    testFragment,
			stage: StageVertex,
		},
		{
			name:  "missing fragment entry",
			vs:    testVertex,
			fs:    strings.Replace(testFragment, "@fragment", "", 1),
			stage: StageFragment,
		},
		{
			name: "varying mismatch",
			vs:   testVertex,
			fs: `
@fragment
fn fs_main(@location(0) uv: vec3<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(uv, 1.0);
}
`,
			link:    true,
			logPart: "@location(0)",
		},
		{
			name: "missing sampler",
			vs:   testVertex,
			fs: `
@group(0) @binding(1) var u_tex: texture_2d<f32>;
@group(0) @binding(2) var other: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(u_tex, other, uv);
}
`,
			link:    true,
			logPart: "u_tex_sampler",
		},
		{
			name: "binding kind conflict",
			vs:   testVertex,
			fs: `
@group(0) @binding(0) var u_tex: texture_2d<f32>;
@group(0) @binding(1) var u_tex_sampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(u_tex, u_tex_sampler, uv);
}
`,
			link:    true,
			logPart: "@binding(0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newStubDevice()
			_, err := compileTest(t, dev, tt.vs, tt.fs)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.link {
				var le *ProgramLinkError
				if !errors.As(err, &le) {
					t.Fatalf("err = %v, want ProgramLinkError", err)
				}
				if !strings.Contains(le.Log, tt.logPart) {
					t.Errorf("log %q does not mention %q", le.Log, tt.logPart)
				}
			} else {
				var ce *ShaderCompileError
				if !errors.As(err, &ce) {
					t.Fatalf("err = %v, want ShaderCompileError", err)
				}
				if ce.Stage != tt.stage {
					t.Errorf("stage = %v, want %v", ce.Stage, tt.stage)
				}
				if tt.logPart != "" && !strings.Contains(ce.Log, tt.logPart) {
					t.Errorf("log %q does not mention %q", ce.Log, tt.logPart)
				}
			}
			if dev.pipelines != 0 {
				t.Errorf("pipeline created for a failed program")
			}
		})
	}
}

func TestCompileProgramNeedsKernel(t *testing.T) {
	dev := newStubDevice()
	dev.caps.ExecutesWGSL = false
	_, err := compileTest(t, dev, testVertex, testFragment)
	if !errors.Is(err, ErrNoKernel) {
		t.Fatalf("err = %v, want ErrNoKernel", err)
	}
}

func TestSetUniform(t *testing.T) {
	p := mustCompile(t, newStubDevice())

	if err := p.SetUniform("u_offset", 0.25, -1); err != nil {
		t.Fatalf("SetUniform: %v", err)
	}
	got := p.UniformValue("u_offset")
	if len(got) != 2 || got[0] != 0.25 || got[1] != -1 {
		t.Errorf("u_offset = %v", got)
	}
	if err := p.SetUniform("u_offset", 1); !errors.Is(err, ErrUniformSize) {
		t.Errorf("short value: err = %v", err)
	}
	if err := p.SetUniform("u_nope", 1); !errors.Is(err, ErrUnknownUniform) {
		t.Errorf("unknown name: err = %v", err)
	}
}

func TestBindTextureUnits(t *testing.T) {
	dev := newStubDevice()
	p := mustCompile(t, dev)
	a, _ := dev.CreateTexture(TextureDescriptor{Width: 1, Height: 1}, nil)
	b, _ := dev.CreateTexture(TextureDescriptor{Width: 2, Height: 2}, nil)

	u0, err := p.BindTexture("u_ramp", a)
	if err != nil || u0 != 0 {
		t.Fatalf("first bind = %d, %v", u0, err)
	}
	u1, err := p.BindTexture("u_screen", a)
	if err != nil || u1 != 1 {
		t.Fatalf("second bind = %d, %v", u1, err)
	}
	again, err := p.BindTexture("u_ramp", b)
	if err != nil || again != u0 {
		t.Fatalf("rebind = %d, %v; want unit %d", again, err, u0)
	}
	if p.BoundTexture("u_ramp") != b {
		t.Error("rebind did not replace the texture")
	}
	if unit, ok := p.TextureUnit("u_screen"); !ok || unit != 1 {
		t.Errorf("TextureUnit(u_screen) = %d, %v", unit, ok)
	}
	if _, err := p.BindTexture("u_wind", a); !errors.Is(err, ErrUnknownUniform) {
		t.Errorf("unknown texture: err = %v", err)
	}
}

func TestDrawCommandValidate(t *testing.T) {
	dev := newStubDevice()
	p := mustCompile(t, dev)
	tex, _ := dev.CreateTexture(TextureDescriptor{Width: 4, Height: 4}, nil)
	fb, _ := dev.CreateFramebuffer(tex)
	pos, _ := dev.CreateBuffer(BufferDescriptor{Data: make([]float32, 12)})
	idx, _ := dev.CreateBuffer(BufferDescriptor{Data: make([]float32, 6)})

	cmd := &DrawCommand{
		Label:       "quad",
		Program:     p,
		Target:      fb,
		Attributes:  []AttributeBinding{{Name: "a_pos", Buffer: pos}, {Name: "a_index", Buffer: idx}},
		VertexCount: 6,
	}
	if err := cmd.Validate(); !errors.Is(err, ErrTextureNotBound) {
		t.Fatalf("unbound textures: err = %v", err)
	}
	p.BindTexture("u_screen", tex)
	p.BindTexture("u_ramp", tex)
	if err := cmd.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r := cmd.ViewportRect(); r.Dx() != 4 || r.Dy() != 4 {
		t.Errorf("ViewportRect() = %v", r)
	}

	cmd.VertexCount = 7
	if err := cmd.Validate(); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("short buffer: err = %v", err)
	}
	cmd.VertexCount = 6
	cmd.Attributes = cmd.Attributes[:1]
	if err := cmd.Validate(); !errors.Is(err, ErrAttributeNotBound) {
		t.Errorf("missing attribute: err = %v", err)
	}
	cmd.Target = nil
	if err := cmd.Validate(); !errors.Is(err, ErrNoTarget) {
		t.Errorf("no target: err = %v", err)
	}
}

func TestTextureDescriptorCheck(t *testing.T) {
	caps := Capabilities{MaxTextureSize: 8}
	tests := []struct {
		desc   TextureDescriptor
		pixels []byte
		want   error
	}{
		{TextureDescriptor{Width: 0, Height: 4}, nil, ErrInvalidDimensions},
		{TextureDescriptor{Width: 9, Height: 4}, nil, ErrTextureTooLarge},
		{TextureDescriptor{Width: 2, Height: 2}, make([]byte, 15), ErrPixelLength},
		{TextureDescriptor{Width: 2, Height: 2}, make([]byte, 16), nil},
	}
	for _, tt := range tests {
		if err := tt.desc.Check(caps, tt.pixels); !errors.Is(err, tt.want) {
			t.Errorf("Check(%+v, %d bytes) = %v, want %v", tt.desc, len(tt.pixels), err, tt.want)
		}
	}
}
