package shaders

import (
	"math"
	"strings"
	"testing"

	"github.com/prajeeshag/windgl/backend/soft"
	"github.com/prajeeshag/windgl/render"
)

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 7 {
		t.Fatalf("Names() = %v, want 7 programs", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names() not sorted: %v", names)
		}
	}
	if _, err := WGSL("missing"); err == nil {
		t.Error("WGSL(missing) succeeded")
	}
}

func TestWGSLComposition(t *testing.T) {
	tests := []struct {
		name string
		quad bool
	}{
		{Screen, true},
		{PointAge, true},
		{PointDraw, false},
		{RibbonDraw, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := WGSL(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(src, "fn decode_pos") {
				t.Error("common helpers missing")
			}
			if got := strings.Contains(src, "struct QuadOutput"); got != tt.quad {
				t.Errorf("quad stage included = %v, want %v", got, tt.quad)
			}
		})
	}
}

func TestCompileEveryProgram(t *testing.T) {
	dev := soft.New()
	t.Cleanup(func() { _ = dev.Close() })

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			p, err := Compile(dev, name)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			defer p.Destroy()
			if p.Kernel() == nil {
				t.Error("no kernel")
			}
			if _, ok := p.Uniform("u_time_fac"); !ok && name != Screen {
				t.Error("u_time_fac not reflected")
			}
		})
	}
}

func TestPositionEncoding(t *testing.T) {
	for _, p := range []vec2{{0, 0}, {0.3, 0.7}, {0.5, 0.5}, {0.999, 0.0001}, {0.123456, 0.654321}} {
		c := storeTexel(encodePos(p))
		got := decodePos(c)
		for i := range 2 {
			if d := math.Abs(float64(got[i] - p[i])); d > 1.0/(255*255) {
				t.Errorf("pos %v: decoded %v (error %g)", p, got, d)
			}
		}
	}
}

func TestAgeEncoding(t *testing.T) {
	for _, a := range []float32{0, 0.1, 0.5, 0.77, 0.99999} {
		hi, lo := encodeAge(a)
		c := storeTexel(render.Color{R: hi, G: lo})
		if d := math.Abs(float64(decodeAge(c) - a)); d > 1.0/(255*255) {
			t.Errorf("age %v: decoded %v", a, decodeAge(c))
		}
	}
}

// storeTexel quantizes c the way an RGBA8 attachment stores it.
func storeTexel(c render.Color) render.Color {
	q := func(v float32) float32 { return float32(math.Round(float64(v)*255)) / 255 }
	return render.Color{R: q(c.R), G: q(c.G), B: q(c.B), A: q(c.A)}
}

func TestSpeedT(t *testing.T) {
	tests := []struct {
		speed, lo, hi, want float32
	}{
		{5, 0, 10, 0.5},
		{-1, 0, 10, 0},
		{20, 0, 10, 1},
		{3, 3, 3, 0},
		{4, 3, 3, 1},
	}
	for _, tt := range tests {
		if got := speedT(tt.speed, tt.lo, tt.hi); got != tt.want {
			t.Errorf("speedT(%v, %v, %v) = %v, want %v", tt.speed, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestRampCoord(t *testing.T) {
	u, v := rampCoord(0.5)
	if u != 0 || v != 0.5 {
		t.Errorf("rampCoord(0.5) = (%v, %v)", u, v)
	}
	u, v = rampCoord(1.0 / 32)
	if u != 0.5 || v != 0 {
		t.Errorf("rampCoord(1/32) = (%v, %v)", u, v)
	}
}

// pass runs one full-screen program into a new w x h texture.
type pass struct {
	t   *testing.T
	dev *soft.Device
	buf render.Buffer
}

func newPass(t *testing.T) *pass {
	t.Helper()
	dev := soft.New(soft.WithWorkers(1))
	t.Cleanup(func() { _ = dev.Close() })
	buf, err := dev.CreateBuffer(render.BufferDescriptor{Label: "quad", Data: QuadVertices})
	if err != nil {
		t.Fatal(err)
	}
	return &pass{t: t, dev: dev, buf: buf}
}

func (p *pass) texture(w, h int, filter render.Filter, pix []byte) render.Texture {
	p.t.Helper()
	tex, err := p.dev.CreateTexture(render.TextureDescriptor{Width: w, Height: h, Filter: filter}, pix)
	if err != nil {
		p.t.Fatal(err)
	}
	return tex
}

func (p *pass) run(prog *render.Program, w, h int) []byte {
	p.t.Helper()
	out := p.texture(w, h, render.FilterNearest, nil)
	fb, err := p.dev.CreateFramebuffer(out)
	if err != nil {
		p.t.Fatal(err)
	}
	err = p.dev.Draw(&render.DrawCommand{
		Label:       prog.Label(),
		Program:     prog,
		Target:      fb,
		Primitive:   render.Triangles,
		Blend:       render.BlendNone,
		Attributes:  []render.AttributeBinding{{Name: "a_pos", Buffer: p.buf}},
		VertexCount: 6,
	})
	if err != nil {
		p.t.Fatal(err)
	}
	pix, err := p.dev.ReadPixels(fb)
	if err != nil {
		p.t.Fatal(err)
	}
	return pix
}

func (p *pass) compile(name string, uniforms map[string][]float32, textures map[string]render.Texture) *render.Program {
	p.t.Helper()
	prog, err := Compile(p.dev, name)
	if err != nil {
		p.t.Fatal(err)
	}
	for k, v := range uniforms {
		if err := prog.SetUniform(k, v...); err != nil {
			p.t.Fatalf("SetUniform(%s): %v", k, err)
		}
	}
	for k, tex := range textures {
		if _, err := prog.BindTexture(k, tex); err != nil {
			p.t.Fatalf("BindTexture(%s): %v", k, err)
		}
	}
	return prog
}

func texelBytes(c render.Color) []byte {
	s := storeTexel(c)
	return []byte{byte(s.R*255 + 0.5), byte(s.G*255 + 0.5), byte(s.B*255 + 0.5), byte(s.A*255 + 0.5)}
}

func bytesColor(b []byte) render.Color {
	return render.Color{R: float32(b[0]) / 255, G: float32(b[1]) / 255, B: float32(b[2]) / 255, A: float32(b[3]) / 255}
}

func calmUniforms() map[string][]float32 {
	return map[string][]float32{
		"u_wind_min": {0, 0},
		"u_wind_max": {0, 0},
		"u_origin":   {0, 0},
		"u_size":     {1, 1},
	}
}

func TestPointAgeCalmParticle(t *testing.T) {
	p := newPass(t)
	hi, lo := encodeAge(0.5)
	pos := p.texture(1, 1, render.FilterNearest, texelBytes(encodePos(vec2{0.5, 0.5})))
	age := p.texture(1, 1, render.FilterNearest, texelBytes(render.Color{R: hi, G: lo}))
	wind := p.texture(1, 1, render.FilterLinear, make([]byte, 4))

	u := calmUniforms()
	u["u_drop_rate"] = []float32{0.1}
	u["u_spd_min"] = []float32{0}
	u["u_spd_max"] = []float32{10}
	prog := p.compile(PointAge, u, map[string]render.Texture{"u_wind": wind, "u_pos": pos, "u_age": age})

	got := decodeAge(bytesColor(p.run(prog, 1, 1)))
	// A still particle ages at twice the drop rate.
	if math.Abs(float64(got-0.7)) > 2.0/(255*255) {
		t.Errorf("age = %v, want 0.7", got)
	}
}

func TestPointUpdateRespawnsExpired(t *testing.T) {
	p := newPass(t)
	start := vec2{0.25, 0.75}
	posPix := append(texelBytes(encodePos(start)), texelBytes(encodePos(start))...)
	hi, lo := encodeAge(0.5)
	agePix := append(texelBytes(render.Color{R: hi, G: lo}), 0, 0, 0, 0)
	pos := p.texture(2, 1, render.FilterNearest, posPix)
	age := p.texture(2, 1, render.FilterNearest, agePix)
	wind := p.texture(1, 1, render.FilterLinear, make([]byte, 4))

	u := calmUniforms()
	u["u_rand_seed"] = []float32{0.4242}
	prog := p.compile(PointUpdate, u, map[string]render.Texture{"u_wind": wind, "u_pos": pos, "u_age": age})
	pix := p.run(prog, 2, 1)

	alive := decodePos(bytesColor(pix[0:4]))
	if math.Abs(float64(alive[0]-start[0])) > 1e-4 || math.Abs(float64(alive[1]-start[1])) > 1e-4 {
		t.Errorf("live particle moved in calm air: %v", alive)
	}
	respawned := decodePos(bytesColor(pix[4:8]))
	if respawned == alive {
		t.Error("expired particle was not respawned")
	}
	for i := range 2 {
		if respawned[i] < 0 || respawned[i] >= 1 {
			t.Errorf("respawned position %v outside the canvas", respawned)
		}
	}
}

func TestRibbonUpdateShiftsTail(t *testing.T) {
	p := newPass(t)
	cols := []vec2{{0.1, 0.1}, {0.2, 0.2}, {0.3, 0.3}}
	var posPix, agePix []byte
	hi, lo := encodeAge(0.5)
	for _, c := range cols {
		posPix = append(posPix, texelBytes(encodePos(c))...)
		agePix = append(agePix, texelBytes(render.Color{R: hi, G: lo})...)
	}
	pos := p.texture(3, 1, render.FilterNearest, posPix)
	age := p.texture(3, 1, render.FilterNearest, agePix)
	wind := p.texture(1, 1, render.FilterLinear, make([]byte, 4))

	u := calmUniforms()
	u["u_res"] = []float32{3, 1}
	u["u_rand_seed"] = []float32{0.5}
	prog := p.compile(RibbonUpdate, u, map[string]render.Texture{"u_wind": wind, "u_pos": pos, "u_age": age})
	pix := p.run(prog, 3, 1)

	want := []vec2{cols[0], cols[0], cols[1]}
	for i, w := range want {
		got := decodePos(bytesColor(pix[i*4 : i*4+4]))
		if math.Abs(float64(got[0]-w[0])) > 1e-4 || math.Abs(float64(got[1]-w[1])) > 1e-4 {
			t.Errorf("column %d = %v, want %v", i, got, w)
		}
	}
}

func TestScreenOpacity(t *testing.T) {
	p := newPass(t)
	src := p.texture(1, 1, render.FilterNearest, []byte{255, 0, 0, 255})
	prog := p.compile(Screen, map[string][]float32{"u_opacity": {0.5}}, map[string]render.Texture{"u_screen": src})
	pix := p.run(prog, 1, 1)
	if pix[0] != 255 || pix[3] != 128 {
		t.Errorf("pixel = %v, want [255 0 0 128]", pix)
	}
}
