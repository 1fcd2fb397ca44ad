package windgl

import (
	"errors"
	"math"
	"testing"

	"github.com/prajeeshag/windgl/backend/soft"
	"github.com/prajeeshag/windgl/field"
	"github.com/prajeeshag/windgl/ramp"
	"github.com/prajeeshag/windgl/recording"
	"github.com/prajeeshag/windgl/render"
)

// testField returns a 2x2 field: u grows along the grid in [0, 10], v
// sits mid-range in [-5, 5].
func testField(t *testing.T, steps int) *field.Field {
	t.Helper()
	a := make([]uint8, 0, 4*steps)
	b := make([]uint8, 0, 4*steps)
	for range steps {
		a = append(a, 0, 64, 128, 255)
		b = append(b, 128, 128, 128, 128)
	}
	f, err := field.New(a, b, field.Range{Min: 0, Max: 10}, field.Range{Min: -5, Max: 5}, 2, 2, steps)
	if err != nil {
		t.Fatalf("field.New: %v", err)
	}
	return f
}

type testRig struct {
	dev     *soft.Device
	rec     *recording.Device
	surface *render.OffscreenSurface
	eng     Engine
}

func newRig(t *testing.T, w, h int, f *field.Field, opts ...Option) *testRig {
	t.Helper()
	dev := soft.New(soft.WithWorkers(1))
	rec := recording.NewDevice(dev)
	surface, err := render.NewOffscreenSurface(rec, w, h)
	if err != nil {
		t.Fatalf("NewOffscreenSurface: %v", err)
	}
	opts = append([]Option{WithSeed(1)}, opts...)
	eng, err := New(surface, f, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		_ = eng.Close()
		surface.Release()
	})
	return &testRig{dev: dev, rec: rec, surface: surface, eng: eng}
}

func (r *testRig) draw(t *testing.T, timeFraction float64) *recording.Recording {
	t.Helper()
	r.rec.Finish()
	if err := r.eng.Draw(timeFraction); err != nil {
		t.Fatalf("Draw(%v): %v", timeFraction, err)
	}
	return r.rec.Finish()
}

func (r *testRig) snapshot(t *testing.T) *Snapshot {
	t.Helper()
	s, err := r.eng.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return s
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestNewRejectsBadInput(t *testing.T) {
	dev := soft.New()
	surface, err := soft.NewSurface(dev, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	f := testField(t, 1)

	if _, err := New(nil, f); err == nil {
		t.Error("New(nil surface) succeeded")
	}
	if _, err := New(surface, nil); err == nil {
		t.Error("New(nil field) succeeded")
	}
	if _, err := New(surface, f, WithFadeOpacity(2)); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("New(fade 2) = %v, want ErrInvalidParams", err)
	}
	if _, err := New(surface, f, WithMode(ModeRibbon), WithTailLength(1)); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("New(tail 1) = %v, want ErrInvalidParams", err)
	}
}

func TestNewAppliesModeDefaultsFirst(t *testing.T) {
	r := newRig(t, 4, 4, testField(t, 1), WithSpeedFactor(5), WithMode(ModeRibbon))
	p := r.eng.Params()
	if p.SpeedFactor != 5 {
		t.Errorf("SpeedFactor = %v, want 5", p.SpeedFactor)
	}
	if p.FadeOpacity != 0.99 || p.TailLength != 70 {
		t.Errorf("ribbon defaults not applied: %+v", p)
	}
	if r.eng.Mode() != ModeRibbon {
		t.Errorf("Mode() = %v, want ribbon", r.eng.Mode())
	}
}

func TestPointParticleCount(t *testing.T) {
	tests := []struct {
		density float64
		w, h    int
		want    int
	}{
		{1, 4, 4, 16},
		{0.5, 4, 4, 4},
		{0.02, 4, 4, 0},
		{0.02, 100, 50, 100},
	}
	for _, tt := range tests {
		r := newRig(t, tt.w, tt.h, testField(t, 1), WithDensity(tt.density))
		if got := r.eng.Particles(); got != tt.want {
			t.Errorf("density %v on %dx%d: Particles() = %d, want %d", tt.density, tt.w, tt.h, got, tt.want)
		}
	}
}

func TestRibbonParticleCount(t *testing.T) {
	r := newRig(t, 4, 4, testField(t, 1), WithMode(ModeRibbon), WithDensity(1), WithTailLength(4))
	if got := r.eng.Particles(); got != 4 {
		t.Errorf("Particles() = %d, want 4", got)
	}
	s := r.snapshot(t)
	if b := s.Position.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Errorf("position texture is %v, want 4x4", b)
	}
}

func TestRibbonTailClampedToTextureLimit(t *testing.T) {
	// The ramp texture is the largest fixed allocation, so the limit
	// cannot go below its side.
	limit := ramp.Side
	dev := soft.New(soft.WithMaxTextureSize(limit), soft.WithWorkers(1))
	surface, err := soft.NewSurface(dev, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(surface.Release)
	eng, err := New(surface, testField(t, 1), WithMode(ModeRibbon), WithDensity(1), WithTailLength(2*limit), WithSeed(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })

	// 64 pixels over a tail clamped to 16 points.
	if got := eng.Particles(); got != 64/limit {
		t.Errorf("Particles() = %d, want %d", got, 64/limit)
	}
	if err := eng.Draw(0); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	s, err := eng.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if b := s.Position.Bounds(); b.Dx() != limit || b.Dy() != 64/limit {
		t.Errorf("ribbon state is %v, want %dx%d", b, limit, 64/limit)
	}
}

func TestDrawPassOrder(t *testing.T) {
	tests := []struct {
		mode  Mode
		draws []string
		step  []string
	}{
		{
			mode:  ModePoint,
			draws: []string{"screen/fade", "point/draw", "screen/present", "point/age", "point/update"},
			step:  []string{"point/age-1", "point/pos-1"},
		},
		{
			mode:  ModeRibbon,
			draws: []string{"screen/fade", "ribbon/draw", "screen/present", "ribbon/age", "ribbon/update"},
			step:  []string{"ribbon/age-1", "ribbon/pos-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			r := newRig(t, 8, 8, testField(t, 2), WithMode(tt.mode), WithDensity(1), WithTailLength(4))
			got := r.draw(t, 0)

			if !equalStrings(got.Draws(), tt.draws) {
				t.Errorf("draws = %v, want %v", got.Draws(), tt.draws)
			}
			clears := got.Filter(recording.CmdClear)
			if len(clears) != 2 || clears[0].Target != "screen-1" || clears[1].Target != "surface" {
				t.Errorf("clears = %v", got.Labels())
			}
			if c := got.Find("screen/fade"); c.Target != "screen-1" || c.Textures["u_screen"] != "screen-0" || c.Blend != render.BlendNone {
				t.Errorf("fade = %s reading %v", c.String(), c.Textures)
			}
			if c := got.Find("screen/present"); c.Target != "surface" || c.Textures["u_screen"] != "screen-1" || c.Blend != render.BlendAlpha {
				t.Errorf("present = %s reading %v", c.String(), c.Textures)
			}
			draws := got.Filter(recording.CmdDraw)
			if draws[3].Target != tt.step[0] || draws[4].Target != tt.step[1] {
				t.Errorf("step targets = %q, %q, want %v", draws[3].Target, draws[4].Target, tt.step)
			}
			// The position pass reads the ages the age pass just wrote.
			if draws[4].Textures["u_age"] != tt.step[0] {
				t.Errorf("update reads age %q, want %q", draws[4].Textures["u_age"], tt.step[0])
			}

			// The second frame swaps every pair.
			got = r.draw(t, 0)
			if c := got.Find("screen/fade"); c.Target != "screen-0" || c.Textures["u_screen"] != "screen-1" {
				t.Errorf("second fade = %s reading %v", c.String(), c.Textures)
			}
		})
	}
}

func TestFadeOpacity(t *testing.T) {
	fade := func(rec *recording.Recording) float64 {
		return float64(rec.Find("screen/fade").Uniform("u_opacity")[0])
	}

	p := newRig(t, 4, 4, testField(t, 3), WithDensity(1))
	if got := fade(p.draw(t, 0)); !near(got, 0.96, 1e-6) {
		t.Errorf("point fade = %v, want 0.96", got)
	}
	if got := fade(p.draw(t, 0.25)); !near(got, 0.96, 1e-6) {
		t.Errorf("point fade after blend change = %v, want 0.96", got)
	}

	r := newRig(t, 4, 4, testField(t, 3), WithMode(ModeRibbon), WithDensity(1), WithTailLength(4))
	if got := fade(r.draw(t, 0)); !near(got, 0.99*0.99, 1e-6) {
		t.Errorf("first ribbon fade = %v, want %v", got, 0.99*0.99)
	}
	if got := fade(r.draw(t, 0)); !near(got, 0.99, 1e-6) {
		t.Errorf("steady ribbon fade = %v, want 0.99", got)
	}
	if got := fade(r.draw(t, 0.25)); !near(got, 0.99*0.99, 1e-6) {
		t.Errorf("ribbon fade after blend change = %v, want %v", got, 0.99*0.99)
	}

	r.eng.SetFadeOpacity(0.5)
	if got := fade(r.draw(t, 0.25)); !near(got, 0.5, 1e-6) {
		t.Errorf("fade after SetFadeOpacity = %v, want 0.5", got)
	}
}

func TestDrawFrameSelection(t *testing.T) {
	// Three timesteps make two frame pairs.
	r := newRig(t, 4, 4, testField(t, 3), WithDensity(1))
	tests := []struct {
		t         float64
		wantIndex int
		wantBlend float64
		wantWind  string
	}{
		{0, 0, 0, "field/pair-0"},
		{0.25, 0, 0.5, "field/pair-0"},
		{0.75, 1, 0.5, "field/pair-1"},
		{1, 1, 2*MaxTimeFraction - 1, "field/pair-1"},
		{0.999999, 1, 2*MaxTimeFraction - 1, "field/pair-1"},
		{-3, 0, 0, "field/pair-0"},
		{math.NaN(), 0, 0, "field/pair-0"},
	}
	for _, tt := range tests {
		rec := r.draw(t, tt.t)
		if r.eng.FrameIndex() != tt.wantIndex || !near(r.eng.BlendFactor(), tt.wantBlend, 1e-9) {
			t.Errorf("Draw(%v): frame %d blend %v, want %d %v",
				tt.t, r.eng.FrameIndex(), r.eng.BlendFactor(), tt.wantIndex, tt.wantBlend)
		}
		c := rec.Find("point/age")
		if c.Textures["u_wind"] != tt.wantWind {
			t.Errorf("Draw(%v): u_wind = %q, want %q", tt.t, c.Textures["u_wind"], tt.wantWind)
		}
		if got := float64(c.Uniform("u_time_fac")[0]); !near(got, tt.wantBlend, 1e-6) {
			t.Errorf("Draw(%v): u_time_fac = %v, want %v", tt.t, got, tt.wantBlend)
		}
	}
}

func TestViewportMapping(t *testing.T) {
	r := newRig(t, 4, 4, testField(t, 1), WithDensity(1))
	origin, size := r.eng.ViewportMapping()
	if origin != (Vec2{}) || size != (Vec2{1, 1}) {
		t.Errorf("default mapping = %v %v, want whole field", origin, size)
	}

	// North-east quadrant.
	r.eng.SetViewportMapping(Vec2{0.5, 0}, Vec2{0.5, 0.5})
	rec := r.draw(t, 0)
	for _, label := range []string{"point/draw", "point/age", "point/update"} {
		c := rec.Find(label)
		o, s := c.Uniform("u_origin"), c.Uniform("u_size")
		if o[0] != 0.5 || o[1] != 0 || s[0] != 0.5 || s[1] != 0.5 {
			t.Errorf("%s: origin %v size %v", label, o, s)
		}
	}

	r2 := newRig(t, 4, 4, testField(t, 1), WithViewportMapping(Vec2{0.25, 0.25}, Vec2{0.5, 0.5}))
	if o, s := r2.eng.ViewportMapping(); o != (Vec2{0.25, 0.25}) || s != (Vec2{0.5, 0.5}) {
		t.Errorf("WithViewportMapping: %v %v", o, s)
	}
}

// quadrantField returns an 8x8 field that is calm everywhere except
// for an eastward wind in the south-east 4x4 block.
func quadrantField(t *testing.T) *field.Field {
	t.Helper()
	const n = 8
	a := make([]uint8, n*n)
	b := make([]uint8, n*n)
	for y := n / 2; y < n; y++ {
		for x := n / 2; x < n; x++ {
			a[y*n+x] = 255
		}
	}
	f, err := field.New(a, b, field.Range{Min: 0, Max: 10}, field.Range{Min: 0, Max: 10}, n, n, 1)
	if err != nil {
		t.Fatalf("field.New: %v", err)
	}
	return f
}

func TestViewportMappingSelectsQuadrant(t *testing.T) {
	tests := []struct {
		name         string
		origin, size Vec2
		lo, hi       float64
	}{
		{"whole field", Vec2{0, 0}, Vec2{1, 1}, 0.2, 0.45},
		{"south-east", Vec2{0.5, 0.5}, Vec2{0.5, 0.5}, 0.9, 1},
		{"north-west", Vec2{0, 0}, Vec2{0.5, 0.5}, 0, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, 32, 32, quadrantField(t),
				WithDensity(1), WithDropRate(0), WithSpeedFactor(10),
				WithViewportMapping(tt.origin, tt.size))
			before := r.snapshot(t).Position
			r.draw(t, 0)
			after := r.snapshot(t).Position

			moved, total := 0, 0
			for i := 0; i < len(before.Pix); i += 4 {
				p0 := DecodePosition([4]uint8(before.Pix[i : i+4]))
				p1 := DecodePosition([4]uint8(after.Pix[i : i+4]))
				if math.Hypot(p1.X-p0.X, p1.Y-p0.Y) > 1e-3 {
					moved++
				}
				total++
			}
			share := float64(moved) / float64(total)
			if share < tt.lo || share > tt.hi {
				t.Errorf("%.2f of %d particles moved, want [%v, %v]", share, total, tt.lo, tt.hi)
			}
		})
	}
}

func TestWindUniforms(t *testing.T) {
	r := newRig(t, 4, 4, testField(t, 1), WithDensity(1), WithSpeedColorRange(2, 8))
	c := r.draw(t, 0).Find("point/draw")
	lo, hi := c.Uniform("u_wind_min"), c.Uniform("u_wind_max")
	if lo[0] != 0 || lo[1] != -5 || hi[0] != 10 || hi[1] != 5 {
		t.Errorf("wind range = %v..%v", lo, hi)
	}
	if c.Uniform("u_spd_min")[0] != 2 || c.Uniform("u_spd_max")[0] != 8 {
		t.Errorf("speed range = %v..%v", c.Uniform("u_spd_min"), c.Uniform("u_spd_max"))
	}
	if c.Textures["u_ramp"] != "ramp" {
		t.Errorf("u_ramp = %q", c.Textures["u_ramp"])
	}
}

func TestResetIsIdempotent(t *testing.T) {
	r := newRig(t, 8, 8, testField(t, 2), WithMode(ModeRibbon), WithDensity(1), WithTailLength(4))
	before := r.dev.Live()
	for range 3 {
		if err := r.eng.Reset(); err != nil {
			t.Fatal(err)
		}
	}
	if after := r.dev.Live(); after != before {
		t.Errorf("live resources %+v after resets, want %+v", after, before)
	}
	if r.eng.Particles() != 16 {
		t.Errorf("Particles() = %d, want 16", r.eng.Particles())
	}
}

func TestResetFollowsSurfaceSize(t *testing.T) {
	r := newRig(t, 4, 4, testField(t, 1), WithDensity(1))
	if err := r.surface.Resize(8, 8); err != nil {
		t.Fatal(err)
	}
	if err := r.eng.Reset(); err != nil {
		t.Fatal(err)
	}
	if got := r.eng.Particles(); got != 64 {
		t.Errorf("Particles() = %d after resize, want 64", got)
	}
	if s := r.snapshot(t); s.Screen.Bounds().Dx() != 8 {
		t.Errorf("screen is %v, want 8x8", s.Screen.Bounds())
	}

	r.eng.SetDensity(0.25)
	if got := r.eng.Particles(); got != 64 {
		t.Errorf("SetDensity applied before Reset: %d particles", got)
	}
	if err := r.eng.Reset(); err != nil {
		t.Fatal(err)
	}
	if got := r.eng.Particles(); got != 16 {
		t.Errorf("Particles() = %d, want 16", got)
	}
}

func TestZeroAreaSurface(t *testing.T) {
	r := newRig(t, 0, 0, testField(t, 1))
	if r.eng.Ready() {
		t.Error("engine on empty surface is ready")
	}
	if err := r.eng.Draw(0); !errors.Is(err, ErrResourceNotReady) {
		t.Errorf("Draw = %v, want ErrResourceNotReady", err)
	}
	if _, err := r.eng.Snapshot(); !errors.Is(err, ErrResourceNotReady) {
		t.Errorf("Snapshot = %v, want ErrResourceNotReady", err)
	}

	if err := r.surface.Resize(4, 4); err != nil {
		t.Fatal(err)
	}
	if err := r.eng.Reset(); err != nil {
		t.Fatal(err)
	}
	if !r.eng.Ready() {
		t.Fatal("engine not ready after resize and reset")
	}
	r.draw(t, 0)
}

func TestZeroDensity(t *testing.T) {
	r := newRig(t, 4, 4, testField(t, 1), WithDensity(0))
	if !r.eng.Ready() || r.eng.Particles() != 0 {
		t.Fatalf("Ready %v, Particles %d", r.eng.Ready(), r.eng.Particles())
	}
	rec := r.draw(t, 0)
	if want := []string{"screen/fade", "screen/present"}; !equalStrings(rec.Draws(), want) {
		t.Errorf("draws = %v, want %v", rec.Draws(), want)
	}
	if s := r.snapshot(t); s.Position != nil || s.Age != nil {
		t.Error("snapshot has particle state without particles")
	}
}

func TestClose(t *testing.T) {
	dev := soft.New()
	surface, err := soft.NewSurface(dev, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	base := dev.Live()
	eng, err := New(surface, testField(t, 3), WithMode(ModeRibbon), WithDensity(1), WithTailLength(4))
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Draw(0.5); err != nil {
		t.Fatal(err)
	}
	if err := eng.Close(); err != nil {
		t.Fatal(err)
	}
	if got := dev.Live(); got != base {
		t.Errorf("live resources %+v after Close, want %+v", got, base)
	}
	if err := eng.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if err := eng.Draw(0); !errors.Is(err, ErrClosed) {
		t.Errorf("Draw after Close = %v, want ErrClosed", err)
	}
	if err := eng.Reset(); !errors.Is(err, ErrClosed) {
		t.Errorf("Reset after Close = %v, want ErrClosed", err)
	}
	if _, err := eng.Snapshot(); !errors.Is(err, ErrClosed) {
		t.Errorf("Snapshot after Close = %v, want ErrClosed", err)
	}
	if eng.Ready() {
		t.Error("closed engine is ready")
	}
}

func TestDrawPaintsParticles(t *testing.T) {
	for _, mode := range []Mode{ModePoint, ModeRibbon} {
		// Ribbons need heads moving more than a pixel per frame before
		// their segments cover any pixels.
		r := newRig(t, 16, 16, testField(t, 2),
			WithMode(mode), WithDensity(1), WithTailLength(4), WithSpeedFactor(400))
		for i := range 4 {
			r.draw(t, float64(i)/4)
		}
		img, err := r.surface.Image()
		if err != nil {
			t.Fatal(err)
		}
		painted := 0
		for i := 3; i < len(img.Pix); i += 4 {
			if img.Pix[i] > 0 {
				painted++
			}
		}
		if painted == 0 {
			t.Errorf("%v: surface is empty after four frames", mode)
		}
	}
}

func TestRibbonTailFollowsHead(t *testing.T) {
	r := newRig(t, 8, 8, testField(t, 1), WithMode(ModeRibbon), WithDensity(1), WithTailLength(4))
	r.draw(t, 0)
	before := r.snapshot(t)
	r.draw(t, 0)
	after := r.snapshot(t)

	texel := func(s *Snapshot, pos bool, x, y int) [4]uint8 {
		img := s.Age
		if pos {
			img = s.Position
		}
		i := img.PixOffset(x, y)
		return [4]uint8(img.Pix[i : i+4])
	}
	rows := r.eng.Particles()
	for y := range rows {
		for x := range 3 {
			p0 := DecodePosition(texel(before, true, x, y))
			p1 := DecodePosition(texel(after, true, x+1, y))
			if !near(p0.X, p1.X, 1e-4) || !near(p0.Y, p1.Y, 1e-4) {
				t.Errorf("row %d: column %d is %v, want previous column %d %v", y, x+1, p1, x, p0)
			}
			a0 := DecodeAge(texel(before, false, x, y))
			a1 := DecodeAge(texel(after, false, x+1, y))
			if !near(a0, a1, 1e-4) {
				t.Errorf("row %d: age column %d is %v, want %v", y, x+1, a1, a0)
			}
		}
	}
}

func TestRibbonUpdateCountersStaggered(t *testing.T) {
	r := newRig(t, 8, 8, testField(t, 1), WithMode(ModeRibbon), WithDensity(1), WithTailLength(4))
	age := r.snapshot(t).Age
	counters := make(map[uint8]bool)
	for y := range r.eng.Particles() {
		head := age.Pix[age.PixOffset(0, y)+2]
		for x := 1; x < 4; x++ {
			if c := age.Pix[age.PixOffset(x, y)+2]; c != head {
				t.Errorf("row %d: column %d counter %d, want head's %d", y, x, c, head)
			}
		}
		counters[head] = true
	}
	if len(counters) < 2 {
		t.Errorf("all %d ribbons start with counter %v", r.eng.Particles(), counters)
	}
}

func TestSeedReproducible(t *testing.T) {
	run := func() *Snapshot {
		r := newRig(t, 8, 8, testField(t, 2), WithDensity(1), WithSeed(7))
		for i := range 3 {
			r.draw(t, float64(i)/3)
		}
		return r.snapshot(t)
	}
	a, b := run(), run()
	if string(a.Position.Pix) != string(b.Position.Pix) {
		t.Error("positions differ between runs with the same seed")
	}
	if string(a.Screen.Pix) != string(b.Screen.Pix) {
		t.Error("screens differ between runs with the same seed")
	}
}

func TestSetters(t *testing.T) {
	r := newRig(t, 4, 4, testField(t, 1))
	r.eng.SetFadeOpacity(1.5)
	r.eng.SetDropRate(-1)
	r.eng.SetSpeedFactor(2.5)
	r.eng.SetSpeedColorRange(9, 3)
	r.eng.SetDensity(math.NaN())
	p := r.eng.Params()
	if p.FadeOpacity != 1 || p.DropRate != 0 || p.SpeedFactor != 2.5 {
		t.Errorf("params = %+v", p)
	}
	if p.SpeedColorMin != 3 || p.SpeedColorMax != 9 {
		t.Errorf("speed range = %v..%v, want 3..9", p.SpeedColorMin, p.SpeedColorMax)
	}
	if p.Density != 0 {
		t.Errorf("density = %v, want 0", p.Density)
	}
}

func TestDecodeState(t *testing.T) {
	if p := DecodePosition([4]uint8{0, 0, 255, 0}); p.X != 1 || p.Y != 0 {
		t.Errorf("DecodePosition = %v, want (1, 0)", p)
	}
	if p := DecodePosition([4]uint8{255, 0, 127, 0}); !near(p.X, 128.0/255, 1e-9) {
		t.Errorf("DecodePosition = %v", p)
	}
	if a := DecodeAge([4]uint8{128, 0, 0, 0}); !near(a, 128.0/255, 1e-12) {
		t.Errorf("DecodeAge = %v", a)
	}
}
