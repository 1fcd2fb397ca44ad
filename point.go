package windgl

import (
	"math"

	"github.com/prajeeshag/windgl/internal/shaders"
	"github.com/prajeeshag/windgl/render"
)

// pointSim stores particles in a square grid, one texel each.
type pointSim struct {
	ageProg, updateProg, drawProg *render.Program

	grid  int
	pos   *PingPong[slot]
	ages  *PingPong[slot]
	index render.Buffer
}

func (s *pointSim) mode() Mode { return ModePoint }

func (s *pointSim) compile(dev render.Device) error {
	var err error
	if s.ageProg, err = shaders.Compile(dev, shaders.PointAge); err != nil {
		return err
	}
	if s.updateProg, err = shaders.Compile(dev, shaders.PointUpdate); err != nil {
		return err
	}
	s.drawProg, err = shaders.Compile(dev, shaders.PointDraw)
	return err
}

// pointGrid returns the side of the state texture for a surface.
func pointGrid(density float64, w, h, maxSize int) int {
	n := math.Floor(density * float64(w) * float64(h))
	return min(int(math.Sqrt(n)), maxSize)
}

func (s *pointSim) alloc(e *engine, w, h int) error {
	g := pointGrid(e.params.Density, w, h, e.dev.Capabilities().MaxTextureSize)
	if g == 0 {
		slogger().Warn("windgl: density yields no particles", "density", e.params.Density, "width", w, "height", h)
		return nil
	}
	n := g * g

	// Every position byte is random. Ages start random and nonzero so
	// particles do not expire together.
	pos := make([]byte, n*4)
	age := make([]byte, n*4)
	for i := range n {
		for k := range 4 {
			pos[i*4+k] = byte(e.rng.IntN(256))
		}
		age[i*4+0] = byte(1 + e.rng.IntN(255))
		age[i*4+1] = byte(e.rng.IntN(256))
		age[i*4+3] = 255
	}

	var err error
	if s.pos, err = newSlotPair(e.dev, "point/pos", g, g, pos); err != nil {
		return err
	}
	if s.ages, err = newSlotPair(e.dev, "point/age", g, g, age); err != nil {
		return err
	}

	index := make([]float32, 0, n*2)
	for y := range g {
		for x := range g {
			index = append(index, (float32(x)+0.5)/float32(g), (float32(y)+0.5)/float32(g))
		}
	}
	if s.index, err = e.dev.CreateBuffer(render.BufferDescriptor{Label: "point/index", Data: index}); err != nil {
		return err
	}
	s.grid = g
	return nil
}

func (s *pointSim) release(dev render.Device) {
	destroyPair(dev, s.pos)
	destroyPair(dev, s.ages)
	if s.index != nil {
		dev.DestroyBuffer(s.index)
	}
	s.pos, s.ages, s.index = nil, nil, nil
	s.grid = 0
}

func (s *pointSim) destroy() {
	for _, p := range []*render.Program{s.ageProg, s.updateProg, s.drawProg} {
		if p != nil {
			p.Destroy()
		}
	}
	s.ageProg, s.updateProg, s.drawProg = nil, nil, nil
}

func (s *pointSim) particles() int { return s.grid * s.grid }

func (s *pointSim) state() (pos, age *PingPong[slot]) { return s.pos, s.ages }

func (s *pointSim) draw(e *engine, target render.Framebuffer) error {
	if s.grid == 0 {
		return nil
	}
	b := binder{prog: s.drawProg}
	e.bindWind(&b)
	b.uniform("u_spd_min", float32(e.params.SpeedColorMin))
	b.uniform("u_spd_max", float32(e.params.SpeedColorMax))
	b.texture("u_pos", s.pos.Read().tex)
	b.texture("u_ramp", e.rampTex)
	if b.err != nil {
		return b.err
	}
	return e.dev.Draw(&render.DrawCommand{
		Label:       "point/draw",
		Program:     s.drawProg,
		Target:      target,
		Primitive:   render.Points,
		Blend:       render.BlendAlpha,
		Attributes:  []render.AttributeBinding{{Name: "a_index", Buffer: s.index}},
		VertexCount: s.particles(),
	})
}

// step runs the age pass, then the position pass reading the new ages.
func (s *pointSim) step(e *engine) error {
	if s.grid == 0 {
		return nil
	}
	b := binder{prog: s.ageProg}
	e.bindWind(&b)
	b.uniform("u_speed_factor", float32(e.params.SpeedFactor))
	b.uniform("u_drop_rate", float32(e.params.DropRate))
	b.uniform("u_spd_min", float32(e.params.SpeedColorMin))
	b.uniform("u_spd_max", float32(e.params.SpeedColorMax))
	b.texture("u_pos", s.pos.Read().tex)
	b.texture("u_age", s.ages.Read().tex)
	if b.err != nil {
		return b.err
	}
	if err := e.dev.Draw(e.quadCommand("point/age", s.ageProg, s.ages.Write().fb, render.BlendNone)); err != nil {
		return err
	}
	s.ages.Swap()

	b = binder{prog: s.updateProg}
	e.bindWind(&b)
	b.uniform("u_speed_factor", float32(e.params.SpeedFactor))
	b.uniform("u_rand_seed", e.randSeed())
	b.texture("u_pos", s.pos.Read().tex)
	b.texture("u_age", s.ages.Read().tex)
	if b.err != nil {
		return b.err
	}
	if err := e.dev.Draw(e.quadCommand("point/update", s.updateProg, s.pos.Write().fb, render.BlendNone)); err != nil {
		return err
	}
	s.pos.Swap()
	return nil
}
