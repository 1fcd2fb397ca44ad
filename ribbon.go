package windgl

import (
	"math"

	"github.com/prajeeshag/windgl/internal/shaders"
	"github.com/prajeeshag/windgl/render"
)

// ribbonSim stores one particle per row. Column 0 is the head and the
// remaining columns hold its previous positions, oldest last.
type ribbonSim struct {
	ageProg, updateProg, drawProg *render.Program

	tail, rows int
	pos        *PingPong[slot]
	ages       *PingPong[slot]
	index      render.Buffer
	role       render.Buffer
}

func (s *ribbonSim) mode() Mode { return ModeRibbon }

func (s *ribbonSim) compile(dev render.Device) error {
	var err error
	if s.ageProg, err = shaders.Compile(dev, shaders.RibbonAge); err != nil {
		return err
	}
	if s.updateProg, err = shaders.Compile(dev, shaders.RibbonUpdate); err != nil {
		return err
	}
	s.drawProg, err = shaders.Compile(dev, shaders.RibbonDraw)
	return err
}

// ribbonRows returns the number of ribbons for a surface, each holding
// tail positions.
func ribbonRows(density float64, w, h, tail, maxSize int) int {
	if tail <= 0 {
		return 0
	}
	n := math.Floor(density * float64(w) * float64(h) / float64(tail))
	return min(int(n), maxSize)
}

func (s *ribbonSim) alloc(e *engine, w, h int) error {
	maxSize := e.dev.Capabilities().MaxTextureSize
	tail := e.params.TailLength
	if tail > maxSize {
		slogger().Warn("windgl: tail length clamped", "tail", tail, "max", maxSize)
		tail = maxSize
	}
	n := ribbonRows(e.params.Density, w, h, tail, maxSize)
	if n == 0 {
		slogger().Warn("windgl: density yields no particles", "density", e.params.Density, "width", w, "height", h)
		return nil
	}

	// A ribbon starts collapsed: every column of a row holds the same
	// position and age.
	pos := make([]byte, tail*n*4)
	age := make([]byte, tail*n*4)
	for y := range n {
		var p [4]byte
		for k := range p {
			p[k] = byte(e.rng.IntN(256))
		}
		// Age in R and G, update counter in B. A random counter keeps
		// the rows from aging on the same tick.
		a := [4]byte{
			byte(min(math.Floor((e.rng.Float64()+0.01)*256), 255)),
			byte(e.rng.IntN(256)),
			byte(e.rng.IntN(256)),
		}
		for x := range tail {
			i := (y*tail + x) * 4
			copy(pos[i:i+4], p[:])
			copy(age[i:i+4], a[:])
		}
	}

	var err error
	if s.pos, err = newSlotPair(e.dev, "ribbon/pos", tail, n, pos); err != nil {
		return err
	}
	if s.ages, err = newSlotPair(e.dev, "ribbon/age", tail, n, age); err != nil {
		return err
	}

	// Each segment joins column x (the head side) to column x+1.
	segs := (tail - 1) * n
	index := make([]float32, 0, segs*4)
	role := make([]float32, 0, segs*2)
	for y := range n {
		v := (float32(y) + 0.5) / float32(n)
		for x := range tail - 1 {
			index = append(index,
				(float32(x)+0.5)/float32(tail), v,
				(float32(x)+1.5)/float32(tail), v)
			role = append(role, 1, 0)
		}
	}
	if s.index, err = e.dev.CreateBuffer(render.BufferDescriptor{Label: "ribbon/index", Data: index}); err != nil {
		return err
	}
	if s.role, err = e.dev.CreateBuffer(render.BufferDescriptor{Label: "ribbon/role", Data: role}); err != nil {
		return err
	}
	s.tail, s.rows = tail, n
	return nil
}

func (s *ribbonSim) release(dev render.Device) {
	destroyPair(dev, s.pos)
	destroyPair(dev, s.ages)
	for _, b := range []render.Buffer{s.index, s.role} {
		if b != nil {
			dev.DestroyBuffer(b)
		}
	}
	s.pos, s.ages, s.index, s.role = nil, nil, nil, nil
	s.tail, s.rows = 0, 0
}

func (s *ribbonSim) destroy() {
	for _, p := range []*render.Program{s.ageProg, s.updateProg, s.drawProg} {
		if p != nil {
			p.Destroy()
		}
	}
	s.ageProg, s.updateProg, s.drawProg = nil, nil, nil
}

func (s *ribbonSim) particles() int { return s.rows }

func (s *ribbonSim) state() (pos, age *PingPong[slot]) { return s.pos, s.ages }

func (s *ribbonSim) res(b *binder) {
	b.uniform("u_res", float32(s.tail), float32(s.rows))
}

func (s *ribbonSim) draw(e *engine, target render.Framebuffer) error {
	if s.rows == 0 {
		return nil
	}
	b := binder{prog: s.drawProg}
	e.bindWind(&b)
	s.res(&b)
	b.uniform("u_spd_min", float32(e.params.SpeedColorMin))
	b.uniform("u_spd_max", float32(e.params.SpeedColorMax))
	b.texture("u_pos", s.pos.Read().tex)
	b.texture("u_age", s.ages.Read().tex)
	b.texture("u_ramp", e.rampTex)
	if b.err != nil {
		return b.err
	}
	return e.dev.Draw(&render.DrawCommand{
		Label:     "ribbon/draw",
		Program:   s.drawProg,
		Target:    target,
		Primitive: render.Lines,
		Blend:     render.BlendAlpha,
		Attributes: []render.AttributeBinding{
			{Name: "a_index", Buffer: s.index},
			{Name: "a_role", Buffer: s.role},
		},
		VertexCount: 2 * (s.tail - 1) * s.rows,
	})
}

// step ages the heads and shifts the tails, then moves the heads and
// shifts the positions the same way.
func (s *ribbonSim) step(e *engine) error {
	if s.rows == 0 {
		return nil
	}
	b := binder{prog: s.ageProg}
	e.bindWind(&b)
	s.res(&b)
	b.uniform("u_speed_factor", float32(e.params.SpeedFactor))
	b.uniform("u_drop_rate", float32(e.params.DropRate))
	b.uniform("u_spd_min", float32(e.params.SpeedColorMin))
	b.uniform("u_spd_max", float32(e.params.SpeedColorMax))
	b.uniform("u_tail", float32(s.tail))
	b.texture("u_pos", s.pos.Read().tex)
	b.texture("u_age", s.ages.Read().tex)
	if b.err != nil {
		return b.err
	}
	if err := e.dev.Draw(e.quadCommand("ribbon/age", s.ageProg, s.ages.Write().fb, render.BlendNone)); err != nil {
		return err
	}
	s.ages.Swap()

	b = binder{prog: s.updateProg}
	e.bindWind(&b)
	s.res(&b)
	b.uniform("u_speed_factor", float32(e.params.SpeedFactor))
	b.uniform("u_rand_seed", e.randSeed())
	b.texture("u_pos", s.pos.Read().tex)
	b.texture("u_age", s.ages.Read().tex)
	if b.err != nil {
		return b.err
	}
	if err := e.dev.Draw(e.quadCommand("ribbon/update", s.updateProg, s.pos.Write().fb, render.BlendNone)); err != nil {
		return err
	}
	s.pos.Swap()
	return nil
}
