package shaders

import "github.com/prajeeshag/windgl/render"

// screen

type screenKernel struct{}

type screenShader struct {
	screen  render.Sampled
	opacity float32
}

func (screenKernel) Prepare(env *render.Env) render.Shader {
	return screenShader{screen: env.Texture("u_screen"), opacity: env.Float("u_opacity")}
}

func (s screenShader) Vertex(in *render.VertexInput, out *render.VertexOutput) { quadVertex(in, out) }

func (s screenShader) Fragment(in *render.FragmentInput) (render.Color, bool) {
	c := s.screen.Sample(in.Varyings[0], in.Varyings[1])
	c.A *= s.opacity
	return c, true
}

// point_age

type pointAgeKernel struct{}

type pointAgeShader struct {
	windParams
	pos, age       render.Sampled
	speedFactor    float32
	dropRate       float32
	spdMin, spdMax float32
}

func (pointAgeKernel) Prepare(env *render.Env) render.Shader {
	return pointAgeShader{
		windParams:  loadWind(env),
		pos:         env.Texture("u_pos"),
		age:         env.Texture("u_age"),
		speedFactor: env.Float("u_speed_factor"),
		dropRate:    env.Float("u_drop_rate"),
		spdMin:      env.Float("u_spd_min"),
		spdMax:      env.Float("u_spd_max"),
	}
}

func (s pointAgeShader) Vertex(in *render.VertexInput, out *render.VertexOutput) { quadVertex(in, out) }

func (s pointAgeShader) Fragment(in *render.FragmentInput) (render.Color, bool) {
	u, v := in.Varyings[0], in.Varyings[1]
	pos := decodePos(s.pos.Sample(u, v))
	age := decodeAge(s.age.Sample(u, v))
	vel := s.velocity(pos)
	next := pos.add(offset(vel, s.speedFactor))

	calm := s.dropRate * (2 - speedT(vel.length(), s.spdMin, s.spdMax))
	rate := mix(calm, 1-s.dropRate, isOutside(next))
	hi, lo := encodeAge(fract(min(age+rate, 1)))
	return render.Color{R: hi, G: lo, B: 0, A: 1}, true
}

// point_update

type pointUpdateKernel struct{}

type pointUpdateShader struct {
	windParams
	pos, age    render.Sampled
	speedFactor float32
	randSeed    float32
}

func (pointUpdateKernel) Prepare(env *render.Env) render.Shader {
	return pointUpdateShader{
		windParams:  loadWind(env),
		pos:         env.Texture("u_pos"),
		age:         env.Texture("u_age"),
		speedFactor: env.Float("u_speed_factor"),
		randSeed:    env.Float("u_rand_seed"),
	}
}

func (s pointUpdateShader) Vertex(in *render.VertexInput, out *render.VertexOutput) {
	quadVertex(in, out)
}

func (s pointUpdateShader) Fragment(in *render.FragmentInput) (render.Color, bool) {
	uv := vec2{in.Varyings[0], in.Varyings[1]}
	pos := decodePos(s.pos.Sample(uv[0], uv[1]))
	age := decodeAge(s.age.Sample(uv[0], uv[1]))
	vel := s.velocity(pos)

	pos1 := pos.add(offset(vel, s.speedFactor))
	pos1 = mix2(pos1, pos, isOutside(pos1))

	drop := floor(1 - age)
	seed := pos.add(uv).scale(s.randSeed)
	respawn := vec2{rand(seed.addScalar(1.3)), rand(seed.addScalar(2.1))}
	return encodePos(mix2(pos1, respawn, drop)), true
}

// point_draw

type pointDrawKernel struct{}

type pointDrawShader struct {
	windParams
	pos, ramp      render.Sampled
	spdMin, spdMax float32
}

func (pointDrawKernel) Prepare(env *render.Env) render.Shader {
	return pointDrawShader{
		windParams: loadWind(env),
		pos:        env.Texture("u_pos"),
		ramp:       env.Texture("u_ramp"),
		spdMin:     env.Float("u_spd_min"),
		spdMax:     env.Float("u_spd_max"),
	}
}

func (s pointDrawShader) Vertex(in *render.VertexInput, out *render.VertexOutput) {
	idx := in.Attributes[0]
	p := decodePos(s.pos.Sample(idx[0], idx[1]))
	out.Position = [4]float32{2*p[0] - 1, 1 - 2*p[1], 0, 1}
	out.Varyings[0], out.Varyings[1] = p[0], p[1]
}

func (s pointDrawShader) Fragment(in *render.FragmentInput) (render.Color, bool) {
	p := vec2{in.Varyings[0], in.Varyings[1]}
	t := speedT(s.velocity(p).length(), s.spdMin, s.spdMax)
	return s.ramp.Sample(rampCoord(t)), true
}

// ribbon_age

type ribbonAgeKernel struct{}

type ribbonAgeShader struct {
	windParams
	pos, age       render.Sampled
	res            vec2
	speedFactor    float32
	dropRate       float32
	spdMin, spdMax float32
	tail           float32
}

func (ribbonAgeKernel) Prepare(env *render.Env) render.Shader {
	return ribbonAgeShader{
		windParams:  loadWind(env),
		pos:         env.Texture("u_pos"),
		age:         env.Texture("u_age"),
		res:         env.Vec2("u_res"),
		speedFactor: env.Float("u_speed_factor"),
		dropRate:    env.Float("u_drop_rate"),
		spdMin:      env.Float("u_spd_min"),
		spdMax:      env.Float("u_spd_max"),
		tail:        env.Float("u_tail"),
	}
}

func (s ribbonAgeShader) Vertex(in *render.VertexInput, out *render.VertexOutput) { quadVertex(in, out) }

func (s ribbonAgeShader) Fragment(in *render.FragmentInput) (render.Color, bool) {
	u, v := in.Varyings[0], in.Varyings[1]
	state := s.age.Sample(u, v)
	period := s.tail * 0.9
	tick := floor(state.B*255 + 1.5)
	counter := tick - floor(tick/period)*period
	updateAge := 1 - clamp(counter, 0, 1)

	pos := decodePos(s.pos.Sample(u, v))
	vel := s.velocity(pos)
	next := pos.add(offset(vel, s.speedFactor))
	calm := s.dropRate * (2 - speedT(vel.length(), s.spdMin, s.spdMax))
	rate := mix(calm, 1-s.dropRate, isOutside(next))

	age := decodeAge(state)
	expired := floor(1 - fract(age))
	prevAge := decodeAge(s.age.Sample(u-1/s.res[0], v))
	age1 := fract(min(age+rate, 1))
	age1 = mix(age, age1, min(updateAge+expired, 1))
	age1 = mix(prevAge, age1, step(u, 1/s.res[0]))
	hi, lo := encodeAge(age1)
	return render.Color{R: hi, G: lo, B: counter / 255, A: 0}, true
}

// ribbon_update

type ribbonUpdateKernel struct{}

type ribbonUpdateShader struct {
	windParams
	pos, age    render.Sampled
	res         vec2
	speedFactor float32
	randSeed    float32
}

func (ribbonUpdateKernel) Prepare(env *render.Env) render.Shader {
	return ribbonUpdateShader{
		windParams:  loadWind(env),
		pos:         env.Texture("u_pos"),
		age:         env.Texture("u_age"),
		res:         env.Vec2("u_res"),
		speedFactor: env.Float("u_speed_factor"),
		randSeed:    env.Float("u_rand_seed"),
	}
}

func (s ribbonUpdateShader) Vertex(in *render.VertexInput, out *render.VertexOutput) {
	quadVertex(in, out)
}

func (s ribbonUpdateShader) Fragment(in *render.FragmentInput) (render.Color, bool) {
	uv := vec2{in.Varyings[0], in.Varyings[1]}
	pos := decodePos(s.pos.Sample(uv[0], uv[1]))
	age := decodeAge(s.age.Sample(uv[0], uv[1]))
	posPrev := decodePos(s.pos.Sample(uv[0]-1/s.res[0], uv[1]))
	head := step(uv[0], 1/s.res[0])
	vel := s.velocity(pos)

	pos1 := pos.add(offset(vel, s.speedFactor).scale(head))
	pos1 = mix2(pos1, pos, isOutside(pos1))
	drop := floor(1-age) * head
	seed := pos.add(uv).scale(s.randSeed)
	respawn := vec2{rand(seed.addScalar(1.3)), rand(seed.addScalar(2.1))}
	pos1 = mix2(pos1, respawn, drop)
	pos1 = mix2(posPrev, pos1, head)
	return encodePos(pos1), true
}

// ribbon_draw

type ribbonDrawKernel struct{}

type ribbonDrawShader struct {
	windParams
	pos, age, ramp render.Sampled
	res            vec2
	spdMin, spdMax float32
}

func (ribbonDrawKernel) Prepare(env *render.Env) render.Shader {
	return ribbonDrawShader{
		windParams: loadWind(env),
		pos:        env.Texture("u_pos"),
		age:        env.Texture("u_age"),
		ramp:       env.Texture("u_ramp"),
		res:        env.Vec2("u_res"),
		spdMin:     env.Float("u_spd_min"),
		spdMax:     env.Float("u_spd_max"),
	}
}

func (s ribbonDrawShader) Vertex(in *render.VertexInput, out *render.VertexOutput) {
	idx := vec2{in.Attributes[0][0], in.Attributes[0][1]}
	role := in.Attributes[1][0]
	next := vec2{idx[0] + 1/s.res[0], idx[1]}

	p := decodePos(s.pos.Sample(idx[0], idx[1]))
	pNext := decodePos(s.pos.Sample(next[0], next[1]))
	age := decodeAge(s.age.Sample(idx[0], idx[1]))
	ageNext := decodeAge(s.age.Sample(next[0], next[1]))
	collapse := (1 - step(ageNext, age)) * role
	q := mix2(p, pNext, collapse)

	out.Position = [4]float32{2*q[0] - 1, 1 - 2*q[1], 0, 1}
	out.Varyings[0], out.Varyings[1], out.Varyings[2] = q[0], q[1], age
}

func (s ribbonDrawShader) Fragment(in *render.FragmentInput) (render.Color, bool) {
	p := vec2{in.Varyings[0], in.Varyings[1]}
	age := in.Varyings[2]
	t := speedT(s.velocity(p).length(), s.spdMin, s.spdMax)
	c := s.ramp.Sample(rampCoord(t))
	c.A *= max(1-age, 0.2)
	return c, true
}
