package shaders

import (
	"math"

	"github.com/prajeeshag/windgl/render"
)

// vec2 mirrors vec2<f32>.
type vec2 [2]float32

func (a vec2) add(b vec2) vec2      { return vec2{a[0] + b[0], a[1] + b[1]} }
func (a vec2) scale(s float32) vec2 { return vec2{a[0] * s, a[1] * s} }
func (a vec2) addScalar(s float32) vec2 {
	return vec2{a[0] + s, a[1] + s}
}
func (a vec2) length() float32 {
	return float32(math.Hypot(float64(a[0]), float64(a[1])))
}

func fract(v float32) float32 { return v - floor(v) }
func floor(v float32) float32 { return float32(math.Floor(float64(v))) }

func mix(a, b, t float32) float32 { return a + (b-a)*t }

func mix2(a, b vec2, t float32) vec2 {
	return vec2{mix(a[0], b[0], t), mix(a[1], b[1], t)}
}

func mixVec(a, b, t vec2) vec2 {
	return vec2{mix(a[0], b[0], t[0]), mix(a[1], b[1], t[1])}
}

func step(edge, v float32) float32 {
	if v < edge {
		return 0
	}
	return 1
}

func clamp(v, lo, hi float32) float32 { return min(max(v, lo), hi) }

func rand(co vec2) float32 {
	t := 12.9898*co[0] + 78.233*co[1]
	return fract(float32(math.Sin(float64(t))) * (4375.85453 + t))
}

func decodePos(c render.Color) vec2 {
	return vec2{c.R/255 + c.B, c.G/255 + c.A}
}

func encodePos(p vec2) render.Color {
	return render.Color{
		R: fract(p[0] * 255),
		G: fract(p[1] * 255),
		B: floor(p[0]*255) / 255,
		A: floor(p[1]*255) / 255,
	}
}

func decodeAge(c render.Color) float32 { return c.R + c.G/255 }

func encodeAge(a float32) (hi, lo float32) {
	return floor(a*255) / 255, fract(a * 255)
}

func isOutside(p vec2) float32 {
	out := step(1, abs(p[0]*2-1)) + step(1, abs(p[1]*2-1))
	return min(out, 1)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// speedT maps a speed into [0, 1] of the color range. Equal bounds
// give 0 at or below the bound and 1 above it.
func speedT(speed, lo, hi float32) float32 {
	if span := hi - lo; span > 0 {
		return clamp((speed-lo)/span, 0, 1)
	}
	if speed > lo {
		return 1
	}
	return 0
}

func rampCoord(t float32) (u, v float32) {
	return fract(16 * t), floor(16*t) / 16
}

// windParams are the uniforms every field lookup needs.
type windParams struct {
	wind     render.Sampled
	min, max vec2
	origin   vec2
	size     vec2
	timeFac  float32
}

func loadWind(env *render.Env) windParams {
	return windParams{
		wind:    env.Texture("u_wind"),
		min:     env.Vec2("u_wind_min"),
		max:     env.Vec2("u_wind_max"),
		origin:  env.Vec2("u_origin"),
		size:    env.Vec2("u_size"),
		timeFac: env.Float("u_time_fac"),
	}
}

// velocity samples the field at normalized canvas position p and
// blends the two timesteps of the pair.
func (w *windParams) velocity(p vec2) vec2 {
	uv := vec2{w.origin[0] + p[0]*w.size[0], w.origin[1] + p[1]*w.size[1]}
	c := w.wind.Sample(uv[0], uv[1])
	blended := mix2(vec2{c.R, c.G}, vec2{c.B, c.A}, w.timeFac)
	return mixVec(w.min, w.max, blended)
}

// offset is the per-tick displacement of a particle at p.
func offset(v vec2, speedFactor float32) vec2 {
	return vec2{v[0], -v[1]}.scale(0.0001 * speedFactor)
}

// quadVertex is the CPU rendition of quad.wgsl.
func quadVertex(in *render.VertexInput, out *render.VertexOutput) {
	x, y := in.Attributes[0][0], in.Attributes[0][1]
	out.Position = [4]float32{x, y, 0, 1}
	out.Varyings[0] = (x + 1) * 0.5
	out.Varyings[1] = (1 - y) * 0.5
}
