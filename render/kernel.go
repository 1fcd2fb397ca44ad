package render

import (
	"encoding/binary"
	"math"
)

// Limits of the CPU program interface.
const (
	MaxVaryings   = 8
	MaxAttributes = 4
)

// Varyings carries interpolated values from the vertex to the fragment stage.
type Varyings [MaxVaryings]float32

// VertexInput is one vertex as seen by a Shader. Attributes are indexed
// by @location and padded with zeros.
type VertexInput struct {
	Index      int
	Attributes [MaxAttributes][4]float32
}

// VertexOutput is the clip-space position plus varyings of one vertex.
type VertexOutput struct {
	Position [4]float32
	Varyings Varyings
}

// FragmentInput is one fragment: its pixel center in framebuffer
// coordinates and the interpolated varyings.
type FragmentInput struct {
	Position [2]float32
	Varyings Varyings
}

// Kernel is the CPU rendition of a program. Devices that cannot execute
// WGSL call Prepare once per draw with the program's uniform and texture
// state, then run the returned Shader for every vertex and fragment.
type Kernel interface {
	Prepare(env *Env) Shader
}

// Shader runs one draw's vertices and fragments. Fragment returns false
// to discard.
//
// A Shader may be called from several goroutines at once and must not
// mutate itself after Prepare returns.
type Shader interface {
	Vertex(in *VertexInput, out *VertexOutput)
	Fragment(in *FragmentInput) (Color, bool)
}

// TextureSampler samples device textures for Env. Implemented by the
// device executing the kernel.
type TextureSampler interface {
	Sample(t Texture, u, v float32) Color
}

// Env is a read-only view of a program's bindings for one draw.
type Env struct {
	program *Program
	sampler TextureSampler
}

// NewEnv returns the environment for p, sampling through s.
func NewEnv(p *Program, s TextureSampler) *Env {
	return &Env{program: p, sampler: s}
}

// Program returns the program being executed.
func (e *Env) Program() *Program { return e.program }

// Float returns the first component of a uniform, or 0.
func (e *Env) Float(name string) float32 {
	u, ok := e.program.uniforms[name]
	if !ok {
		return 0
	}
	return e.component(u, 0)
}

// Vec2 returns the first two components of a uniform, or zeros.
func (e *Env) Vec2(name string) [2]float32 {
	u, ok := e.program.uniforms[name]
	if !ok || u.Components < 2 {
		return [2]float32{}
	}
	return [2]float32{e.component(u, 0), e.component(u, 1)}
}

func (e *Env) component(u Uniform, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(e.program.block[u.Offset+4*i:]))
}

// Texture returns the texture bound to name. An unbound name yields a
// Sampled that returns transparent black.
func (e *Env) Texture(name string) Sampled {
	return Sampled{tex: e.program.BoundTexture(name), sampler: e.sampler}
}

// Sampled is a bound texture ready for sampling.
type Sampled struct {
	tex     Texture
	sampler TextureSampler
}

// Sample returns the texel color at normalized coordinates (u, v) using
// the texture's filter and clamp-to-edge addressing.
func (s Sampled) Sample(u, v float32) Color {
	if s.tex == nil {
		return Transparent
	}
	return s.sampler.Sample(s.tex, u, v)
}

// Size returns the texture dimensions, or zeros when unbound.
func (s Sampled) Size() (w, h int) {
	if s.tex == nil {
		return 0, 0
	}
	return s.tex.Width(), s.tex.Height()
}
