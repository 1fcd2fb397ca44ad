package render

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/gogpu/naga/ir"
)

// DefaultTextureUnits is used when a device reports no unit limit.
const DefaultTextureUnits = 16

// ProgramSource is the input to CompileProgram.
type ProgramSource struct {
	// Label names the program in errors and logs.
	Label string

	// Vertex is a WGSL module with a @vertex entry point.
	Vertex string

	// Fragment is a WGSL module with a @fragment entry point.
	Fragment string

	// Kernel is the CPU rendition used by devices that do not execute WGSL.
	Kernel Kernel
}

// Attribute is an active vertex input.
type Attribute struct {
	Name       string
	Location   int
	Components int
}

// Uniform is a member of the program's uniform block.
type Uniform struct {
	Name       string
	Offset     int
	Components int
}

// TextureBinding is a sampled texture and its sampler.
type TextureBinding struct {
	Name           string
	Binding        int
	SamplerBinding int

	// Vertex and Fragment report the stages that reference the pair.
	Vertex, Fragment bool
}

// Program is a linked vertex + fragment pair with its reflection and
// per-program binding state.
//
// Uniform values and texture bindings persist between draws, the same
// way GL program state does, so a pass only updates what changed.
type Program struct {
	label    string
	device   Device
	vertex   *stageModule
	fragment *stageModule
	kernel   Kernel
	pipeline Pipeline

	attributes []Attribute
	attrIndex  map[string]int
	varyings   int

	uniforms       map[string]Uniform
	uniformName    string
	uniformBinding int
	block          []byte

	textures []TextureBinding
	texIndex map[string]int

	maxUnits int
	units    map[string]int
	bound    []Texture
}

// CompileProgram compiles both stages, links them, reflects every active
// attribute, uniform and texture, and creates the device pipeline.
func CompileProgram(dev Device, src ProgramSource) (*Program, error) {
	vs, err := compileStage(src.Label, StageVertex, src.Vertex)
	if err != nil {
		return nil, err
	}
	fs, err := compileStage(src.Label, StageFragment, src.Fragment)
	if err != nil {
		return nil, err
	}
	l, err := link(src.Label, vs, fs)
	if err != nil {
		return nil, err
	}

	caps := dev.Capabilities()
	if !caps.ExecutesWGSL && src.Kernel == nil {
		return nil, fmt.Errorf("%w: %q on %s", ErrNoKernel, src.Label, caps.Name)
	}
	maxUnits := caps.MaxTextureUnits
	if maxUnits <= 0 {
		maxUnits = DefaultTextureUnits
	}
	if len(l.textures) > maxUnits {
		return nil, &ProgramLinkError{Program: src.Label,
			Log: fmt.Sprintf("%d textures declared, device supports %d", len(l.textures), maxUnits)}
	}

	p := &Program{
		label:          src.Label,
		device:         dev,
		vertex:         vs,
		fragment:       fs,
		kernel:         src.Kernel,
		attributes:     l.attributes,
		attrIndex:      make(map[string]int, len(l.attributes)),
		varyings:       l.varyings,
		uniforms:       l.uniforms,
		uniformName:    l.uniformName,
		uniformBinding: l.uniformBinding,
		block:          make([]byte, l.uniformSize),
		textures:       l.textures,
		texIndex:       make(map[string]int, len(l.textures)),
		maxUnits:       maxUnits,
		units:          make(map[string]int),
	}
	for i, a := range p.attributes {
		p.attrIndex[a.Name] = i
	}
	for i, t := range p.textures {
		p.texIndex[t.Name] = i
	}

	p.pipeline, err = dev.CreatePipeline(p)
	if err != nil {
		return nil, fmt.Errorf("render: create pipeline for %q: %w", src.Label, err)
	}
	slogger().Debug("program linked",
		"program", src.Label,
		"attributes", len(p.attributes),
		"uniforms", len(p.uniforms),
		"textures", len(p.textures),
		"uniformBytes", len(p.block))
	return p, nil
}

// Label returns the program label.
func (p *Program) Label() string { return p.label }

// Device returns the device the program was compiled for.
func (p *Program) Device() Device { return p.device }

// Kernel returns the CPU rendition, or nil.
func (p *Program) Kernel() Kernel { return p.kernel }

// Pipeline returns the device pipeline.
func (p *Program) Pipeline() Pipeline { return p.pipeline }

// VertexModule returns the lowered vertex stage and its entry point name.
func (p *Program) VertexModule() (*ir.Module, string) {
	return p.vertex.module, p.vertex.entry.Name
}

// FragmentModule returns the lowered fragment stage and its entry point name.
func (p *Program) FragmentModule() (*ir.Module, string) {
	return p.fragment.module, p.fragment.entry.Name
}

// Sources returns the WGSL source of each stage.
func (p *Program) Sources() (vertex, fragment string) {
	return p.vertex.source, p.fragment.source
}

// Varyings returns the number of float components passed from the vertex
// to the fragment stage.
func (p *Program) Varyings() int { return p.varyings }

// Attributes returns the active attributes ordered by location.
func (p *Program) Attributes() []Attribute {
	out := make([]Attribute, len(p.attributes))
	copy(out, p.attributes)
	return out
}

// Attribute looks up an active attribute by name.
func (p *Program) Attribute(name string) (Attribute, bool) {
	i, ok := p.attrIndex[name]
	if !ok {
		return Attribute{}, false
	}
	return p.attributes[i], true
}

// Uniforms returns the uniform block members ordered by offset.
func (p *Program) Uniforms() []Uniform {
	out := make([]Uniform, 0, len(p.uniforms))
	for _, u := range p.uniforms {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// Uniform looks up a uniform block member by name.
func (p *Program) Uniform(name string) (Uniform, bool) {
	u, ok := p.uniforms[name]
	return u, ok
}

// UniformBinding returns the binding of the uniform buffer, or -1.
func (p *Program) UniformBinding() int { return p.uniformBinding }

// UniformBlock returns the packed uniform bytes. The slice aliases the
// program state and must not be retained across SetUniform calls.
func (p *Program) UniformBlock() []byte { return p.block }

// Textures returns the sampled textures ordered by binding.
func (p *Program) Textures() []TextureBinding {
	out := make([]TextureBinding, len(p.textures))
	copy(out, p.textures)
	return out
}

// SetUniform stores a uniform value. The number of values must match the
// member's component count.
func (p *Program) SetUniform(name string, values ...float32) error {
	u, ok := p.uniforms[name]
	if !ok {
		return fmt.Errorf("%w: %q in %q", ErrUnknownUniform, name, p.label)
	}
	if len(values) != u.Components {
		return fmt.Errorf("%w: %q wants %d, got %d", ErrUniformSize, name, u.Components, len(values))
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(p.block[u.Offset+4*i:], math.Float32bits(v))
	}
	return nil
}

// UniformValue returns the stored value of a uniform, or nil.
func (p *Program) UniformValue(name string) []float32 {
	u, ok := p.uniforms[name]
	if !ok {
		return nil
	}
	out := make([]float32, u.Components)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p.block[u.Offset+4*i:]))
	}
	return out
}

// BindTexture binds tex to the texture named name and returns its unit.
//
// The first bind of a name allocates the next free unit; later binds
// reuse that unit for the lifetime of the program, so every texture of a
// multi-texture draw keeps a stable slot.
func (p *Program) BindTexture(name string, tex Texture) (int, error) {
	if _, ok := p.texIndex[name]; !ok {
		return -1, fmt.Errorf("%w: texture %q in %q", ErrUnknownUniform, name, p.label)
	}
	if unit, ok := p.units[name]; ok {
		p.bound[unit] = tex
		return unit, nil
	}
	if len(p.bound) >= p.maxUnits {
		return -1, fmt.Errorf("%w: %q needs unit %d of %d", ErrTextureUnitsExhausted, name, len(p.bound), p.maxUnits)
	}
	unit := len(p.bound)
	p.units[name] = unit
	p.bound = append(p.bound, tex)
	return unit, nil
}

// TextureUnit returns the unit allocated to a texture name.
func (p *Program) TextureUnit(name string) (int, bool) {
	u, ok := p.units[name]
	return u, ok
}

// BoundTexture returns the texture currently bound to name, or nil.
func (p *Program) BoundTexture(name string) Texture {
	u, ok := p.units[name]
	if !ok {
		return nil
	}
	return p.bound[u]
}

// Destroy releases the device pipeline. The program must not be used afterwards.
func (p *Program) Destroy() {
	if p.pipeline != nil {
		p.device.DestroyPipeline(p.pipeline)
		p.pipeline = nil
	}
	p.bound = nil
	p.units = make(map[string]int)
}
