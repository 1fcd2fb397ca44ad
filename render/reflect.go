package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// SamplerSuffix names the sampler that accompanies every texture:
// texture "u_wind" is sampled through "u_wind_sampler".
const SamplerSuffix = "_sampler"

// stageModule is one stage lowered to naga IR.
type stageModule struct {
	stage  Stage
	source string
	module *ir.Module
	entry  *ir.EntryPoint
}

// compileStage parses, lowers and validates one WGSL module and locates
// its entry point for the stage.
func compileStage(program string, stage Stage, source string) (*stageModule, error) {
	fail := func(msg string) error {
		return &ShaderCompileError{Program: program, Stage: stage, Log: msg}
	}

	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fail(err.Error())
	}
	mod, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fail(err.Error())
	}
	verrs, err := naga.Validate(mod)
	if err != nil {
		return nil, fail(err.Error())
	}
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i := range verrs {
			msgs[i] = verrs[i].Error()
		}
		return nil, fail(strings.Join(msgs, "; "))
	}

	want := ir.StageVertex
	if stage == StageFragment {
		want = ir.StageFragment
	}
	for i := range mod.EntryPoints {
		if mod.EntryPoints[i].Stage == want {
			return &stageModule{stage: stage, source: source, module: mod, entry: &mod.EntryPoints[i]}, nil
		}
	}
	return nil, fail(fmt.Sprintf("no @%s entry point", stage))
}

// ioVar is a location-bound stage input or output.
type ioVar struct {
	name       string
	location   int
	components int
}

// floatComponents reports the component count of an f32 scalar or vector type.
func floatComponents(mod *ir.Module, h ir.TypeHandle) (int, bool) {
	if int(h) >= len(mod.Types) {
		return 0, false
	}
	switch t := mod.Types[h].Inner.(type) {
	case ir.ScalarType:
		return 1, t.Kind == ir.ScalarFloat
	case ir.VectorType:
		return int(t.Size), t.Scalar.Kind == ir.ScalarFloat
	}
	return 0, false
}

func structMembers(mod *ir.Module, h ir.TypeHandle) ([]ir.StructMember, uint32, bool) {
	if int(h) >= len(mod.Types) {
		return nil, 0, false
	}
	st, ok := mod.Types[h].Inner.(ir.StructType)
	if !ok {
		return nil, 0, false
	}
	return st.Members, st.Span, true
}

// collectIO flattens a binding and type into location-bound variables.
// Struct types contribute their members. position reports a
// @builtin(position) among them.
func collectIO(mod *ir.Module, name string, binding *ir.Binding, h ir.TypeHandle, out *[]ioVar) (position bool, err error) {
	if binding == nil {
		members, _, ok := structMembers(mod, h)
		if !ok {
			return false, fmt.Errorf("%s has no binding", name)
		}
		for _, m := range members {
			p, err := collectIO(mod, m.Name, m.Binding, m.Type, out)
			if err != nil {
				return false, err
			}
			position = position || p
		}
		return position, nil
	}
	switch b := (*binding).(type) {
	case ir.BuiltinBinding:
		return b.Builtin == ir.BuiltinPosition, nil
	case ir.LocationBinding:
		n, ok := floatComponents(mod, h)
		if !ok {
			return false, fmt.Errorf("%s: only f32 scalars and vectors are supported at @location(%d)", name, b.Location)
		}
		*out = append(*out, ioVar{name: name, location: int(b.Location), components: n})
	}
	return false, nil
}

func stageInputs(s *stageModule) ([]ioVar, error) {
	var vars []ioVar
	for _, arg := range s.entry.Function.Arguments {
		if _, err := collectIO(s.module, arg.Name, arg.Binding, arg.Type, &vars); err != nil {
			return nil, err
		}
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].location < vars[j].location })
	return vars, nil
}

func stageOutputs(s *stageModule) ([]ioVar, bool, error) {
	res := s.entry.Function.Result
	if res == nil {
		return nil, false, nil
	}
	var vars []ioVar
	pos, err := collectIO(s.module, "result", res.Binding, res.Type, &vars)
	if err != nil {
		return nil, false, err
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].location < vars[j].location })
	return vars, pos, nil
}

type globalKind uint8

const (
	globalUniform globalKind = iota
	globalTexture
	globalSampler
)

func (k globalKind) String() string {
	switch k {
	case globalUniform:
		return "uniform buffer"
	case globalTexture:
		return "texture"
	default:
		return "sampler"
	}
}

// globalVar is a resource binding declared by at least one stage.
type globalVar struct {
	name    string
	binding int
	kind    globalKind
	stages  uint8
}

// stageBit returns the visibility bit of a stage.
func stageBit(s Stage) uint8 { return 1 << s }

func stageGlobals(s *stageModule) ([]globalVar, error) {
	var out []globalVar
	for _, g := range s.module.GlobalVariables {
		if g.Binding == nil {
			continue
		}
		if g.Binding.Group != 0 {
			return nil, fmt.Errorf("%s: only @group(0) is supported", g.Name)
		}
		gv := globalVar{name: g.Name, binding: int(g.Binding.Binding), stages: stageBit(s.stage)}
		switch g.Space {
		case ir.SpaceUniform:
			gv.kind = globalUniform
		case ir.SpaceHandle:
			switch s.module.Types[g.Type].Inner.(type) {
			case ir.ImageType:
				gv.kind = globalTexture
			case ir.SamplerType:
				gv.kind = globalSampler
			default:
				return nil, fmt.Errorf("%s: unsupported handle type", g.Name)
			}
		default:
			return nil, fmt.Errorf("%s: unsupported address space", g.Name)
		}
		out = append(out, gv)
	}
	return out, nil
}

// uniformLayout reflects the members of the uniform struct.
func uniformLayout(s *stageModule, name string) (map[string]Uniform, int, error) {
	for _, g := range s.module.GlobalVariables {
		if g.Name != name || g.Space != ir.SpaceUniform {
			continue
		}
		members, span, ok := structMembers(s.module, g.Type)
		if !ok {
			return nil, 0, fmt.Errorf("uniform %s must be a struct", name)
		}
		out := make(map[string]Uniform, len(members))
		for _, m := range members {
			n, ok := floatComponents(s.module, m.Type)
			if !ok {
				return nil, 0, fmt.Errorf("uniform member %s: only f32 scalars and vectors are supported", m.Name)
			}
			out[m.Name] = Uniform{Name: m.Name, Offset: int(m.Offset), Components: n}
		}
		return out, int(span), nil
	}
	return nil, 0, nil
}

// linked is the reflection result of two compatible stages.
type linked struct {
	attributes     []Attribute
	varyings       int
	uniforms       map[string]Uniform
	uniformName    string
	uniformBinding int
	uniformSize    int
	textures       []TextureBinding
}

// link checks that vs and fs fit together and merges their reflection.
func link(program string, vs, fs *stageModule) (*linked, error) {
	fail := func(format string, args ...any) error {
		return &ProgramLinkError{Program: program, Log: fmt.Sprintf(format, args...)}
	}

	ins, err := stageInputs(vs)
	if err != nil {
		return nil, fail("vertex input %v", err)
	}
	outs, hasPos, err := stageOutputs(vs)
	if err != nil {
		return nil, fail("vertex output %v", err)
	}
	if !hasPos {
		return nil, fail("vertex stage does not write @builtin(position)")
	}
	fsIns, err := stageInputs(fs)
	if err != nil {
		return nil, fail("fragment input %v", err)
	}
	byLoc := make(map[int]ioVar, len(outs))
	for _, o := range outs {
		byLoc[o.location] = o
	}
	for _, in := range fsIns {
		o, ok := byLoc[in.location]
		if !ok {
			return nil, fail("fragment input %s at @location(%d) is not written by the vertex stage", in.name, in.location)
		}
		if o.components != in.components {
			return nil, fail("@location(%d) is %d components in the vertex stage and %d in the fragment stage",
				in.location, o.components, in.components)
		}
	}

	l := &linked{uniformBinding: -1}
	for _, in := range ins {
		l.attributes = append(l.attributes, Attribute{Name: in.name, Location: in.location, Components: in.components})
	}
	for _, o := range outs {
		l.varyings += o.components
	}

	globals := make(map[int]*globalVar)
	names := make(map[string]int)
	for _, s := range []*stageModule{vs, fs} {
		gs, err := stageGlobals(s)
		if err != nil {
			return nil, fail("%s stage: %v", s.stage, err)
		}
		for _, g := range gs {
			if prev, ok := globals[g.binding]; ok {
				if prev.name != g.name || prev.kind != g.kind {
					return nil, fail("@binding(%d) is %s %s in one stage and %s %s in another",
						g.binding, prev.kind, prev.name, g.kind, g.name)
				}
				prev.stages |= g.stages
				continue
			}
			if b, ok := names[g.name]; ok && b != g.binding {
				return nil, fail("%s is bound at both @binding(%d) and @binding(%d)", g.name, b, g.binding)
			}
			gv := g
			globals[g.binding] = &gv
			names[g.name] = g.binding
		}
	}

	bindings := make([]int, 0, len(globals))
	for b := range globals {
		bindings = append(bindings, b)
	}
	sort.Ints(bindings)
	for _, b := range bindings {
		g := globals[b]
		switch g.kind {
		case globalUniform:
			if l.uniformBinding >= 0 {
				return nil, fail("more than one uniform buffer (%s, %s)", l.uniformName, g.name)
			}
			l.uniformName, l.uniformBinding = g.name, g.binding
		case globalTexture:
			sb, ok := names[g.name+SamplerSuffix]
			if !ok || globals[sb].kind != globalSampler {
				return nil, fail("texture %s has no sampler %s", g.name, g.name+SamplerSuffix)
			}
			l.textures = append(l.textures, TextureBinding{
				Name:           g.name,
				Binding:        g.binding,
				SamplerBinding: sb,
				Vertex:         g.stages&stageBit(StageVertex) != 0 || globals[sb].stages&stageBit(StageVertex) != 0,
				Fragment:       g.stages&stageBit(StageFragment) != 0 || globals[sb].stages&stageBit(StageFragment) != 0,
			})
		}
	}

	if l.uniformBinding >= 0 {
		l.uniforms = make(map[string]Uniform)
		for _, s := range []*stageModule{vs, fs} {
			members, span, err := uniformLayout(s, l.uniformName)
			if err != nil {
				return nil, fail("%s stage: %v", s.stage, err)
			}
			for name, u := range members {
				if prev, ok := l.uniforms[name]; ok && prev != u {
					return nil, fail("uniform member %s has different layouts in the two stages", name)
				}
				l.uniforms[name] = u
			}
			if span > l.uniformSize {
				l.uniformSize = span
			}
		}
		// Uniform buffers are bound in 16-byte units.
		l.uniformSize = (l.uniformSize + 15) &^ 15
	}
	return l, nil
}
