package wgpu

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"github.com/gogpu/wgpu/hal"

	"github.com/prajeeshag/windgl/internal/cache"
	"github.com/prajeeshag/windgl/render"
)

// variant selects one render pipeline of a program.
type variant struct {
	primitive render.Primitive
	blend     render.Blend
}

// pipeline holds the shader modules and layouts of a program. Render
// pipelines are built on first use per primitive and blend.
type pipeline struct {
	dev     *Device
	label   string
	vertex  hal.ShaderModule
	vsEntry string
	frag    hal.ShaderModule
	fsEntry string
	group   hal.BindGroupLayout
	layout  hal.PipelineLayout
	buffers []gputypes.VertexBufferLayout

	variants  map[variant]hal.RenderPipeline
	destroyed bool
}

func (p *pipeline) Label() string { return p.label }

// spirvWords lowers one stage to SPIR-V. Points are rasterized at 1px,
// which Vulkan requires the vertex stage to write.
func spirvWords(mod *ir.Module, pointSize bool) ([]uint32, error) {
	code, err := naga.GenerateSPIRV(mod, spirv.Options{
		Version:        spirv.Version1_3,
		ForcePointSize: pointSize,
	})
	if err != nil {
		return nil, err
	}
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V is %d bytes, not whole words", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[4*i:])
	}
	return words, nil
}

// spirvKey identifies one lowered stage.
type spirvKey struct {
	source    [sha256.Size]byte
	entry     string
	pointSize bool
}

// spirvCache is shared by all devices; SPIR-V does not depend on the adapter.
var spirvCache = cache.New[spirvKey, []uint32](64)

func lowerStage(source, entry string, mod *ir.Module, pointSize bool) ([]uint32, error) {
	k := spirvKey{source: sha256.Sum256([]byte(source)), entry: entry, pointSize: pointSize}
	return spirvCache.GetOrCreate(k, func() ([]uint32, error) {
		return spirvWords(mod, pointSize)
	})
}

func vertexFormat(components int) (gputypes.VertexFormat, error) {
	switch components {
	case 1:
		return gputypes.VertexFormatFloat32, nil
	case 2:
		return gputypes.VertexFormatFloat32x2, nil
	case 3:
		return gputypes.VertexFormatFloat32x3, nil
	case 4:
		return gputypes.VertexFormatFloat32x4, nil
	}
	return 0, fmt.Errorf("%d components", components)
}

func visibility(vertex, fragment bool) gputypes.ShaderStages {
	var s gputypes.ShaderStages
	if vertex {
		s |= gputypes.ShaderStageVertex
	}
	if fragment {
		s |= gputypes.ShaderStageFragment
	}
	return s
}

// CreatePipeline compiles both stages to SPIR-V and builds the bind
// group and pipeline layouts from the program's reflection.
func (d *Device) CreatePipeline(p *render.Program) (render.Pipeline, error) {
	if d.closed {
		return nil, render.ErrDestroyed
	}
	pl := &pipeline{dev: d, label: p.Label(), variants: make(map[variant]hal.RenderPipeline)}
	ok := false
	defer func() {
		if !ok {
			d.destroyPipeline(pl)
		}
	}()

	vmod, ventry := p.VertexModule()
	fmod, fentry := p.FragmentModule()
	pl.vsEntry, pl.fsEntry = ventry, fentry

	vsrc, fsrc := p.Sources()
	vcode, err := lowerStage(vsrc, ventry, vmod, true)
	if err != nil {
		return nil, fmt.Errorf("wgpu: %q vertex stage: %w", p.Label(), err)
	}
	fcode, err := lowerStage(fsrc, fentry, fmod, false)
	if err != nil {
		return nil, fmt.Errorf("wgpu: %q fragment stage: %w", p.Label(), err)
	}
	if pl.vertex, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: p.Label() + "/vs", Source: hal.ShaderSource{SPIRV: vcode},
	}); err != nil {
		return nil, fmt.Errorf("wgpu: %q vertex module: %w", p.Label(), err)
	}
	if pl.frag, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: p.Label() + "/fs", Source: hal.ShaderSource{SPIRV: fcode},
	}); err != nil {
		return nil, fmt.Errorf("wgpu: %q fragment module: %w", p.Label(), err)
	}

	var entries []gputypes.BindGroupLayoutEntry
	if b := p.UniformBinding(); b >= 0 {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(b),
			Visibility: gputypes.ShaderStagesVertexFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	for _, t := range p.Textures() {
		vis := visibility(t.Vertex, t.Fragment)
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding:    uint32(t.Binding),
				Visibility: vis,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding:    uint32(t.SamplerBinding),
				Visibility: vis,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			})
	}
	if pl.group, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: p.Label() + "/group", Entries: entries,
	}); err != nil {
		return nil, fmt.Errorf("wgpu: %q bind group layout: %w", p.Label(), err)
	}
	if pl.layout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: p.Label() + "/layout", BindGroupLayouts: []hal.BindGroupLayout{pl.group},
	}); err != nil {
		return nil, fmt.Errorf("wgpu: %q pipeline layout: %w", p.Label(), err)
	}

	// One vertex buffer per attribute, in location order.
	for _, a := range p.Attributes() {
		f, err := vertexFormat(a.Components)
		if err != nil {
			return nil, fmt.Errorf("wgpu: %q attribute %s: %w", p.Label(), a.Name, err)
		}
		pl.buffers = append(pl.buffers, gputypes.VertexBufferLayout{
			ArrayStride: uint64(4 * a.Components),
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes:  []gputypes.VertexAttribute{{Format: f, ShaderLocation: uint32(a.Location)}},
		})
	}

	ok = true
	d.live.Pipelines++
	slogger().Debug("wgpu pipeline created", "program", p.Label(),
		"spirvWords", len(vcode)+len(fcode), "bindings", len(entries))
	return pl, nil
}

// renderPipeline returns the pipeline for v, building it on first use.
func (pl *pipeline) renderPipeline(v variant) (hal.RenderPipeline, error) {
	if rp, ok := pl.variants[v]; ok {
		return rp, nil
	}
	topology := gputypes.PrimitiveTopologyTriangleList
	switch v.primitive {
	case render.Points:
		topology = gputypes.PrimitiveTopologyPointList
	case render.Lines:
		topology = gputypes.PrimitiveTopologyLineList
	}
	target := gputypes.ColorTargetState{Format: textureFormat, WriteMask: gputypes.ColorWriteMaskAll}
	if v.blend == render.BlendAlpha {
		b := gputypes.BlendStateAlpha()
		target.Blend = &b
	}
	rp, err := pl.dev.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("%s/%s/%s", pl.label, v.primitive, v.blend),
		Layout: pl.layout,
		Vertex: hal.VertexState{
			Module:     pl.vertex,
			EntryPoint: pl.vsEntry,
			Buffers:    pl.buffers,
		},
		Primitive:   gputypes.PrimitiveState{Topology: topology},
		Multisample: gputypes.DefaultMultisampleState(),
		Fragment: &hal.FragmentState{
			Module:     pl.frag,
			EntryPoint: pl.fsEntry,
			Targets:    []gputypes.ColorTargetState{target},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: %q render pipeline (%s, %s): %w", pl.label, v.primitive, v.blend, err)
	}
	pl.variants[v] = rp
	return rp, nil
}

// DestroyPipeline releases a pipeline and every variant built from it.
func (d *Device) DestroyPipeline(rp render.Pipeline) {
	pl, ok := rp.(*pipeline)
	if !ok || pl.dev != d || pl.destroyed {
		return
	}
	pl.destroyed = true
	d.live.Pipelines--
	d.retire(func() { d.destroyPipeline(pl) })
}

func (d *Device) destroyPipeline(pl *pipeline) {
	for _, rp := range pl.variants {
		d.device.DestroyRenderPipeline(rp)
	}
	if pl.layout != nil {
		d.device.DestroyPipelineLayout(pl.layout)
	}
	if pl.group != nil {
		d.device.DestroyBindGroupLayout(pl.group)
	}
	if pl.frag != nil {
		d.device.DestroyShaderModule(pl.frag)
	}
	if pl.vertex != nil {
		d.device.DestroyShaderModule(pl.vertex)
	}
}

// Draw encodes one render pass that loads the target, draws cmd and
// stores the result.
func (d *Device) Draw(cmd *render.DrawCommand) error {
	if d.closed {
		return render.ErrDestroyed
	}
	if err := cmd.Validate(); err != nil {
		return err
	}
	f, err := d.framebuffer(cmd.Target)
	if err != nil {
		return err
	}
	prog := cmd.Program
	pl, ok := prog.Pipeline().(*pipeline)
	if !ok || pl.dev != d || pl.destroyed {
		return fmt.Errorf("%w: pipeline of %q", render.ErrForeignResource, prog.Label())
	}
	vp := cmd.ViewportRect().Intersect(image.Rect(0, 0, f.tex.w, f.tex.h))
	if cmd.VertexCount == 0 || vp.Empty() {
		return nil
	}
	rp, err := pl.renderPipeline(variant{primitive: cmd.Primitive, blend: cmd.Blend})
	if err != nil {
		return err
	}

	attrs := prog.Attributes()
	vbufs := make([]*buffer, len(attrs))
	for i, a := range attrs {
		if vbufs[i], err = d.buffer(cmd.AttributeBuffer(a.Name)); err != nil {
			return err
		}
	}

	var (
		entries  []gputypes.BindGroupEntry
		barriers []hal.TextureBarrier
		uniforms hal.Buffer
	)
	release := func() {
		if uniforms != nil {
			d.device.DestroyBuffer(uniforms)
		}
	}
	if b := prog.UniformBinding(); b >= 0 {
		block := prog.UniformBlock()
		uniforms, err = d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: cmd.Label + "/uniforms",
			Size:  uint64(len(block)),
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgpu: %q uniforms: %w", cmd.Label, err)
		}
		if err := d.queue.WriteBuffer(uniforms, 0, block); err != nil {
			release()
			return fmt.Errorf("wgpu: %q uniforms: %w", cmd.Label, err)
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(b),
			Resource: gputypes.BufferBinding{Buffer: uniforms.NativeHandle(), Size: uint64(len(block))},
		})
	}
	for _, tb := range prog.Textures() {
		t, err := d.texture(prog.BoundTexture(tb.Name))
		if err != nil {
			release()
			return err
		}
		if t == f.tex {
			release()
			return fmt.Errorf("wgpu: draw %q samples its own target %q", cmd.Label, t.label)
		}
		if b, ok := t.barrier(gputypes.TextureUsageTextureBinding); ok {
			barriers = append(barriers, b)
		}
		entries = append(entries,
			gputypes.BindGroupEntry{Binding: uint32(tb.Binding), Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}},
			gputypes.BindGroupEntry{Binding: uint32(tb.SamplerBinding), Resource: gputypes.SamplerBinding{Sampler: t.sampler.NativeHandle()}},
		)
	}
	if b, ok := f.tex.barrier(gputypes.TextureUsageRenderAttachment); ok {
		barriers = append(barriers, b)
	}

	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: cmd.Label, Layout: pl.group, Entries: entries,
	})
	if err != nil {
		release()
		return fmt.Errorf("wgpu: %q bind group: %w", cmd.Label, err)
	}
	done := func() {
		d.device.DestroyBindGroup(group)
		release()
	}

	err = d.encode(cmd.Label, func(enc hal.CommandEncoder) error {
		if len(barriers) > 0 {
			enc.TransitionTextures(barriers)
		}
		pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: cmd.Label,
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:    f.tex.view,
				LoadOp:  gputypes.LoadOpLoad,
				StoreOp: gputypes.StoreOpStore,
			}},
		})
		pass.SetPipeline(rp)
		pass.SetBindGroup(0, group, nil)
		for i, b := range vbufs {
			pass.SetVertexBuffer(uint32(i), b.raw, 0)
		}
		full := cmd.ViewportRect()
		pass.SetViewport(float32(full.Min.X), float32(full.Min.Y), float32(full.Dx()), float32(full.Dy()), 0, 1)
		pass.SetScissorRect(uint32(vp.Min.X), uint32(vp.Min.Y), uint32(vp.Dx()), uint32(vp.Dy()))
		pass.Draw(uint32(cmd.VertexCount), 1, 0, 0)
		pass.End()
		return nil
	}, done)
	if err != nil {
		done()
	}
	return err
}
