// Copyright 2026 The windgl Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render is the GPU resource layer every windgl pass runs on.
//
// It defines a small Device abstraction (textures, vertex buffers,
// framebuffers, pipelines, draws, readback) and the Program type that
// sits on top of it.
//
// # Programs
//
// A program is a pair of WGSL modules. CompileProgram parses, lowers and
// validates each stage with naga, checks that the stages link, and
// reflects the active attributes, the uniform block layout and the
// sampled textures once. Passes then address everything by name:
//
//	prog, err := render.CompileProgram(dev, render.ProgramSource{
//	    Label:    "screen",
//	    Vertex:   quadVS,
//	    Fragment: screenFS,
//	    Kernel:   screenKernel{},
//	})
//	prog.SetUniform("u_opacity", 0.96)
//	prog.BindTexture("u_screen", tex)
//	dev.Draw(&render.DrawCommand{Program: prog, Target: fb, ...})
//
// Every texture named x is sampled through a sampler named x_sampler.
// BindTexture allocates a texture unit on the first bind of a name and
// reuses it afterwards.
//
// # Devices
//
// Devices that execute WGSL (backend/wgpu) translate the reflected IR
// to their native shader format. Devices that do not (backend/soft) run
// the program's Kernel, a CPU rendition with the same inputs and
// outputs, through an Env that exposes uniforms and textures by name.
//
// # Conventions
//
// NDC y=+1 maps to framebuffer row 0 and texture coordinate (0,0) is
// texel (0,0), so textures and framebuffers share one row order. Points
// and lines are one pixel wide. Output is quantised to 8 bits per
// channel with round-to-nearest.
package render
