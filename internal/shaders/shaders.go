// Package shaders holds the windgl GPU programs.
//
// Each program is one WGSL module containing both entry points, built
// from common.wgsl, the quad vertex stage where the program is a
// full-screen pass, and the program body. Every program carries a CPU
// kernel with the same bindings for devices that cannot run WGSL.
package shaders

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/prajeeshag/windgl/render"
)

// Embedded WGSL shader sources.

//go:embed wgsl/common.wgsl
var commonSource string

//go:embed wgsl/quad.wgsl
var quadSource string

//go:embed wgsl/screen.wgsl
var screenSource string

//go:embed wgsl/point_age.wgsl
var pointAgeSource string

//go:embed wgsl/point_update.wgsl
var pointUpdateSource string

//go:embed wgsl/point_draw.wgsl
var pointDrawSource string

//go:embed wgsl/ribbon_age.wgsl
var ribbonAgeSource string

//go:embed wgsl/ribbon_update.wgsl
var ribbonUpdateSource string

//go:embed wgsl/ribbon_draw.wgsl
var ribbonDrawSource string

// Program names.
const (
	Screen       = "screen"
	PointAge     = "point_age"
	PointUpdate  = "point_update"
	PointDraw    = "point_draw"
	RibbonAge    = "ribbon_age"
	RibbonUpdate = "ribbon_update"
	RibbonDraw   = "ribbon_draw"
)

type entry struct {
	body   string
	quad   bool
	kernel render.Kernel
}

var programs = map[string]entry{
	Screen:       {body: screenSource, quad: true, kernel: screenKernel{}},
	PointAge:     {body: pointAgeSource, quad: true, kernel: pointAgeKernel{}},
	PointUpdate:  {body: pointUpdateSource, quad: true, kernel: pointUpdateKernel{}},
	PointDraw:    {body: pointDrawSource, kernel: pointDrawKernel{}},
	RibbonAge:    {body: ribbonAgeSource, quad: true, kernel: ribbonAgeKernel{}},
	RibbonUpdate: {body: ribbonUpdateSource, quad: true, kernel: ribbonUpdateKernel{}},
	RibbonDraw:   {body: ribbonDrawSource, kernel: ribbonDrawKernel{}},
}

// Names returns every program name, sorted.
func Names() []string {
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WGSL returns the complete module of a program.
func WGSL(name string) (string, error) {
	e, ok := programs[name]
	if !ok {
		return "", fmt.Errorf("shaders: unknown program %q", name)
	}
	src := commonSource + "\n"
	if e.quad {
		src += quadSource + "\n"
	}
	return src + e.body, nil
}

// Source returns the program source ready for render.CompileProgram.
func Source(name string) (render.ProgramSource, error) {
	src, err := WGSL(name)
	if err != nil {
		return render.ProgramSource{}, err
	}
	return render.ProgramSource{
		Label:    name,
		Vertex:   src,
		Fragment: src,
		Kernel:   programs[name].kernel,
	}, nil
}

// Compile compiles a program on dev.
func Compile(dev render.Device, name string) (*render.Program, error) {
	src, err := Source(name)
	if err != nil {
		return nil, err
	}
	return render.CompileProgram(dev, src)
}

// QuadVertices is the full-screen quad consumed by the a_pos attribute
// of every full-screen pass: two triangles in NDC.
var QuadVertices = []float32{-1, -1, 1, -1, -1, 1, -1, 1, 1, -1, 1, 1}
