package layer

import (
	"image"
	"math"

	"github.com/prajeeshag/windgl"
)

// Bounds is a geographic extent in degrees.
type Bounds struct {
	West, North, East, South float64
}

// Projector maps geographic coordinates to container pixels, with y
// growing downwards.
type Projector interface {
	Project(lon, lat float64) (x, y float64)
}

// ProjectorFunc adapts a function to the Projector interface.
type ProjectorFunc func(lon, lat float64) (x, y float64)

// Project calls f(lon, lat).
func (f ProjectorFunc) Project(lon, lat float64) (x, y float64) { return f(lon, lat) }

// Rect is a rectangle in container pixels with fractional edges.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Dx returns the width of r.
func (r Rect) Dx() float64 { return r.MaxX - r.MinX }

// Dy returns the height of r.
func (r Rect) Dy() float64 { return r.MaxY - r.MinY }

// Project returns the pixel rectangle covered by b. The corners are
// normalized so that Min is the top-left one whatever the projection
// does with the axes.
func (b Bounds) Project(p Projector) Rect {
	x0, y0 := p.Project(b.West, b.North)
	x1, y1 := p.Project(b.East, b.South)
	return Rect{
		MinX: math.Min(x0, x1), MinY: math.Min(y0, y1),
		MaxX: math.Max(x0, x1), MaxY: math.Max(y0, y1),
	}
}

// Canvas is the part of the container the engine draws into, and the
// part of the field that shows through it.
type Canvas struct {
	// Rect is the canvas in container pixels. It is empty when the
	// grid is off screen.
	Rect image.Rectangle

	// Origin and Size are the viewport mapping: the canvas as a
	// fraction of the grid's extent.
	Origin, Size windgl.Vec2
}

// Empty reports whether the canvas has zero area.
func (c Canvas) Empty() bool { return c.Rect.Empty() }

// ComputeCanvas clips the grid's pixel rectangle to the container.
// Edges are snapped outwards to whole pixels before clipping so the
// mapping matches the pixels actually drawn.
func ComputeCanvas(grid Rect, container image.Rectangle) Canvas {
	if !(grid.Dx() > 0) || !(grid.Dy() > 0) {
		return Canvas{}
	}
	g := image.Rect(
		int(math.Floor(grid.MinX)), int(math.Floor(grid.MinY)),
		int(math.Ceil(grid.MaxX)), int(math.Ceil(grid.MaxY)),
	)
	r := g.Intersect(container)
	if r.Empty() {
		return Canvas{}
	}
	gw, gh := float64(g.Dx()), float64(g.Dy())
	return Canvas{
		Rect: r,
		Origin: windgl.Vec2{
			X: float64(r.Min.X-g.Min.X) / gw,
			Y: float64(r.Min.Y-g.Min.Y) / gh,
		},
		Size: windgl.Vec2{
			X: float64(r.Dx()) / gw,
			Y: float64(r.Dy()) / gh,
		},
	}
}
