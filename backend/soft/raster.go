package soft

import (
	"fmt"
	"image"
	"math"

	"github.com/prajeeshag/windgl/render"
)

// vertex is a transformed vertex in framebuffer pixel coordinates.
type vertex struct {
	x, y     float32
	culled   bool
	varyings render.Varyings
}

// target is the pixel storage and clip rectangle of one draw.
type target struct {
	tex   *texture
	clip  image.Rectangle
	blend render.Blend
}

// Draw executes cmd with the program's kernel.
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
	if prog.Kernel() == nil {
		return fmt.Errorf("%w: %q", render.ErrNoKernel, prog.Label())
	}
	for _, tb := range prog.Textures() {
		if _, err := d.texture(prog.BoundTexture(tb.Name)); err != nil {
			return fmt.Errorf("soft: draw %q: %w", cmd.Label, err)
		}
	}

	vp := cmd.ViewportRect()
	tgt := target{
		tex:   f.tex,
		clip:  vp.Intersect(image.Rect(0, 0, f.tex.w, f.tex.h)),
		blend: cmd.Blend,
	}
	if tgt.clip.Empty() || cmd.VertexCount == 0 {
		return nil
	}

	shader := prog.Kernel().Prepare(render.NewEnv(prog, d))
	verts, err := d.runVertices(cmd, shader, vp)
	if err != nil {
		return err
	}

	switch cmd.Primitive {
	case render.Points:
		for i := range verts {
			d.point(&tgt, shader, &verts[i])
		}
	case render.Lines:
		for i := 0; i+1 < len(verts); i += 2 {
			d.line(&tgt, shader, &verts[i], &verts[i+1])
		}
	case render.Triangles:
		d.triangles(&tgt, shader, verts)
	default:
		return fmt.Errorf("soft: draw %q: unknown primitive %v", cmd.Label, cmd.Primitive)
	}
	return nil
}

// runVertices gathers attributes, runs the vertex stage and maps clip
// coordinates onto the viewport.
func (d *Device) runVertices(cmd *render.DrawCommand, shader render.Shader, vp image.Rectangle) ([]vertex, error) {
	type source struct {
		loc, n int
		data   []float32
	}
	attrs := cmd.Program.Attributes()
	sources := make([]source, 0, len(attrs))
	for _, a := range attrs {
		b, ok := cmd.AttributeBuffer(a.Name).(*buffer)
		if !ok || b.dev != d {
			return nil, fmt.Errorf("%w: buffer for %q", render.ErrForeignResource, a.Name)
		}
		if b.destroyed {
			return nil, fmt.Errorf("%w: buffer %q", render.ErrDestroyed, b.label)
		}
		sources = append(sources, source{loc: a.Location, n: a.Components, data: b.data})
	}

	sx := float32(vp.Dx()) / 2
	sy := float32(vp.Dy()) / 2
	ox := float32(vp.Min.X)
	oy := float32(vp.Min.Y)

	verts := make([]vertex, cmd.VertexCount)
	var in render.VertexInput
	var out render.VertexOutput
	for i := range verts {
		in = render.VertexInput{Index: i}
		for _, s := range sources {
			copy(in.Attributes[s.loc][:s.n], s.data[i*s.n:i*s.n+s.n])
		}
		out = render.VertexOutput{}
		shader.Vertex(&in, &out)

		w := out.Position[3]
		v := &verts[i]
		v.varyings = out.Varyings
		if !(w > 0) {
			v.culled = true
			continue
		}
		nx, ny := out.Position[0]/w, out.Position[1]/w
		v.x = ox + (nx+1)*sx
		v.y = oy + (1-ny)*sy
	}
	return verts, nil
}

// shade runs the fragment stage for pixel (x, y) and blends the result.
func (d *Device) shade(t *target, shader render.Shader, x, y int, vary *render.Varyings) {
	in := render.FragmentInput{
		Position: [2]float32{float32(x) + 0.5, float32(y) + 0.5},
		Varyings: *vary,
	}
	c, ok := shader.Fragment(&in)
	if !ok {
		return
	}
	i := (y*t.tex.w + x) * 4
	dst := t.tex.pix[i : i+4 : i+4]
	if t.blend == render.BlendAlpha {
		c = blendAlpha(c, dst)
	}
	px := quantize(c)
	copy(dst, px[:])
}

// blendAlpha is src-alpha / one-minus-src-alpha on color and
// one / one-minus-src-alpha on alpha.
func blendAlpha(src render.Color, dst []byte) render.Color {
	sa := clamp01(src.A)
	inv := 1 - sa
	return render.Color{
		R: clamp01(src.R)*sa + float32(dst[0])/255*inv,
		G: clamp01(src.G)*sa + float32(dst[1])/255*inv,
		B: clamp01(src.B)*sa + float32(dst[2])/255*inv,
		A: sa + float32(dst[3])/255*inv,
	}
}

func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (d *Device) point(t *target, shader render.Shader, v *vertex) {
	if v.culled {
		return
	}
	x, y := int(floor32(v.x)), int(floor32(v.y))
	if !(image.Point{X: x, Y: y}).In(t.clip) {
		return
	}
	d.shade(t, shader, x, y, &v.varyings)
}

// line draws a 1px DDA segment from a toward b. The final pixel is left
// out so connected segments do not double-blend shared endpoints.
func (d *Device) line(t *target, shader render.Shader, a, b *vertex) {
	if a.culled || b.culled {
		return
	}
	dx, dy := b.x-a.x, b.y-a.y
	steps := int(math.Round(float64(max(abs32(dx), abs32(dy)))))
	if steps == 0 {
		return
	}
	var vary render.Varyings
	for i := range steps {
		s := float32(i) / float32(steps)
		x := int(floor32(a.x + dx*s))
		y := int(floor32(a.y + dy*s))
		if !(image.Point{X: x, Y: y}).In(t.clip) {
			continue
		}
		for k := range vary {
			vary[k] = a.varyings[k] + (b.varyings[k]-a.varyings[k])*s
		}
		d.shade(t, shader, x, y, &vary)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// triangles rasterizes a triangle list in row bands. Within a band the
// triangles are visited in submission order, so overlapping blends keep
// their order.
func (d *Device) triangles(t *target, shader render.Shader, verts []vertex) {
	n := len(verts) / 3
	if n == 0 {
		return
	}
	d.pool.Rows(t.clip.Min.Y, t.clip.Max.Y, func(y0, y1 int) {
		band := t.clip
		band.Min.Y, band.Max.Y = y0, y1
		for i := range n {
			d.triangle(t, shader, band, &verts[3*i], &verts[3*i+1], &verts[3*i+2])
		}
	})
}

// edge is the signed area of (a, b, p) scaled by two.
func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// topLeft reports whether the edge a->b of a positively wound triangle
// owns the pixels lying exactly on it.
func topLeft(ax, ay, bx, by float32) bool {
	dy := by - ay
	return dy < 0 || (dy == 0 && bx-ax > 0)
}

func (d *Device) triangle(t *target, shader render.Shader, clip image.Rectangle, v0, v1, v2 *vertex) {
	if v0.culled || v1.culled || v2.culled {
		return
	}
	area := edge(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	if area == 0 {
		return
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}

	minX := max(int(floor32(min(v0.x, v1.x, v2.x))), clip.Min.X)
	maxX := min(int(math.Ceil(float64(max(v0.x, v1.x, v2.x)))), clip.Max.X)
	minY := max(int(floor32(min(v0.y, v1.y, v2.y))), clip.Min.Y)
	maxY := min(int(math.Ceil(float64(max(v0.y, v1.y, v2.y)))), clip.Max.Y)
	if minX >= maxX || minY >= maxY {
		return
	}

	tl0 := topLeft(v1.x, v1.y, v2.x, v2.y)
	tl1 := topLeft(v2.x, v2.y, v0.x, v0.y)
	tl2 := topLeft(v0.x, v0.y, v1.x, v1.y)
	inside := func(w float32, tl bool) bool { return w > 0 || (w == 0 && tl) }

	inv := 1 / area
	var vary render.Varyings
	for y := minY; y < maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x < maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(v1.x, v1.y, v2.x, v2.y, px, py)
			w1 := edge(v2.x, v2.y, v0.x, v0.y, px, py)
			w2 := edge(v0.x, v0.y, v1.x, v1.y, px, py)
			if !inside(w0, tl0) || !inside(w1, tl1) || !inside(w2, tl2) {
				continue
			}
			l0, l1, l2 := w0*inv, w1*inv, w2*inv
			for k := range vary {
				vary[k] = l0*v0.varyings[k] + l1*v1.varyings[k] + l2*v2.varyings[k]
			}
			d.shade(t, shader, x, y, &vary)
		}
	}
}
