package ramp

import (
	"image/color"
	"math"
	"sort"
)

const (
	// Width is the number of rasterized ramp pixels.
	Width = 256

	// Side is the edge length of the ramp texture.
	Side = 16

	// Buckets is the number of speed classes a lookup resolves.
	Buckets = Side
)

// At returns the ramp color at offset t. Colors are interpolated in
// premultiplied space between neighbouring stops; outside the first
// and last stop the end colors are held.
func (r *Ramp) At(t float64) color.NRGBA {
	s := r.stops
	idx := sort.Search(len(s), func(i int) bool { return s[i].Offset > t })
	if idx == 0 {
		return s[0].Color
	}
	if idx == len(s) {
		return s[len(s)-1].Color
	}
	a, b := s[idx-1], s[idx]
	if b.Offset == a.Offset {
		return b.Color
	}
	return lerp(a.Color, b.Color, (t-a.Offset)/(b.Offset-a.Offset))
}

func lerp(c0, c1 color.NRGBA, t float64) color.NRGBA {
	a0, a1 := float64(c0.A)/255, float64(c1.A)/255
	a := a0 + (a1-a0)*t
	if a <= 0 {
		return color.NRGBA{}
	}
	ch := func(x0, x1 uint8) uint8 {
		p := float64(x0)*a0 + (float64(x1)*a1-float64(x0)*a0)*t
		return uint8(math.Round(math.Min(p/a, 255)))
	}
	return color.NRGBA{
		R: ch(c0.R, c1.R),
		G: ch(c0.G, c1.G),
		B: ch(c0.B, c1.B),
		A: uint8(math.Round(a * 255)),
	}
}

// Rasterize samples the ramp at the centers of width pixels and
// returns straight-alpha RGBA8 bytes.
func (r *Ramp) Rasterize(width int) []byte {
	pix := make([]byte, width*4)
	for i := range width {
		c := r.At((float64(i) + 0.5) / float64(width))
		pix[i*4+0] = c.R
		pix[i*4+1] = c.G
		pix[i*4+2] = c.B
		pix[i*4+3] = c.A
	}
	return pix
}

// Texture returns the Width pixels laid out as a Side x Side RGBA8
// image, row-major.
func (r *Ramp) Texture() []byte {
	return r.Rasterize(Width)
}

// SpeedT normalizes speed into [0, 1] over [lo, hi]. Equal bounds give
// 0 at or below lo and 1 above it.
func SpeedT(speed, lo, hi float64) float64 {
	if span := hi - lo; span > 0 {
		return math.Min(math.Max((speed-lo)/span, 0), 1)
	}
	if speed > lo {
		return 1
	}
	return 0
}

// Bucket returns the texture row a normalized speed falls into.
func Bucket(speedT float64) int {
	return min(max(int(math.Floor(Side*speedT)), 0), Buckets-1)
}

// Coord returns the texture coordinate shaders use to look up a
// normalized speed. Speed 1 maps to (0, 1), which clamps to the last
// row.
func Coord(speedT float64) (u, v float64) {
	f := Side * speedT
	return f - math.Floor(f), math.Floor(f) / Side
}

// Lookup returns the texel a shader reads from a Texture for a
// normalized speed with nearest filtering.
func Lookup(pix []byte, speedT float64) color.NRGBA {
	u, v := Coord(speedT)
	x := min(max(int(math.Floor(u*Side)), 0), Side-1)
	y := min(max(int(math.Floor(v*Side)), 0), Side-1)
	i := (y*Side + x) * 4
	return color.NRGBA{R: pix[i], G: pix[i+1], B: pix[i+2], A: pix[i+3]}
}
