package windgl

import (
	"fmt"
	"image"

	"github.com/prajeeshag/windgl/render"
)

// Snapshot is a readback of an engine's state after the last Draw.
//
// Position and Age hold the encoded particle state textures: one texel
// per point particle, or one row per ribbon with the head in column 0.
// Screen is the trail accumulator presented by the last Draw.
type Snapshot struct {
	Position *image.RGBA
	Age      *image.RGBA
	Screen   *image.RGBA
}

// Snapshot reads the current state back from the device. Position and
// Age are nil when the density yields no particles.
func (e *engine) Snapshot() (*Snapshot, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if !e.ready {
		return nil, ErrResourceNotReady
	}
	var (
		s   Snapshot
		err error
	)
	// The last presented frame is the read slot after the swap in Draw.
	if s.Screen, err = render.Snapshot(e.dev, e.accum.Read().fb); err != nil {
		return nil, fmt.Errorf("windgl: snapshot screen: %w", err)
	}
	pos, age := e.sim.state()
	if pos != nil {
		if s.Position, err = render.Snapshot(e.dev, pos.Read().fb); err != nil {
			return nil, fmt.Errorf("windgl: snapshot position: %w", err)
		}
	}
	if age != nil {
		if s.Age, err = render.Snapshot(e.dev, age.Read().fb); err != nil {
			return nil, fmt.Errorf("windgl: snapshot age: %w", err)
		}
	}
	return &s, nil
}

// DecodePosition returns the normalized position stored in a state
// texel.
func DecodePosition(c [4]uint8) Vec2 {
	return Vec2{
		X: float64(c[0])/(255*255) + float64(c[2])/255,
		Y: float64(c[1])/(255*255) + float64(c[3])/255,
	}
}

// DecodeAge returns the age stored in an age texel.
func DecodeAge(c [4]uint8) float64 {
	return float64(c[0])/255 + float64(c[1])/(255*255)
}
