package field

import (
	"fmt"

	"github.com/prajeeshag/windgl/render"
)

// Store holds the packed frame pairs of a Field.
//
// Pair i covers timesteps i and min(i+1, T-1); each texel is
// (a@i, b@i, a@i+1, b@i+1). A single-timestep field has one pair
// duplicating that timestep.
type Store struct {
	field  *Field
	frames [][]byte

	dev      render.Device
	textures []render.Texture
}

// NewStore packs every frame pair of f.
func NewStore(f *Field) *Store {
	n := max(f.timeSteps-1, 1)
	s := &Store{field: f, frames: make([][]byte, n)}
	plane := f.width * f.height
	for i := range n {
		next := min(i+1, f.timeSteps-1)
		pix := make([]byte, plane*4)
		cur, nxt := i*plane, next*plane
		for j := range plane {
			pix[j*4+0] = f.a[cur+j]
			pix[j*4+1] = f.b[cur+j]
			pix[j*4+2] = f.a[nxt+j]
			pix[j*4+3] = f.b[nxt+j]
		}
		s.frames[i] = pix
	}
	return s
}

// Field returns the packed field.
func (s *Store) Field() *Field { return s.field }

// TimestepCount returns the number of frame pairs, max(T-1, 1).
func (s *Store) TimestepCount() int { return len(s.frames) }

// Frame returns the packed RGBA8 pixels of pair i. The slice is shared
// and must not be modified.
func (s *Store) Frame(i int) ([]byte, error) {
	if i < 0 || i >= len(s.frames) {
		return nil, fmt.Errorf("%w: %d of %d", ErrFrameIndexOutOfRange, i, len(s.frames))
	}
	return s.frames[i], nil
}

// Upload creates one linear-filtered texture per pair on dev. Textures
// from a previous upload are released first.
func (s *Store) Upload(dev render.Device) error {
	s.Release()
	textures := make([]render.Texture, 0, len(s.frames))
	for i, pix := range s.frames {
		tex, err := dev.CreateTexture(render.TextureDescriptor{
			Label:  fmt.Sprintf("field/pair-%d", i),
			Width:  s.field.width,
			Height: s.field.height,
			Filter: render.FilterLinear,
		}, pix)
		if err != nil {
			for _, t := range textures {
				dev.DestroyTexture(t)
			}
			return fmt.Errorf("field: upload pair %d: %w", i, err)
		}
		textures = append(textures, tex)
	}
	s.dev = dev
	s.textures = textures
	return nil
}

// Uploaded reports whether the store holds device textures.
func (s *Store) Uploaded() bool { return s.dev != nil }

// Texture returns the device texture of pair i.
func (s *Store) Texture(i int) (render.Texture, error) {
	if i < 0 || i >= len(s.textures) {
		return nil, fmt.Errorf("%w: %d of %d uploaded", ErrFrameIndexOutOfRange, i, len(s.textures))
	}
	return s.textures[i], nil
}

// Release destroys the uploaded textures. It is safe to call repeatedly.
func (s *Store) Release() {
	if s.dev == nil {
		return
	}
	for _, t := range s.textures {
		s.dev.DestroyTexture(t)
	}
	s.textures = nil
	s.dev = nil
}
