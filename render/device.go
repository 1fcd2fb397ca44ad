// Copyright 2026 The windgl Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "fmt"

// Filter selects how a texture is sampled between texel centers.
type Filter uint8

const (
	// FilterNearest returns the texel under the coordinate. Particle state
	// textures use it so encoded bytes are read back exactly.
	FilterNearest Filter = iota

	// FilterLinear blends the four nearest texels. The wind field uses it.
	FilterLinear
)

// String returns the filter name.
func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterLinear:
		return "linear"
	default:
		return fmt.Sprintf("Filter(%d)", f)
	}
}

// TextureDescriptor describes a 2D RGBA8 texture.
// Addressing is always clamp-to-edge.
type TextureDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Width and Height are the texture size in texels.
	Width, Height int

	// Filter is fixed for the lifetime of the texture.
	Filter Filter
}

// Check verifies the descriptor against the device limits and, when
// pixels is non-nil, the initial data length.
func (d TextureDescriptor) Check(caps Capabilities, pixels []byte) error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: texture %q is %dx%d", ErrInvalidDimensions, d.Label, d.Width, d.Height)
	}
	if caps.MaxTextureSize > 0 && (d.Width > caps.MaxTextureSize || d.Height > caps.MaxTextureSize) {
		return fmt.Errorf("%w: texture %q is %dx%d, limit %d", ErrTextureTooLarge, d.Label, d.Width, d.Height, caps.MaxTextureSize)
	}
	if pixels != nil && len(pixels) != d.Width*d.Height*4 {
		return fmt.Errorf("%w: texture %q wants %d bytes, got %d", ErrPixelLength, d.Label, d.Width*d.Height*4, len(pixels))
	}
	return nil
}

// BufferDescriptor describes a vertex buffer of float32 components.
type BufferDescriptor struct {
	Label string
	Data  []float32
}

// Texture is a device texture.
type Texture interface {
	Width() int
	Height() int
	Filter() Filter
	Label() string
}

// Buffer is a device vertex buffer.
type Buffer interface {
	// Len returns the number of float32 components stored.
	Len() int
	Label() string
}

// Framebuffer is a render target with a texture as its color attachment.
type Framebuffer interface {
	Texture() Texture
}

// Pipeline is the device-side object created for a compiled program.
type Pipeline interface {
	Label() string
}

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Transparent is the zero color.
var Transparent = Color{}

// Capabilities describes the limits of a device.
type Capabilities struct {
	// Name identifies the device in logs.
	Name string

	// MaxTextureSize is the largest texture dimension supported.
	MaxTextureSize int

	// MaxTextureUnits is the number of textures a single program may bind.
	MaxTextureUnits int

	// ExecutesWGSL reports whether the device runs WGSL itself. Devices
	// that do not run a program's Kernel instead.
	ExecutesWGSL bool
}

// Device creates resources and executes draws.
//
// Devices are not safe for concurrent use. All calls happen from the
// goroutine driving the engine, which matches the single-writer model
// of a GPU command queue.
type Device interface {
	Capabilities() Capabilities

	// CreateTexture creates a texture. Nil pixels produce a zero-filled texture.
	CreateTexture(desc TextureDescriptor, pixels []byte) (Texture, error)
	DestroyTexture(t Texture)

	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	DestroyBuffer(b Buffer)

	// CreateFramebuffer makes t renderable.
	CreateFramebuffer(t Texture) (Framebuffer, error)
	DestroyFramebuffer(fb Framebuffer)

	// CreatePipeline builds the device objects for a compiled program.
	// CompileProgram calls it; callers rarely need to.
	CreatePipeline(p *Program) (Pipeline, error)
	DestroyPipeline(p Pipeline)

	// Clear fills the whole framebuffer with c.
	Clear(fb Framebuffer, c Color) error

	// Draw executes one draw command.
	Draw(cmd *DrawCommand) error

	// ReadPixels returns the framebuffer contents as tightly packed RGBA8
	// rows, row 0 first.
	ReadPixels(fb Framebuffer) ([]byte, error)

	// Close releases device-wide resources.
	Close() error
}
