package render

import (
	"fmt"
	"image"
)

// Primitive is the topology of a draw.
type Primitive uint8

const (
	// Triangles draws independent triangles, three vertices each.
	Triangles Primitive = iota
	// Points draws one 1px point per vertex.
	Points
	// Lines draws independent 1px segments, two vertices each.
	Lines
)

func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "triangles"
	case Points:
		return "points"
	case Lines:
		return "lines"
	default:
		return fmt.Sprintf("Primitive(%d)", p)
	}
}

// Blend selects how fragments combine with the target.
type Blend uint8

const (
	// BlendNone replaces the target.
	BlendNone Blend = iota

	// BlendAlpha is src-alpha / one-minus-src-alpha for color and
	// one / one-minus-src-alpha for alpha.
	BlendAlpha
)

func (b Blend) String() string {
	switch b {
	case BlendNone:
		return "none"
	case BlendAlpha:
		return "alpha"
	default:
		return fmt.Sprintf("Blend(%d)", b)
	}
}

// AttributeBinding feeds a program attribute from a buffer. The buffer
// holds Components floats per vertex, tightly packed.
type AttributeBinding struct {
	Name   string
	Buffer Buffer
}

// DrawCommand is one draw call. Uniform and texture state come from the
// program at the time Draw is called.
type DrawCommand struct {
	// Label names the pass in logs and recordings.
	Label string

	Program *Program
	Target  Framebuffer

	// Viewport is the pixel rectangle NDC maps onto. The zero rectangle
	// covers the whole target.
	Viewport image.Rectangle

	Primitive Primitive
	Blend     Blend

	Attributes  []AttributeBinding
	VertexCount int
}

// ViewportRect returns the effective viewport.
func (c *DrawCommand) ViewportRect() image.Rectangle {
	if c.Viewport.Empty() && c.Target != nil {
		t := c.Target.Texture()
		return image.Rect(0, 0, t.Width(), t.Height())
	}
	return c.Viewport
}

// AttributeBuffer returns the buffer bound to an attribute, or nil.
func (c *DrawCommand) AttributeBuffer(name string) Buffer {
	for _, a := range c.Attributes {
		if a.Name == name {
			return a.Buffer
		}
	}
	return nil
}

// Validate checks that the command is complete: a target, every active
// attribute bound with enough data, and every sampled texture bound.
func (c *DrawCommand) Validate() error {
	if c.Program == nil {
		return fmt.Errorf("render: draw %q has no program", c.Label)
	}
	if c.Target == nil {
		return fmt.Errorf("%w: draw %q", ErrNoTarget, c.Label)
	}
	if c.VertexCount < 0 {
		return fmt.Errorf("render: draw %q has negative vertex count", c.Label)
	}
	for _, b := range c.Attributes {
		if _, ok := c.Program.Attribute(b.Name); !ok {
			return fmt.Errorf("%w: %q in %q", ErrUnknownAttribute, b.Name, c.Program.Label())
		}
	}
	for _, a := range c.Program.attributes {
		buf := c.AttributeBuffer(a.Name)
		if buf == nil {
			return fmt.Errorf("%w: %q in %q", ErrAttributeNotBound, a.Name, c.Program.Label())
		}
		if need := c.VertexCount * a.Components; buf.Len() < need {
			return fmt.Errorf("%w: %q has %d floats, draw %q needs %d",
				ErrBufferTooSmall, a.Name, buf.Len(), c.Label, need)
		}
	}
	for _, t := range c.Program.textures {
		if c.Program.BoundTexture(t.Name) == nil {
			return fmt.Errorf("%w: %q in %q", ErrTextureNotBound, t.Name, c.Program.Label())
		}
	}
	return nil
}
