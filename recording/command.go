package recording

import (
	"fmt"
	"maps"
	"slices"

	"github.com/prajeeshag/windgl/render"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	CmdClear      CommandType = iota // Clear a framebuffer
	CmdDraw                          // Execute a draw command
	CmdReadPixels                    // Read a framebuffer back
)

var commandTypeNames = [...]string{
	CmdClear:      "Clear",
	CmdDraw:       "Draw",
	CmdReadPixels: "ReadPixels",
}

// String returns the command type name.
func (t CommandType) String() string {
	if int(t) < len(commandTypeNames) {
		return commandTypeNames[t]
	}
	return fmt.Sprintf("CommandType(%d)", t)
}

// Command is one recorded device call.
//
// Uniforms and Textures capture the program state at the time of the
// draw; later changes to the program do not affect a recorded command.
type Command struct {
	Type CommandType

	// Label is the draw label, or the target texture label for clears
	// and readbacks.
	Label string

	// Target is the label of the target texture.
	Target        string
	Width, Height int

	// Draw only.
	Program     string
	Primitive   render.Primitive
	Blend       render.Blend
	VertexCount int
	Uniforms    map[string][]float32
	Textures    map[string]string

	// Clear only.
	Color render.Color

	// Err is the error the wrapped device returned, if any.
	Err error
}

// Uniform returns a recorded uniform value, or nil.
func (c *Command) Uniform(name string) []float32 {
	return c.Uniforms[name]
}

// TextureNames returns the bound texture names, sorted.
func (c *Command) TextureNames() []string {
	return slices.Sorted(maps.Keys(c.Textures))
}

// String returns a one-line description.
func (c *Command) String() string {
	switch c.Type {
	case CmdDraw:
		return fmt.Sprintf("Draw %s -> %s (%dx%d) %s %s x%d",
			c.Label, c.Target, c.Width, c.Height, c.Primitive, c.Blend, c.VertexCount)
	case CmdClear:
		return fmt.Sprintf("Clear %s (%dx%d) rgba(%g, %g, %g, %g)",
			c.Target, c.Width, c.Height, c.Color.R, c.Color.G, c.Color.B, c.Color.A)
	default:
		return fmt.Sprintf("%s %s (%dx%d)", c.Type, c.Target, c.Width, c.Height)
	}
}

func targetInfo(fb render.Framebuffer) (label string, w, h int) {
	if fb == nil {
		return "", 0, 0
	}
	t := fb.Texture()
	if t == nil {
		return "", 0, 0
	}
	return t.Label(), t.Width(), t.Height()
}

func newDrawCommand(cmd *render.DrawCommand) Command {
	c := Command{
		Type:        CmdDraw,
		Label:       cmd.Label,
		Primitive:   cmd.Primitive,
		Blend:       cmd.Blend,
		VertexCount: cmd.VertexCount,
	}
	c.Target, c.Width, c.Height = targetInfo(cmd.Target)
	if p := cmd.Program; p != nil {
		c.Program = p.Label()
		c.Uniforms = make(map[string][]float32)
		for _, u := range p.Uniforms() {
			c.Uniforms[u.Name] = p.UniformValue(u.Name)
		}
		c.Textures = make(map[string]string)
		for _, tb := range p.Textures() {
			if t := p.BoundTexture(tb.Name); t != nil {
				c.Textures[tb.Name] = t.Label()
			}
		}
	}
	return c
}
