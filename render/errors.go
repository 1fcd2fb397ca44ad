package render

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the resource utility and its devices.
var (
	// ErrInvalidDimensions is returned for textures with a non-positive size.
	ErrInvalidDimensions = errors.New("render: invalid dimensions")

	// ErrTextureTooLarge is returned when a texture exceeds the device limit.
	ErrTextureTooLarge = errors.New("render: texture exceeds device limit")

	// ErrPixelLength is returned when initial pixel data does not match the texture size.
	ErrPixelLength = errors.New("render: pixel data length mismatch")

	// ErrUnknownUniform is returned when a program has no active uniform of that name.
	ErrUnknownUniform = errors.New("render: unknown uniform")

	// ErrUniformSize is returned when a uniform value has the wrong component count.
	ErrUniformSize = errors.New("render: uniform component count mismatch")

	// ErrUnknownAttribute is returned when a program has no active attribute of that name.
	ErrUnknownAttribute = errors.New("render: unknown attribute")

	// ErrTextureUnitsExhausted is returned when a program binds more textures than the device supports.
	ErrTextureUnitsExhausted = errors.New("render: texture units exhausted")

	// ErrTextureNotBound is returned by DrawCommand.Validate when a sampled texture has no binding.
	ErrTextureNotBound = errors.New("render: texture not bound")

	// ErrAttributeNotBound is returned by DrawCommand.Validate when an attribute has no buffer.
	ErrAttributeNotBound = errors.New("render: attribute not bound")

	// ErrBufferTooSmall is returned when a vertex buffer holds fewer vertices than drawn.
	ErrBufferTooSmall = errors.New("render: vertex buffer too small")

	// ErrNoTarget is returned when a draw or clear has no framebuffer.
	ErrNoTarget = errors.New("render: no target framebuffer")

	// ErrNoKernel is returned by devices that need a CPU kernel when the program has none.
	ErrNoKernel = errors.New("render: program has no CPU kernel")

	// ErrForeignResource is returned when a resource from another device is used.
	ErrForeignResource = errors.New("render: resource belongs to another device")

	// ErrDestroyed is returned when a destroyed resource or closed device is used.
	ErrDestroyed = errors.New("render: resource destroyed")
)

// Stage identifies a shader stage.
type Stage uint8

const (
	// StageVertex is the vertex stage.
	StageVertex Stage = iota
	// StageFragment is the fragment stage.
	StageFragment
)

// String returns the WGSL attribute name of the stage.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// ShaderCompileError reports a stage that failed to parse, lower or validate.
type ShaderCompileError struct {
	Program string
	Stage   Stage
	Log     string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("render: compile %s stage of %q: %s", e.Stage, e.Program, e.Log)
}

// ProgramLinkError reports stages that compiled on their own but do not fit together.
type ProgramLinkError struct {
	Program string
	Log     string
}

func (e *ProgramLinkError) Error() string {
	return fmt.Sprintf("render: link %q: %s", e.Program, e.Log)
}
