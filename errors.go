package windgl

import (
	"errors"

	"github.com/prajeeshag/windgl/field"
)

var (
	// ErrResourceNotReady is returned by Draw before Reset has allocated
	// the particle state, typically because the surface has zero area.
	// Callers recover by not drawing until the surface has pixels again.
	ErrResourceNotReady = errors.New("windgl: resource not ready")

	// ErrFrameIndexOutOfRange is returned when the selected field frame
	// pair has no texture. Clamping makes it unreachable unless the
	// field store was sized wrongly.
	ErrFrameIndexOutOfRange = field.ErrFrameIndexOutOfRange

	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("windgl: engine closed")

	// ErrInvalidParams is returned by New for out-of-range tunables.
	ErrInvalidParams = errors.New("windgl: invalid parameters")
)
