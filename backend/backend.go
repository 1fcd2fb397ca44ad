package backend

import (
	"errors"

	"github.com/prajeeshag/windgl/render"
)

// Backend name constants.
const (
	// Soft is the CPU device in backend/soft.
	Soft = "soft"
	// WGPU is the hal device in backend/wgpu.
	WGPU = "wgpu"
)

// ErrBackendNotAvailable is returned when no registered backend could
// create a device.
var ErrBackendNotAvailable = errors.New("backend: not available")

// Factory creates a device. A factory may fail, for example when no GPU
// adapter is present; Default then moves on to the next backend.
type Factory func() (render.Device, error)
