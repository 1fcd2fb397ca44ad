// Package backend selects the render.Device a windgl engine runs on.
//
// Device packages register a factory from init(), so importing them is
// enough to make them selectable:
//
//	import (
//		_ "github.com/prajeeshag/windgl/backend/soft"
//		_ "github.com/prajeeshag/windgl/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Default() to open the best available device, or Get() to request
// a specific backend by name:
//
//	dev, err := backend.Default()   // wgpu when a GPU opens, else soft
//	dev, err := backend.Get("soft") // always the CPU device
//
// The wgpu backend is compiled out with the nogpu build tag.
package backend
