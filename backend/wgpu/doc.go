// Package wgpu implements render.Device on top of the gogpu/wgpu HAL.
//
// Programs run as compiled WGSL: each stage's naga IR is lowered to
// SPIR-V and turned into a render pipeline per primitive and blend
// combination. Every render.Texture owns an RGBA8Unorm HAL texture, a
// view and a clamp-to-edge sampler with the texture's filter, so
// particle state read with FilterNearest comes back bit-exact.
//
// # Opening a Device
//
// Open selects a Vulkan adapter, preferring discrete and integrated GPUs:
//
//	dev, err := wgpu.Open()
//	if err != nil {
//	    // no GPU; fall back to backend/soft
//	}
//	defer dev.Close()
//
// A host application that already owns a HAL device (for example a
// gogpu window) shares it instead of opening a second one:
//
//	dev, err := wgpu.NewFromProvider(app) // gpucontext.DeviceProvider
//
// # Registration
//
// Importing the package registers the "wgpu" backend with
// backend.Register, ahead of the CPU device in backend.Default. The nogpu
// build tag removes Open and the registration, leaving NewFromHAL for
// callers that bring their own device.
//
// # Synchronization
//
// Each Clear and Draw is encoded into its own command buffer and
// submitted in issue order, so ping-pong passes observe the previous
// pass's output. Per-draw uniform buffers and bind groups are released
// once the queue reports their submission complete. ReadPixels waits for
// the device to go idle.
package wgpu
