//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/prajeeshag/windgl/backend"
	"github.com/prajeeshag/windgl/render"
)

// ErrNoAdapter is returned when no GPU adapter can be opened.
var ErrNoAdapter = errors.New("wgpu: no GPU adapter")

func init() {
	backend.Register(backend.WGPU, func() (render.Device, error) {
		return Open()
	})
	backend.RegisterLogger(backend.WGPU, SetLogger)
}

// Open creates a Vulkan instance and opens the first discrete or
// integrated GPU, falling back to whatever adapter is listed first.
// Close destroys the device and the instance.
func Open() (*Device, error) {
	b, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoAdapter)
	}
	return open(b)
}

func open(b hal.Backend) (*Device, error) {
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	limits := gputypes.DefaultLimits()
	if have := selected.Capabilities.Limits.MaxTextureDimension2D; have > limits.MaxTextureDimension2D {
		limits.MaxTextureDimension2D = have
	}
	od, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		selected.Adapter.Destroy()
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open %s: %w", selected.Info.Name, err)
	}

	d := NewFromHAL(od.Device, od.Queue, selected.Info.Name, limits)
	adapter := selected.Adapter
	d.release = func() {
		od.Device.Destroy()
		adapter.Destroy()
		instance.Destroy()
	}
	slogger().Info("wgpu adapter opened", "adapter", selected.Info.Name,
		"type", selected.Info.DeviceType, "driver", selected.Info.Driver)
	return d, nil
}
