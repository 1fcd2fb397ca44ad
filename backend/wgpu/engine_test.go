//go:build !nogpu

package wgpu_test

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/prajeeshag/windgl"
	"github.com/prajeeshag/windgl/backend/wgpu"
	"github.com/prajeeshag/windgl/field"
)

// TestEngineRunsOnHAL drives both simulation modes through every pass
// on the noop HAL, which checks pipeline, bind group and barrier
// construction without a GPU.
func TestEngineRunsOnHAL(t *testing.T) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	adapters := instance.EnumerateAdapters(nil)
	od, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		od.Device.Destroy()
		instance.Destroy()
	})

	f, err := field.DefaultSynthetic().Generate()
	if err != nil {
		t.Fatal(err)
	}

	for _, mode := range []windgl.Mode{windgl.ModePoint, windgl.ModeRibbon} {
		t.Run(mode.String(), func(t *testing.T) {
			dev := wgpu.NewFromHAL(od.Device, od.Queue, "noop", gputypes.DefaultLimits())
			surface, err := wgpu.NewSurface(dev, 32, 16)
			if err != nil {
				t.Fatal(err)
			}
			eng, err := windgl.New(surface, f, windgl.WithMode(mode), windgl.WithSeed(1))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			for _, tf := range []float64{0, 0.5, 1} {
				if err := eng.Draw(tf); err != nil {
					t.Fatalf("Draw(%v): %v", tf, err)
				}
			}
			if _, err := eng.Snapshot(); err != nil {
				t.Errorf("Snapshot: %v", err)
			}
			if err := eng.Close(); err != nil {
				t.Fatal(err)
			}
			surface.Release()
			if err := dev.Close(); err != nil {
				t.Fatal(err)
			}
			if live := dev.Live(); live != (wgpu.Counts{}) {
				t.Errorf("Live() after Close = %+v", live)
			}
		})
	}
}
