// Package windgl animates particles through a time-varying 2D vector
// field, leaving fading trails.
//
// # Overview
//
// A field is two quantized components (east and north) sampled on a
// regular grid over several timesteps. The engine uploads consecutive
// timesteps in pairs and blends between them on the device, so the
// particles advect smoothly while the host moves a time fraction from
// 0 towards 1.
//
// # Quick Start
//
//	dev := soft.New()
//	surface, _ := soft.NewSurface(dev, 800, 600)
//	f, _ := field.DefaultSynthetic().Generate()
//
//	eng, err := windgl.New(surface, f, windgl.WithMode(windgl.ModeRibbon))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	for i := range 120 {
//	    if err := eng.Draw(float64(i) / 120); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//	img, _ := surface.Image()
//
// # Modes
//
// [ModePoint] keeps a position and an age per particle and relies on the
// screen accumulator for trails. [ModeRibbon] keeps the last TailLength
// positions of every particle and draws them as segments.
//
// # Coordinate System
//
// Particle positions and viewport mappings are normalized to [0, 1] on
// both axes with the origin at the top-left (north-west) corner of the
// field. Field row 0 is the northern edge; the north component of a
// velocity therefore moves a particle towards smaller y.
//
// # Devices
//
// Rendering goes through [render.Device]. backend/soft runs the CPU
// kernels of every program and is always available; backend/wgpu runs
// the WGSL through a Vulkan device unless built with the nogpu tag.
// windgl links neither; import the ones a program selects by name
// through package backend.
//
// # Logging
//
// windgl is silent by default. See [SetLogger].
package windgl
