// Copyright 2026 The windgl Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"image"
)

// Surface is the output the engine presents into.
//
// A Surface pairs a Device with a framebuffer sized to the visible
// canvas:
//   - backend/soft.Surface: CPU framebuffer, snapshot as *image.RGBA
//   - backend/wgpu.Surface: offscreen GPU texture with readback
//
// Framebuffer returns nil while the surface has zero area.
type Surface interface {
	Device() Device

	// Size returns the surface size in pixels.
	Size() (width, height int)

	Framebuffer() Framebuffer
}

// Snapshot reads fb back and wraps the pixels in an *image.RGBA.
func Snapshot(dev Device, fb Framebuffer) (*image.RGBA, error) {
	pix, err := dev.ReadPixels(fb)
	if err != nil {
		return nil, err
	}
	tex := fb.Texture()
	return &image.RGBA{
		Pix:    pix,
		Stride: tex.Width() * 4,
		Rect:   image.Rect(0, 0, tex.Width(), tex.Height()),
	}, nil
}

// OffscreenSurface is a Surface backed by a device texture. Both devices
// use it for headless rendering.
type OffscreenSurface struct {
	dev  Device
	w, h int
	tex  Texture
	fb   Framebuffer
}

// NewOffscreenSurface creates a w x h surface on dev. A zero area is
// allowed and leaves the surface without a framebuffer.
func NewOffscreenSurface(dev Device, w, h int) (*OffscreenSurface, error) {
	s := &OffscreenSurface{dev: dev}
	if err := s.Resize(w, h); err != nil {
		return nil, err
	}
	return s, nil
}

// Device returns the device the surface renders on.
func (s *OffscreenSurface) Device() Device { return s.dev }

// Size returns the surface size in pixels.
func (s *OffscreenSurface) Size() (int, int) { return s.w, s.h }

// Framebuffer returns the color target, or nil while the surface has zero area.
func (s *OffscreenSurface) Framebuffer() Framebuffer { return s.fb }

// Resize reallocates the target. Contents are discarded. Engines drawing
// into the surface must be Reset afterwards.
func (s *OffscreenSurface) Resize(w, h int) error {
	if w < 0 || h < 0 {
		return fmt.Errorf("%w: surface %dx%d", ErrInvalidDimensions, w, h)
	}
	s.release()
	s.w, s.h = w, h
	if w == 0 || h == 0 {
		return nil
	}
	tex, err := s.dev.CreateTexture(TextureDescriptor{Label: "surface", Width: w, Height: h}, nil)
	if err != nil {
		return err
	}
	fb, err := s.dev.CreateFramebuffer(tex)
	if err != nil {
		s.dev.DestroyTexture(tex)
		return err
	}
	s.tex, s.fb = tex, fb
	return nil
}

// Image reads the surface back. A zero-area surface yields an empty image.
func (s *OffscreenSurface) Image() (*image.RGBA, error) {
	if s.fb == nil {
		return image.NewRGBA(image.Rect(0, 0, s.w, s.h)), nil
	}
	return Snapshot(s.dev, s.fb)
}

// Release destroys the target. The surface keeps its size and reports
// no framebuffer until the next Resize.
func (s *OffscreenSurface) Release() { s.release() }

func (s *OffscreenSurface) release() {
	if s.fb != nil {
		s.dev.DestroyFramebuffer(s.fb)
		s.fb = nil
	}
	if s.tex != nil {
		s.dev.DestroyTexture(s.tex)
		s.tex = nil
	}
}
