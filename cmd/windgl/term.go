package main

import (
	"context"
	"image"
	"image/color"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/image/draw"
)

// upperHalf draws the top pixel of a cell in the foreground color and
// the bottom one in the background color.
const upperHalf = '▀'

// runTerm shows frames in the terminal until q, Escape or Ctrl-C, or
// until ctx ends.
func (r *renderer) runTerm(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan tcell.Event, 8)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(r.cfg.FrameInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			img, err := r.step()
			if err != nil {
				return err
			}
			w, h := screen.Size()
			paint(screen, img, w, h)
			screen.Show()
		}
	}
}

// cellSetter is the part of tcell.Screen paint uses.
type cellSetter interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

// paint resamples img to cols x 2*rows pixels and draws it with half
// blocks over a black background.
func paint(s cellSetter, img image.Image, cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	dst := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	for y := range rows {
		for x := range cols {
			top := overBlack(dst.RGBAAt(x, 2*y))
			bottom := overBlack(dst.RGBAAt(x, 2*y+1))
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			s.SetContent(x, y, upperHalf, nil, style)
		}
	}
}

// overBlack composites a premultiplied pixel over black.
func overBlack(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
