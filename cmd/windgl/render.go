package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/prajeeshag/windgl"
	"github.com/prajeeshag/windgl/config"
	"github.com/prajeeshag/windgl/recording"
	_ "github.com/prajeeshag/windgl/recording/backends/table"
	_ "github.com/prajeeshag/windgl/recording/backends/text"
	"github.com/prajeeshag/windgl/render"
)

// renderer owns the device, surface and engine of one run.
type renderer struct {
	cfg     *config.Config
	scale   float64
	trace   *traceOut
	dev     render.Device
	rec     *recording.Device
	surface *render.OffscreenSurface
	eng     windgl.Engine
	timePos float64
}

func newRenderer(cfg *config.Config, f *flags) (*renderer, error) {
	if !(f.scale > 0) {
		return nil, fmt.Errorf("scale %v must be positive", f.scale)
	}
	fld, err := cfg.Synthetic().Generate()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	if f.autoRange {
		st := fld.SpeedStats(0.05, 0.95)
		opts = append(opts, windgl.WithSpeedColorRange(st.Quantiles[0], st.Quantiles[1]))
		windgl.Logger().Info("speed color range fitted",
			"min", st.Quantiles[0], "max", st.Quantiles[1], "mean", st.Mean)
	}

	dev, err := openDevice(f.backend)
	if err != nil {
		return nil, err
	}
	r := &renderer{cfg: cfg, scale: f.scale, dev: dev}
	if f.trace != "" {
		if r.trace, err = resolveTrace(f.trace, cfg.Output.Directory); err != nil {
			_ = dev.Close()
			return nil, err
		}
		r.rec = recording.NewDevice(dev)
		r.rec.Pause()
		r.dev = r.rec
	}

	r.surface, err = render.NewOffscreenSurface(r.dev, cfg.Surface.Width, cfg.Surface.Height)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	r.eng, err = windgl.New(r.surface, fld, opts...)
	if err != nil {
		r.surface.Release()
		_ = dev.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the engine, the surface and the device.
func (r *renderer) Close() error {
	err := r.eng.Close()
	r.surface.Release()
	if cerr := r.dev.Close(); err == nil {
		err = cerr
	}
	return err
}

// step draws one frame and advances the time position.
func (r *renderer) step() (*image.RGBA, error) {
	tp := r.timePos
	if r.trace != nil {
		r.rec.Resume()
	}
	if err := r.eng.Draw(tp); err != nil {
		return nil, err
	}
	if r.trace != nil {
		if err := r.writeTrace(); err != nil {
			return nil, err
		}
	}
	img, err := r.surface.Image()
	if err != nil {
		return nil, err
	}
	r.timePos = math.Mod(tp+r.cfg.Animation.TimeStep, 1)
	if r.timePos < 0 {
		r.timePos++
	}
	return img, nil
}

// traceOut is where the first frame's draws go.
type traceOut struct {
	format recording.Format
	path   string
}

// resolveTrace accepts a format name, written to trace<ext> in dir, or
// an output path whose extension selects the format.
func resolveTrace(arg, dir string) (*traceOut, error) {
	if filepath.Ext(arg) != "" {
		f, err := recording.ForFile(arg)
		if err != nil {
			return nil, fmt.Errorf("trace: %w (formats: %s)", err, formatList())
		}
		return &traceOut{format: f, path: arg}, nil
	}
	f, err := recording.Lookup(arg)
	if err != nil {
		return nil, fmt.Errorf("trace: %w (formats: %s)", err, formatList())
	}
	if dir == "" {
		dir = "."
	}
	return &traceOut{format: f, path: filepath.Join(dir, "trace"+f.Ext)}, nil
}

// writeTrace plays the recorded frame into the trace backend. Only the
// first frame is traced.
func (r *renderer) writeTrace() error {
	r.rec.Pause()
	t := r.trace
	r.trace = nil
	b := t.format.New()
	if err := r.rec.Finish().Playback(b); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(t.path)
	if err != nil {
		return err
	}
	if _, err := b.WriteTo(out); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", t.path, err)
	}
	return out.Close()
}

// runFiles renders the configured number of frames to disk and returns
// how many were rendered.
func (r *renderer) runFiles(ctx context.Context) (int, error) {
	dir := r.cfg.Output.Directory
	var stats *statsWriter
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating output directory: %w", err)
		}
		if r.cfg.Output.Stats {
			var err error
			if stats, err = newStatsWriter(filepath.Join(dir, "stats.csv")); err != nil {
				return 0, err
			}
			defer stats.Close()
		}
	}

	for i := range r.cfg.Output.Frames {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		tp := r.timePos
		img, err := r.step()
		if err != nil {
			return i, fmt.Errorf("frame %d: %w", i, err)
		}
		if dir == "" {
			continue
		}
		if err := writePNG(filepath.Join(dir, fmt.Sprintf("frame-%04d.png", i)), scaleImage(img, r.scale)); err != nil {
			return i, err
		}
		if stats != nil {
			if err := stats.Write(measure(i, tp, r.eng, img)); err != nil {
				return i, err
			}
		}
	}
	return r.cfg.Output.Frames, nil
}

// scaleImage resamples img by s. A factor of 1 returns img itself.
func scaleImage(img *image.RGBA, s float64) image.Image {
	if s == 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*s)))
	h := max(1, int(math.Round(float64(b.Dy())*s)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	var k draw.Interpolator = draw.CatmullRom
	if s > 1 {
		k = draw.NearestNeighbor
	}
	k.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// formatList formats the registered trace formats for help text.
func formatList() string {
	return strings.Join(recording.Formats(), ", ")
}
