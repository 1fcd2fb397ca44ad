// Command windview shows a synthetic wind field in a window.
//
// Keys: space pauses, left and right scrub time, a toggles the time
// animation, m switches between point and ribbon particles, + and -
// change the particle density. Drag to pan, scroll to zoom. Settings
// are restored on the next start.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"

	"github.com/prajeeshag/windgl"
	"github.com/prajeeshag/windgl/backend"
	_ "github.com/prajeeshag/windgl/backend/soft"
	_ "github.com/prajeeshag/windgl/backend/wgpu"
	"github.com/prajeeshag/windgl/config"
	"github.com/prajeeshag/windgl/internal/viewer"
	"github.com/prajeeshag/windgl/render"
)

type game struct {
	v *viewer.Viewer

	img      *ebiten.Image
	seq      uint64
	dragging bool
	lastX    int
	lastY    int
	lastTick time.Time
}

func (g *game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyQ):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.v.TogglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		g.v.ToggleAnimation()
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		if err := g.v.ToggleMode(); err != nil {
			windgl.Logger().Warn("mode switch failed", "err", err)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		g.v.AdjustDensity(viewer.DensityStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		g.v.AdjustDensity(-viewer.DensityStep)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.v.Scrub(viewer.ScrubStep / 4)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.v.Scrub(-viewer.ScrubStep / 4)
	}

	x, y := ebiten.CursorPosition()
	if _, dy := ebiten.Wheel(); dy != 0 {
		factor := 1.1
		if dy < 0 {
			factor = 1 / factor
		}
		g.v.Zoom(factor, float64(x), float64(y))
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if g.dragging {
			g.v.Pan(float64(x-g.lastX), float64(y-g.lastY))
		}
		g.dragging, g.lastX, g.lastY = true, x, y
	} else {
		g.dragging = false
	}

	now := time.Now()
	elapsed := time.Second / 60
	if !g.lastTick.IsZero() {
		elapsed = now.Sub(g.lastTick)
	}
	g.lastTick = now
	return g.v.Step(elapsed)
}

func (g *game) Draw(screen *ebiten.Image) {
	frame, at, seq := g.v.Frame()
	if frame == nil {
		return
	}
	if seq != g.seq {
		b := frame.Bounds()
		if g.img == nil || g.img.Bounds().Dx() != b.Dx() || g.img.Bounds().Dy() != b.Dy() {
			if g.img != nil {
				g.img.Deallocate()
			}
			g.img = ebiten.NewImage(b.Dx(), b.Dy())
		}
		g.img.WritePixels(frame.Pix)
		g.seq = seq
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(at.X), float64(at.Y))
	screen.DrawImage(g.img, op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.v.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func main() {
	if err := run(); err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "windview:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "YAML config file")
		backendArg = flag.String("backend", backend.Soft, "device backend")
		reset      = flag.Bool("reset", false, "ignore saved settings")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	windgl.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	f, err := cfg.Synthetic().Generate()
	if err != nil {
		return err
	}

	var store viewer.Store
	if m, err := gdata.Open(gdata.Config{AppName: "windview"}); err != nil {
		windgl.Logger().Warn("settings will not persist", "err", err)
	} else {
		store = m
	}
	mode, err := cfg.Mode()
	if err != nil {
		return err
	}
	def := viewer.Settings{
		Mode:    cfg.Engine.Mode,
		Density: cfg.Engine.Params(mode).Density,
		Animate: cfg.Animation.TimeStep > 0,
		Zoom:    1,
	}
	st := def
	if !*reset {
		if st, err = viewer.LoadSettings(store, def); err != nil {
			windgl.Logger().Warn("using default settings", "err", err)
		}
	}

	dev, err := backend.Get(*backendArg)
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, backend.Available())
	}
	defer dev.Close()

	v, err := viewer.New(dev, f, viewer.Config{
		Options:     opts,
		Settings:    st,
		SettleDelay: cfg.Animation.SettleDelay,
		Rate:        cfg.Animation.TimeStep * cfg.Animation.FPS,
	})
	if err != nil {
		return err
	}
	defer v.Close()

	g := &game{v: v}
	ebiten.SetWindowSize(cfg.Surface.Width, cfg.Surface.Height)
	ebiten.SetWindowTitle(fmt.Sprintf("windview (%s)", deviceName(dev)))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(int(cfg.Animation.FPS))

	err = ebiten.RunGame(g)
	if serr := viewer.SaveSettings(store, v.Settings()); serr != nil {
		windgl.Logger().Warn("saving settings", "err", serr)
	}
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func deviceName(dev render.Device) string { return dev.Capabilities().Name }
