// Command windgl renders a synthetic wind field headlessly.
//
// Frames are written as PNG files, optionally with a per-frame stats
// CSV and a draw trace, or shown live in the terminal with -term.
//
//	windgl -frames 60 -mode ribbon -out frames
//	windgl -term -backend soft
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/prajeeshag/windgl"
	"github.com/prajeeshag/windgl/backend"
	_ "github.com/prajeeshag/windgl/backend/soft"
	_ "github.com/prajeeshag/windgl/backend/wgpu"
	"github.com/prajeeshag/windgl/config"
	"github.com/prajeeshag/windgl/render"
)

type flags struct {
	config    string
	out       string
	frames    int
	mode      string
	width     int
	height    int
	scale     float64
	stats     bool
	term      bool
	backend   string
	autoRange bool
	seed      uint64
	trace     string
	dumpCfg   string
	verbose   bool

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	fs := flag.NewFlagSet("windgl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &flags{}
	fs.StringVar(&f.config, "config", "", "YAML config file")
	fs.StringVar(&f.out, "out", "", "output directory for PNG frames")
	fs.IntVar(&f.frames, "frames", 0, "number of frames to render")
	fs.StringVar(&f.mode, "mode", "", "particle mode: point or ribbon")
	fs.IntVar(&f.width, "width", 0, "surface width in pixels")
	fs.IntVar(&f.height, "height", 0, "surface height in pixels")
	fs.Float64Var(&f.scale, "scale", 1, "scale factor applied to written frames")
	fs.BoolVar(&f.stats, "stats", false, "write stats.csv next to the frames")
	fs.BoolVar(&f.term, "term", false, "show frames in the terminal")
	fs.StringVar(&f.backend, "backend", "", "device backend (default: best available)")
	fs.BoolVar(&f.autoRange, "auto-range", false, "fit the speed color range to the field")
	fs.Uint64Var(&f.seed, "seed", 0, "random seed")
	fs.StringVar(&f.trace, "trace", "", "write the draws of the first frame: a format ("+formatList()+") or a file path whose extension picks one")
	fs.StringVar(&f.dumpCfg, "write-config", "", "write the effective config to this file and exit")
	fs.BoolVar(&f.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// apply overrides cfg with the flags given on the command line.
func (f *flags) apply(cfg *config.Config) {
	if f.set["out"] {
		cfg.Output.Directory = f.out
	}
	if f.set["frames"] {
		cfg.Output.Frames = f.frames
	}
	if f.set["mode"] {
		cfg.Engine.Mode = f.mode
	}
	if f.set["width"] {
		cfg.Surface.Width = f.width
	}
	if f.set["height"] {
		cfg.Surface.Height = f.height
	}
	if f.set["stats"] {
		cfg.Output.Stats = f.stats
	}
	if f.set["seed"] {
		seed := f.seed
		cfg.Engine.Seed = &seed
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "windgl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	windgl.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer windgl.SetLogger(nil)

	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if f.dumpCfg != "" {
		return cfg.WriteYAML(f.dumpCfg)
	}

	r, err := newRenderer(cfg, f)
	if err != nil {
		return err
	}
	defer r.Close()

	if f.term {
		return r.runTerm(ctx)
	}
	n, err := r.runFiles(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "rendered %d frames on %s (%s, %d particles)\n",
		n, r.dev.Capabilities().Name, r.eng.Mode(), r.eng.Particles())
	return nil
}

// openDevice opens the named backend, or the best available one.
func openDevice(name string) (render.Device, error) {
	if name == "" {
		return backend.Default()
	}
	d, err := backend.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, backend.Available())
	}
	return d, nil
}
