package main

import (
	"fmt"
	"image"
	"os"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/prajeeshag/windgl"
)

// frameStats is one row of stats.csv.
type frameStats struct {
	Frame        int     `csv:"frame"`
	TimePosition float64 `csv:"time_position"`
	FrameIndex   int     `csv:"frame_index"`
	BlendFactor  float64 `csv:"blend_factor"`
	LitPixels    int     `csv:"lit_pixels"`
	MeanAlpha    float64 `csv:"mean_alpha"`
	Particles    int     `csv:"particles"`
}

// measure summarizes a drawn frame.
func measure(frame int, timePos float64, eng windgl.Engine, img *image.RGBA) frameStats {
	s := frameStats{
		Frame:        frame,
		TimePosition: timePos,
		FrameIndex:   eng.FrameIndex(),
		BlendFactor:  eng.BlendFactor(),
		Particles:    eng.Particles(),
	}
	alpha := make([]float64, 0, len(img.Pix)/4)
	for i := 3; i < len(img.Pix); i += 4 {
		a := img.Pix[i]
		if a > 0 {
			s.LitPixels++
		}
		alpha = append(alpha, float64(a)/255)
	}
	if len(alpha) > 0 {
		s.MeanAlpha = stat.Mean(alpha, nil)
	}
	return s
}

// statsWriter appends frameStats rows to a CSV file.
type statsWriter struct {
	f             *os.File
	headerWritten bool
}

func newStatsWriter(path string) (*statsWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating stats.csv: %w", err)
	}
	return &statsWriter{f: f}, nil
}

// Write appends one row, with the header before the first.
func (w *statsWriter) Write(s frameStats) error {
	records := []frameStats{s}
	if !w.headerWritten {
		if err := gocsv.Marshal(records, w.f); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
		w.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, w.f); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

func (w *statsWriter) Close() error { return w.f.Close() }
