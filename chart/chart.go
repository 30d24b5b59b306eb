// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart renders speed-up curves as images.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/scalebench/scalebench/speedup"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

// Options controls the appearance of a chart. The zero value is
// usable; see the field comments for defaults.
type Options struct {
	Title  string
	XLabel string // Default "Number of processors (cores)"
	YLabel string // Default "Speed-up"

	Width, Height vg.Length // Default 12x7 inches
	DPI           int       // PNG only. Default 100

	// Workers are extra worker counts to draw the ideal line over,
	// in addition to those found in the curves.
	Workers []int
	// NoIdeal suppresses the ideal speed-up line.
	NoIdeal bool
}

const lineWidth = 2.5

// Plot builds the speed-up plot of curves.
func Plot(opts Options, curves []*speedup.Curve) (*plot.Plot, error) {
	workers := workerSet(opts.Workers, curves)
	if len(workers) == 0 {
		return nil, ErrNoData
	}

	pl := plot.New()
	pl.Title.Text = opts.Title
	pl.X.Label.Text = or(opts.XLabel, "Number of processors (cores)")
	pl.Y.Label.Text = or(opts.YLabel, "Speed-up")
	pl.X.Label.TextStyle.Font.Size = vg.Points(12)
	pl.Y.Label.TextStyle.Font.Size = vg.Points(12)
	pl.X.Tick.Marker = intTicks{}
	pl.Y.Tick.Marker = intTicks{}
	pl.X.Min = 0
	pl.Y.Min = 0
	pl.Legend.Top = true
	pl.Legend.Left = true
	pl.Legend.TextStyle.Font.Size = vg.Points(10)

	pl.Add(plotter.NewGrid())

	if !opts.NoIdeal {
		ideal := make(plotter.XYs, len(workers))
		for i, w := range workers {
			ideal[i] = plotter.XY{X: float64(w), Y: float64(w)}
		}
		l, s, err := plotter.NewLinePoints(ideal)
		if err != nil {
			return nil, err
		}
		l.LineStyle.Width = vg.Points(lineWidth)
		l.LineStyle.Color = green
		l.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Color = green
		s.GlyphStyle.Radius = vg.Points(3)
		pl.Add(l, s)
		pl.Legend.Add("Ideal speed-up", l, s)
	}

	for i, c := range curves {
		if len(c.Points) == 0 {
			continue
		}
		pts := make(errPoints, len(c.Points))
		hasErr := false
		for j, p := range c.Points {
			pts[j] = errPoint{x: float64(p.Workers), y: p.Speedup, dy: p.StdDev}
			if !math.IsNaN(p.StdDev) && p.StdDev > 0 {
				hasErr = true
			}
		}
		clr := plotutil.Color(i)
		l, s, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("size %s: %w", c.Size, err)
		}
		l.LineStyle.Width = vg.Points(lineWidth)
		l.LineStyle.Color = clr
		s.GlyphStyle.Shape = draw.BoxGlyph{}
		s.GlyphStyle.Color = clr
		s.GlyphStyle.Radius = vg.Points(3)
		pl.Add(l, s)
		if hasErr {
			eb, err := plotter.NewYErrorBars(pts)
			if err != nil {
				return nil, fmt.Errorf("size %s: %w", c.Size, err)
			}
			eb.LineStyle.Color = clr
			pl.Add(eb)
		}
		pl.Legend.Add("speed-up for size "+c.Size, l, s)
	}
	return pl, nil
}

// Render plots curves and saves the chart to path. The format is
// chosen by the extension of path: .png, .svg or .pdf.
func Render(path string, opts Options, curves []*speedup.Curve) error {
	pl, err := Plot(opts, curves)
	if err != nil {
		return err
	}

	width, height := opts.Width, opts.Height
	if width == 0 {
		width = 12 * vg.Inch
	}
	if height == 0 {
		height = 7 * vg.Inch
	}
	dpi := opts.DPI
	if dpi == 0 {
		dpi = 100
	}

	var can vg.CanvasWriterTo
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		can = vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(width, height),
			vgimg.UseDPI(dpi), vgimg.UseBackgroundColor(color.White))}
	case ".svg":
		can = vgsvg.New(width, height)
	case ".pdf":
		can = vgpdf.New(width, height)
	default:
		return fmt.Errorf("unsupported chart format %q", ext)
	}

	pl.Draw(draw.New(can))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := can.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var green = color.NRGBA{0, 0x80, 0, 0xff}

func workerSet(extra []int, curves []*speedup.Curve) []int {
	seen := make(map[int]bool)
	var ws []int
	add := func(w int) {
		if !seen[w] {
			seen[w] = true
			ws = append(ws, w)
		}
	}
	for _, w := range extra {
		add(w)
	}
	for _, c := range curves {
		for _, p := range c.Points {
			add(p.Workers)
		}
	}
	sort.Ints(ws)
	return ws
}

// errPoints is a speed-up series with symmetric y errors.
type errPoints []errPoint

type errPoint struct {
	x, y, dy float64
}

func (e errPoints) Len() int                { return len(e) }
func (e errPoints) XY(i int) (x, y float64) { return e[i].x, e[i].y }
func (e errPoints) YError(i int) (float64, float64) {
	dy := e[i].dy
	if math.IsNaN(dy) {
		return 0, 0
	}
	return dy, dy
}

// intTicks places labelled ticks on whole numbers, at most about 20
// of them.
type intTicks struct{}

func (intTicks) Ticks(min, max float64) []plot.Tick {
	step := math.Max(1, math.Ceil((max-min)/20))
	var ticks []plot.Tick
	for t := math.Ceil(min/step) * step; t <= max; t += step {
		ticks = append(ticks, plot.Tick{Value: t, Label: fmt.Sprintf("%.0f", t)})
	}
	return ticks
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
