// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalebench/scalebench/speedup"
)

func testCurves() []*speedup.Curve {
	return []*speedup.Curve{
		{Size: "100", Baseline: 10, Points: []speedup.Point{
			{Workers: 1, Mean: 10, Speedup: 1, StdDev: math.NaN()},
			{Workers: 4, Mean: 5, Speedup: 2, StdDev: math.NaN()},
			{Workers: 7, Mean: 2.5, Speedup: 4, StdDev: math.NaN()},
		}},
		{Size: "200", Baseline: 40, Points: []speedup.Point{
			{Workers: 1, Mean: 40, Speedup: 1, StdDev: 0.05},
			{Workers: 4, Mean: 13, Speedup: 3.07, StdDev: 0.1},
			{Workers: 7, Mean: 8, Speedup: 5, StdDev: 0.2},
		}},
	}
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRenderPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scale_ability_omp.png")
	require.NoError(t, Render(path, Options{Title: "omp"}, testCurves()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic), "not a PNG file")
}

func TestRenderFormats(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.svg", "c.pdf"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Render(path, Options{Width: 400, Height: 300}, testCurves()), name)
		fi, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, fi.Size(), name)
	}

	err := Render(filepath.Join(dir, "c.bmp"), Options{}, testCurves())
	assert.ErrorContains(t, err, "unsupported chart format")
	assert.NoFileExists(t, filepath.Join(dir, "c.bmp"))
}

func TestPlot(t *testing.T) {
	pl, err := Plot(Options{}, testCurves())
	require.NoError(t, err)
	assert.Equal(t, "Number of processors (cores)", pl.X.Label.Text)
	assert.Equal(t, "Speed-up", pl.Y.Label.Text)
	assert.Equal(t, 0.0, pl.X.Min)
	// The ideal line reaches the largest worker count.
	assert.GreaterOrEqual(t, pl.Y.Max, 7.0)
}

func TestNoData(t *testing.T) {
	_, err := Plot(Options{}, nil)
	assert.True(t, errors.Is(err, ErrNoData))

	// The ideal line alone is still a chart.
	_, err = Plot(Options{Workers: []int{1, 4}}, nil)
	assert.NoError(t, err)
}

func TestIntTicks(t *testing.T) {
	var labels []string
	for _, tk := range (intTicks{}).Ticks(0, 7) {
		labels = append(labels, tk.Label)
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7"}, labels)

	ticks := (intTicks{}).Ticks(0.5, 100)
	assert.Equal(t, 5.0, ticks[0].Value)
	assert.Equal(t, 5.0, ticks[1].Value-ticks[0].Value)
	assert.LessOrEqual(t, len(ticks), 21)
}

func TestWorkerSet(t *testing.T) {
	assert.Equal(t, []int{1, 2, 4, 7}, workerSet([]int{2, 1}, testCurves()))
}
