// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalebench/scalebench/compile"
	"github.com/scalebench/scalebench/hyperfine"
	"github.com/scalebench/scalebench/internal/config"
	"github.com/scalebench/scalebench/measure"
	"github.com/scalebench/scalebench/report"
)

func init() {
	color.NoColor = true
}

// fakeBuilder "compiles" by touching the output file.
type fakeBuilder struct {
	fail  map[string]bool // sources that fail to build
	built []string
}

func (b *fakeBuilder) Build(ctx context.Context, opts compile.Options) (string, error) {
	if b.fail[opts.Source] {
		return "", fmt.Errorf("%w: %s", compile.ErrBuildFailed, opts.Source)
	}
	b.built = append(b.built, opts.Source)
	return opts.Output, os.WriteFile(opts.Output, nil, 0777)
}

// fakeBenchmarker writes a report with perfect linear scaling: the
// baseline of size s takes s/100 seconds.
type fakeBenchmarker struct{}

type fakeResult struct {
	Command    string            `json:"command"`
	Mean       float64           `json:"mean"`
	StdDev     float64           `json:"stddev"`
	Parameters map[string]string `json:"parameters"`
}

func (fakeBenchmarker) Run(ctx context.Context, opts hyperfine.Options) error {
	var results []fakeResult
	for _, s := range opts.Sizes {
		base := float64(s) / 100
		if opts.Mode == hyperfine.Sequential {
			results = append(results, fakeResult{
				Command:    fmt.Sprintf("%s %d", opts.Executable, s),
				Mean:       base,
				StdDev:     base / 100,
				Parameters: map[string]string{"size": strconv.Itoa(s)},
			})
			continue
		}
		for _, w := range opts.Workers {
			results = append(results, fakeResult{
				Command: fmt.Sprintf("%s %d %d", opts.Executable, s, w),
				Mean:    base / float64(w),
				StdDev:  base / float64(w) / 100,
				Parameters: map[string]string{
					"size":    strconv.Itoa(s),
					"threads": strconv.Itoa(w),
				},
			})
		}
	}
	data, err := json.Marshal(map[string]any{"results": results})
	if err != nil {
		return err
	}
	return os.WriteFile(opts.Report, data, 0666)
}

type fixture struct {
	h       *Harness
	builder *fakeBuilder
	out     *bytes.Buffer
	src     Sources
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tmp := t.TempDir()
	src := Sources{
		Seq:      filepath.Join(tmp, "seq.cpp"),
		Parallel: filepath.Join(tmp, "parallel.cpp"),
		MPI:      filepath.Join(tmp, "mpi.cpp"),
	}
	for _, p := range []string{src.Seq, src.Parallel, src.MPI} {
		require.NoError(t, os.WriteFile(p, []byte("int main() {}\n"), 0666))
	}
	cfg := &config.Config{
		ResultDir:  filepath.Join(tmp, "result"),
		Sizes:      []int{100, 200},
		WorkerStep: 3,
		MaxWorkers: 7,
		Chart:      config.Chart{Format: "png", DPI: 50},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := &fakeBuilder{fail: map[string]bool{}}
	out := new(bytes.Buffer)
	h := &Harness{
		Config: cfg,
		Runner: &measure.Measurer{Builder: b, Benchmarker: fakeBenchmarker{}, Workers: []int{1, 4, 7}, Logger: logger},
		Out:    out,
		Logger: logger,
	}
	return &fixture{h: h, builder: b, out: out, src: src, dir: cfg.ResultDir}
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	f.src.MPI = ""
	require.NoError(t, f.h.Run(context.Background(), f.src))

	reports, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	require.NoError(t, err)
	assert.Len(t, reports, 2)
	assert.FileExists(t, filepath.Join(f.dir, SeqReport))
	assert.FileExists(t, filepath.Join(f.dir, ParallelReport))

	pngs, err := filepath.Glob(filepath.Join(f.dir, GraphsDir, "*.png"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(f.dir, GraphsDir, "scale_ability_omp.png")}, pngs)
	assert.FileExists(t, filepath.Join(f.dir, GraphsDir, "scale_ability_omp.csv"))

	summary := f.out.String()
	assert.Contains(t, summary, "OpenMP\n")
	assert.Contains(t, summary, "size 100: best speed-up 7.00x at 7 workers\n")
	assert.Contains(t, summary, "geomean at 4 workers: 4.00x\n")
}

func TestRunMPI(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.h.Run(context.Background(), f.src))
	assert.FileExists(t, filepath.Join(f.dir, MPIReport))
	assert.FileExists(t, filepath.Join(f.dir, GraphsDir, "scale_ability_omp.png"))
	assert.FileExists(t, filepath.Join(f.dir, GraphsDir, "scale_ability_mpi.png"))
	assert.Equal(t, []string{f.src.Seq, f.src.Parallel, f.src.MPI}, f.builder.built)
}

func TestMissingSource(t *testing.T) {
	f := newFixture(t)
	f.src.MPI = filepath.Join(t.TempDir(), "missing.cpp")
	err := f.h.Run(context.Background(), f.src)
	assert.True(t, errors.Is(err, measure.ErrMissingSource), "got %v", err)
	// No branch may start, not even the ones whose sources exist.
	assert.Empty(t, f.builder.built)
	assert.NoDirExists(t, f.dir)
}

func TestBuildFailure(t *testing.T) {
	f := newFixture(t)
	f.builder.fail[f.src.MPI] = true

	// Pretend an earlier run left an MPI report behind.
	require.NoError(t, os.MkdirAll(f.dir, 0777))
	stale := filepath.Join(f.dir, MPIReport)
	require.NoError(t, os.WriteFile(stale, []byte(`{"results": []}`), 0666))

	err := f.h.Run(context.Background(), f.src)
	assert.True(t, errors.Is(err, report.ErrNoReport), "got %v", err)
	// The OpenMP branch still ran to completion.
	assert.FileExists(t, filepath.Join(f.dir, GraphsDir, "scale_ability_omp.png"))
	assert.NoFileExists(t, filepath.Join(f.dir, GraphsDir, "scale_ability_mpi.png"))
	assert.NoFileExists(t, stale)
}

func TestChartMissingReport(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "chart.png")
	err := f.h.Chart(ChartJob{
		Parallel: filepath.Join(dir, "parallel.json"),
		Baseline: filepath.Join("..", "..", "report", "testdata", "seq.json"),
		Output:   out,
	})
	assert.True(t, errors.Is(err, report.ErrNoReport), "got %v", err)
	assert.NoFileExists(t, out)
}

func TestChartNoResults(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "chart.png")
	err := f.h.Chart(ChartJob{
		Parallel: filepath.Join("..", "..", "report", "testdata", "parallel.json"),
		Baseline: filepath.Join("..", "..", "report", "testdata", "noresults.json"),
		Output:   out,
	})
	assert.True(t, errors.Is(err, report.ErrNoResults), "got %v", err)
	assert.NoFileExists(t, out)
}

// TestEndToEnd runs the real toolchain when it is installed.
func TestEndToEnd(t *testing.T) {
	for _, bin := range []string{"g++", "hyperfine"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not installed", bin)
		}
	}
	dir := t.TempDir()
	cfg := &config.Config{
		ResultDir:  dir,
		Sizes:      []int{50, 100},
		WorkerStep: 3,
		MaxWorkers: 4,
		Compiler:   config.Compiler{CXX: "g++", OpenMPFlag: "-fopenmp", Flags: []string{"-O2"}},
		Hyperfine:  config.Hyperfine{Path: "hyperfine", Runs: 2},
		Chart:      config.Chart{Format: "png", DPI: 50},
	}
	h := New(cfg, io.Discard, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := h.Run(context.Background(), Sources{
		Seq:      filepath.Join("testdata", "seq.cpp"),
		Parallel: filepath.Join("testdata", "parallel.cpp"),
	})
	require.NoError(t, err)

	reports, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	assert.Len(t, reports, 2)
	pngs, _ := filepath.Glob(filepath.Join(dir, GraphsDir, "*.png"))
	assert.NotEmpty(t, pngs)
}
