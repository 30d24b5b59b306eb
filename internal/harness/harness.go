// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package harness runs the whole scalebench workflow: build and
// benchmark each program variant, then chart the parallel variants
// against the sequential baseline.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/scalebench/scalebench/chart"
	"github.com/scalebench/scalebench/compile"
	"github.com/scalebench/scalebench/hyperfine"
	"github.com/scalebench/scalebench/internal/config"
	"github.com/scalebench/scalebench/measure"
	"github.com/scalebench/scalebench/report"
	"github.com/scalebench/scalebench/speedup"
)

// Output names inside the result directory.
const (
	SeqReport      = "seq_bench.json"
	ParallelReport = "parallel_bench.json"
	MPIReport      = "mpi_bench.json"

	SeqProgram      = "seq-prog"
	ParallelProgram = "parallel-prog"
	MPIProgram      = "mpi-prog"

	GraphsDir = "graphs"
)

// Sources names the program variants to benchmark. MPI is optional.
type Sources struct {
	Seq      string
	Parallel string
	MPI      string
}

// A Runner runs one benchmark branch. *measure.Measurer implements
// Runner.
type Runner interface {
	Run(ctx context.Context, cfg measure.Config) error
}

// A Harness drives the workflow.
type Harness struct {
	Config *config.Config
	Runner Runner
	// Out receives the speed-up summaries.
	Out    io.Writer
	Logger *slog.Logger
}

// New returns a Harness that builds with the configured compilers and
// measures with hyperfine.
func New(cfg *config.Config, out io.Writer, logger *slog.Logger) *Harness {
	h := &Harness{Config: cfg, Out: out, Logger: logger}
	h.Runner = &measure.Measurer{
		Builder: &compile.Compiler{
			CXX:        cfg.Compiler.CXX,
			MPICXX:     cfg.Compiler.MPICXX,
			OpenMPFlag: cfg.Compiler.OpenMPFlag,
			Logger:     logger,
		},
		Benchmarker: &hyperfine.Tool{
			Path:         cfg.Hyperfine.Path,
			Launcher:     cfg.Hyperfine.Launcher,
			LauncherArgs: cfg.Hyperfine.LauncherArgs,
			Warmup:       cfg.Hyperfine.Warmup,
			Runs:         cfg.Hyperfine.Runs,
			ShowOutput:   cfg.Hyperfine.ShowOutput,
			Logger:       logger,
		},
		Workers: h.Workers(),
		Logger:  logger,
	}
	return h
}

func (h *Harness) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// Workers returns the worker counts to benchmark.
func (h *Harness) Workers() []int {
	return hyperfine.WorkerCounts(h.Config.MaxWorkers, h.Config.WorkerStep)
}

type branch struct {
	cfg   measure.Config
	chart string // chart base name, empty for the baseline
	title string
}

func (h *Harness) branches(src Sources) []branch {
	dir := h.Config.ResultDir
	bs := []branch{
		{cfg: measure.Config{
			Source:     src.Seq,
			Executable: filepath.Join(dir, SeqProgram),
			Report:     filepath.Join(dir, SeqReport),
		}},
		{cfg: measure.Config{
			Source:     src.Parallel,
			Executable: filepath.Join(dir, ParallelProgram),
			Report:     filepath.Join(dir, ParallelReport),
			Threaded:   true,
		}, chart: "scale_ability_omp", title: "OpenMP"},
	}
	if src.MPI != "" {
		bs = append(bs, branch{cfg: measure.Config{
			Source:      src.MPI,
			Executable:  filepath.Join(dir, MPIProgram),
			Report:      filepath.Join(dir, MPIReport),
			Threaded:    true,
			Distributed: true,
		}, chart: "scale_ability_mpi", title: "MPI"})
	}
	for i := range bs {
		bs[i].cfg.Sizes = h.Config.Sizes
		bs[i].cfg.Flags = h.Config.Compiler.Flags
	}
	return bs
}

// Run benchmarks every variant in src and charts each parallel variant
// against the sequential one.
//
// A missing source file is reported before any work starts. A variant
// that fails to build is skipped, but charting it then fails because
// its report is missing. Charts are written to the "graphs"
// subdirectory of the result directory.
func (h *Harness) Run(ctx context.Context, src Sources) error {
	bs := h.branches(src)
	for _, b := range bs {
		if err := measure.CheckSource(b.cfg.Source); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(h.Config.ResultDir, 0777); err != nil {
		return err
	}

	for _, b := range bs {
		// A stale report from an earlier run must not stand in for
		// a branch that fails this time.
		if err := os.Remove(b.cfg.Report); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		err := h.Runner.Run(ctx, b.cfg)
		switch {
		case err == nil, errors.Is(err, compile.ErrBuildFailed):
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return err
		}
	}

	graphs := filepath.Join(h.Config.ResultDir, GraphsDir)
	if err := os.MkdirAll(graphs, 0777); err != nil {
		return err
	}
	baseline := bs[0].cfg.Report
	for _, b := range bs[1:] {
		err := h.Chart(ChartJob{
			Parallel: b.cfg.Report,
			Baseline: baseline,
			Output:   filepath.Join(graphs, b.chart+"."+h.Config.Chart.Format),
			Title:    b.title,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// A ChartJob names the inputs and output of one chart.
type ChartJob struct {
	Parallel string
	Baseline string
	// Output is the image path; its extension picks the format.
	Output string
	Title  string
}

// Chart reads both reports of job, computes the speed-up curves and
// renders them. A CSV of the curves is written next to the image and
// a summary table to h.Out. Nothing is drawn unless both reports are
// readable.
func (h *Harness) Chart(job ChartJob) error {
	par, err := report.ReadFile(job.Parallel)
	if err != nil {
		return fmt.Errorf("parallel results: %w", err)
	}
	base, err := report.ReadFile(job.Baseline)
	if err != nil {
		return fmt.Errorf("sequential results: %w", err)
	}

	workers := h.Workers()
	curves, warnings := speedup.Compute(par, base, workers)
	for _, w := range warnings {
		h.logger().Warn("speed-up", "report", job.Parallel, "warning", w)
	}

	opts := chart.Options{Title: job.Title, Workers: workers, DPI: h.Config.Chart.DPI}
	if err := chart.Render(job.Output, opts, curves); err != nil {
		return fmt.Errorf("rendering %s: %w", job.Output, err)
	}
	h.logger().Info("wrote chart", "path", job.Output)

	csvPath := strings.TrimSuffix(job.Output, filepath.Ext(job.Output)) + ".csv"
	if err := writeCSV(csvPath, curves); err != nil {
		return err
	}

	if h.Out != nil {
		return WriteSummary(h.Out, job.Title, curves)
	}
	return nil
}

func writeCSV(path string, curves []*speedup.Curve) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := speedup.WriteCSV(f, curves); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
