// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hyperfine drives the hyperfine command-line benchmarking
// tool over a grid of input sizes and worker counts.
package hyperfine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/scalebench/scalebench/report"
)

// ErrBenchmarkFailed is returned when hyperfine exits unsuccessfully.
var ErrBenchmarkFailed = errors.New("hyperfine failed")

// Mode is the execution model of the program being benchmarked.
type Mode int

const (
	// Sequential programs take only the input size.
	Sequential Mode = iota
	// Threaded programs take the size and a thread count.
	Threaded
	// Distributed programs take the size and are started by an MPI
	// launcher with one process per worker.
	Distributed
)

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Threaded:
		return "threaded"
	case Distributed:
		return "distributed"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// WorkerCounts returns 1, 1+step, 1+2*step, ... up to max. It always
// includes 1.
func WorkerCounts(max, step int) []int {
	if step < 1 {
		step = 1
	}
	ws := []int{1}
	for w := 1 + step; w <= max; w += step {
		ws = append(ws, w)
	}
	return ws
}

// A Tool runs hyperfine.
type Tool struct {
	// Path is the hyperfine binary. Default "hyperfine".
	Path string
	// Launcher is the MPI launcher for Distributed runs. Default
	// "mpirun".
	Launcher string
	// LauncherArgs are passed to the launcher after "-np {threads}",
	// e.g. "--oversubscribe".
	LauncherArgs []string

	// Warmup and Runs are passed to hyperfine when positive.
	Warmup int
	Runs   int
	// ShowOutput passes --show-output so the program's output is not
	// discarded.
	ShowOutput bool

	// Logger receives progress messages. If nil, slog.Default is used.
	Logger *slog.Logger
}

// Options describes one benchmark run.
type Options struct {
	Executable string
	Report     string
	Sizes      []int
	// Workers is the worker-count dimension. It is ignored for
	// Sequential runs.
	Workers []int
	Mode    Mode
}

func (t *Tool) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

// Args returns the hyperfine arguments, excluding the binary, for opts.
func (t *Tool) Args(opts Options) []string {
	args := []string{"--export-json", opts.Report}
	if t.ShowOutput {
		args = append(args, "--show-output")
	}
	if t.Warmup > 0 {
		args = append(args, "--warmup", strconv.Itoa(t.Warmup))
	}
	if t.Runs > 0 {
		args = append(args, "--runs", strconv.Itoa(t.Runs))
	}
	args = append(args, "-L", report.SizeParam, join(opts.Sizes))

	exe := command(opts.Executable)
	size := "{" + report.SizeParam + "}"
	workers := "{" + report.WorkersParam + "}"
	switch opts.Mode {
	case Sequential:
		args = append(args, exe+" "+size)
	case Threaded:
		args = append(args, "-L", report.WorkersParam, join(opts.Workers), exe+" "+size+" "+workers)
	case Distributed:
		launch := []string{or(t.Launcher, "mpirun"), "-np", workers}
		launch = append(launch, t.LauncherArgs...)
		launch = append(launch, exe, size)
		args = append(args, "-L", report.WorkersParam, join(opts.Workers), strings.Join(launch, " "))
	}
	return args
}

// Run benchmarks opts.Executable and writes the report to opts.Report.
// The error wraps ErrBenchmarkFailed if hyperfine exits unsuccessfully.
func (t *Tool) Run(ctx context.Context, opts Options) error {
	bin := or(t.Path, "hyperfine")
	args := t.Args(opts)
	t.logger().Info("run hyperfine", "executable", opts.Executable, "mode", opts.Mode)
	t.logger().Debug("hyperfine", "args", args)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return fmt.Errorf("%w: %s: %v\nstderr: %s\nstdout: %s", ErrBenchmarkFailed, opts.Executable, err,
			strings.TrimSpace(stderr.String()), strings.TrimSpace(stdout.String()))
	}
	t.logger().Info("finish hyperfine", "executable", opts.Executable, "report", opts.Report)
	return nil
}

// command makes a relative executable path runnable by a shell.
func command(exe string) string {
	if filepath.IsAbs(exe) || strings.HasPrefix(exe, "."+string(filepath.Separator)) {
		return exe
	}
	return "." + string(filepath.Separator) + exe
}

func join(xs []int) string {
	ss := make([]string, len(xs))
	for i, x := range xs {
		ss[i] = strconv.Itoa(x)
	}
	return strings.Join(ss, ",")
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
