// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package measure builds one variant of a program and benchmarks it
// across input sizes and, for parallel variants, worker counts.
package measure

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/scalebench/scalebench/compile"
	"github.com/scalebench/scalebench/hyperfine"
)

// ErrMissingSource is returned when the source file of a Config does
// not exist. Callers should treat it as fatal.
var ErrMissingSource = errors.New("source file does not exist")

// A Config describes one benchmark branch.
type Config struct {
	Source     string
	Executable string
	Report     string
	Sizes      []int

	// Threaded adds the worker-count dimension; the worker count is
	// passed as the program's second argument.
	Threaded bool
	// Distributed builds with the MPI wrapper and starts the program
	// through the MPI launcher with one process per worker.
	Distributed bool

	// Flags are extra compiler flags.
	Flags []string
}

// Mode returns the execution model the Config selects.
func (c *Config) Mode() hyperfine.Mode {
	switch {
	case c.Distributed:
		return hyperfine.Distributed
	case c.Threaded:
		return hyperfine.Threaded
	}
	return hyperfine.Sequential
}

// A Builder compiles a program. *compile.Compiler implements Builder.
type Builder interface {
	Build(ctx context.Context, opts compile.Options) (string, error)
}

// A Benchmarker runs a benchmark and writes its report.
// *hyperfine.Tool implements Benchmarker.
type Benchmarker interface {
	Run(ctx context.Context, opts hyperfine.Options) error
}

// A Measurer runs benchmark branches.
type Measurer struct {
	Builder     Builder
	Benchmarker Benchmarker
	// Workers is the worker-count dimension for parallel branches.
	Workers []int
	Logger  *slog.Logger
}

func (m *Measurer) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

// Run builds cfg.Source and benchmarks the result.
//
// A missing source yields ErrMissingSource before anything is built.
// A compilation failure is logged and returned wrapping
// compile.ErrBuildFailed; no benchmark runs. A benchmark failure is
// logged but not returned: the report may be absent or incomplete.
func (m *Measurer) Run(ctx context.Context, cfg Config) error {
	if err := CheckSource(cfg.Source); err != nil {
		return err
	}

	exe, err := m.Builder.Build(ctx, compile.Options{
		Source:      cfg.Source,
		Output:      cfg.Executable,
		Flags:       cfg.Flags,
		Distributed: cfg.Distributed,
	})
	if err != nil {
		m.logger().Error("build failed, skipping benchmark", "source", cfg.Source, "err", err)
		return err
	}

	err = m.Benchmarker.Run(ctx, hyperfine.Options{
		Executable: exe,
		Report:     cfg.Report,
		Sizes:      cfg.Sizes,
		Workers:    m.Workers,
		Mode:       cfg.Mode(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.logger().Error("benchmark failed", "executable", exe, "err", err)
	}
	return nil
}

// CheckSource returns ErrMissingSource if path does not exist.
func CheckSource(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingSource, path)
		}
		return err
	}
	return nil
}
