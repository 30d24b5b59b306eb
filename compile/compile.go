// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compile builds the C++ programs under test.
package compile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrBuildFailed is returned when the compiler exits unsuccessfully.
var ErrBuildFailed = errors.New("compilation failed")

// A Compiler knows which compiler binaries to use for each execution
// model. The zero value uses g++ with -fopenmp and mpic++.
type Compiler struct {
	// CXX is the compiler for sequential and shared-memory
	// programs. Default "g++".
	CXX string
	// MPICXX is the MPI compiler wrapper. Default "mpic++".
	MPICXX string
	// OpenMPFlag enables OpenMP for CXX. Default "-fopenmp".
	OpenMPFlag string

	// Logger receives progress messages. If nil, slog.Default is used.
	Logger *slog.Logger
}

// Options describes a single build.
type Options struct {
	Source string
	Output string
	// Flags are appended to the compiler command line.
	Flags []string
	// Distributed selects the MPI compiler wrapper.
	Distributed bool
}

func (c *Compiler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Command returns the argv that Build runs for opts.
func (c *Compiler) Command(opts Options) []string {
	var cmd []string
	if opts.Distributed {
		cmd = []string{or(c.MPICXX, "mpic++"), opts.Source, "-o", opts.Output}
	} else {
		cmd = []string{or(c.CXX, "g++"), opts.Source, "-o", opts.Output, or(c.OpenMPFlag, "-fopenmp")}
	}
	return append(cmd, opts.Flags...)
}

// Build compiles opts.Source into opts.Output and returns the path of
// the executable. If the compiler fails, the returned error wraps
// ErrBuildFailed and includes the compiler's diagnostics.
func (c *Compiler) Build(ctx context.Context, opts Options) (string, error) {
	argv := c.Command(opts)
	c.logger().Debug("compiling", "cmd", strings.Join(argv, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s: %v\n%s", ErrBuildFailed, opts.Source, err, strings.TrimSpace(stderr.String()))
	}
	c.logger().Info("compiled", "source", opts.Source, "output", opts.Output)
	return opts.Output, nil
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
