// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Scalebench measures how well parallel variants of a C++ program
// scale.
//
// Usage:
//
//	scalebench [flags] seq.cpp parallel.cpp [mpi.cpp]
//
// Scalebench compiles each variant, benchmarks it with hyperfine over
// the configured input sizes (and, for the parallel variants, worker
// counts 1, 1+step, ... up to the number of CPUs), and draws one
// speed-up chart per parallel variant against the sequential baseline.
// Reports, executables and charts are written to the result directory:
//
//	result/seq_bench.json
//	result/parallel_bench.json
//	result/mpi_bench.json
//	result/graphs/scale_ability_omp.png
//	result/graphs/scale_ability_mpi.png
//
// The "measure" and "chart" subcommands run the two halves separately.
//
// Settings come from flags, SCALEBENCH_* environment variables, and an
// optional scalebench.yaml; "scalebench config" prints the result.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/scalebench/scalebench/internal/config"
	"github.com/scalebench/scalebench/internal/harness"
	"github.com/scalebench/scalebench/measure"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line args and returns the exit status.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "scalebench: %v\n", err)
		return 1
	}
	return 0
}

type app struct {
	stdout, stderr io.Writer

	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, v: viper.New()}

	root := &cobra.Command{
		Use:   "scalebench [flags] seq.cpp parallel.cpp [mpi.cpp]",
		Short: "Benchmark parallel speed-up of C++ programs",
		Args:  cobra.RangeArgs(2, 3),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			src := harness.Sources{Seq: args[0], Parallel: args[1]}
			if len(args) > 2 {
				src.MPI = args[2]
			}
			return a.harness().Run(cmd.Context(), src)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "read settings from `file` (default ./scalebench.yaml if present)")
	pf.Bool("verbose", false, "log every external command")
	pf.String("result-dir", "result", "write reports, executables and charts under `dir`")
	pf.IntSlice("sizes", []int{100, 200, 600}, "input `sizes` to benchmark")
	pf.Int("worker-step", 3, "step between benchmarked worker counts")
	pf.Int("max-workers", 0, "largest worker count (default number of CPUs)")
	pf.String("format", "png", "chart image `format`: png, svg or pdf")
	a.bind(pf, map[string]string{
		"verbose":     "verbose",
		"result-dir":  "result_dir",
		"sizes":       "sizes",
		"worker-step": "worker_step",
		"max-workers": "max_workers",
		"format":      "chart.format",
	})

	root.AddCommand(a.measureCmd(), a.chartCmd(), a.configCmd())
	return root
}

// bind binds flags to viper keys. Only flags set on the command line
// take precedence over the config file and environment.
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if err := a.v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	color.NoColor = !isTerminal(a.stdout)
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) harness() *harness.Harness {
	return harness.New(a.cfg, a.stdout, a.logger)
}

func (a *app) measureCmd() *cobra.Command {
	var threaded, distributed bool
	cmd := &cobra.Command{
		Use:   "measure [flags] source.cpp report.json executable",
		Short: "Build one program and benchmark it with hyperfine",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := a.harness()
			if dir := filepath.Dir(args[1]); dir != "." {
				if err := os.MkdirAll(dir, 0777); err != nil {
					return err
				}
			}
			return h.Runner.Run(cmd.Context(), measure.Config{
				Source:      args[0],
				Report:      args[1],
				Executable:  args[2],
				Sizes:       a.cfg.Sizes,
				Threaded:    threaded || distributed,
				Distributed: distributed,
				Flags:       a.cfg.Compiler.Flags,
			})
		},
	}
	cmd.Flags().BoolVar(&threaded, "threaded", false, "benchmark over worker counts, passed as the program's second argument")
	cmd.Flags().BoolVar(&distributed, "distributed", false, "build with the MPI compiler and start through the MPI launcher")
	return cmd
}

func (a *app) chartCmd() *cobra.Command {
	var outDir, name string
	cmd := &cobra.Command{
		Use:   "chart [flags] parallel.json seq.json",
		Short: "Draw the speed-up of a parallel report against a sequential one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(outDir, 0777); err != nil {
				return err
			}
			return a.harness().Chart(harness.ChartJob{
				Parallel: args[0],
				Baseline: args[1],
				Output:   filepath.Join(outDir, name+"."+a.cfg.Chart.Format),
			})
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "graphs", "write the chart into `dir`")
	cmd.Flags().StringVar(&name, "name", "scale_ability_all", "chart file `name` without extension")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cfg.WriteYAML(a.stdout)
		},
	}
}
