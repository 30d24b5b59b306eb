// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads scalebench settings from defaults, an optional
// YAML file, SCALEBENCH_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the effective scalebench configuration.
type Config struct {
	ResultDir  string `mapstructure:"result_dir" yaml:"result_dir"`
	Sizes      []int  `mapstructure:"sizes" yaml:"sizes"`
	WorkerStep int    `mapstructure:"worker_step" yaml:"worker_step"`
	MaxWorkers int    `mapstructure:"max_workers" yaml:"max_workers"`
	Verbose    bool   `mapstructure:"verbose" yaml:"verbose"`

	Compiler  Compiler  `mapstructure:"compiler" yaml:"compiler"`
	Hyperfine Hyperfine `mapstructure:"hyperfine" yaml:"hyperfine"`
	Chart     Chart     `mapstructure:"chart" yaml:"chart"`
}

// Compiler configures the Builder.
type Compiler struct {
	CXX        string   `mapstructure:"cxx" yaml:"cxx"`
	MPICXX     string   `mapstructure:"mpicxx" yaml:"mpicxx"`
	OpenMPFlag string   `mapstructure:"openmp_flag" yaml:"openmp_flag"`
	Flags      []string `mapstructure:"flags" yaml:"flags"`
}

// Hyperfine configures the Runner.
type Hyperfine struct {
	Path         string   `mapstructure:"path" yaml:"path"`
	Warmup       int      `mapstructure:"warmup" yaml:"warmup"`
	Runs         int      `mapstructure:"runs" yaml:"runs"`
	ShowOutput   bool     `mapstructure:"show_output" yaml:"show_output"`
	Launcher     string   `mapstructure:"launcher" yaml:"launcher"`
	LauncherArgs []string `mapstructure:"launcher_args" yaml:"launcher_args"`
}

// Chart configures the Reporter's images.
type Chart struct {
	Format string `mapstructure:"format" yaml:"format"`
	DPI    int    `mapstructure:"dpi" yaml:"dpi"`
}

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SCALEBENCH"

// SetDefaults installs the default configuration into v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("result_dir", "result")
	v.SetDefault("sizes", []int{100, 200, 600})
	v.SetDefault("worker_step", 3)
	v.SetDefault("max_workers", runtime.NumCPU())
	v.SetDefault("verbose", false)

	v.SetDefault("compiler.cxx", "g++")
	v.SetDefault("compiler.mpicxx", "mpic++")
	v.SetDefault("compiler.openmp_flag", "-fopenmp")
	v.SetDefault("compiler.flags", []string{})

	v.SetDefault("hyperfine.path", "hyperfine")
	v.SetDefault("hyperfine.warmup", 0)
	v.SetDefault("hyperfine.runs", 0)
	v.SetDefault("hyperfine.show_output", true)
	v.SetDefault("hyperfine.launcher", "mpirun")
	v.SetDefault("hyperfine.launcher_args", []string{})

	v.SetDefault("chart.format", "png")
	v.SetDefault("chart.dpi", 100)
}

// Load reads the configuration into v and returns it. If cfgFile is
// empty, a "scalebench.yaml" in the working directory is used if
// present. Flags should already be bound to v.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("scalebench")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting in c.
func (c *Config) Validate() error {
	if len(c.Sizes) == 0 {
		return errors.New("config: no sizes")
	}
	for _, s := range c.Sizes {
		if s <= 0 {
			return fmt.Errorf("config: size %d is not positive", s)
		}
	}
	if c.WorkerStep < 1 {
		return fmt.Errorf("config: worker_step %d must be at least 1", c.WorkerStep)
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("config: max_workers %d must be at least 1", c.MaxWorkers)
	}
	switch c.Chart.Format {
	case "png", "svg", "pdf":
	default:
		return fmt.Errorf("config: unknown chart format %q", c.Chart.Format)
	}
	return nil
}

// WriteYAML writes c to w as YAML.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
