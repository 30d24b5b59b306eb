// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand(t *testing.T) {
	var c Compiler
	assert.Equal(t,
		[]string{"g++", "prog.cpp", "-o", "out/prog", "-fopenmp", "-O2"},
		c.Command(Options{Source: "prog.cpp", Output: "out/prog", Flags: []string{"-O2"}}))
	assert.Equal(t,
		[]string{"mpic++", "prog.cpp", "-o", "out/prog"},
		c.Command(Options{Source: "prog.cpp", Output: "out/prog", Distributed: true}))

	c = Compiler{CXX: "clang++", MPICXX: "mpicxx", OpenMPFlag: "-fopenmp=libomp"}
	assert.Equal(t,
		[]string{"clang++", "a.cpp", "-o", "a", "-fopenmp=libomp"},
		c.Command(Options{Source: "a.cpp", Output: "a"}))
	assert.Equal(t,
		[]string{"mpicxx", "a.cpp", "-o", "a", "-O3"},
		c.Command(Options{Source: "a.cpp", Output: "a", Flags: []string{"-O3"}, Distributed: true}))
}

func TestBuildFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("no false binary")
	}
	c := Compiler{CXX: "false"}
	path, err := c.Build(context.Background(), Options{Source: "a.cpp", Output: "a"})
	assert.True(t, errors.Is(err, ErrBuildFailed), "got %v", err)
	assert.Empty(t, path)
}

func TestBuildMissingCompiler(t *testing.T) {
	c := Compiler{CXX: "scalebench-no-such-compiler"}
	_, err := c.Build(context.Background(), Options{Source: "a.cpp", Output: "a"})
	assert.True(t, errors.Is(err, ErrBuildFailed), "got %v", err)
}

func TestBuild(t *testing.T) {
	if _, err := exec.LookPath("g++"); err != nil {
		t.Skip("g++ not installed")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.cpp")
	require.NoError(t, os.WriteFile(src, []byte("int main() { return 0; }\n"), 0666))
	out := filepath.Join(dir, "hello")

	var c Compiler
	path, err := c.Build(context.Background(), Options{Source: src, Output: out})
	if errors.Is(err, ErrBuildFailed) {
		// Some toolchains ship without OpenMP support.
		t.Skipf("g++ cannot build with -fopenmp: %v", err)
	}
	require.NoError(t, err)
	assert.Equal(t, out, path)
	assert.FileExists(t, out)
}
