// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report reads the JSON reports exported by hyperfine's
// --export-json flag and groups their timings by input size.
//
// A report looks like
//
//	{"results": [
//	  {"command": "./prog 100 1", "mean": 0.52, "stddev": 0.01,
//	   "times": [...], "parameters": {"size": "100", "threads": "1"}},
//	  ...
//	]}
//
// Only "results", "parameters.size" and "mean" are required. All
// timings are in seconds.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"

	"github.com/aclements/go-moremath/stats"
)

var (
	// ErrNoReport is returned when a report file does not exist.
	ErrNoReport = errors.New("report not found")
	// ErrNoResults is returned when a report has no "results" section.
	ErrNoResults = errors.New("report has no results")
)

// SizeParam and WorkersParam are the hyperfine parameter names
// scalebench scans over.
const (
	SizeParam    = "size"
	WorkersParam = "threads"
)

// An Entry is one benchmarked command from a report.
type Entry struct {
	Command string
	Size    string

	// Workers is the worker count this entry ran with, or 0 if the
	// report does not record one.
	Workers int

	Mean   float64
	StdDev float64 // NaN if unknown
	Median float64
	Min    float64
	Max    float64
	Times  []float64
}

// A Report is the set of entries of one report, grouped by size.
type Report struct {
	// Name is the file name the report was read from.
	Name string

	sizes   []string
	entries map[string][]*Entry
}

// Sizes returns the sizes in the report, in the order they first
// appear.
func (r *Report) Sizes() []string {
	return r.sizes
}

// Entries returns the entries for size in report order.
func (r *Report) Entries(size string) []*Entry {
	return r.entries[size]
}

// Means returns the mean times for size, in the order they were
// benchmarked. For a report with a worker-count dimension this is the
// order of the worker counts.
func (r *Report) Means(size string) []float64 {
	es := r.entries[size]
	if es == nil {
		return nil
	}
	means := make([]float64, len(es))
	for i, e := range es {
		means[i] = e.Mean
	}
	return means
}

// Has reports whether the report has any entries for size.
func (r *Report) Has(size string) bool {
	return len(r.entries[size]) > 0
}

func (r *Report) add(e *Entry) {
	if r.entries == nil {
		r.entries = make(map[string][]*Entry)
	}
	if _, ok := r.entries[e.Size]; !ok {
		r.sizes = append(r.sizes, e.Size)
	}
	r.entries[e.Size] = append(r.entries[e.Size], e)
}

// ReadFile reads the report at path.
func ReadFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoReport, path)
		}
		return nil, err
	}
	defer f.Close()
	return Parse(f, path)
}

// A param is a hyperfine parameter value. hyperfine writes them as
// strings, but hand-written reports often use numbers.
type param string

func (p *param) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = param(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parameter must be a string or number, got %s", data)
	}
	*p = param(n.String())
	return nil
}

type jsonResult struct {
	Command    string           `json:"command"`
	Mean       *float64         `json:"mean"`
	StdDev     *float64         `json:"stddev"`
	Median     float64          `json:"median"`
	Min        float64          `json:"min"`
	Max        float64          `json:"max"`
	Times      []float64        `json:"times"`
	Parameters map[string]param `json:"parameters"`
}

type jsonReport struct {
	Results *[]jsonResult `json:"results"`
}

// Parse reads a report from r. name is used in error messages.
func Parse(r io.Reader, name string) (*Report, error) {
	var jr jsonReport
	if err := json.NewDecoder(r).Decode(&jr); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if jr.Results == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoResults, name)
	}

	rep := &Report{Name: name}
	for i, res := range *jr.Results {
		e, err := res.entry()
		if err != nil {
			return nil, fmt.Errorf("%s: result %d: %w", name, i, err)
		}
		rep.add(e)
	}
	return rep, nil
}

func (res *jsonResult) entry() (*Entry, error) {
	size, ok := res.Parameters[SizeParam]
	if !ok {
		return nil, fmt.Errorf("missing parameter %q", SizeParam)
	}
	e := &Entry{
		Command: res.Command,
		Size:    string(size),
		Median:  res.Median,
		Min:     res.Min,
		Max:     res.Max,
		Times:   res.Times,
		StdDev:  math.NaN(),
	}
	if w, ok := res.Parameters[WorkersParam]; ok {
		n, err := strconv.Atoi(string(w))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("bad %s parameter %q", WorkersParam, w)
		}
		e.Workers = n
	}

	switch {
	case res.Mean != nil:
		e.Mean = *res.Mean
	case len(res.Times) > 0:
		e.Mean = stats.Mean(res.Times)
	default:
		return nil, errors.New("missing mean")
	}
	switch {
	case res.StdDev != nil:
		e.StdDev = *res.StdDev
	case len(res.Times) > 1:
		e.StdDev = stats.StdDev(res.Times)
	}
	return e, nil
}
