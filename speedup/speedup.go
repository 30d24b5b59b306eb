// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package speedup computes parallel speed-up curves from a parallel
// report and a sequential baseline report.
//
// The speed-up of size s at worker count p is
//
//	baseline(s) / parallel(s, p)
//
// where baseline(s) is the first mean recorded for s in the baseline
// report.
package speedup

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"

	"github.com/scalebench/scalebench/report"
)

// A Point is the speed-up at one worker count.
type Point struct {
	Workers    int
	Mean       float64 // Parallel mean time in seconds
	Speedup    float64
	Efficiency float64 // Speedup / Workers
	// StdDev is the standard deviation of Speedup propagated from
	// the deviations of both means, or NaN if either is unknown.
	StdDev float64
}

// A Curve is the speed-up of one input size across worker counts.
type Curve struct {
	Size     string
	Baseline float64 // Baseline mean time in seconds
	Points   []Point
}

// Compute returns one Curve per size of parallel, in report order.
//
// The worker count of each point is taken from the report when
// hyperfine recorded it and from workers otherwise, by position. Sizes
// missing from baseline and means without a worker count are dropped;
// each drop is described by a warning.
func Compute(parallel, baseline *report.Report, workers []int) ([]*Curve, []error) {
	var curves []*Curve
	var warnings []error
	for _, size := range parallel.Sizes() {
		if !baseline.Has(size) {
			warnings = append(warnings, fmt.Errorf("size %s: not in baseline report %s", size, baseline.Name))
			continue
		}
		base := baseline.Entries(size)[0]
		c := &Curve{Size: size, Baseline: base.Mean}
		for i, e := range parallel.Entries(size) {
			w := e.Workers
			if w == 0 {
				if i >= len(workers) {
					warnings = append(warnings, fmt.Errorf("size %s: %d means but only %d worker counts; dropping the rest",
						size, len(parallel.Entries(size)), len(workers)))
					break
				}
				w = workers[i]
			}
			c.Points = append(c.Points, point(base, e, w))
		}
		curves = append(curves, c)
	}
	return curves, warnings
}

func point(base, e *report.Entry, workers int) Point {
	s := base.Mean / e.Mean
	// Relative errors add in quadrature for a quotient.
	rb, rp := base.StdDev/base.Mean, e.StdDev/e.Mean
	return Point{
		Workers:    workers,
		Mean:       e.Mean,
		Speedup:    s,
		Efficiency: s / float64(workers),
		StdDev:     s * math.Sqrt(rb*rb+rp*rp),
	}
}

// Speedups returns the speed-ups of c in order.
func (c *Curve) Speedups() []float64 {
	ss := make([]float64, len(c.Points))
	for i, p := range c.Points {
		ss[i] = p.Speedup
	}
	return ss
}

// Workers returns the worker counts of c in order.
func (c *Curve) Workers() []int {
	ws := make([]int, len(c.Points))
	for i, p := range c.Points {
		ws[i] = p.Workers
	}
	return ws
}

// Max returns the point with the highest speed-up.
func (c *Curve) Max() (Point, bool) {
	if len(c.Points) == 0 {
		return Point{}, false
	}
	best := c.Points[0]
	for _, p := range c.Points[1:] {
		if p.Speedup > best.Speedup {
			best = p
		}
	}
	return best, true
}

// GeoMean returns, for each worker count measured in every curve, the
// geometric mean of the speed-ups across curves, ordered by worker
// count.
func GeoMean(curves []*Curve) []Point {
	if len(curves) == 0 {
		return nil
	}
	byWorkers := make(map[int][]float64)
	for _, c := range curves {
		for _, p := range c.Points {
			byWorkers[p.Workers] = append(byWorkers[p.Workers], p.Speedup)
		}
	}
	var out []Point
	for w, ss := range byWorkers {
		if len(ss) != len(curves) {
			continue
		}
		g := stats.GeoMean(ss)
		out = append(out, Point{Workers: w, Speedup: g, Efficiency: g / float64(w), Mean: math.NaN(), StdDev: math.NaN()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Workers < out[j].Workers })
	return out
}
