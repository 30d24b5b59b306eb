// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harness

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/scalebench/scalebench/internal/texttab"
	"github.com/scalebench/scalebench/speedup"
	"github.com/scalebench/scalebench/timeunit"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	goodColor  = color.New(color.FgGreen)
	poorColor  = color.New(color.FgYellow)
)

// goodEfficiency is the parallel efficiency at or above which a best
// speed-up is reported as good.
const goodEfficiency = 0.5

// WriteSummary writes a table of curves to w, followed by the best
// speed-up of each size and the geometric mean across sizes.
func WriteSummary(w io.Writer, title string, curves []*speedup.Curve) error {
	if title != "" {
		titleColor.Fprintf(w, "%s\n", title)
	}

	var times []float64
	for _, c := range curves {
		times = append(times, c.Baseline)
		for _, p := range c.Points {
			times = append(times, p.Mean)
		}
	}
	scale := timeunit.CommonScale(times)

	var tab texttab.Table
	tab.Row().Cell("size").Cell("workers", texttab.Right).Cell("baseline", texttab.Right).
		Cell("mean", texttab.Right).Cell("speed-up", texttab.Right).Cell("efficiency", texttab.Right)
	for _, c := range curves {
		for i, p := range c.Points {
			size, base := "", ""
			if i == 0 {
				size, base = c.Size, scale.Format(c.Baseline)
			}
			tab.Row().Cell(size).
				Cell(fmt.Sprint(p.Workers), texttab.Right).
				Cell(base, texttab.Right).
				Cell(scale.Format(p.Mean), texttab.Right).
				Cell(fmt.Sprintf("%.2fx", p.Speedup), texttab.Right).
				Cell(fmt.Sprintf("%.0f%%", 100*p.Efficiency), texttab.Right)
		}
	}
	if err := tab.Format(w); err != nil {
		return err
	}

	for _, c := range curves {
		best, ok := c.Max()
		if !ok {
			continue
		}
		clr := goodColor
		if best.Efficiency < goodEfficiency {
			clr = poorColor
		}
		clr.Fprintf(w, "size %s: best speed-up %.2fx at %d workers\n", c.Size, best.Speedup, best.Workers)
	}
	if len(curves) > 1 {
		for _, g := range speedup.GeoMean(curves) {
			fmt.Fprintf(w, "geomean at %d workers: %.2fx\n", g.Workers, g.Speedup)
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
