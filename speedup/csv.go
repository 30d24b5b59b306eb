// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package speedup

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/scalebench/scalebench/timeunit"
)

// WriteCSV writes one row per point of curves. Times are in seconds
// and unknown values are left empty.
func WriteCSV(out io.Writer, curves []*Curve) error {
	w := csv.NewWriter(out)
	w.Write([]string{"size", "workers", "baseline", "mean", "speedup", "efficiency", "stddev"})
	for _, c := range curves {
		for _, p := range c.Points {
			w.Write([]string{
				c.Size,
				strconv.Itoa(p.Workers),
				strof(c.Baseline),
				strof(p.Mean),
				strof(p.Speedup),
				strof(p.Efficiency),
				strof(p.StdDev),
			})
		}
	}
	w.Flush()
	return w.Error()
}

func strof(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return ""
	}
	return timeunit.NoOpScaler.Format(x)
}
