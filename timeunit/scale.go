// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package timeunit formats timing values reported in seconds, the
// unit hyperfine uses in its exported reports.
package timeunit

import (
	"fmt"
	"math"
	"strconv"
)

// A Scaler represents a scaling factor for a time value and the unit
// it should be displayed in.
type Scaler struct {
	Prec   int     // Digits after the decimal point
	Factor float64 // Seconds in one Unit (e.g., 1 ms => 0.001)
	Unit   string  // "s", "ms", "µs" or "ns"
}

// Format formats secs in the Scaler's unit. For example, if the
// Scaler is in milliseconds with a precision of 2, Format(0.012345)
// returns "12.35ms".
func (s Scaler) Format(secs float64) string {
	buf := make([]byte, 0, 20)
	buf = strconv.AppendFloat(buf, secs/s.Factor, 'f', s.Prec, 64)
	buf = append(buf, s.Unit...)
	return string(buf)
}

// NoOpScaler formats values in seconds with the smallest number of
// digits necessary to capture the exact value. This is intended for
// machine-readable output such as CSV.
var NoOpScaler = Scaler{-1, 1, ""}

type factor struct {
	factor float64
	unit   string
	// Thresholds for 100.0, 10.00, 1.000.
	t100, t10, t1 float64
}

var factors = mkFactors()

func mkFactors() []factor {
	// Build the thresholds by parsing printed representations so they
	// round exactly the way Format will.
	var fs []factor
	exp := 0
	for _, u := range []string{"s", "ms", "µs", "ns"} {
		t100, _ := strconv.ParseFloat(fmt.Sprintf("99.995e%d", exp), 64)
		t10, _ := strconv.ParseFloat(fmt.Sprintf("9.9995e%d", exp), 64)
		t1, _ := strconv.ParseFloat(fmt.Sprintf(".99995e%d", exp), 64)
		fs = append(fs, factor{math.Pow(10, float64(exp)), u, t100, t10, t1})
		exp -= 3
	}
	return fs
}

// Format formats secs using at least three significant digits.
func Format(secs float64) string {
	return CommonScale([]float64{secs}).Format(secs)
}

// CommonScale returns a Scaler that shows at least three significant
// digits for every value in vals. The scale is picked from the
// non-zero value closest to zero.
func CommonScale(vals []float64) Scaler {
	var min float64
	for _, v := range vals {
		v = math.Abs(v)
		if v != 0 && !math.IsNaN(v) && (min == 0 || v < min) {
			min = v
		}
	}
	if min == 0 {
		return Scaler{3, 1, "s"}
	}
	if min >= factors[0].t100 {
		// Anything at or above 100s stays in seconds.
		return Scaler{1, 1, "s"}
	}
	for _, f := range factors {
		switch {
		case min >= f.t100:
			return Scaler{1, f.factor, f.unit}
		case min >= f.t10:
			return Scaler{2, f.factor, f.unit}
		case min >= f.t1:
			return Scaler{3, f.factor, f.unit}
		}
	}
	// Smaller than a nanosecond. Print in ns with extra precision.
	last := factors[len(factors)-1]
	prec := 3
	for x := min / last.factor; x < 0.99995 && prec < 9; x *= 10 {
		prec++
	}
	return Scaler{prec, last.factor, last.unit}
}
