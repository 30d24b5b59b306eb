// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texttab lays out plain-text tables.
package texttab

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Table does layout of text-based tables.
//
// Row and Cell return the Table so calls can be chained.
type Table struct {
	rows [][]cell
	cols int
}

type cell struct {
	value string
	align align
}

type align int

const (
	alignLeft align = iota
	alignRight
)

// A CellOption modifies a cell.
type CellOption func(c *cell)

var (
	Left  CellOption = func(c *cell) { c.align = alignLeft }
	Right CellOption = func(c *cell) { c.align = alignRight }
)

func (a align) pad(s string, w int) string {
	n := w - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if a == alignRight {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

// Row starts a new row.
func (t *Table) Row() *Table {
	t.rows = append(t.rows, nil)
	return t
}

// Cell adds a cell to the current row.
func (t *Table) Cell(value string, opts ...CellOption) *Table {
	if len(t.rows) == 0 {
		t.Row()
	}
	c := cell{value: value}
	for _, o := range opts {
		o(&c)
	}
	r := &t.rows[len(t.rows)-1]
	*r = append(*r, c)
	if len(*r) > t.cols {
		t.cols = len(*r)
	}
	return t
}

// Format lays out t and writes it to w. Columns are separated by two
// spaces and lines carry no trailing spaces.
func (t *Table) Format(w io.Writer) error {
	ws := make([]int, t.cols)
	for _, r := range t.rows {
		for i, c := range r {
			if n := utf8.RuneCountInString(c.value); n > ws[i] {
				ws[i] = n
			}
		}
	}
	for _, r := range t.rows {
		var b strings.Builder
		for i, c := range r {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(c.align.pad(c.value, ws[i]))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}
