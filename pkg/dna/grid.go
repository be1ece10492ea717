// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dna

import "strings"

// Grid is an immutable R×C view of a parsed sequence.
//
// Cells are stored row-major in a single buffer: cell (r, c) lives at
// index r*Cols()+c. Rows may be empty, in which case Cols() is zero.
type Grid struct {
	rows  int
	cols  int
	cells []byte
}

// ParseGrid splits a delimiter-joined sequence into a Grid.
//
// # Description
//
// Every row must have the length of the first row. The check is made for
// all rows before the grid is returned, so no scan ever sees a jagged grid.
// ParseGrid does not check the alphabet; run ValidateAlphabet first.
//
// # Outputs
//
//   - *Grid: the parsed grid. An empty string yields a 1×0 grid.
//   - error: *MalformedSequenceError wrapping ErrMalformedSequence.
func ParseGrid(raw string) (*Grid, error) {
	return NewGrid(strings.Split(raw, string(RowDelimiter)))
}

// NewGrid builds a Grid from pre-split rows.
//
// Returns ErrEmptySequence when rows is empty and a *MalformedSequenceError
// when the rows differ in length.
func NewGrid(rows []string) (*Grid, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySequence
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return nil, &MalformedSequenceError{Row: i, Want: width, Got: len(row)}
		}
	}

	cells := make([]byte, 0, len(rows)*width)
	for _, row := range rows {
		cells = append(cells, row...)
	}
	return &Grid{rows: len(rows), cols: width, cells: cells}, nil
}

// Rows returns R.
func (g *Grid) Rows() int { return g.rows }

// Cols returns C.
func (g *Grid) Cols() int { return g.cols }

// At returns the base at row r, column c. It panics when out of range.
func (g *Grid) At(r, c int) byte {
	return g.cells[g.index(r, c)]
}

// Row returns row r as a string.
func (g *Grid) Row(r int) string {
	start := g.index(r, 0)
	return string(g.cells[start : start+g.cols])
}

// Column returns column c read top to bottom.
func (g *Grid) Column(c int) string {
	col := make([]byte, g.rows)
	for r := 0; r < g.rows; r++ {
		col[r] = g.cells[g.index(r, c)]
	}
	return string(col)
}

// Transpose returns the C×R grid whose rows are the columns of g.
func (g *Grid) Transpose() *Grid {
	cells := make([]byte, len(g.cells))
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			cells[c*g.rows+r] = g.cells[g.index(r, c)]
		}
	}
	return &Grid{rows: g.cols, cols: g.rows, cells: cells}
}

// RowBatch joins all rows with RowDelimiter for a single RunScanner pass.
func (g *Grid) RowBatch() string {
	var b strings.Builder
	b.Grow(len(g.cells) + g.rows)
	for r := 0; r < g.rows; r++ {
		if r > 0 {
			b.WriteByte(RowDelimiter)
		}
		start := g.index(r, 0)
		b.Write(g.cells[start : start+g.cols])
	}
	return b.String()
}

// ColumnBatch joins all columns with RowDelimiter. It equals
// g.Transpose().RowBatch() without materializing the transposed grid.
func (g *Grid) ColumnBatch() string {
	var b strings.Builder
	b.Grow(len(g.cells) + g.cols)
	for c := 0; c < g.cols; c++ {
		if c > 0 {
			b.WriteByte(RowDelimiter)
		}
		for r := 0; r < g.rows; r++ {
			b.WriteByte(g.cells[g.index(r, c)])
		}
	}
	return b.String()
}

// String returns the grid in its joined form.
func (g *Grid) String() string { return g.RowBatch() }

func (g *Grid) index(r, c int) int {
	return r*g.cols + c
}
