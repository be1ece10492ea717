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

// Padding fills the unused tail of short diagonals in a DiagonalBatch. It
// is not a base, so it contributes nothing to a scan and is dropped by
// Flatten.
const Padding byte = 0

// DiagonalBatch holds every diagonal and anti-diagonal of a grid that is
// long enough to contain a run of MinRunLength bases.
//
// # Description
//
// Diagonals are stored in a fixed-width row-major buffer. The width is the
// length of the main diagonal, min(R, C), which bounds every diagonal of
// the grid; shorter diagonals are right-padded with Padding. Padding is a
// storage detail only: Diagonal and Flatten never return it.
//
// # Thread Safety
//
// Immutable after ExtractDiagonals returns.
type DiagonalBatch struct {
	width   int
	lengths []int
	cells   []byte
}

// ExtractDiagonals enumerates the diagonals of g by offset.
//
// # Description
//
// Anti-diagonals come first. They are the diagonals of g mirrored
// vertically, where mirrored cell (i, j) is g.At(R-1-i, j), taken for
// offsets -(R-1) up to C-1. Diagonals of g itself follow, for offsets C-1
// down to -(R-1). For offset k the walk starts at row max(0, -k), column
// max(0, k) and has min(R-row, C-column) cells.
//
// Diagonals shorter than MinRunLength are dropped. Grids whose shorter
// side is below MinRunLength yield an empty batch.
//
// # Outputs
//
//   - *DiagonalBatch: never nil.
//
// # Examples
//
//	g, _ := ParseGrid("ACGT,CGTA,GTAC,TACG")
//	batch := ExtractDiagonals(g)
//	batch.Flatten() // "TTTT,AGAG"
func ExtractDiagonals(g *Grid) *DiagonalBatch {
	rows, cols := g.Rows(), g.Cols()
	batch := &DiagonalBatch{width: min(rows, cols)}
	if batch.width < MinRunLength {
		return batch
	}

	for k := -(rows - 1); k <= cols-1; k++ {
		r0, c0, n := diagonalSpan(rows, cols, k)
		if n < MinRunLength {
			continue
		}
		row := batch.grow(n)
		for i := 0; i < n; i++ {
			row[i] = g.At(rows-1-(r0+i), c0+i)
		}
	}

	for k := cols - 1; k >= -(rows - 1); k-- {
		r0, c0, n := diagonalSpan(rows, cols, k)
		if n < MinRunLength {
			continue
		}
		row := batch.grow(n)
		for i := 0; i < n; i++ {
			row[i] = g.At(r0+i, c0+i)
		}
	}
	return batch
}

// diagonalSpan returns the start cell and length of the diagonal at offset
// k of a rows×cols grid. Offset 0 is the main diagonal; positive offsets
// start on the top row, negative ones on the left column.
func diagonalSpan(rows, cols, k int) (r0, c0, n int) {
	r0, c0 = max(0, -k), max(0, k)
	return r0, c0, min(rows-r0, cols-c0)
}

// grow appends one padded row of width cells and returns the first n of
// them for the caller to fill.
func (b *DiagonalBatch) grow(n int) []byte {
	start := len(b.cells)
	for i := 0; i < b.width; i++ {
		b.cells = append(b.cells, Padding)
	}
	b.lengths = append(b.lengths, n)
	return b.cells[start : start+n]
}

// Len returns the number of retained diagonals.
func (b *DiagonalBatch) Len() int { return len(b.lengths) }

// Width returns the fixed row width of the batch buffer, min(R, C).
func (b *DiagonalBatch) Width() int { return b.width }

// Diagonal returns diagonal i without padding.
func (b *DiagonalBatch) Diagonal(i int) string {
	start := i * b.width
	return string(b.cells[start : start+b.lengths[i]])
}

// Padded returns a copy of the stored row for diagonal i, padding included.
func (b *DiagonalBatch) Padded(i int) []byte {
	start := i * b.width
	return append([]byte(nil), b.cells[start:start+b.width]...)
}

// Flatten joins the diagonals with RowDelimiter, dropping padding.
func (b *DiagonalBatch) Flatten() string {
	var sb strings.Builder
	sb.Grow(len(b.cells) + len(b.lengths))
	for i := range b.lengths {
		if i > 0 {
			sb.WriteByte(RowDelimiter)
		}
		start := i * b.width
		for _, c := range b.cells[start : start+b.width] {
			if c != Padding {
				sb.WriteByte(c)
			}
		}
	}
	return sb.String()
}
