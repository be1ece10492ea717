// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dna decides whether a DNA sequence belongs to a mutant.
//
// A sequence is a set of equal-length rows over the alphabet {A, C, T, G},
// usually transported as one comma-joined string:
//
//	ATGCGA,CAGTGC,TTATGT,AGAAGG,CCCCTA,TCACTG
//
// The sequence is mutant when any row, column, diagonal or anti-diagonal
// contains four or more identical consecutive bases.
//
// # Pipeline
//
//	raw ──► ValidateAlphabet ──► ParseGrid ──► rows ──► columns ──► diagonals
//	             │                   │          │          │            │
//	      ErrInvalidAlphabet  ErrMalformedSequence  └──── Mutant ────────┘
//
// Every stage short-circuits: the first positive scan returns Mutant and a
// grid with fewer than four rows and four columns stops after the row scan.
//
// # Thread Safety
//
// Everything in this package is a pure function of its input. Grids and
// diagonal batches are immutable after construction and may be shared
// between goroutines.
package dna
