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

// RowDelimiter separates rows in a joined sequence. It is never a base, so
// it also breaks runs when batches of rows are scanned as one string.
const RowDelimiter = ','

// Bases lists the permitted alphabet in canonical order.
const Bases = "ACTG"

// IsBase reports whether b is one of A, C, T or G.
func IsBase(b byte) bool {
	switch b {
	case 'A', 'C', 'T', 'G':
		return true
	}
	return false
}

// ValidateAlphabet checks that raw holds only bases and row delimiters.
//
// # Description
//
// Runs before grid parsing. The scans downstream rely on a closed
// four-symbol alphabet: the delimiter and the diagonal padding are
// guaranteed not to be bases, so they can never extend or join a run.
//
// Lowercase input is rejected. Callers that accept lowercase must
// normalize first (see Normalize).
//
// # Outputs
//
//   - error: nil, or an *AlphabetError wrapping ErrInvalidAlphabet that
//     names the first offending character.
func ValidateAlphabet(raw string) error {
	for i, r := range raw {
		if r == RowDelimiter {
			continue
		}
		if r >= 0x80 || !IsBase(byte(r)) {
			return &AlphabetError{Char: r, Offset: i}
		}
	}
	return nil
}

// ValidateRow is the strict form of ValidateAlphabet for a single row: the
// delimiter is rejected too, since it would split the row in two.
func ValidateRow(row string) error {
	for i, r := range row {
		if r >= 0x80 || !IsBase(byte(r)) {
			return &AlphabetError{Char: r, Offset: i}
		}
	}
	return nil
}

// Normalize uppercases a row. Whitespace is left in place so that
// ValidateRow still rejects it.
func Normalize(row string) string {
	return strings.ToUpper(row)
}

// Join normalizes rows and joins them with RowDelimiter. The result is the
// canonical form used as the uniqueness key for stored sequences.
func Join(rows []string) string {
	normalized := make([]string, len(rows))
	for i, row := range rows {
		normalized[i] = Normalize(row)
	}
	return strings.Join(normalized, string(RowDelimiter))
}
