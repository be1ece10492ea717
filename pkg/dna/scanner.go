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

// MinRunLength is the number of identical consecutive bases that marks a
// segment as mutant.
const MinRunLength = 4

// HasRun reports whether seq contains MinRunLength or more identical
// consecutive bases.
//
// # Description
//
// seq may hold several segments (rows, columns, diagonals) joined by any
// byte that is not a base. Such bytes reset the current run, so a run can
// never cross a segment boundary: "AAA,AAA" has no run of four.
//
// The scan is a single pass over seq and returns as soon as a run reaches
// MinRunLength.
func HasRun(seq string) bool {
	var current byte
	length := 0
	for i := 0; i < len(seq); i++ {
		b := seq[i]
		if !IsBase(b) {
			current, length = 0, 0
			continue
		}
		if b == current {
			length++
		} else {
			current, length = b, 1
		}
		if length >= MinRunLength {
			return true
		}
	}
	return false
}
