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

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAlphabet is returned when a sequence contains a character
	// outside {A, C, T, G} and the row delimiter.
	ErrInvalidAlphabet = errors.New("dna: invalid alphabet")

	// ErrMalformedSequence is returned when rows have different lengths.
	ErrMalformedSequence = errors.New("dna: malformed sequence")

	// ErrEmptySequence is returned when no rows are supplied.
	ErrEmptySequence = errors.New("dna: empty sequence")
)

// AlphabetError reports the first character that is not a base.
//
// Offset is a byte offset into the validated string.
type AlphabetError struct {
	Char   rune
	Offset int
}

func (e *AlphabetError) Error() string {
	return fmt.Sprintf("dna: invalid base %q at offset %d; allowed: A C T G", e.Char, e.Offset)
}

// Unwrap lets errors.Is match ErrInvalidAlphabet.
func (e *AlphabetError) Unwrap() error { return ErrInvalidAlphabet }

// MalformedSequenceError reports the first row whose length differs from
// the first row.
type MalformedSequenceError struct {
	Row  int
	Want int
	Got  int
}

func (e *MalformedSequenceError) Error() string {
	return fmt.Sprintf("dna: malformed sequence: row %d has %d bases, expected %d", e.Row, e.Got, e.Want)
}

// Unwrap lets errors.Is match ErrMalformedSequence.
func (e *MalformedSequenceError) Unwrap() error { return ErrMalformedSequence }
