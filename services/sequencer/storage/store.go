// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package storage persists DNA verdicts.
//
// A verdict is computed once per distinct sequence and then served from
// the store. The Store interface is what the verdict service depends on;
// BadgerStore is the embedded implementation.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("storage: record not found")

	// ErrDuplicate is returned by Create when the sequence is already stored.
	ErrDuplicate = errors.New("storage: sequence already stored")

	// ErrClosed is returned by every method after Close.
	ErrClosed = errors.New("storage: store closed")
)

// Record is one stored verdict.
type Record struct {
	// ID is a time-ordered UUID (version 7) assigned on creation.
	ID string `json:"id"`

	// DNA is the normalized, comma-joined sequence.
	DNA string `json:"dna"`

	IsMutant bool `json:"is_mutant"`

	// Stage names the scan that decided the verdict.
	Stage string `json:"stage"`

	Rows int `json:"rows"`
	Cols int `json:"cols"`

	CreatedAt time.Time `json:"created_at"`
}

// Stats counts stored verdicts.
type Stats struct {
	Mutant uint64 `json:"count_mutant_dna"`
	Human  uint64 `json:"count_human_dna"`
}

// Ratio returns Mutant/Human, or 0 when no human sequence is stored.
func (s Stats) Ratio() float64 {
	if s.Human == 0 {
		return 0
	}
	return float64(s.Mutant) / float64(s.Human)
}

// Page is one slice of a List walk.
type Page struct {
	Records []Record `json:"records"`

	// NextCursor resumes the walk after the last record; "" on the last page.
	NextCursor string `json:"next_cursor,omitempty"`
}

// Store persists verdicts keyed by their DNA.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the record for a normalized DNA string, or ErrNotFound.
	Get(ctx context.Context, dna string) (Record, error)

	// GetByID returns the record with the given ID, or ErrNotFound.
	GetByID(ctx context.Context, id string) (Record, error)

	// Create stores rec and bumps the matching counter atomically.
	// rec.ID and rec.CreatedAt are assigned when empty. Returns the stored
	// record, or ErrDuplicate when rec.DNA is already present.
	Create(ctx context.Context, rec Record) (Record, error)

	// Stats returns the verdict counters.
	Stats(ctx context.Context) (Stats, error)

	// List returns up to limit records in creation order, starting after
	// cursor ("" for the beginning).
	List(ctx context.Context, limit int, cursor string) (Page, error)

	// Close releases the store.
	Close() error
}
