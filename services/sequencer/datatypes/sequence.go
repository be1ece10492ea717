// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the request and response bodies of the
// sequencer HTTP API.
package datatypes

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/frahik/mutant-dna-sequencer/services/sequencer/storage"
)

// Request size limits.
const (
	// MaxRows is the largest number of rows accepted in one request.
	MaxRows = 1000

	// MaxRowLength is the longest row accepted, in bytes.
	MaxRowLength = 1000

	// DefaultListLimit is used when a list request omits limit.
	DefaultListLimit = 50

	// MaxListLimit caps limit on list requests.
	MaxListLimit = 500
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("rowbytes", validateRowBytes)
}

// validateRowBytes bounds one row by byte length, not rune count.
func validateRowBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxRowLength
}

// =============================================================================
// POST /mutant
// =============================================================================

// MutantRequest is the body of POST /mutant.
//
// # Fields
//
//   - DNA: Required. 1 to MaxRows rows, each at most MaxRowLength bytes.
//     Rows are normalized (trimmed, uppercased) by the verdict service; the
//     alphabet is checked by the detector, not here.
type MutantRequest struct {
	DNA []string `json:"dna" validate:"required,min=1,max=1000,dive,rowbytes"`
}

// Validate checks the request shape.
func (r *MutantRequest) Validate() error {
	return validate.Struct(r)
}

// MutantResponse is the body of a successful POST /mutant.
type MutantResponse struct {
	// Status is "mutant" or "human".
	Status   string `json:"status"`
	IsMutant bool   `json:"is_mutant"`
	ID       string `json:"id"`

	// Cached is true when the verdict came from the store.
	Cached bool `json:"cached"`
}

// =============================================================================
// GET /stats
// =============================================================================

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	CountMutantDNA uint64  `json:"count_mutant_dna"`
	CountHumanDNA  uint64  `json:"count_human_dna"`
	Ratio          float64 `json:"ratio"`
}

// NewStatsResponse converts store counters.
func NewStatsResponse(st storage.Stats) StatsResponse {
	return StatsResponse{
		CountMutantDNA: st.Mutant,
		CountHumanDNA:  st.Human,
		Ratio:          st.Ratio(),
	}
}

// =============================================================================
// GET /v1/sequences
// =============================================================================

// ListQuery is the query string of GET /v1/sequences.
type ListQuery struct {
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=500"`
	Cursor string `form:"cursor" validate:"omitempty,uuid"`
}

// Validate checks the query and applies DefaultListLimit.
func (q *ListQuery) Validate() error {
	if err := validate.Struct(q); err != nil {
		return err
	}
	if q.Limit == 0 {
		q.Limit = DefaultListLimit
	}
	return nil
}

// Sequence is one stored verdict as returned by the API.
type Sequence struct {
	ID        string    `json:"id"`
	DNA       []string  `json:"dna"`
	IsMutant  bool      `json:"is_mutant"`
	Stage     string    `json:"stage"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSequence converts a stored record, splitting the joined DNA back
// into rows.
func NewSequence(rec storage.Record) Sequence {
	return Sequence{
		ID:        rec.ID,
		DNA:       strings.Split(rec.DNA, ","),
		IsMutant:  rec.IsMutant,
		Stage:     rec.Stage,
		Rows:      rec.Rows,
		Cols:      rec.Cols,
		CreatedAt: rec.CreatedAt,
	}
}

// SequenceList is the body of GET /v1/sequences.
type SequenceList struct {
	Sequences  []Sequence `json:"sequences"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// NewSequenceList converts a store page.
func NewSequenceList(page storage.Page) SequenceList {
	out := SequenceList{
		Sequences:  make([]Sequence, 0, len(page.Records)),
		NextCursor: page.NextCursor,
	}
	for _, rec := range page.Records {
		out.Sequences = append(out.Sequences, NewSequence(rec))
	}
	return out
}

// =============================================================================
// Errors
// =============================================================================

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationMessage renders validator errors as one readable line, e.g.
// "dna: is required". Other errors are returned as-is.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fieldName(fe), describe(fe)))
	}
	return strings.Join(parts, "; ")
}

func fieldName(fe validator.FieldError) string {
	// MutantRequest.DNA[3] -> dna[3]
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Int {
			return "must be at least " + fe.Param()
		}
		return "must have at least " + fe.Param() + " entries"
	case "max":
		if fe.Kind() == reflect.Int {
			return "must be at most " + fe.Param()
		}
		return "must have at most " + fe.Param() + " entries"
	case "rowbytes":
		return fmt.Sprintf("row exceeds %d bytes", MaxRowLength)
	case "uuid":
		return "must be a UUID"
	default:
		return "failed " + fe.Tag()
	}
}
