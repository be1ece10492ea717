// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frahik/mutant-dna-sequencer/services/sequencer/storage"
)

func TestMutantRequest_Validate(t *testing.T) {
	tooMany := make([]string, MaxRows+1)
	for i := range tooMany {
		tooMany[i] = "A"
	}

	tests := []struct {
		name    string
		req     MutantRequest
		wantErr string
	}{
		{"valid", MutantRequest{DNA: []string{"ATGCGA", "CAGTGC"}}, ""},
		{"lowercase passes shape check", MutantRequest{DNA: []string{"atgc"}}, ""},
		{"alphabet is not checked here", MutantRequest{DNA: []string{"XYZ"}}, ""},
		{"missing", MutantRequest{}, "dna: is required"},
		{"empty list", MutantRequest{DNA: []string{}}, "dna: must have at least 1 entries"},
		{"too many rows", MutantRequest{DNA: tooMany}, "dna: must have at most 1000 entries"},
		{"row too long", MutantRequest{DNA: []string{"A", strings.Repeat("C", MaxRowLength+1)}}, "dna[1]: row exceeds 1000 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, ValidationMessage(err))
		})
	}
}

func TestListQuery_Validate(t *testing.T) {
	q := ListQuery{}
	require.NoError(t, q.Validate())
	assert.Equal(t, DefaultListLimit, q.Limit)

	q = ListQuery{Limit: MaxListLimit}
	require.NoError(t, q.Validate())
	assert.Equal(t, MaxListLimit, q.Limit)

	q = ListQuery{Limit: MaxListLimit + 1}
	err := q.Validate()
	require.Error(t, err)
	assert.Equal(t, "limit: must be at most 500", ValidationMessage(err))

	q = ListQuery{Limit: -1}
	assert.Equal(t, "limit: must be at least 1", ValidationMessage(q.Validate()))

	q = ListQuery{Cursor: "nope"}
	assert.Equal(t, "cursor: must be a UUID", ValidationMessage(q.Validate()))
}

func TestValidationMessage_PlainError(t *testing.T) {
	assert.Equal(t, "boom", ValidationMessage(errors.New("boom")))
}

func TestNewStatsResponse(t *testing.T) {
	assert.Equal(t,
		StatsResponse{CountMutantDNA: 40, CountHumanDNA: 100, Ratio: 0.4},
		NewStatsResponse(storage.Stats{Mutant: 40, Human: 100}))
	assert.Equal(t,
		StatsResponse{CountMutantDNA: 3},
		NewStatsResponse(storage.Stats{Mutant: 3}))
}

func TestNewSequenceList(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	list := NewSequenceList(storage.Page{
		Records: []storage.Record{
			{ID: "a", DNA: "AAAA,CCCC", IsMutant: true, Stage: "rows", Rows: 2, Cols: 4, CreatedAt: at},
		},
		NextCursor: "a",
	})
	require.Len(t, list.Sequences, 1)
	assert.Equal(t, []string{"AAAA", "CCCC"}, list.Sequences[0].DNA)
	assert.Equal(t, "rows", list.Sequences[0].Stage)
	assert.Equal(t, "a", list.NextCursor)

	empty := NewSequenceList(storage.Page{})
	assert.NotNil(t, empty.Sequences, "empty pages encode as []")
}
