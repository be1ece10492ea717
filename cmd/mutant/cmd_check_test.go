// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frahik/mutant-dna-sequencer/pkg/dna"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheck_Args(t *testing.T) {
	out, err := execute(t, "", "check", "ATGCGA", "CAGTGC", "TTATGT", "AGAAGG", "CCCCTA", "TCACTG")
	require.NoError(t, err)
	assert.Contains(t, out, "mutant")
	assert.Contains(t, out, "decided by: rows")
	assert.Contains(t, out, "grid: 6x6")
}

func TestCheck_DNAFlagJSON(t *testing.T) {
	out, err := execute(t, "", "check", "--dna", "atgc,cagt,ttct,agac", "--json")
	require.NoError(t, err)

	var res checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.IsMutant)
	assert.Equal(t, "human", res.Verdict)
	assert.Equal(t, []string{"ATGC", "CAGT", "TTCT", "AGAC"}, res.DNA)
	assert.Equal(t, string(dna.StageDiagonals), res.Stage)
}

func TestCheck_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte("ATGC\nCAGT\n\nTTAT,AGAA\n"), 0644))

	out, err := execute(t, "", "check", "--file", path, "--json")
	require.NoError(t, err)

	var res checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.IsMutant, "main diagonal AAAA")
	assert.Equal(t, 4, res.Rows)
}

func TestCheck_Stdin(t *testing.T) {
	out, err := execute(t, "AAAA\n", "check", "--file", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "mutant\n"), out)
}

func TestCheck_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		check func(*testing.T, error)
	}{
		{"no input", "", []string{"check"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, errNoInput)
		}},
		{"two sources", "", []string{"check", "AAAA", "--dna", "CCCC"}, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "not several")
		}},
		{"bad base", "", []string{"check", "--dna", "ATGX"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, dna.ErrInvalidAlphabet)
		}},
		{"padded row", "", []string{"check", " AAAA"}, func(t *testing.T, err error) {
			var ae *dna.AlphabetError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, ' ', ae.Char)
		}},
		{"jagged", "", []string{"check", "ATGC", "CAG"}, func(t *testing.T, err error) {
			var me *dna.MalformedSequenceError
			assert.True(t, errors.As(err, &me))
		}},
		{"blank stdin", "\n\n", []string{"check", "--file", "-"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, dna.ErrEmptySequence)
		}},
		{"missing file", "", []string{"check", "--file", "/nonexistent/rows.txt"}, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "open /nonexistent/rows.txt")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.stdin, tt.args...)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestScanRows(t *testing.T) {
	rows, err := scanRows(strings.NewReader("  ATGC \nCAGT,TTAT\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ATGC", "CAGT", "TTAT"}, rows)
}
