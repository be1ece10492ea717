// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dna

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagonals(b *DiagonalBatch) []string {
	out := make([]string, b.Len())
	for i := range out {
		out[i] = b.Diagonal(i)
	}
	return out
}

func TestExtractDiagonals_DemoSample(t *testing.T) {
	g, err := ParseGrid(demoSample)
	require.NoError(t, err)

	batch := ExtractDiagonals(g)
	want := []string{
		// anti-diagonals, offsets -1..6
		"GAAG", "CGAGA", "CCTAA", "CATGC", "AACCT", "CCCAG", "GTAAA", "GTTC",
		// diagonals, offsets 6..-1
		"CATG", "ACAGA", "AGCTA", "GACTT", "GGTCG", "CATAG", "ATAAC", "CACA",
	}
	if diff := cmp.Diff(want, diagonals(batch)); diff != "" {
		t.Errorf("diagonals mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, strings.Join(want, ","), batch.Flatten())
	assert.Equal(t, 5, batch.Width())
}

func TestExtractDiagonals_Square(t *testing.T) {
	g, err := ParseGrid("ACGT,CGTA,GTAC,TACG")
	require.NoError(t, err)

	batch := ExtractDiagonals(g)
	assert.Equal(t, []string{"TTTT", "AGAG"}, diagonals(batch))
}

func TestExtractDiagonals_Padding(t *testing.T) {
	g, err := ParseGrid(demoSample)
	require.NoError(t, err)
	batch := ExtractDiagonals(g)

	// "GAAG" is one shorter than the main diagonal.
	assert.Equal(t, []byte{'G', 'A', 'A', 'G', Padding}, batch.Padded(0))
	assert.Equal(t, []byte("CGAGA"), batch.Padded(1))

	for i := 0; i < batch.Len(); i++ {
		assert.Len(t, batch.Padded(i), batch.Width())
		assert.NotContains(t, batch.Diagonal(i), string(Padding))
	}
	assert.NotContains(t, batch.Flatten(), string(Padding))
}

// TestExtractDiagonals_FlattenKeepsSegmentsApart checks that scanning the
// flattened batch gives the same answer as scanning each diagonal alone.
func TestExtractDiagonals_FlattenKeepsSegmentsApart(t *testing.T) {
	samples := []string{
		demoSample,
		"CTTTA,GCTTT,AGCTT,TAGCT,GTAGC",
		"ATGC,CAGT,TCAG,GTCA",
		"AAACCC,TTTGGG,AAACCC,TTTGGG,AAACCC",
	}
	for _, raw := range samples {
		g, err := ParseGrid(raw)
		require.NoError(t, err)
		batch := ExtractDiagonals(g)

		found := false
		for i := 0; i < batch.Len(); i++ {
			found = found || HasRun(batch.Diagonal(i))
		}
		assert.Equal(t, found, HasRun(batch.Flatten()), raw)
	}
}

func TestExtractDiagonals_TooSmall(t *testing.T) {
	for _, raw := range []string{"AAA,AAA,AAA", "AAAAAA,AAAAAA,AAAAAA", "A,A,A,A,A,A", ",,,", ""} {
		g, err := ParseGrid(raw)
		require.NoError(t, err)

		batch := ExtractDiagonals(g)
		assert.Equal(t, 0, batch.Len(), raw)
		assert.Equal(t, "", batch.Flatten(), raw)
		assert.False(t, HasRun(batch.Flatten()), raw)
	}
}

func TestExtractDiagonals_Counts(t *testing.T) {
	// An R×C grid with both sides >= 4 keeps R+C-7 diagonals per direction.
	tests := []struct{ rows, cols int }{{4, 4}, {5, 10}, {6, 6}, {10, 4}, {7, 9}}
	for _, tt := range tests {
		rows := make([]string, tt.rows)
		for i := range rows {
			rows[i] = strings.Repeat("A", tt.cols)
		}
		g, err := NewGrid(rows)
		require.NoError(t, err)
		assert.Equal(t, 2*(tt.rows+tt.cols-7), ExtractDiagonals(g).Len(), "%dx%d", tt.rows, tt.cols)
	}
}

// TestExtractDiagonals_MirrorSymmetry checks that mirroring a grid left to
// right swaps the two diagonal directions: the batches hold the same
// segments up to reading direction.
func TestExtractDiagonals_MirrorSymmetry(t *testing.T) {
	samples := []string{
		demoSample,
		"ATGC,CAGT,TCAG,GTCA",
		"ATGCGA,CAGTGC,TTATGT,AGAAGG,CCCCTA,TCACTG",
		"AAACCC,TTTGGG,AAACCC,TTTGGG,AAACCC",
	}
	for _, raw := range samples {
		g, err := ParseGrid(raw)
		require.NoError(t, err)
		m, err := ParseGrid(mirror(raw))
		require.NoError(t, err)

		got := canonical(diagonals(ExtractDiagonals(g)))
		want := canonical(diagonals(ExtractDiagonals(m)))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s: mirrored diagonals differ (-mirror +grid):\n%s", raw, diff)
		}
		assert.Equal(t, DetectGrid(g), DetectGrid(m), raw)
	}
}

func mirror(raw string) string {
	rows := strings.Split(raw, ",")
	for i, row := range rows {
		rows[i] = reverse(row)
	}
	return strings.Join(rows, ",")
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// canonical makes segments comparable regardless of reading direction.
func canonical(segments []string) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		if r := reverse(s); r < s {
			s = r
		}
		out[i] = s
	}
	sort.Strings(out)
	return out
}
