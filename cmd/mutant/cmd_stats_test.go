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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frahik/mutant-dna-sequencer/services/sequencer/datatypes"
)

func statsServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchStats(t *testing.T) {
	srv := statsServer(t, http.StatusOK, `{"count_mutant_dna":40,"count_human_dna":100,"ratio":0.4}`)

	stats, err := fetchStats(context.Background(), srv.Client(), srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StatsResponse{CountMutantDNA: 40, CountHumanDNA: 100, Ratio: 0.4}, stats)
}

func TestFetchStats_ServerError(t *testing.T) {
	srv := statsServer(t, http.StatusInternalServerError, `{"error":"internal error"}`)

	_, err := fetchStats(context.Background(), srv.Client(), srv.URL)
	assert.ErrorContains(t, err, "500")
	assert.ErrorContains(t, err, "internal error")
}

func TestStatsCmd(t *testing.T) {
	srv := statsServer(t, http.StatusOK, `{"count_mutant_dna":1,"count_human_dna":2,"ratio":0.5}`)

	out, err := execute(t, "", "stats", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "mutant: 1")
	assert.Contains(t, out, "ratio: 0.50")

	out, err = execute(t, "", "stats", "--url", srv.URL, "--json")
	require.NoError(t, err)
	var stats datatypes.StatsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, uint64(2), stats.CountHumanDNA)
}
