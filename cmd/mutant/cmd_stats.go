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
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahik/mutant-dna-sequencer/pkg/ux"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/datatypes"
)

func newStatsCmd() *cobra.Command {
	var baseURL string
	var jsonOut bool
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show verdict counts from a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			stats, err := fetchStats(ctx, http.DefaultClient, baseURL)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(stats)
			}
			ux.NewPrinter(out).Fields("Verdicts",
				ux.Field{Label: "mutant", Value: strconv.FormatUint(stats.CountMutantDNA, 10)},
				ux.Field{Label: "human", Value: strconv.FormatUint(stats.CountHumanDNA, 10)},
				ux.Field{Label: "ratio", Value: strconv.FormatFloat(stats.Ratio, 'f', 2, 64)},
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "sequencer base URL")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the raw JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	return cmd
}

func fetchStats(ctx context.Context, client *http.Client, baseURL string) (datatypes.StatsResponse, error) {
	var stats datatypes.StatsResponse
	url := strings.TrimRight(baseURL, "/") + "/stats"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return stats, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return stats, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return stats, fmt.Errorf("GET %s: %s: %s", url, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return stats, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}
