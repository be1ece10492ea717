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
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frahik/mutant-dna-sequencer/pkg/dna"
	"github.com/frahik/mutant-dna-sequencer/pkg/ux"
)

var errNoInput = errors.New("no DNA given: pass rows as arguments, --dna or --file")

type checkOptions struct {
	dna     string
	file    string
	jsonOut bool
}

// checkResult is the --json output of check.
type checkResult struct {
	DNA      []string `json:"dna"`
	IsMutant bool     `json:"is_mutant"`
	Verdict  string   `json:"verdict"`
	Stage    string   `json:"stage"`
	Rows     int      `json:"rows"`
	Cols     int      `json:"cols"`
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [ROW...]",
		Short: "Check a DNA sequence locally, without a server",
		Example: `  mutant check ATGCGA CAGTGC TTATGT AGAAGG CCCCTA TCACTG
  mutant check --dna ATGCGA,CAGTGC,TTATGT,AGAAGG,CCCCTA,TCACTG
  mutant check --file sample.txt --json
  cat sample.txt | mutant check --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dna, "dna", "", "comma-separated rows")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "file with one row per line or comma-separated rows (- for stdin)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")
	cmd.MarkFlagsMutuallyExclusive("dna", "file")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *checkOptions) error {
	rows, err := readRows(cmd.InOrStdin(), args, opts)
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i] = dna.Normalize(rows[i])
	}

	report, err := dna.InspectRows(rows)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(checkResult{
			DNA:      rows,
			IsMutant: report.Verdict.IsMutant(),
			Verdict:  report.Verdict.String(),
			Stage:    string(report.Stage),
			Rows:     report.Rows,
			Cols:     report.Cols,
		})
	}

	ux.NewPrinter(out).Verdict(report.Verdict.IsMutant(), report.Verdict.String(),
		ux.Field{Label: "decided by", Value: string(report.Stage)},
		ux.Field{Label: "grid", Value: fmt.Sprintf("%dx%d", report.Rows, report.Cols)},
	)
	return nil
}

// readRows collects rows from exactly one source: positional arguments,
// --dna or --file.
func readRows(stdin io.Reader, args []string, opts *checkOptions) ([]string, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, opts.dna != "", opts.file != ""} {
		if set {
			sources++
		}
	}
	switch {
	case sources == 0:
		return nil, errNoInput
	case sources > 1:
		return nil, errors.New("give DNA either as arguments, --dna or --file, not several")
	}

	switch {
	case len(args) > 0:
		return args, nil
	case opts.dna != "":
		return strings.Split(opts.dna, string(dna.RowDelimiter)), nil
	}

	var r io.Reader = stdin
	if opts.file != "-" {
		f, err := os.Open(opts.file)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", opts.file, err)
		}
		defer f.Close()
		r = f
	}
	return scanRows(r)
}

// scanRows reads one row per non-blank line; a line holding commas is split
// into several rows.
func scanRows(r io.Reader) ([]string, error) {
	var rows []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rows = append(rows, strings.Split(line, string(dna.RowDelimiter))...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, dna.ErrEmptySequence
	}
	return rows, nil
}
