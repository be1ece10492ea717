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

// =============================================================================
// Verdict
// =============================================================================

// Verdict is the outcome of a detection.
type Verdict int

const (
	// NotMutant means no segment holds a run of MinRunLength bases.
	NotMutant Verdict = iota

	// Mutant means at least one row, column or diagonal holds such a run.
	Mutant
)

// String returns "mutant" or "human".
func (v Verdict) String() string {
	if v == Mutant {
		return "mutant"
	}
	return "human"
}

// IsMutant reports whether v is Mutant.
func (v Verdict) IsMutant() bool { return v == Mutant }

// Stage names the detection step that settled a verdict.
type Stage string

const (
	// StageRows settled the verdict during the row scan.
	StageRows Stage = "rows"

	// StageSize settled NotMutant because both sides are below MinRunLength.
	StageSize Stage = "size"

	// StageColumns settled the verdict during the column scan.
	StageColumns Stage = "columns"

	// StageDiagonals settled the verdict during the diagonal scan. Every
	// NotMutant on a grid with a side of MinRunLength or more ends here.
	StageDiagonals Stage = "diagonals"
)

// Report describes one detection.
type Report struct {
	Verdict Verdict
	Stage   Stage
	Rows    int
	Cols    int
}

// =============================================================================
// Detection
// =============================================================================

// Inspect runs the full pipeline on a delimiter-joined sequence.
//
// # Description
//
// The steps run in a fixed order and each one short-circuits:
//
//  1. ValidateAlphabet. Fails with ErrInvalidAlphabet.
//  2. ParseGrid. Fails with ErrMalformedSequence.
//  3. Row scan. A run makes the sequence Mutant.
//  4. When R and C are both below MinRunLength no column or diagonal can
//     hold a run, so the sequence is NotMutant.
//  5. Column scan over the transposed read.
//  6. Diagonal scan over ExtractDiagonals.
//
// # Outputs
//
//   - Report: verdict, the stage that settled it and the grid size. Zero
//     when err is non-nil.
//   - error: an *AlphabetError or a *MalformedSequenceError.
//
// # Examples
//
//	report, err := dna.Inspect("AAAC,ACAA,AGGG,GGGG")
//	// report.Verdict == dna.Mutant, report.Stage == dna.StageRows
func Inspect(raw string) (Report, error) {
	if err := ValidateAlphabet(raw); err != nil {
		return Report{}, err
	}
	g, err := ParseGrid(raw)
	if err != nil {
		return Report{}, err
	}
	return inspectGrid(g), nil
}

// InspectRows is Inspect for pre-split rows. A row holding the delimiter
// is an alphabet error; the reported offset is the offset in the joined
// sequence.
func InspectRows(rows []string) (Report, error) {
	if len(rows) == 0 {
		return Report{}, ErrEmptySequence
	}
	offset := 0
	for _, row := range rows {
		if err := ValidateRow(row); err != nil {
			ae := err.(*AlphabetError)
			ae.Offset += offset
			return Report{}, ae
		}
		offset += len(row) + 1
	}
	g, err := NewGrid(rows)
	if err != nil {
		return Report{}, err
	}
	return inspectGrid(g), nil
}

// Detect returns the verdict for a delimiter-joined sequence.
func Detect(raw string) (Verdict, error) {
	report, err := Inspect(raw)
	return report.Verdict, err
}

// DetectRows returns the verdict for pre-split rows.
func DetectRows(rows []string) (Verdict, error) {
	report, err := InspectRows(rows)
	return report.Verdict, err
}

// IsMutant reports whether rows form a mutant sequence.
func IsMutant(rows []string) (bool, error) {
	v, err := DetectRows(rows)
	return v.IsMutant(), err
}

// DetectGrid scans an already parsed grid. The alphabet is not checked.
func DetectGrid(g *Grid) Verdict {
	return inspectGrid(g).Verdict
}

func inspectGrid(g *Grid) Report {
	report := Report{Verdict: NotMutant, Rows: g.Rows(), Cols: g.Cols()}

	report.Stage = StageRows
	if HasRun(g.RowBatch()) {
		report.Verdict = Mutant
		return report
	}

	if g.Rows() < MinRunLength && g.Cols() < MinRunLength {
		report.Stage = StageSize
		return report
	}

	report.Stage = StageColumns
	if HasRun(g.ColumnBatch()) {
		report.Verdict = Mutant
		return report
	}

	report.Stage = StageDiagonals
	if HasRun(ExtractDiagonals(g).Flatten()) {
		report.Verdict = Mutant
	}
	return report
}
