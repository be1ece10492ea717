// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package services holds the sequencer's business logic, separated from
// HTTP handlers.
//
// Services are designed to be:
//   - Testable: the store, metrics and audit trail are injected
//   - Traceable: every method takes a context and opens a span
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/frahik/mutant-dna-sequencer/pkg/dna"
	"github.com/frahik/mutant-dna-sequencer/pkg/extensions"
	"github.com/frahik/mutant-dna-sequencer/pkg/telemetry"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/observability"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/storage"
)

var verdictTracer = otel.Tracer("sequencer.services.verdict")

// Result is the outcome of VerdictService.Check.
type Result struct {
	Record storage.Record

	// Cached is true when the verdict was read from the store without
	// running detection.
	Cached bool

	// Shared is true when this call waited on an identical in-flight check.
	Shared bool
}

// =============================================================================
// VerdictService
// =============================================================================

// VerdictService decides and remembers whether sequences are mutant.
//
// # Description
//
// Each distinct sequence is scanned at most once. Check looks the
// normalized sequence up in the store first; on a miss, concurrent calls
// for the same sequence are coalesced with singleflight so only one of them
// scans and writes.
//
// # Thread Safety
//
// Safe for concurrent use.
type VerdictService struct {
	store   storage.Store
	metrics *observability.SequencerMetrics
	audit   extensions.AuditLogger
	group   singleflight.Group

	// inspect is dna.InspectRows outside tests.
	inspect func(rows []string) (dna.Report, error)
}

// NewVerdictService wires the service. metrics may be nil; a nil audit
// logger is replaced by a no-op one.
func NewVerdictService(store storage.Store, metrics *observability.SequencerMetrics, audit extensions.AuditLogger) *VerdictService {
	if audit == nil {
		audit = &extensions.NopAuditLogger{}
	}
	return &VerdictService{
		store:   store,
		metrics: metrics,
		audit:   audit,
		inspect: dna.InspectRows,
	}
}

// Check returns the verdict for rows.
//
// # Description
//
// Rows are trimmed and uppercased, then joined with ','. The joined form
// is the identity of the sequence in the store.
//
// # Outputs
//
//   - Result: the stored record and how it was obtained.
//   - error: wraps dna.ErrEmptySequence, *dna.AlphabetError or
//     *dna.MalformedSequenceError for bad input; anything else is a
//     storage failure.
func (s *VerdictService) Check(ctx context.Context, rows []string) (Result, error) {
	ctx, span := verdictTracer.Start(ctx, "VerdictService.Check",
		trace.WithAttributes(attribute.Int("dna.rows", len(rows))))
	defer span.End()

	done := s.metrics.CheckStarted()
	defer done()

	if len(rows) == 0 {
		telemetry.RecordError(span, dna.ErrEmptySequence)
		return Result{}, fmt.Errorf("check sequence: %w", dna.ErrEmptySequence)
	}

	// Rows are validated before the lookup: a row carrying the delimiter
	// would otherwise join to the key of a different, stored grid.
	normalized := make([]string, len(rows))
	for i, row := range rows {
		normalized[i] = dna.Normalize(row)
		if err := dna.ValidateRow(normalized[i]); err != nil {
			telemetry.RecordError(span, err)
			return Result{}, fmt.Errorf("check sequence: %w", err)
		}
	}
	joined := strings.Join(normalized, string(dna.RowDelimiter))
	key := storage.Key(joined)

	rec, err := s.store.Get(ctx, joined)
	switch {
	case err == nil:
		s.metrics.RecordLookup(true)
		s.metrics.RecordVerdict(rec.IsMutant)
		span.SetAttributes(attribute.Bool("dna.cached", true), attribute.Bool("dna.mutant", rec.IsMutant))
		telemetry.SetSpanOK(span)
		return Result{Record: rec, Cached: true}, nil
	case !errors.Is(err, storage.ErrNotFound):
		telemetry.RecordError(span, err)
		return Result{}, fmt.Errorf("lookup verdict: %w", err)
	}
	s.metrics.RecordLookup(false)

	// The shared work must outlive any single caller's cancellation.
	workCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.detectAndStore(workCtx, normalized, joined, key)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return Result{}, err
	}

	res := v.(Result)
	res.Shared = shared
	s.metrics.RecordVerdict(res.Record.IsMutant)
	span.SetAttributes(
		attribute.Bool("dna.cached", res.Cached),
		attribute.Bool("dna.mutant", res.Record.IsMutant),
		attribute.String("dna.stage", res.Record.Stage),
	)
	telemetry.SetSpanOK(span)
	return res, nil
}

// detectAndStore scans normalized and persists the verdict. A concurrent
// insert from another process surfaces as ErrDuplicate, in which case the
// winner's record is returned.
func (s *VerdictService) detectAndStore(ctx context.Context, normalized []string, joined, key string) (Result, error) {
	start := time.Now()
	report, err := s.inspect(normalized)
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("check sequence: %w", err)
	}
	s.metrics.RecordDetection(ctx, string(report.Stage), elapsed)

	rec, err := s.store.Create(ctx, storage.Record{
		DNA:      joined,
		IsMutant: report.Verdict.IsMutant(),
		Stage:    string(report.Stage),
		Rows:     report.Rows,
		Cols:     report.Cols,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		existing, getErr := s.store.Get(ctx, joined)
		if getErr != nil {
			return Result{}, fmt.Errorf("reload duplicate verdict: %w", getErr)
		}
		return Result{Record: existing, Cached: true}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("store verdict: %w", err)
	}

	logger := telemetry.LoggerWithTrace(ctx, slog.Default())
	logger.Info("verdict stored",
		"id", rec.ID,
		"verdict", report.Verdict.String(),
		"stage", rec.Stage,
		"rows", rec.Rows,
		"cols", rec.Cols,
		"key", key[:12],
	)
	if err := s.audit.Log(ctx, extensions.AuditEvent{
		EventType:  extensions.EventVerdictStored,
		UserID:     "anonymous",
		ResourceID: rec.ID,
		Outcome:    report.Verdict.String(),
		Metadata:   map[string]any{"stage": rec.Stage, "rows": rec.Rows, "cols": rec.Cols},
	}); err != nil {
		logger.Warn("audit log failed", "error", err)
	}
	return Result{Record: rec}, nil
}

// Stats returns the verdict counters.
func (s *VerdictService) Stats(ctx context.Context) (storage.Stats, error) {
	ctx, span := verdictTracer.Start(ctx, "VerdictService.Stats")
	defer span.End()

	st, err := s.store.Stats(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return storage.Stats{}, fmt.Errorf("read stats: %w", err)
	}
	span.SetAttributes(
		attribute.Int64("stats.mutant", int64(st.Mutant)),
		attribute.Int64("stats.human", int64(st.Human)),
	)
	return st, nil
}

// List returns stored verdicts in creation order.
func (s *VerdictService) List(ctx context.Context, limit int, cursor string) (storage.Page, error) {
	ctx, span := verdictTracer.Start(ctx, "VerdictService.List",
		trace.WithAttributes(attribute.Int("list.limit", limit)))
	defer span.End()

	page, err := s.store.List(ctx, limit, cursor)
	if err != nil {
		telemetry.RecordError(span, err)
		return storage.Page{}, fmt.Errorf("list verdicts: %w", err)
	}
	return page, nil
}

// Get returns one stored verdict; errors wrap storage.ErrNotFound on a miss.
func (s *VerdictService) Get(ctx context.Context, id string) (storage.Record, error) {
	ctx, span := verdictTracer.Start(ctx, "VerdictService.Get",
		trace.WithAttributes(attribute.String("record.id", id)))
	defer span.End()

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			telemetry.RecordError(span, err)
		}
		return storage.Record{}, fmt.Errorf("get verdict %s: %w", id, err)
	}
	return rec, nil
}
