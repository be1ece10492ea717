// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics for the sequencer service.
//
// # Description
//
// Prometheus collectors (client_golang) cover request traffic, verdicts,
// store lookups and detection latency. The stage that decided each fresh
// verdict is counted through an OpenTelemetry instrument, which the
// telemetry package bridges into the same /metrics output.
//
// # Thread Safety
//
// All metric operations are thread-safe. Methods on a nil *SequencerMetrics
// are no-ops so collaborators can run without metrics in tests.
package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// =============================================================================
// Metric Definitions
// =============================================================================

const metricsNamespace = "sequencer"

// SequencerMetrics holds the service's collectors.
type SequencerMetrics struct {
	// RequestsTotal counts HTTP requests. Labels: endpoint, status (HTTP code).
	RequestsTotal *prometheus.CounterVec

	// VerdictsTotal counts verdicts served. Labels: verdict (mutant, human).
	VerdictsTotal *prometheus.CounterVec

	// LookupsTotal counts store lookups before detection. Labels: result (hit, miss).
	LookupsTotal *prometheus.CounterVec

	// ErrorsTotal counts failures. Labels: endpoint, error_code.
	ErrorsTotal *prometheus.CounterVec

	// DetectionDurationSeconds measures fresh detections, storage excluded.
	DetectionDurationSeconds prometheus.Histogram

	// InFlightChecks is the number of checks currently running.
	InFlightChecks prometheus.Gauge

	// stages counts fresh verdicts by deciding stage (otel instrument).
	stages metric.Int64Counter
}

// NewSequencerMetrics registers the collectors on reg and creates the
// stage counter on meter.
//
// # Inputs
//
//   - reg: registry to register on. Use prometheus.NewRegistry() in tests.
//   - meter: OTel meter; nil uses a no-op meter.
//
// # Outputs
//
//   - error: the stage instrument could not be created. Duplicate
//     Prometheus registration panics, as promauto does.
func NewSequencerMetrics(reg prometheus.Registerer, meter metric.Meter) (*SequencerMetrics, error) {
	factory := promauto.With(reg)
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("sequencer")
	}

	stages, err := meter.Int64Counter(
		"sequencer.detection.stage",
		metric.WithDescription("Fresh verdicts by the scan stage that decided them"),
		metric.WithUnit("{verdict}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create stage counter: %w", err)
	}

	return &SequencerMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Total HTTP requests by endpoint and status code",
			},
			[]string{"endpoint", "status"},
		),
		VerdictsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "verdicts_total",
				Help:      "Verdicts served by outcome",
			},
			[]string{"verdict"},
		),
		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "lookups_total",
				Help:      "Stored verdict lookups by result",
			},
			[]string{"result"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "errors_total",
				Help:      "Errors by endpoint and error code",
			},
			[]string{"endpoint", "error_code"},
		),
		DetectionDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "detection_duration_seconds",
				Help:      "Time spent scanning a sequence",
				Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),
		InFlightChecks: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "in_flight_checks",
				Help:      "Checks currently being processed",
			},
		),
		stages: stages,
	}, nil
}

// =============================================================================
// Label values
// =============================================================================

// ErrorCode categorizes failures for ErrorsTotal.
type ErrorCode string

const (
	ErrorCodeValidation   ErrorCode = "validation"
	ErrorCodeAlphabet     ErrorCode = "invalid_alphabet"
	ErrorCodeMalformed    ErrorCode = "malformed_sequence"
	ErrorCodeStorage      ErrorCode = "storage"
	ErrorCodeNotFound     ErrorCode = "not_found"
	ErrorCodeRateLimited  ErrorCode = "rate_limited"
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
)

// Endpoint names the route family for labels.
type Endpoint string

const (
	EndpointMutant    Endpoint = "mutant"
	EndpointStats     Endpoint = "stats"
	EndpointSequences Endpoint = "sequences"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest counts a finished request.
func (m *SequencerMetrics) RecordRequest(endpoint Endpoint, status int) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), strconv.Itoa(status)).Inc()
}

// RecordError counts a failure.
func (m *SequencerMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// RecordVerdict counts a served verdict, cached or fresh.
func (m *SequencerMetrics) RecordVerdict(mutant bool) {
	if m == nil {
		return
	}
	verdict := "human"
	if mutant {
		verdict = "mutant"
	}
	m.VerdictsTotal.WithLabelValues(verdict).Inc()
}

// RecordLookup counts a store lookup.
func (m *SequencerMetrics) RecordLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.LookupsTotal.WithLabelValues(result).Inc()
}

// RecordDetection records one fresh detection and the stage that decided it.
func (m *SequencerMetrics) RecordDetection(ctx context.Context, stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DetectionDurationSeconds.Observe(elapsed.Seconds())
	m.stages.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// CheckStarted increments InFlightChecks and returns the matching decrement.
func (m *SequencerMetrics) CheckStarted() (done func()) {
	if m == nil {
		return func() {}
	}
	m.InFlightChecks.Inc()
	return m.InFlightChecks.Dec
}
