// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg := DefaultConfig()

	if cfg.ServiceName != "sequencer" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "sequencer")
	}
	if cfg.TraceExporter != ExporterNone {
		t.Errorf("TraceExporter = %q, want %q", cfg.TraceExporter, ExporterNone)
	}
	if cfg.MetricExporter != ExporterPrometheus {
		t.Errorf("MetricExporter = %q, want %q", cfg.MetricExporter, ExporterPrometheus)
	}
	if cfg.OTLPEndpoint != "localhost:4317" {
		t.Errorf("OTLPEndpoint = %q, want %q", cfg.OTLPEndpoint, "localhost:4317")
	}
}

func TestDefaultConfig_EnvOverride(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "stdout")
	if got := DefaultConfig().TraceExporter; got != "stdout" {
		t.Errorf("TraceExporter = %q, want %q", got, "stdout")
	}
}

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	_, err := Init(nil, Config{TraceExporter: ExporterNone})
	if err != ErrNilContext {
		t.Errorf("Init(nil, cfg) error = %v, want %v", err, ErrNilContext)
	}
}

func TestInit_NoopExporters(t *testing.T) {
	cfg := Config{ServiceName: "test", TraceExporter: ExporterNone, MetricExporter: ExporterNone}

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInit_StdoutTracer(t *testing.T) {
	cfg := Config{ServiceName: "test", TraceExporter: ExporterStdout, MetricExporter: ExporterNone}

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	ctx, span := StartSpan(context.Background(), "test", "probe")
	defer span.End()
	if TraceID(ctx) == "" {
		t.Error("expected a recording span with a trace id")
	}
}

func TestInit_UnknownExporter(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"trace", Config{TraceExporter: "zipkin", MetricExporter: ExporterNone}},
		{"metric", Config{TraceExporter: ExporterNone, MetricExporter: "statsd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Init(context.Background(), tt.cfg)
			if !errors.Is(err, ErrUnknownExporter) {
				t.Errorf("Init() error = %v, want ErrUnknownExporter", err)
			}
		})
	}
}

func TestInit_PrometheusBridge(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := Config{
		ServiceName:    "test",
		TraceExporter:  ExporterNone,
		MetricExporter: ExporterPrometheus,
		Registerer:     reg,
	}

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	counter, err := otel.Meter("test").Int64Counter("probe_total")
	if err != nil {
		t.Fatalf("Int64Counter() error = %v", err)
	}
	counter.Add(context.Background(), 3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "probe") {
			found = true
		}
	}
	if !found {
		t.Error("otel counter not exposed through the prometheus registry")
	}
}

func TestLoggerWithTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LoggerWithTrace(context.Background(), logger).Info("no span")
	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("output should not contain trace_id without a span: %s", buf.String())
	}

	buf.Reset()
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	LoggerWithTrace(ctx, logger).Info("with span")
	if !strings.Contains(buf.String(), span.SpanContext().TraceID().String()) {
		t.Errorf("output missing trace id: %s", buf.String())
	}
}

func TestRecordError_NilSafe(t *testing.T) {
	RecordError(nil, errors.New("x"))
	SetSpanOK(nil)

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	_, span := tp.Tracer("test").Start(context.Background(), "op")
	RecordError(span, nil)
	RecordError(span, errors.New("boom"))
	span.End()
}
