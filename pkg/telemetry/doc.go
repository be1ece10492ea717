// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires OpenTelemetry tracing and metrics for the sequencer.
//
// OpenTelemetry is the abstraction layer. Callers use the OTel APIs
// directly (otel.Tracer, otel.Meter); the backend is chosen by exporter
// configuration only.
//
// # Trace exporters
//
//   - "otlp": gRPC OTLP exporter (Jaeger, Tempo, any collector)
//   - "stdout": pretty-printed spans on stdout, for local debugging
//   - "none": no tracer provider is installed; spans are no-ops
//
// # Metric exporters
//
//   - "prometheus": OTel instruments are exposed through a Prometheus
//     registerer, next to the client_golang collectors on /metrics
//   - "stdout": periodic pretty-printed export on stdout
//   - "none": no meter provider is installed
//
// # Usage
//
//	shutdown, err := telemetry.Init(ctx, cfg)
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(context.Background())
//
// # Thread Safety
//
// Init must be called once at startup. Everything else is safe for
// concurrent use.
package telemetry
