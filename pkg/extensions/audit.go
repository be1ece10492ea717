// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"log/slog"
	"time"
)

// Audit event types.
const (
	EventVerdictStored = "verdict.stored"
	EventAccessDenied  = "access.denied"
)

// AuditEvent is one auditable action.
//
// Example:
//
//	event := AuditEvent{
//	    EventType:  extensions.EventVerdictStored,
//	    UserID:     "anonymous",
//	    ResourceID: rec.ID,
//	    Outcome:    "mutant",
//	}
type AuditEvent struct {
	// EventType is "category.action", e.g. "verdict.stored".
	EventType string

	// Timestamp is set to time.Now().UTC() by loggers when zero.
	Timestamp time.Time

	// UserID is "anonymous" for unauthenticated routes.
	UserID string

	// ResourceID is the record ID or request path.
	ResourceID string

	// Outcome is the verdict, or "denied".
	Outcome string

	// Metadata carries extra attributes. Never put raw DNA here.
	Metadata map[string]any
}

// AuditLogger records audit events.
//
// Implementations must be safe for concurrent use and should return
// quickly; Log is called on the request path.
type AuditLogger interface {
	// Log records event.
	Log(ctx context.Context, event AuditEvent) error

	// Flush persists buffered events. Called on shutdown.
	Flush(ctx context.Context) error
}

// NopAuditLogger discards all events.
type NopAuditLogger struct{}

// Log discards the event.
func (l *NopAuditLogger) Log(context.Context, AuditEvent) error { return nil }

// Flush is a no-op.
func (l *NopAuditLogger) Flush(context.Context) error { return nil }

// SlogAuditLogger writes events as structured log entries under the
// "audit" group.
type SlogAuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewSlogAuditLogger logs to logger, or slog.Default() when nil.
func NewSlogAuditLogger(logger *slog.Logger) *SlogAuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAuditLogger{logger: logger, now: time.Now}
}

// Log writes event at Info level.
func (l *SlogAuditLogger) Log(ctx context.Context, event AuditEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}
	attrs := []any{
		slog.String("event_type", event.EventType),
		slog.Time("timestamp", event.Timestamp),
		slog.String("user_id", event.UserID),
		slog.String("resource_id", event.ResourceID),
		slog.String("outcome", event.Outcome),
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "audit", slog.Group("audit", attrs...))
	return nil
}

// Flush is a no-op; slog handlers write synchronously.
func (l *SlogAuditLogger) Flush(context.Context) error { return nil }

var (
	_ AuditLogger = (*NopAuditLogger)(nil)
	_ AuditLogger = (*SlogAuditLogger)(nil)
)
