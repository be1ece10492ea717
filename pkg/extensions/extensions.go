// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extensions defines the pluggable edges of the sequencer service.
//
// The service ships with no-op defaults so a local server works without
// any identity or audit infrastructure. Deployments that need more inject
// their own implementations through ServiceOptions.
//
// # Extension Categories
//
//   - auth.go: token authentication for the /v1 API (AuthProvider)
//   - audit.go: verdict and access audit trail (AuditLogger)
//
// # Usage
//
//	opts := extensions.DefaultOptions().
//	    WithAuth(extensions.NewTokenAuthProvider(token)).
//	    WithAudit(extensions.NewSlogAuditLogger(slog.Default()))
//	svc, err := sequencer.New(cfg, &opts)
//
// # Thread Safety
//
// All interface implementations must be safe for concurrent use.
package extensions

// ServiceOptions groups all extension points for service configuration.
// Nil fields are replaced with no-op defaults by DefaultOptions or by the
// service constructor.
type ServiceOptions struct {
	// AuthProvider validates bearer tokens on /v1 routes.
	// Default: NopAuthProvider (everyone is local-user).
	AuthProvider AuthProvider

	// AuditLogger records stored verdicts and denied requests.
	// Default: NopAuditLogger.
	AuditLogger AuditLogger
}

// DefaultOptions returns ServiceOptions with no-op defaults.
func DefaultOptions() ServiceOptions {
	return ServiceOptions{
		AuthProvider: &NopAuthProvider{},
		AuditLogger:  &NopAuditLogger{},
	}
}

// WithAuth returns a copy of opts with the given AuthProvider.
func (opts ServiceOptions) WithAuth(provider AuthProvider) ServiceOptions {
	opts.AuthProvider = provider
	return opts
}

// WithAudit returns a copy of opts with the given AuditLogger.
func (opts ServiceOptions) WithAudit(logger AuditLogger) ServiceOptions {
	opts.AuditLogger = logger
	return opts
}

// Normalize fills nil fields with no-op defaults.
func (opts ServiceOptions) Normalize() ServiceOptions {
	if opts.AuthProvider == nil {
		opts.AuthProvider = &NopAuthProvider{}
	}
	if opts.AuditLogger == nil {
		opts.AuditLogger = &NopAuditLogger{}
	}
	return opts
}
