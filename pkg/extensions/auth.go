// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrUnauthorized is returned when authentication fails. Implementations
// wrap it with context:
//
//	return nil, fmt.Errorf("token mismatch: %w", extensions.ErrUnauthorized)
var ErrUnauthorized = errors.New("unauthorized")

// AuthInfo is the identity attached to an authenticated request.
type AuthInfo struct {
	// UserID identifies the caller. Never empty.
	UserID string

	// Roles drives authorization checks, e.g. "admin", "reader".
	Roles []string
}

// HasRole reports whether the caller holds role.
func (a *AuthInfo) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// AuthProvider validates authentication tokens.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type AuthProvider interface {
	// Validate checks token and returns the caller's identity.
	//
	// Returns ErrUnauthorized (or a wrapped form) for bad tokens; other
	// errors mean the provider itself failed.
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// NopAuthProvider accepts every token, including the empty one, as
// "local-user" with the admin role.
type NopAuthProvider struct{}

// Validate always succeeds.
func (p *NopAuthProvider) Validate(_ context.Context, _ string) (*AuthInfo, error) {
	return &AuthInfo{UserID: "local-user", Roles: []string{"admin"}}, nil
}

// =============================================================================
// Static API token
// =============================================================================

var memguardInitOnce sync.Once

// TokenAuthProvider accepts exactly one static API token.
//
// # Description
//
// The token is sealed in a memguard Enclave: it is encrypted at rest in
// process memory and only decrypted into a locked buffer for the duration
// of a comparison. Comparison is constant-time.
//
// # Thread Safety
//
// Safe for concurrent use. Each Validate opens its own buffer.
type TokenAuthProvider struct {
	enclave *memguard.Enclave
	userID  string
}

// NewTokenAuthProvider seals token. The caller's byte slice is wiped.
// Authenticated callers are reported as userID with the reader role.
func NewTokenAuthProvider(token []byte, userID string) (*TokenAuthProvider, error) {
	if len(token) == 0 {
		return nil, errors.New("api token must not be empty")
	}
	memguardInitOnce.Do(func() {
		memguard.CatchInterrupt()
		checkSecureMemory()
	})
	if userID == "" {
		userID = "api-client"
	}
	return &TokenAuthProvider{
		enclave: memguard.NewEnclave(token),
		userID:  userID,
	}, nil
}

// Validate compares token with the sealed one.
func (p *TokenAuthProvider) Validate(ctx context.Context, token string) (*AuthInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("missing token: %w", ErrUnauthorized)
	}

	buf, err := p.enclave.Open()
	if err != nil {
		return nil, fmt.Errorf("open token enclave: %w", err)
	}
	defer buf.Destroy()

	if subtle.ConstantTimeCompare(buf.Bytes(), []byte(token)) != 1 {
		return nil, fmt.Errorf("token mismatch: %w", ErrUnauthorized)
	}
	return &AuthInfo{UserID: p.userID, Roles: []string{"reader"}}, nil
}

var (
	_ AuthProvider = (*NopAuthProvider)(nil)
	_ AuthProvider = (*TokenAuthProvider)(nil)
)
