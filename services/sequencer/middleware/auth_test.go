// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frahik/mutant-dna-sequencer/pkg/extensions"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	gin.SetMode(gin.TestMode)
}

type mockAuthProvider struct {
	authInfo *extensions.AuthInfo
	err      error
	gotToken string
}

func (m *mockAuthProvider) Validate(_ context.Context, token string) (*extensions.AuthInfo, error) {
	m.gotToken = token
	if m.err != nil {
		return nil, m.err
	}
	return m.authInfo, nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []extensions.AuditEvent
}

func (r *recordingAudit) Log(_ context.Context, e extensions.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingAudit) Flush(context.Context) error { return nil }

func serve(router *gin.Engine, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/sequences", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	router.ServeHTTP(w, req)
	return w
}

// =============================================================================
// extractBearerToken Tests
// =============================================================================

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"padded token", "Bearer   abc123  ", "abc123"},
		{"missing", "", ""},
		{"basic scheme", "Basic dXNlcjpwYXNz", ""},
		{"no token", "Bearer", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, extractBearerToken(c))
		})
	}
}

// =============================================================================
// AuthMiddleware Tests
// =============================================================================

func TestAuthMiddleware_Success(t *testing.T) {
	provider := &mockAuthProvider{authInfo: &extensions.AuthInfo{UserID: "ops", Roles: []string{"reader"}}}

	router := gin.New()
	router.Use(AuthMiddleware(provider, nil))
	router.GET("/v1/sequences", func(c *gin.Context) {
		info := GetAuthInfo(c)
		require.NotNil(t, info)
		c.JSON(http.StatusOK, gin.H{"user_id": info.UserID})
	})

	w := serve(router, "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "good", provider.gotToken)
	assert.JSONEq(t, `{"user_id":"ops"}`, w.Body.String())
}

func TestAuthMiddleware_Denied(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"unauthorized", extensions.ErrUnauthorized, `{"error":"unauthorized"}`},
		{"wrapped", errors.Join(errors.New("expired"), extensions.ErrUnauthorized), `{"error":"unauthorized"}`},
		{"provider failure", errors.New("network error"), `{"error":"authentication failed"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &recordingAudit{}
			router := gin.New()
			router.Use(AuthMiddleware(&mockAuthProvider{err: tt.err}, audit))
			router.GET("/v1/sequences", func(c *gin.Context) {
				t.Error("handler must not run")
			})

			w := serve(router, "Bearer bad")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, tt.wantMsg, w.Body.String())
			require.Len(t, audit.events, 1)
			assert.Equal(t, extensions.EventAccessDenied, audit.events[0].EventType)
			assert.Equal(t, "/v1/sequences", audit.events[0].ResourceID)
		})
	}
}

func TestAuthMiddleware_TokenProvider(t *testing.T) {
	provider, err := extensions.NewTokenAuthProvider([]byte("let-me-in"), "ops")
	require.NoError(t, err)

	router := gin.New()
	router.Use(AuthMiddleware(provider, nil))
	router.GET("/v1/sequences", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, "Bearer let-me-in").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "Bearer nope").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "").Code)
}

func TestAuthMiddleware_NopProvider(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware(&extensions.NopAuthProvider{}, nil))
	router.GET("/v1/sequences", func(c *gin.Context) {
		c.String(http.StatusOK, GetAuthInfo(c).UserID)
	})

	w := serve(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "local-user", w.Body.String())
}

func TestGetAuthInfo(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetAuthInfo(c))

	c.Set(authInfoKey, "not-auth-info")
	assert.Nil(t, GetAuthInfo(c))

	info := &extensions.AuthInfo{UserID: "u"}
	SetAuthInfo(c, info)
	assert.Same(t, info, GetAuthInfo(c))
}
