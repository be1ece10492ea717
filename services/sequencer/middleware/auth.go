// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides gin middleware for the sequencer API.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/frahik/mutant-dna-sequencer/pkg/extensions"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/datatypes"
)

// authInfoKey is the gin context key for the authenticated identity.
const authInfoKey = "sequencer_auth_info"

// SetAuthInfo stores info on the request context.
func SetAuthInfo(c *gin.Context, info *extensions.AuthInfo) {
	c.Set(authInfoKey, info)
}

// GetAuthInfo returns the identity stored by AuthMiddleware, or nil.
func GetAuthInfo(c *gin.Context) *extensions.AuthInfo {
	if info, exists := c.Get(authInfoKey); exists {
		if authInfo, ok := info.(*extensions.AuthInfo); ok {
			return authInfo
		}
	}
	return nil
}

// AuthMiddleware authenticates the bearer token with provider.
//
// # Description
//
// Rejected requests get 401 with {"error": "unauthorized"} and an
// access.denied audit event. Provider failures also answer 401, with a
// generic message, and are logged. On success the identity is available
// to handlers through GetAuthInfo.
func AuthMiddleware(provider extensions.AuthProvider, audit extensions.AuditLogger) gin.HandlerFunc {
	if audit == nil {
		audit = &extensions.NopAuditLogger{}
	}
	return func(c *gin.Context) {
		token := extractBearerToken(c)

		authInfo, err := provider.Validate(c.Request.Context(), token)
		if err != nil {
			msg := "unauthorized"
			if !errors.Is(err, extensions.ErrUnauthorized) {
				msg = "authentication failed"
				slog.Error("auth provider failed", "error", err, "path", c.FullPath())
			}
			_ = audit.Log(c.Request.Context(), extensions.AuditEvent{
				EventType:  extensions.EventAccessDenied,
				UserID:     "anonymous",
				ResourceID: c.Request.URL.Path,
				Outcome:    "denied",
				Metadata:   map[string]any{"client_ip": c.ClientIP()},
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, datatypes.ErrorResponse{Error: msg})
			return
		}

		SetAuthInfo(c, authInfo)
		c.Next()
	}
}

// extractBearerToken returns the token of an "Authorization: Bearer <token>"
// header, or "" when the header is absent or uses another scheme.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
