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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/frahik/mutant-dna-sequencer/services/sequencer/observability"
)

// RequestMetrics counts every request of a route family by status code,
// including requests rejected earlier in the chain by auth or rate limits.
func RequestMetrics(m *observability.SequencerMetrics, endpoint observability.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		m.RecordRequest(endpoint, status)
		switch status {
		case http.StatusUnauthorized:
			m.RecordError(endpoint, observability.ErrorCodeUnauthorized)
		case http.StatusTooManyRequests:
			m.RecordError(endpoint, observability.ErrorCodeRateLimited)
		}
	}
}
