// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/frahik/mutant-dna-sequencer/services/sequencer/datatypes"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/observability"
)

// HandleStats serves GET /stats.
func HandleStats(svc VerdictService, metrics *observability.SequencerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svc.Stats(c.Request.Context())
		if err != nil {
			slog.Error("failed to read stats", "error", err)
			metrics.RecordError(observability.EndpointStats, observability.ErrorCodeStorage)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
			return
		}
		c.JSON(http.StatusOK, datatypes.NewStatsResponse(st))
	}
}
