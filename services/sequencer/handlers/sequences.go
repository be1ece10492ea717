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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/frahik/mutant-dna-sequencer/services/sequencer/datatypes"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/observability"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/storage"
)

// ListSequences serves GET /v1/sequences?limit=&cursor=.
func ListSequences(svc VerdictService, metrics *observability.SequencerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q datatypes.ListQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			metrics.RecordError(observability.EndpointSequences, observability.ErrorCodeValidation)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid query: " + err.Error()})
			return
		}
		if err := q.Validate(); err != nil {
			metrics.RecordError(observability.EndpointSequences, observability.ErrorCodeValidation)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: datatypes.ValidationMessage(err)})
			return
		}

		page, err := svc.List(c.Request.Context(), q.Limit, q.Cursor)
		if err != nil {
			slog.Error("failed to list sequences", "error", err)
			metrics.RecordError(observability.EndpointSequences, observability.ErrorCodeStorage)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
			return
		}
		c.JSON(http.StatusOK, datatypes.NewSequenceList(page))
	}
}

// GetSequence serves GET /v1/sequences/:id.
func GetSequence(svc VerdictService, metrics *observability.SequencerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		rec, err := svc.Get(c.Request.Context(), id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			metrics.RecordError(observability.EndpointSequences, observability.ErrorCodeNotFound)
			c.JSON(http.StatusNotFound, datatypes.ErrorResponse{Error: "sequence not found"})
			return
		case err != nil:
			slog.Error("failed to get sequence", "id", id, "error", err)
			metrics.RecordError(observability.EndpointSequences, observability.ErrorCodeStorage)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
			return
		}
		c.JSON(http.StatusOK, datatypes.NewSequence(rec))
	}
}
