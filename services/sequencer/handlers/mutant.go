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

	"github.com/frahik/mutant-dna-sequencer/pkg/dna"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/datatypes"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/observability"
)

// HandleMutant serves POST /mutant.
//
// # Responses
//
//   - 200 OK: human DNA
//   - 403 Forbidden: mutant DNA
//   - 400 Bad Request: undecodable body, missing or oversized dna, or a
//     character outside A C T G
//   - 422 Unprocessable Entity: rows of different lengths
//   - 500 Internal Server Error: storage failure
func HandleMutant(svc VerdictService, metrics *observability.SequencerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.MutantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			metrics.RecordError(observability.EndpointMutant, observability.ErrorCodeValidation)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			metrics.RecordError(observability.EndpointMutant, observability.ErrorCodeValidation)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: datatypes.ValidationMessage(err)})
			return
		}

		res, err := svc.Check(c.Request.Context(), req.DNA)
		if err != nil {
			status, code := classifyCheckError(err)
			metrics.RecordError(observability.EndpointMutant, code)
			if status == http.StatusInternalServerError {
				slog.Error("verdict check failed", "error", err, "rows", len(req.DNA))
				c.JSON(status, datatypes.ErrorResponse{Error: "internal error"})
				return
			}
			c.JSON(status, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		status := http.StatusOK
		if res.Record.IsMutant {
			status = http.StatusForbidden
		}
		c.JSON(status, datatypes.MutantResponse{
			Status:   verdictLabel(res.Record.IsMutant),
			IsMutant: res.Record.IsMutant,
			ID:       res.Record.ID,
			Cached:   res.Cached,
		})
	}
}

// classifyCheckError maps a VerdictService.Check error to an HTTP status
// and metrics code.
func classifyCheckError(err error) (int, observability.ErrorCode) {
	var alpha *dna.AlphabetError
	var malformed *dna.MalformedSequenceError
	switch {
	case errors.As(err, &alpha):
		return http.StatusBadRequest, observability.ErrorCodeAlphabet
	case errors.As(err, &malformed):
		return http.StatusUnprocessableEntity, observability.ErrorCodeMalformed
	case errors.Is(err, dna.ErrEmptySequence):
		return http.StatusBadRequest, observability.ErrorCodeValidation
	default:
		return http.StatusInternalServerError, observability.ErrorCodeStorage
	}
}

func verdictLabel(mutant bool) string {
	if mutant {
		return dna.Mutant.String()
	}
	return dna.NotMutant.String()
}
