// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the sequencer's HTTP endpoints.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/frahik/mutant-dna-sequencer/services/sequencer/services"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/storage"
)

// VerdictService is the business logic the handlers depend on.
// *services.VerdictService implements it.
type VerdictService interface {
	Check(ctx context.Context, rows []string) (services.Result, error)
	Stats(ctx context.Context) (storage.Stats, error)
	List(ctx context.Context, limit int, cursor string) (storage.Page, error)
	Get(ctx context.Context, id string) (storage.Record, error)
}

var _ VerdictService = (*services.VerdictService)(nil)

// HealthCheck answers liveness probes.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
