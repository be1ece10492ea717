// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frahik/mutant-dna-sequencer/pkg/extensions"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/handlers"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/middleware"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/observability"
)

// SetupRoutes registers every endpoint on router.
//
// limiter may be nil (no rate limiting). gatherer may be nil, in which case
// /metrics is not served.
func SetupRoutes(router *gin.Engine, svc handlers.VerdictService, metrics *observability.SequencerMetrics,
	limiter *middleware.IPRateLimiter, opts extensions.ServiceOptions, gatherer prometheus.Gatherer) {

	opts = opts.Normalize()

	router.GET("/health", handlers.HealthCheck)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	router.POST("/mutant",
		middleware.RequestMetrics(metrics, observability.EndpointMutant),
		middleware.RateLimit(limiter),
		handlers.HandleMutant(svc, metrics))
	router.GET("/stats",
		middleware.RequestMetrics(metrics, observability.EndpointStats),
		handlers.HandleStats(svc, metrics))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.RequestMetrics(metrics, observability.EndpointSequences))
	v1.Use(middleware.AuthMiddleware(opts.AuthProvider, opts.AuditLogger))
	{
		sequences := v1.Group("/sequences")
		{
			sequences.GET("", handlers.ListSequences(svc, metrics))
			sequences.GET("/:id", handlers.GetSequence(svc, metrics))
		}
	}
}
