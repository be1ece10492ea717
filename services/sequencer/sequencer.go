// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sequencer assembles the mutant DNA HTTP service.
//
// # Description
//
// New wires storage, the verdict service, metrics, tracing, rate limiting
// and authentication behind a gin router. Run serves it until the context
// is cancelled and then shuts everything down in reverse order.
//
// # Thread Safety
//
// Service methods are safe for concurrent use once New has returned.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"

	"github.com/frahik/mutant-dna-sequencer/pkg/extensions"
	"github.com/frahik/mutant-dna-sequencer/pkg/logging"
	"github.com/frahik/mutant-dna-sequencer/pkg/telemetry"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/config"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/middleware"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/observability"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/routes"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/services"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/storage"
	sbadger "github.com/frahik/mutant-dna-sequencer/services/sequencer/storage/badger"
)

// ServiceName identifies the service in traces, metrics and logs.
const ServiceName = "sequencer"

// =============================================================================
// Service Interface
// =============================================================================

// Service is a running sequencer.
type Service interface {
	// Run serves HTTP until ctx is cancelled or the listener fails, then
	// shuts down gracefully and releases every resource. A cancelled ctx
	// is a clean stop and returns nil.
	Run(ctx context.Context) error

	// Router returns the configured gin engine, for tests.
	Router() *gin.Engine

	// Reload applies the settings of cfg that can change at runtime: the
	// log level and the rate limit.
	Reload(cfg config.Config)

	// Close releases storage and telemetry without serving. Run calls it
	// on exit; calling it again is a no-op.
	Close() error
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures New.
type Config struct {
	// Port is the HTTP port. Default: 8080.
	Port int

	// GinMode is passed to gin.SetMode when non-empty.
	GinMode string

	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout time.Duration

	// Storage configures badger. A zero Path with InMemory unset defaults
	// to ~/.sequencer/data.
	Storage sbadger.Config

	// RateLimitRPS is the per-IP request rate on POST /mutant. 0 disables
	// limiting; Reload can enable it later.
	RateLimitRPS   float64
	RateLimitBurst int

	// Telemetry selects exporters. Telemetry.Registerer is overwritten with
	// the service's own registry.
	Telemetry telemetry.Config

	// Logger, when set, has its level changed by Reload.
	Logger *logging.Logger
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if !cfg.Storage.InMemory && cfg.Storage.Path == "" {
		cfg.Storage.Path = "~/.sequencer/data"
	}
	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	if cfg.Storage.GCInterval > 0 && cfg.Storage.GCDiscardRatio == 0 {
		cfg.Storage.GCDiscardRatio = sbadger.DefaultConfig().GCDiscardRatio
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = ServiceName
	}
	return cfg
}

// ConfigFromFile converts a loaded sequencer.yaml into a service Config.
func ConfigFromFile(c config.Config, logger *logging.Logger) Config {
	tel := telemetry.DefaultConfig()
	tel.TraceExporter = c.Telemetry.TraceExporter
	tel.MetricExporter = c.Telemetry.MetricExporter
	tel.OTLPEndpoint = c.Telemetry.OTLPEndpoint

	var badgerLogger *slog.Logger
	if logger != nil {
		badgerLogger = logger.Slog()
	}

	return Config{
		Port:            c.Server.Port,
		GinMode:         c.Server.GinMode,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		Storage: sbadger.Config{
			Path:           c.Storage.Path,
			InMemory:       c.Storage.InMemory,
			SyncWrites:     c.Storage.SyncWrites,
			Logger:         badgerLogger,
			GCInterval:     c.Storage.GCInterval,
			GCDiscardRatio: sbadger.DefaultConfig().GCDiscardRatio,
		},
		RateLimitRPS:   c.RateLimit.RequestsPerSecond,
		RateLimitBurst: c.RateLimit.Burst,
		Telemetry:      tel,
		Logger:         logger,
	}
}

// OptionsFromFile builds extension options from the auth section. A
// non-empty API token enables bearer authentication on /v1 and the audit
// trail is written to logger.
func OptionsFromFile(c config.Config, logger *slog.Logger) (extensions.ServiceOptions, error) {
	opts := extensions.DefaultOptions()
	if logger != nil {
		opts = opts.WithAudit(extensions.NewSlogAuditLogger(logger))
	}
	if c.Auth.APIToken == "" {
		return opts, nil
	}
	provider, err := extensions.NewTokenAuthProvider([]byte(c.Auth.APIToken), "")
	if err != nil {
		return opts, fmt.Errorf("failed to initialize token auth: %w", err)
	}
	return opts.WithAuth(provider), nil
}

func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// =============================================================================
// Implementation
// =============================================================================

type service struct {
	config   Config
	opts     extensions.ServiceOptions
	router   *gin.Engine
	registry *prometheus.Registry
	store    *storage.BadgerStore
	metrics  *observability.SequencerMetrics
	verdicts *services.VerdictService
	limiter  *middleware.IPRateLimiter

	telemetryShutdown func(context.Context) error

	closeOnce sync.Once
	closeErr  error
}

// New builds a Service. opts may be nil, meaning no authentication and no
// audit trail.
//
// # Description
//
// Initialization order: telemetry, storage, metrics, verdict service,
// router. A failure at any step releases what earlier steps acquired.
//
// # Outputs
//
//   - Service: ready to Run.
//   - error: telemetry, storage or metrics setup failed.
func New(cfg Config, opts *extensions.ServiceOptions) (Service, error) {
	s := &service{
		config:   applyConfigDefaults(cfg),
		registry: prometheus.NewRegistry(),
	}
	if opts != nil {
		s.opts = opts.Normalize()
	} else {
		s.opts = extensions.DefaultOptions()
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tel := s.config.Telemetry
	tel.Registerer = s.registry
	shutdown, err := telemetry.Init(context.Background(), tel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	s.telemetryShutdown = shutdown

	s.store, err = storage.OpenBadgerStore(s.config.Storage)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	s.metrics, err = observability.NewSequencerMetrics(s.registry, otel.Meter(ServiceName))
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	s.verdicts = services.NewVerdictService(s.store, s.metrics, s.opts.AuditLogger)
	s.limiter = middleware.NewIPRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)
	s.initRouter()

	slog.Info("Sequencer initialized",
		"port", s.config.Port,
		"in_memory", s.config.Storage.InMemory,
		"path", s.config.Storage.Path,
		"rate_limit_rps", s.config.RateLimitRPS,
		"trace_exporter", tel.TraceExporter,
		"metric_exporter", tel.MetricExporter,
	)
	return s, nil
}

func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		s.router.Use(gin.Logger())
	}
	s.router.Use(otelgin.Middleware(ServiceName))

	routes.SetupRoutes(s.router, s.verdicts, s.metrics, s.limiter, s.opts, s.registry)
}

// Run implements Service.
func (s *service) Run(ctx context.Context) error {
	defer func() {
		if err := s.Close(); err != nil {
			slog.Warn("Sequencer cleanup failed", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Sequencer listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down sequencer")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// Router implements Service.
func (s *service) Router() *gin.Engine {
	return s.router
}

// Reload implements Service.
func (s *service) Reload(cfg config.Config) {
	if s.config.Logger != nil {
		level, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil {
			slog.Warn("Keeping log level", "error", err)
		} else if level != s.config.Logger.Level() {
			s.config.Logger.SetLevel(level)
			slog.Info("Log level changed", "level", level.String())
		}
	}

	rps, burst := s.limiter.Limit()
	wantBurst := max(cfg.RateLimit.Burst, 1)
	if rps != cfg.RateLimit.RequestsPerSecond || burst != wantBurst {
		s.limiter.SetLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		slog.Info("Rate limit changed",
			"requests_per_second", cfg.RateLimit.RequestsPerSecond,
			"burst", wantBurst)
	}
}

// Close implements Service.
func (s *service) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.cleanup()
	})
	return s.closeErr
}

func (s *service) cleanup() error {
	var errs []error
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.opts.AuditLogger != nil {
		if err := s.opts.AuditLogger.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush audit log: %w", err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if s.telemetryShutdown != nil {
		if err := s.telemetryShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	return errors.Join(errs...)
}

var _ Service = (*service)(nil)
