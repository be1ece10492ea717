// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sequencer

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frahik/mutant-dna-sequencer/pkg/extensions"
	"github.com/frahik/mutant-dna-sequencer/pkg/logging"
	"github.com/frahik/mutant-dna-sequencer/pkg/telemetry"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/config"
	sbadger "github.com/frahik/mutant-dna-sequencer/services/sequencer/storage/badger"
)

func testConfig() Config {
	return Config{
		GinMode: gin.TestMode,
		Storage: sbadger.InMemoryConfig(),
		Telemetry: telemetry.Config{
			ServiceName:    ServiceName,
			TraceExporter:  telemetry.ExporterNone,
			MetricExporter: telemetry.ExporterPrometheus,
		},
	}
}

func newTestService(t *testing.T, cfg Config, opts *extensions.ServiceOptions) Service {
	t.Helper()
	svc, err := New(cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestApplyConfigDefaults(t *testing.T) {
	cfg := applyConfigDefaults(Config{})

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, ServiceName, cfg.Telemetry.ServiceName)
	assert.False(t, strings.HasPrefix(cfg.Storage.Path, "~"), cfg.Storage.Path)

	mem := applyConfigDefaults(Config{Storage: sbadger.InMemoryConfig()})
	assert.Empty(t, mem.Storage.Path)
}

func TestConfigFromFile(t *testing.T) {
	fc := config.DefaultConfig()
	fc.Server.Port = 9999
	fc.Storage.InMemory = true
	fc.RateLimit.RequestsPerSecond = 3
	fc.Telemetry.TraceExporter = "stdout"

	cfg := ConfigFromFile(fc, nil)

	assert.Equal(t, 9999, cfg.Port)
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, 3.0, cfg.RateLimitRPS)
	assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
	assert.Equal(t, 0.5, cfg.Storage.GCDiscardRatio)
}

func TestOptionsFromFile(t *testing.T) {
	fc := config.DefaultConfig()

	opts, err := OptionsFromFile(fc, nil)
	require.NoError(t, err)
	assert.IsType(t, &extensions.NopAuthProvider{}, opts.AuthProvider)

	fc.Auth.APIToken = "s3cret"
	opts, err = OptionsFromFile(fc, logging.Default().Slog())
	require.NoError(t, err)
	require.IsType(t, &extensions.TokenAuthProvider{}, opts.AuthProvider)
	assert.IsType(t, &extensions.SlogAuditLogger{}, opts.AuditLogger)

	_, err = opts.AuthProvider.Validate(context.Background(), "s3cret")
	assert.NoError(t, err)
}

func TestNew_EndToEnd(t *testing.T) {
	svc := newTestService(t, testConfig(), nil)
	router := svc.Router()

	body := `{"dna":["ATGCGA","CAGTGC","TTATGT","AGAAGG","CCCCTA","TCACTG"]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mutant", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.JSONEq(t, `{"count_mutant_dna":1,"count_human_dna":0,"ratio":0}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sequencer_verdicts_total")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNew_UnknownExporter(t *testing.T) {
	cfg := testConfig()
	cfg.Telemetry.TraceExporter = "zipkin"

	_, err := New(cfg, nil)

	assert.ErrorIs(t, err, telemetry.ErrUnknownExporter)
}

func TestNew_StorageFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))
	cfg := testConfig()
	cfg.Storage = sbadger.Config{Path: file}

	_, err := New(cfg, nil)

	assert.Error(t, err)
}

func TestReload(t *testing.T) {
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Output: &bytes.Buffer{}})
	cfg := testConfig()
	cfg.Logger = logger
	svc := newTestService(t, cfg, nil)

	fc := config.DefaultConfig()
	fc.Logging.Level = "debug"
	fc.RateLimit.RequestsPerSecond = 7
	fc.RateLimit.Burst = 3
	svc.Reload(fc)

	assert.Equal(t, logging.LevelDebug, logger.Level())
	rps, burst := svc.(*service).limiter.Limit()
	assert.Equal(t, 7.0, rps)
	assert.Equal(t, 3, burst)
}

func TestRun_GracefulStop(t *testing.T) {
	cfg := testConfig()
	cfg.Port = freePort(t)
	cfg.ShutdownTimeout = 2 * time.Second
	svc := newTestService(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.NoError(t, svc.Close(), "second close is a no-op")
}
