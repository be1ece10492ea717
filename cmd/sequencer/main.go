// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command sequencer runs the mutant DNA HTTP API configured entirely from
// the environment, for container deployments.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/awnumar/memguard"

	"github.com/frahik/mutant-dna-sequencer/pkg/extensions"
	"github.com/frahik/mutant-dna-sequencer/pkg/logging"
	"github.com/frahik/mutant-dna-sequencer/pkg/telemetry"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer"
	sbadger "github.com/frahik/mutant-dna-sequencer/services/sequencer/storage/badger"
)

func main() {
	code := run()
	memguard.Purge()
	os.Exit(code)
}

func run() int {
	level, err := logging.ParseLevel(getEnvString("SEQUENCER_LOG_LEVEL", "info"))
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  os.Getenv("SEQUENCER_LOG_DIR"),
		Service: sequencer.ServiceName,
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())
	if err != nil {
		slog.Warn("Unknown log level, using info", "error", err)
	}

	storageCfg := sbadger.DefaultConfig()
	storageCfg.Path = getEnvString("SEQUENCER_STORAGE_PATH", "/data/sequencer")
	storageCfg.InMemory = getEnvBool("SEQUENCER_STORAGE_IN_MEMORY", false)
	storageCfg.Logger = logger.Slog()

	cfg := sequencer.Config{
		Port:           getEnvInt("SEQUENCER_PORT", 8080),
		GinMode:        getEnvString("GIN_MODE", "release"),
		Storage:        storageCfg,
		RateLimitRPS:   getEnvFloat("SEQUENCER_RATE_LIMIT_RPS", 50),
		RateLimitBurst: getEnvInt("SEQUENCER_RATE_LIMIT_BURST", 100),
		Telemetry:      telemetry.DefaultConfig(),
		Logger:         logger,
	}

	opts := extensions.DefaultOptions().WithAudit(extensions.NewSlogAuditLogger(logger.Slog()))
	token := os.Getenv("SEQUENCER_API_TOKEN")
	if token != "" {
		provider, err := extensions.NewTokenAuthProvider([]byte(token), "")
		if err != nil {
			slog.Error("Failed to initialize token auth", "error", err)
			return 1
		}
		opts = opts.WithAuth(provider)
	}

	slog.Info("Starting sequencer",
		"port", cfg.Port,
		"storage_path", storageCfg.Path,
		"in_memory", storageCfg.InMemory,
		"auth", token != "",
	)

	svc, err := sequencer.New(cfg, &opts)
	if err != nil {
		slog.Error("Failed to create sequencer", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := svc.Run(ctx); err != nil {
		slog.Error("Sequencer error", "error", err, "uptime", time.Since(start).String())
		return 1
	}
	slog.Info("Sequencer stopped", "uptime", time.Since(start).String())
	return 0
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
