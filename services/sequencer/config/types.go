// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the sequencer's YAML configuration file.
package config

import (
	"time"
)

// Config is the content of sequencer.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Port int `yaml:"port" validate:"min=1,max=65535"`

	// GinMode is "debug", "release" or "test".
	GinMode string `yaml:"gin_mode" validate:"omitempty,oneof=debug release test"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

type StorageConfig struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path       string        `yaml:"path" validate:"required_unless=InMemory true"`
	InMemory   bool          `yaml:"in_memory"`
	SyncWrites bool          `yaml:"sync_writes"`
	GCInterval time.Duration `yaml:"gc_interval" validate:"gte=0"` // 0 disables value log GC
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Dir   string `yaml:"dir,omitempty"`
	JSON  bool   `yaml:"json"`
}

type AuthConfig struct {
	// APIToken guards /v1. Empty means /v1 is open.
	APIToken string `yaml:"api_token,omitempty"`
}

type RateLimitConfig struct {
	// RequestsPerSecond per client IP on POST /mutant. 0 disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=0"`
}

type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" validate:"oneof=otlp stdout none"`
	MetricExporter string `yaml:"metric_exporter" validate:"oneof=prometheus stdout none"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" validate:"required_if=TraceExporter otlp"`
}

// DefaultConfig is written to disk on first run.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			GinMode:         "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Path:       "~/.sequencer/data",
			SyncWrites: true,
			GCInterval: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
		},
	}
}
