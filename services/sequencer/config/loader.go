// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SEQUENCER_"

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultPath returns ~/.sequencer/sequencer.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".sequencer", "sequencer.yaml"), nil
}

// Load reads the configuration at path.
//
// # Description
//
// An empty path means DefaultPath. When the file does not exist it is
// created with DefaultConfig. Fields missing from the file keep their
// defaults. SEQUENCER_* environment variables override the file, then the
// result is validated.
//
// # Outputs
//
//   - Config: the effective configuration.
//   - error: unreadable or invalid YAML, a bad environment value, or a
//     failed validation.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Info("First run detected, creating the config", "path", path)
		if err := createDefault(path); err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read the config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnv overlays SEQUENCER_* variables. lookup is os.LookupEnv outside
// tests.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	integer("PORT", &cfg.Server.Port)
	str("GIN_MODE", &cfg.Server.GinMode)
	str("STORAGE_PATH", &cfg.Storage.Path)
	boolean("STORAGE_IN_MEMORY", &cfg.Storage.InMemory)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_DIR", &cfg.Logging.Dir)
	boolean("LOG_JSON", &cfg.Logging.JSON)
	str("API_TOKEN", &cfg.Auth.APIToken)
	float("RATE_LIMIT_RPS", &cfg.RateLimit.RequestsPerSecond)
	integer("RATE_LIMIT_BURST", &cfg.RateLimit.Burst)
	str("TRACE_EXPORTER", &cfg.Telemetry.TraceExporter)
	str("METRIC_EXPORTER", &cfg.Telemetry.MetricExporter)
	str("OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)

	return errors.Join(errs...)
}
