// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frahik/mutant-dna-sequencer/pkg/logging"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer"
	"github.com/frahik/mutant-dna-sequencer/services/sequencer/config"
)

func newServeCmd() *cobra.Command {
	var configPath string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sequencer HTTP API",
		Long: `Run the sequencer HTTP API using a YAML configuration file.

The file is created with defaults on first run (~/.sequencer/sequencer.yaml
unless --config is given). SEQUENCER_* environment variables override it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath, watch)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to sequencer.yaml")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload log level and rate limit when the config file changes")
	return cmd
}

func runServe(ctx context.Context, configPath string, watch bool) error {
	if configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		configPath = p
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: sequencer.ServiceName,
		JSON:    cfg.Logging.JSON,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	opts, err := sequencer.OptionsFromFile(cfg, logger.Slog())
	if err != nil {
		return err
	}
	svc, err := sequencer.New(sequencer.ConfigFromFile(cfg, logger), &opts)
	if err != nil {
		return fmt.Errorf("failed to create sequencer: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watch {
		w, err := config.NewWatcher(configPath, svc.Reload)
		if err != nil {
			slog.Warn("Config watching disabled", "path", configPath, "error", err)
		} else {
			defer w.Stop()
			go w.Start(ctx)
		}
	}

	return svc.Run(ctx)
}
