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
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration file when it changes on disk.
//
// # Description
//
// The parent directory is watched rather than the file itself so that
// editors which replace the file by rename are still seen. Every write or
// create of the file triggers Load; a file that fails to load is logged
// and ignored, leaving the previous configuration in effect.
//
// Only settings that can change at runtime are meaningful to onChange
// (log level, rate limit). The rest take effect on restart.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(Config)
}

// NewWatcher prepares a watcher for path. Start begins delivery.
func NewWatcher(path string, onChange func(Config)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, watcher: watcher, onChange: onChange}, nil
}

// Start delivers reloads until ctx is done or Stop is called. It blocks.
func (w *Watcher) Start(ctx context.Context) {
	slog.Debug("Started watching config", "path", w.path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Config watcher error", "error", err)

		case <-ctx.Done():
			slog.Debug("Config watcher stopping")
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("Ignoring config change", "path", w.path, "error", err)
		return
	}
	slog.Info("Config reloaded", "path", w.path)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Stop releases the underlying watcher. Start returns afterwards.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
