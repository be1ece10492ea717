// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badger opens and manages the BadgerDB instance behind the
// sequencer's verdict store.
//
// The package owns the database lifecycle only: options, slog bridging,
// value log garbage collection and transaction helpers. The key layout of
// stored verdicts lives in the parent storage package.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrPathRequired is returned by Open when a persistent database has no path.
var ErrPathRequired = errors.New("badger: path is required for persistent database")

// Config holds configuration for a BadgerDB instance.
type Config struct {
	// Path is the directory for database files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Verdicts are lost on Close.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives BadgerDB's internal log lines. Nil silences them.
	Logger *slog.Logger

	// GCInterval is how often value log GC runs. 0 disables it.
	GCInterval time.Duration

	// GCDiscardRatio is the garbage ratio a value log file must reach
	// before it is rewritten.
	GCDiscardRatio float64
}

// DefaultConfig returns production settings: synchronous writes and value
// log GC every 5 minutes at a 0.5 discard ratio.
func DefaultConfig() Config {
	return Config{
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns settings for tests and throwaway servers.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

// Open opens a raw *badger.DB with cfg.
//
// # Description
//
// Creates the directory for persistent databases. The returned handle has
// no GC runner; use OpenDB for the managed lifecycle.
//
// # Outputs
//
//   - *badger.DB: caller must Close it.
//   - error: ErrPathRequired, a directory error, or a badger open error.
func Open(cfg Config) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, ErrPathRequired
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	// Verdicts are never overwritten, one version per key is enough.
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

// =============================================================================
// Garbage collection
// =============================================================================

// GCRunner periodically rewrites value log files that crossed the discard
// ratio.
//
// # Thread Safety
//
// Start and Stop may be called from any goroutine; both are idempotent.
type GCRunner struct {
	db       *badger.DB
	interval time.Duration
	ratio    float64
	logger   *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewGCRunner validates its inputs and returns a stopped runner.
func NewGCRunner(db *badger.DB, interval time.Duration, ratio float64, logger *slog.Logger) (*GCRunner, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	if interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, errors.New("ratio must be in (0, 1)")
	}
	return &GCRunner{
		db:       db,
		interval: interval,
		ratio:    ratio,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start launches the GC loop.
func (r *GCRunner) Start() {
	r.startOnce.Do(func() { go r.run() })
}

// Stop ends the GC loop and waits for an in-progress pass to finish.
func (r *GCRunner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		// A runner that never started has nothing to wait for.
		r.startOnce.Do(func() { close(r.doneCh) })
		<-r.doneCh
	})
}

func (r *GCRunner) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.runGC()
		}
	}
}

func (r *GCRunner) runGC() {
	// Keep rewriting while badger finds files worth rewriting.
	for {
		err := r.db.RunValueLogGC(r.ratio)
		if err == nil {
			if r.logger != nil {
				r.logger.Debug("badger value log GC rewrote a file")
			}
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) && r.logger != nil {
			r.logger.Warn("badger value log GC error", slog.String("error", err.Error()))
		}
		return
	}
}

// =============================================================================
// Managed database
// =============================================================================

// DB wraps a BadgerDB instance with GC and close handling.
type DB struct {
	*badger.DB
	gcRunner  *GCRunner
	path      string
	inMemory  bool
	closeOnce sync.Once
	closeErr  error
}

// OpenDB opens the database and starts the GC runner when cfg asks for
// one. In-memory databases never run GC.
func OpenDB(cfg Config) (*DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	wrapped := &DB{DB: db, path: cfg.Path, inMemory: cfg.InMemory}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		runner, err := NewGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("create GC runner: %w", err)
		}
		wrapped.gcRunner = runner
		runner.Start()
	}
	return wrapped, nil
}

// OpenInMemory opens a managed in-memory database.
func OpenInMemory() (*DB, error) {
	return OpenDB(InMemoryConfig())
}

// Close stops GC and closes the database. Later calls return the first
// call's result.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		if d.gcRunner != nil {
			d.gcRunner.Stop()
		}
		d.closeErr = d.DB.Close()
	})
	return d.closeErr
}

// Path returns the database directory, or "" for in-memory databases.
func (d *DB) Path() string {
	return d.path
}

// InMemory reports whether the database lives in RAM only.
func (d *DB) InMemory() bool {
	return d.inMemory
}

// WithTxn runs fn in a read-write transaction and commits when fn returns
// nil. Commit errors such as badger.ErrConflict are returned unwrapped so
// callers can match them with errors.Is.
func (d *DB) WithTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	txn := d.DB.NewTransaction(true)
	defer txn.Discard()

	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}

// WithReadTxn runs fn in a read-only transaction.
func (d *DB) WithReadTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	txn := d.DB.NewTransaction(false)
	defer txn.Discard()

	return fn(txn)
}
