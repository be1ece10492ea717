// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	sbadger "github.com/frahik/mutant-dna-sequencer/services/sequencer/storage/badger"
)

// Key layout:
//
//	dna/<blake2b-256 hex>  -> Record JSON
//	id/<uuid v7>           -> dna/<...> key
//	stats/mutant           -> uint64 big-endian
//	stats/human            -> uint64 big-endian
const (
	dnaPrefix = "dna/"
	idPrefix  = "id/"
)

var (
	mutantCounterKey = []byte("stats/mutant")
	humanCounterKey  = []byte("stats/human")
)

// maxCommitAttempts bounds retries of Create on badger.ErrConflict.
// Concurrent inserts of different sequences conflict on the shared
// counter keys; the retry re-reads them.
const maxCommitAttempts = 16

// BadgerStore is a Store backed by BadgerDB.
type BadgerStore struct {
	db  *sbadger.DB
	now func() time.Time

	// mu is held for reading by every operation and for writing by Close,
	// so the database is never closed under an in-flight transaction.
	mu     sync.RWMutex
	closed bool
}

// NewBadgerStore wraps an open database. The store takes ownership of db
// and closes it on Close.
func NewBadgerStore(db *sbadger.DB) *BadgerStore {
	return &BadgerStore{db: db, now: time.Now}
}

// OpenBadgerStore opens the database described by cfg and wraps it.
func OpenBadgerStore(cfg sbadger.Config) (*BadgerStore, error) {
	db, err := sbadger.OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	return NewBadgerStore(db), nil
}

// Key returns the hex BLAKE2b-256 digest used to address dna.
func Key(dna string) string {
	sum := blake2b.Sum256([]byte(dna))
	return hex.EncodeToString(sum[:])
}

func recordKey(dna string) []byte {
	return []byte(dnaPrefix + Key(dna))
}

func idKey(id string) []byte {
	return []byte(idPrefix + id)
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, dna string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Record{}, ErrClosed
	}
	var rec Record
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		var err error
		rec, err = readRecord(txn, recordKey(dna))
		return err
	})
	return rec, err
}

// GetByID implements Store.
func (s *BadgerStore) GetByID(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Record{}, ErrClosed
	}
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}
	var rec Record
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		ref, err := readValue(txn, idKey(id))
		if err != nil {
			return err
		}
		rec, err = readRecord(txn, ref)
		return err
	})
	return rec, err
}

// Create implements Store.
//
// # Description
//
// Writes the record, its id index entry and the verdict counter in one
// transaction. A commit conflict is retried from scratch; a retry that
// finds the sequence already present reports ErrDuplicate.
func (s *BadgerStore) Create(ctx context.Context, rec Record) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Record{}, ErrClosed
	}
	if rec.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return Record{}, fmt.Errorf("generate record id: %w", err)
		}
		rec.ID = id.String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("encode record: %w", err)
	}
	key := recordKey(rec.DNA)
	counter := humanCounterKey
	if rec.IsMutant {
		counter = mutantCounterKey
	}

	for attempt := 1; ; attempt++ {
		err = s.db.WithTxn(ctx, func(txn *badger.Txn) error {
			if _, err := txn.Get(key); err == nil {
				return ErrDuplicate
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check existing record: %w", err)
			}
			if err := txn.Set(key, value); err != nil {
				return err
			}
			if err := txn.Set(idKey(rec.ID), key); err != nil {
				return err
			}
			return increment(txn, counter)
		})
		if !errors.Is(err, badger.ErrConflict) || attempt == maxCommitAttempts {
			break
		}
		slog.Debug("verdict insert conflict, retrying", "attempt", attempt, "key", Key(rec.DNA)[:12])
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Stats implements Store.
func (s *BadgerStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Stats{}, ErrClosed
	}
	var st Stats
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		var err error
		if st.Mutant, err = readCounter(txn, mutantCounterKey); err != nil {
			return err
		}
		st.Human, err = readCounter(txn, humanCounterKey)
		return err
	})
	return st, err
}

// List implements Store. IDs are UUIDv7, so key order is creation order.
func (s *BadgerStore) List(ctx context.Context, limit int, cursor string) (Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Page{}, ErrClosed
	}
	if limit <= 0 {
		return Page{}, fmt.Errorf("storage: list limit must be positive, got %d", limit)
	}

	page := Page{Records: make([]Record, 0, limit)}
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(idPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		start := []byte(idPrefix)
		if cursor != "" {
			start = idKey(cursor)
		}
		for it.Seek(start); it.Valid(); it.Next() {
			item := it.Item()
			if cursor != "" && bytes.Equal(item.Key(), start) {
				continue
			}
			if len(page.Records) == limit {
				page.NextCursor = page.Records[limit-1].ID
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			ref, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			rec, err := readRecord(txn, ref)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", item.Key(), err)
			}
			page.Records = append(page.Records, rec)
		}
		return nil
	})
	if err != nil {
		return Page{}, err
	}
	return page, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func readValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func readRecord(txn *badger.Txn, key []byte) (Record, error) {
	raw, err := readValue(txn, key)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

func readCounter(txn *badger.Txn, key []byte) (uint64, error) {
	raw, err := readValue(txn, key)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("corrupt counter %s: %d bytes", key, len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

func increment(txn *badger.Txn, key []byte) error {
	n, err := readCounter(txn, key)
	if err != nil {
		return err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n+1)
	return txn.Set(key, buf[:])
}

var _ Store = (*BadgerStore)(nil)
