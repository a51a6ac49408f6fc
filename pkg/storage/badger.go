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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig holds configuration for the BadgerDB backend.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files.
	// Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// This is the default for scans: results live for one run.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	// Pointless in memory mode; off by default.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging.
	// If nil, BadgerDB's internal logging is disabled.
	Logger *slog.Logger
}

// Badger is a Storage backend over an embedded BadgerDB instance.
//
// Values round-trip through JSON, which gives callers independent
// copies by construction. PullOut runs get-and-delete inside one
// read-write transaction, so it is atomic per key.
type Badger[V Cloner[V]] struct {
	db *badger.DB
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadger creates a Badger backend with the given configuration.
//
// Description:
//
//	Opens BadgerDB at the configured path, or in memory if InMemory is
//	true. Creates the directory if it doesn't exist.
//
// Inputs:
//
//	cfg - Backend configuration. Path is required unless InMemory is true.
//
// Outputs:
//
//	*Badger[V] - The opened backend. Caller must call Close() when done.
//	error - Non-nil if path is invalid or the database cannot be opened.
func OpenBadger[V Cloner[V]](cfg BadgerConfig) (*Badger[V], error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Badger[V]{db: db}, nil
}

// NewBadgerInMemory is a convenience constructor for the default
// single-run configuration.
func NewBadgerInMemory[V Cloner[V]](logger *slog.Logger) (*Badger[V], error) {
	return OpenBadger[V](BadgerConfig{InMemory: true, Logger: logger})
}

// Close releases the underlying database. The backend must not be used
// afterwards.
func (b *Badger[V]) Close() error {
	return b.db.Close()
}

// update runs fn in a read-write transaction, retrying on transaction
// conflicts. Badger's SSI can abort a read-write transaction that raced
// another writer on the same key; retrying preserves the per-key
// last-writer-wins contract.
func (b *Badger[V]) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		err = b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// Set stores value under key.
func (b *Badger[V]) Set(key string, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %q: %w", key, err)
	}
	err = b.update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Get returns the decoded value under key.
func (b *Badger[V]) Get(key string) (V, bool, error) {
	var zero V
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("get %q: %w", key, err)
	}

	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, false, fmt.Errorf("decode value for %q: %w", key, err)
	}
	return v, true, nil
}

// PullOut removes and returns the value under key in one transaction.
func (b *Badger[V]) PullOut(key string) (V, bool, error) {
	var zero V
	var data []byte
	err := b.update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		if data, err = item.ValueCopy(nil); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("pull out %q: %w", key, err)
	}

	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, false, fmt.Errorf("decode value for %q: %w", key, err)
	}
	return v, true, nil
}

// Remove deletes the value under key.
func (b *Badger[V]) Remove(key string) error {
	err := b.update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}
