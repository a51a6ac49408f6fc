// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package inventory binds a displayed entry to its store and exposes
// navigation and aggregate queries to external callers (CLI, TUI).
//
// # Description
//
// An Inventory is created for a root path, populated once with Load,
// and then re-pointed at any discovered entry through its path key.
// With a store attached, the aggregate queries walk the whole flattened
// subtree; without one they degrade to the directly-known information
// gathered while listing the root — an explicit capability boundary,
// not a failure.
//
// # Thread Safety
//
// An Inventory is a single-caller facade: Load and navigation are not
// safe for concurrent use. The concurrency lives below it, in the
// crawler and the store.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AleutianAI/trawl/pkg/aggregate"
	"github.com/AleutianAI/trawl/pkg/crawl"
	"github.com/AleutianAI/trawl/pkg/fsentry"
	"github.com/AleutianAI/trawl/pkg/logging"
	"github.com/AleutianAI/trawl/pkg/storage"
)

var (
	// ErrAlreadyLoaded is returned by Load on a populated inventory.
	// Reloading without a fresh Inventory is a programming error.
	ErrAlreadyLoaded = errors.New("inventory already loaded")

	// ErrNoStore is returned by operations that need deep lookups when
	// no store is attached.
	ErrNoStore = errors.New("no store attached")

	// ErrNotFound is returned when a path key is absent from the store.
	ErrNotFound = errors.New("entry not found in store")
)

// Options configures crawling and logging for an Inventory.
type Options struct {
	// Workers sets the crawl and parallel-query pool size.
	// Non-positive defaults to the available hardware parallelism.
	Workers int

	// Exclude holds glob patterns pruned during the crawl.
	Exclude []string

	// Logger for crawl progress. Nil defaults to the package default.
	Logger *logging.Logger
}

// Inventory is the facade over one scanned filesystem subtree.
type Inventory struct {
	current fsentry.Entry
	store   storage.Storage[fsentry.Entry]
	opts    Options
	loaded  bool

	// directBytes is the sum of direct child file sizes, gathered
	// while listing the root. It is all CalculateSize can report when
	// no store is attached.
	directBytes int64
}

// New creates an Inventory without a store. Load will populate direct
// children only; deep queries are unavailable.
func New(rootPath string, opts Options) (*Inventory, error) {
	return NewWithBackend(rootPath, nil, opts)
}

// NewWithStore creates an Inventory backed by the default in-memory
// store.
func NewWithStore(rootPath string, opts Options) (*Inventory, error) {
	return NewWithBackend(rootPath, storage.NewMemory[fsentry.Entry](), opts)
}

// NewWithBackend creates an Inventory over a caller-supplied storage
// backend (the pluggable seam: memory, BadgerDB, or anything that
// satisfies the contract). A nil store means no store.
//
// Fails if the root path cannot be stat'ed or named.
func NewWithBackend(rootPath string, store storage.Storage[fsentry.Entry], opts Options) (*Inventory, error) {
	root, err := fsentry.Capture(rootPath, "")
	if err != nil {
		return nil, err
	}
	return &Inventory{current: root, store: store, opts: opts}, nil
}

// Load discovers the subtree under the inventory's root.
//
// Description:
//
//	With a store attached, Load runs the concurrent crawler and
//	populates the store with every discovered entry. Without one, it
//	lists the root's direct children only. Either way the returned
//	slice holds every non-fatal error encountered; the crawl itself
//	never aborts on them.
//
// Outputs:
//   - []error: All non-fatal errors, for the caller to log or ignore.
//   - error: ErrAlreadyLoaded on a second call, or the context error
//     if the crawl was cancelled.
func (inv *Inventory) Load(ctx context.Context) ([]error, error) {
	if inv.loaded {
		return nil, ErrAlreadyLoaded
	}
	inv.loaded = true

	if inv.store == nil {
		return inv.loadDirect()
	}

	res, err := crawl.Crawl(ctx, inv.current, inv.store, crawl.Options{
		Workers: inv.opts.Workers,
		Exclude: inv.opts.Exclude,
		Logger:  inv.opts.Logger,
	})
	if err != nil {
		return res.Errors, err
	}
	inv.current = res.Root
	return res.Errors, nil
}

// loadDirect lists the root's immediate children without a store.
func (inv *Inventory) loadDirect() ([]error, error) {
	if !inv.current.IsDir() {
		return nil, nil
	}

	listing, err := os.ReadDir(inv.current.Path)
	if err != nil {
		return []error{fmt.Errorf("list %q: %w", inv.current.Path, err)}, nil
	}

	var errs []error
	for _, de := range listing {
		childPath := filepath.Join(inv.current.Path, de.Name())
		child, err := fsentry.Capture(childPath, inv.current.Path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		inv.current.Children = append(inv.current.Children, child.Path)
		if !child.IsDir() {
			inv.directBytes += child.Size
		}
	}
	return errs, nil
}

// CountEntries returns the number of file entries in the displayed
// subtree. Without a store it degrades to the immediate children
// count.
func (inv *Inventory) CountEntries() (int64, error) {
	if !inv.current.IsDir() {
		return 1, nil
	}
	if inv.store == nil {
		return int64(len(inv.current.Children)), nil
	}
	return aggregate.CountEntries(inv.store, inv.current.Path)
}

// CalculateSize returns the total size in bytes of the displayed
// subtree. Without a store it degrades to the directly-known child
// file sizes.
func (inv *Inventory) CalculateSize() (int64, error) {
	if !inv.current.IsDir() {
		return inv.current.Size, nil
	}
	if inv.store == nil {
		return inv.directBytes, nil
	}
	return aggregate.CalculateSize(inv.store, inv.current.Path)
}

// CountEntriesParallel is CountEntries using the scheduler-backed
// traversal. Requires a store.
func (inv *Inventory) CountEntriesParallel(ctx context.Context) (int64, error) {
	if !inv.current.IsDir() {
		return 1, nil
	}
	if inv.store == nil {
		return 0, ErrNoStore
	}
	return aggregate.CountEntriesParallel(ctx, inv.store, inv.current.Path, inv.opts.Workers)
}

// CalculateSizeParallel is CalculateSize using the scheduler-backed
// traversal. Requires a store.
func (inv *Inventory) CalculateSizeParallel(ctx context.Context) (int64, error) {
	if !inv.current.IsDir() {
		return inv.current.Size, nil
	}
	if inv.store == nil {
		return 0, ErrNoStore
	}
	return aggregate.CalculateSizeParallel(ctx, inv.store, inv.current.Path, inv.opts.Workers)
}

// Name returns the displayed entry's name.
func (inv *Inventory) Name() string {
	return inv.current.Name
}

// Path returns the displayed entry's path key.
func (inv *Inventory) Path() string {
	return inv.current.Path
}

// Entry returns an independent copy of the displayed entry.
func (inv *Inventory) Entry() fsentry.Entry {
	return inv.current.Clone()
}

// Parent returns the displayed entry's parent path key, if it has one.
func (inv *Inventory) Parent() (string, bool) {
	return inv.current.Parent, inv.current.HasParent()
}

// Children returns the displayed entry's child path keys in discovery
// order.
func (inv *Inventory) Children() []string {
	out := make([]string, len(inv.current.Children))
	copy(out, inv.current.Children)
	return out
}

// ChildrenLen returns the number of direct children.
func (inv *Inventory) ChildrenLen() int {
	return len(inv.current.Children)
}

// ChildEntry resolves one path key through the store.
func (inv *Inventory) ChildEntry(key string) (fsentry.Entry, bool, error) {
	if inv.store == nil {
		return fsentry.Entry{}, false, ErrNoStore
	}
	return inv.store.Get(key)
}

// ReplaceFromStorage re-points the inventory at a different entry
// pulled from the store by its path key. Used for "navigate up" and
// "navigate into selection".
func (inv *Inventory) ReplaceFromStorage(key string) error {
	if inv.store == nil {
		return ErrNoStore
	}
	e, ok, err := inv.store.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	inv.current = e
	return nil
}
