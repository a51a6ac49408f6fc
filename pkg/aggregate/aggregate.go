// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package aggregate answers count and size queries over a flattened
// entry store.
//
// # Description
//
// Both queries walk the store by path key instead of recursing over
// in-memory pointers, since none exist. The sequential variants use an
// explicit stack; the parallel variants fan the same walk across the
// work-stealing scheduler and accumulate into atomics. Both queries
// are commutative reductions, so the results are independent of crawl
// and traversal order.
//
// Counting covers file entries only: a directory is never counted and
// contributes no size of its own — its weight is the sum of its
// descendant files.
package aggregate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/AleutianAI/trawl/pkg/fsentry"
	"github.com/AleutianAI/trawl/pkg/sched"
	"github.com/AleutianAI/trawl/pkg/storage"
)

// CountEntries returns the number of file entries in the subtree rooted
// at rootKey. A file root counts as 1; directories are never counted.
func CountEntries(store storage.Storage[fsentry.Entry], rootKey string) (int64, error) {
	var count int64
	err := walk(store, rootKey, func(e fsentry.Entry) {
		if !e.IsDir() {
			count++
		}
	})
	return count, err
}

// CalculateSize returns the total size in bytes of all file entries in
// the subtree rooted at rootKey.
func CalculateSize(store storage.Storage[fsentry.Entry], rootKey string) (int64, error) {
	var size int64
	err := walk(store, rootKey, func(e fsentry.Entry) {
		if !e.IsDir() {
			size += e.Size
		}
	})
	return size, err
}

// CountEntriesParallel is CountEntries fanned across a scheduler pool.
func CountEntriesParallel(ctx context.Context, store storage.Storage[fsentry.Entry], rootKey string, workers int) (int64, error) {
	var count atomic.Int64
	err := walkParallel(ctx, store, rootKey, workers, func(e fsentry.Entry) {
		if !e.IsDir() {
			count.Add(1)
		}
	})
	return count.Load(), err
}

// CalculateSizeParallel is CalculateSize fanned across a scheduler pool.
func CalculateSizeParallel(ctx context.Context, store storage.Storage[fsentry.Entry], rootKey string, workers int) (int64, error) {
	var size atomic.Int64
	err := walkParallel(ctx, store, rootKey, workers, func(e fsentry.Entry) {
		if !e.IsDir() {
			size.Add(e.Size)
		}
	})
	return size.Load(), err
}

// walk visits every entry reachable from rootKey depth-first with an
// explicit key stack. Keys missing from the store are skipped: a
// partially crawled subtree still aggregates whatever was discovered.
func walk(store storage.Storage[fsentry.Entry], rootKey string, visit func(fsentry.Entry)) error {
	stack := []string{rootKey}
	for len(stack) > 0 {
		key := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e, ok, err := store.Get(key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		visit(e)
		if e.IsDir() {
			stack = append(stack, e.Children...)
		}
	}
	return nil
}

// walkParallel runs the same walk with entries as scheduler tasks.
// visit must be safe for concurrent use; backend errors are gathered
// and joined since a handler cannot fail the scheduler directly.
func walkParallel(ctx context.Context, store storage.Storage[fsentry.Entry], rootKey string, workers int, visit func(fsentry.Entry)) error {
	var mu sync.Mutex
	var errs []error

	s := sched.New[string](workers)
	s.Push(rootKey)

	runErr := s.Run(ctx, func(_ context.Context, w *sched.Worker[string], key string) {
		e, ok, err := store.Get(key)
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return
		}
		if !ok {
			return
		}

		visit(e)
		if e.IsDir() {
			for _, child := range e.Children {
				w.Spawn(child)
			}
		}
	})
	if runErr != nil {
		errs = append(errs, runErr)
	}
	return errors.Join(errs...)
}
