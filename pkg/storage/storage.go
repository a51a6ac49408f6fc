// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storage provides the generic key-value backend that holds one
// entry snapshot per path key.
//
// # Description
//
// The Storage contract is the single indirection layer of the flattened
// tree: parent/child relationships are expressed as key lookups instead
// of pointers. Two backends are provided: a sharded in-memory map
// (default) and BadgerDB (in-memory mode by default, on-disk possible
// through the same seam).
//
// # Thread Safety
//
// All implementations must be safe under unsynchronized concurrent
// calls. Operations on the same key are linearizable; operations on
// unrelated keys never serialize against each other beyond brief map
// bookkeeping. No implementation may hold a lock across a blocking
// filesystem call — callers take exclusive ownership of a value with
// PullOut, do their slow work on the detached copy, and Set it back.
package storage

// Cloner is implemented by values that can produce independent copies
// of themselves. Backends rely on it for value semantics on reads.
type Cloner[V any] interface {
	Clone() V
}

// Storage maps string keys to value snapshots.
//
// Reads return independent copies, never aliases. Set is an upsert with
// last-writer-wins semantics. PullOut atomically removes and returns
// the value in one step; Remove has the same post-condition but
// discards the value.
type Storage[V Cloner[V]] interface {
	// Set stores value under key, replacing any previous value.
	Set(key string, value V) error

	// Get returns an independent copy of the value under key.
	// The boolean is false if the key is absent.
	Get(key string) (V, bool, error)

	// PullOut atomically removes and returns the value under key,
	// transferring exclusive ownership to the caller.
	PullOut(key string) (V, bool, error)

	// Remove deletes the value under key, if any.
	Remove(key string) error
}
