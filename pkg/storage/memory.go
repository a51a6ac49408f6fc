// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// shardCount is a power of two so shard selection is a cheap mask.
// 32 shards keep unrelated keys from contending even with one worker
// per core on large machines.
const shardCount = 32

// Memory is the default in-process backend: a map sharded by key hash.
//
// Sharding bounds lock contention to keys that hash to the same shard;
// each lock is held only for map bookkeeping, never across anything
// that blocks.
type Memory[V Cloner[V]] struct {
	shards [shardCount]memShard[V]
}

type memShard[V Cloner[V]] struct {
	mu    sync.Mutex
	items map[string]V
}

// NewMemory creates an empty in-memory backend.
func NewMemory[V Cloner[V]]() *Memory[V] {
	m := &Memory[V]{}
	for i := range m.shards {
		m.shards[i].items = make(map[string]V)
	}
	return m
}

func (m *Memory[V]) shard(key string) *memShard[V] {
	return &m.shards[xxhash.Sum64String(key)&(shardCount-1)]
}

// Set stores an independent copy of value under key.
func (m *Memory[V]) Set(key string, value V) error {
	s := m.shard(key)
	v := value.Clone()
	s.mu.Lock()
	s.items[key] = v
	s.mu.Unlock()
	return nil
}

// Get returns an independent copy of the value under key.
func (m *Memory[V]) Get(key string) (V, bool, error) {
	s := m.shard(key)
	s.mu.Lock()
	v, ok := s.items[key]
	s.mu.Unlock()
	if !ok {
		var zero V
		return zero, false, nil
	}
	return v.Clone(), true, nil
}

// PullOut atomically removes and returns the value under key. The
// stored value was already a private copy, so it is handed over as-is.
func (m *Memory[V]) PullOut(key string) (V, bool, error) {
	s := m.shard(key)
	s.mu.Lock()
	v, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	s.mu.Unlock()
	return v, ok, nil
}

// Remove deletes the value under key.
func (m *Memory[V]) Remove(key string) error {
	s := m.shard(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Len returns the total number of stored values. Intended for tests
// and diagnostics; it locks shards one at a time, so the result is a
// snapshot only when no writers are active.
func (m *Memory[V]) Len() int {
	n := 0
	for i := range m.shards {
		m.shards[i].mu.Lock()
		n += len(m.shards[i].items)
		m.shards[i].mu.Unlock()
	}
	return n
}

// Keys returns all stored keys. Same snapshot caveat as Len.
func (m *Memory[V]) Keys() []string {
	keys := make([]string, 0)
	for i := range m.shards {
		m.shards[i].mu.Lock()
		for k := range m.shards[i].items {
			keys = append(keys, k)
		}
		m.shards[i].mu.Unlock()
	}
	return keys
}
