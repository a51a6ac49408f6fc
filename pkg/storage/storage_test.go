// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/trawl/pkg/fsentry"
)

// backends returns one constructor per Storage implementation so every
// contract test runs against both.
func backends(t *testing.T) map[string]func(t *testing.T) Storage[fsentry.Entry] {
	t.Helper()
	return map[string]func(t *testing.T) Storage[fsentry.Entry]{
		"memory": func(t *testing.T) Storage[fsentry.Entry] {
			return NewMemory[fsentry.Entry]()
		},
		"badger": func(t *testing.T) Storage[fsentry.Entry] {
			b, err := NewBadgerInMemory[fsentry.Entry](nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.Close() })
			return b
		},
	}
}

func sampleEntry(path string) fsentry.Entry {
	return fsentry.Entry{
		Kind:     fsentry.KindDirectory,
		Name:     "sample",
		Path:     path,
		Parent:   "/",
		Children: []string{path + "/a", path + "/b"},
	}
}

// TestRoundTrip verifies Set followed by Get returns an equal value.
func TestRoundTrip(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			want := sampleEntry("/data")
			require.NoError(t, s.Set("/data", want))

			got, ok, err := s.Get("/data")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want.Path, got.Path)
			assert.Equal(t, want.Kind, got.Kind)
			assert.Equal(t, want.Children, got.Children)
		})
	}
}

// TestGetMissing verifies absent keys report false, not an error.
func TestGetMissing(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			_, ok, err := s.Get("/absent")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

// TestPullOut verifies the take-exclusive-ownership step: the value is
// returned once and the key is gone afterwards.
func TestPullOut(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			want := sampleEntry("/data")
			require.NoError(t, s.Set("/data", want))

			got, ok, err := s.PullOut("/data")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want.Children, got.Children)

			_, ok, err = s.Get("/data")
			require.NoError(t, err)
			assert.False(t, ok)

			// Pulling again finds nothing.
			_, ok, err = s.PullOut("/data")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

// TestRemove verifies Remove has PullOut's post-condition.
func TestRemove(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			require.NoError(t, s.Set("/data", sampleEntry("/data")))
			require.NoError(t, s.Remove("/data"))

			_, ok, err := s.Get("/data")
			require.NoError(t, err)
			assert.False(t, ok)

			// Removing an absent key is not an error.
			require.NoError(t, s.Remove("/data"))
		})
	}
}

// TestLastWriterWins verifies Set is an upsert.
func TestLastWriterWins(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			first := sampleEntry("/data")
			require.NoError(t, s.Set("/data", first))

			second := first.Clone()
			second.Children = append(second.Children, "/data/c")
			require.NoError(t, s.Set("/data", second))

			got, ok, err := s.Get("/data")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Len(t, got.Children, 3)
		})
	}
}

// TestReadIsCopy verifies mutating a read result never leaks back into
// the store.
func TestReadIsCopy(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			require.NoError(t, s.Set("/data", sampleEntry("/data")))

			got, ok, err := s.Get("/data")
			require.NoError(t, err)
			require.True(t, ok)
			got.Children[0] = "/mutated"

			again, ok, err := s.Get("/data")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "/data/a", again.Children[0])
		})
	}
}

// TestWriteIsCopy verifies mutating a value after Set never leaks into
// the store.
func TestWriteIsCopy(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			v := sampleEntry("/data")
			require.NoError(t, s.Set("/data", v))
			v.Children[0] = "/mutated"

			got, ok, err := s.Get("/data")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "/data/a", got.Children[0])
		})
	}
}

// TestConcurrentDisjointKeys hammers the store from many goroutines on
// disjoint keys. Run with -race.
func TestConcurrentDisjointKeys(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			const workers = 8
			const perWorker = 50

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						key := fmt.Sprintf("/w%d/k%d", w, i)
						require.NoError(t, s.Set(key, sampleEntry(key)))
						_, ok, err := s.Get(key)
						assert.NoError(t, err)
						assert.True(t, ok)
					}
				}(w)
			}
			wg.Wait()
		})
	}
}

// TestMemoryLenAndKeys covers the diagnostic accessors of the default
// backend.
func TestMemoryLenAndKeys(t *testing.T) {
	s := NewMemory[fsentry.Entry]()
	require.NoError(t, s.Set("/a", sampleEntry("/a")))
	require.NoError(t, s.Set("/b", sampleEntry("/b")))

	assert.Equal(t, 2, s.Len())
	assert.ElementsMatch(t, []string{"/a", "/b"}, s.Keys())
}
