// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunEmpty verifies a scheduler with no seed tasks returns
// immediately.
func TestRunEmpty(t *testing.T) {
	s := New[int](4)
	err := s.Run(context.Background(), func(ctx context.Context, w *Worker[int], task int) {
		t.Fatal("handler must not run")
	})
	require.NoError(t, err)
}

// TestExactlyOnce verifies every seeded task is processed exactly once
// across all workers.
func TestExactlyOnce(t *testing.T) {
	const tasks = 500
	s := New[int](4)

	var mu sync.Mutex
	seen := make(map[int]int)

	for i := 0; i < tasks; i++ {
		s.Push(i)
	}

	err := s.Run(context.Background(), func(ctx context.Context, w *Worker[int], task int) {
		mu.Lock()
		seen[task]++
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Len(t, seen, tasks)
	for task, count := range seen {
		assert.Equal(t, 1, count, "task %d processed %d times", task, count)
	}
}

// TestDynamicSpawn expands a synthetic task tree entirely from inside
// handlers and verifies termination fires only after every node was
// visited. Tree: each task at depth < maxDepth spawns fanout children.
func TestDynamicSpawn(t *testing.T) {
	const (
		fanout   = 4
		maxDepth = 5
	)
	// Total nodes of a full tree: (fanout^(maxDepth+1) - 1) / (fanout - 1).
	want := int64(0)
	for d, n := 0, int64(1); d <= maxDepth; d, n = d+1, n*fanout {
		want += n
	}

	s := New[int](8)
	var visited atomic.Int64

	s.Push(0) // depth 0 root
	err := s.Run(context.Background(), func(ctx context.Context, w *Worker[int], depth int) {
		visited.Add(1)
		if depth < maxDepth {
			for i := 0; i < fanout; i++ {
				w.Spawn(depth + 1)
			}
		}
	})
	require.NoError(t, err)
	assert.Equal(t, want, visited.Load())
}

// TestSingleWorker verifies the scheduler degenerates cleanly to one
// worker with no peers to steal from.
func TestSingleWorker(t *testing.T) {
	s := New[int](1)
	var visited atomic.Int64

	s.Push(3)
	err := s.Run(context.Background(), func(ctx context.Context, w *Worker[int], n int) {
		visited.Add(1)
		for i := 0; i < n; i++ {
			w.Spawn(0)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), visited.Load())
}

// TestContextCancellation verifies Run unwinds the pool when the
// context is cancelled mid-flight.
func TestContextCancellation(t *testing.T) {
	s := New[int](4)
	ctx, cancel := context.WithCancel(context.Background())

	// Self-sustaining workload: every task spawns a replacement, so the
	// pending counter never reaches zero on its own.
	for i := 0; i < 16; i++ {
		s.Push(i)
	}

	var processed atomic.Int64
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(ctx context.Context, w *Worker[int], task int) {
			processed.Add(1)
			w.Spawn(task)
			time.Sleep(time.Millisecond)
		})
	}()

	for processed.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not unwind after cancellation")
	}
}

// TestDefaultWorkerCount verifies non-positive pool sizes fall back to
// hardware parallelism.
func TestDefaultWorkerCount(t *testing.T) {
	s := New[string](0)
	assert.Greater(t, s.Workers(), 0)
}

// TestQueueStealSemantics covers the queue primitive directly: FIFO
// order, batch stealing, and the retry signal under contention.
func TestQueueStealSemantics(t *testing.T) {
	q := &queue[int]{}
	for i := 0; i < 40; i++ {
		q.push(i)
	}

	// FIFO pop.
	v, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, 0, v)

	// Single steal takes the current front.
	v, ok, retry := q.trySteal()
	require.True(t, ok)
	require.False(t, retry)
	assert.Equal(t, 1, v)

	// Batch steal moves at most stealBatch tasks.
	first, rest, ok, retry := q.tryStealBatch()
	require.True(t, ok)
	require.False(t, retry)
	assert.Equal(t, 2, first)
	assert.Len(t, rest, stealBatch-1)

	// A locked queue reports retry, not empty.
	q.mu.Lock()
	_, ok, retry = q.trySteal()
	assert.False(t, ok)
	assert.True(t, retry)
	_, _, ok, retry = q.tryStealBatch()
	assert.False(t, ok)
	assert.True(t, retry)
	q.mu.Unlock()
}
