// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package sched implements a generic work-stealing task scheduler with
// deterministic termination detection.
//
// # Description
//
// One global queue feeds a fixed pool of workers; each worker owns a
// local FIFO queue that peers may steal from. An idle worker looks for
// work in this order: own local queue, a batch from the global queue,
// then one task from each peer in a fixed order. A steal attempt that
// finds a queue locked reports "retry" and the whole pass repeats; only
// when every source reports empty does the worker back off.
//
// # Termination
//
// A single pending-task counter tracks every task that has been
// submitted but not fully processed. The counter is incremented
// *before* a task becomes visible in any queue and decremented only
// after its handler returns — including any subtasks the handler
// spawned, which were counted before the decrement. The counter can
// therefore only reach zero when no queue holds a task and no handler
// is running, and it can never come back up once zero. The worker that
// moves it to zero closes the done channel and everyone drains out.
// This replaces the racy "counter plus empty-check" termination, where
// a worker could observe a transient all-empty state while a peer was
// mid-push.
//
// # Lifecycle
//
// A Scheduler is built, seeded, run, and discarded: queues and counters
// are never reused across runs. Run tears the pool down on every exit
// path, including context cancellation.
package sched

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Backoff bounds for a worker that found every queue empty.
const (
	backoffMin = 20 * time.Microsecond
	backoffMax = time.Millisecond
)

// Handler processes one task. It may spawn subtasks through the worker
// handle; those are scheduled onto the worker's own local queue where
// peers can steal them.
type Handler[T any] func(ctx context.Context, w *Worker[T], task T)

// Scheduler distributes tasks of type T across a fixed worker pool.
//
// Seed tasks are pushed before Run; subtasks are spawned from inside
// handlers. A Scheduler must not be reused after Run returns.
type Scheduler[T any] struct {
	global  queue[T]
	locals  []*queue[T]
	pending atomic.Int64
	done    chan struct{}
	once    sync.Once
	workers int
}

// New creates a scheduler with the given pool size. A non-positive
// size defaults to the available hardware parallelism.
func New[T any](workers int) *Scheduler[T] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	s := &Scheduler[T]{
		locals:  make([]*queue[T], workers),
		done:    make(chan struct{}),
		workers: workers,
	}
	for i := range s.locals {
		s.locals[i] = &queue[T]{}
	}
	return s
}

// Workers returns the pool size.
func (s *Scheduler[T]) Workers() int {
	return s.workers
}

// Push seeds a task onto the global queue. Call before Run; handlers
// running inside Run must use Worker.Spawn instead.
func (s *Scheduler[T]) Push(task T) {
	s.pending.Add(1)
	s.global.push(task)
}

// Run processes tasks until the pending counter reaches zero or the
// context is cancelled. It blocks until every worker has exited.
//
// Outputs:
//   - error: nil on quiescence, or the context error on cancellation.
func (s *Scheduler[T]) Run(ctx context.Context, handler Handler[T]) error {
	if s.pending.Load() == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.workers; i++ {
		id := i
		g.Go(func() error {
			return s.runWorker(ctx, id, handler)
		})
	}
	return g.Wait()
}

func (s *Scheduler[T]) runWorker(ctx context.Context, id int, handler Handler[T]) error {
	w := &Worker[T]{id: id, s: s, local: s.locals[id]}
	backoff := backoffMin

	for {
		task, ok := s.findTask(id)
		if !ok {
			select {
			case <-s.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
				if backoff > backoffMax {
					backoff = backoffMax
				}
				continue
			}
		}
		backoff = backoffMin

		handler(ctx, w, task)
		s.finish()

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// finish retires one task. The worker that takes the counter to zero
// declares quiescence for everyone.
func (s *Scheduler[T]) finish() {
	if s.pending.Add(-1) == 0 {
		s.once.Do(func() { close(s.done) })
	}
}

// findTask implements the steal order: own queue, global batch, then
// each peer in index order. A contended source turns the pass into a
// retry; all-empty ends the search.
func (s *Scheduler[T]) findTask(id int) (T, bool) {
	if task, ok := s.locals[id].pop(); ok {
		return task, true
	}

	for {
		retry := false

		task, rest, ok, contended := s.global.tryStealBatch()
		if ok {
			for _, r := range rest {
				s.locals[id].push(r)
			}
			return task, true
		}
		if contended {
			retry = true
		}

		for p := range s.locals {
			if p == id {
				continue
			}
			task, ok, contended := s.locals[p].trySteal()
			if ok {
				return task, true
			}
			if contended {
				retry = true
			}
		}

		if !retry {
			var zero T
			return zero, false
		}
	}
}

// Worker is the handle a handler uses to spawn subtasks.
type Worker[T any] struct {
	id    int
	s     *Scheduler[T]
	local *queue[T]
}

// ID returns the worker's index in the pool.
func (w *Worker[T]) ID() int {
	return w.id
}

// Spawn schedules a subtask onto the worker's local queue.
//
// The pending counter is incremented before the task becomes visible,
// which is what makes quiescence detection sound: the parent task
// cannot retire until all of its children are already counted.
func (w *Worker[T]) Spawn(task T) {
	w.s.pending.Add(1)
	w.local.push(task)
}
