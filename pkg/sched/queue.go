// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sched

import "sync"

// stealBatch caps how many tasks one steal moves from the global queue
// into a worker's local queue.
const stealBatch = 16

// queue is a FIFO task queue guarded by a mutex.
//
// The owner pushes and pops with a blocking lock; thieves use TryLock
// so a contended queue reports "retry" instead of blocking the thief
// behind the owner.
type queue[T any] struct {
	mu    sync.Mutex
	items []T
}

func (q *queue[T]) push(task T) {
	q.mu.Lock()
	q.items = append(q.items, task)
	q.mu.Unlock()
}

func (q *queue[T]) pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	task := q.items[0]
	q.items = q.items[1:]
	return task, true
}

// trySteal removes one task from the front of the queue.
// retry is true when the queue was locked by someone else and the
// attempt should be repeated.
func (q *queue[T]) trySteal() (task T, ok bool, retry bool) {
	if !q.mu.TryLock() {
		retry = true
		return
	}
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return
	}
	task = q.items[0]
	q.items = q.items[1:]
	ok = true
	return
}

// tryStealBatch removes up to stealBatch tasks from the front of the
// queue, keeping the first for the caller and returning the rest for
// the caller's local queue.
func (q *queue[T]) tryStealBatch() (task T, rest []T, ok bool, retry bool) {
	if !q.mu.TryLock() {
		retry = true
		return
	}
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return
	}
	n := len(q.items)
	if n > stealBatch {
		n = stealBatch
	}
	task = q.items[0]
	rest = append(rest, q.items[1:n]...)
	q.items = q.items[n:]
	ok = true
	return
}
