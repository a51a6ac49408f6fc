// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package crawl expands a directory tree into a flattened store using
// the work-stealing scheduler.
//
// # Description
//
// The crawler lists the root directory inline, stores every discovered
// file entry, and pushes every discovered directory as a path-key task.
// Workers then repeatedly pull a directory out of the store (taking
// exclusive ownership so no lock is held across the listing syscall),
// list it, append the children's path keys, write it back, and spawn
// tasks for child directories. The crawl is done when the scheduler
// reaches quiescence.
//
// Errors from listing a directory or capturing one child are non-fatal:
// they flow through an error channel into a single collector and are
// returned in aggregate. A failure in one subtree never stops discovery
// of the others.
package crawl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/AleutianAI/trawl/pkg/fsentry"
	"github.com/AleutianAI/trawl/pkg/logging"
	"github.com/AleutianAI/trawl/pkg/sched"
	"github.com/AleutianAI/trawl/pkg/storage"
)

// Options configures one crawl.
type Options struct {
	// Workers sets the scheduler pool size.
	// Non-positive defaults to the available hardware parallelism.
	Workers int

	// Exclude holds glob patterns matched against paths relative to
	// the crawl root. Patterns ending in "/" match directories and
	// prune their whole subtree.
	Exclude []string

	// Logger receives per-directory debug logging.
	// Nil defaults to the package default logger.
	Logger *logging.Logger
}

// Result is the outcome of one crawl.
type Result struct {
	// Root is the root entry with its Children populated.
	Root fsentry.Entry

	// Errors holds every non-fatal error encountered, in no
	// particular order.
	Errors []error

	// Files and Directories count the discovered entries,
	// excluding the root itself.
	Files       int64
	Directories int64
}

type crawler struct {
	store   storage.Storage[fsentry.Entry]
	root    string
	exclude []string
	errs    chan error
	log     *logging.Logger

	files int64
	dirs  int64
}

// Crawl discovers everything under root and writes it into store.
//
// Description:
//
//	root must come from fsentry.Capture. For a directory root the full
//	subtree is expanded; for a file root only the entry itself is
//	stored. The root entry is stored under its own path key too, so
//	navigation can always return to it.
//
// Inputs:
//   - ctx: Cancels the crawl. Cancellation is the only fatal condition.
//   - root: The captured root entry.
//   - store: Destination for every discovered entry.
//   - opts: Pool size, exclusion patterns, logger.
//
// Outputs:
//   - Result: Updated root, counters, and all non-fatal errors.
//   - error: Non-nil only when the context was cancelled.
func Crawl(ctx context.Context, root fsentry.Entry, store storage.Storage[fsentry.Entry], opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}

	c := &crawler{
		store:   store,
		root:    root.Path,
		exclude: opts.Exclude,
		errs:    make(chan error, 128),
		log:     log,
	}

	// Single collector drains the error channel fed by all workers.
	var collected []error
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for err := range c.errs {
			collected = append(collected, err)
		}
	}()

	var runErr error
	if root.IsDir() {
		s := sched.New[string](opts.Workers)

		// Root expansion happens inline; discovered subdirectories
		// seed the scheduler.
		c.expandInto(&root, s.Push)
		if err := c.store.Set(root.Path, root); err != nil {
			c.errs <- err
		}

		runErr = s.Run(ctx, c.handleTask)
	} else {
		if err := c.store.Set(root.Path, root); err != nil {
			c.errs <- err
		}
	}

	close(c.errs)
	<-collectorDone

	log.Debug("crawl finished",
		"root", root.Path,
		"files", atomic.LoadInt64(&c.files),
		"directories", atomic.LoadInt64(&c.dirs),
		"errors", len(collected),
	)

	return Result{
		Root:        root,
		Errors:      collected,
		Files:       atomic.LoadInt64(&c.files),
		Directories: atomic.LoadInt64(&c.dirs),
	}, runErr
}

// handleTask expands one directory task. The entry is pulled out of
// the store for the duration of the listing so the store never holds a
// lock across the syscall; the child-populated entry is written back
// when done.
func (c *crawler) handleTask(_ context.Context, w *sched.Worker[string], key string) {
	e, ok, err := c.store.PullOut(key)
	if err != nil {
		c.errs <- fmt.Errorf("pull out %q: %w", key, err)
		return
	}
	if !ok {
		// The entry vanished from the store; nothing to expand.
		return
	}

	c.expandInto(&e, w.Spawn)

	if err := c.store.Set(e.Path, e); err != nil {
		c.errs <- fmt.Errorf("write back %q: %w", e.Path, err)
	}
}

// expandInto lists e's directory, captures and stores each child, and
// hands child directory keys to spawn.
func (c *crawler) expandInto(e *fsentry.Entry, spawn func(string)) {
	listing, err := os.ReadDir(e.Path)
	if err != nil {
		c.errs <- fmt.Errorf("list %q: %w", e.Path, err)
		return
	}

	for _, de := range listing {
		childPath := filepath.Join(e.Path, de.Name())
		if c.excluded(childPath, de.IsDir()) {
			continue
		}

		child, err := fsentry.Capture(childPath, e.Path)
		if err != nil {
			c.errs <- err
			continue
		}

		e.Children = append(e.Children, child.Path)
		if err := c.store.Set(child.Path, child); err != nil {
			c.errs <- fmt.Errorf("store %q: %w", child.Path, err)
			continue
		}

		if child.IsDir() {
			atomic.AddInt64(&c.dirs, 1)
			spawn(child.Path)
		} else {
			atomic.AddInt64(&c.files, 1)
		}
	}
}

// excluded matches a child path against the exclusion patterns.
// Patterns are evaluated against the path relative to the crawl root;
// a trailing "/" restricts a pattern to directories.
func (c *crawler) excluded(path string, isDir bool) bool {
	if len(c.exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return false
	}
	base := filepath.Base(rel)

	for _, pattern := range c.exclude {
		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimSuffix(pattern, "/")
		if dirOnly && !isDir {
			continue
		}
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
		if strings.Contains(pattern, "/") {
			if matched, err := filepath.Match(pattern, rel); err == nil && matched {
				return true
			}
		}
	}
	return false
}
