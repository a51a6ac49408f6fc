// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package fsentry defines the flattened entry model for discovered
// filesystem objects.
//
// # Description
//
// An Entry is a point-in-time snapshot of one file or directory. Entries
// never reference each other directly: a directory records its children
// as path keys, and callers resolve those keys through a storage backend.
// This keeps the discovered tree acyclic by construction and lets any
// worker mutate one directory's child list without touching its siblings.
//
// # Thread Safety
//
// Entry is a value type. Clone() produces a fully independent copy;
// concurrent use of distinct copies is safe.
package fsentry

import (
	"time"
)

// Kind discriminates the two entry variants.
type Kind int

const (
	// KindFile is a regular file (or anything that is not a directory,
	// including symlinks, which are never followed).
	KindFile Kind = iota

	// KindDirectory is a directory that may hold children.
	KindDirectory
)

// String returns "file", "directory", or "unknown".
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Timestamp is an individually fallible filesystem timestamp.
//
// Not every platform or filesystem exposes every timestamp (birth time in
// particular). An unavailable timestamp is not a capture failure; the
// error is kept on the field and callers check Ok() before use.
type Timestamp struct {
	Time time.Time
	Err  error
}

// Ok reports whether the timestamp was captured successfully.
func (t Timestamp) Ok() bool {
	return t.Err == nil
}

// Entry is one discovered filesystem object.
//
// Path is the path key: the canonical absolute path string that uniquely
// identifies the object at scan time and is the sole key space of the
// storage backend. Parent is the path key of the containing directory,
// or "" for the scan root.
type Entry struct {
	Kind   Kind   `json:"kind"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Parent string `json:"parent,omitempty"`

	AccessTime Timestamp `json:"atime"`
	ModTime    Timestamp `json:"mtime"`
	BirthTime  Timestamp `json:"btime"`

	// Children holds the path keys of direct children in discovery
	// order. Only populated for KindDirectory, and only after the
	// directory has been expanded by a crawl.
	Children []string `json:"children,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

// Clone returns an independent copy of the entry.
//
// The Children slice is copied so mutations on one copy never alias
// another. Storage backends rely on this to give callers value
// semantics on reads.
func (e Entry) Clone() Entry {
	out := e
	if e.Children != nil {
		out.Children = make([]string, len(e.Children))
		copy(out.Children, e.Children)
	}
	return out
}

// HasParent reports whether the entry records a containing directory.
func (e Entry) HasParent() bool {
	return e.Parent != ""
}
