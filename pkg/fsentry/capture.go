// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fsentry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// ErrTimestampUnsupported marks a timestamp the platform or filesystem
// does not expose. It is stored on the Timestamp field, never returned
// from Capture.
var ErrTimestampUnsupported = errors.New("timestamp not supported on this platform")

// Capture reads filesystem metadata for one path into an Entry.
//
// Description:
//
//	Classifies the object as file or directory and records name, size
//	and the three timestamps. Symlinks are not followed (Lstat); a
//	symlink is recorded as a file with the link's own size, which keeps
//	the crawl free of symlink cycles.
//
//	A missing access or birth time is recorded as an error on the
//	corresponding Timestamp field and does not fail the capture.
//
// Inputs:
//   - path: Path to the object. Made absolute before use.
//   - parent: Path key of the containing directory, or "" for the root.
//
// Outputs:
//   - Entry: Populated snapshot. Children is nil; a crawl fills it in.
//   - error: Non-nil only if the object cannot be stat'ed or its name
//     is not valid UTF-8.
func Capture(path, parent string) (Entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Entry{}, fmt.Errorf("resolve path %q: %w", path, err)
	}

	info, err := os.Lstat(abs)
	if err != nil {
		return Entry{}, fmt.Errorf("stat %q: %w", abs, err)
	}

	name := filepath.Base(abs)
	if !utf8.ValidString(name) {
		return Entry{}, fmt.Errorf("name of %q is not valid UTF-8", abs)
	}

	e := Entry{
		Kind:    KindFile,
		Name:    name,
		Path:    abs,
		Parent:  parent,
		ModTime: Timestamp{Time: info.ModTime()},
	}
	if info.IsDir() {
		// A directory carries no intrinsic size; its weight is the
		// aggregated sum of its descendant files.
		e.Kind = KindDirectory
	} else {
		e.Size = info.Size()
	}

	e.AccessTime, e.BirthTime = platformTimes(abs, info)
	return e, nil
}
