// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

//go:build darwin

package fsentry

import (
	"os"
	"syscall"
	"time"
)

// platformTimes reads access and birth time from the Stat_t already
// produced by Lstat. Darwin exposes birth time natively.
func platformTimes(_ string, info os.FileInfo) (access, birth Timestamp) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return Timestamp{Err: ErrTimestampUnsupported}, Timestamp{Err: ErrTimestampUnsupported}
	}
	access = Timestamp{Time: time.Unix(st.Atimespec.Sec, st.Atimespec.Nsec)}
	birth = Timestamp{Time: time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)}
	return access, birth
}
