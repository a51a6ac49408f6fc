// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

//go:build linux

package fsentry

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// platformTimes reads access and birth time via statx.
//
// statx is the only Linux interface that exposes birth time, and even
// there it depends on the filesystem (ext4/xfs/btrfs report it, tmpfs
// and older filesystems do not). A field the kernel did not fill in is
// recorded as ErrTimestampUnsupported.
func platformTimes(path string, _ os.FileInfo) (access, birth Timestamp) {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW,
		unix.STATX_ATIME|unix.STATX_BTIME, &stx)
	if err != nil {
		werr := fmt.Errorf("statx %q: %w", path, err)
		return Timestamp{Err: werr}, Timestamp{Err: werr}
	}

	if stx.Mask&unix.STATX_ATIME != 0 {
		access = Timestamp{Time: time.Unix(stx.Atime.Sec, int64(stx.Atime.Nsec))}
	} else {
		access = Timestamp{Err: ErrTimestampUnsupported}
	}
	if stx.Mask&unix.STATX_BTIME != 0 {
		birth = Timestamp{Time: time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))}
	} else {
		birth = Timestamp{Err: ErrTimestampUnsupported}
	}
	return access, birth
}
