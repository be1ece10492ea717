// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

//go:build unix

package extensions

import (
	"log/slog"

	"golang.org/x/sys/unix"
)

// minMlockLimitKB covers the locked pages memguard needs for one token
// buffer plus guard pages.
const minMlockLimitKB = 64

// checkSecureMemory logs whether the mlock limit lets memguard lock pages.
func checkSecureMemory() {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &rlimit); err != nil {
		slog.Warn("could not determine mlock limit", "error", err)
		return
	}
	if rlimit.Cur == unix.RLIM_INFINITY {
		slog.Debug("secure memory available", "mlock_limit_kb", "unlimited")
		return
	}
	limitKB := int64(rlimit.Cur / 1024)
	if limitKB < minMlockLimitKB {
		slog.Warn("mlock limit low, api token pages may not be locked",
			"mlock_limit_kb", limitKB,
			"required_kb", minMlockLimitKB,
		)
		return
	}
	slog.Debug("secure memory available", "mlock_limit_kb", limitKB)
}
