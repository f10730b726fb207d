// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

// errors.go - sentinel errors raised by the recommendation core.
package recommend

import "errors"

// ErrUserNotFound indicates the user id is not present in the data source.
// It is the only user-facing error the core raises deliberately; callers
// check it with errors.Is and map it to a 404-equivalent. Every other
// failure the core can produce indicates a data-consistency bug and is not
// recoverable.
var ErrUserNotFound = errors.New("user not found")
