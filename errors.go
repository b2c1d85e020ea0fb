// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tgc

import "github.com/pkg/errors"

// Table resize failures are wrapped with pkg/errors (see table.go). The
// construction-time sentinels below are returned unwrapped by Start, so
// callers can compare them directly or with errors.Is. Per-call
// allocation/lookup misses are not errors and remain plain nil/zero
// returns — wrapping those would misrepresent mutator-tolerated
// conditions as failures.

var (
	// ErrInvalidLoadFactor is returned by Start/Option application when a
	// load factor outside (0, 1] is supplied.
	ErrInvalidLoadFactor = errors.New("tgc: load factor must be in (0, 1]")

	// ErrInvalidSweepFactor is returned when a negative sweep factor is
	// supplied.
	ErrInvalidSweepFactor = errors.New("tgc: sweep factor must be >= 0")

	// ErrNilAllocator is returned when a nil HostAllocator is supplied via
	// WithAllocator.
	ErrNilAllocator = errors.New("tgc: host allocator must not be nil")
)
