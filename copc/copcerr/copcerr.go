// Copyright (c) 2025 Niema Moshiri and The Zaparoo Project.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of copc-go.
//
// copc-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// copc-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with copc-go.  If not, see <https://www.gnu.org/licenses/>.

// Package copcerr defines the error kinds surfaced by this module's public
// API, per spec.md §7. Grounded in the teacher's chd/errors.go: sentinel
// errors checked with errors.Is, wrapped with fmt.Errorf("...: %w", err) at
// each call site, plus small value-typed errors for ones that carry detail
// (mirroring the teacher's archive.FormatError / FileNotFoundError).
package copcerr

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per spec.md §7 error kind. Wrap with fmt.Errorf and
// %w so callers can still errors.Is against these.
var (
	// ErrNotACopc indicates the LAS header is absent/wrong version, or the
	// COPC Info VLR is missing, mispositioned, or the wrong size.
	ErrNotACopc = errors.New("not a COPC file")

	// ErrCorrupt indicates truncated/malformed data: bad page size,
	// invalid hierarchy entry, a stream size that overruns the chunk, or
	// the arithmetic decoder renormalizing past EOF.
	ErrCorrupt = errors.New("corrupt COPC data")

	// ErrUnsupported indicates a point format or record size this reader
	// does not implement.
	ErrUnsupported = errors.New("unsupported COPC/LAS feature")

	// ErrNotFound indicates a requested voxel key is not present in the
	// hierarchy.
	ErrNotFound = errors.New("node not found")
)

// NotFoundError carries the voxel-key string that a lookup failed to find.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node not found: %s", e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// UnsupportedFormatError reports a point data format outside {0,6,7,8}.
type UnsupportedFormatError struct {
	Format int
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported point data format %d (supported: 0, 6, 7, 8)", e.Format)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupported }
