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

// Package hierarchy implements the COPC octree hierarchy: 32-byte on-disk
// entries (spec.md §3.2), the runtime Page/Node tree (§3.3), and the lazy
// page-loading walk used by Reader.GetNode/GetAllNodes (§4.8, C10).
//
// Grounded in the teacher's chd/hunk.go: a lazily-populated, offset-indexed
// map with an RWMutex-guarded cache and a classify-then-dispatch read path
// (HunkMap.ReadHunk's cache-check / parse / cache-store shape). COPC's
// hierarchy is a tree of pages rather than CHD's flat hunk array, so the
// walk itself (GetNode's ancestor-chasing recursion) is new code built from
// spec.md §4.8's description, but the page cache is hashicorp/golang-lru
// instead of the teacher's hand-rolled "evict everything" map (chd/hunk.go's
// ReadHunk: "Simple cache eviction: clear all") — see SPEC_FULL.md's
// DOMAIN STACK table.
package hierarchy

import (
	"encoding/binary"
	"fmt"

	"github.com/copc-go/copc/copc/copcerr"
	"github.com/copc-go/copc/copc/voxel"
)

// EntrySize is the fixed on-disk size of one hierarchy entry.
const EntrySize = 32

// Entry is the raw 32-byte hierarchy record, before classification into a
// Node or a Page (spec.md §3.2).
type Entry struct {
	Key        voxel.Key
	Offset     uint64
	ByteSize   int32
	PointCount int32
}

// IsPage reports whether this entry points at a sub-page rather than point
// data (PointCount == -1, per spec.md §3.2).
func (e Entry) IsPage() bool { return e.PointCount == -1 }

// ParseEntries decodes a hierarchy page's raw bytes into Entry values. The
// byte slice's length must be a multiple of EntrySize (spec.md §3.2); an
// entry with PointCount < -1 or a negative ByteSize is invalid and rejected
// as corrupt.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data)%EntrySize != 0 {
		return nil, fmt.Errorf("%w: hierarchy page size %d is not a multiple of %d",
			copcerr.ErrCorrupt, len(data), EntrySize)
	}

	n := len(data) / EntrySize
	entries := make([]Entry, n)
	for i := range n {
		buf := data[i*EntrySize : (i+1)*EntrySize]

		e := Entry{
			Key: voxel.Key{
				//nolint:gosec // on-disk fields are int32 per spec.md §3.2
				D: int32(binary.LittleEndian.Uint32(buf[0:4])),
				X: int32(binary.LittleEndian.Uint32(buf[4:8])),
				Y: int32(binary.LittleEndian.Uint32(buf[8:12])),
				Z: int32(binary.LittleEndian.Uint32(buf[12:16])),
			},
			Offset: binary.LittleEndian.Uint64(buf[16:24]),
			//nolint:gosec // on-disk field is int32 per spec.md §3.2
			ByteSize:   int32(binary.LittleEndian.Uint32(buf[24:28])),
			PointCount: int32(binary.LittleEndian.Uint32(buf[28:32])),
		}
		if e.PointCount < -1 {
			return nil, fmt.Errorf("%w: hierarchy entry %s has invalid point count %d",
				copcerr.ErrCorrupt, e.Key, e.PointCount)
		}
		if e.ByteSize < 0 {
			return nil, fmt.Errorf("%w: hierarchy entry %s has negative byte size %d",
				copcerr.ErrCorrupt, e.Key, e.ByteSize)
		}
		entries[i] = e
	}
	return entries, nil
}

// MarshalEntries is the write-side inverse of ParseEntries, used only by
// tests to build synthetic hierarchy pages (spec.md §8 property 4).
func MarshalEntries(entries []Entry) []byte {
	buf := make([]byte, len(entries)*EntrySize)
	for i, e := range entries {
		b := buf[i*EntrySize : (i+1)*EntrySize]
		//nolint:gosec // writer-side helper for test fixtures only
		binary.LittleEndian.PutUint32(b[0:4], uint32(e.Key.D))
		//nolint:gosec // writer-side helper for test fixtures only
		binary.LittleEndian.PutUint32(b[4:8], uint32(e.Key.X))
		//nolint:gosec // writer-side helper for test fixtures only
		binary.LittleEndian.PutUint32(b[8:12], uint32(e.Key.Y))
		//nolint:gosec // writer-side helper for test fixtures only
		binary.LittleEndian.PutUint32(b[12:16], uint32(e.Key.Z))
		binary.LittleEndian.PutUint64(b[16:24], e.Offset)
		//nolint:gosec // writer-side helper for test fixtures only
		binary.LittleEndian.PutUint32(b[24:28], uint32(e.ByteSize))
		//nolint:gosec // writer-side helper for test fixtures only
		binary.LittleEndian.PutUint32(b[28:32], uint32(e.PointCount))
	}
	return buf
}
