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

package hierarchy

import "github.com/copc-go/copc/copc/voxel"

// Node is the runtime, immutable value a caller receives from
// Reader.GetNode / GetAllNodes: a leaf entry's point-data location plus a
// back-pointer to its containing page (spec.md §3.3; PageKey is for
// diagnostics only, never used for lookups).
type Node struct {
	Key        voxel.Key
	Offset     uint64
	ByteSize   int32
	PointCount int32
	PageKey    voxel.Key
}

// Page is one hierarchy page: a run of entries at (Offset, ByteSize) in the
// file. A Tree parses a page again after evicting it from its LRU cache, so
// the same page may be loaded more than once. Loaded is false until ParseEntries has filled
// Children; Children is read-only for the rest of the Tree's lifetime once
// Loaded flips true (spec.md §3.3).
type Page struct {
	Key      voxel.Key
	Offset   uint64
	ByteSize int32
	Loaded   bool
	Children map[string]Entry
}
