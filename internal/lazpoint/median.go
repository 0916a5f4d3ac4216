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

// Package lazpoint implements the LAS point-record decompressors: the
// predictive integer coder (IntegerDecompressor, StreamingMedian), the
// format-0 decompressor (Point10Decompressor), the format-6/7/8
// decompressor (Point14Decompressor), and the public entry point
// (ChunkDecompressor) that dispatches between them by point format
// (spec.md §4.3-§4.7, C4-C8).
//
// Grounded in spec.md's pseudocode directly (the teacher repo has no
// predictive coder or point-record format of its own); laid out in the
// teacher's preferred style of small stateful structs with an explicit
// Init/New constructor and narrow exported methods (see chd.Header,
// chd.hunkMap).
package lazpoint

import "slices"

// StreamingMedian tracks the median of the five most-recently-added signed
// integers (spec.md §4.4, C5): Add evicts the oldest sample in a fixed
// 5-slot ring, and Get sorts the (constant-size) window to find the middle
// value. The zero value is ready to use, seeded at all-zero.
type StreamingMedian struct {
	window [5]int32
	next   int
}

// Add records v as the newest sample, displacing the oldest.
func (m *StreamingMedian) Add(v int32) {
	m.window[m.next] = v
	m.next = (m.next + 1) % len(m.window)
}

// Get returns the median of the current window.
func (m *StreamingMedian) Get() int32 {
	sorted := m.window
	slices.Sort(sorted[:])
	return sorted[2]
}
