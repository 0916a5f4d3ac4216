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

// Package rangecoder implements the LAZ arithmetic range decoder: a
// byte-level cursor over a compressed chunk (Source) and the stateful
// decoder that narrows a [value, value+length) interval against adaptive
// probability models (Decoder). Every LAZ point decompressor is built on
// top of this package and internal/lazmodel's model types.
//
// Grounded in the teacher's chd/bitstream.go bitReader: a byte-slice cursor
// with an explicit "pull the next byte, shift it in" primitive. LAZ's
// decoder narrows a range interval rather than accumulating a bit
// window, but the underlying byte-pull shape is the same.
package rangecoder

import (
	"fmt"
	"io"
)

// Source is a read-only forward byte cursor over one compressed chunk.
// It is not safe for concurrent use (spec.md §5: a Decoder and its Source
// are single-threaded per instance).
type Source struct {
	data []byte
	pos  int
}

// NewSource wraps data for sequential reading by a Decoder.
func NewSource(data []byte) *Source {
	return &Source{data: data}
}

// NextByte returns the next unread byte, or io.ErrUnexpectedEOF if the
// source is exhausted (spec.md §4.8: "decoder renormalization attempting
// to read past EOF" is a fatal, non-recoverable error).
func (s *Source) NextByte() (byte, error) {
	if s.pos >= len(s.data) {
		return 0, fmt.Errorf("range coder source exhausted at byte %d of %d: %w",
			s.pos, len(s.data), io.ErrUnexpectedEOF)
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

// Remaining reports how many unread bytes are left.
func (s *Source) Remaining() int { return len(s.data) - s.pos }
