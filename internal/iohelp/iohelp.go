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

// Package iohelp provides little-endian read helpers over io.ReaderAt,
// the byte-level access pattern every COPC/LAS parser in this module builds
// on (header, VLRs, hierarchy pages).
package iohelp

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ReadAt reads len(buf) bytes from r at offset.
func ReadAt(r io.ReaderAt, offset int64, buf []byte) error {
	if _, err := r.ReadAt(buf, offset); err != nil {
		return fmt.Errorf("read at offset %d: %w", offset, err)
	}
	return nil
}

// ReadBytesAt reads n bytes from r at offset.
func ReadBytesAt(r io.ReaderAt, offset int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := ReadAt(r, offset, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadUint16LEAt reads a little-endian uint16 from r at offset.
func ReadUint16LEAt(r io.ReaderAt, offset int64) (uint16, error) {
	buf, err := ReadBytesAt(r, offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadUint32LEAt reads a little-endian uint32 from r at offset.
func ReadUint32LEAt(r io.ReaderAt, offset int64) (uint32, error) {
	buf, err := ReadBytesAt(r, offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadUint64LEAt reads a little-endian uint64 from r at offset.
func ReadUint64LEAt(r io.ReaderAt, offset int64) (uint64, error) {
	buf, err := ReadBytesAt(r, offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// ReadFloat64LEAt reads a little-endian IEEE-754 double from r at offset.
func ReadFloat64LEAt(r io.ReaderAt, offset int64) (float64, error) {
	bits, err := ReadUint64LEAt(r, offset)
	if err != nil {
		return 0, err
	}
	return BitsToFloat64(bits), nil
}

// BitsToFloat64 reinterprets the bit pattern of a uint64 as an IEEE-754
// double, per spec.md §9's "Float / double reinterpretation" design note:
// an explicit bit-cast primitive, never a textual conversion.
func BitsToFloat64(bits uint64) float64 {
	return math.Float64frombits(bits)
}

// BitsToFloat32 reinterprets the bit pattern of a uint32 as an IEEE-754
// float.
func BitsToFloat32(bits uint32) float32 {
	return math.Float32frombits(bits)
}

// Float64ToBits is the write-side inverse of BitsToFloat64, used by test
// fixture builders that hand-encode synthetic COPC data.
func Float64ToBits(f float64) uint64 {
	return math.Float64bits(f)
}

// Float32ToBits is the write-side inverse of BitsToFloat32.
func Float32ToBits(f float32) uint32 {
	return math.Float32bits(f)
}

// CleanString converts bytes to a string, truncating at the first NUL and
// trimming surrounding whitespace.
func CleanString(data []byte) string {
	end := len(data)
	for i, c := range data {
		if c == 0 {
			end = i
			break
		}
	}
	return trimSpace(string(data[:end]))
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
