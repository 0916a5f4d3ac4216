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

package lazpoint

import (
	"fmt"

	"github.com/copc-go/copc/copc/copcerr"
	"github.com/copc-go/copc/internal/rangecoder"
)

// pointDecompressor is the common shape Point10Decompressor and
// Point14Decompressor both satisfy, letting ChunkDecompressor dispatch on
// point data format without caring which one it holds (spec.md §4.7, C8).
// Decompress returns exactly baseSize(format) bytes; any extra-byte
// padding up to the caller's on-disk record length is ChunkDecompressor's
// job, not the inner decompressor's.
type pointDecompressor interface {
	Decompress() ([]byte, error)
}

// baseSize returns the fixed, extra-bytes-excluded on-disk record length
// for pointFormat (spec.md §4.7's "base(pointFormat)").
func baseSize(pointFormat int) (int, error) {
	switch pointFormat {
	case 0:
		return point10Size, nil
	case 6:
		return point14BaseSize, nil
	case 7:
		return point14RGBSize, nil
	case 8:
		return point14NIRSize, nil
	default:
		return 0, fmt.Errorf("chunk decompressor: %w: point data format %d", copcerr.ErrUnsupported, pointFormat)
	}
}

// ChunkDecompressor is the public entry point for decompressing one LAZ
// chunk's worth of points: it picks Point10Decompressor or
// Point14Decompressor by point data format and decodes count records in
// sequence, padding each to the caller's on-disk record length (spec.md
// §4.7, C8).
type ChunkDecompressor struct {
	inner     pointDecompressor
	pointSize int
}

// NewChunkDecompressor constructs a decompressor for a chunk whose bytes
// are data, encoded at the given LAS point data format, with records
// pointSize bytes long on disk. pointSize must be at least baseSize's
// value for pointFormat; the surplus (extraByteCount) is the per-point
// "extra bytes" region formats 6/7/8 must skip over to stay aligned
// (spec.md §1's Non-goals, §4.7).
func NewChunkDecompressor(data []byte, pointFormat, pointSize int) (*ChunkDecompressor, error) {
	base, err := baseSize(pointFormat)
	if err != nil {
		return nil, err
	}
	if pointSize < base {
		return nil, fmt.Errorf("chunk decompressor: %w: point size %d smaller than format %d's base size %d",
			copcerr.ErrUnsupported, pointSize, pointFormat, base)
	}

	if pointFormat == 0 {
		dec, err := rangecoder.NewDecoder(rangecoder.NewSource(data))
		if err != nil {
			return nil, fmt.Errorf("chunk decompressor: init range decoder: %w", err)
		}
		return &ChunkDecompressor{inner: NewPoint10Decompressor(dec), pointSize: pointSize}, nil
	}

	inner, err := NewPoint14Decompressor(data, pointFormat, pointSize-base)
	if err != nil {
		return nil, err
	}
	return &ChunkDecompressor{inner: inner, pointSize: pointSize}, nil
}

// GetPoint decodes and returns the next point record's bytes, zero-padded
// up to pointSize when the decompressor produced fewer (spec.md §4.7's
// "trailing bytes ... are zero-filled").
func (c *ChunkDecompressor) GetPoint() ([]byte, error) {
	rec, err := c.inner.Decompress()
	if err != nil {
		return nil, err
	}
	if len(rec) == c.pointSize {
		return rec, nil
	}
	out := make([]byte, c.pointSize)
	copy(out, rec)
	return out, nil
}

// DecompressChunk decodes count consecutive point records, returning one
// []byte slice per record.
func (c *ChunkDecompressor) DecompressChunk(count int) ([][]byte, error) {
	out := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		rec, err := c.GetPoint()
		if err != nil {
			return nil, fmt.Errorf("decompress point %d/%d: %w", i, count, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecompressChunkFlat decodes count consecutive point records into one
// contiguous buffer, each record at a fixed pointSize-byte stride; this is
// the layout callers copying straight into a columnar or mmap'd buffer want.
func (c *ChunkDecompressor) DecompressChunkFlat(count int) ([]byte, error) {
	out := make([]byte, 0, count*c.pointSize)
	for i := 0; i < count; i++ {
		rec, err := c.GetPoint()
		if err != nil {
			return nil, fmt.Errorf("decompress point %d/%d: %w", i, count, err)
		}
		out = append(out, rec...)
	}
	return out, nil
}

// RecordSize returns the on-disk byte size of one decoded record,
// including any extra-bytes surplus beyond the format's base size.
func (c *ChunkDecompressor) RecordSize() int { return c.pointSize }
