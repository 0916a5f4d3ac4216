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
	"bytes"
	"encoding/binary"
	"testing"
)

func TestPoint14MarshalParseRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		hasRGB, hasNIR bool
	}{
		{"format6", false, false},
		{"format7", true, false},
		{"format8", true, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			p := point14{
				X: 1000, Y: -2000, Z: 300,
				Intensity:      42,
				ReturnByte:     0x21,
				ClassFlags:     0x05,
				Classification: 2,
				UserData:       9,
				ScanAngle:      -120,
				PointSourceID:  7,
				GPSTime:        123456.789,
				RGB:            [3]uint16{100, 200, 300},
				NIR:            400,
			}
			got := parsePoint14(p.marshal(c.hasRGB, c.hasNIR), c.hasRGB, c.hasNIR)

			want := p
			if !c.hasRGB {
				want.RGB = [3]uint16{}
			}
			if !c.hasNIR {
				want.NIR = 0
			}
			if got != want {
				t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
			}
		})
	}
}

// buildPoint14Chunk assembles a LAZ 1.4 chunk matching spec.md §4.6's
// layout: first the uncompressed first-point prefix (plus extraByteCount
// raw extra bytes), then the chunk point count, then the stream-size
// table, then each stream's bytes in order. streams must have one entry
// per stream (9, plus one for RGB and one for NIR as the format requires,
// plus one per extra byte); a nil entry encodes a zero-size stream.
func buildPoint14Chunk(pointFormat int, first []byte, extraByteCount int, streams [][]byte) []byte {
	var buf bytes.Buffer
	buf.Write(first)
	buf.Write(make([]byte, extraByteCount))

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], 1) // chunk point count
	buf.Write(u32[:])

	for _, s := range streams {
		binary.LittleEndian.PutUint32(u32[:], uint32(len(s))) //nolint:gosec // test fixture sizes are small
		buf.Write(u32[:])
	}
	for _, s := range streams {
		buf.Write(s)
	}
	return buf.Bytes()
}

func streamCountFor(pointFormat, extraByteCount int) int {
	n := 9
	if pointFormat >= 7 {
		n++
	}
	if pointFormat == 8 {
		n++
	}
	return n + extraByteCount
}

func TestPoint14DecompressorFirstPointReturnsRawBytes(t *testing.T) {
	t.Parallel()

	first := make([]byte, point14BaseSize)
	for i := range first {
		first[i] = byte(i*11 + 3)
	}
	first[15] = 0 // ClassFlags: channel 0, so the first point seeds channel 0

	chunk := buildPoint14Chunk(6, first, 0, make([][]byte, streamCountFor(6, 0)))

	p, err := NewPoint14Decompressor(chunk, 6, 0)
	if err != nil {
		t.Fatalf("NewPoint14Decompressor: %v", err)
	}

	out, err := p.Decompress()
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, first) {
		t.Errorf("first point bytes = %x, want %x", out, first)
	}
}

func TestPoint14DecompressorSubsequentPointDecodesWithoutError(t *testing.T) {
	t.Parallel()

	first := make([]byte, point14BaseSize)
	binary.LittleEndian.PutUint32(first[0:4], 1000)
	binary.LittleEndian.PutUint32(first[4:8], 2000)
	binary.LittleEndian.PutUint32(first[8:12], 300)
	first[14] = 0x11 // returnNumber=1, numberOfReturns=1
	first[15] = 0    // channel 0

	// Only the xy stream is ever unconditionally read (the changed-values
	// symbol, plus dx/dy); every other stream is left zero-size so its
	// field carries forward from the first point, which is the one
	// bit-exact sub-case decodable without a real LAZ encoder to hand.
	// Generous length: decoding one subsequent point touches at most a
	// handful of adaptive-model/integer-decompressor operations, each of
	// which renormalizes a few bytes at a time, so this comfortably avoids
	// exhausting the source mid-decode.
	xyBytes := make([]byte, 1024)
	for i := range xyBytes {
		xyBytes[i] = byte(i*37 + 5)
	}
	streams := make([][]byte, streamCountFor(6, 0))
	streams[0] = xyBytes // xy is stream index 0 in spec.md §4.6's layout

	chunk := buildPoint14Chunk(6, first, 0, streams)

	p, err := NewPoint14Decompressor(chunk, 6, 0)
	if err != nil {
		t.Fatalf("NewPoint14Decompressor: %v", err)
	}
	if _, err := p.Decompress(); err != nil {
		t.Fatalf("Decompress (first point): %v", err)
	}

	out, err := p.Decompress()
	if err != nil {
		t.Fatalf("Decompress (second point): %v", err)
	}
	if len(out) != point14BaseSize {
		t.Fatalf("second point length = %d, want %d", len(out), point14BaseSize)
	}
	if gotChannel := (out[15] >> 4) & 0x03; gotChannel != byte(p.channel) { //nolint:gosec // p.channel < numChannels
		t.Errorf("second point scanner channel bits = %d, want %d (p.channel)", gotChannel, p.channel)
	}
}

func TestNewPoint14DecompressorRejectsBadFormat(t *testing.T) {
	t.Parallel()

	if _, err := NewPoint14Decompressor(make([]byte, 64), 5, 0); err == nil {
		t.Error("want error for unsupported point data format 5")
	}
}

func TestNewPoint14DecompressorRejectsTruncatedChunk(t *testing.T) {
	t.Parallel()

	if _, err := NewPoint14Decompressor(make([]byte, 4), 6, 0); err == nil {
		t.Error("want error for a chunk too short to hold the first-point prefix")
	}
}

func TestChangeStreamContext(t *testing.T) {
	t.Parallel()

	// A zero-value last record has returnNumber()==numberOfReturns()==0,
	// which satisfies the "last return" bit (bit 2) on its own.
	cc := newChannelContext()
	if got := changeStreamContext(cc); got != 2 {
		t.Errorf("changeStreamContext(zero value) = %d, want 2", got)
	}

	cc.last.ReturnByte = 0x11 // returnNumber=1, numberOfReturns=1: both bits set
	cc.gpsTimeChange = true
	if got := changeStreamContext(cc); got != 7 {
		t.Errorf("changeStreamContext = %d, want 7", got)
	}
}

func TestApplyByteDelta(t *testing.T) {
	t.Parallel()

	cases := []struct {
		pred byte
		sym  int
		want byte
	}{
		{100, 128, 100}, // midpoint symbol: no change
		{100, 129, 101}, // +1
		{100, 127, 99},  // -1
		{0, 127, 255},   // wraps low
		{255, 129, 0},   // wraps high
	}
	for _, c := range cases {
		if got := applyByteDelta(c.pred, c.sym); got != c.want {
			t.Errorf("applyByteDelta(%d, %d) = %d, want %d", c.pred, c.sym, got, c.want)
		}
	}
}
