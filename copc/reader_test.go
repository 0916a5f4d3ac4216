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

package copc

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/copc-go/copc/copc/copcinfo"
	"github.com/copc-go/copc/copc/hierarchy"
	"github.com/copc-go/copc/copc/voxel"
	"github.com/copc-go/copc/internal/lasio"
	"github.com/copc-go/copc/internal/rangecoder"
)

// synthFile hand-assembles a minimal, self-consistent COPC file in memory:
// a 375-byte LAS 1.4 header, one COPC Info VLR, a one-entry hierarchy root
// page, and one chunk of arithmetic-coded point data. It mirrors the shape
// lasio_test.go's buildHeader/buildVLRHeader build for the lasio package's
// own tests, extended one layer up to a file a Reader can actually Open.
type synthFile struct {
	buf bytes.Buffer
}

func (s *synthFile) writeHeader(pointFormat uint8, recordLength uint16) {
	buf := make([]byte, lasio.HeaderSize)
	copy(buf[0:4], "LASF")
	buf[24] = 1 // version major
	buf[25] = 4 // version minor
	binary.LittleEndian.PutUint16(buf[94:96], lasio.HeaderSize)
	binary.LittleEndian.PutUint32(buf[96:100], lasio.HeaderSize)
	binary.LittleEndian.PutUint32(buf[100:104], 1) // one VLR: the COPC Info VLR
	buf[104] = pointFormat
	binary.LittleEndian.PutUint16(buf[105:107], recordLength)
	s.buf.Write(buf)
}

func writeVLRHeader(buf *bytes.Buffer, userID string, recordID, recordLength uint16) {
	hdr := make([]byte, 54)
	copy(hdr[2:18], userID)
	binary.LittleEndian.PutUint16(hdr[18:20], recordID)
	binary.LittleEndian.PutUint16(hdr[20:22], recordLength)
	buf.Write(hdr)
}

// rawChunkBytes builds 256 bytes of filler from seed, enough for the range
// coder's renormalization to never starve, without
// requiring an actual LAZ encoder: for a single-point chunk, GetPointData's
// only read is the raw first-point path (ChunkDecompressor never reaches the
// predictive second-point machinery), so any sufficiently long byte stream is
// a valid chunk as far as the decoder's control flow is concerned.
func rawChunkBytes(seed byte) []byte {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(int(seed) + i*17)
	}
	return data
}

// referenceDecodeFirstPoint10 decodes the same chunk bytes a second,
// independent decoder would read for the first point10 record, establishing
// the expected value for GetPointData's round trip (the same pattern
// internal/lazpoint's first-point tests use, since the range coder's raw
// reads narrow value/length rather than passing source bytes through
// untouched).
func referenceDecodeFirstPoint10(t *testing.T, data []byte) []byte {
	t.Helper()
	dec, err := rangecoder.NewDecoder(rangecoder.NewSource(data))
	if err != nil {
		t.Fatalf("reference decoder init: %v", err)
	}
	want := make([]byte, 20)
	for i := range want {
		b, err := dec.ReadByte()
		if err != nil {
			t.Fatalf("reference ReadByte(%d): %v", i, err)
		}
		want[i] = b
	}
	return want
}

// buildSynthCopc assembles a complete one-node COPC file (point format 0)
// and returns its bytes alongside the chunk bytes it embedded, so a test can
// independently compute the expected decoded point.
func buildSynthCopc(t *testing.T) (file []byte, chunk []byte) {
	t.Helper()

	var s synthFile
	s.writeHeader(0, 20)

	chunk = rawChunkBytes(0x5A)

	// Hierarchy root page: a single leaf node pointing at the chunk, placed
	// right after the VLR. Its offset is computed once we know the VLR size.
	vlrPayload := copcinfo.Marshal(copcinfo.Info{
		Center:              voxel.Vec3{X: 0, Y: 0, Z: 0},
		HalfSize:            1024,
		RootSpacing:         2,
		RootHierarchyOffset: 0, // patched below
		RootHierarchySize:   hierarchy.EntrySize,
		GPSTimeMin:          0,
		GPSTimeMax:          0,
	})

	hierarchyOffset := uint64(lasio.HeaderSize) + 54 + uint64(len(vlrPayload))
	chunkOffset := hierarchyOffset + hierarchy.EntrySize

	binary.LittleEndian.PutUint64(vlrPayload[40:48], hierarchyOffset)

	writeVLRHeader(&s.buf, lasio.CopcUserID, lasio.CopcRecordID, uint16(len(vlrPayload)))
	s.buf.Write(vlrPayload)

	rootPage := hierarchy.MarshalEntries([]hierarchy.Entry{
		{Key: voxel.Root, Offset: chunkOffset, ByteSize: int32(len(chunk)), PointCount: 1},
	})
	s.buf.Write(rootPage)
	s.buf.Write(chunk)

	return s.buf.Bytes(), chunk
}

type readerAtBytes struct{ data []byte }

func (r *readerAtBytes) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, r.data[off:])
	return n, nil
}

func TestOpenReaderAtParsesConfigAndHierarchy(t *testing.T) {
	t.Parallel()

	file, _ := buildSynthCopc(t)
	r, err := OpenReaderAt(&readerAtBytes{data: file}, int64(len(file)))
	if err != nil {
		t.Fatalf("OpenReaderAt: %v", err)
	}
	defer func() { _ = r.Close() }()

	cfg := r.Config()
	if cfg.LasHeader.BasePointFormat() != 0 {
		t.Errorf("BasePointFormat = %d, want 0", cfg.LasHeader.BasePointFormat())
	}
	if cfg.CopcInfo.RootSpacing != 2 {
		t.Errorf("RootSpacing = %v, want 2", cfg.CopcInfo.RootSpacing)
	}

	node, err := r.GetNodeOrErr(voxel.Root)
	if err != nil {
		t.Fatalf("GetNodeOrErr(root): %v", err)
	}
	if node.PointCount != 1 {
		t.Errorf("node.PointCount = %d, want 1", node.PointCount)
	}
}

func TestGetNodeOrErrReturnsNotFoundForMissingKey(t *testing.T) {
	t.Parallel()

	file, _ := buildSynthCopc(t)
	r, err := OpenReaderAt(&readerAtBytes{data: file}, int64(len(file)))
	if err != nil {
		t.Fatalf("OpenReaderAt: %v", err)
	}
	defer func() { _ = r.Close() }()

	if _, err := r.GetNodeOrErr(voxel.Key{D: 5, X: 5, Y: 5, Z: 5}); err == nil {
		t.Error("GetNodeOrErr: want error for an absent key")
	}
}

func TestGetPointDataRoundTripsThroughRangeCoder(t *testing.T) {
	t.Parallel()

	file, chunk := buildSynthCopc(t)
	r, err := OpenReaderAt(&readerAtBytes{data: file}, int64(len(file)))
	if err != nil {
		t.Fatalf("OpenReaderAt: %v", err)
	}
	defer func() { _ = r.Close() }()

	node, err := r.GetNodeOrErr(voxel.Root)
	if err != nil {
		t.Fatalf("GetNodeOrErr: %v", err)
	}

	got, err := r.GetPointData(*node)
	if err != nil {
		t.Fatalf("GetPointData: %v", err)
	}

	want := referenceDecodeFirstPoint10(t, chunk)
	if !bytes.Equal(got, want) {
		t.Errorf("GetPointData = %x, want %x", got, want)
	}
}

func TestGetPointDataCompressedReturnsRawChunkBytes(t *testing.T) {
	t.Parallel()

	file, chunk := buildSynthCopc(t)
	r, err := OpenReaderAt(&readerAtBytes{data: file}, int64(len(file)))
	if err != nil {
		t.Fatalf("OpenReaderAt: %v", err)
	}
	defer func() { _ = r.Close() }()

	node, err := r.GetNodeOrErr(voxel.Root)
	if err != nil {
		t.Fatalf("GetNodeOrErr: %v", err)
	}

	got, err := r.GetPointDataCompressed(*node)
	if err != nil {
		t.Fatalf("GetPointDataCompressed: %v", err)
	}
	if !bytes.Equal(got, chunk) {
		t.Errorf("GetPointDataCompressed returned different bytes than were embedded")
	}
}

func TestStatSummarizesSingleNodeHierarchy(t *testing.T) {
	t.Parallel()

	file, _ := buildSynthCopc(t)
	r, err := OpenReaderAt(&readerAtBytes{data: file}, int64(len(file)))
	if err != nil {
		t.Fatalf("OpenReaderAt: %v", err)
	}
	defer func() { _ = r.Close() }()

	stat, err := r.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if stat.NodeCount != 1 {
		t.Errorf("NodeCount = %d, want 1", stat.NodeCount)
	}
	if stat.TotalPoints != 1 {
		t.Errorf("TotalPoints = %d, want 1", stat.TotalPoints)
	}
}

func TestOpenReaderAtRejectsUnsupportedPointFormat(t *testing.T) {
	t.Parallel()

	var s synthFile
	s.writeHeader(3, 34) // format 3 is neither 0 nor 6/7/8
	vlrPayload := copcinfo.Marshal(copcinfo.Info{RootHierarchySize: hierarchy.EntrySize})
	writeVLRHeader(&s.buf, lasio.CopcUserID, lasio.CopcRecordID, uint16(len(vlrPayload)))
	s.buf.Write(vlrPayload)

	file := s.buf.Bytes()
	if _, err := OpenReaderAt(&readerAtBytes{data: file}, int64(len(file))); err == nil {
		t.Error("OpenReaderAt: want error for an unsupported point data format")
	}
}

func TestOpenReaderAtWithPageByteCacheOption(t *testing.T) {
	t.Parallel()

	file, _ := buildSynthCopc(t)
	r, err := OpenReaderAt(&readerAtBytes{data: file}, int64(len(file)), Options{PageByteCacheSize: 8})
	if err != nil {
		t.Fatalf("OpenReaderAt: %v", err)
	}
	defer func() { _ = r.Close() }()

	if _, err := r.GetNodeOrErr(voxel.Root); err != nil {
		t.Fatalf("GetNodeOrErr: %v", err)
	}
	if r.byteCache == nil {
		t.Error("byteCache: want non-nil when PageByteCacheSize > 0")
	}
}
