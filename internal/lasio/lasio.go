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

// Package lasio implements the minimal slice of the LAS 1.4 file format this
// module needs to locate COPC content: the fixed 375-byte header and the
// variable-length-record scan that locates the mandatory COPC Info VLR and
// the optional WKT VLR (spec.md §6.1). It is not a general LAS reader/writer
// (that is explicitly out of scope, spec.md §1) — only the fields the core
// decompressor and the COPC container parser consume are exposed.
//
// Grounded in the teacher's chd/header.go: a fixed-offset binary struct read
// with the layout documented inline next to each field read, the same style
// used here despite LAS being little-endian where CHD is big-endian.
package lasio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/copc-go/copc/copc/copcerr"
	"github.com/copc-go/copc/internal/iohelp"
)

// HeaderSize is the fixed size of the LAS 1.4 header.
const HeaderSize = 375

var fileSignature = [4]byte{'L', 'A', 'S', 'F'}

// Header is the subset of the LAS 1.4 header fields the COPC core uses.
type Header struct {
	VersionMajor uint8
	VersionMinor uint8

	HeaderSize                    uint16
	OffsetToPointData             uint32
	NumberOfVariableLengthRecords uint32

	PointDataFormat       uint8
	PointDataRecordLength uint16

	ScaleX, ScaleY, ScaleZ    float64
	OffsetX, OffsetY, OffsetZ float64
	MaxX, MinX                float64
	MaxY, MinY                float64
	MaxZ, MinZ                float64

	ExtendedNumberOfPointRecords uint64
}

// BasePointFormat returns the point data format with the compressed-flag
// high bits masked off (LAZ sets bit 7 and stores 0x80 | format in some
// historical encoders; COPC stores the plain format here since compression
// is implied by the container, but masking keeps this robust either way).
func (h Header) BasePointFormat() int {
	return int(h.PointDataFormat & 0x3f)
}

// ParseHeader reads and validates the 375-byte LAS 1.4 header from offset 0.
// Only version 1.4 is accepted, per spec.md §4.8 ("Open").
func ParseHeader(r io.ReaderAt) (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return Header{}, fmt.Errorf("read LAS header: %w", err)
	}

	var sig [4]byte
	copy(sig[:], buf[0:4])
	if sig != fileSignature {
		return Header{}, fmt.Errorf("%w: missing LASF file signature", copcerr.ErrNotACopc)
	}

	h := Header{
		VersionMajor: buf[24],
		VersionMinor: buf[25],

		HeaderSize:                    binary.LittleEndian.Uint16(buf[94:96]),
		OffsetToPointData:             binary.LittleEndian.Uint32(buf[96:100]),
		NumberOfVariableLengthRecords: binary.LittleEndian.Uint32(buf[100:104]),

		PointDataFormat:       buf[104],
		PointDataRecordLength: binary.LittleEndian.Uint16(buf[105:107]),

		ScaleX: f64(buf, 131),
		ScaleY: f64(buf, 139),
		ScaleZ: f64(buf, 147),

		OffsetX: f64(buf, 155),
		OffsetY: f64(buf, 163),
		OffsetZ: f64(buf, 171),

		MaxX: f64(buf, 179),
		MinX: f64(buf, 187),
		MaxY: f64(buf, 195),
		MinY: f64(buf, 203),
		MaxZ: f64(buf, 211),
		MinZ: f64(buf, 219),

		ExtendedNumberOfPointRecords: binary.LittleEndian.Uint64(buf[247:255]),
	}

	if h.VersionMajor != 1 || h.VersionMinor != 4 {
		return Header{}, fmt.Errorf("%w: LAS version %d.%d, want 1.4",
			copcerr.ErrNotACopc, h.VersionMajor, h.VersionMinor)
	}
	return h, nil
}

func f64(buf []byte, offset int) float64 {
	return iohelp.BitsToFloat64(binary.LittleEndian.Uint64(buf[offset : offset+8]))
}

// vlrHeaderSize is the fixed portion of a variable length record preceding
// its payload: u16 reserved, 16-byte userId, u16 recordId, u16 recordLength,
// 32-byte description (spec.md §6.1).
const vlrHeaderSize = 54

// VLR is one parsed variable length record: its header fields plus payload.
type VLR struct {
	UserID      string
	RecordID    uint16
	RecordLength uint16
	Payload     []byte
}

// CopcUserID and CopcRecordID identify the mandatory COPC Info VLR.
const (
	CopcUserID   = "copc"
	CopcRecordID = 1
)

// WKTUserID and WKTRecordID identify the optional coordinate-system WKT VLR.
const (
	WKTUserID   = "LASF_Projection"
	WKTRecordID = 2112
)

// ScanVLRs reads count variable length records starting at file offset
// HeaderSize (375, immediately after the LAS header) and returns them in
// file order. A COPC file's first VLR must be the Info VLR; callers that
// need only that one should check result[0] rather than scanning by userId,
// but ScanVLRs itself makes no such assumption so callers can also use it to
// locate the WKT VLR among the rest.
func ScanVLRs(r io.ReaderAt, count uint32) ([]VLR, error) {
	vlrs := make([]VLR, 0, count)
	offset := int64(HeaderSize)

	for i := uint32(0); i < count; i++ {
		hdr := make([]byte, vlrHeaderSize)
		if _, err := r.ReadAt(hdr, offset); err != nil {
			return nil, fmt.Errorf("read VLR %d header at offset %d: %w", i, offset, err)
		}

		userID := iohelp.CleanString(hdr[2:18])
		recordID := binary.LittleEndian.Uint16(hdr[18:20])
		recordLength := binary.LittleEndian.Uint16(hdr[20:22])

		payload := make([]byte, recordLength)
		if recordLength > 0 {
			if _, err := r.ReadAt(payload, offset+vlrHeaderSize); err != nil {
				return nil, fmt.Errorf("read VLR %d payload (%d bytes) at offset %d: %w",
					i, recordLength, offset+vlrHeaderSize, err)
			}
		}

		vlrs = append(vlrs, VLR{
			UserID:       userID,
			RecordID:     recordID,
			RecordLength: recordLength,
			Payload:      payload,
		})

		offset += vlrHeaderSize + int64(recordLength)
	}
	return vlrs, nil
}

// FindCopcInfoVLR scans vlrs for the mandatory COPC Info VLR. Per spec.md
// §3.4/§6.1 it must be the first VLR (file offset exactly 375); ScanVLRs
// guarantees vlrs[0] starts at that offset when count >= 1, so this checks
// index 0 specifically rather than searching the whole slice.
func FindCopcInfoVLR(vlrs []VLR) (VLR, error) {
	if len(vlrs) == 0 || vlrs[0].UserID != CopcUserID || vlrs[0].RecordID != CopcRecordID {
		return VLR{}, fmt.Errorf("%w: COPC Info VLR missing or not at file offset %d",
			copcerr.ErrNotACopc, HeaderSize)
	}
	return vlrs[0], nil
}

// FindWKTVLR scans vlrs for the optional coordinate-system WKT VLR,
// returning ("", false) if absent. The payload is a NUL-terminated ASCII
// string (spec.md §6.1); the terminator is stripped.
func FindWKTVLR(vlrs []VLR) (string, bool) {
	for _, v := range vlrs {
		if v.UserID == WKTUserID && v.RecordID == WKTRecordID {
			return iohelp.CleanString(v.Payload), true
		}
	}
	return "", false
}
