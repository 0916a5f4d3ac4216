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

package lasio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildHeader assembles a minimal valid 375-byte LAS 1.4 header with the
// given point format/record length and vlrCount, for table-driven tests.
func buildHeader(pointFormat uint8, recordLength uint16, vlrCount uint32) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], "LASF")
	buf[24] = 1 // version major
	buf[25] = 4 // version minor
	binary.LittleEndian.PutUint16(buf[94:96], HeaderSize)
	binary.LittleEndian.PutUint32(buf[96:100], HeaderSize)
	binary.LittleEndian.PutUint32(buf[100:104], vlrCount)
	buf[104] = pointFormat
	binary.LittleEndian.PutUint16(buf[105:107], recordLength)
	binary.LittleEndian.PutUint64(buf[247:255], 1000)
	return buf
}

type fakeReader struct{ data []byte }

func (f *fakeReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || int(off) > len(f.data) {
		return 0, bytes.ErrTooLarge
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, bytes.ErrTooLarge
	}
	return n, nil
}

func TestParseHeaderOK(t *testing.T) {
	t.Parallel()

	buf := buildHeader(0, 20, 1)
	h, err := ParseHeader(&fakeReader{data: buf})
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.VersionMajor != 1 || h.VersionMinor != 4 {
		t.Errorf("version = %d.%d, want 1.4", h.VersionMajor, h.VersionMinor)
	}
	if h.BasePointFormat() != 0 {
		t.Errorf("BasePointFormat = %d, want 0", h.BasePointFormat())
	}
	if h.PointDataRecordLength != 20 {
		t.Errorf("PointDataRecordLength = %d, want 20", h.PointDataRecordLength)
	}
	if h.ExtendedNumberOfPointRecords != 1000 {
		t.Errorf("ExtendedNumberOfPointRecords = %d, want 1000", h.ExtendedNumberOfPointRecords)
	}
}

func TestParseHeaderRejectsBadSignature(t *testing.T) {
	t.Parallel()

	buf := buildHeader(0, 20, 0)
	copy(buf[0:4], "XXXX")
	if _, err := ParseHeader(&fakeReader{data: buf}); err == nil {
		t.Error("ParseHeader: want error for bad file signature")
	}
}

func TestParseHeaderRejectsWrongVersion(t *testing.T) {
	t.Parallel()

	buf := buildHeader(0, 20, 0)
	buf[25] = 2 // minor version 1.2
	if _, err := ParseHeader(&fakeReader{data: buf}); err == nil {
		t.Error("ParseHeader: want error for version != 1.4")
	}
}

func buildVLRHeader(userID string, recordID, recordLength uint16) []byte {
	buf := make([]byte, vlrHeaderSize)
	u := make([]byte, 16)
	copy(u, userID)
	copy(buf[2:18], u)
	binary.LittleEndian.PutUint16(buf[18:20], recordID)
	binary.LittleEndian.PutUint16(buf[20:22], recordLength)
	return buf
}

func TestScanVLRsFindsCopcInfoAndWKT(t *testing.T) {
	t.Parallel()

	copcPayload := make([]byte, 160)
	copcPayload[0] = 0xAB

	wktPayload := []byte("GEOGCS[\"WGS 84\"]\x00")

	var file bytes.Buffer
	file.Write(make([]byte, HeaderSize))
	file.Write(buildVLRHeader(CopcUserID, CopcRecordID, uint16(len(copcPayload))))
	file.Write(copcPayload)
	file.Write(buildVLRHeader(WKTUserID, WKTRecordID, uint16(len(wktPayload))))
	file.Write(wktPayload)

	r := &fakeReader{data: file.Bytes()}
	vlrs, err := ScanVLRs(r, 2)
	if err != nil {
		t.Fatalf("ScanVLRs: %v", err)
	}
	if len(vlrs) != 2 {
		t.Fatalf("ScanVLRs: got %d VLRs, want 2", len(vlrs))
	}

	info, err := FindCopcInfoVLR(vlrs)
	if err != nil {
		t.Fatalf("FindCopcInfoVLR: %v", err)
	}
	if len(info.Payload) != 160 || info.Payload[0] != 0xAB {
		t.Errorf("FindCopcInfoVLR: payload mismatch")
	}

	wkt, ok := FindWKTVLR(vlrs)
	if !ok {
		t.Fatal("FindWKTVLR: not found")
	}
	if wkt != "GEOGCS[\"WGS 84\"]" {
		t.Errorf("FindWKTVLR: got %q", wkt)
	}
}

func TestFindCopcInfoVLRRejectsMissing(t *testing.T) {
	t.Parallel()

	if _, err := FindCopcInfoVLR(nil); err == nil {
		t.Error("FindCopcInfoVLR: want error when no VLRs present")
	}

	other := []VLR{{UserID: "LASF_Projection", RecordID: 2112}}
	if _, err := FindCopcInfoVLR(other); err == nil {
		t.Error("FindCopcInfoVLR: want error when first VLR is not the COPC Info VLR")
	}
}

func TestFindWKTVLRAbsent(t *testing.T) {
	t.Parallel()

	vlrs := []VLR{{UserID: CopcUserID, RecordID: CopcRecordID, Payload: make([]byte, 160)}}
	if _, ok := FindWKTVLR(vlrs); ok {
		t.Error("FindWKTVLR: want not-found when no WKT VLR present")
	}
}
