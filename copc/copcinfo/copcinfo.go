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

// Package copcinfo parses the 160-byte COPC Info VLR payload (spec.md §3.4,
// C11). Grounded in the teacher's chd/header.go version-dispatch parser
// (fixed-layout binary struct read with explicit offsets documented inline),
// adapted to COPC's little-endian, single-version layout.
package copcinfo

import (
	"encoding/binary"
	"fmt"

	"github.com/copc-go/copc/copc/copcerr"
	"github.com/copc-go/copc/copc/voxel"
	"github.com/copc-go/copc/internal/iohelp"
)

// Size is the fixed on-disk size of the COPC Info VLR payload.
const Size = 160

// Info is the parsed COPC Info VLR (spec.md §3.4).
type Info struct {
	Center              voxel.Vec3
	HalfSize            float64
	RootSpacing         float64
	RootHierarchyOffset uint64
	RootHierarchySize   uint64
	GPSTimeMin          float64
	GPSTimeMax          float64
}

// Cube returns the COPC octree's root extent.
func (i Info) Cube() voxel.Cube {
	return voxel.Cube{Center: i.Center, HalfSize: i.HalfSize}
}

// Parse decodes a 160-byte COPC Info VLR payload. The 88 reserved trailing
// bytes are ignored on read, per spec.md §3.4.
func Parse(data []byte) (Info, error) {
	if len(data) != Size {
		return Info{}, fmt.Errorf("%w: copc info payload size %d, want %d", copcerr.ErrNotACopc, len(data), Size)
	}

	var info Info
	info.Center.X = f64(data, 0)
	info.Center.Y = f64(data, 8)
	info.Center.Z = f64(data, 16)
	info.HalfSize = f64(data, 24)
	info.RootSpacing = f64(data, 32)
	info.RootHierarchyOffset = binary.LittleEndian.Uint64(data[40:48])
	info.RootHierarchySize = binary.LittleEndian.Uint64(data[48:56])
	info.GPSTimeMin = f64(data, 56)
	info.GPSTimeMax = f64(data, 64)

	return info, nil
}

// Marshal encodes info back into a 160-byte payload (reserved bytes zeroed),
// used only by tests to exercise the round-trip property (spec.md §8
// property 5). This module is read-only per spec.md's Non-goals; this
// helper is not part of the package's operational surface but is exported
// so test files in other packages can build synthetic fixtures.
func Marshal(info Info) []byte {
	buf := make([]byte, Size)
	putF64(buf, 0, info.Center.X)
	putF64(buf, 8, info.Center.Y)
	putF64(buf, 16, info.Center.Z)
	putF64(buf, 24, info.HalfSize)
	putF64(buf, 32, info.RootSpacing)
	binary.LittleEndian.PutUint64(buf[40:48], info.RootHierarchyOffset)
	binary.LittleEndian.PutUint64(buf[48:56], info.RootHierarchySize)
	putF64(buf, 56, info.GPSTimeMin)
	putF64(buf, 64, info.GPSTimeMax)
	return buf
}

func f64(data []byte, offset int) float64 {
	return iohelp.BitsToFloat64(binary.LittleEndian.Uint64(data[offset : offset+8]))
}

func putF64(buf []byte, offset int, v float64) {
	binary.LittleEndian.PutUint64(buf[offset:offset+8], iohelp.Float64ToBits(v))
}
