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

package copcinfo

import (
	"testing"

	"github.com/copc-go/copc/copc/voxel"
)

// FuzzParseCopcInfo fuzzes COPC Info VLR payload parsing. Parse must never
// panic and must reject anything that isn't exactly Size bytes.
func FuzzParseCopcInfo(f *testing.F) {
	f.Add([]byte{})
	f.Add(make([]byte, Size))
	f.Add(make([]byte, Size-1))
	f.Add(make([]byte, Size+1))

	valid := Marshal(Info{
		Center:              voxel.Vec3{X: 1, Y: 2, Z: 3},
		HalfSize:            512,
		RootSpacing:         1,
		RootHierarchyOffset: 1000,
		RootHierarchySize:   64,
		GPSTimeMin:          0,
		GPSTimeMax:          100,
	})
	f.Add(valid)

	allOnes := make([]byte, Size)
	for i := range allOnes {
		allOnes[i] = 0xFF
	}
	f.Add(allOnes)

	f.Fuzz(func(t *testing.T, data []byte) {
		info, err := Parse(data)
		if err != nil {
			if len(data) != Size {
				return
			}
			t.Fatalf("Parse rejected a %d-byte payload: %v", Size, err)
		}
		if len(data) != Size {
			t.Fatalf("Parse accepted a %d-byte payload, want exactly %d", len(data), Size)
		}
		_ = info.Cube()
	})
}
