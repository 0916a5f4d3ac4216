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

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	want := Info{
		Center:              voxel.Vec3{X: 100.5, Y: -200.25, Z: 37.125},
		HalfSize:            512.0,
		RootSpacing:         1.0,
		RootHierarchyOffset: 1234567,
		RootHierarchySize:   890,
		GPSTimeMin:          -1.0,
		GPSTimeMax:          999999.5,
	}

	got, err := Parse(Marshal(want))
	if err != nil {
		t.Fatalf("Parse(Marshal(want)) returned error: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestParseRejectsWrongSize(t *testing.T) {
	t.Parallel()

	if _, err := Parse(make([]byte, Size-1)); err == nil {
		t.Error("expected error for undersized payload")
	}
	if _, err := Parse(make([]byte, Size+1)); err == nil {
		t.Error("expected error for oversized payload")
	}
}
