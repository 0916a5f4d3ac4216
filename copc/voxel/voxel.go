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

// Package voxel implements COPC octree key algebra: the (depth, x, y, z)
// addressing scheme used by the hierarchy pages, bounds derivation from the
// COPC cube, and resolution math. Grounded in spec.md §3.1/§4 (C9); the
// teacher repo has no octree of its own, so this package is new code built
// directly from the specification's invariants, laid out as a small value
// type the way the teacher keys its console identifiers with a plain value
// type (identifier.Console in the teacher's identifier package).
package voxel

import (
	"fmt"
	"math"
)

// Key is a node address in the COPC octree: (depth, x, y, z), d >= 0,
// 0 <= x,y,z < 2^d. The zero value is the root key (0,0,0,0).
type Key struct {
	D, X, Y, Z int32
}

// Root is the key of the octree's single level-0 node.
var Root = Key{0, 0, 0, 0}

// Invalid is the sentinel returned by Parent() when called on Root: there is
// no valid parent above the root.
var Invalid = Key{-1, -1, -1, -1}

// String returns the canonical "d-x-y-z" form used as the hierarchy map key.
func (k Key) String() string {
	return fmt.Sprintf("%d-%d-%d-%d", k.D, k.X, k.Y, k.Z)
}

// ParseKey parses the canonical "d-x-y-z" form produced by String back into
// a Key.
func ParseKey(s string) (Key, error) {
	var k Key
	n, err := fmt.Sscanf(s, "%d-%d-%d-%d", &k.D, &k.X, &k.Y, &k.Z)
	if err != nil || n != 4 || k.String() != s {
		return Key{}, fmt.Errorf("parse voxel key %q: want \"d-x-y-z\"", s)
	}
	return k, nil
}

// IsValid reports whether k is a well-formed key (not the Invalid sentinel
// and within the [0, 2^d) range for each coordinate).
func (k Key) IsValid() bool {
	if k.D < 0 {
		return false
	}
	limit := int32(1) << uint32(k.D)
	return k.X >= 0 && k.X < limit && k.Y >= 0 && k.Y < limit && k.Z >= 0 && k.Z < limit
}

// Bisect returns the i'th child of k (i in [0,7]): depth d+1, with each axis
// doubled and offset by the corresponding bit of i (bit 2 = x, bit 1 = y,
// bit 0 = z), per spec.md §3.1.
func (k Key) Bisect(i int) Key {
	return Key{
		D: k.D + 1,
		X: 2*k.X + (int32(i>>2) & 1),
		Y: 2*k.Y + (int32(i>>1) & 1),
		Z: 2*k.Z + (int32(i) & 1),
	}
}

// Parent returns the key's direct parent. Parent() of Root is the Invalid
// sentinel.
func (k Key) Parent() Key {
	if k.D <= 0 {
		return Invalid
	}
	return Key{D: k.D - 1, X: k.X / 2, Y: k.Y / 2, Z: k.Z / 2}
}

// ParentAtDepth returns the ancestor of k at the given depth by repeatedly
// halving each coordinate. ParentAtDepth(k, k.D) == k.
func (k Key) ParentAtDepth(depth int32) Key {
	if depth < 0 || depth > k.D {
		return Invalid
	}
	shift := uint32(k.D - depth)
	return Key{
		D: depth,
		X: k.X >> shift,
		Y: k.Y >> shift,
		Z: k.Z >> shift,
	}
}

// ChildOf reports whether k is a strict descendant of p: k.D > p.D and k's
// ancestor at p's depth equals p.
func (k Key) ChildOf(p Key) bool {
	if k.D <= p.D {
		return false
	}
	return k.ParentAtDepth(p.D) == p
}

// Vec3 is a three-component double-precision point, used for the COPC cube
// center and for bounds corners. It is the only geometric primitive this
// module provides; spec.md §1 excludes AABB/sphere/plane/frustum beyond
// this.
type Vec3 struct {
	X, Y, Z float64
}

// Bounds is an axis-aligned box: the space a Key occupies within the COPC
// cube.
type Bounds struct {
	Min, Max Vec3
}

// Cube describes the COPC octree's root extent: a cube centered at Center
// with half-size HalfSize, per spec.md §3.4's CopcInfo fields.
type Cube struct {
	Center   Vec3
	HalfSize float64
}

// Contains reports whether o is entirely contained within b
// (used by property 7's bounds-containment check and by
// Reader.GetNodesWithinBox).
func (b Bounds) Contains(o Bounds) bool {
	return o.Min.X >= b.Min.X && o.Max.X <= b.Max.X &&
		o.Min.Y >= b.Min.Y && o.Max.Y <= b.Max.Y &&
		o.Min.Z >= b.Min.Z && o.Max.Z <= b.Max.Z
}

// Intersects reports whether b and o overlap (touching at a boundary
// counts as intersecting).
func (b Bounds) Intersects(o Bounds) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// GetBounds computes the axis-aligned box occupied by k within cube, per
// spec.md §3.1: span at depth d is 2*HalfSize / 2^d, and the box is offset
// from the cube's minimum corner by (x,y,z) * span.
func (k Key) GetBounds(cube Cube) Bounds {
	span := 2 * cube.HalfSize / math.Pow(2, float64(k.D))
	minX := cube.Center.X - cube.HalfSize
	minY := cube.Center.Y - cube.HalfSize
	minZ := cube.Center.Z - cube.HalfSize
	return Bounds{
		Min: Vec3{
			X: minX + float64(k.X)*span,
			Y: minY + float64(k.Y)*span,
			Z: minZ + float64(k.Z)*span,
		},
		Max: Vec3{
			X: minX + float64(k.X+1)*span,
			Y: minY + float64(k.Y+1)*span,
			Z: minZ + float64(k.Z+1)*span,
		},
	}
}

// ResolutionAtDepth returns the point spacing at depth d given the root
// (depth-0) spacing: rootSpacing / 2^d.
func ResolutionAtDepth(rootSpacing float64, d int32) float64 {
	return rootSpacing / math.Pow(2, float64(d))
}

// DepthAtResolution returns the smallest depth d such that
// ResolutionAtDepth(rootSpacing, d) <= resolution.
func DepthAtResolution(rootSpacing, resolution float64) int32 {
	if resolution <= 0 || rootSpacing <= 0 {
		return 0
	}
	var d int32
	for ResolutionAtDepth(rootSpacing, d) > resolution {
		d++
		if d > 64 {
			break
		}
	}
	return d
}
