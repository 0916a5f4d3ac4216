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
	"testing"
)

// FuzzParseLasHeader fuzzes the LAS header parser. ParseHeader must never
// panic, regardless of how short, long, or malformed its input is.
func FuzzParseLasHeader(f *testing.F) {
	f.Add([]byte{})
	f.Add(make([]byte, HeaderSize))
	f.Add(make([]byte, HeaderSize-1))
	f.Add([]byte("LASF"))

	valid := make([]byte, HeaderSize)
	copy(valid[0:4], "LASF")
	valid[24] = 1 // VersionMajor
	valid[25] = 4 // VersionMinor
	f.Add(valid)

	wrongVersion := make([]byte, HeaderSize)
	copy(wrongVersion[0:4], "LASF")
	wrongVersion[24] = 1
	wrongVersion[25] = 2
	f.Add(wrongVersion)

	f.Fuzz(func(t *testing.T, data []byte) {
		h, err := ParseHeader(bytes.NewReader(data))
		if err != nil {
			return
		}
		if h.VersionMajor != 1 || h.VersionMinor != 4 {
			t.Fatalf("ParseHeader accepted version %d.%d, want only 1.4", h.VersionMajor, h.VersionMinor)
		}
		_ = h.BasePointFormat()
	})
}
