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

// Package copcio provides the filesystem-abstraction layer copc.Reader opens
// files through (spec.md §4.8 "Open"), plus a compressing byte-level cache
// for hierarchy pages read over a slow or remote io.ReaderAt.
//
// Grounded in the teacher's chd.Open (chd/chd.go), which opens a plain
// *os.File directly; this package generalizes that one step to
// github.com/spf13/afero so callers can point a Reader at an in-memory or
// mounted-archive filesystem (spec.md's supplemented "open from an archive"
// feature, see SPEC_FULL.md) without copc itself depending on os directly.
package copcio

import (
	"fmt"

	"github.com/spf13/afero"
)

// DefaultFS is the afero filesystem Open uses: the real OS filesystem.
var DefaultFS = afero.NewOsFs()

// Open opens path on the real filesystem and returns it alongside its size,
// mirroring chd.Open's os.Open-then-stat shape.
func Open(path string) (afero.File, int64, error) {
	return OpenFS(DefaultFS, path)
}

// OpenFS opens path on fsys and returns it alongside its size. The returned
// afero.File satisfies io.ReaderAt, which is all the rest of this module
// needs from it.
func OpenFS(fsys afero.Fs, path string) (afero.File, int64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat %q: %w", path, err)
	}
	return f, info.Size(), nil
}
