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

package copcarchive

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

func openZipEntry(archivePath, internalPath string) (io.ReaderAt, int64, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, 0, fmt.Errorf("open ZIP archive %q: %w", archivePath, err)
	}
	defer func() { _ = r.Close() }()

	want := filepath.ToSlash(internalPath)
	for _, f := range r.File {
		if !strings.EqualFold(f.Name, want) {
			continue
		}
		//nolint:gosec // uncompressed sizes stay well under int64
		size := int64(f.UncompressedSize64)
		return bufferEntry(archivePath, internalPath, func() (io.ReadCloser, int64, error) {
			rc, err := f.Open()
			if err != nil {
				return nil, 0, fmt.Errorf("open %q in %q: %w", internalPath, archivePath, err)
			}
			return rc, size, nil
		})
	}
	return nil, 0, &EntryNotFoundError{ArchivePath: archivePath, InternalPath: internalPath}
}
