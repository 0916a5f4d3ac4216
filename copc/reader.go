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

// Package copc is the public entry point for reading Cloud Optimized Point
// Cloud (COPC) files: Reader opens a COPC/LAZ file, exposes its header and
// COPC Info metadata, walks the octree hierarchy, and decompresses point
// data chunks on demand (spec.md §1, §4.8, §6.2).
//
// Grounded in the teacher's chd.Open/CHD (chd/chd.go): an Open constructor
// that reads a header, builds a lazily-loaded index structure, and exposes
// narrow accessor methods plus a Close. copc.Reader follows the same shape,
// generalized to COPC's three-part container (LAS header, COPC Info VLR,
// octree hierarchy) in place of CHD's single header + hunk map.
package copc

import (
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/copc-go/copc/copc/copcerr"
	"github.com/copc-go/copc/copc/copcinfo"
	"github.com/copc-go/copc/copc/hierarchy"
	"github.com/copc-go/copc/copc/voxel"
	"github.com/copc-go/copc/internal/copcarchive"
	"github.com/copc-go/copc/internal/copcio"
	"github.com/copc-go/copc/internal/lasio"
	"github.com/copc-go/copc/internal/lazpoint"
)

// Config is the parsed, read-only metadata a Reader exposes: the LAS
// header, the COPC Info VLR, and the optional WKT coordinate system string
// (spec.md §6.1).
type Config struct {
	LasHeader lasio.Header
	CopcInfo  copcinfo.Info
	WKT       string
}

// Reader is an open COPC file (spec.md §4.8 "Open", §6.2). Construct with
// Open, OpenFS, or OpenReaderAt; call Close when done.
type Reader struct {
	r      io.ReaderAt
	size   int64
	closer io.Closer

	cfg       Config
	tree      *hierarchy.Tree
	byteCache *copcio.PageByteCache
}

// Options configures an Open/OpenFS/OpenReaderAt call.
type Options struct {
	// HierarchyCacheSize bounds how many hierarchy pages the Reader keeps
	// parsed in memory at once. Zero uses hierarchy.DefaultPageCacheSize.
	HierarchyCacheSize int

	// PageByteCacheSize, if positive, attaches a zstd-compressed byte-level
	// cache in front of the hierarchy tree's parsed-page cache (see
	// internal/copcio.PageByteCache), trading CPU for memory so far more
	// pages stay resident than HierarchyCacheSize alone would allow. Most
	// useful when r is a remote/network-backed io.ReaderAt. Zero or a
	// negative value disables it.
	PageByteCacheSize int
}

// Open opens the COPC file at path on the real filesystem.
func Open(path string, opts ...Options) (*Reader, error) {
	return OpenFS(copcio.DefaultFS, path, opts...)
}

// OpenFS opens the COPC file at path on fsys (spec.md's supplemented
// archive-aware open: fsys may be a zip/7z-mounted afero.Fs).
func OpenFS(fsys afero.Fs, path string, opts ...Options) (*Reader, error) {
	f, size, err := copcio.OpenFS(fsys, path)
	if err != nil {
		return nil, err
	}
	r, err := OpenReaderAt(f, size, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// OpenArchiveEntry opens the COPC/LAZ file at internalPath inside the ZIP or
// 7z archive at archivePath (a supplemented feature: distributors commonly
// ship LiDAR tiles bundled into a single archive for transport). The entry
// is buffered into memory by internal/copcarchive before parsing, since
// archive entries are not natively random-access.
func OpenArchiveEntry(archivePath, internalPath string, opts ...Options) (*Reader, error) {
	r, size, err := copcarchive.OpenEntry(archivePath, internalPath)
	if err != nil {
		return nil, err
	}
	return OpenReaderAt(r, size, opts...)
}

// OpenReaderAt opens a COPC file already available as an io.ReaderAt of the
// given size (e.g. a caller-managed os.File, an in-memory buffer, or an
// HTTP range-request reader). The returned Reader does not take ownership
// of r: its Close releases the page byte cache, if any, and never closes r.
func OpenReaderAt(r io.ReaderAt, size int64, opts ...Options) (*Reader, error) {
	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}

	header, err := lasio.ParseHeader(r)
	if err != nil {
		return nil, err
	}

	vlrs, err := lasio.ScanVLRs(r, header.NumberOfVariableLengthRecords)
	if err != nil {
		return nil, fmt.Errorf("scan VLRs: %w", err)
	}

	copcVLR, err := lasio.FindCopcInfoVLR(vlrs)
	if err != nil {
		return nil, err
	}
	info, err := copcinfo.Parse(copcVLR.Payload)
	if err != nil {
		return nil, err
	}

	format := header.BasePointFormat()
	if format != 0 && (format < 6 || format > 8) {
		return nil, &copcerr.UnsupportedFormatError{Format: format}
	}

	wkt, _ := lasio.FindWKTVLR(vlrs)

	//nolint:gosec // RootHierarchySize is checked against the page-size multiple when the Tree loads the root page
	tree, err := hierarchy.NewTree(r, info.RootHierarchyOffset, uint32(info.RootHierarchySize), opt.HierarchyCacheSize)
	if err != nil {
		return nil, err
	}

	var byteCache *copcio.PageByteCache
	if opt.PageByteCacheSize > 0 {
		byteCache, err = copcio.NewPageByteCache(opt.PageByteCacheSize)
		if err != nil {
			return nil, err
		}
		tree.SetByteCache(byteCache)
	}

	return &Reader{
		r:         r,
		size:      size,
		byteCache: byteCache,
		cfg: Config{
			LasHeader: header,
			CopcInfo:  info,
			WKT:       wkt,
		},
		tree: tree,
	}, nil
}

// Config returns the reader's parsed header/COPC-info/WKT metadata.
func (r *Reader) Config() Config { return r.cfg }

// Close releases the Reader's page byte cache, if any, and closes the file
// that Open or OpenFS opened. A Reader from OpenReaderAt or
// OpenArchiveEntry leaves the io.ReaderAt it was given open.
func (r *Reader) Close() error {
	if r.byteCache != nil {
		if err := r.byteCache.Close(); err != nil {
			return fmt.Errorf("close page byte cache: %w", err)
		}
	}
	if r.closer == nil {
		return nil
	}
	if err := r.closer.Close(); err != nil {
		return fmt.Errorf("close COPC file: %w", err)
	}
	return nil
}

// GetNode resolves a voxel key to its hierarchy node, or (nil, nil) if the
// key is not present (spec.md §4.8). Use GetNodeOrErr for a hard failure on
// a missing key.
func (r *Reader) GetNode(key voxel.Key) (*hierarchy.Node, error) {
	return r.tree.GetNode(key)
}

// GetNodeOrErr is GetNode but returns copcerr.NotFoundError instead of a
// nil node, for callers that want a missing key treated as a hard failure
// (spec.md §7's NotFound error kind; see DESIGN.md for why this is split
// from GetNode).
func (r *Reader) GetNodeOrErr(key voxel.Key) (*hierarchy.Node, error) {
	node, err := r.GetNode(key)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &copcerr.NotFoundError{Key: key.String()}
	}
	return node, nil
}

// GetAllNodes returns every node in the hierarchy.
func (r *Reader) GetAllNodes() ([]hierarchy.Node, error) {
	return r.tree.GetAllNodes()
}

// GetNodesIntersectBox returns every node whose spatial extent overlaps box.
func (r *Reader) GetNodesIntersectBox(box voxel.Bounds) ([]hierarchy.Node, error) {
	return r.filterNodes(box, voxel.Bounds.Intersects)
}

// GetNodesWithinBox returns every node whose spatial extent is fully
// contained within box.
func (r *Reader) GetNodesWithinBox(box voxel.Bounds) ([]hierarchy.Node, error) {
	return r.filterNodes(box, func(b, o voxel.Bounds) bool { return o.Contains(b) })
}

func (r *Reader) filterNodes(box voxel.Bounds, keep func(nodeBounds, box voxel.Bounds) bool) ([]hierarchy.Node, error) {
	all, err := r.GetAllNodes()
	if err != nil {
		return nil, err
	}
	cube := r.cfg.CopcInfo.Cube()

	var out []hierarchy.Node
	for _, n := range all {
		if keep(n.Key.GetBounds(cube), box) {
			out = append(out, n)
		}
	}
	return out, nil
}

// GetDepthAtResolution returns the shallowest octree depth whose point
// spacing is at or below resolution.
func (r *Reader) GetDepthAtResolution(resolution float64) int32 {
	return voxel.DepthAtResolution(r.cfg.CopcInfo.RootSpacing, resolution)
}

// GetPointDataCompressed returns the raw, still-arithmetic-coded chunk
// bytes for node, without decompressing them.
func (r *Reader) GetPointDataCompressed(node hierarchy.Node) ([]byte, error) {
	buf := make([]byte, node.ByteSize)
	if _, err := r.r.ReadAt(buf, int64(node.Offset)); err != nil { //nolint:gosec // Offset comes from a validated hierarchy entry
		return nil, fmt.Errorf("read point data for node %s at offset %d: %w", node.Key, node.Offset, err)
	}
	return buf, nil
}

// GetPointData decompresses node's chunk into a flat buffer of fixed-stride
// point records, in the LAS point data format's on-disk layout.
func (r *Reader) GetPointData(node hierarchy.Node) ([]byte, error) {
	compressed, err := r.GetPointDataCompressed(node)
	if err != nil {
		return nil, err
	}

	cd, err := lazpoint.NewChunkDecompressor(compressed, r.cfg.LasHeader.BasePointFormat(), int(r.cfg.LasHeader.PointDataRecordLength))
	if err != nil {
		return nil, err
	}
	flat, err := cd.DecompressChunkFlat(int(node.PointCount))
	if err != nil {
		return nil, fmt.Errorf("decompress node %s (%d points): %w", node.Key, node.PointCount, err)
	}
	return flat, nil
}
