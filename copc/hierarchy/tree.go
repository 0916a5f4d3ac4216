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

package hierarchy

import (
	"fmt"
	"io"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/copc-go/copc/copc/copcerr"
	"github.com/copc-go/copc/copc/voxel"
	"github.com/copc-go/copc/internal/copcio"
)

// DefaultPageCacheSize bounds how many hierarchy pages a Tree keeps loaded
// at once. Pages are small (entries are 32 bytes each) but a pathological
// file could have millions of them; this mirrors the teacher's
// HunkMap.maxCache bound (chd/hunk.go), sized generously since a page is far
// smaller than a CHD hunk.
const DefaultPageCacheSize = 4096

// Tree owns the lazy-loaded COPC hierarchy for one COPC file: it reads
// pages from reader on demand and keeps up to cacheSize parsed pages in an
// LRU cache (spec.md §3.3, §4.8, C10). A page evicted from that cache is
// read again (from the byte cache, if one is attached) and parsed again on
// its next access.
type Tree struct {
	reader     io.ReaderAt
	rootOffset uint64
	rootSize   uint32

	mu        sync.Mutex
	pages     *lru.Cache[string, *Page]
	byteCache *copcio.PageByteCache
}

// SetByteCache attaches an optional compressed byte-level cache in front of
// reader (see internal/copcio.PageByteCache): a page evicted from the
// parsed-page cache can then often be recovered without a round trip back to
// reader, which matters when reader is a remote/network-backed io.ReaderAt.
// Pass nil to detach.
func (t *Tree) SetByteCache(c *copcio.PageByteCache) {
	t.mu.Lock()
	t.byteCache = c
	t.mu.Unlock()
}

// NewTree creates a Tree over reader, given the COPC Info VLR's root
// hierarchy page location.
func NewTree(reader io.ReaderAt, rootOffset uint64, rootSize uint32, cacheSize int) (*Tree, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultPageCacheSize
	}
	cache, err := lru.New[string, *Page](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create hierarchy page cache: %w", err)
	}
	return &Tree{
		reader:     reader,
		rootOffset: rootOffset,
		rootSize:   rootSize,
		pages:      cache,
	}, nil
}

// LoadRootHierarchyPage loads (if not already loaded) and returns the
// hierarchy's root page.
func (t *Tree) LoadRootHierarchyPage() (*Page, error) {
	return t.loadPage(voxel.Root, t.rootOffset, t.rootSize)
}

// loadPage returns the page at (key, offset, size), reading and parsing it
// from disk on first access and caching the result thereafter. byteSize is
// validated to be a non-negative multiple of EntrySize before any
// allocation, per spec.md §7's Corrupt error kind.
func (t *Tree) loadPage(key voxel.Key, offset uint64, byteSize uint32) (*Page, error) {
	cacheKey := key.String()

	t.mu.Lock()
	defer t.mu.Unlock()

	if page, ok := t.pages.Get(cacheKey); ok {
		return page, nil
	}

	if byteSize%EntrySize != 0 {
		return nil, fmt.Errorf("hierarchy page %s: size %d is not a multiple of %d: %w",
			key, byteSize, EntrySize, errCorruptPageSize)
	}

	buf, err := t.readPageBytes(cacheKey, key, offset, byteSize)
	if err != nil {
		return nil, err
	}

	entries, err := ParseEntries(buf)
	if err != nil {
		return nil, fmt.Errorf("parse hierarchy page %s: %w", key, err)
	}

	children := make(map[string]Entry, len(entries))
	for _, e := range entries {
		children[e.Key.String()] = e
	}

	page := &Page{
		Key:      key,
		Offset:   offset,
		//nolint:gosec // on-disk field is int32 per spec.md §3.2
		ByteSize: int32(byteSize),
		Loaded:   true,
		Children: children,
	}
	t.pages.Add(cacheKey, page)
	return page, nil
}

// readPageBytes returns the raw byte contents of a hierarchy page, trying
// the attached byte cache first (the caller must already hold t.mu). On a
// cache miss it reads from t.reader and, if a byte cache is attached, stores
// the result for next time.
func (t *Tree) readPageBytes(cacheKey string, key voxel.Key, offset uint64, byteSize uint32) ([]byte, error) {
	if t.byteCache != nil {
		if cached, ok, err := t.byteCache.Get(cacheKey); err != nil {
			return nil, err
		} else if ok {
			return cached, nil
		}
	}

	buf := make([]byte, byteSize)
	//nolint:gosec // offset comes from a validated hierarchy entry / Info VLR
	if _, err := t.reader.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("read hierarchy page %s at offset %d: %w", key, offset, err)
	}

	if t.byteCache != nil {
		t.byteCache.Put(cacheKey, buf)
	}
	return buf, nil
}

// GetNode resolves a voxel key to its Node, loading only the pages on the
// path from the root to key. Returns (nil, nil) if key is not present in
// the hierarchy (spec.md §4.8/§6.2: "Node?" is nullable by design; see
// DESIGN.md for why this is distinct from the NotFound error kind).
func (t *Tree) GetNode(key voxel.Key) (*Node, error) {
	root, err := t.LoadRootHierarchyPage()
	if err != nil {
		return nil, err
	}
	return t.findNode(root, key)
}

func (t *Tree) findNode(page *Page, target voxel.Key) (*Node, error) {
	for _, e := range page.Children {
		if !e.IsPage() {
			if e.Key == target {
				return nodeFromEntry(e, page.Key), nil
			}
			continue
		}
		if e.Key == target || target.ChildOf(e.Key) {
			child, err := t.loadPage(e.Key, e.Offset, uint32(e.ByteSize)) //nolint:gosec // validated on parse
			if err != nil {
				return nil, err
			}
			return t.findNode(child, target)
		}
	}
	return nil, nil
}

// GetAllNodes walks the entire hierarchy, loading every page it encounters,
// and returns every Node entry found.
func (t *Tree) GetAllNodes() ([]Node, error) {
	root, err := t.LoadRootHierarchyPage()
	if err != nil {
		return nil, err
	}

	var nodes []Node
	var walk func(page *Page) error
	walk = func(page *Page) error {
		for _, e := range page.Children {
			if e.IsPage() {
				child, err := t.loadPage(e.Key, e.Offset, uint32(e.ByteSize)) //nolint:gosec // validated on parse
				if err != nil {
					return err
				}
				if err := walk(child); err != nil {
					return err
				}
				continue
			}
			nodes = append(nodes, *nodeFromEntry(e, page.Key))
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return nodes, nil
}

func nodeFromEntry(e Entry, pageKey voxel.Key) *Node {
	return &Node{
		Key:        e.Key,
		Offset:     e.Offset,
		ByteSize:   e.ByteSize,
		PointCount: e.PointCount,
		PageKey:    pageKey,
	}
}

var errCorruptPageSize = fmt.Errorf("%w: invalid hierarchy page size", copcerr.ErrCorrupt)
