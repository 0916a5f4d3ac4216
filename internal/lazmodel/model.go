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

// Package lazmodel implements the two adaptive probability models the LAZ
// range decoder narrows its interval against: a binary model (single bit,
// spec.md §4.2 "Binary model") and a multi-symbol model with an optional
// decode-table fast path (spec.md §4.2 "Multi-symbol model"). Both are
// plain mutable structs; internal/rangecoder.Decoder reads and writes their
// fields directly while decoding, mirroring how tightly the source format
// couples decoder and model state (spec.md §9: "many small objects with
// cross-references").
//
// Grounded in spec.md §4.2 exactly; the teacher repo has no entropy-coder
// probability model of its own (chd/bitstream.go's Huffman decoder builds a
// static canonical-code table instead of an adaptive model), so this
// package is new code, laid out as small flat structs in the teacher's
// general style of plain exported-field state machines (see chd.Header).
package lazmodel

// BMLengthShift and DMLengthShift are the fixed-point shift widths for
// binary and multi-symbol model probabilities (spec.md §4.1).
const (
	BMLengthShift = 13
	DMLengthShift = 15
)

// BMMaxCount and DMMaxCount bound the running totals before a model halves
// its counts (spec.md §4.2).
const (
	BMMaxCount = 1 << BMLengthShift
	DMMaxCount = 1 << DMLengthShift
)

// BinaryModel is the adaptive model behind Decoder.DecodeBit.
type BinaryModel struct {
	Bit0Count       uint32
	BitCount        uint32
	Bit0Prob        uint32
	UpdateCycle     uint32
	BitsUntilUpdate uint32
}

// NewBinaryModel returns an equiprobable binary model (spec.md §4.2).
func NewBinaryModel() *BinaryModel {
	return &BinaryModel{
		Bit0Count:       1,
		BitCount:        2,
		Bit0Prob:        1 << (BMLengthShift - 1),
		UpdateCycle:     4,
		BitsUntilUpdate: 4,
	}
}

// Update rebuilds Bit0Prob from the accumulated bit counts and resets the
// update cycle (spec.md §4.2).
func (m *BinaryModel) Update() {
	m.BitCount += m.UpdateCycle
	if m.BitCount > BMMaxCount {
		m.Bit0Count = (m.Bit0Count + 1) >> 1
		m.BitCount = (m.BitCount + 1) >> 1
		if m.Bit0Count == m.BitCount {
			m.BitCount++
		}
	}

	m.Bit0Prob = (m.Bit0Count * (0x80000000 / m.BitCount)) >> (31 - BMLengthShift)

	m.UpdateCycle = (5 * m.UpdateCycle) / 4
	if m.UpdateCycle > 64 {
		m.UpdateCycle = 64
	}
	m.BitsUntilUpdate = m.UpdateCycle
}

// MultiSymbolModel is the adaptive model behind Decoder.DecodeSymbol. A
// decode table is built when symbols > 16 (spec.md §4.2).
type MultiSymbolModel struct {
	Symbols int

	Distribution []uint32
	SymbolCount  []uint32

	// DecoderTable is nil when this model has no table fast path.
	DecoderTable []uint32
	TableBits    int
	TableShift   uint32

	TotalCount         uint32
	UpdateCycle        uint32
	SymbolsUntilUpdate uint32
}

// NewMultiSymbolModel constructs a model over the given symbol count. init,
// if non-nil, supplies the initial symbol occurrence counts (spec.md §4.2);
// otherwise every symbol starts with a count of 1.
func NewMultiSymbolModel(symbols int, init []uint32) *MultiSymbolModel {
	m := &MultiSymbolModel{
		Symbols:      symbols,
		Distribution: make([]uint32, symbols),
		SymbolCount:  make([]uint32, symbols),
	}

	if symbols > 16 {
		tableBits := 3
		for symbols > (1 << (tableBits + 2)) {
			tableBits++
		}
		m.TableBits = tableBits
		m.TableShift = uint32(DMLengthShift - tableBits)
		m.DecoderTable = make([]uint32, (1<<tableBits)+2)
	}

	if init != nil {
		copy(m.SymbolCount, init)
	} else {
		for i := range m.SymbolCount {
			m.SymbolCount[i] = 1
		}
	}
	for _, c := range m.SymbolCount {
		m.TotalCount += c
	}

	m.UpdateCycle = uint32((symbols + 6) / 2)
	m.SymbolsUntilUpdate = m.UpdateCycle
	m.Update()
	return m
}

// HasTable reports whether this model has a decode-table fast path.
func (m *MultiSymbolModel) HasTable() bool { return m.DecoderTable != nil }

// LastSymbol returns the highest valid symbol index.
func (m *MultiSymbolModel) LastSymbol() int { return m.Symbols - 1 }

// Update recomputes the cumulative distribution (and decode table, if any)
// from the current symbol counts, and resets the update cycle (spec.md
// §4.2).
func (m *MultiSymbolModel) Update() {
	m.TotalCount += m.UpdateCycle
	if m.TotalCount > DMMaxCount {
		m.TotalCount = 0
		for i := range m.SymbolCount {
			m.SymbolCount[i] = (m.SymbolCount[i] + 1) >> 1
			m.TotalCount += m.SymbolCount[i]
		}
	}

	scale := uint32(0x80000000) / m.TotalCount
	sum := uint32(0)
	for k := 0; k < m.Symbols; k++ {
		m.Distribution[k] = (scale * sum) >> (31 - DMLengthShift)
		sum += m.SymbolCount[k]
	}

	if m.DecoderTable != nil {
		tableSize := 1 << m.TableBits
		s := 0
		for k := 0; k < m.Symbols; k++ {
			w := m.Distribution[k] >> m.TableShift
			for uint32(s) < w {
				s++
				m.DecoderTable[s] = uint32(k - 1) //nolint:gosec // k>=1 whenever w>0, see spec.md §4.2
			}
		}
		m.DecoderTable[0] = 0
		for s <= tableSize {
			s++
			m.DecoderTable[s] = uint32(m.Symbols - 1)
		}
	}

	m.UpdateCycle = (5 * m.UpdateCycle) / 4
	if max := uint32((m.Symbols + 6) * 8); m.UpdateCycle > max {
		m.UpdateCycle = max
	}
	m.SymbolsUntilUpdate = m.UpdateCycle
}
