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

package rangecoder

import (
	"fmt"
	"math"

	"github.com/copc-go/copc/internal/lazmodel"
)

// MinLength and MaxLength bound the decoder's range width (spec.md §4.1).
const (
	MinLength = 1 << 24
	MaxLength = 0xFFFFFFFF
)

// Decoder is the stateful LAZ arithmetic decoder: it narrows a
// [value, value+length) interval over a Source, either against an adaptive
// model (DecodeBit, DecodeSymbol) or as a raw fixed-width field (ReadBits
// and friends). Not safe for concurrent use (spec.md §5).
type Decoder struct {
	src    *Source
	value  uint32
	length uint32
}

// NewDecoder initializes a Decoder over src: length starts at MaxLength and
// value is loaded from the first four bytes of src, big-endian within the
// word (spec.md §4.1, scenario S6).
func NewDecoder(src *Source) (*Decoder, error) {
	d := &Decoder{src: src, length: MaxLength}
	for range 4 {
		b, err := src.NextByte()
		if err != nil {
			return nil, fmt.Errorf("initialize arithmetic decoder: %w", err)
		}
		d.value = (d.value << 8) | uint32(b)
	}
	return d, nil
}

// renormalize restores length >= MinLength by shifting in fresh bytes,
// after every operation that narrows the interval (spec.md §4.1).
func (d *Decoder) renormalize() error {
	for d.length < MinLength {
		b, err := d.src.NextByte()
		if err != nil {
			return fmt.Errorf("renormalize arithmetic decoder: %w", err)
		}
		d.value = (d.value << 8) | uint32(b)
		d.length <<= 8
	}
	return nil
}

// DecodeBit decodes one bit against m, updating m's statistics (spec.md
// §4.1 decodeBit / §4.2 binary model).
func (d *Decoder) DecodeBit(m *lazmodel.BinaryModel) (int, error) {
	x := m.Bit0Prob * (d.length >> lazmodel.BMLengthShift)

	var sym int
	if d.value < x {
		sym = 0
		d.length = x
		m.Bit0Count++
	} else {
		sym = 1
		d.value -= x
		d.length -= x
	}

	if err := d.renormalize(); err != nil {
		return 0, err
	}

	m.BitsUntilUpdate--
	if m.BitsUntilUpdate == 0 {
		m.Update()
	}
	return sym, nil
}

// DecodeSymbol decodes one symbol against m, updating m's statistics
// (spec.md §4.1 decodeSymbol / §4.2 multi-symbol model). It dispatches to
// the table fast path when m has a decode table, and to direct bisection
// otherwise.
func (d *Decoder) DecodeSymbol(m *lazmodel.MultiSymbolModel) (int, error) {
	var sym int
	var x, y uint32

	if m.HasTable() {
		y = d.length
		length := d.length >> lazmodel.DMLengthShift
		dv := d.value / length
		t := dv >> m.TableShift
		sym = int(m.DecoderTable[t])
		n := int(m.DecoderTable[t+1]) + 1

		for n > sym+1 {
			k := (sym + n) >> 1
			if m.Distribution[k] > dv {
				n = k
			} else {
				sym = k
			}
		}

		x = m.Distribution[sym] * length
		if sym != m.LastSymbol() {
			y = m.Distribution[sym+1] * length
		}
	} else {
		y = d.length
		length := d.length >> lazmodel.DMLengthShift
		n := m.Symbols
		k := n >> 1
		for {
			z := length * m.Distribution[k]
			if z > d.value {
				n = k
				y = z
			} else {
				sym = k
				x = z
			}
			next := (sym + n) >> 1
			if next == k {
				break
			}
			k = next
		}
	}

	d.value -= x
	d.length = y - x

	if err := d.renormalize(); err != nil {
		return 0, err
	}

	m.SymbolCount[sym]++
	m.SymbolsUntilUpdate--
	if m.SymbolsUntilUpdate == 0 {
		m.Update()
	}
	return sym, nil
}

// ReadBit consumes one raw bit directly from the range coder, touching no
// model (spec.md §4.1 "Raw reads").
func (d *Decoder) ReadBit() (uint32, error) {
	d.length >>= 1
	sym := d.value / d.length
	d.value -= d.length * sym
	if err := d.renormalize(); err != nil {
		return 0, err
	}
	if sym > 1 {
		return 0, fmt.Errorf("range coder readBit produced invalid symbol %d", sym)
	}
	return sym, nil
}

// ReadBits consumes k raw bits, 1 <= k <= 32, directly from the range
// coder. For k > 19 it splits into a 16-bit short plus the remaining bits,
// matching the source's fixed-point overflow avoidance (spec.md §4.1).
func (d *Decoder) ReadBits(k int) (uint32, error) {
	if k > 19 {
		lo, err := d.ReadShort()
		if err != nil {
			return 0, err
		}
		hi, err := d.ReadBits(k - 16)
		if err != nil {
			return 0, err
		}
		return uint32(lo) | (hi << 16), nil
	}

	d.length >>= uint32(k) //nolint:gosec // k is a small caller-controlled width
	sym := d.value / d.length
	d.value -= d.length * sym
	if err := d.renormalize(); err != nil {
		return 0, err
	}
	return sym, nil
}

// ReadByte reads a raw 8-bit field.
func (d *Decoder) ReadByte() (byte, error) {
	v, err := d.ReadBits(8)
	return byte(v), err
}

// ReadShort reads a raw 16-bit field.
func (d *Decoder) ReadShort() (uint16, error) {
	v, err := d.ReadBits(16)
	return uint16(v), err
}

// ReadInt reads a raw 32-bit field, composed from two 16-bit reads.
func (d *Decoder) ReadInt() (uint32, error) {
	lo, err := d.ReadShort()
	if err != nil {
		return 0, err
	}
	hi, err := d.ReadShort()
	if err != nil {
		return 0, err
	}
	return uint32(lo) | (uint32(hi) << 16), nil
}

// ReadInt64 reads a raw 64-bit field, composed from two 32-bit reads.
func (d *Decoder) ReadInt64() (uint64, error) {
	lo, err := d.ReadInt()
	if err != nil {
		return 0, err
	}
	hi, err := d.ReadInt()
	if err != nil {
		return 0, err
	}
	return uint64(lo) | (uint64(hi) << 32), nil
}

// ReadFloat reads a raw 32-bit field and reinterprets its bits as an
// IEEE-754 float, via an explicit bit-cast (spec.md §9).
func (d *Decoder) ReadFloat() (float32, error) {
	bits, err := d.ReadInt()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// ReadDouble reads a raw 64-bit field and reinterprets its bits as an
// IEEE-754 double, via an explicit bit-cast (spec.md §9).
func (d *Decoder) ReadDouble() (float64, error) {
	bits, err := d.ReadInt64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}
