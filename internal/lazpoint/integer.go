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

package lazpoint

import (
	"github.com/copc-go/copc/internal/lazmodel"
	"github.com/copc-go/copc/internal/rangecoder"
)

// bitsHigh is the fixed split point between a corrector's high and low
// parts for large k buckets (spec.md §4.3).
const bitsHigh = 8

// IntegerDecompressor reconstructs a predicted integer by adding an
// entropy-coded corrector, folded back into the field's valid range
// (spec.md §4.3, C4). One instance is shared across every context it was
// constructed with; construct with NewIntegerDecompressor once per field
// kind and reuse across points.
type IntegerDecompressor struct {
	bits     int
	contexts int

	corrBits  int
	corrRange uint32
	corrMin   int32
	corrMax   int32

	kModels         []*lazmodel.MultiSymbolModel
	correctorModels []*lazmodel.MultiSymbolModel
	corrZeroModel   *lazmodel.BinaryModel

	lastK int
}

// NewIntegerDecompressor constructs a decompressor for a field with the
// given bit width and context count. rng, if non-zero, overrides bits to
// derive an explicit corrector range (spec.md §4.3's "optional range");
// pass 0 to derive the range from bits alone.
func NewIntegerDecompressor(bits, contexts int, rng uint32) *IntegerDecompressor {
	ic := &IntegerDecompressor{bits: bits, contexts: contexts}

	switch {
	case rng != 0:
		corrBits := 0
		r := rng
		for r != 0 {
			r >>= 1
			corrBits++
		}
		if rng == (uint32(1) << (corrBits - 1)) {
			corrBits--
		}
		ic.corrBits = corrBits
		ic.corrRange = rng
	case bits > 0 && bits < 32:
		ic.corrBits = bits
		ic.corrRange = uint32(1) << bits
	default:
		ic.corrBits = 32
		ic.corrRange = 0
	}

	//nolint:gosec // corrRange/2 fits in int32 for every field width this module uses
	ic.corrMin = -int32(ic.corrRange / 2)
	ic.corrMax = ic.corrMin + int32(ic.corrRange) - 1 //nolint:gosec // see above

	ic.init()
	return ic
}

// init creates the contexts k-models and corrBits corrector-models exactly
// once (spec.md §4.3 "Init()").
func (ic *IntegerDecompressor) init() {
	ic.kModels = make([]*lazmodel.MultiSymbolModel, ic.contexts)
	for i := range ic.kModels {
		ic.kModels[i] = lazmodel.NewMultiSymbolModel(ic.corrBits+1, nil)
	}

	ic.correctorModels = make([]*lazmodel.MultiSymbolModel, ic.corrBits)
	for k := 1; k <= ic.corrBits; k++ {
		symbols := 1 << k
		if k > bitsHigh {
			symbols = 1 << bitsHigh
		}
		ic.correctorModels[k-1] = lazmodel.NewMultiSymbolModel(symbols, nil)
	}

	ic.corrZeroModel = lazmodel.NewBinaryModel()
}

// GetK returns the k bucket used by the most recent Decompress call,
// forwarded as context to a subsequent coordinate's decoder (spec.md §4.3).
func (ic *IntegerDecompressor) GetK() int { return ic.lastK }

// Decompress reconstructs pred + corrector, folded into [corrMin, corrMax]
// (spec.md §4.3).
func (ic *IntegerDecompressor) Decompress(dec *rangecoder.Decoder, pred int32, ctx int) (int32, error) {
	k, err := dec.DecodeSymbol(ic.kModels[ctx])
	if err != nil {
		return 0, err
	}
	ic.lastK = k

	var c int32
	switch {
	case k == 0:
		bit, err := dec.DecodeBit(ic.corrZeroModel)
		if err != nil {
			return 0, err
		}
		c = int32(bit)
	case k < 32:
		var raw uint32
		if k <= bitsHigh {
			sym, err := dec.DecodeSymbol(ic.correctorModels[k-1])
			if err != nil {
				return 0, err
			}
			raw = uint32(sym)
		} else {
			hi, err := dec.DecodeSymbol(ic.correctorModels[k-1])
			if err != nil {
				return 0, err
			}
			lo, err := dec.ReadBits(k - bitsHigh)
			if err != nil {
				return 0, err
			}
			raw = (uint32(hi) << (k - bitsHigh)) | lo
		}
		half := uint32(1) << (k - 1)
		full := uint32(1) << k
		if raw >= half {
			c = int32(raw) + 1 //nolint:gosec // raw < 2^32, within int32 range for every k this module uses
		} else {
			c = int32(raw) - int32(full-1) //nolint:gosec // same
		}
	default:
		c = ic.corrMin
	}

	real := pred + c
	switch {
	case ic.corrRange != 0 && real < ic.corrMin:
		real += int32(ic.corrRange) //nolint:gosec // corrRange <= 1<<16 for every field this module uses
	case ic.corrRange != 0 && real > ic.corrMax:
		real -= int32(ic.corrRange) //nolint:gosec // see above
	}
	return real, nil
}
