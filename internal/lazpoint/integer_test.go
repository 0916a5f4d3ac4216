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
	"testing"

	"github.com/copc-go/copc/internal/rangecoder"
)

func TestIntegerDecompressorRangeDerivation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		bits                          int
		wantCorrBits                  int
		wantCorrRange, wantCorrMin, wantCorrMax int32
	}{
		{16, 16, 65536, -32768, 32767},
		{32, 32, 0, 0, -1},
	}
	for _, c := range cases {
		ic := NewIntegerDecompressor(c.bits, 1, 0)
		if ic.corrBits != c.wantCorrBits {
			t.Errorf("bits=%d: corrBits = %d, want %d", c.bits, ic.corrBits, c.wantCorrBits)
		}
		if int32(ic.corrRange) != c.wantCorrRange { //nolint:gosec // test-only comparison
			t.Errorf("bits=%d: corrRange = %d, want %d", c.bits, ic.corrRange, c.wantCorrRange)
		}
		if ic.corrMin != c.wantCorrMin || ic.corrMax != c.wantCorrMax {
			t.Errorf("bits=%d: [corrMin,corrMax] = [%d,%d], want [%d,%d]",
				c.bits, ic.corrMin, ic.corrMax, c.wantCorrMin, c.wantCorrMax)
		}
		if len(ic.kModels) != 1 {
			t.Errorf("bits=%d: want 1 k-model, got %d", c.bits, len(ic.kModels))
		}
		if len(ic.correctorModels) != c.wantCorrBits {
			t.Errorf("bits=%d: want %d corrector models, got %d", c.bits, c.wantCorrBits, len(ic.correctorModels))
		}
	}
}

func TestIntegerDecompressorDecompressProducesNoError(t *testing.T) {
	t.Parallel()

	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i * 37)
	}
	dec, err := rangecoder.NewDecoder(rangecoder.NewSource(data))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	ic := NewIntegerDecompressor(16, 4, 0)
	for ctx := range 4 {
		if _, err := ic.Decompress(dec, 100, ctx); err != nil {
			t.Fatalf("Decompress(ctx=%d): %v", ctx, err)
		}
	}
	if ic.GetK() < 0 || ic.GetK() > ic.corrBits {
		t.Errorf("GetK() = %d, want in [0, %d]", ic.GetK(), ic.corrBits)
	}
}
