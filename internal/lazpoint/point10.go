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
	"encoding/binary"
	"fmt"

	"github.com/copc-go/copc/internal/lazmodel"
	"github.com/copc-go/copc/internal/rangecoder"
)

// point10Size is the fixed record length of LAS point data format 0
// (spec.md §4.5, C6).
const point10Size = 20

// point10 is the parsed predictor state Point10Decompressor carries between
// records; RawFlags packs returnNumber/numberOfReturns/scanDirection/
// edgeOfFlightLine exactly as the on-disk byte at offset 14 does.
type point10 struct {
	X, Y, Z         int32
	Intensity       uint16
	RawFlags        byte
	Classification  byte
	ScanAngleRank   byte
	UserData        byte
	PointSourceID   uint16
}

func (p point10) returnNumber() int    { return int(p.RawFlags & 0x07) }
func (p point10) numberOfReturns() int { return int((p.RawFlags >> 3) & 0x07) }

func parsePoint10(buf []byte) point10 {
	return point10{
		//nolint:gosec // on-disk fields are i32 per the LAS 1.4 point format 0 layout
		X: int32(binary.LittleEndian.Uint32(buf[0:4])),
		//nolint:gosec // see above
		Y: int32(binary.LittleEndian.Uint32(buf[4:8])),
		//nolint:gosec // see above
		Z:              int32(binary.LittleEndian.Uint32(buf[8:12])),
		Intensity:      binary.LittleEndian.Uint16(buf[12:14]),
		RawFlags:       buf[14],
		Classification: buf[15],
		ScanAngleRank:  buf[16],
		UserData:       buf[17],
		PointSourceID:  binary.LittleEndian.Uint16(buf[18:20]),
	}
}

func (p point10) marshal() []byte {
	buf := make([]byte, point10Size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(p.X))   //nolint:gosec // wraps as the on-disk i32 bit pattern
	binary.LittleEndian.PutUint32(buf[4:8], uint32(p.Y))   //nolint:gosec // see above
	binary.LittleEndian.PutUint32(buf[8:12], uint32(p.Z))  //nolint:gosec // see above
	binary.LittleEndian.PutUint16(buf[12:14], p.Intensity)
	buf[14] = p.RawFlags
	buf[15] = p.Classification
	buf[16] = p.ScanAngleRank
	buf[17] = p.UserData
	binary.LittleEndian.PutUint16(buf[18:20], p.PointSourceID)
	return buf
}

// Point10Decompressor decompresses LAS point data format 0 records
// (spec.md §4.5, C6). Construct with NewPoint10Decompressor once per chunk.
type Point10Decompressor struct {
	dec *rangecoder.Decoder

	last     point10
	haveLast bool

	lastIntensity [16]uint16
	lastHeight    [8]int32

	xDiffMedian [16]StreamingMedian
	yDiffMedian [16]StreamingMedian

	changedValuesModel *lazmodel.MultiSymbolModel
	scanAngleRankModel [2]*lazmodel.MultiSymbolModel
	bitByteModel       [256]*lazmodel.MultiSymbolModel
	classificationModel [256]*lazmodel.MultiSymbolModel
	userDataModel      [256]*lazmodel.MultiSymbolModel

	intensity     *IntegerDecompressor
	pointSourceID *IntegerDecompressor
	dx            *IntegerDecompressor
	dy            *IntegerDecompressor
	z             *IntegerDecompressor
}

// NewPoint10Decompressor constructs a decompressor reading from dec.
func NewPoint10Decompressor(dec *rangecoder.Decoder) *Point10Decompressor {
	p := &Point10Decompressor{
		dec:                dec,
		changedValuesModel: lazmodel.NewMultiSymbolModel(64, nil),
		intensity:          NewIntegerDecompressor(16, 4, 0),
		pointSourceID:      NewIntegerDecompressor(16, 1, 0),
		dx:                 NewIntegerDecompressor(32, 2, 0),
		dy:                 NewIntegerDecompressor(32, 22, 0),
		z:                  NewIntegerDecompressor(32, 20, 0),
	}
	for i := range p.scanAngleRankModel {
		p.scanAngleRankModel[i] = lazmodel.NewMultiSymbolModel(256, nil)
	}
	for i := range p.bitByteModel {
		p.bitByteModel[i] = lazmodel.NewMultiSymbolModel(256, nil)
		p.classificationModel[i] = lazmodel.NewMultiSymbolModel(256, nil)
		p.userDataModel[i] = lazmodel.NewMultiSymbolModel(256, nil)
	}
	return p
}

// Decompress reads the next raw 20 bytes (first point) or decoded 20 bytes
// (subsequent points), per spec.md §4.5.
func (p *Point10Decompressor) Decompress() ([]byte, error) {
	if !p.haveLast {
		return p.decompressFirst()
	}
	return p.decompressNext()
}

func (p *Point10Decompressor) decompressFirst() ([]byte, error) {
	buf, err := p.readRawBytes(point10Size)
	if err != nil {
		return nil, fmt.Errorf("read first point10 record: %w", err)
	}

	p.last = parsePoint10(buf)
	p.haveLast = true
	p.last.Intensity = 0 // spec.md §4.5: predictor seed, not the emitted value

	m := returnMap[p.last.numberOfReturns()][p.last.returnNumber()]
	p.lastIntensity[m] = 0
	p.lastHeight[returnLevel[p.last.numberOfReturns()][p.last.returnNumber()]] = p.last.Z

	return buf, nil
}

// readRawBytes pulls n raw bytes from the range coder without touching any
// model (used only for the chunk's first point10 record, which is
// stored uncompressed).
func (p *Point10Decompressor) readRawBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := range buf {
		b, err := p.dec.ReadByte()
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}

func (p *Point10Decompressor) decompressNext() ([]byte, error) {
	changed, err := p.dec.DecodeSymbol(p.changedValuesModel)
	if err != nil {
		return nil, fmt.Errorf("decode changed-values symbol: %w", err)
	}

	flags := p.last.RawFlags
	if changed&0x20 != 0 {
		sym, err := p.dec.DecodeSymbol(p.bitByteModel[p.last.RawFlags])
		if err != nil {
			return nil, fmt.Errorf("decode bitfield byte: %w", err)
		}
		flags = byte(sym) //nolint:gosec // sym < 256 by the model's symbol count
	}

	cur := p.last
	cur.RawFlags = flags
	n := cur.numberOfReturns()
	r := cur.returnNumber()
	m := returnMap[n][r]
	l := returnLevel[n][r]

	n1Ctx := 0
	if n == 1 {
		n1Ctx = 1
	}

	dx, err := p.dx.Decompress(p.dec, p.xDiffMedian[m].Get(), n1Ctx)
	if err != nil {
		return nil, fmt.Errorf("decode dx: %w", err)
	}
	p.xDiffMedian[m].Add(dx)
	cur.X = p.last.X + dx

	kX := p.dx.GetK()
	dyCtx := n1Ctx + clampK(kX, 20)
	dy, err := p.dy.Decompress(p.dec, p.yDiffMedian[m].Get(), dyCtx)
	if err != nil {
		return nil, fmt.Errorf("decode dy: %w", err)
	}
	p.yDiffMedian[m].Add(dy)
	cur.Y = p.last.Y + dy

	kY := p.dy.GetK()
	zCtx := n1Ctx + clampK((kX+kY)/2, 18)
	z, err := p.z.Decompress(p.dec, p.lastHeight[l], zCtx)
	if err != nil {
		return nil, fmt.Errorf("decode z: %w", err)
	}
	p.lastHeight[l] = z
	cur.Z = z

	if changed&0x01 != 0 {
		v, err := p.intensity.Decompress(p.dec, int32(p.lastIntensity[m]), m&3)
		if err != nil {
			return nil, fmt.Errorf("decode intensity: %w", err)
		}
		cur.Intensity = uint16(v) //nolint:gosec // intensity is a 16-bit field
		p.lastIntensity[m] = cur.Intensity
	}

	if changed&0x02 != 0 {
		sym, err := p.dec.DecodeSymbol(p.classificationModel[p.last.Classification])
		if err != nil {
			return nil, fmt.Errorf("decode classification: %w", err)
		}
		cur.Classification = byte(sym) //nolint:gosec // sym < 256
	}

	if changed&0x04 != 0 {
		sym, err := p.dec.DecodeSymbol(p.scanAngleRankModel[n1Ctx])
		if err != nil {
			return nil, fmt.Errorf("decode scan angle rank: %w", err)
		}
		cur.ScanAngleRank = byte(sym) //nolint:gosec // sym < 256
	}

	if changed&0x08 != 0 {
		sym, err := p.dec.DecodeSymbol(p.userDataModel[p.last.UserData])
		if err != nil {
			return nil, fmt.Errorf("decode user data: %w", err)
		}
		cur.UserData = byte(sym) //nolint:gosec // sym < 256
	}

	if changed&0x10 != 0 {
		v, err := p.pointSourceID.Decompress(p.dec, int32(p.last.PointSourceID), 0)
		if err != nil {
			return nil, fmt.Errorf("decode point source id: %w", err)
		}
		cur.PointSourceID = uint16(v) //nolint:gosec // point source id is a 16-bit field
	}

	p.last = cur
	return cur.marshal(), nil
}

// clampK implements the "(k < limit ? (k & ~1) : limit)" context-rounding
// idiom used throughout spec.md §4.5/§4.6 to fold a k-bucket into a small
// even-stepped context bucket.
func clampK(k, limit int) int {
	if k < limit {
		return k &^ 1
	}
	return limit
}
