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
	"math"

	"github.com/copc-go/copc/copc/copcerr"
	"github.com/copc-go/copc/internal/lazmodel"
	"github.com/copc-go/copc/internal/rangecoder"
)

// point14 record sizes: format 6 carries no color, format 7 adds RGB,
// format 8 adds RGB+NIR (spec.md §4.6, C7).
const (
	point14BaseSize = 30
	point14RGBSize  = 36
	point14NIRSize  = 38
)

// numChannels is the scanner-channel context count LAZ 1.4 multiplexes
// position and attribute streams across (spec.md §4.6).
const numChannels = 4

func clampIndex(v, maxIdx int) int {
	if v > maxIdx {
		return maxIdx
	}
	if v < 0 {
		return 0
	}
	return v
}

type point14 struct {
	X, Y, Z        int32
	Intensity      uint16
	ReturnByte     byte // returnNumber (low nibble) | numberOfReturns (high nibble)
	ClassFlags     byte // classification flags | scanner channel | scanDir | edgeOfFlight
	Classification byte
	UserData       byte
	ScanAngle      int16
	PointSourceID  uint16
	GPSTime        float64
	RGB            [3]uint16
	NIR            uint16
}

func (p point14) returnNumber() int    { return int(p.ReturnByte & 0x0F) }
func (p point14) numberOfReturns() int { return int((p.ReturnByte >> 4) & 0x0F) }

func parsePoint14(buf []byte, hasRGB, hasNIR bool) point14 {
	p := point14{
		//nolint:gosec // on-disk fields are i32 per LAS 1.4 point formats 6/7/8
		X: int32(binary.LittleEndian.Uint32(buf[0:4])),
		//nolint:gosec // see above
		Y: int32(binary.LittleEndian.Uint32(buf[4:8])),
		//nolint:gosec // see above
		Z:              int32(binary.LittleEndian.Uint32(buf[8:12])),
		Intensity:      binary.LittleEndian.Uint16(buf[12:14]),
		ReturnByte:     buf[14],
		ClassFlags:     buf[15],
		Classification: buf[16],
		UserData:       buf[17],
		//nolint:gosec // on-disk scan angle is a signed i16
		ScanAngle:     int16(binary.LittleEndian.Uint16(buf[18:20])),
		PointSourceID: binary.LittleEndian.Uint16(buf[20:22]),
		GPSTime:       math.Float64frombits(binary.LittleEndian.Uint64(buf[22:30])),
	}
	if hasRGB {
		p.RGB[0] = binary.LittleEndian.Uint16(buf[30:32])
		p.RGB[1] = binary.LittleEndian.Uint16(buf[32:34])
		p.RGB[2] = binary.LittleEndian.Uint16(buf[34:36])
	}
	if hasNIR {
		p.NIR = binary.LittleEndian.Uint16(buf[36:38])
	}
	return p
}

func (p point14) marshal(hasRGB, hasNIR bool) []byte {
	size := point14BaseSize
	switch {
	case hasNIR:
		size = point14NIRSize
	case hasRGB:
		size = point14RGBSize
	}
	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(p.X))  //nolint:gosec // wraps as the on-disk i32 bit pattern
	binary.LittleEndian.PutUint32(buf[4:8], uint32(p.Y))  //nolint:gosec // see above
	binary.LittleEndian.PutUint32(buf[8:12], uint32(p.Z)) //nolint:gosec // see above
	binary.LittleEndian.PutUint16(buf[12:14], p.Intensity)
	buf[14] = p.ReturnByte
	buf[15] = p.ClassFlags
	buf[16] = p.Classification
	buf[17] = p.UserData
	binary.LittleEndian.PutUint16(buf[18:20], uint16(p.ScanAngle)) //nolint:gosec // reinterprets signed i16 as its bit pattern
	binary.LittleEndian.PutUint16(buf[20:22], p.PointSourceID)
	binary.LittleEndian.PutUint64(buf[22:30], math.Float64bits(p.GPSTime))
	if hasRGB {
		binary.LittleEndian.PutUint16(buf[30:32], p.RGB[0])
		binary.LittleEndian.PutUint16(buf[32:34], p.RGB[1])
		binary.LittleEndian.PutUint16(buf[34:36], p.RGB[2])
	}
	if hasNIR {
		binary.LittleEndian.PutUint16(buf[36:38], p.NIR)
	}
	return buf
}

// channelContext is the per-scanner-channel model and predictor state
// Point14Decompressor's nine sub-decoders share (spec.md §4.6's
// "ChannelContext"). multiExtremeCounter is part of the declared state but
// is not exercised by the 18-step procedure spec.md §4.6 specifies; it is
// kept to match the documented layout (see DESIGN.md).
type channelContext struct {
	haveLast bool
	last     point14

	changedValuesModel   [8]*lazmodel.MultiSymbolModel
	scannerChannelModel  *lazmodel.MultiSymbolModel
	returnNumberModel    [16]*lazmodel.MultiSymbolModel
	numberOfReturnsModel [16]*lazmodel.MultiSymbolModel
	rnGpsSameModel       *lazmodel.MultiSymbolModel
	classificationModel  [64]*lazmodel.MultiSymbolModel
	flagsModel           [64]*lazmodel.MultiSymbolModel
	userDataModel        [64]*lazmodel.MultiSymbolModel
	gpsTimeMultiModel    *lazmodel.MultiSymbolModel
	gpsTime0DiffModel    *lazmodel.MultiSymbolModel

	rgbUsedModel  *lazmodel.MultiSymbolModel
	rgbDiffModels [6]*lazmodel.MultiSymbolModel

	dx, dy, z, intensity, scanAngle, pointSourceID, gpsTimeCorrector *IntegerDecompressor

	lastIntensity       [8]uint16
	lastZ               [8]int32
	lastGpsTime         [4]float64
	lastGpsTimeDiff     [4]int64
	multiExtremeCounter [4]int
	xDiffMedian         [12]StreamingMedian
	yDiffMedian         [12]StreamingMedian
	gpsTimeChange       bool
}

func newChannelContext() *channelContext {
	cc := &channelContext{}
	for i := range cc.changedValuesModel {
		cc.changedValuesModel[i] = lazmodel.NewMultiSymbolModel(128, nil)
	}
	cc.scannerChannelModel = lazmodel.NewMultiSymbolModel(3, nil)
	for i := range cc.returnNumberModel {
		cc.returnNumberModel[i] = lazmodel.NewMultiSymbolModel(16, nil)
	}
	for i := range cc.numberOfReturnsModel {
		cc.numberOfReturnsModel[i] = lazmodel.NewMultiSymbolModel(16, nil)
	}
	cc.rnGpsSameModel = lazmodel.NewMultiSymbolModel(32, nil)
	for i := range cc.classificationModel {
		cc.classificationModel[i] = lazmodel.NewMultiSymbolModel(256, nil)
	}
	for i := range cc.flagsModel {
		cc.flagsModel[i] = lazmodel.NewMultiSymbolModel(64, nil)
	}
	for i := range cc.userDataModel {
		cc.userDataModel[i] = lazmodel.NewMultiSymbolModel(256, nil)
	}
	cc.gpsTimeMultiModel = lazmodel.NewMultiSymbolModel(515, nil)
	cc.gpsTime0DiffModel = lazmodel.NewMultiSymbolModel(5, nil)

	cc.rgbUsedModel = lazmodel.NewMultiSymbolModel(128, nil)
	for i := range cc.rgbDiffModels {
		cc.rgbDiffModels[i] = lazmodel.NewMultiSymbolModel(256, nil)
	}

	cc.dx = NewIntegerDecompressor(32, 2, 0)
	cc.dy = NewIntegerDecompressor(32, 22, 0)
	cc.z = NewIntegerDecompressor(32, 20, 0)
	cc.intensity = NewIntegerDecompressor(16, 4, 0)
	cc.scanAngle = NewIntegerDecompressor(16, 2, 0)
	cc.pointSourceID = NewIntegerDecompressor(16, 1, 0)
	cc.gpsTimeCorrector = NewIntegerDecompressor(32, 9, 0)
	return cc
}

// decodeGPSTime reconstructs the next GPS time by stepping the previous
// value's IEEE-754 bit pattern by a decoded integer (spec.md §4.6.a: "apply
// to the double's bit representation"). gpsTime0DiffModel's exact
// triggering rule beyond "no history yet" is an open question (see
// DESIGN.md); the 515/5 symbol counts and the bit-pattern stepping
// architecture are implemented as specified.
func (cc *channelContext) decodeGPSTime(dec *rangecoder.Decoder) (float64, error) {
	multi, err := dec.DecodeSymbol(cc.gpsTimeMultiModel)
	if err != nil {
		return 0, fmt.Errorf("decode gps time multi symbol: %w", err)
	}

	bits := int64(math.Float64bits(cc.last.GPSTime)) //nolint:gosec // reinterpreted as a bit pattern, not a value

	switch {
	case multi == 0:
		return cc.last.GPSTime, nil
	case multi == 1:
		step := cc.lastGpsTimeDiff[0]
		gt := math.Float64frombits(uint64(bits + step)) //nolint:gosec // bit-pattern arithmetic
		cc.lastGpsTime[0] = gt
		return gt, nil
	default:
		var pred int32
		if cc.lastGpsTimeDiff[0] == 0 {
			if _, err := dec.DecodeSymbol(cc.gpsTime0DiffModel); err != nil {
				return 0, fmt.Errorf("decode gps time zero-diff case: %w", err)
			}
		} else {
			pred = int32(cc.lastGpsTimeDiff[0]) //nolint:gosec // step corrector is bounded by its 32-bit field
		}
		step, err := cc.gpsTimeCorrector.Decompress(dec, pred, 0)
		if err != nil {
			return 0, fmt.Errorf("decode gps time step: %w", err)
		}
		cc.lastGpsTimeDiff[0] = int64(step)
		gt := math.Float64frombits(uint64(bits + int64(step))) //nolint:gosec // bit-pattern arithmetic
		cc.lastGpsTime[0] = gt
		return gt, nil
	}
}

// applyByteDelta folds a 256-symbol corrector decoded around its midpoint
// onto pred (spec.md §4.6.b: "all bytes are corrector deltas added to the
// previous channel's value").
func applyByteDelta(pred byte, sym int) byte {
	return byte(int32(pred) + int32(sym) - 128) //nolint:gosec // intentional mod-256 wrap
}

// decodeRGB implements spec.md §4.6.b's bit-packed RGB decompression.
func (cc *channelContext) decodeRGB(dec *rangecoder.Decoder, last [3]uint16) ([3]uint16, error) {
	sym, err := dec.DecodeSymbol(cc.rgbUsedModel)
	if err != nil {
		return last, fmt.Errorf("decode rgb used symbol: %w", err)
	}

	rLo, rHi := byte(last[0]), byte(last[0]>>8)     //nolint:gosec // byte split of a 16-bit field
	gLo, gHi := byte(last[1]), byte(last[1]>>8)     //nolint:gosec // see above
	bLo, bHi := byte(last[2]), byte(last[2]>>8)     //nolint:gosec // see above

	if sym&0x01 != 0 {
		s, err := dec.DecodeSymbol(cc.rgbDiffModels[0])
		if err != nil {
			return last, fmt.Errorf("decode rgb r-low: %w", err)
		}
		rLo = applyByteDelta(rLo, s)
	}
	if sym&0x02 != 0 {
		s, err := dec.DecodeSymbol(cc.rgbDiffModels[1])
		if err != nil {
			return last, fmt.Errorf("decode rgb r-high: %w", err)
		}
		rHi = applyByteDelta(rHi, s)
	}
	newR := uint16(rLo) | uint16(rHi)<<8

	var newG, newB uint16
	if sym&0x40 != 0 {
		diffRLo := int32(rLo) - int32(byte(last[0]))     //nolint:gosec // byte split
		diffRHi := int32(rHi) - int32(byte(last[0]>>8))  //nolint:gosec // byte split

		gLoOut, gHiOut := gLo, gHi
		if sym&0x04 != 0 {
			pred := byte(int32(gLo) + diffRLo) //nolint:gosec // predictor, folded like every other corrector
			s, err := dec.DecodeSymbol(cc.rgbDiffModels[2])
			if err != nil {
				return last, fmt.Errorf("decode rgb g-low: %w", err)
			}
			gLoOut = applyByteDelta(pred, s)
		}
		if sym&0x08 != 0 {
			pred := byte(int32(gHi) + diffRHi) //nolint:gosec // see above
			s, err := dec.DecodeSymbol(cc.rgbDiffModels[3])
			if err != nil {
				return last, fmt.Errorf("decode rgb g-high: %w", err)
			}
			gHiOut = applyByteDelta(pred, s)
		}
		newG = uint16(gLoOut) | uint16(gHiOut)<<8

		diffGLo := int32(gLoOut) - int32(gLo)
		diffGHi := int32(gHiOut) - int32(gHi)

		bLoOut, bHiOut := bLo, bHi
		if sym&0x10 != 0 {
			pred := byte(int32(bLo) + (diffRLo+diffGLo)/2) //nolint:gosec // predictor
			s, err := dec.DecodeSymbol(cc.rgbDiffModels[4])
			if err != nil {
				return last, fmt.Errorf("decode rgb b-low: %w", err)
			}
			bLoOut = applyByteDelta(pred, s)
		}
		if sym&0x20 != 0 {
			pred := byte(int32(bHi) + (diffRHi+diffGHi)/2) //nolint:gosec // predictor
			s, err := dec.DecodeSymbol(cc.rgbDiffModels[5])
			if err != nil {
				return last, fmt.Errorf("decode rgb b-high: %w", err)
			}
			bHiOut = applyByteDelta(pred, s)
		}
		newB = uint16(bLoOut) | uint16(bHiOut)<<8
	} else {
		newG = newR
		newB = newR
	}

	return [3]uint16{newR, newG, newB}, nil
}

// point14Streams holds the chunk's per-field sub-decoders, one per
// non-zero-size stream in spec.md §4.6's layout box. A nil field means
// that stream's size was zero and its value carries forward unchanged.
type point14Streams struct {
	xy, z, class, flags                           *rangecoder.Decoder
	intensity, scanAngle, userData, pointSourceID *rangecoder.Decoder
	gpsTime, rgb, nir                             *rangecoder.Decoder
	extra                                         []*rangecoder.Decoder
}

// Point14Decompressor decompresses LAS point data formats 6, 7, and 8
// (spec.md §4.6, C7) over nine independently arithmetic-coded substreams
// sliced out of the chunk at construction time, plus the RGB and (skipped)
// NIR/extra-byte substreams.
type Point14Decompressor struct {
	hasRGB         bool
	hasNIR         bool
	extraByteCount int

	streams point14Streams

	channels     [numChannels]*channelContext
	channel      int
	firstRecord  []byte
	decodedFirst bool
}

// NewPoint14Decompressor parses data as one LAZ 1.4 chunk encoded at
// pointFormat (6, 7, or 8) with extraByteCount bytes of per-point "extra
// bytes" beyond the format's base record (spec.md §4.6, §4.7). It reads the
// uncompressed first-point prefix, the chunk point count, and the
// stream-size table, then slices the remainder into one independent
// rangecoder.Decoder per non-empty stream.
func NewPoint14Decompressor(data []byte, pointFormat, extraByteCount int) (*Point14Decompressor, error) {
	if pointFormat < 6 || pointFormat > 8 {
		return nil, fmt.Errorf("point14: %w: point data format %d", copcerr.ErrUnsupported, pointFormat)
	}
	if extraByteCount < 0 {
		return nil, fmt.Errorf("point14: %w: negative extra byte count %d", copcerr.ErrCorrupt, extraByteCount)
	}

	p := &Point14Decompressor{
		hasRGB:         pointFormat >= 7,
		hasNIR:         pointFormat == 8,
		extraByteCount: extraByteCount,
	}
	for c := range p.channels {
		p.channels[c] = newChannelContext()
	}

	cur := 0
	readN := func(n int) ([]byte, error) {
		if n < 0 || cur+n > len(data) {
			return nil, fmt.Errorf("point14: %w: chunk truncated reading %d bytes at offset %d",
				copcerr.ErrCorrupt, n, cur)
		}
		b := data[cur : cur+n]
		cur += n
		return b, nil
	}

	firstSize := point14BaseSize
	switch {
	case p.hasNIR:
		firstSize = point14NIRSize
	case p.hasRGB:
		firstSize = point14RGBSize
	}
	firstRaw, err := readN(firstSize)
	if err != nil {
		return nil, err
	}
	p.firstRecord = append([]byte(nil), firstRaw...)

	if extraByteCount > 0 {
		if _, err := readN(extraByteCount); err != nil {
			return nil, fmt.Errorf("point14: read first-point extra bytes: %w", err)
		}
	}

	if _, err := readN(4); err != nil { // chunk point count: read and discard
		return nil, fmt.Errorf("point14: read chunk point count: %w", err)
	}

	streamCount := 9
	if p.hasRGB {
		streamCount++
	}
	if p.hasNIR {
		streamCount++
	}
	streamCount += extraByteCount

	sizes := make([]int, streamCount)
	for i := range sizes {
		b, err := readN(4)
		if err != nil {
			return nil, fmt.Errorf("point14: read stream size table: %w", err)
		}
		//nolint:gosec // stream sizes are bounded by the chunk's own byte length
		sizes[i] = int(binary.LittleEndian.Uint32(b))
	}

	idx := 0
	mkStream := func() (*rangecoder.Decoder, error) {
		size := sizes[idx]
		idx++
		if size == 0 {
			return nil, nil
		}
		b, err := readN(size)
		if err != nil {
			return nil, fmt.Errorf("point14: read stream bytes: %w", err)
		}
		dec, err := rangecoder.NewDecoder(rangecoder.NewSource(b))
		if err != nil {
			return nil, fmt.Errorf("point14: init sub-decoder: %w", err)
		}
		return dec, nil
	}

	for _, dst := range []**rangecoder.Decoder{
		&p.streams.xy, &p.streams.z, &p.streams.class, &p.streams.flags,
		&p.streams.intensity, &p.streams.scanAngle, &p.streams.userData,
		&p.streams.pointSourceID, &p.streams.gpsTime,
	} {
		dec, err := mkStream()
		if err != nil {
			return nil, err
		}
		*dst = dec
	}
	if p.hasRGB {
		dec, err := mkStream()
		if err != nil {
			return nil, err
		}
		p.streams.rgb = dec
	}
	if p.hasNIR {
		dec, err := mkStream()
		if err != nil {
			return nil, err
		}
		p.streams.nir = dec
	}
	p.streams.extra = make([]*rangecoder.Decoder, extraByteCount)
	for i := range p.streams.extra {
		dec, err := mkStream()
		if err != nil {
			return nil, err
		}
		p.streams.extra[i] = dec
	}

	return p, nil
}

// Decompress reads the next record: the chunk's uncompressed first-point
// prefix verbatim, or the next point decoded from the nine substreams
// (spec.md §4.6).
func (p *Point14Decompressor) Decompress() ([]byte, error) {
	if !p.decodedFirst {
		p.decodedFirst = true
		return p.decompressFirst()
	}
	return p.decompressNext()
}

func (p *Point14Decompressor) decompressFirst() ([]byte, error) {
	rec := parsePoint14(p.firstRecord, p.hasRGB, p.hasNIR)
	ch := int((rec.ClassFlags >> 4) & 0x03)

	cc := p.channels[ch]
	cc.haveLast = true
	cc.last = rec
	for i := range cc.lastIntensity {
		cc.lastIntensity[i] = rec.Intensity
	}
	for i := range cc.lastZ {
		cc.lastZ[i] = rec.Z
	}
	cc.lastGpsTime[0] = rec.GPSTime
	p.channel = ch

	return append([]byte(nil), p.firstRecord...), nil
}

// changeStreamContext derives the 3-bit key into changedValuesModel from
// the previous point's (returnNumber==1, lastReturn, gpsTimeChangeFlag)
// (spec.md §4.6's ChangedValuesModel bullet).
func changeStreamContext(cc *channelContext) int {
	ctx := 0
	if cc.last.returnNumber() == 1 {
		ctx |= 1
	}
	if cc.last.returnNumber() == cc.last.numberOfReturns() {
		ctx |= 2
	}
	if cc.gpsTimeChange {
		ctx |= 4
	}
	return ctx
}

const (
	changedRNPlus             = 0x01
	changedRNMinus            = 0x02
	changedNRChanges          = 0x04
	changedScanAngle          = 0x08
	changedGPSTime            = 0x10
	changedPointSource        = 0x20
	changedScannerChannel     = 0x40
)

// decompressNext implements spec.md §4.6's 18-step subsequent-point
// procedure.
func (p *Point14Decompressor) decompressNext() ([]byte, error) {
	cc := p.channels[p.channel]
	changeCtx := changeStreamContext(cc)

	// 1. Channel select.
	changed, err := p.streams.xy.DecodeSymbol(cc.changedValuesModel[changeCtx])
	if err != nil {
		return nil, fmt.Errorf("decode changed-values symbol: %w", err)
	}
	if changed&changedScannerChannel != 0 {
		delta, err := p.streams.xy.DecodeSymbol(cc.scannerChannelModel)
		if err != nil {
			return nil, fmt.Errorf("decode scanner channel delta: %w", err)
		}
		p.channel = (p.channel + delta + 1) % numChannels
		newCC := p.channels[p.channel]
		// 2. Inherit from the previous channel's last point if unseen.
		if !newCC.haveLast {
			newCC.haveLast = true
			newCC.last = cc.last
		}
		cc = newCC
	}

	rec := cc.last
	// 3. Update Flags bits 4-5 to the new scanner channel.
	rec.ClassFlags = (rec.ClassFlags &^ 0x30) | byte(p.channel<<4) //nolint:gosec // channel < numChannels

	n := rec.numberOfReturns()
	// 4. numberOfReturns change.
	if changed&changedNRChanges != 0 {
		sym, err := p.streams.xy.DecodeSymbol(cc.numberOfReturnsModel[clampIndex(n, 15)])
		if err != nil {
			return nil, fmt.Errorf("decode number of returns: %w", err)
		}
		n = sym
	}

	gpsTimeChanged := changed&changedGPSTime != 0
	r := rec.returnNumber()
	// 5. Return number delta.
	switch changed & (changedRNPlus | changedRNMinus) {
	case changedRNPlus:
		r++
	case changedRNMinus:
		r--
	case changedRNPlus | changedRNMinus:
		model := cc.rnGpsSameModel
		if gpsTimeChanged {
			model = cc.returnNumberModel[clampIndex(n, 15)]
		}
		sym, err := p.streams.xy.DecodeSymbol(model)
		if err != nil {
			return nil, fmt.Errorf("decode return number: %w", err)
		}
		r = sym
	}
	r = clampIndex(r, 15)
	n = clampIndex(n, 15)
	rec.ReturnByte = byte(r) | byte(n<<4) //nolint:gosec // r, n < 16

	// 6. xy context.
	m := returnMap14[n][r]
	xyContext := m << 1
	if gpsTimeChanged {
		xyContext |= 1
	}
	n1Ctx := 0
	if n == 1 {
		n1Ctx = 1
	}

	// 7. dx.
	dx, err := cc.dx.Decompress(p.streams.xy, cc.xDiffMedian[xyContext].Get(), n1Ctx)
	if err != nil {
		return nil, fmt.Errorf("decode dx: %w", err)
	}
	cc.xDiffMedian[xyContext].Add(dx)
	rec.X = cc.last.X + dx

	// 8. dy.
	kX := cc.dx.GetK()
	dy, err := cc.dy.Decompress(p.streams.xy, cc.yDiffMedian[xyContext].Get(), n1Ctx|clampK(kX, 20))
	if err != nil {
		return nil, fmt.Errorf("decode dy: %w", err)
	}
	cc.yDiffMedian[xyContext].Add(dy)
	rec.Y = cc.last.Y + dy
	kY := cc.dy.GetK()

	// 9. z.
	if p.streams.z != nil {
		level := returnLevel14[n][r]
		z, err := cc.z.Decompress(p.streams.z, cc.lastZ[level], n1Ctx|clampK((kX+kY)/2, 18))
		if err != nil {
			return nil, fmt.Errorf("decode z: %w", err)
		}
		cc.lastZ[level] = z
		rec.Z = z
	}

	// 10. classification.
	if p.streams.class != nil {
		bit := 0
		if r == 1 && r >= n {
			bit = 1
		}
		idx := clampIndex((int(rec.Classification&0x1F)<<1)|bit, 63)
		sym, err := p.streams.class.DecodeSymbol(cc.classificationModel[idx])
		if err != nil {
			return nil, fmt.Errorf("decode classification: %w", err)
		}
		rec.Classification = byte(sym) //nolint:gosec // sym < 256
	}

	// 11. flags (classification flags + scan direction + edge of flight).
	if p.streams.flags != nil {
		low := rec.ClassFlags & 0x0F
		scanDir := (rec.ClassFlags >> 6) & 1
		eof := (rec.ClassFlags >> 7) & 1
		idx := clampIndex(int(low)|int(scanDir)<<4|int(eof)<<5, 63)
		sym, err := p.streams.flags.DecodeSymbol(cc.flagsModel[idx])
		if err != nil {
			return nil, fmt.Errorf("decode flags: %w", err)
		}
		newLow := byte(sym) & 0x0F
		newScanDir := (byte(sym) >> 4) & 1
		newEof := (byte(sym) >> 5) & 1
		rec.ClassFlags = (rec.ClassFlags & 0x30) | newLow | newScanDir<<6 | newEof<<7
	}

	// 12. intensity (no "changed" bit gates this one; only stream presence).
	if p.streams.intensity != nil {
		ictx := 0
		if gpsTimeChanged {
			ictx |= 1
		}
		if r >= n {
			ictx |= 2
		}
		if r == 1 {
			ictx |= 4
		}
		v, err := cc.intensity.Decompress(p.streams.intensity, int32(cc.lastIntensity[ictx]), ictx>>1)
		if err != nil {
			return nil, fmt.Errorf("decode intensity: %w", err)
		}
		cc.lastIntensity[ictx] = uint16(v) //nolint:gosec // intensity is a 16-bit field
		rec.Intensity = uint16(v)          //nolint:gosec // see above
	}

	// 13. scan angle.
	if changed&changedScanAngle != 0 && p.streams.scanAngle != nil {
		ctx := 0
		if gpsTimeChanged {
			ctx = 1
		}
		v, err := cc.scanAngle.Decompress(p.streams.scanAngle, int32(rec.ScanAngle), ctx)
		if err != nil {
			return nil, fmt.Errorf("decode scan angle: %w", err)
		}
		rec.ScanAngle = int16(v) //nolint:gosec // scan angle is a 16-bit field
	}

	// 14. user data.
	if p.streams.userData != nil {
		idx := clampIndex(int(rec.UserData)/4, 63)
		sym, err := p.streams.userData.DecodeSymbol(cc.userDataModel[idx])
		if err != nil {
			return nil, fmt.Errorf("decode user data: %w", err)
		}
		rec.UserData = byte(sym) //nolint:gosec // sym < 256
	}

	// 15. point source id.
	if changed&changedPointSource != 0 && p.streams.pointSourceID != nil {
		v, err := cc.pointSourceID.Decompress(p.streams.pointSourceID, int32(rec.PointSourceID), 0)
		if err != nil {
			return nil, fmt.Errorf("decode point source id: %w", err)
		}
		rec.PointSourceID = uint16(v) //nolint:gosec // point source id is a 16-bit field
	}

	// 16. gps time.
	if gpsTimeChanged && p.streams.gpsTime != nil {
		gt, err := cc.decodeGPSTime(p.streams.gpsTime)
		if err != nil {
			return nil, fmt.Errorf("decode gps time: %w", err)
		}
		rec.GPSTime = gt
	}

	// 17. save gps-time-change flag.
	cc.gpsTimeChange = gpsTimeChanged

	// 18. RGB (format 7/8); NIR keeps the previous point's value and extra
	// bytes stay zero (out of scope, spec.md §1/§4.6.b).
	if p.hasRGB && p.streams.rgb != nil {
		rgb, err := cc.decodeRGB(p.streams.rgb, cc.last.RGB)
		if err != nil {
			return nil, fmt.Errorf("decode rgb: %w", err)
		}
		rec.RGB = rgb
	}

	cc.last = rec
	return rec.marshal(p.hasRGB, p.hasNIR), nil
}
