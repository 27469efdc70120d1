// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package arith implements the range coder consumed by the stream
// driver: a Witten-Neal-Cleary style arithmetic coder over cumulative
// frequency tables, carried in 64-bit state with a 32-bit code value.
//
// A cumulative table dist follows the ppm layout: dist[c+1] is the
// right edge of symbol c's interval, dist[c] its left edge, and
// dist[ppm.EOS+1] the total mass. The total must stay below
// 1<<(codeValueBits-2) for the coder to keep full precision; the ppm
// model's counter bound guarantees that.
package arith

import (
	"bufio"
	"io"

	"github.com/ppmpack/ppmpack/ppm"
)

const (
	codeValueBits = 32
	topValue      = 1<<codeValueBits - 1
	firstQuarter  = 1 << (codeValueBits - 2)
	half          = 1 << (codeValueBits - 1)
)

// Encoder arithmetic-codes symbols against caller-supplied cumulative
// distributions and writes the code bits to an io.Writer.
type Encoder struct {
	w *bufio.Writer

	low, high uint64

	// opposite bits owed after the next unambiguous bit
	pending uint64

	bits   byte
	nbits  uint
	outlen int64
	err    error
}

// NewEncoder returns an encoder writing code bytes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w), high: topValue}
}

// Encode narrows the code region to symbol c's interval in dist and
// emits any bits that became unambiguous.
func (e *Encoder) Encode(c int, dist []uint32) error {
	if e.err != nil {
		return e.err
	}
	total := uint64(dist[ppm.EOS+1])
	rng := e.high - e.low + 1
	e.high = e.low + rng*uint64(dist[c+1])/total - 1
	e.low = e.low + rng*uint64(dist[c])/total
	for {
		if e.high&half == e.low&half {
			e.bitPlusFollow(e.high&half != 0)
		} else if e.low&firstQuarter != 0 && e.high&firstQuarter == 0 {
			// straddling the middle: defer an opposite bit and
			// subtract the offset to the middle
			e.pending++
			e.low &= firstQuarter - 1
			e.high |= firstQuarter
		} else {
			break
		}
		e.low = e.low << 1 & topValue
		e.high = (e.high<<1 | 1) & topValue
	}
	return e.err
}

// Finish flushes the final code bits: one bit selecting the quarter
// the code region lies in, padding for the partial byte, and
// codeValueBits/8 zero bytes of trailing slack the decoder may read
// past the last code bit.
func (e *Encoder) Finish() error {
	if e.err != nil {
		return e.err
	}
	e.pending++
	e.bitPlusFollow(e.low >= firstQuarter)
	if e.nbits != 0 {
		e.bits <<= 8 - e.nbits
		e.writeByte()
	}
	for i := 0; i < codeValueBits/8; i++ {
		e.bits = 0
		e.writeByte()
	}
	if e.err != nil {
		return e.err
	}
	e.err = e.w.Flush()
	return e.err
}

// Len returns the number of code bytes emitted so far, trailing
// slack included once Finish has run.
func (e *Encoder) Len() int64 {
	return e.outlen
}

// bitPlusFollow writes bit and then any owed opposite bits.
func (e *Encoder) bitPlusFollow(bit bool) {
	e.writeBit(bit)
	for e.pending > 0 {
		e.writeBit(!bit)
		e.pending--
	}
}

func (e *Encoder) writeBit(bit bool) {
	e.bits <<= 1
	if bit {
		e.bits |= 1
	}
	if e.nbits++; e.nbits == 8 {
		e.writeByte()
	}
}

func (e *Encoder) writeByte() {
	if err := e.w.WriteByte(e.bits); err != nil && e.err == nil {
		e.err = err
	}
	e.bits = 0
	e.nbits = 0
	e.outlen++
}
