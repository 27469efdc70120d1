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

package arith

import (
	"bufio"
	"io"

	"github.com/ppmpack/ppmpack/ppm"
)

// Decoder mirrors Encoder: it resolves symbols from the code stream
// under caller-supplied cumulative distributions. Once the input is
// exhausted Decode returns ppm.EOS; EOF distinguishes that condition
// from a genuine end-of-stream symbol.
type Decoder struct {
	r *bufio.Reader

	low, high, value uint64

	bits  byte
	nbits uint
	eof   bool
}

// NewDecoder returns a decoder reading code bytes from r, preloading
// the initial code value.
func NewDecoder(r io.Reader) *Decoder {
	d := &Decoder{r: bufio.NewReader(r), high: topValue}
	for i := 0; i < codeValueBits/8; i++ {
		d.value = d.value<<8 | uint64(d.readByte())
	}
	return d
}

// EOF reports whether the code stream ran out of bytes.
func (d *Decoder) EOF() bool {
	return d.eof
}

// Decode resolves the next symbol under dist, narrows the code region
// to its interval and consumes the bits that narrowing released.
// Decoding EOS consumes no input.
func (d *Decoder) Decode(dist []uint32) int {
	if d.eof {
		return ppm.EOS
	}
	rng := d.high - d.low + 1
	total := uint64(dist[ppm.EOS+1])
	freq := uint32(((d.value-d.low+1)*total - 1) / rng)

	c := 0
	for ; c < ppm.EOS; c++ {
		if dist[c+1] > freq {
			break
		}
	}
	if c == ppm.EOS {
		return c
	}

	d.high = d.low + rng*uint64(dist[c+1])/total - 1
	d.low = d.low + rng*uint64(dist[c])/total
	for {
		if d.high&half == d.low&half {
			// matching most significant bit, shift it out
		} else if d.low&firstQuarter != 0 && d.high&firstQuarter == 0 {
			d.value ^= firstQuarter
			d.low &= firstQuarter - 1
			d.high |= firstQuarter
		} else {
			break
		}
		d.low = d.low << 1 & topValue
		d.high = (d.high<<1 | 1) & topValue
		d.value = (d.value<<1 | uint64(d.readBit())) & topValue
	}
	return c
}

func (d *Decoder) readBit() uint64 {
	if d.nbits == 0 {
		d.bits = d.readByte()
		d.nbits = 8
	}
	d.nbits--
	return uint64(d.bits>>d.nbits) & 1
}

func (d *Decoder) readByte() byte {
	b, err := d.r.ReadByte()
	if err != nil {
		d.eof = true
		return 0
	}
	return b
}
