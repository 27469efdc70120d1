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

package ppmpack

import (
	"bufio"
	"bytes"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/ppmpack/ppmpack/arith"
	"github.com/ppmpack/ppmpack/ppm"
)

// Decompress reads a compressed stream from in and writes the
// recovered plaintext to out, verifying the CRC-32 trailer.
//
// On success it returns the number of plaintext bytes produced. On
// failure it logs a single diagnostic line prefixed with the program
// name on errw and returns -1.
func Decompress(in io.Reader, out, errw io.Writer) int64 {
	n, err := Decode(in, out)
	if err != nil {
		fmt.Fprintf(errw, "%s: %s\n", self, err)
		return -1
	}
	return n
}

// Decode is the error-returning form of Decompress without the
// diagnostic side channel. It returns the number of plaintext bytes
// produced.
func Decode(in io.Reader, out io.Writer) (int64, error) {
	br := bufio.NewReader(in)

	hdr := make([]byte, headerLen)
	if _, err := io.ReadFull(br, hdr); err != nil {
		return 0, ErrBadMagic
	}
	if !bytes.Equal(hdr[:len(magic)], magic) {
		return 0, ErrBadMagic
	}
	order := int(hdr[4])
	limit := int(hdr[5])<<8 | int(hdr[6])
	bootsiz := int(hdr[7])

	m, err := ppm.NewModel(order, limit, bootsiz == 0, bootsiz)
	if err != nil {
		return 0, err
	}

	// the decoder shares br, so the trailer read below continues
	// where the code stream stopped
	dec := arith.NewDecoder(br)
	bw := bufio.NewWriter(out)
	crc := crc32.NewIEEE()
	d := make([]uint32, ppm.DistLen)

	var n int64
	for !dec.EOF() {
		c := ppm.Escape
		for ord := m.Order(); ord >= -1; ord-- {
			m.Dist(ord, d)
			if c = dec.Decode(d); c != ppm.Escape {
				break
			}
		}
		if c == ppm.Escape {
			return n, ErrLeakedEscape
		}
		if c == ppm.EOS {
			break
		}
		if err := bw.WriteByte(byte(c)); err != nil {
			return n, err
		}
		m.Update(c)
		crc.Write([]byte{byte(c)})
		n++
	}
	if dec.EOF() {
		return n, ErrTruncated
	}
	if err := bw.Flush(); err != nil {
		return n, err
	}

	// whatever follows the code stream ends with the checksum; fold
	// it so the last four bytes remain
	var v uint32
	for {
		b, err := br.ReadByte()
		if err != nil {
			break
		}
		v = v<<8 | uint32(b)
	}
	if v != crc.Sum32() {
		return n, ErrChecksum
	}
	return n, nil
}
