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
	"fmt"
	"hash/crc32"
	"io"

	"github.com/ppmpack/ppmpack/arith"
	"github.com/ppmpack/ppmpack/ppm"
)

// Compress reads plaintext from in and writes a compressed stream to
// out. order and limit configure the model; maxlen stops compression
// after that many input bytes when positive; reset disables the
// bootstrap pass and bootsiz sizes its history window in KiB.
//
// On success it reports a one-line in/out/bpc summary on errw and
// returns the number of input bytes consumed. On failure it logs a
// single diagnostic line prefixed with the program name and returns -1.
func Compress(in io.Reader, out, errw io.Writer, order, limit int, maxlen int64, reset bool, bootsiz int) int64 {
	n, outlen, err := encode(in, out, order, limit, maxlen, reset, bootsiz)
	if err != nil {
		fmt.Fprintf(errw, "%s: %s\n", self, err)
		return -1
	}
	bpc := 0.0
	if n > 0 {
		bpc = float64(outlen) / float64(n) * 8
	}
	fmt.Fprintf(errw, "%s: in %d -> out %d at %.3f bpc\n", self, n, outlen, bpc)
	return n
}

// Encode is the error-returning form of Compress without the
// diagnostic side channel. It returns the number of plaintext bytes
// consumed.
func Encode(in io.Reader, out io.Writer, order, limit int, maxlen int64, reset bool, bootsiz int) (int64, error) {
	n, _, err := encode(in, out, order, limit, maxlen, reset, bootsiz)
	return n, err
}

func encode(in io.Reader, out io.Writer, order, limit int, maxlen int64, reset bool, bootsiz int) (int64, int64, error) {
	m, err := ppm.NewModel(order, limit, reset, bootsiz)
	if err != nil {
		return 0, 0, err
	}

	bw := bufio.NewWriter(out)
	hdr := make([]byte, 0, headerLen)
	hdr = append(hdr, magic...)
	hdr = append(hdr, byte(order), byte(limit>>8), byte(limit))
	if reset {
		hdr = append(hdr, 0)
	} else {
		hdr = append(hdr, byte(bootsiz))
	}
	if _, err := bw.Write(hdr); err != nil {
		return 0, 0, err
	}

	enc := arith.NewEncoder(bw)
	crc := crc32.NewIEEE()
	br := bufio.NewReader(in)
	d := make([]uint32, ppm.DistLen)

	var n int64
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, 0, err
		}
		c := int(b)

		// seek the longest context giving c a nonzero interval,
		// escaping out of every context that does not
		for ord := m.Order(); ord >= -1; ord-- {
			m.Dist(ord, d)
			if d[c] != d[c+1] {
				break
			}
			if err := enc.Encode(ppm.Escape, d); err != nil {
				return n, 0, err
			}
		}
		if d[c] == d[c+1] {
			return n, 0, fmt.Errorf("zero frequency for symbol %d", c)
		}
		if err := enc.Encode(c, d); err != nil {
			return n, 0, err
		}

		m.Update(c)
		crc.Write([]byte{b})
		if n++; n == maxlen {
			break
		}
	}

	// escape to the -1 level and close with EOS
	for ord := m.Order(); ord >= 0; ord-- {
		m.Dist(ord, d)
		if err := enc.Encode(ppm.Escape, d); err != nil {
			return n, 0, err
		}
	}
	m.Dist(-1, d)
	if err := enc.Encode(ppm.EOS, d); err != nil {
		return n, 0, err
	}
	if err := enc.Finish(); err != nil {
		return n, 0, err
	}

	v := crc.Sum32()
	if _, err := bw.Write([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}); err != nil {
		return n, 0, err
	}
	if err := bw.Flush(); err != nil {
		return n, 0, err
	}
	return n, int64(headerLen) + enc.Len() + trailerLen, nil
}
