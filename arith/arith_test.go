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
	"bytes"
	"math/rand"
	"testing"

	"github.com/ppmpack/ppmpack/ppm"
)

// uniform builds a distribution giving every symbol frequency 1.
func uniform() []uint32 {
	d := make([]uint32, ppm.DistLen)
	for c := 0; c <= ppm.EOS; c++ {
		d[c+1] = uint32(c + 1)
	}
	return d
}

// skewed builds a distribution with frequency c%7+1 for literal c,
// frequency 3 for Escape and 1 for EOS.
func skewed() []uint32 {
	d := make([]uint32, ppm.DistLen)
	var run uint32
	for c := 0; c <= ppm.Alpha; c++ {
		run += uint32(c%7 + 1)
		d[c+1] = run
	}
	d[ppm.Escape+1] = run + 3
	d[ppm.EOS+1] = run + 4
	return d
}

func roundTripSymbols(t *testing.T, dist []uint32, syms []int) {
	t.Helper()
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, c := range syms {
		if err := enc.Encode(c, dist); err != nil {
			t.Fatalf("encode: %s", err)
		}
	}
	if err := enc.Encode(ppm.EOS, dist); err != nil {
		t.Fatalf("encode EOS: %s", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("finish: %s", err)
	}
	if enc.Len() != int64(buf.Len()) {
		t.Fatalf("Len %d does not match %d bytes written", enc.Len(), buf.Len())
	}

	dec := NewDecoder(bytes.NewReader(buf.Bytes()))
	for i, want := range syms {
		got := dec.Decode(dist)
		if got != want {
			t.Fatalf("symbol %d: got %d want %d", i, got, want)
		}
	}
	if got := dec.Decode(dist); got != ppm.EOS {
		t.Fatalf("expected EOS, got %d", got)
	}
	if dec.EOF() {
		t.Fatal("decoder ran out of input before EOS")
	}
}

func TestRoundTripUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	syms := make([]int, 10000)
	for i := range syms {
		syms[i] = rng.Intn(ppm.Alpha + 1)
	}
	roundTripSymbols(t, uniform(), syms)
}

func TestRoundTripSkewed(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	syms := make([]int, 10000)
	for i := range syms {
		syms[i] = rng.Intn(ppm.Alpha + 1)
	}
	roundTripSymbols(t, skewed(), syms)
}

func TestRoundTripEscapes(t *testing.T) {
	// escape-heavy streams exercise the narrow end of the coder
	rng := rand.New(rand.NewSource(2))
	syms := make([]int, 5000)
	for i := range syms {
		if rng.Intn(3) == 0 {
			syms[i] = ppm.Escape
		} else {
			syms[i] = rng.Intn(ppm.Alpha + 1)
		}
	}
	roundTripSymbols(t, skewed(), syms)
}

// TestRoundTripAdaptive drives encoder and decoder through the same
// deterministic sequence of changing distributions, the way the model
// does.
func TestRoundTripAdaptive(t *testing.T) {
	const n = 5000
	dists := func() *rand.Rand { return rand.New(rand.NewSource(3)) }
	mkdist := func(rng *rand.Rand) []uint32 {
		d := make([]uint32, ppm.DistLen)
		var run uint32
		for c := 0; c <= ppm.Alpha; c++ {
			run += uint32(rng.Intn(4)) // some symbols get no mass
			d[c+1] = run
		}
		d[ppm.Escape+1] = run + 1
		d[ppm.EOS+1] = run + 1
		return d
	}
	pick := func(rng *rand.Rand, d []uint32) int {
		for {
			c := rng.Intn(ppm.Alpha + 1)
			if d[c+1] != d[c] {
				return c
			}
		}
	}

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	rng := dists()
	sel := rand.New(rand.NewSource(4))
	want := make([]int, n)
	for i := range want {
		d := mkdist(rng)
		want[i] = pick(sel, d)
		if err := enc.Encode(want[i], d); err != nil {
			t.Fatalf("encode: %s", err)
		}
	}
	last := mkdist(rng)
	last[ppm.EOS+1] = last[ppm.Escape+1] + 1 // give EOS mass to stop
	if err := enc.Encode(ppm.EOS, last); err != nil {
		t.Fatalf("encode EOS: %s", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("finish: %s", err)
	}

	dec := NewDecoder(bytes.NewReader(buf.Bytes()))
	rng = dists()
	for i := range want {
		d := mkdist(rng)
		if got := dec.Decode(d); got != want[i] {
			t.Fatalf("symbol %d: got %d want %d", i, got, want[i])
		}
	}
	last = mkdist(rng)
	last[ppm.EOS+1] = last[ppm.Escape+1] + 1
	if got := dec.Decode(last); got != ppm.EOS {
		t.Fatalf("expected EOS, got %d", got)
	}
}

func TestDecoderEmptyInput(t *testing.T) {
	dec := NewDecoder(bytes.NewReader(nil))
	if !dec.EOF() {
		t.Fatal("empty input should flag EOF")
	}
	if got := dec.Decode(uniform()); got != ppm.EOS {
		t.Fatalf("expected EOS on empty input, got %d", got)
	}
}
