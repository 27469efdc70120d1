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

package ints

import (
	"math/rand"
	"testing"
)

func TestBitOps(t *testing.T) {
	vec := make([]uint64, 4)
	if !AllZero(vec) {
		t.Fatal("fresh bitmap not all zero")
	}
	// byte 0 maps to the top bit of the first word
	SetBit(vec, 0)
	if vec[0] != 1<<63 {
		t.Fatalf("bit 0: got %#x", vec[0])
	}
	ClearBit(vec, 0)
	if !AllZero(vec) {
		t.Fatal("clear did not undo set")
	}
	// byte 64 crosses into the second word
	SetBit(vec, 64)
	if vec[1] != 1<<63 || vec[0] != 0 {
		t.Fatalf("bit 64: got %#x %#x", vec[0], vec[1])
	}
	ClearBit(vec, 64)

	rng := rand.New(rand.NewSource(0))
	set := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		k := rng.Intn(256)
		if set[k] {
			ClearBit(vec, k)
			delete(set, k)
		} else {
			SetBit(vec, k)
			set[k] = true
		}
		for j := 0; j < 256; j++ {
			if TestBit(vec, j) != set[j] {
				t.Fatalf("step %d: bit %d mismatch", i, j)
			}
		}
	}
}
