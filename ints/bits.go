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

// Package ints provides bitmap helpers shared by the context table
// and the model. Bitmaps are most-significant-bit-first: bit k of
// range "in" lives in word k/width under mask (1 << (width-1)) >> (k % width).
package ints

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// TestBit checks if the k-th bit is set in range "in"
func TestBit[T constraints.Unsigned, K constraints.Integer](in []T, k K) bool {
	w := unsafe.Sizeof(in[0]) * 8
	return (in[uintptr(k)/w] & ((T(1) << (w - 1)) >> (uintptr(k) % w))) != 0
}

// SetBit sets the k-th bit in range "in"
func SetBit[T constraints.Unsigned, K constraints.Integer](in []T, k K) {
	w := unsafe.Sizeof(in[0]) * 8
	in[uintptr(k)/w] |= (T(1) << (w - 1)) >> (uintptr(k) % w)
}

// ClearBit clears the k-th bit in range "in"
func ClearBit[T constraints.Unsigned, K constraints.Integer](in []T, k K) {
	w := unsafe.Sizeof(in[0]) * 8
	in[uintptr(k)/w] &^= (T(1) << (w - 1)) >> (uintptr(k) % w)
}

// AllZero reports whether no bit is set in range "in"
func AllZero[T constraints.Unsigned](in []T) bool {
	var acc T
	for i := range in {
		acc |= in[i]
	}
	return acc == 0
}
