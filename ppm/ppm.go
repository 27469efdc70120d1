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

// Package ppm implements an adaptive Prediction by Partial Matching
// symbol model over an 8-bit alphabet. The model predicts the next
// symbol from the longest matching recent context and escapes to
// shorter contexts when the symbol has no frequency there; escape
// frequency in a context is the count of distinct symbols already
// seen in that context. Symbol counts are kept in a bounded-memory
// cuckoo-addressed table that is cleared (and optionally re-primed
// from the recent history window) when it fills up.
package ppm

// Symbol space: bytes 0..Alpha plus the two virtual symbols.
const (
	// Alpha is the largest literal symbol.
	Alpha = 255
	// Escape signals a drop to the next shorter context.
	Escape = 256
	// EOS terminates the symbol stream.
	EOS = 257
)

// DistLen is the length of a cumulative distribution array.
// dist[c+1] holds the right edge of symbol c's interval and dist[c]
// its left edge; dist[EOS+1] is the total mass.
const DistLen = EOS + 2

// Model configuration bounds. NewModel rejects values outside them.
const (
	OrderMin     = 1
	OrderDefault = 3
	OrderMax     = 6

	// Table memory limits in MiB.
	LimitMin     = 8
	LimitDefault = 32
	LimitMax     = 2048

	// Bootstrap history buffer limits in KiB. BootMax must fit the
	// one-byte bootstrap field of the stream header.
	BootMin     = 1
	BootDefault = 32
	BootMax     = 255
)

// MaxFrequency is the exclusive upper bound for a context counter.
// The model rescales preemptively so that no stored count ever
// reaches it.
const MaxFrequency = 0xFFFF
