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

package ppm

import (
	"fmt"

	"github.com/ppmpack/ppmpack/ints"
)

// Model is a variable-order PPM predictor. It builds cumulative
// frequency distributions for the range coder and updates only the
// contexts consulted while coding each symbol (update exclusion).
// Encoder and decoder must drive an identical call sequence
// Dist(Order)..Dist(-1), Update(c) per symbol or the coded stream
// desynchronizes.
//
// A Model is not safe for concurrent use.
type Model struct {
	tab   *table
	order int
	boot  bool

	// recent bytes, newest first, as a ring: at(0) is the newest
	ctx     []byte
	ctxHead int
	ctxLen  int

	// key bases (child keys with an empty trailing byte) of the
	// contexts consulted by Dist since the last Update
	visit []uint64
}

// NewModel validates the configuration and builds a model.
// order is the maximum context length; limit is the context table
// memory budget in MiB. reset disables the bootstrap pass, leaving
// only a plain table clear when memory runs out; otherwise bootsiz
// (KiB) sizes the history window the bootstrap re-primes from.
func NewModel(order, limit int, reset bool, bootsiz int) (*Model, error) {
	if order < OrderMin || order > OrderMax {
		return nil, fmt.Errorf("ppm: accepted order is %d-%d", OrderMin, OrderMax)
	}
	if limit < LimitMin || limit > LimitMax {
		return nil, fmt.Errorf("ppm: accepted limit is %d-%d MiB", LimitMin, LimitMax)
	}
	history := order
	if !reset {
		if bootsiz < BootMin || bootsiz > BootMax {
			return nil, fmt.Errorf("ppm: accepted bootstrap size is %d-%d KiB", BootMin, BootMax)
		}
		history = bootsiz * 1024
	}
	return &Model{
		tab:   newTable(limit),
		order: order,
		boot:  !reset,
		ctx:   make([]byte, history),
		visit: make([]uint64, 0, order+1),
	}, nil
}

// Order returns the configured maximum context order.
func (m *Model) Order() int {
	return m.order
}

// at returns the i-th most recent context byte; at(0) is the newest.
func (m *Model) at(i int) byte {
	return m.ctx[(m.ctxHead+i)%len(m.ctx)]
}

// push prepends c to the context, dropping the oldest byte once the
// history window is at capacity.
func (m *Model) push(c byte) {
	m.ctxHead--
	if m.ctxHead < 0 {
		m.ctxHead += len(m.ctx)
	}
	m.ctx[m.ctxHead] = c
	if m.ctxLen < len(m.ctx) {
		m.ctxLen++
	}
}

// Dist writes the cumulative frequency distribution at context order
// ord into d, which must have DistLen entries. It is called with ord
// decreasing from Order down to -1 for each coded symbol; d carries
// across calls, and a call only adds mass to symbols that are
// zero-width in d as the previous call left it. Symbols that had mass
// there collapse to zero width in the rebuilt d, so the exclusion
// reaches back one order only; a context with an empty follower
// bitmap clears d entirely. d[c+1] is the right interval edge of
// symbol c and d[EOS+1] the total mass.
func (m *Model) Dist(ord int, d []uint32) {
	if ord == m.order {
		clear(d)
	}

	// order -1: frequency 1 for every symbol which is zero-width in d
	// as the previous call left it, EOS included
	if ord == -1 {
		var run, last uint32
		for c := 0; c <= EOS; c++ {
			if d[c+1] == last {
				run++
			}
			last = d[c+1]
			d[c+1] = run
		}
		return
	}

	// just escapes before enough context has been seen
	if m.ctxLen < ord {
		d[Escape+1] = 1
		d[EOS+1] = 1
		return
	}

	var ctxbits uint64
	for i := 0; i < ord; i++ {
		ctxbits |= uint64(m.at(i)) << (i * 8)
	}
	parent := (0x80+uint64(ord))<<56 | ctxbits
	keybase := (0x81+uint64(ord))<<56 | ctxbits<<8

	vec := m.tab.followerVec(parent)
	if ints.AllZero(vec) {
		// context known but currently empty
		clear(d)
		d[EOS+1] = 1
		d[Escape+1] = 1
		m.visit = append(m.visit, keybase)
		return
	}

	// walk the follower bitmap next to the running cumulative sum;
	// only symbols that are zero-width in d as the previous call left
	// it gain mass
	var run, last uint32
	syms := 0
	w := 0
	mask := uint64(1) << 63
	for c := 0; c <= Alpha; c++ {
		if d[c+1] == last && vec[w]&mask != 0 {
			f := uint32(m.tab.count(keybase | uint64(c)))
			run += f
			if f > 0 {
				syms++
			}
		}
		last = d[c+1]
		d[c+1] = run
		mask >>= 1
		if mask == 0 {
			mask = 1 << 63
			w++
		}
	}

	// escape frequency is the count of distinct symbols in context;
	// EOS carries no mass of its own at order >= 0
	esc := uint32(syms)
	if syms == 0 {
		esc = 1
	}
	d[EOS+1] = run + esc
	d[Escape+1] = run + esc

	m.visit = append(m.visit, keybase)
}

// Update records symbol c in every context consulted since the last
// call, then advances the context window. Lower-order contexts that
// were not consulted are left untouched. When the table runs out of
// room it is cleared, and re-primed from the history window if
// bootstrap is enabled and the window is full.
//
// Update panics if c is not a literal symbol.
func (m *Model) Update(c int) {
	if c < 0 || c > Alpha {
		panic("ppm: update symbol out of range")
	}
	for _, kb := range m.visit {
		if m.tab.count(kb|uint64(c)) >= MaxFrequency-1 {
			m.rescale()
			break
		}
	}
	for _, kb := range m.visit {
		m.tab.seen(kb | uint64(c))
	}
	m.visit = m.visit[:0]

	if m.tab.full() {
		m.tab.reset()
		if m.boot && m.ctxLen == len(m.ctx) {
			m.bootstrap()
		}
	}
	m.push(byte(c))
}

// rescale halves all table counters before a consulted counter can
// reach MaxFrequency.
func (m *Model) rescale() {
	m.tab.rescale()
}
