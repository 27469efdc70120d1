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

// bootstrap re-primes the freshly cleared table with every context
// window reachable from the history buffer, walking each order from
// the oldest byte to the newest. The caller guarantees the history
// window is full. If an insert fails midway the table is cleared
// again and bootstrap is disabled for the remainder of the stream.
func (m *Model) bootstrap() {
	// preload the tail so the oldest windows wrap around to the
	// newest bytes instead of reading uninitialized text
	var text uint64
	for j := m.order; j >= 0; j-- {
		text = text<<8 | uint64(m.at(j))
	}
	mask := uint64(0xFF)
	for ord := 0; ord <= m.order; ord++ {
		length := (0x81 + uint64(ord)) << 56
		for i := m.ctxLen - 1; i >= 0; i-- {
			text = text<<8 | uint64(m.at(i))
			if !m.tab.seen(length | (mask & text)) {
				m.tab.reset()
				m.boot = false
				return
			}
		}
		mask = mask<<8 | 0xFF
	}
}
