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
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/dchest/siphash"

	"github.com/ppmpack/ppmpack/ints"
)

// rootKey is the parent key of the order-0 context. It is re-seeded
// on every reset so order-0 children always find a follower bitmap.
const rootKey = uint64(0x80) << 56

// tagMask selects the length tag byte of a context key.
const tagMask = uint64(0xFF) << 56

// maxKicks bounds the cuckoo displacement chain; exceeding it marks
// the table full.
const maxKicks = 500

// vecWords is the number of 64-bit words in a follower bitmap.
const vecWords = (Alpha + 1) / 64

// slotBytes is the memory charged per slot when sizing the table:
// key, count, follower index, and a half share of a follower bitmap
// (two hash functions give a load factor around 50%, so half as many
// bitmaps as slots suffice).
const slotBytes = 8 + 2 + 4 + (vecWords*8)/2

// table maps 64-bit context keys to 16-bit frequency counters under a
// fixed memory budget, plus a follower bitmap per parent key. Keys are
// placed with two hash functions and bounded displacement; when no
// placement is possible the table reports full and the model clears it
// instead of rehashing.
type table struct {
	keys      []uint64
	counts    []uint16
	followers []uint32 // per-slot bitmap index into vecs; 0 = none

	// follower bitmaps, bump-allocated in vecWords chunks and
	// recycled only by reset
	vecs    []uint64
	vecAt   uint32
	vecMax  uint32
	zeroVec [vecWords]uint64

	// memoized parent lookup; bitmap indexes are stable across
	// displacement, so the memo survives inserts
	lastKey uint64
	lastIdx uint32

	isFull bool
}

// newTable sizes the slot count from the memory limit in MiB.
func newTable(limit int) *table {
	n := (limit << 20) / slotBytes
	t := &table{
		keys:      make([]uint64, n),
		counts:    make([]uint16, n),
		followers: make([]uint32, n),
		vecs:      make([]uint64, (n/2)*vecWords),
		vecMax:    uint32(n / 2),
	}
	t.reset()
	return t
}

// reset clears all entries and follower bitmaps.
func (t *table) reset() {
	clear(t.keys)
	clear(t.counts)
	clear(t.followers)
	clear(t.vecs)
	t.vecAt = 1 // index 0 means no bitmap
	t.lastKey = 0
	t.lastIdx = 0
	t.isFull = false
	t.seen(rootKey)
}

func (t *table) h1(key uint64) uint32 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], key)
	return uint32(siphash.Hash(0, 0, b[:]) % uint64(len(t.keys)))
}

func (t *table) h2(key uint64) uint32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], key)
	return uint32(xxhash.Sum64(b[:]) % uint64(len(t.keys)))
}

// find returns the slot holding key.
func (t *table) find(key uint64) (uint32, bool) {
	if a := t.h1(key); t.keys[a] == key {
		return a, true
	}
	if b := t.h2(key); t.keys[b] == key {
		return b, true
	}
	return 0, false
}

func (t *table) contains(key uint64) bool {
	_, ok := t.find(key)
	return ok
}

// count returns the stored frequency of key, or 0 if absent.
func (t *table) count(key uint64) uint16 {
	if i, ok := t.find(key); ok {
		return t.counts[i]
	}
	return 0
}

// insert places a new key with zero count, kicking resident entries
// between their alternate slots. Returns false and marks the table
// full if no placement is found.
func (t *table) insert(key uint64) bool {
	if t.contains(key) {
		return true
	}
	if t.isFull {
		return false
	}
	pos := t.h1(key)
	var count uint16
	var follower uint32
	for n := 0; n < maxKicks; n++ {
		if t.keys[pos] == 0 {
			t.keys[pos] = key
			t.counts[pos] = count
			t.followers[pos] = follower
			return true
		}
		key, t.keys[pos] = t.keys[pos], key
		count, t.counts[pos] = t.counts[pos], count
		follower, t.followers[pos] = t.followers[pos], follower
		if pos == t.h1(key) {
			pos = t.h2(key)
		} else {
			pos = t.h1(key)
		}
	}
	t.isFull = true
	return false
}

// seen increments the counter for key, inserting it first when absent,
// and records key's trailing character in its parent's follower
// bitmap. Returns false iff an insertion failed for lack of room.
func (t *table) seen(key uint64) bool {
	i, ok := t.find(key)
	if !ok {
		if !t.insert(key) {
			return false
		}
		i, _ = t.find(key)
	}
	if key == rootKey {
		return true
	}
	// saturate rather than wrap; the model rescales before any
	// counter consulted during coding can get here
	if t.counts[i] < MaxFrequency-1 {
		t.counts[i]++
	}
	t.setFollower(parentKey(key), uint8(key))
	return true
}

// followerVec returns the follower bitmap of a parent key, or an
// all-zero bitmap if the parent is unknown or has no bitmap yet.
// vec[0] covers follower bytes 0..63 with bit 63 for byte 0.
func (t *table) followerVec(key uint64) []uint64 {
	p := t.followerIdx(key)
	if p == 0 {
		return t.zeroVec[:]
	}
	return t.vecs[p*vecWords : (p+1)*vecWords]
}

// followerIdx resolves the bitmap index of key, or 0.
func (t *table) followerIdx(key uint64) uint32 {
	if key == t.lastKey {
		return t.lastIdx
	}
	i, ok := t.find(key)
	if !ok || t.followers[i] == 0 {
		return 0
	}
	t.lastKey = key
	t.lastIdx = t.followers[i]
	return t.followers[i]
}

// setFollower sets the bit for character c in the bitmap of key,
// allocating the bitmap on first use. A key that is not present is
// left alone; exhausting the bitmap pool marks the table full.
func (t *table) setFollower(key uint64, c uint8) {
	p := t.followerIdx(key)
	if p == 0 {
		i, ok := t.find(key)
		if !ok {
			return
		}
		if t.vecAt >= t.vecMax {
			t.isFull = true
			return
		}
		p = t.vecAt
		t.vecAt++
		t.followers[i] = p
		t.lastKey = key
		t.lastIdx = p
	}
	ints.SetBit(t.vecs[p*vecWords:(p+1)*vecWords], c)
}

// clearFollower clears the bit for character c in the bitmap of key.
func (t *table) clearFollower(key uint64, c uint8) {
	p := t.followerIdx(key)
	if p == 0 {
		return
	}
	ints.ClearBit(t.vecs[p*vecWords:(p+1)*vecWords], c)
}

// hasFollower reports whether character c is set in the bitmap of key.
func (t *table) hasFollower(key uint64, c uint8) bool {
	p := t.followerIdx(key)
	if p == 0 {
		return false
	}
	return ints.TestBit(t.vecs[p*vecWords:(p+1)*vecWords], c)
}

// full reports whether a recent insert or bitmap allocation ran out
// of room.
func (t *table) full() bool {
	return t.isFull
}

// rescale halves every stored frequency, rounding toward zero. An
// entry whose count drops to zero is removed and its bit cleared in
// the parent's bitmap; entries already at zero (pure parents, the
// root) are kept.
func (t *table) rescale() {
	for i := range t.keys {
		if t.keys[i] == 0 || t.counts[i] == 0 {
			continue
		}
		t.counts[i] >>= 1
		if t.counts[i] == 0 {
			key := t.keys[i]
			t.clearFollower(parentKey(key), uint8(key))
			t.keys[i] = 0
			t.followers[i] = 0
			if t.lastKey == key {
				t.lastKey = 0
				t.lastIdx = 0
			}
		}
	}
}

// filled counts occupied slots.
func (t *table) filled() int {
	n := 0
	for _, k := range t.keys {
		if k != 0 {
			n++
		}
	}
	return n
}

// parentKey strips the trailing character from a child key: the
// length tag drops by one and the packed context field shifts right
// by one byte.
func parentKey(key uint64) uint64 {
	return ((key & tagMask) - 1<<56) | ((key &^ tagMask) >> 8)
}
