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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// childKey packs a context of ord bytes plus a trailing character the
// way the model does: ctx[0] is the newest context byte.
func childKey(ctx []byte, c byte) uint64 {
	var bits uint64
	for i, b := range ctx {
		bits |= uint64(b) << (i * 8)
	}
	return (0x81+uint64(len(ctx)))<<56 | bits<<8 | uint64(c)
}

// small table for tests that need to fill it up
func newTestTable(n int) *table {
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

func TestTableSeenCount(t *testing.T) {
	tab := newTable(LimitMin)
	key := childKey(nil, 'a')
	assert.EqualValues(t, 0, tab.count(key))

	require.True(t, tab.seen(key))
	assert.EqualValues(t, 1, tab.count(key))
	require.True(t, tab.seen(key))
	assert.EqualValues(t, 2, tab.count(key))

	// the order-0 parent is the root; its bitmap tracks 'a' now
	assert.True(t, tab.hasFollower(rootKey, 'a'))
	assert.False(t, tab.hasFollower(rootKey, 'b'))

	vec := tab.followerVec(rootKey)
	require.Len(t, vec, vecWords)
	assert.Equal(t, (uint64(1)<<63)>>('a'&63), vec['a'>>6])
}

func TestTableParentChain(t *testing.T) {
	tab := newTable(LimitMin)

	// "a" followed by 'b' has the order-0 entry for 'a' as parent
	child := childKey([]byte{'a'}, 'b')
	assert.Equal(t, childKey(nil, 'a'), parentKey(child))
	assert.Equal(t, rootKey, parentKey(childKey(nil, 'a')))

	// the parent bitmap only materializes once the parent exists
	require.True(t, tab.seen(child))
	assert.False(t, tab.hasFollower(parentKey(child), 'b'))

	require.True(t, tab.seen(childKey(nil, 'a')))
	require.True(t, tab.seen(child))
	assert.True(t, tab.hasFollower(parentKey(child), 'b'))
}

func TestTableUnknownParent(t *testing.T) {
	tab := newTable(LimitMin)
	vec := tab.followerVec(childKey([]byte{'x', 'y'}, 0))
	require.Len(t, vec, vecWords)
	for _, w := range vec {
		assert.Zero(t, w)
	}
}

func TestTableRescale(t *testing.T) {
	tab := newTable(LimitMin)
	ka := childKey(nil, 'a')
	kb := childKey(nil, 'b')
	for i := 0; i < 5; i++ {
		tab.seen(ka)
	}
	tab.seen(kb)

	tab.rescale()
	assert.EqualValues(t, 2, tab.count(ka))
	// a count of one drops to zero: entry removed, bit cleared
	assert.EqualValues(t, 0, tab.count(kb))
	assert.False(t, tab.contains(kb))
	assert.True(t, tab.hasFollower(rootKey, 'a'))
	assert.False(t, tab.hasFollower(rootKey, 'b'))
	// the root survives rescale even at count zero
	assert.True(t, tab.contains(rootKey))

	// rescaling an already-halved table never underflows
	tab.rescale()
	tab.rescale()
	assert.EqualValues(t, 0, tab.count(ka))
	assert.True(t, tab.contains(rootKey))
}

func TestTableFullAndReset(t *testing.T) {
	tab := newTestTable(256)
	rng := rand.New(rand.NewSource(1))
	var inserted int
	for inserted = 0; inserted < 10000; inserted++ {
		ctx := []byte{byte(rng.Intn(256)), byte(rng.Intn(256))}
		if !tab.seen(childKey(ctx, byte(rng.Intn(256)))) {
			break
		}
	}
	require.True(t, tab.full(), "table never filled")
	require.Less(t, inserted, 10000)

	tab.reset()
	assert.False(t, tab.full())
	assert.Equal(t, 1, tab.filled()) // only the root remains
	assert.True(t, tab.contains(rootKey))

	// the next seen after reset starts from scratch
	require.True(t, tab.seen(childKey(nil, 'z')))
	assert.EqualValues(t, 1, tab.count(childKey(nil, 'z')))
}

func TestTableReference(t *testing.T) {
	tab := newTable(LimitMin)
	rng := rand.New(rand.NewSource(2))
	ref := make(map[uint64]uint16)

	keys := make([]uint64, 500)
	for i := range keys {
		ord := rng.Intn(3)
		ctx := make([]byte, ord)
		for j := range ctx {
			ctx[j] = byte(rng.Intn(4))
		}
		keys[i] = childKey(ctx, byte(rng.Intn(8)))
	}

	for step := 0; step < 20000; step++ {
		switch rng.Intn(10) {
		case 9:
			tab.rescale()
			for k, v := range ref {
				v >>= 1
				if v == 0 {
					delete(ref, k)
				} else {
					ref[k] = v
				}
			}
		default:
			k := keys[rng.Intn(len(keys))]
			require.True(t, tab.seen(k))
			if ref[k] < MaxFrequency-1 {
				ref[k]++
			}
		}
	}
	for _, k := range keys {
		assert.Equal(t, ref[k], tab.count(k), "key %#x", k)
	}
}
