// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCacheStoreLoad(t *testing.T) {
	t.Parallel()
	var c lruCache[string, int]

	c.Store("a", 1)
	c.Store("b", 2)
	c.Store("c", 3)
	require.Equal(t, 3, c.Len())

	v, ok := c.Load("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// Loading "a" makes it newest; "b" is now the oldest.
	k, ok := c.OldestKey()
	require.True(t, ok)
	assert.Equal(t, "b", k)
}

func TestLRUCacheEvictOldest(t *testing.T) {
	t.Parallel()
	var c lruCache[int, string]
	var evicted []int
	c.OnEvict = func(k int, _ string) { evicted = append(evicted, k) }

	for i := 0; i < 4; i++ {
		c.Store(i, "x")
	}
	c.Load(1) // bump 1 to newest; oldest order becomes 0,2,3,1

	c.EvictOldest()
	c.EvictOldest()

	assert.Equal(t, []int{0, 2}, evicted)
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Has(0))
	assert.True(t, c.Has(1))
	assert.True(t, c.Has(3))
}

func TestLRUCacheDelete(t *testing.T) {
	t.Parallel()
	var c lruCache[int, int]
	var removed int
	c.OnRemove = func(int, int) { removed++ }

	c.Store(1, 10)
	c.Store(2, 20)
	c.Delete(1)
	assert.Equal(t, 1, removed)
	assert.False(t, c.Has(1))
	assert.Equal(t, 1, c.Len())

	// Deleting an absent key is a no-op.
	c.Delete(99)
	assert.Equal(t, 1, removed)
}

func TestLRUCacheReStoreMovesToNewest(t *testing.T) {
	t.Parallel()
	var c lruCache[int, int]
	c.Store(1, 1)
	c.Store(2, 2)
	c.Store(1, 100) // re-store updates value and moves to newest

	k, ok := c.OldestKey()
	require.True(t, ok)
	assert.Equal(t, 2, k)

	v, _ := c.Peek(1)
	assert.Equal(t, 100, v)
}
