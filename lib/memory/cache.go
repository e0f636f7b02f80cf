// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package memory

import (
	"github.com/voxcraft/core/lib/chunkstore"
	"github.com/voxcraft/core/lib/containers"
	"github.com/voxcraft/core/lib/voxel"
)

type cacheEntry struct {
	coord voxel.ChunkCoord
	chunk *chunkstore.Chunk
}

// ChunkCache is an access-order, capacity-bounded cache of generated
// chunks (§4.11), built on the same access-order-list-plus-map
// technique as the teacher's unexported containers.lruCache, exported
// here and specialized to voxel.ChunkCoord keys. Get/GetMut record a
// use by moving the entry to the newest end; Insert evicts the single
// oldest entry when at capacity, unless the coord being inserted is
// already present (a pure replacement never evicts).
type ChunkCache struct {
	cap     int
	byAge   containers.LinkedList[cacheEntry]
	byCoord map[voxel.ChunkCoord]*containers.LinkedListEntry[cacheEntry]
}

// NewChunkCache builds an empty cache holding at most capacity chunks.
func NewChunkCache(capacity int) *ChunkCache {
	return &ChunkCache{
		cap:     capacity,
		byCoord: make(map[voxel.ChunkCoord]*containers.LinkedListEntry[cacheEntry]),
	}
}

// Len returns the number of chunks currently cached.
func (c *ChunkCache) Len() int { return len(c.byCoord) }

// Contains reports presence without recording a use.
func (c *ChunkCache) Contains(coord voxel.ChunkCoord) bool {
	_, ok := c.byCoord[coord]
	return ok
}

// Get looks up coord, recording a use for eviction-order purposes.
func (c *ChunkCache) Get(coord voxel.ChunkCoord) (*chunkstore.Chunk, bool) {
	entry, ok := c.byCoord[coord]
	if !ok {
		return nil, false
	}
	c.byAge.MoveToNewest(entry)
	return entry.Value.chunk, true
}

// GetMut is Get, for callers intending to mutate the returned chunk in
// place; the access-order bump is identical either way since this
// cache only tracks order, not borrow state.
func (c *ChunkCache) GetMut(coord voxel.ChunkCoord) (*chunkstore.Chunk, bool) {
	return c.Get(coord)
}

// Insert stores chunk under coord. If coord is already present, its
// value is replaced in place without evicting anything. Otherwise, if
// the cache is at capacity, the single oldest entry is evicted first.
func (c *ChunkCache) Insert(coord voxel.ChunkCoord, chunk *chunkstore.Chunk) {
	if entry, ok := c.byCoord[coord]; ok {
		entry.Value.chunk = chunk
		c.byAge.MoveToNewest(entry)
		return
	}
	if c.cap > 0 && len(c.byCoord) >= c.cap {
		c.EvictOldest()
	}
	entry := &containers.LinkedListEntry[cacheEntry]{Value: cacheEntry{coord: coord, chunk: chunk}}
	c.byAge.Store(entry)
	c.byCoord[coord] = entry
}

// EvictOldest pops and returns the least-recently-used coord, or
// (zero, false) if the cache is empty.
func (c *ChunkCache) EvictOldest() (voxel.ChunkCoord, bool) {
	if c.byAge.IsEmpty() {
		return voxel.ChunkCoord{}, false
	}
	entry := c.byAge.Oldest
	coord := entry.Value.coord
	delete(c.byCoord, coord)
	c.byAge.Delete(entry)
	return coord, true
}

// Delete removes coord if present, reporting whether it was.
func (c *ChunkCache) Delete(coord voxel.ChunkCoord) bool {
	entry, ok := c.byCoord[coord]
	if !ok {
		return false
	}
	delete(c.byCoord, coord)
	c.byAge.Delete(entry)
	return true
}

// Coords returns every cached coord, oldest first. Used by tests and
// by callers that need to snapshot the current cache membership.
func (c *ChunkCache) Coords() []voxel.ChunkCoord {
	out := make([]voxel.ChunkCoord, 0, len(c.byCoord))
	for e := c.byAge.Oldest; e != nil; e = e.Newer {
		out = append(out, e.Value.coord)
	}
	return out
}
