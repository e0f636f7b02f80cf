// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dag

import (
	"github.com/voxcraft/core/lib/containers"
	"github.com/voxcraft/core/lib/octree"
	"github.com/voxcraft/core/lib/voxel"
)

// nodeCacheKey identifies a node within a specific octree generation:
// an edit session tends to rebuild the same *Octree backing array
// across many small edits, so (tree pointer, node index) is stable for
// every subtree the edit didn't touch.
type nodeCacheKey struct {
	tree *octree.Octree
	idx  uint32
}

// NodeHashCache memoizes node content hashes, and the node/brick table
// entries they resolved to, across repeated dedup passes over octrees
// that share most of their structure (e.g. rebuilding a HashDAG after a
// brush edit touches one corner of a chunk). It is bounded, not exact:
// the hash index is evicted least-recently-used, so a cold entry just
// costs re-hashing that one subtree, never correctness. The node/brick
// tables themselves grow unbounded for the cache's lifetime; callers
// that care about memory should size the cache to the edit session,
// not keep one forever.
type NodeHashCache struct {
	inner  *containers.LRUCache[nodeCacheKey, Hash]
	nodes  map[Hash]DAGNode
	bricks map[Hash]voxel.Brick
}

// NewNodeHashCache creates a cache whose hash index holds up to size
// recent (tree, node index) entries.
func NewNodeHashCache(size int) *NodeHashCache {
	return &NodeHashCache{
		inner:  containers.NewLRUCache[nodeCacheKey, Hash](size),
		nodes:  make(map[Hash]DAGNode),
		bricks: make(map[Hash]voxel.Brick),
	}
}

// FromOctreeCached is FromOctree, but backed by cache: unchanged
// subtrees (same *octree.Octree and node index as a prior call) are
// not re-walked. Passing a nil cache is equivalent to FromOctree.
func FromOctreeCached(o *octree.Octree, cache *NodeHashCache) *SVDAG {
	if cache == nil {
		return FromOctree(o)
	}
	d := &SVDAG{
		Nodes:    cache.nodes,
		Bricks:   cache.bricks,
		RootSize: o.RootSize,
		MaxDepth: o.MaxDepth,
	}
	if o.IsEmpty() {
		return d
	}
	d.Root = dedupNode(o, 0, d, cache)
	return d
}
