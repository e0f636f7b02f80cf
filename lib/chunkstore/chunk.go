// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package chunkstore owns the Chunk and GrassCell data model (the
// payload generated by lib/generation and persisted by the binary codec
// and path layout implemented in this package), plus the codec and
// async I/O themselves.
package chunkstore

import (
	"math"

	"github.com/voxcraft/core/lib/mask"
	"github.com/voxcraft/core/lib/octree"
	"github.com/voxcraft/core/lib/voxel"
)

// GrassCell packs a grass cell's profile id and density into 16 bits
// per §6's grass cell packing: `u16 = (density_8_bit << 8) |
// profile_8_bit`. Density is quantized to 16 levels (multiples of 17)
// so adjacent uniform cells coalesce during mask construction. Profile
// 0 is reserved for "no grass here" (clearings, bare ground biomes).
type GrassCell uint16

// NewGrassCell packs profile and a density in [0, 1] into a GrassCell,
// per §8 scenario 5: density quantizes to round(density*15)*17.
func NewGrassCell(profile uint8, density float64) GrassCell {
	if density < 0 {
		density = 0
	}
	if density > 1 {
		density = 1
	}
	level := uint8(math.Round(density*15)) * 17
	return GrassCell(uint16(level)<<8 | uint16(profile))
}

func (g GrassCell) Profile() uint8 { return uint8(g) }

// DensityByte is the raw quantized 8-bit density (a multiple of 17).
func (g GrassCell) DensityByte() uint8 { return uint8(g >> 8) }

// Density unpacks the density byte back to a [0, 1] fraction.
func (g GrassCell) Density() float64 { return float64(g.DensityByte()) / 255 }

// Clearing reports whether this cell has no grass.
func (g GrassCell) Clearing() bool { return g.Profile() == 0 }

// Chunk is the full generated payload for one ChunkCoord: a mandatory
// terrain octree plus optional rock and tree octrees (nil when the
// chunk's biome/mask values never triggered their generator) and a
// grass mask sampled at finer resolution than any of the voxel octrees.
//
// Modified tracks whether this in-memory Chunk has diverged from what's
// on disk — true immediately after generation or an edit, false right
// after a successful LoadChunk or SaveChunk. It is not part of the
// binary codec: a chunk freshly read from disk is, by definition, not
// modified relative to what's there.
type Chunk struct {
	Coord voxel.ChunkCoord

	Terrain *octree.Octree
	Rock    *octree.Octree
	Tree    *octree.Octree
	Grass   *mask.MaskOctree[GrassCell]

	Modified bool
}

// MarkDirty sets Modified on this in-memory chunk directly, for callers
// that already hold the Chunk (as opposed to lib/edit's
// ChunkInvalidator, which marks a coord dirty in a cache that may not
// have the chunk loaded).
func (c *Chunk) MarkDirty() { c.Modified = true }

// HasNonEmptyBricks reports whether any of the chunk's voxel octrees
// hold at least one brick. A chunk with none is dropped by batch
// generation rather than stored.
func (c *Chunk) HasNonEmptyBricks() bool {
	for _, t := range []*octree.Octree{c.Terrain, c.Rock, c.Tree} {
		if t != nil && t.BrickCount() > 0 {
			return true
		}
	}
	return false
}
