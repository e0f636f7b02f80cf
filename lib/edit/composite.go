// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package edit

import (
	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/voxel"
)

// CompositeClassifier layers an overlay's fills/clears (highest
// priority, newest edit wins) over a base region classifier — e.g. the
// terrain/rock/tree generators in lib/generation — so a regenerated
// chunk still shows the player's edits (§4.12).
type CompositeClassifier struct {
	base        adaptive.RegionClassifier
	entries     []OverlayEntry
	chunkOrigin [3]float64
}

// NewCompositeClassifier builds a classifier for one chunk. chunkOrigin
// is the chunk's world-space minimum corner; it's used to translate
// between the overlay's world-space op AABBs and the chunk-local space
// base's ClassifyRegion/Evaluate already operate in. Only overlay
// entries whose AABB intersects this chunk's footprint are kept.
func NewCompositeClassifier(base adaptive.RegionClassifier, overlay *Overlay, chunkOrigin [3]float64, chunkSize float64) *CompositeClassifier {
	worldChunk := adaptive.AABB{
		Min: chunkOrigin,
		Max: [3]float64{chunkOrigin[0] + chunkSize, chunkOrigin[1] + chunkSize, chunkOrigin[2] + chunkSize},
	}
	return &CompositeClassifier{
		base:        base,
		entries:     overlay.EntriesIntersecting(worldChunk),
		chunkOrigin: chunkOrigin,
	}
}

func (c *CompositeClassifier) toWorld(p [3]float64) [3]float64 {
	return [3]float64{p[0] + c.chunkOrigin[0], p[1] + c.chunkOrigin[1], p[2] + c.chunkOrigin[2]}
}

// ClassifyRegion walks entries newest-first: the first (newest) entry
// that overlaps the region decides it. If that entry fully encloses
// the region, its fill/clear classification applies outright; if it
// only partially overlaps, the region is reported Mixed so the caller
// subdivides down to where Evaluate can resolve the edit exactly.
// Older entries and the base classifier are never consulted once a
// newer entry overlaps — they're fully shadowed within that overlap.
func (c *CompositeClassifier) ClassifyRegion(aabb adaptive.AABB) adaptive.Classification {
	world := adaptive.AABB{Min: c.toWorld(aabb.Min), Max: c.toWorld(aabb.Max)}

	for i := len(c.entries) - 1; i >= 0; i-- {
		e := c.entries[i]
		eAABB := e.Op.aabb()
		if !aabbOverlap(eAABB, world) {
			continue
		}
		if !encloses(eAABB, world) {
			return adaptive.Classification{Kind: adaptive.Mixed}
		}
		switch op := e.Op.(type) {
		case FillRegion:
			return adaptive.Classification{Kind: adaptive.Solid, Color: op.Voxel.Color, Material: op.Voxel.Material}
		case ClearRegion:
			return adaptive.Classification{Kind: adaptive.Empty}
		}
	}
	return c.base.ClassifyRegion(aabb)
}

// Evaluate checks entries newest-first for one that contains point,
// falling back to the base classifier if none do.
func (c *CompositeClassifier) Evaluate(point [3]float64) voxel.Voxel {
	world := c.toWorld(point)
	for i := len(c.entries) - 1; i >= 0; i-- {
		e := c.entries[i]
		if !containsPoint(e.Op.aabb(), world) {
			continue
		}
		switch op := e.Op.(type) {
		case FillRegion:
			return op.Voxel
		case ClearRegion:
			return voxel.Empty
		}
	}
	return c.base.Evaluate(point)
}

func encloses(outer, inner adaptive.AABB) bool {
	for i := 0; i < 3; i++ {
		if outer.Min[i] > inner.Min[i] || outer.Max[i] < inner.Max[i] {
			return false
		}
	}
	return true
}

func containsPoint(a adaptive.AABB, p [3]float64) bool {
	for i := 0; i < 3; i++ {
		if p[i] < a.Min[i] || p[i] > a.Max[i] {
			return false
		}
	}
	return true
}
