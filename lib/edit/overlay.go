// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package edit implements the edit overlay and brush session (§4.12):
// a brush stroke is flattened into box-shaped fill/clear operations,
// appended to a per-world overlay log, and layered on top of
// procedural generation through a composite region classifier so a
// regenerated chunk still shows the player's edits.
package edit

import (
	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/voxel"
)

// EditOp is one overlay operation: either FillRegion or ClearRegion.
// Both carry a world-space AABB; the overlay never stores the
// originating stroke's exact SDF shape, only its bounding box.
type EditOp interface {
	aabb() adaptive.AABB
	isEditOp()
}

// FillRegion paints every voxel in AABB to Voxel.
type FillRegion struct {
	AABB  adaptive.AABB
	Voxel voxel.Voxel
}

func (f FillRegion) aabb() adaptive.AABB { return f.AABB }
func (FillRegion) isEditOp()             {}

// ClearRegion empties every voxel in AABB.
type ClearRegion struct {
	AABB adaptive.AABB
}

func (c ClearRegion) aabb() adaptive.AABB { return c.AABB }
func (ClearRegion) isEditOp()             {}

// OverlayEntry is one op recorded in an Overlay, stamped with an
// incrementing id (for ordering/undo bookkeeping) and the frame it was
// applied on.
type OverlayEntry struct {
	ID    uint64
	Op    EditOp
	Frame uint64
}

// Overlay is the append-only log of edits layered over procedural
// generation. Entries are kept in application order; later entries
// take priority over earlier ones wherever their regions overlap.
type Overlay struct {
	entries []OverlayEntry
	nextID  uint64
}

// NewOverlay builds an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{}
}

// Append records op at frame, assigning it the next id.
func (o *Overlay) Append(op EditOp, frame uint64) OverlayEntry {
	e := OverlayEntry{ID: o.nextID, Op: op, Frame: frame}
	o.nextID++
	o.entries = append(o.entries, e)
	return e
}

// Entries returns every recorded entry, oldest first.
func (o *Overlay) Entries() []OverlayEntry {
	return o.entries
}

// EntriesIntersecting returns, oldest first, every entry whose AABB
// overlaps region.
func (o *Overlay) EntriesIntersecting(region adaptive.AABB) []OverlayEntry {
	var out []OverlayEntry
	for _, e := range o.entries {
		if aabbOverlap(e.Op.aabb(), region) {
			out = append(out, e)
		}
	}
	return out
}

func aabbOverlap(a, b adaptive.AABB) bool {
	for i := 0; i < 3; i++ {
		if a.Max[i] < b.Min[i] || b.Max[i] < a.Min[i] {
			return false
		}
	}
	return true
}
