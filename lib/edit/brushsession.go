// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package edit

import (
	"math"

	"github.com/voxcraft/core/lib/brush"
	"github.com/voxcraft/core/lib/voxel"
)

// BrushSession collects strokes painted under one active blend mode
// (§4.12). A UI layer creates one session per continuous paint
// gesture, adds a stroke per frame the brush moves, then flushes the
// session into the world overlay once the gesture ends.
type BrushSession struct {
	Blend   brush.BlendMode
	Strokes []brush.BrushStroke
}

// NewBrushSession starts a session with the given active blend mode.
func NewBrushSession(blend brush.BlendMode) *BrushSession {
	return &BrushSession{Blend: blend}
}

// SetBlend changes the active blend mode for strokes added after this
// call; strokes already collected keep the mode they were added under.
func (s *BrushSession) SetBlend(blend brush.BlendMode) {
	s.Blend = blend
}

// AddStroke records a stroke under the session's current active blend
// mode, overriding whatever blend mode the stroke was constructed
// with.
func (s *BrushSession) AddStroke(st brush.BrushStroke) {
	st.Blend = s.Blend
	s.Strokes = append(s.Strokes, st)
}

// ToEditOps flattens every collected stroke into a FillRegion (for
// Replace/Add strokes) or ClearRegion (for Subtract strokes), one op
// per stroke, in the order strokes were added.
func (s *BrushSession) ToEditOps() []EditOp {
	ops := make([]EditOp, 0, len(s.Strokes))
	for _, st := range s.Strokes {
		if st.Blend == brush.Subtract {
			ops = append(ops, ClearRegion{AABB: st.WorldAABB()})
			continue
		}
		ops = append(ops, FillRegion{AABB: st.WorldAABB(), Voxel: st.Voxel})
	}
	return ops
}

// ApplyToOverlay flattens the session's strokes and appends them to
// overlay at frame, returning the entries created.
func (s *BrushSession) ApplyToOverlay(overlay *Overlay, frame uint64) []OverlayEntry {
	ops := s.ToEditOps()
	entries := make([]OverlayEntry, 0, len(ops))
	for _, op := range ops {
		entries = append(entries, overlay.Append(op, frame))
	}
	return entries
}

// ChunkInvalidator marks a chunk as needing regeneration.
type ChunkInvalidator interface {
	MarkDirty(coord voxel.ChunkCoord)
}

// InvalidateChunks marks every chunk whose footprint intersects any of
// the session's strokes dirty, so the next regeneration pass for those
// chunks picks up the new overlay entries. chunkSize is the world-space
// edge length of one chunk.
func (s *BrushSession) InvalidateChunks(chunkSize float64, invalidator ChunkInvalidator) {
	seen := make(map[voxel.ChunkCoord]bool)
	for _, st := range s.Strokes {
		b := st.WorldAABB()
		minX, maxX := int32(math.Floor(b.Min[0]/chunkSize)), int32(math.Floor(b.Max[0]/chunkSize))
		minY, maxY := int32(math.Floor(b.Min[1]/chunkSize)), int32(math.Floor(b.Max[1]/chunkSize))
		minZ, maxZ := int32(math.Floor(b.Min[2]/chunkSize)), int32(math.Floor(b.Max[2]/chunkSize))
		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				for z := minZ; z <= maxZ; z++ {
					c := voxel.ChunkCoord{X: x, Y: y, Z: z}
					if seen[c] {
						continue
					}
					seen[c] = true
					invalidator.MarkDirty(c)
				}
			}
		}
	}
}
