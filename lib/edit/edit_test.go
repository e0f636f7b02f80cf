// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/brush"
	"github.com/voxcraft/core/lib/voxel"
)

func box(v voxel.Voxel, blend brush.BlendMode, origin [3]float64, halfExtent float64) brush.BrushStroke {
	sdf := brush.Box{HalfExtent: [3]float64{halfExtent, halfExtent, halfExtent}}
	return brush.NewBrushStroke(sdf, brush.Identity(origin), v, 0, blend)
}

func TestBrushSessionToEditOpsMapsBlendModes(t *testing.T) {
	stone := voxel.Voxel{Material: 1}
	s := NewBrushSession(brush.Replace)
	s.AddStroke(box(stone, brush.Replace, [3]float64{4, 4, 4}, 1))
	s.SetBlend(brush.Subtract)
	s.AddStroke(box(voxel.Empty, brush.Subtract, [3]float64{8, 8, 8}, 1))

	ops := s.ToEditOps()
	require.Len(t, ops, 2)

	fill, ok := ops[0].(FillRegion)
	require.True(t, ok)
	assert.Equal(t, stone, fill.Voxel)

	_, ok = ops[1].(ClearRegion)
	assert.True(t, ok)
}

func TestBrushSessionAddStrokeOverridesBlend(t *testing.T) {
	s := NewBrushSession(brush.Subtract)
	s.AddStroke(box(voxel.Voxel{Material: 2}, brush.Replace, [3]float64{0, 0, 0}, 1))

	ops := s.ToEditOps()
	require.Len(t, ops, 1)
	_, ok := ops[0].(ClearRegion)
	assert.True(t, ok, "session's active blend mode should override the stroke's own")
}

type fakeInvalidator struct{ dirty map[voxel.ChunkCoord]bool }

func (f *fakeInvalidator) MarkDirty(c voxel.ChunkCoord) {
	if f.dirty == nil {
		f.dirty = make(map[voxel.ChunkCoord]bool)
	}
	f.dirty[c] = true
}

func TestBrushSessionInvalidateChunksMarksOverlappingChunks(t *testing.T) {
	s := NewBrushSession(brush.Replace)
	// Stroke centered at (16,4,4) with half-extent 1 spans world x in
	// [15,17], crossing the chunk-x=0/1 boundary at chunk size 16.
	s.AddStroke(box(voxel.Voxel{Material: 1}, brush.Replace, [3]float64{16, 4, 4}, 1))

	inv := &fakeInvalidator{}
	s.InvalidateChunks(16, inv)

	assert.True(t, inv.dirty[voxel.ChunkCoord{X: 0, Y: 0, Z: 0}])
	assert.True(t, inv.dirty[voxel.ChunkCoord{X: 1, Y: 0, Z: 0}])
}

// stubClassifier reports everything as empty, so tests can tell
// whether a query fell through to the base.
type stubClassifier struct{}

func (stubClassifier) ClassifyRegion(adaptive.AABB) adaptive.Classification {
	return adaptive.Classification{Kind: adaptive.Empty}
}

func (stubClassifier) Evaluate([3]float64) voxel.Voxel {
	return voxel.Empty
}

func TestCompositeClassifierEnclosedRegionReturnsSolid(t *testing.T) {
	overlay := NewOverlay()
	stone := voxel.Voxel{Material: 3}
	overlay.Append(FillRegion{AABB: adaptive.AABB{Min: [3]float64{0, 0, 0}, Max: [3]float64{16, 16, 16}}, Voxel: stone}, 1)

	c := NewCompositeClassifier(stubClassifier{}, overlay, [3]float64{0, 0, 0}, 16)
	cls := c.ClassifyRegion(adaptive.AABB{Min: [3]float64{2, 2, 2}, Max: [3]float64{4, 4, 4}})
	assert.Equal(t, adaptive.Solid, cls.Kind)
	assert.Equal(t, stone.Material, cls.Material)
}

func TestCompositeClassifierPartialOverlapIsMixed(t *testing.T) {
	overlay := NewOverlay()
	overlay.Append(FillRegion{AABB: adaptive.AABB{Min: [3]float64{0, 0, 0}, Max: [3]float64{8, 16, 16}}, Voxel: voxel.Voxel{Material: 1}}, 1)

	c := NewCompositeClassifier(stubClassifier{}, overlay, [3]float64{0, 0, 0}, 16)
	// Region spans x in [4,12], only half inside the fill op.
	cls := c.ClassifyRegion(adaptive.AABB{Min: [3]float64{4, 0, 0}, Max: [3]float64{12, 16, 16}})
	assert.Equal(t, adaptive.Mixed, cls.Kind)
}

func TestCompositeClassifierFallsThroughToBase(t *testing.T) {
	overlay := NewOverlay()
	c := NewCompositeClassifier(stubClassifier{}, overlay, [3]float64{0, 0, 0}, 16)
	cls := c.ClassifyRegion(adaptive.AABB{Min: [3]float64{0, 0, 0}, Max: [3]float64{2, 2, 2}})
	assert.Equal(t, adaptive.Empty, cls.Kind)
}

func TestCompositeClassifierNewerEntryWins(t *testing.T) {
	overlay := NewOverlay()
	region := adaptive.AABB{Min: [3]float64{0, 0, 0}, Max: [3]float64{16, 16, 16}}
	overlay.Append(FillRegion{AABB: region, Voxel: voxel.Voxel{Material: 1}}, 1)
	overlay.Append(ClearRegion{AABB: region}, 2)

	c := NewCompositeClassifier(stubClassifier{}, overlay, [3]float64{0, 0, 0}, 16)
	cls := c.ClassifyRegion(adaptive.AABB{Min: [3]float64{1, 1, 1}, Max: [3]float64{2, 2, 2}})
	assert.Equal(t, adaptive.Empty, cls.Kind)

	v := c.Evaluate([3]float64{1, 1, 1})
	assert.Equal(t, voxel.Empty, v)
}

func TestCompositeClassifierEvaluateOutsideOverlayFallsThrough(t *testing.T) {
	overlay := NewOverlay()
	overlay.Append(FillRegion{AABB: adaptive.AABB{Min: [3]float64{0, 0, 0}, Max: [3]float64{4, 4, 4}}, Voxel: voxel.Voxel{Material: 1}}, 1)

	c := NewCompositeClassifier(stubClassifier{}, overlay, [3]float64{0, 0, 0}, 16)
	v := c.Evaluate([3]float64{10, 10, 10})
	assert.Equal(t, voxel.Empty, v)
}
