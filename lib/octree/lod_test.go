// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package octree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLodBandAssignment covers §8 scenario 4.
func TestLodBandAssignment(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, LodFromDistance(63.9))
	assert.Equal(t, 1, LodFromDistance(64.0))
	assert.Equal(t, 5, LodFromDistance(1024.0))
	assert.InDelta(t, 0.08, VoxelSizeAtLod(0.01, 3), 1e-12)
	assert.Equal(t, 5, TraversalDepthForLod(10, 5))
}

func TestTraversalDepthForLodNeverNegative(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, TraversalDepthForLod(3, 5))
}

func TestLodBlendFactorRisesAcrossBand(t *testing.T) {
	t.Parallel()
	lod, f := LodBlendFactor(50)
	assert.Equal(t, 0, lod)
	assert.Equal(t, 0.0, f)

	lod, f = LodBlendFactor(63.9)
	assert.Equal(t, 0, lod)
	assert.Greater(t, f, 0.0)
	assert.LessOrEqual(t, f, 1.0)

	lod, f = LodBlendFactor(2000)
	assert.Equal(t, 5, lod)
	assert.Equal(t, 0.0, f)
}
