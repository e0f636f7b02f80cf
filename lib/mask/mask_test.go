// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voxcraft/core/lib/adaptive"
)

// splitGenerator is uniform value 1 below split on the x axis and
// value 2 above it, with no variation on y or z. It lets tests drive
// both the Uniform and Mixed branches of Build deterministically.
type splitGenerator struct{ split float64 }

func (g splitGenerator) ClassifyRegion(aabb adaptive.AABB) (uint8, bool) {
	if aabb.Max[0] <= g.split {
		return 1, true
	}
	if aabb.Min[0] >= g.split {
		return 2, true
	}
	return 0, false
}

func (g splitGenerator) Evaluate(p [3]float64) uint8 {
	if p[0] < g.split {
		return 1
	}
	return 2
}

func TestBuildSampleMatchesGeneratorEverywhere(t *testing.T) {
	t.Parallel()
	gen := splitGenerator{split: 4}
	m := Build[uint8](gen, 8, 3)

	for x := 0.25; x < 8; x += 0.5 {
		for y := 0.25; y < 8; y += 1.5 {
			for z := 0.25; z < 8; z += 1.5 {
				p := [3]float64{x, y, z}
				assert.Equal(t, gen.Evaluate(p), m.Sample(p), "p=%v", p)
			}
		}
	}
}

func TestBuildCollapsesUniformHalvesWithoutSubdividing(t *testing.T) {
	t.Parallel()
	gen := splitGenerator{split: 4}
	m := Build[uint8](gen, 8, 3)

	// The root is Mixed (straddles x=4), so it must have all 8 children.
	root := m.Nodes[0]
	assert.Equal(t, uint8(0xFF), root.ValidMask)

	// Each child cell is fully on one side of the split and must
	// collapse to a leaf (no further children) at depth 1, well before
	// maxDepth 3.
	for octant := uint8(0); octant < 8; octant++ {
		rank := 0
		for o := uint8(0); o < octant; o++ {
			if root.ValidMask&(1<<o) != 0 {
				rank++
			}
		}
		child := m.Nodes[root.ChildOffset+uint32(rank)]
		assert.Equal(t, uint8(0), child.ValidMask)
	}
}

func TestClassifyRegionUniformWithinSingleOctant(t *testing.T) {
	t.Parallel()
	gen := splitGenerator{split: 4}
	m := Build[uint8](gen, 8, 3)

	v, ok := m.ClassifyRegion(adaptive.AABB{Min: [3]float64{0, 0, 0}, Max: [3]float64{2, 2, 2}})
	assert.True(t, ok)
	assert.Equal(t, uint8(1), v)

	v, ok = m.ClassifyRegion(adaptive.AABB{Min: [3]float64{6, 0, 0}, Max: [3]float64{8, 4, 4}})
	assert.True(t, ok)
	assert.Equal(t, uint8(2), v)
}

func TestClassifyRegionStraddlingSplitIsMixed(t *testing.T) {
	t.Parallel()
	gen := splitGenerator{split: 4}
	m := Build[uint8](gen, 8, 3)

	_, ok := m.ClassifyRegion(adaptive.AABB{Min: [3]float64{3, 0, 0}, Max: [3]float64{5, 8, 8}})
	assert.False(t, ok)
}

func TestNewIsUniformlyZeroValue(t *testing.T) {
	t.Parallel()
	m := New[uint8](8, 3)
	assert.Equal(t, uint8(0), m.Sample([3]float64{1, 1, 1}))
	assert.Equal(t, uint8(0), m.Sample([3]float64{7, 7, 7}))

	v, ok := m.ClassifyRegion(adaptive.AABB{Max: [3]float64{8, 8, 8}})
	assert.True(t, ok)
	assert.Equal(t, uint8(0), v)
}

// uniformGenerator never reports Mixed; Build must not subdivide at
// all, regardless of maxDepth.
type uniformGenerator struct{ value uint16 }

func (g uniformGenerator) ClassifyRegion(adaptive.AABB) (uint16, bool) { return g.value, true }
func (g uniformGenerator) Evaluate([3]float64) uint16                 { return g.value }

func TestBuildUniformGeneratorProducesSingleNode(t *testing.T) {
	t.Parallel()
	m := Build[uint16](uniformGenerator{value: 42}, 16, 5)
	assert.Len(t, m.Nodes, 1)
	assert.Equal(t, uint16(42), m.Sample([3]float64{9, 2, 13}))
}
