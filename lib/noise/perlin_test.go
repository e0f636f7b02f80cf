// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package noise

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoiseIsDeterministicForSameSeed(t *testing.T) {
	t.Parallel()
	a := NewPerlin(42)
	b := NewPerlin(42)

	assert.Equal(t, a.Noise3D(1.25, 2.5, -3.75), b.Noise3D(1.25, 2.5, -3.75))
	assert.Equal(t, a.Noise2D(10.1, -4.2), b.Noise2D(10.1, -4.2))
}

func TestNoiseDiffersAcrossSeeds(t *testing.T) {
	t.Parallel()
	a := NewPerlin(1)
	b := NewPerlin(2)
	assert.NotEqual(t, a.Noise3D(1.25, 2.5, -3.75), b.Noise3D(1.25, 2.5, -3.75))
}

func TestNoiseIsZeroAtLatticePoints(t *testing.T) {
	t.Parallel()
	p := NewPerlin(7)
	// Perlin noise is exactly 0 at integer lattice points (gradient dot
	// the zero distance vector).
	assert.InDelta(t, 0, p.Noise3D(3, 4, 5), 1e-9)
	assert.InDelta(t, 0, p.Noise2D(3, 4), 1e-9)
}

func TestFBM3DStaysBounded(t *testing.T) {
	t.Parallel()
	p := NewPerlin(99)
	for x := 0.0; x < 20; x += 1.3 {
		v := p.FBM3D(x, x*0.7, x*1.3, 5, 2.0, 0.5)
		assert.True(t, v >= -1.01 && v <= 1.01, "FBM3D out of range: %f", v)
	}
}

func TestRidgeFBM3DIsNonNegative(t *testing.T) {
	t.Parallel()
	p := NewPerlin(5)
	for x := 0.0; x < 20; x += 1.1 {
		v := p.RidgeFBM3D(x, x*0.3, x*0.9, 4, 2.0, 0.5)
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestWarp3DIsDeterministic(t *testing.T) {
	t.Parallel()
	p := NewPerlin(123)
	x1, y1, z1 := p.Warp3D(1, 2, 3, 0.05, 2.0)
	x2, y2, z2 := p.Warp3D(1, 2, 3, 0.05, 2.0)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)
	assert.Equal(t, z1, z2)
	// With nonzero strength, the warped point should move from the input.
	assert.False(t, x1 == 1 && y1 == 2 && z1 == 3)
}

func TestNoiseValuesAreFinite(t *testing.T) {
	t.Parallel()
	p := NewPerlin(17)
	for i := 0; i < 50; i++ {
		x := float64(i) * 0.37
		assert.False(t, math.IsNaN(p.Noise3D(x, x, x)))
		assert.False(t, math.IsInf(p.Noise3D(x, x, x), 0))
	}
}
