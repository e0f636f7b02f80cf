// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package voxel defines the smallest storage units of the voxel world: the
// 4-byte Voxel cell and the 8-voxel Brick.
package voxel

import (
	"github.com/voxcraft/core/lib/binstruct"
)

// Voxel is a single 4-byte densely-packed voxel cell.
//
// Color is a 16-bit encoded color, but may alternatively carry a packed
// surface-gradient or normal when Material is naturally smooth (see the
// terrain and rock classifiers in lib/generation). Flags holds
// transparent/emissive/distance-to-surface-hint bits. The zero Voxel is
// Empty.
type Voxel struct {
	Color         uint16         `bin:"off=0x0, siz=0x2"`
	Material      uint8          `bin:"off=0x2, siz=0x1"`
	Flags         uint8          `bin:"off=0x3, siz=0x1"`
	binstruct.End `bin:"off=0x4"`
}

// Flag bits stored in Voxel.Flags.
const (
	FlagTransparent = uint8(1 << iota)
	FlagEmissive
	FlagDistanceHint
)

// Empty is the zero-value sentinel voxel.
var Empty = Voxel{}

// IsEmpty reports whether v is the all-zero sentinel.
func (v Voxel) IsEmpty() bool {
	return v == Empty
}

// Brick is exactly 8 voxels addressed in Morton order (z<<2)|(y<<1)|x.
type Brick [8]Voxel

// BrickIndex computes the Morton-ordered index of a voxel within a brick
// from its local octant coordinates, each of which must be 0 or 1.
func BrickIndex(x, y, z int) int {
	return (z << 2) | (y << 1) | x
}

// IsEmpty reports whether every voxel in the brick is empty. A uniform
// all-empty brick is a sentinel that callers should avoid allocating.
func (b Brick) IsEmpty() bool {
	for _, v := range b {
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}

// At returns the voxel at local octant coordinates (x, y, z), each 0 or 1.
func (b Brick) At(x, y, z int) Voxel {
	return b[BrickIndex(x, y, z)]
}

// Set stores v at local octant coordinates (x, y, z), each 0 or 1.
func (b *Brick) Set(x, y, z int, v Voxel) {
	b[BrickIndex(x, y, z)] = v
}
