// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package voxel

import "fmt"

// ChunkCoord addresses one chunk in the world grid, in chunk units (not
// meters, not voxels). Y is subdivided into its own directory level by
// the chunk store (lib/chunkstore) to bound directory fan-out.
type ChunkCoord struct {
	X, Y, Z int32
}

// String matches the on-disk naming scheme (chunk_x_y_z), so log lines
// and file paths agree without a second formatting rule.
func (c ChunkCoord) String() string {
	return fmt.Sprintf("%d_%d_%d", c.X, c.Y, c.Z)
}

// Add returns the coordinate offset by dx, dy, dz chunks.
func (c ChunkCoord) Add(dx, dy, dz int32) ChunkCoord {
	return ChunkCoord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}
