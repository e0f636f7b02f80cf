// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package chunkstore

import (
	"fmt"
	"path/filepath"

	"github.com/voxcraft/core/lib/voxel"
)

// ChunkPath and MaskPath implement §4.8/§6's directory layout:
// subdividing by Y coordinate keeps any one directory's fan-out
// bounded regardless of world size.
func ChunkPath(base string, coord voxel.ChunkCoord) string {
	return filepath.Join(base, yDir(coord), fmt.Sprintf("chunk_%d_%d_%d.rkc", coord.X, coord.Y, coord.Z))
}

func MaskPath(base string, coord voxel.ChunkCoord) string {
	return filepath.Join(base, yDir(coord), fmt.Sprintf("chunk_%d_%d_%d.rkm", coord.X, coord.Y, coord.Z))
}

func yDir(coord voxel.ChunkCoord) string {
	return fmt.Sprintf("y_%d", coord.Y)
}
