// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package chunkstore

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/voxcraft/core/lib/voxel"
)

// ErrNotFound and ErrCorrupt are the two sentinel causes a StoreError
// wraps, matching §7's NotFound/CorruptData taxonomy. IOError (disk
// full, permission denied) is surfaced as the underlying *os.PathError
// directly rather than a third sentinel, since callers distinguish it
// by errors.As against *os.PathError, not by identity.
var (
	ErrNotFound = errors.New("chunk not found")
	ErrCorrupt  = errors.New("corrupt chunk data")
)

// StoreError annotates a load/save failure with the chunk coordinate it
// happened for, so callers and logs don't need to thread that through
// separately.
type StoreError struct {
	Coord voxel.ChunkCoord
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("chunk %v: %v", e.Coord, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func wrapStoreErr(coord voxel.ChunkCoord, cause error, msg string) error {
	return &StoreError{Coord: coord, Err: errors.Wrap(cause, msg)}
}
