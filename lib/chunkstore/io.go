// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package chunkstore

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/voxcraft/core/lib/diskio"
	"github.com/voxcraft/core/lib/mask"
	"github.com/voxcraft/core/lib/voxel"
)

// SaveChunk writes c to base/y_<Y>/chunk_<x>_<y>_<z>.rkc, LZ4-framed,
// per §4.8/§6. Blocking: the caller is responsible for running this
// off the hot path.
func SaveChunk(base string, c *Chunk) error {
	raw, err := encodeChunk(c)
	if err != nil {
		return wrapStoreErr(c.Coord, err, "encode chunk")
	}
	framed, err := compressFrame(raw)
	if err != nil {
		return wrapStoreErr(c.Coord, err, "compress chunk")
	}
	if err := writeFramed(ChunkPath(base, c.Coord), c.Coord, framed); err != nil {
		return err
	}
	c.Modified = false
	return nil
}

// LoadChunk reads and decodes the chunk at coord. Returns an error
// wrapping ErrNotFound if the file doesn't exist, or ErrCorrupt if the
// data fails to decode.
func LoadChunk(base string, coord voxel.ChunkCoord) (*Chunk, error) {
	framed, err := readFramed(ChunkPath(base, coord), coord)
	if err != nil {
		return nil, err
	}
	raw, err := decompressFrame(framed)
	if err != nil {
		return nil, wrapStoreErr(coord, errors.Wrap(ErrCorrupt, err.Error()), "decompress chunk")
	}
	c, err := decodeChunk(raw)
	if err != nil {
		return nil, wrapStoreErr(coord, errors.Wrap(ErrCorrupt, err.Error()), "decode chunk")
	}
	return c, nil
}

// SaveGrassMask writes m to base/y_<Y>/chunk_<x>_<y>_<z>.rkm, LZ4-framed.
func SaveGrassMask(base string, coord voxel.ChunkCoord, m *mask.MaskOctree[GrassCell]) error {
	raw := encodeGrassMask(m)
	framed, err := compressFrame(raw)
	if err != nil {
		return wrapStoreErr(coord, err, "compress grass mask")
	}
	return writeFramed(MaskPath(base, coord), coord, framed)
}

// LoadGrassMask reads and decodes the grass mask at coord.
func LoadGrassMask(base string, coord voxel.ChunkCoord) (*mask.MaskOctree[GrassCell], error) {
	framed, err := readFramed(MaskPath(base, coord), coord)
	if err != nil {
		return nil, err
	}
	raw, err := decompressFrame(framed)
	if err != nil {
		return nil, wrapStoreErr(coord, errors.Wrap(ErrCorrupt, err.Error()), "decompress grass mask")
	}
	m, err := decodeGrassMask(raw)
	if err != nil {
		return nil, wrapStoreErr(coord, errors.Wrap(ErrCorrupt, err.Error()), "decode grass mask")
	}
	return m, nil
}

func writeFramed(path string, coord voxel.ChunkCoord, framed []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return wrapStoreErr(coord, err, "mkdir")
	}
	osf, err := os.Create(path)
	if err != nil {
		return wrapStoreErr(coord, err, "create")
	}
	f := &diskio.OSFile[int64]{File: osf}
	defer f.Close()

	if _, err := f.WriteAt(framed, 0); err != nil {
		return wrapStoreErr(coord, err, "write")
	}
	return nil
}

func readFramed(path string, coord voxel.ChunkCoord) ([]byte, error) {
	osf, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrapStoreErr(coord, ErrNotFound, "open")
		}
		return nil, wrapStoreErr(coord, err, "open")
	}
	f := &diskio.OSFile[int64]{File: osf}
	defer f.Close()

	buf := make([]byte, f.Size())
	if _, err := f.ReadAt(buf, 0); err != nil {
		return nil, wrapStoreErr(coord, err, "read")
	}
	return buf, nil
}
