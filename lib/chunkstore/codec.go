// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package chunkstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	"git.lukeshu.com/go/typedsync"

	"github.com/voxcraft/core/lib/binstruct"
	"github.com/voxcraft/core/lib/mask"
	"github.com/voxcraft/core/lib/octree"
	"github.com/voxcraft/core/lib/voxel"
)

// bufPool is a reusable scratch buffer for compression, sized on
// demand; repeated chunk saves/loads don't each allocate a fresh
// buffer the size of a compressed chunk.
var bufPool typedsync.Pool[[]byte]

func getBuf(size int) []byte {
	if b, ok := bufPool.Get(); ok && cap(b) >= size {
		return b[:size]
	}
	return make([]byte, size)
}

func putBuf(b []byte) {
	bufPool.Put(b)
}

// encodeOctreeSection appends one octree's zero-copy layout to buf:
// root_size (f32 bits), max_depth (u8), node count, brick count,
// nodes[], bricks[] — per §6's chunk file format. A nil octree encodes
// as an empty one (root_size 0, max_depth 0, no nodes/bricks) guarded
// by the caller's presence byte.
func encodeOctreeSection(buf *bytes.Buffer, o *octree.Octree) error {
	var rootSize float32
	var maxDepth uint8
	var nodes []octree.Node
	var bricks []voxel.Brick
	if o != nil {
		rootSize, maxDepth, nodes, bricks = o.RootSize, o.MaxDepth, o.Nodes, o.Bricks
	}

	_ = binary.Write(buf, binary.LittleEndian, math.Float32bits(rootSize))
	buf.WriteByte(maxDepth)
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(nodes)))
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(bricks)))

	for _, n := range nodes {
		b, err := binstruct.Marshal(n)
		if err != nil {
			return errors.Wrap(err, "marshal node")
		}
		buf.Write(b)
	}
	for _, brick := range bricks {
		for _, v := range brick {
			b, err := binstruct.Marshal(v)
			if err != nil {
				return errors.Wrap(err, "marshal voxel")
			}
			buf.Write(b)
		}
	}
	return nil
}

type byteCursor struct {
	data []byte
	pos  int
}

func (c *byteCursor) need(n int) error {
	if c.pos+n > len(c.data) {
		return fmt.Errorf("unexpected end of data: need %d bytes at offset %d, have %d", n, c.pos, len(c.data))
	}
	return nil
}

func (c *byteCursor) readU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *byteCursor) readU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *byteCursor) readU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *byteCursor) readN(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func decodeOctreeSection(c *byteCursor) (*octree.Octree, error) {
	rootSizeBits, err := c.readU32()
	if err != nil {
		return nil, err
	}
	maxDepth, err := c.readU8()
	if err != nil {
		return nil, err
	}
	nodeCount, err := c.readU32()
	if err != nil {
		return nil, err
	}
	brickCount, err := c.readU32()
	if err != nil {
		return nil, err
	}

	nodeSize := binstruct.StaticSize(octree.Node{})
	nodes := make([]octree.Node, nodeCount)
	for i := range nodes {
		raw, err := c.readN(nodeSize)
		if err != nil {
			return nil, errors.Wrap(err, "read node")
		}
		if _, err := binstruct.Unmarshal(raw, &nodes[i]); err != nil {
			return nil, errors.Wrap(err, "unmarshal node")
		}
	}

	voxelSize := binstruct.StaticSize(voxel.Voxel{})
	bricks := make([]voxel.Brick, brickCount)
	for i := range bricks {
		for j := range bricks[i] {
			raw, err := c.readN(voxelSize)
			if err != nil {
				return nil, errors.Wrap(err, "read voxel")
			}
			if _, err := binstruct.Unmarshal(raw, &bricks[i][j]); err != nil {
				return nil, errors.Wrap(err, "unmarshal voxel")
			}
		}
	}

	return &octree.Octree{
		Nodes:    nodes,
		Bricks:   bricks,
		RootSize: math.Float32frombits(rootSizeBits),
		MaxDepth: maxDepth,
	}, nil
}

// encodeChunk serializes a Chunk to the uncompressed wire layout: 3×i32
// coord, then the terrain octree section (always present), then rock
// and tree sections each guarded by a presence byte. The original
// chunk file format (§6) names a single octree per chunk; this module
// generates three (terrain/rock/tree per §4.6), so the format is
// extended with presence-gated sibling sections rather than splitting
// across three files.
func encodeChunk(c *Chunk) ([]byte, error) {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, c.Coord.X)
	_ = binary.Write(buf, binary.LittleEndian, c.Coord.Y)
	_ = binary.Write(buf, binary.LittleEndian, c.Coord.Z)

	if err := encodeOctreeSection(buf, c.Terrain); err != nil {
		return nil, errors.Wrap(err, "terrain")
	}
	if err := encodeOptionalSection(buf, c.Rock); err != nil {
		return nil, errors.Wrap(err, "rock")
	}
	if err := encodeOptionalSection(buf, c.Tree); err != nil {
		return nil, errors.Wrap(err, "tree")
	}
	return buf.Bytes(), nil
}

func encodeOptionalSection(buf *bytes.Buffer, o *octree.Octree) error {
	if o == nil {
		buf.WriteByte(0)
		return nil
	}
	buf.WriteByte(1)
	return encodeOctreeSection(buf, o)
}

func decodeChunk(data []byte) (*Chunk, error) {
	c := &byteCursor{data: data}

	readI32 := func() (int32, error) {
		u, err := c.readU32()
		return int32(u), err
	}
	x, err := readI32()
	if err != nil {
		return nil, err
	}
	y, err := readI32()
	if err != nil {
		return nil, err
	}
	z, err := readI32()
	if err != nil {
		return nil, err
	}

	terrain, err := decodeOctreeSection(c)
	if err != nil {
		return nil, errors.Wrap(err, "terrain")
	}

	rock, err := decodeOptionalSection(c)
	if err != nil {
		return nil, errors.Wrap(err, "rock")
	}
	tree, err := decodeOptionalSection(c)
	if err != nil {
		return nil, errors.Wrap(err, "tree")
	}

	return &Chunk{
		Coord:   voxel.ChunkCoord{X: x, Y: y, Z: z},
		Terrain: terrain,
		Rock:    rock,
		Tree:    tree,
	}, nil
}

func decodeOptionalSection(c *byteCursor) (*octree.Octree, error) {
	present, err := c.readU8()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	return decodeOctreeSection(c)
}

// encodeGrassMask serializes a grass mask octree: root_size (f32 bits),
// max_depth (u8), node count, then one (valid_mask u8, child_offset
// u32, value u16) record per node. §6 describes mask node records as
// (child_mask, leaf_mask, flags, child_off, value_off, lod_idx) plus a
// separate values array; this module's mask.MaskNode[T] inlines its
// value and has no leaf/internal distinction (every node, not just
// leaves, carries a usable Value), so the record is simplified
// accordingly.
func encodeGrassMask(m *mask.MaskOctree[GrassCell]) []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, math.Float32bits(m.RootSize))
	buf.WriteByte(m.MaxDepth)
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(m.Nodes)))
	for _, n := range m.Nodes {
		buf.WriteByte(n.ValidMask)
		_ = binary.Write(buf, binary.LittleEndian, n.ChildOffset)
		_ = binary.Write(buf, binary.LittleEndian, uint16(n.Value))
	}
	return buf.Bytes()
}

func decodeGrassMask(data []byte) (*mask.MaskOctree[GrassCell], error) {
	c := &byteCursor{data: data}
	rootSizeBits, err := c.readU32()
	if err != nil {
		return nil, err
	}
	maxDepth, err := c.readU8()
	if err != nil {
		return nil, err
	}
	count, err := c.readU32()
	if err != nil {
		return nil, err
	}

	nodes := make([]mask.MaskNode[GrassCell], count)
	for i := range nodes {
		validMask, err := c.readU8()
		if err != nil {
			return nil, errors.Wrap(err, "read valid mask")
		}
		childOffset, err := c.readU32()
		if err != nil {
			return nil, errors.Wrap(err, "read child offset")
		}
		value, err := c.readU16()
		if err != nil {
			return nil, errors.Wrap(err, "read value")
		}
		nodes[i] = mask.MaskNode[GrassCell]{ValidMask: validMask, ChildOffset: childOffset, Value: GrassCell(value)}
	}

	return &mask.MaskOctree[GrassCell]{
		Nodes:    nodes,
		RootSize: math.Float32frombits(rootSizeBits),
		MaxDepth: maxDepth,
	}, nil
}

// compressFrame LZ4-compresses raw, prefixed with a 4-byte
// little-endian uncompressed size, per §4.8/§6.
func compressFrame(raw []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(raw))
	dst := getBuf(bound)
	defer putBuf(dst)

	var ht [1 << 16]int
	n, err := lz4.CompressBlock(raw, dst, ht[:])
	if err != nil {
		return nil, errors.Wrap(err, "lz4 compress")
	}

	out := make([]byte, 4+n)
	binary.LittleEndian.PutUint32(out, uint32(len(raw)))
	if n == 0 {
		// Incompressible input: lz4 leaves dst untouched and reports 0;
		// CompressBlock guarantees this only when raw itself is empty.
		return out, nil
	}
	copy(out[4:], dst[:n])
	return out, nil
}

// decompressFrame reverses compressFrame.
func decompressFrame(framed []byte) ([]byte, error) {
	if len(framed) < 4 {
		return nil, fmt.Errorf("frame too short: %d bytes", len(framed))
	}
	size := binary.LittleEndian.Uint32(framed)
	if size == 0 {
		return nil, nil
	}
	raw := make([]byte, size)
	n, err := lz4.UncompressBlock(framed[4:], raw)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 decompress")
	}
	if n != int(size) {
		return nil, fmt.Errorf("decompressed %d bytes, expected %d", n, size)
	}
	return raw, nil
}
