// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package streaming implements the GPU brick streaming manager (§4.9):
// a fixed-capacity pool of GPU-resident brick slots, an indirection
// table mapping brick ids to slots, and the strict per-frame protocol
// that drains a request queue into slot uploads without ever uploading
// more than a bounded number of bricks in a single frame.
//
// Bookkeeping (BrickPool, the indirection table, the CPU-side decode
// cache) is kept separate from the actual device calls, which are
// pushed through the small Device interface instead of an imported GPU
// binding — mirroring how gekko3d's gpu.GpuBufferManager separates
// buffer/offset bookkeeping from the wgpu.Device calls it eventually
// issues.
package streaming

import (
	"context"

	"github.com/voxcraft/core/lib/caching"
	"github.com/voxcraft/core/lib/voxel"
)

// BrickID addresses one brick within one chunk's octree. Index is the
// brick's position in that octree's Bricks slice (index 0, the
// reserved padding brick, is never requested).
type BrickID struct {
	Chunk voxel.ChunkCoord
	Index uint32
}

// SlotIndex addresses one slot in a BrickPool. InvalidSlot means "not
// resident", matching the indirection table's sentinel from §4.9.
type SlotIndex int32

const InvalidSlot SlotIndex = -1

// DefaultMaxLoadsPerFrame is §4.9's MAX_LOADS_PER_FRAME.
const DefaultMaxLoadsPerFrame = 256

// Device is the narrow surface ProcessRequests pushes actual GPU work
// through. A renderer implements it against its real buffers; tests
// use an in-memory fake (see streaming_test.go).
type Device interface {
	// WriteSlot uploads a brick's voxel payload into slot.
	WriteSlot(slot SlotIndex, payload []byte)
	// WriteIndirection updates the brick-id -> slot mapping the
	// renderer's trace pass reads. slot == InvalidSlot clears an
	// entry that is no longer resident.
	WriteIndirection(id BrickID, slot SlotIndex)
	// ResetRequestBuffer clears the GPU-side request queue so the
	// coming frame's trace pass starts from empty.
	ResetRequestBuffer()
	// ReadRequests drains and returns whatever brick ids the trace
	// pass has written to the request buffer since the last call.
	ReadRequests() []BrickID
}

// BrickSource supplies the decoded voxel payload for a brick that
// isn't already in the CPU cache — normally backed by a chunk's
// already-generated/loaded octree.
type BrickSource interface {
	Load(ctx context.Context, id BrickID) []byte
}

type sourceAdapter struct{ src BrickSource }

func (s sourceAdapter) Load(ctx context.Context, id BrickID, v *[]byte) { *v = s.src.Load(ctx, id) }
func (s sourceAdapter) Flush(context.Context, *[]byte)                 {}

// pendingRequest is a brick request waiting to be serviced, carrying
// enough to compute §4.9's priority (distance + LOD + request frame)
// without the manager needing to know what "distance" or "LOD" mean.
type pendingRequest struct {
	id    BrickID
	frame uint64
}

// PriorityFunc scores a pending brick request; higher values are
// serviced first. frame is the frame the request was first observed on
// (not necessarily the current frame, if it carried over from a
// previous frame's unserviced backlog).
type PriorityFunc func(id BrickID, requestFrame uint64) float64

// Manager is the streaming manager described in §4.9. The zero value
// is not usable; construct with NewManager.
type Manager struct {
	pool             *BrickPool
	device           Device
	cache            caching.Cache[BrickID, []byte]
	maxLoadsPerFrame int

	frame   uint64
	staged  []BrickID
	pending map[BrickID]pendingRequest
}

// NewManager builds a streaming manager with a pool of the given slot
// capacity, a CPU-side decode cache of cacheCapacity bricks backed by
// src, talking to device for the actual GPU-visible writes.
func NewManager(poolCapacity, cacheCapacity int, device Device, src BrickSource, maxLoadsPerFrame int) *Manager {
	if maxLoadsPerFrame <= 0 {
		maxLoadsPerFrame = DefaultMaxLoadsPerFrame
	}
	return &Manager{
		pool:             NewBrickPool(poolCapacity),
		device:           device,
		cache:            caching.NewARCache[BrickID, []byte](cacheCapacity, sourceAdapter{src}),
		maxLoadsPerFrame: maxLoadsPerFrame,
		pending:          make(map[BrickID]pendingRequest),
	}
}

// Frame returns the current frame counter.
func (m *Manager) Frame() uint64 { return m.frame }

// BeginFrame bumps the frame counter. Call once at the start of each
// frame, before ResetRequests.
func (m *Manager) BeginFrame() {
	m.frame++
}

// ResetRequests clears the GPU-side request buffer so this frame's
// trace pass starts writing fresh requests.
func (m *Manager) ResetRequests() {
	m.device.ResetRequestBuffer()
}

// ScheduleReadback copies whatever the trace pass has written to the
// request buffer since the last call into the manager's staging area,
// to be consumed by the next ProcessRequests call. This models the
// GPU->CPU copy §4.9 describes; in a real renderer this is issued
// after the trace pass and its result isn't available until a later
// frame, which is where the "requested on frame N, resident no earlier
// than N+2" bound comes from: readback lags the trace pass by a frame,
// and upload lags readback by another.
func (m *Manager) ScheduleReadback() {
	m.staged = append(m.staged, m.device.ReadRequests()...)
}

// ProcessRequests enqueues every staged brick id (deduplicating
// against already-pending or already-resident bricks), then services
// up to maxLoadsPerFrame of the highest-priority pending requests:
// allocate a slot (reusing a free one, else evicting the oldest slot
// untouched this frame), fetch the brick's payload through the CPU
// cache, upload it, and point the indirection table at the new slot.
// Requests left over because the pool ran out of evictable slots this
// frame remain pending for the next call. Returns the ids actually
// uploaded this call.
func (m *Manager) ProcessRequests(ctx context.Context, priority PriorityFunc) []BrickID {
	for _, id := range m.staged {
		if _, resident := m.pool.Lookup(id); resident {
			continue
		}
		if _, already := m.pending[id]; already {
			continue
		}
		m.pending[id] = pendingRequest{id: id, frame: m.frame}
	}
	m.staged = m.staged[:0]

	order := make([]pendingRequest, 0, len(m.pending))
	for _, r := range m.pending {
		order = append(order, r)
	}
	sortByPriorityDesc(order, priority)

	loaded := make([]BrickID, 0, m.maxLoadsPerFrame)
	for _, req := range order {
		if len(loaded) >= m.maxLoadsPerFrame {
			break
		}
		if _, resident := m.pool.Lookup(req.id); resident {
			delete(m.pending, req.id)
			continue
		}

		slot, evictedID, evicted := m.pool.Allocate(req.id, m.frame)
		if slot == InvalidSlot {
			// No slot could be freed this frame without touching one
			// used this frame; leave the rest of the backlog pending.
			break
		}

		payload := m.cache.Acquire(ctx, req.id)
		m.device.WriteSlot(slot, *payload)
		m.cache.Release(req.id)

		if evicted {
			m.device.WriteIndirection(evictedID, InvalidSlot)
		}
		m.device.WriteIndirection(req.id, slot)

		delete(m.pending, req.id)
		loaded = append(loaded, req.id)
	}
	return loaded
}

// PreloadAll bypasses the request queue and uploads ids directly, up
// to the pool's capacity. Slots come from BrickPool.Allocate, so when
// no slot is free a brick not touched this frame is evicted and its
// indirection entry cleared; preloading stops once Allocate finds no
// slot at all.
func (m *Manager) PreloadAll(ctx context.Context, ids []BrickID) []BrickID {
	loaded := make([]BrickID, 0, min(len(ids), m.pool.Capacity()))
	for _, id := range ids {
		if len(loaded) >= m.pool.Capacity() {
			break
		}
		if _, resident := m.pool.Lookup(id); resident {
			continue
		}
		slot, evictedID, evicted := m.pool.Allocate(id, m.frame)
		if slot == InvalidSlot {
			break
		}
		payload := m.cache.Acquire(ctx, id)
		m.device.WriteSlot(slot, *payload)
		m.cache.Release(id)
		if evicted {
			m.device.WriteIndirection(evictedID, InvalidSlot)
		}
		m.device.WriteIndirection(id, slot)
		loaded = append(loaded, id)
	}
	return loaded
}

// Resident reports whether id currently occupies a GPU slot.
func (m *Manager) Resident(id BrickID) bool {
	_, ok := m.pool.Lookup(id)
	return ok
}

// PendingCount returns the number of requests not yet serviced.
func (m *Manager) PendingCount() int { return len(m.pending) }

func sortByPriorityDesc(reqs []pendingRequest, priority PriorityFunc) {
	score := func(r pendingRequest) float64 {
		if priority == nil {
			return -float64(r.frame) // FIFO fallback: earliest frame first
		}
		return priority(r.id, r.frame)
	}
	// Insertion sort: request backlogs are small (bounded by how many
	// bricks a trace pass can newly touch in one frame), so O(n^2)
	// here is cheaper than pulling in a heap for this one call site.
	for i := 1; i < len(reqs); i++ {
		j := i
		for j > 0 && score(reqs[j]) > score(reqs[j-1]) {
			reqs[j], reqs[j-1] = reqs[j-1], reqs[j]
			j--
		}
	}
}
