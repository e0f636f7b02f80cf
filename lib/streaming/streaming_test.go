// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package streaming

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxcraft/core/lib/voxel"
)

// fakeDevice is an in-memory stand-in for a renderer's GPU buffers: a
// slice of slot payloads, a brick-id -> slot map mirroring the
// indirection buffer, and a pending-request list the test pushes into
// directly to simulate a trace pass writing requests.
type fakeDevice struct {
	mu           sync.Mutex
	slots        map[SlotIndex][]byte
	indirection  map[BrickID]SlotIndex
	pendingReqs  []BrickID
	writeSlots   []SlotIndex
	writtenIndir []BrickID
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		slots:       make(map[SlotIndex][]byte),
		indirection: make(map[BrickID]SlotIndex),
	}
}

func (d *fakeDevice) WriteSlot(slot SlotIndex, payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	d.slots[slot] = cp
	d.writeSlots = append(d.writeSlots, slot)
}

func (d *fakeDevice) WriteIndirection(id BrickID, slot SlotIndex) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slot == InvalidSlot {
		delete(d.indirection, id)
	} else {
		d.indirection[id] = slot
	}
	d.writtenIndir = append(d.writtenIndir, id)
}

func (d *fakeDevice) ResetRequestBuffer() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pendingReqs = nil
}

func (d *fakeDevice) ReadRequests() []BrickID {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.pendingReqs
	d.pendingReqs = nil
	return out
}

// simulateTrace appends ids as if a trace pass requested them this
// frame.
func (d *fakeDevice) simulateTrace(ids ...BrickID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pendingReqs = append(d.pendingReqs, ids...)
}

type fakeSource struct{ calls []BrickID }

func (s *fakeSource) Load(ctx context.Context, id BrickID) []byte {
	s.calls = append(s.calls, id)
	return []byte{byte(id.Index)}
}

func brick(x int32, idx uint32) BrickID {
	return BrickID{Chunk: voxel.ChunkCoord{X: x}, Index: idx}
}

func TestManagerUploadsRequestedBrick(t *testing.T) {
	t.Parallel()
	dev := newFakeDevice()
	src := &fakeSource{}
	m := NewManager(4, 8, dev, src, DefaultMaxLoadsPerFrame)

	m.BeginFrame()
	m.ResetRequests()
	dev.simulateTrace(brick(1, 1))
	m.ScheduleReadback()
	loaded := m.ProcessRequests(context.Background(), nil)

	require.Len(t, loaded, 1)
	assert.Equal(t, brick(1, 1), loaded[0])
	assert.True(t, m.Resident(brick(1, 1)))
	assert.Equal(t, 0, m.PendingCount())
}

func TestManagerEvictsOldestSlotNotTouchedThisFrame(t *testing.T) {
	t.Parallel()
	dev := newFakeDevice()
	src := &fakeSource{}
	m := NewManager(2, 8, dev, src, DefaultMaxLoadsPerFrame)

	load := func(ids ...BrickID) {
		m.BeginFrame()
		m.ResetRequests()
		dev.simulateTrace(ids...)
		m.ScheduleReadback()
		m.ProcessRequests(context.Background(), nil)
	}

	load(brick(1, 1))
	load(brick(2, 1))
	require.True(t, m.Resident(brick(1, 1)))
	require.True(t, m.Resident(brick(2, 1)))

	// Pool is full; a third distinct brick must evict the oldest
	// (brick(1,1), never touched again).
	load(brick(3, 1))
	assert.False(t, m.Resident(brick(1, 1)))
	assert.True(t, m.Resident(brick(2, 1)))
	assert.True(t, m.Resident(brick(3, 1)))
}

func TestManagerRespectsMaxLoadsPerFrame(t *testing.T) {
	t.Parallel()
	dev := newFakeDevice()
	src := &fakeSource{}
	m := NewManager(8, 16, dev, src, 2)

	m.BeginFrame()
	m.ResetRequests()
	dev.simulateTrace(brick(1, 1), brick(1, 2), brick(1, 3))
	m.ScheduleReadback()
	loaded := m.ProcessRequests(context.Background(), nil)

	assert.Len(t, loaded, 2)
	assert.Equal(t, 1, m.PendingCount())

	// The leftover request is serviced on the next frame without being
	// re-requested.
	m.BeginFrame()
	m.ResetRequests()
	m.ScheduleReadback()
	loaded = m.ProcessRequests(context.Background(), nil)
	assert.Len(t, loaded, 1)
	assert.Equal(t, 0, m.PendingCount())
}

func TestManagerPriorityOrdersHigherFirst(t *testing.T) {
	t.Parallel()
	dev := newFakeDevice()
	src := &fakeSource{}
	m := NewManager(8, 16, dev, src, 1)

	m.BeginFrame()
	m.ResetRequests()
	dev.simulateTrace(brick(1, 1), brick(1, 2))
	m.ScheduleReadback()

	priority := func(id BrickID, requestFrame uint64) float64 {
		if id.Index == 2 {
			return 100
		}
		return 1
	}
	loaded := m.ProcessRequests(context.Background(), priority)
	require.Len(t, loaded, 1)
	assert.Equal(t, uint32(2), loaded[0].Index)
}

func TestPreloadAllBypassesQueueUpToCapacity(t *testing.T) {
	t.Parallel()
	dev := newFakeDevice()
	src := &fakeSource{}
	m := NewManager(2, 8, dev, src, DefaultMaxLoadsPerFrame)

	loaded := m.PreloadAll(context.Background(), []BrickID{brick(1, 1), brick(1, 2), brick(1, 3)})
	assert.Len(t, loaded, 2)
	assert.True(t, m.Resident(brick(1, 1)))
	assert.True(t, m.Resident(brick(1, 2)))
	assert.False(t, m.Resident(brick(1, 3)))
}

func TestBrickPoolAllocateReusesFreedSlot(t *testing.T) {
	t.Parallel()
	p := NewBrickPool(1)
	slot, _, evicted := p.Allocate(brick(1, 1), 0)
	require.False(t, evicted)
	p.Free(slot)
	slot2, _, evicted2 := p.Allocate(brick(2, 1), 1)
	assert.False(t, evicted2)
	assert.Equal(t, slot, slot2)
}

func TestBrickPoolAllocateReturnsInvalidWhenAllTouchedThisFrame(t *testing.T) {
	t.Parallel()
	p := NewBrickPool(1)
	_, _, _ = p.Allocate(brick(1, 1), 5)
	slot, _, evicted := p.Allocate(brick(2, 1), 5)
	assert.Equal(t, InvalidSlot, slot)
	assert.False(t, evicted)
}
