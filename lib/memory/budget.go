// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package memory implements the cross-cutting memory budget and chunk
// cache (§4.11): saturating CPU/GPU byte tracking against soft caps,
// and an access-order chunk cache with the eviction semantics §8
// scenario 3 requires.
package memory

// MemoryBudget tracks CPU and GPU byte usage against soft caps
// configured in megabytes. All arithmetic saturates: Add never
// overflows past the uint64 range, Remove never underflows below
// zero, so a caller that double-frees or double-counts never corrupts
// the tracked totals into nonsense values.
type MemoryBudget struct {
	cpuUsed, cpuCap uint64
	gpuUsed, gpuCap uint64
}

// NewMemoryBudget builds a budget with the given soft caps, in
// megabytes.
func NewMemoryBudget(cpuCapMB, gpuCapMB uint64) *MemoryBudget {
	const mb = 1 << 20
	return &MemoryBudget{cpuCap: cpuCapMB * mb, gpuCap: gpuCapMB * mb}
}

func satAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

func satSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func (m *MemoryBudget) AddCPU(n uint64)    { m.cpuUsed = satAdd(m.cpuUsed, n) }
func (m *MemoryBudget) RemoveCPU(n uint64) { m.cpuUsed = satSub(m.cpuUsed, n) }
func (m *MemoryBudget) AddGPU(n uint64)    { m.gpuUsed = satAdd(m.gpuUsed, n) }
func (m *MemoryBudget) RemoveGPU(n uint64) { m.gpuUsed = satSub(m.gpuUsed, n) }

func (m *MemoryBudget) CPUUsed() uint64 { return m.cpuUsed }
func (m *MemoryBudget) GPUUsed() uint64 { return m.gpuUsed }

// CPUPressure and GPUPressure are the fraction of the respective cap
// currently used; a cap of zero is reported as zero pressure rather
// than dividing by zero.
func (m *MemoryBudget) CPUPressure() float64 {
	if m.cpuCap == 0 {
		return 0
	}
	return float64(m.cpuUsed) / float64(m.cpuCap)
}

func (m *MemoryBudget) GPUPressure() float64 {
	if m.gpuCap == 0 {
		return 0
	}
	return float64(m.gpuUsed) / float64(m.gpuCap)
}

// ShouldEvict reports whether either axis is under enough pressure
// (>90%) that the cache should start evicting entries.
func (m *MemoryBudget) ShouldEvict() bool {
	return m.CPUPressure() > 0.9 || m.GPUPressure() > 0.9
}

// CanLoad reports whether cpuBytes/gpuBytes more usage would still fit
// within both caps.
func (m *MemoryBudget) CanLoad(cpuBytes, gpuBytes uint64) bool {
	return satAdd(m.cpuUsed, cpuBytes) <= m.cpuCap && satAdd(m.gpuUsed, gpuBytes) <= m.gpuCap
}
