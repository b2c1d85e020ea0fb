// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tgc

import (
	"runtime"
	"sync"
	"unsafe"
)

// HostAllocator is the Go shape of the four operations spec'd as external
// collaborators: a host malloc/calloc/realloc/free. tgc never implements
// these itself; it calls through this interface and then records the
// resulting descriptor. 注释：宿主分配器接口，对应 C 版本里的 malloc/calloc/realloc/free
type HostAllocator interface {
	// Malloc returns size bytes, or nil on failure.
	Malloc(size uintptr) unsafe.Pointer
	// Calloc returns n*size zeroed bytes, or nil on failure.
	Calloc(n, size uintptr) unsafe.Pointer
	// Realloc resizes ptr to size bytes, possibly moving it, or returns
	// nil on failure (leaving ptr's block intact, as a real realloc does).
	Realloc(ptr unsafe.Pointer, size uintptr) unsafe.Pointer
	// Free releases ptr. Free(nil) must be a no-op.
	Free(ptr unsafe.Pointer)
}

// PinnedAllocator is the default HostAllocator: it backs each "host" block
// with an ordinary Go byte slice, pinned with runtime.Pinner so that tgc's
// own reachability bookkeeping (which tracks raw addresses, invisible to
// Go's own collector) cannot be undone by Go moving or reclaiming the
// backing array out from under it. This lets tgc track blocks without
// cgo; a cgo-backed HostAllocator wrapping C.malloc is a drop-in
// alternative for programs that already pay the cgo cost elsewhere.
// 注释：默认宿主分配器，用 runtime.Pinner 钉住切片，避免 Go 自身 GC 移动/回收被跟踪的内存
type PinnedAllocator struct {
	mu      sync.Mutex
	buffers map[uintptr]pinnedBuffer
}

type pinnedBuffer struct {
	buf    []byte
	pinner *runtime.Pinner
}

// NewPinnedAllocator returns a ready-to-use PinnedAllocator.
func NewPinnedAllocator() *PinnedAllocator {
	return &PinnedAllocator{buffers: make(map[uintptr]pinnedBuffer)}
}

func addrOf(buf []byte) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(buf))
}

// Malloc implements HostAllocator.
func (a *PinnedAllocator) Malloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		size = 1
	}
	buf := make([]byte, size)
	ptr := addrOf(buf)

	p := &runtime.Pinner{}
	p.Pin(ptr)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.buffers[uintptr(ptr)] = pinnedBuffer{buf: buf, pinner: p}
	return ptr
}

// Calloc implements HostAllocator; Go's make already zeroes, so this is
// Malloc(n*size) in disguise.
func (a *PinnedAllocator) Calloc(n, size uintptr) unsafe.Pointer {
	return a.Malloc(n * size)
}

// Realloc implements HostAllocator by allocating fresh, copying the
// overlapping prefix, and freeing the old block — Go has no in-place
// slice grow primitive at this level, so every Realloc here "moves".
func (a *PinnedAllocator) Realloc(ptr unsafe.Pointer, size uintptr) unsafe.Pointer {
	if ptr == nil {
		return a.Malloc(size)
	}
	a.mu.Lock()
	old, ok := a.buffers[uintptr(ptr)]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	fresh := a.Malloc(size)
	copy(unsafe.Slice((*byte)(fresh), size), old.buf)
	a.Free(ptr)
	return fresh
}

// Free implements HostAllocator. Free(nil) is a no-op.
func (a *PinnedAllocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	a.mu.Lock()
	old, ok := a.buffers[uintptr(ptr)]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.buffers, uintptr(ptr))
	a.mu.Unlock()
	old.pinner.Unpin()
}
