// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Allocator facade: Alloc/Calloc/Realloc/Free plus the *_opt variants and
// the descriptor metadata accessors. Every allocating call goes through
// the HostAllocator first; a failed Malloc or Calloc leaves the table
// untouched, while a failed Realloc removes the old descriptor (see
// Realloc). See tgc.c's gcalloc/gccalloc/gcrealloc/gcfree/gcset.

package tgc

import "unsafe"

// Alloc allocates size bytes and begins tracking the result. Returns nil
// if the host allocator fails; the table is left untouched in that case.
func (c *Collector) Alloc(size uintptr) unsafe.Pointer {
	return c.AllocOpt(size, 0, nil)
}

// Calloc allocates n*size zeroed bytes and begins tracking the result.
func (c *Collector) Calloc(n, size uintptr) unsafe.Pointer {
	return c.CallocOpt(n, size, 0, nil)
}

// AllocOpt is Alloc with an explicit initial flag set and finalizer.
func (c *Collector) AllocOpt(size uintptr, flags Flag, dtor Finalizer) unsafe.Pointer {
	ptr := c.allocator.Malloc(size)
	if ptr == nil {
		return nil
	}
	return c.track(ptr, size, flags, dtor)
}

// CallocOpt is Calloc with an explicit initial flag set and finalizer.
func (c *Collector) CallocOpt(n, size uintptr, flags Flag, dtor Finalizer) unsafe.Pointer {
	ptr := c.allocator.Calloc(n, size)
	if ptr == nil {
		return nil
	}
	return c.track(ptr, n*size, flags, dtor)
}

// track records a freshly host-allocated block, growing the table first
// if its ideal capacity has changed, then triggering a collection if the
// new item count crosses the threshold. Mirrors gcset.
// 注释：记录新分配的块：先按需要扩容表，再插入，最后检查是否需要触发回收
func (c *Collector) track(ptr unsafe.Pointer, size uintptr, flags Flag, dtor Finalizer) unsafe.Pointer {
	base := uintptr(ptr)
	c.table.nitems++
	c.updateRange(base, size)

	if err := c.table.growIfNeeded(); err != nil {
		c.table.nitems--
		c.allocator.Free(ptr)
		return nil
	}

	c.table.insert(descriptor{base: base, size: size, flags: flags, finalizer: dtor})
	c.metrics.items.Set(float64(c.table.nitems))
	c.metrics.capacity.Set(float64(c.table.cap()))
	c.maybeCollect()
	return ptr
}

// Realloc resizes ptr's block to size bytes. If ptr is nil this is
// equivalent to Alloc. On host-allocator failure the old descriptor is
// removed even though the block is technically still live, matching a
// real realloc's failure contract, and nil is returned. Flags and the
// finalizer are preserved across a moving realloc.
func (c *Collector) Realloc(ptr unsafe.Pointer, size uintptr) unsafe.Pointer {
	if ptr == nil {
		return c.Alloc(size)
	}

	newPtr := c.allocator.Realloc(ptr, size)
	if newPtr == nil {
		c.removeTracked(uintptr(ptr))
		return nil
	}
	if newPtr == ptr {
		c.table.updateSize(uintptr(ptr), size)
		c.updateRange(uintptr(ptr), size)
		return ptr
	}

	old, _ := c.table.remove(uintptr(ptr))
	c.table.nitems++
	c.updateRange(uintptr(newPtr), size)
	if err := c.table.growIfNeeded(); err != nil {
		c.table.nitems--
		c.allocator.Free(newPtr)
		return nil
	}
	c.table.insert(descriptor{
		base:      uintptr(newPtr),
		size:      size,
		flags:     old.flags,
		finalizer: old.finalizer,
	})
	return newPtr
}

// Free releases ptr immediately, bypassing collection. Free(nil) is a
// no-op. Also resets the collection threshold to nitems + nitems/2 + 1,
// matching gcfree.
func (c *Collector) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	c.removeTracked(uintptr(ptr))
	c.allocator.Free(ptr)
}

func (c *Collector) removeTracked(base uintptr) {
	c.table.remove(base)
	c.table.shrinkIfNeeded()
	c.threshold = c.table.nitems + c.table.nitems/2 + 1
	c.metrics.items.Set(float64(c.table.nitems))
	c.metrics.capacity.Set(float64(c.table.cap()))
	c.metrics.threshold.Set(float64(c.threshold))
}

// SetFlags overwrites the tracked flags for ptr. A silent no-op if ptr is
// untracked.
func (c *Collector) SetFlags(ptr unsafe.Pointer, flags Flag) {
	c.table.updateFlags(uintptr(ptr), flags)
}

// GetFlags returns the tracked flags for ptr, or 0 if untracked.
func (c *Collector) GetFlags(ptr unsafe.Pointer) Flag {
	d, ok := c.table.lookup(uintptr(ptr))
	if !ok {
		return 0
	}
	return d.flags
}

// SetDtor overwrites the tracked finalizer for ptr. A silent no-op if ptr
// is untracked.
func (c *Collector) SetDtor(ptr unsafe.Pointer, dtor Finalizer) {
	c.table.updateFinalizer(uintptr(ptr), dtor)
}

// GetDtor returns the tracked finalizer for ptr, or nil if untracked or
// none was set.
func (c *Collector) GetDtor(ptr unsafe.Pointer) Finalizer {
	d, ok := c.table.lookup(uintptr(ptr))
	if !ok {
		return nil
	}
	return d.finalizer
}
