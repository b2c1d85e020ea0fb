// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Sweep phase: reclaim unmarked non-root blocks, compact the table in
// place, clear survivors' MARKED bit, resize, recompute the threshold,
// then free the pending list. See tgc.c's gcsweep.

package tgc

import (
	"time"
	"unsafe"

	"go.uber.org/zap"
)

// sweep walks every slot once, reclaiming unmarked non-root blocks, then
// clears MARKED on survivors, shrinks the table, recomputes the
// threshold, and finally frees the pending blocks — in that order, so a
// finalizer that happens to query the table never observes a
// half-compacted slot. 注释：两阶段释放：先完成表压缩，再真正释放内存
func (c *Collector) sweep() {
	start := time.Now()
	reclaimed := c.reclaimUnmarked()
	c.clearMarks()

	c.table.shrinkIfNeeded()
	c.threshold = c.table.nitems + uint64(float64(c.table.nitems)*c.sweepFactor) + 1

	c.flushPending()

	c.metrics.sweeps.Inc()
	c.metrics.sweepDuration.Observe(time.Since(start).Seconds())
	c.metrics.reclaimedPerRun.Observe(float64(reclaimed))
	c.metrics.items.Set(float64(c.table.nitems))
	c.metrics.capacity.Set(float64(c.table.cap()))
	c.metrics.threshold.Set(float64(c.threshold))

	c.logger.Debug("tgc: swept", zap.Int("reclaimed", reclaimed))
}

// reclaimUnmarked deletes every unmarked, non-root slot, invoking its
// finalizer (if any) and enqueuing its base address for the deferred
// host-free, compacting the probe chain as it goes. Because deleteSlot
// may pull a new occupant into the slot just vacated, the cursor does not
// advance on a reclaim — it re-examines the same index. 注释：不推进游标，
// 因为回移压缩可能把新的条目拉到当前位置
func (c *Collector) reclaimUnmarked() int {
	reclaimed := 0
	i := uint64(0)
	for i < c.table.cap() {
		d := &c.table.slots[i]
		if d.empty() || d.flags&FlagMarked != 0 {
			i++
			continue
		}
		if d.flags&FlagRoot != 0 {
			// Unmarked root: still live, left in place.
			i++
			continue
		}

		base := unsafe.Pointer(d.base) // address of a host-allocator block, not a Go-heap object
		if d.finalizer != nil {
			d.finalizer(base)
		}
		c.pending = append(c.pending, base)
		c.table.deleteSlot(i)
		c.table.nitems--
		reclaimed++
		// do not advance i
	}
	return reclaimed
}

// clearMarks resets FlagMarked on every surviving slot after the reclaim
// pass has finished, so the next mark phase starts clean.
func (c *Collector) clearMarks() {
	for i := range c.table.slots {
		d := &c.table.slots[i]
		if d.empty() {
			continue
		}
		d.flags &^= FlagMarked
	}
}

// flushPending hands every enqueued address to the host allocator's Free,
// then drops the pending slice.
func (c *Collector) flushPending() {
	for _, p := range c.pending {
		c.allocator.Free(p)
	}
	c.pending = nil
}
