// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Mark phase: trace every root, then conservatively scan the mutator's
// stack window. See tgc.c's gcmark/gcmarkstack/gcmarkitem.

package tgc

import "unsafe"

const wordSize = unsafe.Sizeof(uintptr(0))

// mark runs the full mark phase: roots first, then the stack.
// 注释：标记阶段：先标记所有根对象，再保守扫描栈窗口
func (c *Collector) mark() {
	if c.table.nitems == 0 {
		return
	}
	c.markRoots()
	c.markStack()
}

// markRoots walks every slot; any descriptor with FlagRoot set and
// FlagMarked clear is marked and traced. It continues through the whole
// table so every root is traced, not just the first one found.
// 注释：与原始实现不同：这里遍历全部根对象，而不是找到第一个就返回
func (c *Collector) markRoots() {
	for i := range c.table.slots {
		d := &c.table.slots[i]
		if d.empty() || d.flags&FlagMarked != 0 {
			continue
		}
		if d.flags&FlagRoot != 0 {
			d.flags |= FlagMarked
			c.traceBlock(d)
		}
	}
}

// markStack conservatively scans the window between the anchor recorded
// at Start and a local variable's address in this frame. Go exposes no
// portable, ordinary-package way to force callee-saved or volatile
// registers out to memory the way tgc.c's setjmp-based spill does; see
// the package doc for the resulting caveat (a goroutine stack can also
// relocate between Start and a later Run, which a native stack cannot).
// 注释：保守扫描栈窗口：逐字测试该窗口内的每个对齐字
func (c *Collector) markStack() {
	var stackTop int
	top := unsafe.Pointer(&stackTop)

	bot := uintptr(c.anchor)
	cur := uintptr(top)
	if bot == cur {
		return
	}

	lo, hi := bot, cur
	if lo > hi {
		lo, hi = hi, lo
	}
	lo -= lo % wordSize // align down

	for p := lo; p+wordSize <= hi; p += wordSize {
		w := *(*uintptr)(unsafe.Pointer(p))
		c.markItem(w)
	}
}

// markItem is the conservative pointer test: reject anything outside the
// tracked address range cheaply, then probe the table for a containing,
// unmarked block and trace it. See tgc.c's gcmarkitem.
// 注释：保守指针测试：先用 min/max 快速过滤，再按地址区间匹配表
func (c *Collector) markItem(w uintptr) {
	if w < c.minptr || w > c.maxptr {
		return
	}
	idx, ok := c.table.findContaining(w)
	if !ok {
		return
	}
	d := &c.table.slots[idx]
	if d.flags&FlagMarked != 0 {
		return
	}
	d.flags |= FlagMarked
	c.traceBlock(d)
}

// traceBlock steps through a marked block's payload at pointer-word
// stride, front to back, applying the conservative pointer test to each
// aligned word. A block flagged FlagLeaf is assumed to hold no outgoing
// pointers and is skipped. Because a block is only ever traced on the
// unmarked-to-marked transition, arbitrary cycles terminate. The scan is
// always bounded by the traced block's own size, taken from the
// descriptor the caller already holds, never some other slot's.
// 注释：追踪标记块的内容：按字长步进，用该块自身的大小作为边界，叶子节点提示可跳过扫描
func (c *Collector) traceBlock(d *descriptor) {
	if d.flags&FlagLeaf != 0 {
		return
	}
	base, size := d.base, d.size
	for off := uintptr(0); off+wordSize <= size; off += wordSize {
		w := *(*uintptr)(unsafe.Pointer(base + off))
		c.markItem(w)
	}
}
