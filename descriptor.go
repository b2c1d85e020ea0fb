// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tgc

import "unsafe"

// Finalizer is invoked on a tracked block's payload immediately before the
// block's memory is returned to the host allocator. It must not touch the
// collector it was registered with; no tgc operation is reentrant from a
// finalizer. 注释：析构函数，在底层分配器真正释放内存之前调用，不能在析构函数里再次调用本包的接口
type Finalizer func(ptr unsafe.Pointer)

// Flag is a bit set attached to every tracked block.
type Flag uint32

const (
	// FlagRoot marks a block as a persistent root: always scanned, never
	// swept, independent of mark state. 注释：根对象标记，常驻，永远不会被清扫
	FlagRoot Flag = 1 << iota

	// FlagMarked is set by the mark phase and cleared after every sweep.
	// The mutator should not set this itself. 注释：内部使用的标记位，标记阶段设置，清扫阶段清除
	FlagMarked

	// FlagLeaf is a user hint: a block so flagged need not be scanned for
	// outgoing pointers (it holds no tracked references). Implementations
	// may ignore it; tgc currently honors it. 注释：叶子节点提示，标记后该块不再被扫描指针
	FlagLeaf

	// FlagOpaque is a second reserved user hint bit, preserved across
	// Realloc but otherwise uninterpreted by the collector.
	FlagOpaque
)

// descriptor is one entry in the pointer table: everything the collector
// knows about a single tracked block. 注释：每个被跟踪内存块在表中的描述符
type descriptor struct {
	base      uintptr    // 注释：块起始地址，哈希键
	size      uintptr    // 注释：块大小（字节），决定扫描该块时读取的范围
	flags     Flag
	probe     uint64     // 注释：探测哈希，0表示空槽，否则为 ideal_index+1
	finalizer Finalizer
}

// empty reports whether this slot currently holds no descriptor.
func (d *descriptor) empty() bool {
	return d.probe == 0
}

// contains reports whether w falls within [base, base+size), the
// conservative "this word points into me" test used by mark.
func (d *descriptor) contains(w uintptr) bool {
	return w >= d.base && w < d.base+d.size
}
