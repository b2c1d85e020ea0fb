// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Pointer table: an open-addressed, Robin-Hood hashed set of block
// descriptors keyed by base address.
//
// See tgc.c's gcsetptr/gcremptr/gcmarkitem for the algorithm this file
// ports. The table never uses tombstones: removal walks backward-shifting
// every displaced successor into the freed slot, which keeps the probe
// invariant intact without a deleted marker.
// 注释：开放寻址、Robin-Hood 哈希表，移除使用回移（backward-shift）而不是墓碑标记

package tgc

import "github.com/pkg/errors"

// primes is the fixed capacity ladder. Capacities below this table's last
// entry are always exactly one of these; above it, growth proceeds in
// integer multiples of the last prime. 注释：容量阶梯，固定的素数表
var primes = [...]uint64{
	0, 1, 5, 11,
	23, 53, 101, 197,
	389, 683, 1259, 2417,
	4733, 9371, 18617, 37097,
	74093, 148073, 296099, 592019,
	1100009, 2200013, 4400021, 8800019,
}

// table is the pointer table proper: a flat slice of descriptors plus the
// bookkeeping the collector needs to size and scan it.
type table struct {
	slots      []descriptor
	nitems     uint64
	loadFactor float64 // 注释：目标装载因子，默认 0.9
}

func newTable(loadFactor float64) *table {
	return &table{loadFactor: loadFactor}
}

func (t *table) cap() uint64 { return uint64(len(t.slots)) }

// hash is the address hash: shift off the low bits, which are almost
// always zero due to allocator alignment anyway. 注释：哈希函数，丢弃低3位
func hash(base uintptr) uint64 {
	return uint64(base) >> 3
}

// idealCap returns the smallest prime capacity able to hold n items at the
// table's load factor, or, once the ladder is exhausted, the smallest
// multiple of the largest prime that can. 注释：计算n个元素在给定装载因子下的理想容量
func idealCap(n uint64, loadFactor float64) uint64 {
	want := uint64(float64(n+1) / loadFactor)
	for _, p := range primes {
		if p >= want {
			return p
		}
	}
	last := primes[len(primes)-1]
	for i := uint64(1); ; i++ {
		if last*i >= want {
			return last * i
		}
	}
}

// probeDistance is how far slot i is from the ideal index implied by h,
// where h is the slot's stored probe hash (ideal_index+1). 注释：探测距离，i 与理想下标的差，取模容量避免负数
func (t *table) probeDistance(i uint64, h uint64) uint64 {
	ideal := h - 1
	if i >= ideal {
		return i - ideal
	}
	return t.cap() - (ideal - i)
}

// resize reallocates the slot slice to newCap and reinserts every live
// descriptor. Shrinking and growing share this path, matching gcrehash.
// 注释：调整表容量，重新分配并重新插入每个有效描述符，对应 C 源码里的 gcrehash
func (t *table) resize(newCap uint64) error {
	if newCap == t.cap() {
		return nil
	}
	old := t.slots
	fresh := make([]descriptor, newCap)
	t.slots = fresh
	for i := range old {
		if old[i].empty() {
			continue
		}
		t.insert(old[i])
	}
	return nil
}

// growIfNeeded recomputes the ideal capacity for the current item count
// and resizes up if the ideal capacity exceeds the current one. Called on
// every insert, mirroring gcresizemore.
func (t *table) growIfNeeded() error {
	ideal := idealCap(t.nitems, t.loadFactor)
	if ideal > t.cap() {
		if err := t.resize(ideal); err != nil {
			return errors.Wrap(err, "tgc: table grow")
		}
	}
	return nil
}

// shrinkIfNeeded is growIfNeeded's mirror image, called after remove and
// after every sweep (gcresizeless).
func (t *table) shrinkIfNeeded() error {
	ideal := idealCap(t.nitems, t.loadFactor)
	if ideal < t.cap() {
		if err := t.resize(ideal); err != nil {
			return errors.Wrap(err, "tgc: table shrink")
		}
	}
	return nil
}

// insert places d into the table using Robin-Hood displacement: at each
// occupied slot, whichever entry has travelled further from its ideal
// index stays; the other keeps walking. Re-inserting the same base address
// is a silent no-op, matching gcsetptr. Does not touch nitems; callers
// that are adding a new item (not just rehashing) must bump nitems
// themselves before calling insert so growIfNeeded sees the right count.
// 注释：Robin-Hood 插入，位移更大的条目留在原地，重复地址静默忽略
func (t *table) insert(d descriptor) {
	if t.cap() == 0 {
		panic("tgc: insert into zero-capacity table")
	}
	i := hash(d.base) % t.cap()
	d.probe = i + 1
	dist := uint64(0)

	for {
		cur := &t.slots[i]
		if cur.empty() {
			*cur = d
			return
		}
		if cur.base == d.base {
			return
		}
		curDist := t.probeDistance(i, cur.probe)
		if dist > curDist {
			t.slots[i], d = d, t.slots[i]
			dist = curDist
		}
		i = (i + 1) % t.cap()
		dist++
	}
}

// find locates the slot index holding base, using the Robin-Hood early
// termination rule: once the probe distance walked exceeds the current
// slot's own displacement, base cannot be further down the chain.
// 注释：查找，利用 Robin-Hood 提前终止：走过的距离超过当前槽位移即可提前放弃
func (t *table) find(base uintptr) (idx uint64, ok bool) {
	if t.cap() == 0 {
		return 0, false
	}
	i := hash(base) % t.cap()
	dist := uint64(0)
	for {
		cur := &t.slots[i]
		if cur.empty() {
			return 0, false
		}
		if dist > t.probeDistance(i, cur.probe) {
			return 0, false
		}
		if cur.base == base {
			return i, true
		}
		i = (i + 1) % t.cap()
		dist++
	}
}

// lookup returns a copy of the descriptor for base, if tracked.
func (t *table) lookup(base uintptr) (descriptor, bool) {
	i, ok := t.find(base)
	if !ok {
		return descriptor{}, false
	}
	return t.slots[i], true
}

// findContaining returns the slot index of the first descriptor whose
// [base, base+size) range contains w, used by mark's conservative pointer
// test; the caller checks the mark bit. This walks the probe chain that
// find would walk for w itself, matching a range rather than an exact
// address, so a block is found only if it lies on w's own probe chain; a
// word pointing into a block's interior is missed when the block's base
// hashes elsewhere. 注释：区间匹配查找，用于保守指针测试
func (t *table) findContaining(w uintptr) (idx uint64, ok bool) {
	if t.cap() == 0 {
		return 0, false
	}
	i := hash(w) % t.cap()
	dist := uint64(0)
	for {
		cur := &t.slots[i]
		if cur.empty() {
			return 0, false
		}
		if dist > t.probeDistance(i, cur.probe) {
			return 0, false
		}
		if cur.contains(w) {
			return i, true
		}
		i = (i + 1) % t.cap()
		dist++
	}
}

// remove deletes the descriptor for base, if tracked, compacting the probe
// chain backward so no tombstone is left. Returns the removed descriptor
// and whether anything was removed.
// 注释：删除，回移压缩探测链，不留墓碑
func (t *table) remove(base uintptr) (descriptor, bool) {
	i, ok := t.find(base)
	if !ok {
		return descriptor{}, false
	}
	removed := t.slots[i]
	t.deleteSlot(i)
	t.nitems--
	return removed, true
}

// deleteSlot clears slot i and backward-shifts every following displaced
// occupant into the gap, stopping at the first empty slot or the first
// slot already at its own ideal index. 注释：清空槽位i并回移后续被位移的条目
func (t *table) deleteSlot(i uint64) {
	t.slots[i] = descriptor{}
	j := i
	for {
		next := (j + 1) % t.cap()
		n := &t.slots[next]
		if n.empty() || t.probeDistance(next, n.probe) == 0 {
			return
		}
		t.slots[j] = *n
		t.slots[next] = descriptor{}
		j = next
	}
}

// updateSize rewrites the size field of an already-tracked block in place,
// used by Realloc when the host allocator returns the same address.
func (t *table) updateSize(base uintptr, size uintptr) bool {
	i, ok := t.find(base)
	if !ok {
		return false
	}
	t.slots[i].size = size
	return true
}

// updateFlags rewrites the flags field of an already-tracked block.
func (t *table) updateFlags(base uintptr, flags Flag) bool {
	i, ok := t.find(base)
	if !ok {
		return false
	}
	t.slots[i].flags = flags
	return true
}

// updateFinalizer rewrites the finalizer field of an already-tracked block.
func (t *table) updateFinalizer(base uintptr, fn Finalizer) bool {
	i, ok := t.find(base)
	if !ok {
		return false
	}
	t.slots[i].finalizer = fn
	return true
}
