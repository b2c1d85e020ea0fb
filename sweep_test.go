// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tgc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFinalizerRunsExactlyOnce checks that a finalizer fires once, on the
// cycle that reclaims its block, and never again on a later cycle. The
// block is allocated as a root so nothing can reclaim it before the test
// drops its root flag; after that, Run still performs the conservative
// stack scan, so the block is reclaimed only if no scanned stack word
// holds its address.
func TestFinalizerRunsExactlyOnce(t *testing.T) {
	c := newTestCollector(t)

	calls := 0
	p := c.AllocOpt(16, FlagRoot, func(unsafe.Pointer) { calls++ })
	require.NotNil(t, p)

	c.SetFlags(p, 0) // no longer a root, and nothing else references it
	c.Run()
	c.Run() // a second cycle must not re-invoke a finalizer already run

	assert.Equal(t, 1, calls)
}

// TestUnmarkedRootSurvivesSweep: an unmarked root is still a root and must
// never be reclaimed, matching reclaimUnmarked's explicit root check.
func TestUnmarkedRootSurvivesSweep(t *testing.T) {
	c := newTestCollector(t)
	var finalized bool
	p := c.AllocOpt(8, FlagRoot, func(unsafe.Pointer) { finalized = true })
	require.NotNil(t, p)

	c.Run()

	_, ok := c.table.lookup(uintptr(p))
	assert.True(t, ok)
	assert.False(t, finalized)
}

// TestCyclicPairReclaimedOnceUnrooted checks that two blocks pointing at
// each other are reclaimed together once nothing roots either of them. As
// in TestFinalizerRunsExactlyOnce, both start as roots and are unrooted by
// clearing FlagRoot directly; Run still scans the stack, so the pair is
// reclaimed only if neither address appears in a scanned stack word.
func TestCyclicPairReclaimedOnceUnrooted(t *testing.T) {
	c := newTestCollector(t)

	var aFinalized, bFinalized bool
	a := c.AllocOpt(unsafe.Sizeof(uintptr(0)), FlagRoot, func(unsafe.Pointer) { aFinalized = true })
	b := c.AllocOpt(unsafe.Sizeof(uintptr(0)), FlagRoot, func(unsafe.Pointer) { bFinalized = true })
	require.NotNil(t, a)
	require.NotNil(t, b)
	*(*uintptr)(a) = uintptr(b)
	*(*uintptr)(b) = uintptr(a)

	c.SetFlags(a, 0)
	c.SetFlags(b, 0)
	c.Run()

	assert.True(t, aFinalized)
	assert.True(t, bFinalized)
}

// TestThresholdGrowsWithSweepFactor checks the post-sweep threshold
// recompute: threshold must always be at least nitems, scaled by the
// configured sweep factor.
func TestThresholdGrowsWithSweepFactor(t *testing.T) {
	c := newTestCollector(t)
	for i := 0; i < 10; i++ {
		p := c.AllocOpt(8, FlagRoot, nil)
		require.NotNil(t, p)
	}

	c.Run()

	assert.GreaterOrEqual(t, c.threshold, c.table.nitems)
	want := c.table.nitems + uint64(float64(c.table.nitems)*c.sweepFactor) + 1
	assert.Equal(t, want, c.threshold)
}

// TestMarksClearedAfterSweep verifies clearMarks runs every cycle: a
// second empty Run must not find stale FlagMarked bits confusing anything
// (surviving roots stay tracked, and the mark bit does not leak across
// cycles into SetFlags/GetFlags observations).
func TestMarksClearedAfterSweep(t *testing.T) {
	c := newTestCollector(t)
	p := c.AllocOpt(8, FlagRoot, nil)
	require.NotNil(t, p)

	c.Run()
	assert.Equal(t, FlagRoot, c.GetFlags(p), "FlagMarked must not remain set after sweep")

	c.Run()
	assert.Equal(t, FlagRoot, c.GetFlags(p))
}
