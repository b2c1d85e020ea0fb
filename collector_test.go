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

func TestStartInitializesEmptyRange(t *testing.T) {
	c := newTestCollector(t)
	assert.Equal(t, ^uintptr(0), c.minptr)
	assert.Equal(t, uintptr(0), c.maxptr)
	assert.Equal(t, uint64(0), c.table.nitems)
}

func TestStopResetsTableAndPending(t *testing.T) {
	c, err := Start(StackAnchor())
	require.NoError(t, err)

	p := c.AllocOpt(8, FlagRoot, nil)
	require.NotNil(t, p)
	c.Stop()

	assert.Equal(t, uint64(0), c.table.nitems)
	assert.Nil(t, c.pending)
	assert.True(t, c.stopped)
}

// TestRunAfterStopIsNoOp: Run must not resurrect a stopped collector's
// table or panic on an empty one.
func TestRunAfterStopIsNoOp(t *testing.T) {
	c, err := Start(StackAnchor())
	require.NoError(t, err)
	c.Stop()
	assert.NotPanics(t, func() { c.Run() })
	assert.Equal(t, uint64(0), c.table.nitems)
}

// TestStopDoesNotFinalizeOutstandingBlocks checks that Stop releases the
// table without sweeping, so a finalizer on a block still live at Stop
// time never fires.
func TestStopDoesNotFinalizeOutstandingBlocks(t *testing.T) {
	c, err := Start(StackAnchor())
	require.NoError(t, err)

	var finalized bool
	p := c.AllocOpt(8, 0, func(unsafe.Pointer) { finalized = true })
	require.NotNil(t, p)

	c.Stop()
	assert.False(t, finalized)
}

// TestStopAndSweepFinalizesUnreachableBlocks: the opt-in shutdown path
// runs one last cycle before releasing the table.
func TestStopAndSweepFinalizesUnreachableBlocks(t *testing.T) {
	c, err := Start(StackAnchor())
	require.NoError(t, err)

	var finalized bool
	p := c.AllocOpt(8, FlagRoot, func(unsafe.Pointer) { finalized = true })
	require.NotNil(t, p)
	c.SetFlags(p, 0) // drop root status so the final sweep can reclaim it

	c.StopAndSweep()
	assert.True(t, finalized)
	assert.True(t, c.stopped)
}

// TestMaybeCollectTriggersOnThresholdCrossing exercises the same trigger
// path AllocOpt relies on (track -> maybeCollect), directly: once nitems
// exceeds threshold, the next maybeCollect call runs a cycle, reclaiming
// whatever is unmarked and unrooted.
func TestMaybeCollectTriggersOnThresholdCrossing(t *testing.T) {
	c := newTestCollector(t)

	var finalized bool
	p := c.AllocOpt(8, FlagRoot, func(unsafe.Pointer) { finalized = true })
	require.NotNil(t, p)
	c.SetFlags(p, 0)

	c.threshold = c.table.nitems - 1 // force the next maybeCollect to cross it
	c.maybeCollect()

	assert.True(t, finalized)
}

// TestMaybeCollectIsNoOpBelowThreshold: a collector sitting under its
// threshold must not run a cycle on its own.
func TestMaybeCollectIsNoOpBelowThreshold(t *testing.T) {
	c := newTestCollector(t)

	var finalized bool
	p := c.AllocOpt(8, FlagRoot, func(unsafe.Pointer) { finalized = true })
	require.NotNil(t, p)
	c.SetFlags(p, 0)

	c.threshold = c.table.nitems + 1000
	c.maybeCollect()

	assert.False(t, finalized, "below-threshold maybeCollect must not sweep")
}

func TestUpdateRangeIsMonotone(t *testing.T) {
	c := newTestCollector(t)
	c.updateRange(0x2000, 16)
	assert.Equal(t, uintptr(0x2000), c.minptr)
	assert.Equal(t, uintptr(0x2010), c.maxptr)

	c.updateRange(0x3000, 16) // a higher block must not lower maxptr's floor
	assert.Equal(t, uintptr(0x2000), c.minptr)
	assert.Equal(t, uintptr(0x3010), c.maxptr)

	c.updateRange(0x1000, 16) // a lower block must not raise minptr's ceiling
	assert.Equal(t, uintptr(0x1000), c.minptr)
	assert.Equal(t, uintptr(0x3010), c.maxptr)
}
