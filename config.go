// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tgc

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	defaultLoadFactor  = 0.9
	defaultSweepFactor = 0.5
)

// options collects everything Start can be configured with. The teacher
// tunes allocator behavior through package-private constants
// (mheap's sizing tables, mcentral's span budget); tgc is a library, not a
// monolith, so the same knobs are exported as functional options instead.
type options struct {
	loadFactor  float64
	sweepFactor float64
	allocator   HostAllocator
	logger      *zap.Logger
	registerer  prometheus.Registerer
}

// Option configures a Collector at Start time.
type Option func(*options)

// WithLoadFactor sets the target table occupancy (default 0.9). Must be in
// (0, 1].
func WithLoadFactor(f float64) Option {
	return func(o *options) { o.loadFactor = f }
}

// WithSweepFactor sets the post-sweep threshold-growth multiplier (default
// 0.5). Must be >= 0.
func WithSweepFactor(f float64) Option {
	return func(o *options) { o.sweepFactor = f }
}

// WithAllocator swaps in a custom HostAllocator, e.g. one backed by cgo's
// C.malloc family, in place of the default PinnedAllocator.
func WithAllocator(a HostAllocator) Option {
	return func(o *options) { o.allocator = a }
}

// WithLogger attaches a *zap.Logger. Start/Stop/Run log at debug level;
// nothing is logged by default (a no-op logger is used).
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers tgc's Prometheus metrics (see metrics.go)
// against the given Registerer instead of leaving them unregistered.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

func newOptions(opts ...Option) *options {
	o := &options{
		loadFactor:  defaultLoadFactor,
		sweepFactor: defaultSweepFactor,
		allocator:   NewPinnedAllocator(),
		logger:      zap.NewNop(),
	}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

func (o *options) validate() error {
	if o.loadFactor <= 0 || o.loadFactor > 1 {
		return ErrInvalidLoadFactor
	}
	if o.sweepFactor < 0 {
		return ErrInvalidSweepFactor
	}
	if o.allocator == nil {
		return ErrNilAllocator
	}
	return nil
}
