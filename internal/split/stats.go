// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package split implements the split evaluator (spec.md §4.3): for a fixed
// bucket of groups and a candidate feature, it finds the optimal per-leaf
// delta and the resulting loss under log-loss or squared deviation.
package split

// Point is the sufficient statistics accumulated for one distinct standing
// prediction value p within a bucket: Σcount·y, Σcount·y², and Σcount. The
// optimal delta for a bucket can be computed purely from these per-p
// aggregates without revisiting individual rows (spec.md §4.3 "a quadrature
// over the p distribution as a weighted set of (p, count) stats already
// materialized").
type Point struct {
	SumCountY  float64
	SumCountY2 float64
	SumCount   float64
}

// Stats maps a distinct standing-prediction value to its Point. Standing
// predictions take one of a small number of discrete values (the leaf
// deltas of previously fit trees), so exact float64 keys are stable.
type Stats map[float64]Point

// NewStats returns an empty Stats.
func NewStats() Stats {
	return make(Stats)
}

// Add folds one group's contribution into the stats.
func (s Stats) Add(p, y float64, count uint64) {
	c := float64(count)
	pt := s[p]
	pt.SumCountY += c * y
	pt.SumCountY2 += c * y * y
	pt.SumCount += c
	s[p] = pt
}

// TotalCount returns Σcount across every p.
func (s Stats) TotalCount() float64 {
	var total float64
	for _, pt := range s {
		total += pt.SumCount
	}
	return total
}

// Sub returns s - other, assuming other's per-p counts never exceed s's
// (true when other was accumulated from a subset of s's groups, as when
// deriving a "no" bucket from a leaf total and a "yes" bucket).
func (s Stats) Sub(other Stats) Stats {
	out := make(Stats, len(s))
	for p, pt := range s {
		o := other[p]
		out[p] = Point{
			SumCountY:  pt.SumCountY - o.SumCountY,
			SumCountY2: pt.SumCountY2 - o.SumCountY2,
			SumCount:   pt.SumCount - o.SumCount,
		}
	}
	return out
}

// Merge returns a new Stats combining s and other.
func Merge(a, b Stats) Stats {
	out := make(Stats, len(a)+len(b))
	for p, pt := range a {
		out[p] = pt
	}
	for p, pt := range b {
		e := out[p]
		e.SumCountY += pt.SumCountY
		e.SumCountY2 += pt.SumCountY2
		e.SumCount += pt.SumCount
		out[p] = e
	}
	return out
}
