// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelateCountsCoOccurringSegmentPairs(t *testing.T) {
	profiles := []Profile{
		{Segments: []Segment{{ID: 1}, {ID: 2}}},
		{Segments: []Segment{{ID: 1}, {ID: 2}}},
		{Segments: []Segment{{ID: 1}, {ID: 3}}},
		{Segments: []Segment{{ID: 2}}}, // single segment: no pair
	}

	entries := Correlate(func(yield func(Profile) bool) {
		for _, p := range profiles {
			if !yield(p) {
				return
			}
		}
	})

	byPair := make(map[[2]uint32]uint64)
	for _, e := range entries {
		byPair[[2]uint32{e.A, e.B}] = e.Count
	}
	assert.EqualValues(t, 2, byPair[[2]uint32{1, 2}])
	assert.EqualValues(t, 1, byPair[[2]uint32{1, 3}])
	assert.NotContains(t, byPair, [2]uint32{2, 3})
}

func TestCorrelateHandlesIteratorThatStopsEarly(t *testing.T) {
	calls := 0
	entries := Correlate(func(yield func(Profile) bool) {
		for i := 0; i < 5; i++ {
			calls++
			if !yield(Profile{Segments: []Segment{{ID: uint32(i)}, {ID: uint32(i + 1)}}}) {
				return
			}
			if i == 0 {
				return // simulate an early-stopping caller
			}
		}
	})
	require.Equal(t, 1, calls)
	assert.Len(t, entries, 1)
}

func TestCorrelateOfEmptyInputReturnsEmptySlice(t *testing.T) {
	entries := Correlate(func(yield func(Profile) bool) {})
	assert.Empty(t, entries)
}
