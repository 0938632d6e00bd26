// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoori/vanga-go/internal/matrix"
)

func mustRow(t *testing.T, ids ...uint32) matrix.Row {
	t.Helper()
	r, err := matrix.NewRow(ids)
	require.NoError(t, err)
	return r
}

func TestPredictTraversesToCorrectLeaf(t *testing.T) {
	n := NewSplit(7, NewLeaf(1.0), NewLeaf(-1.0))

	assert.Equal(t, 1.0, n.Predict(mustRow(t, 7)))
	assert.Equal(t, -1.0, n.Predict(mustRow(t, 3)))
}

func TestPredictFastMatchesPredict(t *testing.T) {
	n := NewSplit(2, NewSplit(5, NewLeaf(0.1), NewLeaf(0.2)), NewLeaf(0.3))

	table := PresenceTable{false, false, true, false, false, true}
	row := mustRow(t, 2, 5)

	assert.Equal(t, n.Predict(row), n.PredictFast(table))
}

func TestWalkVisitsEveryNode(t *testing.T) {
	n := NewSplit(1, NewLeaf(1), NewLeaf(2))
	var visited int
	n.Walk(func(*Node) { visited++ })
	assert.Equal(t, 3, visited) // split + 2 leaves
}

func TestFilterByCoverCollapsesLowCoverSubtreeToWeightedAverage(t *testing.T) {
	// Root splits on feature 1; the "yes" side is a deeper split that only
	// 1 of 100 rows reaches, well below alpha; "no" side gets the mass.
	tr := NewSplit(1,
		NewSplit(2, NewLeaf(10), NewLeaf(20)), // yes: rare
		NewLeaf(5),                            // no: common
	)

	b := matrix.NewBuilder(nil)
	require.NoError(t, b.AddRow([]uint32{1, 2}, 1, 0, 1))
	require.NoError(t, b.AddRow([]uint32{}, 0, 0, 99))
	m := b.Finalize()

	pruned := tr.FilterByCover(m, 0.05)
	require.False(t, pruned.IsLeaf(), "the root carries all the mass and keeps its split")
	require.True(t, pruned.Yes().IsLeaf(), "the rare yes subtree collapses to a leaf")
	assert.InDelta(t, 10.0, pruned.Yes().Delta(), 1e-12, "only the delta-10 leaf has cover")
}

func TestFilterByCoverKeepsSplitsAboveAlpha(t *testing.T) {
	tr := NewSplit(1, NewLeaf(10), NewLeaf(-10))

	b := matrix.NewBuilder(nil)
	require.NoError(t, b.AddRow([]uint32{1}, 1, 0, 40))
	require.NoError(t, b.AddRow([]uint32{}, 0, 0, 60))
	m := b.Finalize()

	pruned := tr.FilterByCover(m, 0.05)
	assert.False(t, pruned.IsLeaf())
}

func TestFilterByCoverPrunesOnlyChildBelowThresholdIndependently(t *testing.T) {
	// Parent clears alpha overall, but its "yes" child is itself a rare
	// sub-split that should collapse while "no" stays a leaf.
	tr := NewSplit(1,
		NewSplit(2, NewLeaf(1), NewLeaf(2)), // yes: 2 of 100 rows, below alpha
		NewLeaf(0),                          // no: 98 of 100 rows
	)

	b := matrix.NewBuilder(nil)
	require.NoError(t, b.AddRow([]uint32{1, 2}, 1, 0, 1))
	require.NoError(t, b.AddRow([]uint32{1}, 1, 0, 1))
	require.NoError(t, b.AddRow([]uint32{}, 0, 0, 98))
	m := b.Finalize()

	pruned := tr.FilterByCover(m, 0.03)
	require.False(t, pruned.IsLeaf())
	assert.True(t, pruned.Yes().IsLeaf(), "rare sub-split under yes should collapse")
	assert.True(t, pruned.No().IsLeaf(), "no side was already a leaf")
}
