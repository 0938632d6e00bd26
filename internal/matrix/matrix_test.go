// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package matrix

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderCollapsesIdenticalRowsIntoGroups(t *testing.T) {
	b := NewBuilder(nil)
	require.NoError(t, b.AddRow([]uint32{1, 2}, 1, 0, 1))
	require.NoError(t, b.AddRow([]uint32{1, 2}, 1, 0, 1))
	require.NoError(t, b.AddRow([]uint32{1, 3}, 0, 0, 1))

	m := b.Finalize()
	require.Equal(t, 2, m.Len())
	require.EqualValues(t, 3, m.TotalCount())

	var counts []uint64
	for g := range m.IterGroups() {
		counts = append(counts, g.Count)
	}
	require.ElementsMatch(t, []uint64{2, 1}, counts)
}

func TestNewRowRejectsDuplicateFeatureIDs(t *testing.T) {
	_, err := NewRow([]uint32{5, 3, 5})
	require.Error(t, err)
}

func TestRowContainsAfterSort(t *testing.T) {
	r, err := NewRow([]uint32{9, 1, 4})
	require.NoError(t, err)
	require.True(t, r.Contains(1))
	require.True(t, r.Contains(9))
	require.False(t, r.Contains(2))
}

// TestPartitionIntoBagsConservesMass checks spec.md §4.1's bag partitioning
// invariant: the multiset union of bag rows equals the input multiset.
func TestPartitionIntoBagsConservesMass(t *testing.T) {
	b := NewBuilder(nil)
	require.NoError(t, b.AddRow([]uint32{1}, 1, 0, 10))
	require.NoError(t, b.AddRow([]uint32{2}, 0, 0, 7))
	m := b.Finalize()

	rng := rand.New(rand.NewSource(42))
	bags, err := m.PartitionIntoBags(3, rng)
	require.NoError(t, err)
	require.Len(t, bags, 3)

	var total uint64
	for _, bag := range bags {
		total += bag.TotalCount()
	}
	require.EqualValues(t, 17, total)
}

func TestPartitionIntoBagsRejectsNonPositiveCount(t *testing.T) {
	b := NewBuilder(nil)
	require.NoError(t, b.AddRow([]uint32{1}, 1, 0, 1))
	m := b.Finalize()

	_, err := m.PartitionIntoBags(0, rand.New(rand.NewSource(1)))
	require.Error(t, err)
}

func TestFilterRegroupsAfterRestriction(t *testing.T) {
	b := NewBuilder(nil)
	require.NoError(t, b.AddRow([]uint32{1, 2}, 1, 0, 1))
	require.NoError(t, b.AddRow([]uint32{1, 3}, 1, 0, 1))
	m := b.Finalize()

	filtered := m.Filter(map[uint32]struct{}{1: {}})
	require.Equal(t, 1, filtered.Len())
	require.EqualValues(t, 2, filtered.TotalCount())
}

type constPredictor struct{ p float64 }

func (c constPredictor) Predict(Row) float64 { return c.p }

func TestWithPredictionsRefreshesStandingPrediction(t *testing.T) {
	b := NewBuilder(nil)
	require.NoError(t, b.AddRow([]uint32{1}, 1, 0, 1))
	m := b.Finalize()

	refreshed := m.WithPredictions(constPredictor{p: 0.5})
	for g := range refreshed.IterGroups() {
		require.Equal(t, 0.5, g.Label.P)
	}
}
