// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package featureindex implements the inverted index feature_id -> sorted
// (group_id, count) entries used by the split evaluator's inner loop
// (spec.md §4.2).
package featureindex

import (
	"iter"
	"slices"

	"github.com/yoori/vanga-go/internal/matrix"
)

// Entry is one occurrence of a feature in a group.
type Entry struct {
	GroupID uint32
	Count   uint64
}

// Index is the inverted index feature_id -> sorted slice of Entry.
type Index struct {
	byFeature map[uint32][]Entry
	keys      []uint32 // cached ascending feature ids
}

// Build performs one pass over m's groups, appending (group_id, count) to
// every feature present in each group. Because groups are visited in
// ascending group-id order, each feature's entry slice comes out sorted by
// group id for free (spec.md §4.2 "Rationale").
func Build(m *matrix.Matrix) *Index {
	idx := &Index{byFeature: make(map[uint32][]Entry)}
	for g := range m.IterGroups() {
		for _, f := range g.Features {
			idx.byFeature[f] = append(idx.byFeature[f], Entry{GroupID: g.ID, Count: g.Count})
		}
	}
	idx.rebuildKeys()
	return idx
}

func (idx *Index) rebuildKeys() {
	idx.keys = make([]uint32, 0, len(idx.byFeature))
	for f := range idx.byFeature {
		idx.keys = append(idx.keys, f)
	}
	slices.Sort(idx.keys)
}

// Lookup returns the (read-only) entry slice for feature_id, or nil if
// absent.
func (idx *Index) Lookup(featureID uint32) []Entry {
	return idx.byFeature[featureID]
}

// Enumerate yields (feature_id, entries) pairs in ascending feature id
// order.
func (idx *Index) Enumerate() iter.Seq2[uint32, []Entry] {
	return func(yield func(uint32, []Entry) bool) {
		for _, f := range idx.keys {
			if !yield(f, idx.byFeature[f]) {
				return
			}
		}
	}
}

// NumFeatures reports how many distinct feature ids are indexed.
func (idx *Index) NumFeatures() int {
	return len(idx.keys)
}

// Merge zipper-merges two indices built over disjoint group-id spaces into
// a new index in linear time (spec.md §4.2).
func Merge(a, b *Index) *Index {
	out := &Index{byFeature: make(map[uint32][]Entry, len(a.byFeature)+len(b.byFeature))}
	seen := make(map[uint32]struct{}, len(a.byFeature)+len(b.byFeature))
	for f := range a.byFeature {
		seen[f] = struct{}{}
	}
	for f := range b.byFeature {
		seen[f] = struct{}{}
	}
	for f := range seen {
		out.byFeature[f] = mergeEntries(a.byFeature[f], b.byFeature[f])
	}
	out.rebuildKeys()
	return out
}

// mergeEntries zippers two ascending-by-group-id slices into one ascending
// slice, same shape as a standard merge-sort merge step.
func mergeEntries(a, b []Entry) []Entry {
	if len(a) == 0 {
		return append([]Entry(nil), b...)
	}
	if len(b) == 0 {
		return append([]Entry(nil), a...)
	}
	out := make([]Entry, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].GroupID <= b[j].GroupID {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
