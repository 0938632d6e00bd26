// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package matrix implements the sample matrix (spec.md §4.1): sparse-binary
// training rows collapsed into groups, with bag partitioning, filtering,
// and standing-prediction refresh.
package matrix

import (
	"fmt"
	"slices"
)

// Row is an immutable sparse indicator vector: the set of feature ids
// present in one training example, stored sorted ascending with no
// duplicates (spec.md §3 "Row").
type Row []uint32

// NewRow validates and sorts ids into a Row. Duplicate ids are rejected.
func NewRow(ids []uint32) (Row, error) {
	r := make(Row, len(ids))
	copy(r, ids)
	slices.Sort(r)
	for i := 1; i < len(r); i++ {
		if r[i] == r[i-1] {
			return nil, fmt.Errorf("matrix: duplicate feature id %d in row", r[i])
		}
	}
	return r, nil
}

// Contains reports whether id is present in the row.
func (r Row) Contains(id uint32) bool {
	_, found := slices.BinarySearch(r, id)
	return found
}

// Intersect returns a new Row keeping only ids present in keep.
func (r Row) Intersect(keep map[uint32]struct{}) Row {
	out := make(Row, 0, len(r))
	for _, id := range r {
		if _, ok := keep[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (r Row) equal(other Row) bool {
	return slices.Equal(r, other)
}
