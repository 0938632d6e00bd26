// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segstore

// CorrelationEntry is one (segment_id, segment_id) pair's co-occurrence
// count across the users scanned by Correlate.
type CorrelationEntry struct {
	A, B  uint32
	Count uint64
}

// Correlate scans every profile the iterator yields and counts, for every
// pair of distinct segment ids appearing in the same profile, how many
// profiles contain both (spec.md §6.4 names a "correlate" segment utility
// without specifying its algorithm; this supplements that with the
// straightforward co-occurrence count used to find closely related
// segments offline). Results are returned unsorted; callers needing a
// ranked view should sort by Count.
func Correlate(profiles func(yield func(Profile) bool)) []CorrelationEntry {
	counts := make(map[[2]uint32]uint64)
	profiles(func(p Profile) bool {
		ids := make([]uint32, len(p.Segments))
		for i, s := range p.Segments {
			ids[i] = s.ID
		}
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				if a > b {
					a, b = b, a
				}
				counts[[2]uint32{a, b}]++
			}
		}
		return true
	})

	out := make([]CorrelationEntry, 0, len(counts))
	for k, c := range counts {
		out = append(out, CorrelationEntry{A: k[0], B: k[1], Count: c})
	}
	return out
}
