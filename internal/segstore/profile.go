// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package segstore implements the segment store (spec.md §4.6): a
// persistent keyed map from user id to segment profile, built as a small
// log-structured merge tree (memtable plus leveled, immutable, on-disk
// segments).
package segstore

// Segment is one segment id's ascending list of timestamps (seconds since
// epoch) for a user (spec.md §3 "Segment profile").
type Segment struct {
	ID         uint32
	Timestamps []uint64
}

// Profile is a user's full segment profile: segments ascending by id, each
// segment's timestamps ascending.
type Profile struct {
	Segments []Segment
}

// clone returns a deep copy of p.
func (p Profile) clone() Profile {
	out := Profile{Segments: make([]Segment, len(p.Segments))}
	for i, s := range p.Segments {
		out.Segments[i] = Segment{ID: s.ID, Timestamps: append([]uint64(nil), s.Timestamps...)}
	}
	return out
}

// Merge unions delta into base: for each segment in delta, the timestamps
// are unioned (ascending) into the matching segment in base, or the
// segment is added if absent (spec.md §4.6 "Merge-on-write semantics").
// Both base and delta must already be ascending by segment id.
func Merge(base, delta Profile) Profile {
	out := Profile{Segments: make([]Segment, 0, len(base.Segments)+len(delta.Segments))}
	i, j := 0, 0
	for i < len(base.Segments) && j < len(delta.Segments) {
		switch {
		case base.Segments[i].ID < delta.Segments[j].ID:
			out.Segments = append(out.Segments, base.Segments[i].clone())
			i++
		case base.Segments[i].ID > delta.Segments[j].ID:
			out.Segments = append(out.Segments, delta.Segments[j].clone())
			j++
		default:
			out.Segments = append(out.Segments, Segment{
				ID:         base.Segments[i].ID,
				Timestamps: mergeTimestamps(base.Segments[i].Timestamps, delta.Segments[j].Timestamps),
			})
			i++
			j++
		}
	}
	for ; i < len(base.Segments); i++ {
		out.Segments = append(out.Segments, base.Segments[i].clone())
	}
	for ; j < len(delta.Segments); j++ {
		out.Segments = append(out.Segments, delta.Segments[j].clone())
	}
	return out
}

func (s Segment) clone() Segment {
	return Segment{ID: s.ID, Timestamps: append([]uint64(nil), s.Timestamps...)}
}

// mergeTimestamps zippers two ascending timestamp lists into one ascending
// list, keeping every occurrence: timestamps are a multiset, so merging a
// profile into itself doubles each timestamp's multiplicity rather than
// deduplicating it (spec.md §8 "Idempotence").
func mergeTimestamps(a, b []uint64) []uint64 {
	out := make([]uint64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i], b[j])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
