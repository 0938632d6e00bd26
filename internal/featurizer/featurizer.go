// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package featurizer implements the segment featurizer (spec.md §4.7):
// given a segment profile and a query timestamp, it emits a sparse,
// deduplicated, sorted feature vector driven by a window-sweep over each
// segment's timestamps.
package featurizer

import (
	"fmt"
	"io"
	"sort"

	"github.com/yoori/vanga-go/internal/hashing"
	"github.com/yoori/vanga-go/internal/segstore"
)

// Rule is (time_window W, min_visits V): it fires for a segment if at
// least V of its timestamps fall within [t_q - W, t_q] (spec.md §4.7).
type Rule struct {
	Window    uint64 // seconds
	MinVisits uint32
}

// Config is the featurizer's tunables: rules must be supplied ascending by
// Window (spec.md §4.7 "Rules are specified in ascending W"), and Dim is
// the target bit width in [8, 32].
type Config struct {
	Rules []Rule
	Dim   int
}

// DictEntry is one human-readable mapping from an emitted feature id back
// to the rule and segment that produced it, for the optional debug side
// file (spec.md §4.7 "Output").
type DictEntry struct {
	FeatureID uint32
	SegmentID uint32
	Window    uint64
	MinVisits uint32
}

// Featurize scans profile against cfg.Rules at query time tq, returning a
// sorted, deduplicated list of feature ids and (if dict is non-nil) the
// dictionary entries that produced them.
func Featurize(profile segstore.Profile, tq uint64, cfg Config, dict *[]DictEntry) []uint32 {
	seeds := make([]uint64, len(cfg.Rules))
	for i, r := range cfg.Rules {
		seeds[i] = hashing.Seed(r.MinVisits, r.Window)
	}

	seen := make(map[uint32]struct{})
	var out []uint32
	for _, seg := range profile.Segments {
		fire := sweepSegment(seg.Timestamps, tq, cfg.Rules)
		for i, fired := range fire {
			if !fired {
				continue
			}
			h := hashing.Fire(seeds[i], seg.ID)
			h = hashing.ReduceBits(h, cfg.Dim)
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}
			out = append(out, h)
			if dict != nil {
				*dict = append(*dict, DictEntry{
					FeatureID: h,
					SegmentID: seg.ID,
					Window:    cfg.Rules[i].Window,
					MinVisits: cfg.Rules[i].MinVisits,
				})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sweepSegment scans ts newest-to-oldest once, maintaining a running count
// per rule's window, and reports which rules accumulate at least their
// min_visits within [tq-W, tq] (spec.md §4.7 "a window-sweep").
// Timestamps are expected ascending; the sweep walks them in reverse.
func sweepSegment(ts []uint64, tq uint64, rules []Rule) []bool {
	fired := make([]bool, len(rules))
	counts := make([]uint32, len(rules))
	for i := len(ts) - 1; i >= 0; i-- {
		t := ts[i]
		if t > tq {
			continue
		}
		age := tq - t
		for r, rule := range rules {
			if age <= rule.Window {
				counts[r]++
			}
		}
	}
	for r, rule := range rules {
		if counts[r] >= rule.MinVisits {
			fired[r] = true
		}
	}
	return fired
}

// WriteDict writes human-readable dictionary entries to w, one per line,
// for offline debugging of emitted feature ids (spec.md §4.7 "optionally
// paired with human-readable dictionary entries written to a side file").
func WriteDict(w io.Writer, entries []DictEntry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%d\tsegment=%d window=%d min_visits=%d\n", e.FeatureID, e.SegmentID, e.Window, e.MinVisits); err != nil {
			return err
		}
	}
	return nil
}
