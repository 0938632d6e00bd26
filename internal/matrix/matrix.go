// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package matrix

import (
	"bufio"
	"io"
	"iter"
	"math/rand"
	"sort"

	"github.com/yoori/vanga-go/internal/wire"
	"github.com/yoori/vanga-go/pkg/report"
)

// Matrix is an ordered, read-only sequence of groups (spec.md §3 "Sample
// matrix"). It is built once via Load/Finalize/Filter/WithPredictions/
// PartitionIntoBags and never mutated afterwards.
type Matrix struct {
	groups []Group
}

// Predictor supplies the current accumulated prediction for a row; used by
// WithPredictions to refresh standing predictions between boosting
// iterations (spec.md §4.1).
type Predictor interface {
	Predict(features Row) float64
}

type rawRow struct {
	features Row
	label    Label
	count    uint64
}

// buildMatrix sorts raw rows by (feature list, y, p) and collapses
// consecutive equal runs into groups with summed counts, per spec.md §4.1
// "finalize". Group ids are assigned 0..n-1 in that sorted order.
func buildMatrix(rows []rawRow) *Matrix {
	sort.Slice(rows, func(i, j int) bool {
		return groupKey(rows[i].features, rows[i].label) < groupKey(rows[j].features, rows[j].label)
	})

	groups := make([]Group, 0, len(rows))
	for _, r := range rows {
		if n := len(groups); n > 0 {
			last := &groups[n-1]
			if last.Features.equal(r.features) && last.Label == r.label {
				last.Count += r.count
				continue
			}
		}
		groups = append(groups, Group{
			ID:       uint32(len(groups)),
			Features: r.features,
			Label:    r.label,
			Count:    r.count,
		})
	}
	return &Matrix{groups: groups}
}

// Builder accumulates raw rows before Finalize collapses them into groups.
type Builder struct {
	rows []rawRow
	sink report.Sink
}

// NewBuilder returns an empty Builder. Parse errors on individual rows are
// reported through sink (may be nil to discard) and the offending row is
// skipped, per spec.md §7.
func NewBuilder(sink report.Sink) *Builder {
	if sink == nil {
		sink = report.Discard{}
	}
	return &Builder{sink: sink}
}

// AddRow appends one row with an explicit replication count.
func (b *Builder) AddRow(features []uint32, y, p float64, count uint64) error {
	row, err := NewRow(features)
	if err != nil {
		b.sink.Report(report.Event{Severity: report.Warning, Code: report.CodeParseError, Description: "matrix: dropping malformed row", Err: err})
		return err
	}
	if count == 0 {
		count = 1
	}
	b.rows = append(b.rows, rawRow{features: row, label: Label{Y: y, P: p}, count: count})
	return nil
}

// Finalize collapses the accumulated rows into a read-only Matrix.
func (b *Builder) Finalize() *Matrix {
	return buildMatrix(b.rows)
}

// Load parses SVM-lite lines (spec.md §6.3) from r into a finalized Matrix.
// Malformed lines are skipped and reported as warnings; comments and blank
// lines are silently ignored.
func Load(r io.Reader, sink report.Sink) (*Matrix, error) {
	b := NewBuilder(sink)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		row, ok, err := wire.ParseSVMLiteLine(scanner.Text())
		if err != nil {
			if sink != nil {
				sink.Report(report.Event{Severity: report.Warning, Code: report.CodeParseError, Description: "matrix: skipping malformed SVM-lite line", Err: err})
			}
			continue
		}
		if !ok {
			continue
		}
		_ = b.AddRow(row.Features, row.Y, row.Pred, 1)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.Finalize(), nil
}

// Groups returns the read-only, ascending-by-id backing slice. Callers must
// not mutate it.
func (m *Matrix) Groups() []Group {
	return m.groups
}

// Len is the number of groups.
func (m *Matrix) Len() int {
	return len(m.groups)
}

// TotalCount is the sum of group counts (total row mass).
func (m *Matrix) TotalCount() uint64 {
	var total uint64
	for _, g := range m.groups {
		total += g.Count
	}
	return total
}

// IterGroups exposes groups as a finite, non-restartable external iterator
// (spec.md §9 "Coroutine-like lazy sequences over rows").
func (m *Matrix) IterGroups() iter.Seq[*Group] {
	return func(yield func(*Group) bool) {
		for i := range m.groups {
			if !yield(&m.groups[i]) {
				return
			}
		}
	}
}

// PartitionIntoBags splits the matrix into k disjoint bags at row
// granularity: the multiset union of the bags' rows equals the input, and
// groups are split when their count spans more than one bag (spec.md §4.1).
func (m *Matrix) PartitionIntoBags(k int, rng *rand.Rand) ([]*Matrix, error) {
	if k <= 0 {
		return nil, errInvalidBagCount
	}
	bagRows := make([][]rawRow, k)
	for _, g := range m.groups {
		counts := make([]uint64, k)
		for i := uint64(0); i < g.Count; i++ {
			counts[rng.Intn(k)]++
		}
		for bag, c := range counts {
			if c > 0 {
				bagRows[bag] = append(bagRows[bag], rawRow{features: g.Features, label: g.Label, count: c})
			}
		}
	}

	out := make([]*Matrix, k)
	for i, rows := range bagRows {
		out[i] = buildMatrix(rows)
	}
	return out, nil
}

// Filter yields a new matrix with each row's feature list restricted to
// keep, re-grouping rows that become identical after filtering (spec.md
// §4.1).
func (m *Matrix) Filter(keep map[uint32]struct{}) *Matrix {
	rows := make([]rawRow, 0, len(m.groups))
	for _, g := range m.groups {
		rows = append(rows, rawRow{features: g.Features.Intersect(keep), label: g.Label, count: g.Count})
	}
	return buildMatrix(rows)
}

// WithPredictions yields a new matrix in which every label's p has been
// replaced by predictor's current accumulated prediction for that row's
// features, re-grouping as needed (spec.md §4.1).
func (m *Matrix) WithPredictions(predictor Predictor) *Matrix {
	rows := make([]rawRow, 0, len(m.groups))
	for _, g := range m.groups {
		p := predictor.Predict(g.Features)
		rows = append(rows, rawRow{features: g.Features, label: Label{Y: g.Label.Y, P: p}, count: g.Count})
	}
	return buildMatrix(rows)
}
