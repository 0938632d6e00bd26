// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wire implements the text/binary line formats described in
// spec.md §6: SVM-lite training lines here, the tree file format in
// internal/tree, and the segment profile record format in
// internal/segstore.
package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// SVMLiteRow is one parsed SVM-lite training line (spec.md §6.3).
type SVMLiteRow struct {
	Y         float64
	Pred      float64
	HasPred   bool
	Features  []uint32
}

// ParseSVMLiteLine parses one line of the form
// "label[:pred] (\" \" feature_id[\":\" value])*". Comment ("#"-prefixed)
// and blank lines are reported via ok=false, err=nil so callers can skip
// them without treating them as malformed.
func ParseSVMLiteLine(line string) (row SVMLiteRow, ok bool, err error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return SVMLiteRow{}, false, nil
	}

	fields := strings.Fields(trimmed)
	labelTok := fields[0]

	labelPart, predPart, hasPred := strings.Cut(labelTok, ":")
	y, err := strconv.ParseFloat(labelPart, 64)
	if err != nil {
		return SVMLiteRow{}, false, fmt.Errorf("wire: invalid label %q: %w", labelPart, err)
	}
	if y != 0 && y != 1 {
		return SVMLiteRow{}, false, fmt.Errorf("wire: label must be 0 or 1, got %v", y)
	}

	pred := 0.0
	if hasPred {
		pred, err = strconv.ParseFloat(predPart, 64)
		if err != nil {
			return SVMLiteRow{}, false, fmt.Errorf("wire: invalid standing prediction %q: %w", predPart, err)
		}
	}

	features := make([]uint32, 0, len(fields)-1)
	for _, tok := range fields[1:] {
		idPart, _, _ := strings.Cut(tok, ":")
		id, err := strconv.ParseUint(idPart, 10, 32)
		if err != nil {
			return SVMLiteRow{}, false, fmt.Errorf("wire: invalid feature id %q: %w", idPart, err)
		}
		features = append(features, uint32(id))
	}

	return SVMLiteRow{Y: y, Pred: pred, HasPred: hasPred, Features: features}, true, nil
}

// FormatSVMLiteLine renders a row back to SVM-lite text. Features must
// already be sorted ascending and deduplicated.
func FormatSVMLiteLine(row SVMLiteRow) string {
	var b strings.Builder
	if row.HasPred {
		fmt.Fprintf(&b, "%s:%s", formatLabel(row.Y), FormatFloat(row.Pred))
	} else {
		b.WriteString(formatLabel(row.Y))
	}
	for _, f := range row.Features {
		b.WriteByte(' ')
		fmt.Fprintf(&b, "%d", f)
	}
	return b.String()
}

func formatLabel(y float64) string {
	if y == 0 {
		return "0"
	}
	if y == 1 {
		return "1"
	}
	return FormatFloat(y)
}

// FormatFloat renders a float with at least 7 significant digits, as
// required for tree deltas (spec.md §6.1) and reused here for SVM-lite
// standing predictions.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 9, 64)
}
