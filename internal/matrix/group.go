// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package matrix

import (
	"encoding/binary"
	"math"
)

// Label is the pair (y, p) carried by every row: the observed outcome (or,
// for squared-deviation loss, the real target) and the standing prediction
// accumulated from previously fit trees (spec.md §3 "Label").
type Label struct {
	Y float64
	P float64
}

// Group is a maximal run of rows sharing an identical feature set and
// label, carrying a replication count (spec.md §3 "Grouping").
type Group struct {
	ID       uint32
	Features Row
	Label    Label
	Count    uint64
}

// groupKey is the canonical key by which two rows collapse into one group:
// identical feature list and identical (y, p).
func groupKey(features Row, label Label) string {
	buf := make([]byte, 0, len(features)*4+16)
	for _, f := range features {
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], f)
		buf = append(buf, tmp[:]...)
	}
	var tmp [16]byte
	binary.BigEndian.PutUint64(tmp[0:8], math.Float64bits(label.Y))
	binary.BigEndian.PutUint64(tmp[8:16], math.Float64bits(label.P))
	buf = append(buf, tmp[:]...)
	return string(buf)
}
