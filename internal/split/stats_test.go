// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsAddAccumulates(t *testing.T) {
	s := NewStats()
	s.Add(0.5, 1, 3)
	s.Add(0.5, 0, 2)

	pt := s[0.5]
	assert.Equal(t, 3.0, pt.SumCountY)
	assert.Equal(t, 5.0, pt.SumCount)
	assert.Equal(t, 5.0, s.TotalCount())
}

func TestStatsSubRecoversComplement(t *testing.T) {
	total := NewStats()
	total.Add(0, 1, 10)

	part := NewStats()
	part.Add(0, 1, 4)

	rest := total.Sub(part)
	assert.Equal(t, 6.0, rest[0].SumCount)
	assert.Equal(t, 6.0, rest[0].SumCountY)
}

func TestMergeCombinesTwoStats(t *testing.T) {
	a := NewStats()
	a.Add(0, 1, 3)
	b := NewStats()
	b.Add(0, 0, 2)
	b.Add(1, 1, 1)

	merged := Merge(a, b)
	assert.Equal(t, 5.0, merged[0].SumCount)
	assert.Equal(t, 1.0, merged[1].SumCount)
}
