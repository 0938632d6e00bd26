// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRowSortsAscending(t *testing.T) {
	r, err := NewRow([]uint32{9, 1, 4})
	require.NoError(t, err)
	assert.Equal(t, Row{1, 4, 9}, r)
}

func TestIntersectKeepsOnlyAllowedIDs(t *testing.T) {
	r, err := NewRow([]uint32{1, 2, 3})
	require.NoError(t, err)
	keep := map[uint32]struct{}{1: {}, 3: {}}
	assert.Equal(t, Row{1, 3}, r.Intersect(keep))
}

func TestIntersectOfNoMatchesReturnsEmpty(t *testing.T) {
	r, err := NewRow([]uint32{1, 2})
	require.NoError(t, err)
	assert.Empty(t, r.Intersect(map[uint32]struct{}{9: {}}))
}

func TestRowEqualComparesElementwise(t *testing.T) {
	a, err := NewRow([]uint32{1, 2})
	require.NoError(t, err)
	b, err := NewRow([]uint32{2, 1})
	require.NoError(t, err)
	c, err := NewRow([]uint32{1, 3})
	require.NoError(t, err)

	assert.True(t, a.equal(b))
	assert.False(t, a.equal(c))
}
