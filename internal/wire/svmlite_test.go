// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSVMLiteLineBasic(t *testing.T) {
	row, ok, err := ParseSVMLiteLine("1 3 7 42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.0, row.Y)
	assert.False(t, row.HasPred)
	assert.Equal(t, []uint32{3, 7, 42}, row.Features)
}

func TestParseSVMLiteLineWithStandingPrediction(t *testing.T) {
	row, ok, err := ParseSVMLiteLine("0:0.125 5")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.0, row.Y)
	assert.True(t, row.HasPred)
	assert.InDelta(t, 0.125, row.Pred, 1e-12)
}

func TestParseSVMLiteLineSkipsBlankAndComment(t *testing.T) {
	_, ok, err := ParseSVMLiteLine("   ")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ParseSVMLiteLine("# a comment")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseSVMLiteLineRejectsBadLabel(t *testing.T) {
	_, _, err := ParseSVMLiteLine("2 1")
	assert.Error(t, err)

	_, _, err = ParseSVMLiteLine("notanumber 1")
	assert.Error(t, err)
}

func TestParseSVMLiteLineRejectsBadFeatureID(t *testing.T) {
	_, _, err := ParseSVMLiteLine("1 notanumber")
	assert.Error(t, err)
}

func TestFormatSVMLiteLineRoundTrips(t *testing.T) {
	row := SVMLiteRow{Y: 1, Pred: 0.25, HasPred: true, Features: []uint32{2, 9}}
	line := FormatSVMLiteLine(row)

	parsed, ok, err := ParseSVMLiteLine(line)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, row.Y, parsed.Y)
	assert.Equal(t, row.HasPred, parsed.HasPred)
	assert.InDelta(t, row.Pred, parsed.Pred, 1e-9)
	assert.Equal(t, row.Features, parsed.Features)
}

func TestFormatFloatHasAtLeastSevenSignificantDigits(t *testing.T) {
	s := FormatFloat(1.0 / 3.0)
	assert.GreaterOrEqual(t, len(s), 9)
}
