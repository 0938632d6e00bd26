// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segstore

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelHeaderRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLevelHeader(&buf, 3))
	assert.Equal(t, 16, buf.Len())

	level, err := readLevelHeader(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, 3, level)
}

func TestReadLevelHeaderRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("0123456789ABCDEF")
	_, err := readLevelHeader(buf)
	assert.Error(t, err)
}

func TestLevelFooterRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLevelFooter(&buf, 12345))
	n, err := readLevelFooter(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, 12345, n)
}

func TestEncodeDecodeRecordRoundTrips(t *testing.T) {
	p := Profile{Segments: []Segment{
		{ID: 1, Timestamps: []uint64{10, 20, 30}},
		{ID: 9, Timestamps: []uint64{5}},
	}}

	var buf bytes.Buffer
	require.NoError(t, encodeRecord(&buf, 42, p))

	br := bufio.NewReader(&buf)
	userID, got, err := decodeRecord(br)
	require.NoError(t, err)
	assert.EqualValues(t, 42, userID)
	assert.Equal(t, p, got)
}

func TestDecodeRecordReturnsEOFAtEndOfStream(t *testing.T) {
	br := bufio.NewReader(bytes.NewReader(nil))
	_, _, err := decodeRecord(br)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecodeRecordRejectsTruncatedPayload(t *testing.T) {
	p := Profile{Segments: []Segment{{ID: 1, Timestamps: []uint64{1, 2, 3}}}}
	var buf bytes.Buffer
	require.NoError(t, encodeRecord(&buf, 1, p))

	truncated := buf.Bytes()[:buf.Len()-2]
	br := bufio.NewReader(bytes.NewReader(truncated))
	_, _, err := decodeRecord(br)
	assert.Error(t, err)
}

func TestMultipleRecordsDecodeInSequence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encodeRecord(&buf, 1, Profile{Segments: []Segment{{ID: 1, Timestamps: []uint64{1}}}}))
	require.NoError(t, encodeRecord(&buf, 2, Profile{Segments: []Segment{{ID: 2, Timestamps: []uint64{2}}}}))

	br := bufio.NewReader(&buf)
	id1, p1, err := decodeRecord(br)
	require.NoError(t, err)
	assert.EqualValues(t, 1, id1)
	assert.EqualValues(t, 1, p1.Segments[0].ID)

	id2, p2, err := decodeRecord(br)
	require.NoError(t, err)
	assert.EqualValues(t, 2, id2)
	assert.EqualValues(t, 2, p2.Segments[0].ID)

	_, _, err = decodeRecord(br)
	assert.ErrorIs(t, err, io.EOF)
}
