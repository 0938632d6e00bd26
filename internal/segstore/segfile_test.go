// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoori/vanga-go/pkg/report"
)

func TestWriteOpenSegmentFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	entries := map[uint64]Profile{
		1: {Segments: []Segment{{ID: 1, Timestamps: []uint64{10, 20}}}},
		2: {Segments: []Segment{{ID: 2, Timestamps: []uint64{30}}}},
	}
	keys := []uint64{1, 2}

	path, err := writeSegmentFile(dir, 0, keys, entries, report.Discard{})
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.NoFileExists(t, path+".tmp")

	sf, err := openSegmentFile(path, report.Discard{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, sf.level)

	p1, ok := sf.lookup(1)
	require.True(t, ok)
	assert.Equal(t, entries[1], p1)

	p2, ok := sf.lookup(2)
	require.True(t, ok)
	assert.Equal(t, entries[2], p2)

	_, ok = sf.lookup(3)
	assert.False(t, ok)
}

func TestOpenSegmentFileReportsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.seg")
	require.NoError(t, os.WriteFile(path, []byte("not a segment file at all"), 0o644))

	_, err := openSegmentFile(path, report.Discard{})
	assert.Error(t, err)
}

type recordingSink struct {
	events []report.Event
}

func (s *recordingSink) Report(e report.Event) { s.events = append(s.events, e) }

// TestFsyncWithRetryRetriesThreeTimesThenReportsFatal checks spec.md §4.6:
// a failing fsync is retried up to 3 times, each attempt reported as a
// warning, before a fatal error is surfaced.
func TestFsyncWithRetryRetriesThreeTimesThenReportsFatal(t *testing.T) {
	dir := t.TempDir()
	f, err := os.CreateTemp(dir, "fsync-retry")
	require.NoError(t, err)
	require.NoError(t, f.Close()) // Sync on a closed file always errors.

	sink := &recordingSink{}
	err = fsyncWithRetry(f, f.Name(), sink)
	require.Error(t, err)

	require.Len(t, sink.events, maxFsyncAttempts+1)
	for _, e := range sink.events[:maxFsyncAttempts] {
		assert.Equal(t, report.Warning, e.Severity)
		assert.Equal(t, report.CodeIO, e.Code)
	}
	last := sink.events[maxFsyncAttempts]
	assert.Equal(t, report.Critical, last.Severity)
	assert.Equal(t, report.CodeIO, last.Code)
}

func TestOpenSegmentFileReportsTruncatedRecord(t *testing.T) {
	dir := t.TempDir()
	entries := map[uint64]Profile{1: {Segments: []Segment{{ID: 1, Timestamps: []uint64{1, 2, 3}}}}}
	path, err := writeSegmentFile(dir, 0, []uint64{1}, entries, report.Discard{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0o644))

	_, err = openSegmentFile(path, report.Discard{})
	assert.Error(t, err)
}
