// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segstore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yoori/vanga-go/pkg/report"
)

// segmentFile is one immutable, on-disk, key-sorted level segment (spec.md
// §4.6). It is read fully into an in-memory index on open; segment files
// are expected to be small enough (bounded by L0_BYTES and the level size
// ratio) that this is acceptable.
type segmentFile struct {
	path    string
	level   uint32
	entries map[uint64]Profile
	order   []uint64 // ascending keys, for deterministic compaction merges
}

// writeSegmentFile writes entries (already sorted ascending by key) to a
// temporary file, fsyncs, then renames into place, so a crash never leaves
// a partially written segment visible under its final name (spec.md §4.6
// "No data is lost on crash: segment files are written to temporary names
// then renamed").
func writeSegmentFile(dir string, level uint32, keys []uint64, entries map[uint64]Profile, sink report.Sink) (string, error) {
	final := filepath.Join(dir, fmt.Sprintf("L%d-%020d.seg", level, keys[0]))
	tmp := final + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("segstore: create temp segment: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := writeLevelHeader(bw, level); err != nil {
		f.Close()
		return "", err
	}
	for _, k := range keys {
		if err := encodeRecord(bw, k, entries[k]); err != nil {
			f.Close()
			return "", err
		}
	}
	if err := writeLevelFooter(bw, uint64(len(keys))); err != nil {
		f.Close()
		return "", err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return "", err
	}
	if err := fsyncWithRetry(f, tmp, sink); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, final); err != nil {
		return "", fmt.Errorf("segstore: rename segment into place: %w", err)
	}
	return final, nil
}

// maxFsyncAttempts bounds how many times writeSegmentFile retries a failed
// fsync before surfacing a fatal error (spec.md §4.6 "Writes that fail to
// fsync are retried up to 3 times before the writer reports a fatal
// error").
const maxFsyncAttempts = 3

// fsyncWithRetry calls f.Sync, retrying up to maxFsyncAttempts times on
// failure. Each failed attempt is reported as a warning; exhausting every
// attempt reports and returns a fatal, non-retryable error.
func fsyncWithRetry(f *os.File, path string, sink report.Sink) error {
	var err error
	for attempt := 1; attempt <= maxFsyncAttempts; attempt++ {
		if err = f.Sync(); err == nil {
			return nil
		}
		if sink != nil {
			sink.Report(report.Event{Severity: report.Warning, Code: report.CodeIO, Description: fmt.Sprintf("segstore: fsync attempt %d/%d failed: %s", attempt, maxFsyncAttempts, path), Err: err})
		}
	}
	if sink != nil {
		sink.Report(report.Event{Severity: report.Critical, Code: report.CodeIO, Description: "segstore: fsync exhausted retries: " + path, Err: err})
	}
	return fmt.Errorf("segstore: fsync failed after %d attempts: %w", maxFsyncAttempts, err)
}

// openSegmentFile loads a segment file fully into memory, reporting and
// skipping a corrupted file rather than failing the whole store (spec.md
// §4.6 "Failure semantics").
func openSegmentFile(path string, sink report.Sink) (*segmentFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	// Records end where the trailing record-count footer begins.
	br := bufio.NewReader(io.LimitReader(f, info.Size()-levelFooterSize))
	level, err := readLevelHeader(br)
	if err != nil {
		sink.Report(report.Event{Severity: report.Error, Code: report.CodeParseError, Description: "segstore: skipping segment with bad header: " + path, Err: err})
		return nil, err
	}

	sf := &segmentFile{path: path, level: level, entries: make(map[uint64]Profile)}
	for {
		key, p, err := decodeRecord(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			sink.Report(report.Event{Severity: report.Error, Code: report.CodeParseError, Description: "segstore: skipping corrupted segment: " + path, Err: err})
			return nil, err
		}
		sf.entries[key] = p
		sf.order = append(sf.order, key)
	}
	if count, err := readLevelFooter(f); err != nil || count != uint64(len(sf.order)) {
		sink.Report(report.Event{Severity: report.Error, Code: report.CodeParseError, Description: "segstore: skipping segment with bad footer: " + path, Err: err})
		return nil, fmt.Errorf("segstore: bad record-count footer in %s", path)
	}
	return sf, nil
}

func (sf *segmentFile) lookup(key uint64) (Profile, bool) {
	p, ok := sf.entries[key]
	return p, ok
}
