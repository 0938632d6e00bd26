// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/time/rate"

	"github.com/yoori/vanga-go/internal/metrics"
	"github.com/yoori/vanga-go/pkg/report"
	"github.com/yoori/vanga-go/pkg/vlog"
)

// Config holds the LSM tuning knobs named in spec.md §4.6.
type Config struct {
	Dir            string
	L0Bytes        int64 // memtable flush threshold
	MaxL0Segments  int   // level-0 segment count that triggers compaction into level 1
	LevelSizeRatio int   // approximate segment-count ratio between adjacent levels; spec.md defaults this to ~10
	// CompactionInterval paces the background compaction job; CompactionRate
	// bounds how many compaction passes run per second, protecting disk
	// bandwidth on busy stores.
	CompactionInterval time.Duration
	CompactionRate     rate.Limit

	// Archive optionally moves aged compacted level files to S3; the zero
	// value (Bucket == "") disables the cold-storage tier entirely.
	Archive ArchiveConfig
}

// DefaultConfig returns the spec's suggested defaults (spec.md §4.6 "a size
// ratio of ~10").
func DefaultConfig(dir string) Config {
	return Config{
		Dir:                dir,
		L0Bytes:            64 << 20,
		MaxL0Segments:      4,
		LevelSizeRatio:     10,
		CompactionInterval: 30 * time.Second,
		CompactionRate:     rate.Limit(1),
	}
}

// Store is a persistent keyed map from user id to segment profile backed by
// a memtable plus leveled on-disk segments (spec.md §4.6).
type Store struct {
	cfg  Config
	sink report.Sink

	writeMu       sync.Mutex // serializes writers; spec.md "Writes serialize through a single writer"
	memtable      atomic.Pointer[map[uint64]Profile]
	memtableBytes atomic.Int64

	levels atomic.Pointer[[][]*segmentFile] // levels[i] holds level i's segments, newest first

	scheduler gocron.Scheduler
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
	archiver  *Archiver
}

// SetMetrics attaches Prometheus instruments to the store; m may be nil to
// disable instrumentation.
func (s *Store) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Open loads any existing level segments from cfg.Dir and starts the
// background compaction scheduler.
func Open(cfg Config, sink report.Sink) (*Store, error) {
	if sink == nil {
		sink = report.Discard{}
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("segstore: create store dir: %w", err)
	}
	s := &Store{cfg: cfg, sink: sink, limiter: rate.NewLimiter(cfg.CompactionRate, 1)}

	empty := make(map[uint64]Profile)
	s.memtable.Store(&empty)

	levels, err := loadLevels(cfg.Dir, sink)
	if err != nil {
		return nil, err
	}
	s.levels.Store(&levels)

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("segstore: create compaction scheduler: %w", err)
	}
	s.scheduler = sched
	interval := cfg.CompactionInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if _, err := sched.NewJob(gocron.DurationJob(interval), gocron.NewTask(s.compactionTick)); err != nil {
		return nil, fmt.Errorf("segstore: schedule compaction job: %w", err)
	}

	if cfg.Archive.Bucket != "" {
		archiver, err := NewArchiver(context.Background(), cfg.Archive, sink)
		if err != nil {
			return nil, err
		}
		s.archiver = archiver
		if _, err := sched.NewJob(gocron.DurationJob(interval), gocron.NewTask(s.archiveTick)); err != nil {
			return nil, fmt.Errorf("segstore: schedule archive job: %w", err)
		}
	}

	sched.Start()
	return s, nil
}

// archiveTick runs one cold-storage sweep of the store directory.
func (s *Store) archiveTick() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	n, err := s.archiver.Sweep(ctx, s.cfg.Dir)
	if err != nil {
		s.sink.Report(report.Event{Severity: report.Error, Code: report.CodeIO, Description: "segstore: archive sweep failed", Err: err})
		return
	}
	if n > 0 {
		vlog.Infof("segstore: archived %d level files", n)
	}
}

// loadLevels scans cfg.Dir for "L<n>-*.seg" files and groups them by level,
// newest first within a level (by filename, which embeds the flush's
// minimum key and thus a stable, though not time, ordering).
func loadLevels(dir string, sink report.Sink) ([][]*segmentFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	byLevel := make(map[uint32][]*segmentFile)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match("L*-*.seg", e.Name()); !ok {
			continue
		}
		sf, err := openSegmentFile(filepath.Join(dir, e.Name()), sink)
		if err != nil {
			continue // already reported by openSegmentFile
		}
		byLevel[sf.level] = append(byLevel[sf.level], sf)
	}
	maxLevel := uint32(0)
	for lvl := range byLevel {
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}
	levels := make([][]*segmentFile, maxLevel+1)
	for lvl, sfs := range byLevel {
		sort.Slice(sfs, func(i, j int) bool { return sfs[i].path > sfs[j].path })
		levels[lvl] = sfs
	}
	return levels, nil
}

// Get reads the current profile for userID: the merge of its entries in
// every level segment and in the memtable, since each flush writes only the
// deltas written since the previous flush (spec.md §4.6 "Reads").
// Reads are non-blocking: they consult atomically-loaded snapshots and
// never take writeMu.
func (s *Store) Get(userID uint64) (Profile, bool, error) {
	var out Profile
	found := false
	levels := *s.levels.Load()
	for _, level := range levels {
		for _, sf := range level {
			if p, ok := sf.lookup(userID); ok {
				out, found = Merge(out, p), true
			}
		}
	}
	if p, ok := (*s.memtable.Load())[userID]; ok {
		out, found = Merge(out, p), true
	}
	return out, found, nil
}

// Put merges delta into the stored profile for userID (spec.md §4.6
// "Merge-on-write semantics"). The merged memtable is published via an
// atomically-swapped pointer so concurrent readers always see either the
// pre- or post-write snapshot, never a partial one (spec.md §4.6
// "Concurrency").
func (s *Store) Put(userID uint64, delta Profile) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	old := *s.memtable.Load()
	next := make(map[uint64]Profile, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	if existing, ok := next[userID]; ok {
		next[userID] = Merge(existing, delta)
	} else {
		next[userID] = delta
	}
	s.memtable.Store(&next)
	s.memtableBytes.Add(estimateSize(delta))

	if s.memtableBytes.Load() >= s.cfg.L0Bytes {
		return s.flushMemtable()
	}
	return nil
}

func estimateSize(p Profile) int64 {
	var n int64 = 16
	for _, seg := range p.Segments {
		n += 8 + 8*int64(len(seg.Timestamps))
	}
	return n
}

// flushMemtable freezes the current memtable, writes it as a new level-0
// segment, and resets the in-memory table. Caller must hold writeMu.
func (s *Store) flushMemtable() error {
	frozen := *s.memtable.Load()
	if len(frozen) == 0 {
		return nil
	}
	flushedBytes := s.memtableBytes.Load()
	keys := make([]uint64, 0, len(frozen))
	for k := range frozen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	path, err := writeSegmentFile(s.cfg.Dir, 0, keys, frozen, s.sink)
	if err != nil {
		return fmt.Errorf("segstore: flush memtable: %w", err)
	}
	sf, err := openSegmentFile(path, s.sink)
	if err != nil {
		return err
	}

	empty := make(map[uint64]Profile)
	s.memtable.Store(&empty)
	s.memtableBytes.Store(0)

	for {
		old := s.levels.Load()
		next := make([][]*segmentFile, len(*old))
		copy(next, *old)
		if len(next) == 0 {
			next = append(next, nil)
		}
		next[0] = append([]*segmentFile{sf}, next[0]...)
		if s.levels.CompareAndSwap(old, &next) {
			break
		}
	}
	if s.metrics != nil {
		s.metrics.FlushBytes.Observe(float64(flushedBytes))
	}
	vlog.Infof("segstore: flushed memtable to level-0 segment %s (%d keys)", path, len(keys))
	return nil
}

// compactionTick is the background job body: it rate-limits itself, then
// compacts any level whose segment count exceeds the configured threshold
// (spec.md §4.6 "Compaction").
func (s *Store) compactionTick() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}
	start := time.Now()
	err := s.compactOnce()
	if s.metrics != nil {
		s.metrics.CompactionDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.sink.Report(report.Event{Severity: report.Error, Code: report.CodeIO, Description: "segstore: compaction failed", Err: err})
	}
}

// compactOnce picks the lowest level whose segment count exceeds the
// level's threshold, merges a contiguous span key-by-key into the next
// level, writes the merged segment via the crash-safe temp-then-rename
// path, then atomically swaps the span out (spec.md §4.6).
func (s *Store) compactOnce() error {
	levels := *s.levels.Load()
	for lvl := 0; lvl < len(levels); lvl++ {
		threshold := s.cfg.MaxL0Segments
		for i := 0; i < lvl; i++ {
			threshold *= max(s.cfg.LevelSizeRatio, 1)
		}
		if len(levels[lvl]) <= threshold {
			continue
		}
		return s.compactLevel(lvl, levels)
	}
	return nil
}

func (s *Store) compactLevel(lvl int, levels [][]*segmentFile) error {
	span := levels[lvl]
	merged := make(map[uint64]Profile)
	// Each segment holds only the deltas flushed into it, so every segment's
	// entry for a key is merged into the key's combined profile.
	for i := len(span) - 1; i >= 0; i-- {
		for k, p := range span[i].entries {
			if existing, ok := merged[k]; ok {
				merged[k] = Merge(existing, p)
			} else {
				merged[k] = p
			}
		}
	}
	if len(merged) == 0 {
		return nil
	}
	keys := make([]uint64, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	nextLevel := uint32(lvl + 1)
	path, err := writeSegmentFile(s.cfg.Dir, nextLevel, keys, merged, s.sink)
	if err != nil {
		return err
	}
	sf, err := openSegmentFile(path, s.sink)
	if err != nil {
		return err
	}

	for {
		old := s.levels.Load()
		next := make([][]*segmentFile, len(*old))
		copy(next, *old)
		for len(next) <= lvl+1 {
			next = append(next, nil)
		}
		next[lvl] = nil
		next[lvl+1] = append([]*segmentFile{sf}, next[lvl+1]...)
		if s.levels.CompareAndSwap(old, &next) {
			break
		}
	}
	for _, sf := range span {
		_ = os.Remove(sf.path)
	}
	vlog.Infof("segstore: compacted %d level-%d segments into %s", len(span), lvl, path)
	return nil
}

// Close stops the compaction scheduler and flushes any residual memtable
// contents to disk.
func (s *Store) Close() error {
	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			return err
		}
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.flushMemtable()
}
