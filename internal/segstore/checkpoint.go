// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/linkedin/goavro/v2"
)

// avroRecordSchema describes one (user_id, profile) memtable row as an Avro
// object container file record. Segment timestamps are flattened to
// parallel arrays since Avro has no tuple type.
const avroRecordSchema = `{
  "type": "record",
  "name": "SegmentProfile",
  "fields": [
    {"name": "user_id", "type": "long"},
    {"name": "segment_ids", "type": {"type": "array", "items": "long"}},
    {"name": "segment_timestamps", "type": {"type": "array", "items": {"type": "array", "items": "long"}}}
  ]
}`

// WriteAvroCheckpoint snapshots the current memtable to path in Avro object
// container format, an alternative to the raw §6.2 varint record format
// that a cold-start loader can decode faster with a generic Avro reader.
// This is a point-in-time snapshot, not a crash-recovery log: the canonical
// on-disk state is always the leveled segment files.
func (s *Store) WriteAvroCheckpoint(path string) error {
	codec, err := goavro.NewCodec(avroRecordSchema)
	if err != nil {
		return fmt.Errorf("segstore: avro codec: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("segstore: create checkpoint: %w", err)
	}
	defer f.Close()

	writer, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               f,
		Codec:           codec,
		CompressionName: goavro.CompressionDeflateLabel,
	})
	if err != nil {
		return fmt.Errorf("segstore: avro writer: %w", err)
	}

	mt := *s.memtable.Load()
	for userID, p := range mt {
		ids := make([]int64, len(p.Segments))
		timestamps := make([][]int64, len(p.Segments))
		for i, seg := range p.Segments {
			ids[i] = int64(seg.ID)
			ts := make([]int64, len(seg.Timestamps))
			for j, t := range seg.Timestamps {
				ts[j] = int64(t)
			}
			timestamps[i] = ts
		}
		record := map[string]interface{}{
			"user_id":            int64(userID),
			"segment_ids":        ids,
			"segment_timestamps": timestamps,
		}
		if err := writer.Append([]interface{}{record}); err != nil {
			return fmt.Errorf("segstore: avro append: %w", err)
		}
	}
	return writeCheckpointMeta(path+".meta.json", "avro")
}

// ReadAvroCheckpoint loads a checkpoint written by WriteAvroCheckpoint back
// into a plain map, for warming a fresh Store's memtable.
func ReadAvroCheckpoint(path string) (map[uint64]Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("segstore: open checkpoint: %w", err)
	}
	defer f.Close()

	reader, err := goavro.NewOCFReader(f)
	if err != nil {
		return nil, fmt.Errorf("segstore: avro reader: %w", err)
	}

	out := make(map[uint64]Profile)
	for reader.Scan() {
		raw, err := reader.Read()
		if err != nil {
			return nil, fmt.Errorf("segstore: avro read: %w", err)
		}
		rec, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		userID := uint64(rec["user_id"].(int64))
		rawIDs, _ := rec["segment_ids"].([]interface{})
		rawTS, _ := rec["segment_timestamps"].([]interface{})
		segments := make([]Segment, 0, len(rawIDs))
		for i, rid := range rawIDs {
			id := uint32(rid.(int64))
			var ts []uint64
			if i < len(rawTS) {
				for _, v := range rawTS[i].([]interface{}) {
					ts = append(ts, uint64(v.(int64)))
				}
			}
			segments = append(segments, Segment{ID: id, Timestamps: ts})
		}
		out[userID] = Profile{Segments: segments}
	}
	return out, nil
}

// checkpointMeta is a tiny JSON sidecar recording which checkpoint format
// produced a file, so a loader need not sniff the byte stream.
type checkpointMeta struct {
	Format string `json:"format"` // "raw" or "avro"
}

func writeCheckpointMeta(path, format string) error {
	buf, err := json.Marshal(checkpointMeta{Format: format})
	if err != nil {
		return err
	}
	return os.WriteFile(path, bytes.TrimSpace(buf), 0o644)
}
