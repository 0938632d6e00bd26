// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ingest

import (
	"strconv"

	"github.com/influxdata/line-protocol/v2/lineprotocol"

	"github.com/yoori/vanga-go/internal/segstore"
	"github.com/yoori/vanga-go/pkg/report"
)

// Writer is the subset of *segstore.Store used by DecodeLine, so tests can
// substitute a fake.
type Writer interface {
	Put(userID uint64, delta segstore.Profile) error
}

// DecodeLine decodes a batch of "vanga_segment,user_id=<u>,segment_id=<s>
// visit=<unix_seconds>i" line-protocol points and merges each into store
// (spec.md §4.6's write path; the measurement framing is this package's own
// contribution, grounded on the teacher's NATS line-protocol ingestion).
func DecodeLine(dec *lineprotocol.Decoder, store Writer, sink report.Sink) error {
	if sink == nil {
		sink = report.Discard{}
	}
	for dec.Next() {
		measurement, err := dec.Measurement()
		if err != nil {
			return err
		}
		if string(measurement) != "vanga_segment" {
			if err := skipLine(dec); err != nil {
				return err
			}
			continue
		}

		var userID uint64
		var segmentID uint64
		haveUser, haveSegment := false, false
		for {
			key, val, err := dec.NextTag()
			if err != nil {
				return err
			}
			if key == nil {
				break
			}
			switch string(key) {
			case "user_id":
				if v, err := strconv.ParseUint(string(val), 10, 64); err == nil {
					userID = v
					haveUser = true
				}
			case "segment_id":
				if v, err := strconv.ParseUint(string(val), 10, 32); err == nil {
					segmentID = v
					haveSegment = true
				}
			}
		}

		var visit uint64
		haveVisit := false
		for {
			key, val, err := dec.NextField()
			if err != nil {
				return err
			}
			if key == nil {
				break
			}
			if string(key) == "visit" {
				if iv, ok := val.IntV(); ok {
					visit = uint64(iv)
					haveVisit = true
				}
			}
		}

		if _, err := dec.Time(lineprotocol.Second, 0); err != nil {
			return err
		}

		if !haveUser || !haveSegment || !haveVisit {
			sink.Report(report.Event{Severity: report.Warning, Code: report.CodeParseError, Description: "ingest: dropping incomplete vanga_segment point"})
			continue
		}

		delta := segstore.Profile{Segments: []segstore.Segment{{ID: uint32(segmentID), Timestamps: []uint64{visit}}}}
		if err := store.Put(userID, delta); err != nil {
			sink.Report(report.Event{Severity: report.Error, Code: report.CodeIO, Description: "ingest: store write failed", Err: err})
		}
	}
	return nil
}

// skipLine consumes and discards the remaining tags/fields/time of the
// current line so the decoder can advance past an uninteresting
// measurement.
func skipLine(dec *lineprotocol.Decoder) error {
	for {
		key, _, err := dec.NextTag()
		if err != nil {
			return err
		}
		if key == nil {
			break
		}
	}
	for {
		key, _, err := dec.NextField()
		if err != nil {
			return err
		}
		if key == nil {
			break
		}
	}
	_, err := dec.Time(lineprotocol.Second, 0)
	return err
}
