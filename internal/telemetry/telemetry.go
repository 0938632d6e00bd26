// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package telemetry encodes per-iteration learner metrics as InfluxDB
// line-protocol, for forwarding to a metrics pipeline alongside the
// Prometheus instruments in internal/metrics.
package telemetry

import (
	"time"

	"github.com/influxdata/line-protocol/v2/lineprotocol"
)

// IterationSample is one committed split's observable state, emitted once
// per tree-learner iteration (spec.md §4.4).
type IterationSample struct {
	Session    string
	Iteration  int
	FeatureID  uint32
	Gain       float64
	Cover      float64
	TestLoss   float64
	AtLeastOne bool // whether a split was actually committed this iteration
}

// EncodeIteration appends one "vanga_learner" line-protocol point encoding
// sample to enc, ready for Bytes() or a further append.
func EncodeIteration(enc *lineprotocol.Encoder, sample IterationSample, at time.Time) error {
	enc.StartLine("vanga_learner")
	enc.AddTag("session", sample.Session)
	enc.AddField("iteration", lineprotocol.MustNewValue(int64(sample.Iteration)))
	enc.AddField("feature_id", lineprotocol.MustNewValue(int64(sample.FeatureID)))
	enc.AddField("gain", lineprotocol.MustNewValue(sample.Gain))
	enc.AddField("cover", lineprotocol.MustNewValue(sample.Cover))
	enc.AddField("test_loss", lineprotocol.MustNewValue(sample.TestLoss))
	enc.AddField("committed", lineprotocol.MustNewValue(sample.AtLeastOne))
	enc.EndLine(at)
	return enc.Err()
}

// NewEncoder returns a line-protocol encoder configured for second
// precision timestamps, matching the sampling granularity of a learner
// iteration.
func NewEncoder() *lineprotocol.Encoder {
	enc := &lineprotocol.Encoder{}
	enc.SetPrecision(lineprotocol.Second)
	return enc
}
