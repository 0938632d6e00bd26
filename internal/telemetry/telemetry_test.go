// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package telemetry

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeIterationProducesLineProtocolPoint(t *testing.T) {
	enc := NewEncoder()
	sample := IterationSample{
		Session:    "train-1",
		Iteration:  3,
		FeatureID:  42,
		Gain:       1.25,
		Cover:      0.5,
		TestLoss:   0.01,
		AtLeastOne: true,
	}
	require.NoError(t, EncodeIteration(enc, sample, time.Unix(1000, 0)))

	out := string(enc.Bytes())
	assert.True(t, strings.HasPrefix(out, "vanga_learner,session=train-1 "))
	assert.Contains(t, out, "iteration=3i")
	assert.Contains(t, out, "feature_id=42i")
	assert.Contains(t, out, "gain=1.25")
	assert.Contains(t, out, "committed=true")
}

func TestEncodeIterationAppendsAcrossMultipleCalls(t *testing.T) {
	enc := NewEncoder()
	s := IterationSample{Session: "a", Iteration: 1}
	require.NoError(t, EncodeIteration(enc, s, time.Unix(1, 0)))
	require.NoError(t, EncodeIteration(enc, s, time.Unix(2, 0)))

	lines := strings.Count(string(enc.Bytes()), "vanga_learner")
	assert.Equal(t, 2, lines)
}
