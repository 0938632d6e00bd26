// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestNewRegistersEveryInstrumentExactlyOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)

	m.SplitEvaluations.Inc()
	m.SplitEvaluations.Inc()
	assert.Equal(t, 2.0, counterValue(t, m.SplitEvaluations))
}

func TestCompactionDurationObserves(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.CompactionDuration.Observe(0.5)

	var out dto.Metric
	require.NoError(t, m.CompactionDuration.Write(&out))
	assert.EqualValues(t, 1, out.GetHistogram().GetSampleCount())
}
