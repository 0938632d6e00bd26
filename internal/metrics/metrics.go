// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics exposes Prometheus counters and histograms for the
// learner and segment store, scraped by internal/opsserver's /metrics
// endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every instrument this module registers. Create one with
// New and pass it down to the learner session and segment store.
type Metrics struct {
	SplitEvaluations   prometheus.Counter
	SplitsCommitted    prometheus.Counter
	NewtonDivergences  prometheus.Counter
	CompactionDuration prometheus.Histogram
	FlushBytes         prometheus.Histogram
}

// New registers every instrument against reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SplitEvaluations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "vanga",
			Subsystem: "learner",
			Name:      "split_evaluations_total",
			Help:      "Candidate feature splits evaluated across all leaves and bags.",
		}),
		SplitsCommitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "vanga",
			Subsystem: "learner",
			Name:      "splits_committed_total",
			Help:      "Splits committed to a tree.",
		}),
		NewtonDivergences: f.NewCounter(prometheus.CounterOpts{
			Namespace: "vanga",
			Subsystem: "learner",
			Name:      "newton_divergences_total",
			Help:      "Log-loss Newton root-finding divergences, clamped and reported as warnings.",
		}),
		CompactionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vanga",
			Subsystem: "segstore",
			Name:      "compaction_duration_seconds",
			Help:      "Wall time of a single level compaction pass.",
			Buckets:   prometheus.DefBuckets,
		}),
		FlushBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vanga",
			Subsystem: "segstore",
			Name:      "memtable_flush_bytes",
			Help:      "Estimated size of a flushed memtable at flush time.",
			Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 10),
		}),
	}
}
