// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tree

import "math"

// Ensemble is the full boosted predictor: a base rate p0 plus a sequence of
// trees, combined with the loss's link function (spec.md §4.5 "For the full
// pipeline, the top-level predictor is σ(p0 + Σ tree_k(row)) for log-loss or
// p0 + Σ tree_k(row) for squared"). This supplements the distilled spec,
// which names the per-tree predictor but not the ensemble combinator.
type Ensemble struct {
	P0      float64
	Trees   []Node
	LogLoss bool // selects σ(·) vs identity link
}

// NewEnsemble returns an empty ensemble with base rate p0 under the given
// link.
func NewEnsemble(p0 float64, logLoss bool) *Ensemble {
	return &Ensemble{P0: p0, LogLoss: logLoss}
}

// Add appends a newly fit tree to the ensemble.
func (e *Ensemble) Add(t Node) {
	e.Trees = append(e.Trees, t)
}

// Predict sums the raw score across p0 and every tree, applying the
// ensemble's link function.
func (e *Ensemble) Predict(row interface{ Contains(uint32) bool }) float64 {
	score := e.P0
	for i := range e.Trees {
		score += predictRow(&e.Trees[i], row)
	}
	return e.link(score)
}

func predictRow(n *Node, row interface{ Contains(uint32) bool }) float64 {
	cur := n
	for cur.isSplit {
		if row.Contains(cur.featureID) {
			cur = cur.yes
		} else {
			cur = cur.no
		}
	}
	return cur.delta
}

// PredictFast is the dense-presence-table counterpart of Predict, for
// batched inference (spec.md §4.5, §4.7).
func (e *Ensemble) PredictFast(table PresenceTable) float64 {
	score := e.P0
	for i := range e.Trees {
		score += e.Trees[i].PredictFast(table)
	}
	return e.link(score)
}

func (e *Ensemble) link(score float64) float64 {
	if e.LogLoss {
		return 1.0 / (1.0 + math.Exp(-score))
	}
	return score
}

// RawScore returns the pre-link accumulated score p0 + Σ tree_k(row), the
// "standing prediction" carried by sample-matrix labels between boosting
// iterations (spec.md §4.1).
func (e *Ensemble) RawScore(row interface{ Contains(uint32) bool }) float64 {
	score := e.P0
	for i := range e.Trees {
		score += predictRow(&e.Trees[i], row)
	}
	return score
}
