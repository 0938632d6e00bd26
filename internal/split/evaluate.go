// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package split

import (
	"math"

	"github.com/yoori/vanga-go/pkg/report"
)

// Candidate is the outcome of evaluating one feature as a split of one
// leaf (spec.md §4.3 "Output").
type Candidate struct {
	FeatureID uint32
	Gain      float64
	DeltaYes  float64
	DeltaNo   float64
	CoverYes  float64 // fraction of total matrix mass routed to the yes child
	CoverNo   float64
}

// Options bundles the evaluator's tunables (spec.md §4.3, §4.4).
type Options struct {
	Loss              Loss
	MinCover          float64
	AllowNegativeGain bool
	WarmStartYes      float64 // previous bucket's δ*, 0 when cold (spec.md §9)
	WarmStartNo       float64
}

// Evaluate computes the candidate split of one leaf by one feature. leaf is
// the full sufficient-statistics bucket of the leaf being considered for a
// split; yes is the sub-bucket of leaf's groups that contain the candidate
// feature. totalMass is the sample matrix's total row count N, used for the
// cover check. sink receives a warning when the log-loss Newton root finder
// diverges on either child bucket, and the candidate's gain becomes -inf
// (spec.md §4.4 "Failure semantics").
func Evaluate(featureID uint32, leaf, yes Stats, totalMass float64, opts Options, sink report.Sink) (*Candidate, bool) {
	if sink == nil {
		sink = report.Discard{}
	}
	no := leaf.Sub(yes)

	parentLoss := BucketLoss(leaf, 0, opts.Loss)

	deltaYes, errYes := OptimalDelta(yes, opts.Loss, opts.WarmStartYes)
	if errYes != nil {
		sink.Report(report.Event{Severity: report.Warning, Code: report.CodeNumerical, Description: "split: newton diverged on yes bucket", Err: errYes})
	}
	deltaNo, errNo := OptimalDelta(no, opts.Loss, opts.WarmStartNo)
	if errNo != nil {
		sink.Report(report.Event{Severity: report.Warning, Code: report.CodeNumerical, Description: "split: newton diverged on no bucket", Err: errNo})
	}

	splitLoss := BucketLoss(yes, deltaYes, opts.Loss) + BucketLoss(no, deltaNo, opts.Loss)
	gain := parentLoss - splitLoss
	if errYes != nil || errNo != nil {
		gain = math.Inf(-1)
	}

	coverYes := 0.0
	coverNo := 0.0
	if totalMass > 0 {
		coverYes = yes.TotalCount() / totalMass
		coverNo = no.TotalCount() / totalMass
	}

	if coverYes < opts.MinCover && coverNo < opts.MinCover {
		return nil, false
	}
	if gain <= 0 && !opts.AllowNegativeGain {
		return nil, false
	}

	return &Candidate{
		FeatureID: featureID,
		Gain:      gain,
		DeltaYes:  deltaYes,
		DeltaNo:   deltaNo,
		CoverYes:  coverYes,
		CoverNo:   coverNo,
	}, true
}

// Better reports whether a beats the current best under the tie-break rule
// of spec.md §4.3: equal gain within 1e-9 relative tolerance favors the
// smaller feature id.
func Better(a, best *Candidate) bool {
	if best == nil {
		return true
	}
	diff := a.Gain - best.Gain
	tol := tieBreakRelativeTol * math.Max(1, math.Max(math.Abs(a.Gain), math.Abs(best.Gain)))
	if math.Abs(diff) <= tol {
		return a.FeatureID < best.FeatureID
	}
	return diff > 0
}
