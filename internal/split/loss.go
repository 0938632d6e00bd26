// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package split

import (
	"errors"
	"math"
)

// Loss selects the differentiable loss minimized at each split (spec.md
// §4.3).
type Loss int

const (
	LogLoss Loss = iota
	SquaredDeviation
)

func (l Loss) String() string {
	if l == LogLoss {
		return "log-loss"
	}
	return "squared-deviation"
}

const (
	newtonResidualTol  = 1e-7
	newtonMaxIter      = 32
	deltaClamp         = 50.0
	tieBreakRelativeTol = 1e-9
)

// ErrNewtonDiverged is returned by OptimalDelta when the log-loss Newton
// iteration does not converge; callers treat the candidate as gain = -inf
// (spec.md §4.3, §7 "Numerical").
var ErrNewtonDiverged = errors.New("split: newton iteration diverged")

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// OptimalDelta computes δ* minimizing loss on the bucket described by
// stats. warmStart seeds the Newton iteration for log-loss (spec.md §9
// Open Questions: warm-started from the previous bucket's δ*, 0 when cold);
// it is ignored for squared deviation, which has a closed form.
func OptimalDelta(stats Stats, loss Loss, warmStart float64) (delta float64, err error) {
	switch loss {
	case SquaredDeviation:
		return optimalDeltaSquared(stats), nil
	default:
		return optimalDeltaLogLoss(stats, warmStart)
	}
}

func optimalDeltaSquared(stats Stats) float64 {
	var numerator, count float64
	for p, pt := range stats {
		numerator += pt.SumCountY - p*pt.SumCount
		count += pt.SumCount
	}
	if count <= 0 {
		return 0
	}
	return numerator / count
}

// optimalDeltaLogLoss finds the root of Σcount·(σ(p+δ) − y) = 0 via bounded
// Newton iteration, terminating at residual < 1e-7 or 32 iterations,
// whichever first; divergence (|δ| > 50) clamps δ to ±50 (spec.md §4.3
// "Numerical semantics").
func optimalDeltaLogLoss(stats Stats, warmStart float64) (float64, error) {
	delta := warmStart
	diverged := false
	for i := 0; i < newtonMaxIter; i++ {
		var residual, derivative float64
		for p, pt := range stats {
			s := sigmoid(p + delta)
			residual += pt.SumCount*s - pt.SumCountY
			derivative += pt.SumCount * s * (1 - s)
		}
		if math.Abs(residual) < newtonResidualTol {
			break
		}
		if derivative == 0 {
			diverged = true
			break
		}
		step := residual / derivative
		delta -= step
		if math.Abs(delta) > deltaClamp {
			delta = math.Copysign(deltaClamp, delta)
			diverged = true
			break
		}
	}
	if diverged {
		if math.Abs(delta) > deltaClamp {
			delta = math.Copysign(deltaClamp, delta)
		}
		return delta, ErrNewtonDiverged
	}
	return delta, nil
}

// BucketLoss evaluates the total loss on the bucket if delta is added to
// every row's standing prediction.
func BucketLoss(stats Stats, delta float64, loss Loss) float64 {
	if loss == SquaredDeviation {
		var total float64
		for p, pt := range stats {
			pred := p + delta
			// Σcount·(y-pred)² expanded via the Point aggregates.
			total += pt.SumCountY2 - 2*pred*pt.SumCountY + pred*pred*pt.SumCount
		}
		return total
	}

	var total float64
	const eps = 1e-12
	for p, pt := range stats {
		s := sigmoid(p + delta)
		s = math.Min(math.Max(s, eps), 1-eps)
		countYes := pt.SumCountY
		countNo := pt.SumCount - pt.SumCountY
		total += -countYes*math.Log(s) - countNo*math.Log(1-s)
	}
	return total
}
