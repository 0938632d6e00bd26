// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tree

import (
	"context"
	"math/rand"
	"sync"

	"github.com/yoori/vanga-go/internal/matrix"
	"github.com/yoori/vanga-go/internal/metrics"
	"github.com/yoori/vanga-go/internal/split"
	"github.com/yoori/vanga-go/internal/taskpool"
	"github.com/yoori/vanga-go/pkg/report"
)

// GrowthControls are the learner's per-session tunables (spec.md §4.4).
type GrowthControls struct {
	StepDepth         int
	CheckDepth        int
	MaxIterations     int
	MinCover          float64
	AllowNegativeGain bool
	GainCheckBags     int
	// AlternateLossProb is the per-iteration probability of using the
	// secondary loss instead of Primary (spec.md §4.4 "optionally randomly
	// alternated per iteration"); 0 disables alternation.
	AlternateLossProb float64
	Primary           split.Loss
	Secondary         split.Loss
}

// Session grows a single tree over a bagged sample matrix (spec.md §4.4).
// A Session must not be reused across trees.
type Session struct {
	bags     []*matrix.Matrix
	test     *matrix.Matrix
	testLoss split.Loss
	controls GrowthControls
	pool     *taskpool.Pool
	sink     report.Sink
	rng      *rand.Rand // caller-supplied; never falls back to time-based seeding (spec.md §9)
	metrics  *metrics.Metrics

	root      Node
	cancelled bool
}

// SetMetrics attaches Prometheus instruments to the session; m may be nil
// to disable instrumentation.
func (s *Session) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// countingSink forwards every event to the wrapped sink, additionally
// bumping the Newton-divergence counter for CodeNumerical events.
type countingSink struct {
	inner report.Sink
	m     *metrics.Metrics
}

func (c countingSink) Report(e report.Event) {
	if c.m != nil && e.Code == report.CodeNumerical {
		c.m.NewtonDivergences.Inc()
	}
	c.inner.Report(e)
}

// evalSink is the sink passed to split.Evaluate, wrapping s.sink with
// metrics counting when instrumentation is attached.
func (s *Session) evalSink() report.Sink {
	if s.metrics == nil {
		return s.sink
	}
	return countingSink{inner: s.sink, m: s.metrics}
}

// NewSession constructs a learner session. rng must be supplied by the
// caller with an explicit seed (spec.md §9 Open Questions: "implementations
// should accept a caller-provided seed and refuse to fall back to
// time-based seeding silently").
func NewSession(bags []*matrix.Matrix, test *matrix.Matrix, testLoss split.Loss, controls GrowthControls, pool *taskpool.Pool, rng *rand.Rand, sink report.Sink) *Session {
	if sink == nil {
		sink = report.Discard{}
	}
	return &Session{
		bags:     bags,
		test:     test,
		testLoss: testLoss,
		controls: controls,
		pool:     pool,
		sink:     sink,
		rng:      rng,
		root:     NewLeaf(0),
	}
}

// Cancel flips the session's cooperative cancel flag, checked at the next
// frontier-iteration boundary (spec.md §5 "Cancellation").
func (s *Session) Cancel() {
	s.cancelled = true
}

type frontierLeaf struct {
	node  *Node
	cover float64 // fraction of total mass reaching this leaf, summed over bags
}

// frontier walks the current tree collecting leaves whose cover exceeds
// min_cover (spec.md §4.4 "Frontier selection").
func (s *Session) frontier() []frontierLeaf {
	totalMass := 0.0
	cover := make(map[*Node]float64)
	for _, bag := range s.bags {
		totalMass += float64(bag.TotalCount())
		for _, g := range bag.Groups() {
			cur := &s.root
			mass := float64(g.Count)
			for cur.isSplit {
				if g.Features.Contains(cur.featureID) {
					cur = cur.yes
				} else {
					cur = cur.no
				}
			}
			cover[cur] += mass
		}
	}
	var out []frontierLeaf
	s.root.Walk(func(n *Node) {
		if n.isSplit {
			return
		}
		c := 0.0
		if totalMass > 0 {
			c = cover[n] / totalMass
		}
		if c >= s.controls.MinCover {
			out = append(out, frontierLeaf{node: n, cover: c})
		}
	})
	return out
}

// leafGroups returns, per bag, the groups currently routed to leaf.
func (s *Session) leafGroups(leaf *Node) [][]matrix.Group {
	out := make([][]matrix.Group, len(s.bags))
	for bi, bag := range s.bags {
		var groups []matrix.Group
		for _, g := range bag.Groups() {
			if reaches(&s.root, leaf, g.Features) {
				groups = append(groups, g)
			}
		}
		out[bi] = groups
	}
	return out
}

// reaches reports whether a row with the given features, dropped from
// root, arrives at target.
func reaches(root, target *Node, features matrix.Row) bool {
	cur := root
	for cur.isSplit {
		if cur == target {
			return false // target is internal by the time we reach it; can't land here
		}
		if features.Contains(cur.featureID) {
			cur = cur.yes
		} else {
			cur = cur.no
		}
	}
	return cur == target
}

func leafStats(groups []matrix.Group) split.Stats {
	st := split.NewStats()
	for _, g := range groups {
		st.Add(g.Label.P, g.Label.Y, g.Count)
	}
	return st
}

func featureUnion(groups []matrix.Group) map[uint32]struct{} {
	out := make(map[uint32]struct{})
	for _, g := range groups {
		for _, f := range g.Features {
			out[f] = struct{}{}
		}
	}
	return out
}

func yesStatsForFeature(groups []matrix.Group, feature uint32) split.Stats {
	st := split.NewStats()
	for _, g := range groups {
		if g.Features.Contains(feature) {
			st.Add(g.Label.P, g.Label.Y, g.Count)
		}
	}
	return st
}

// evalFeature aggregates a feature's split candidate across bags per
// spec.md §4.4 "Bag aggregation": gains summed, δ* from aggregated stats.
// rankBags/commitBags split the bag set for gain_check_bags mode; when
// equal to the full bag set this degenerates to the ordinary case.
func evalFeature(feature uint32, allLeafGroups [][]matrix.Group, bags []*matrix.Matrix, rankBags, commitBags []int, opts split.Options, sink report.Sink) (*split.Candidate, bool) {
	var rankGain float64
	haveRank := false
	for _, bi := range rankBags {
		ls := leafStats(allLeafGroups[bi])
		ys := yesStatsForFeature(allLeafGroups[bi], feature)
		if c, ok := split.Evaluate(feature, ls, ys, float64(bags[bi].TotalCount()), opts, sink); ok {
			rankGain += c.Gain
			haveRank = true
		}
	}
	if !haveRank {
		return nil, false
	}

	aggLeaf := split.NewStats()
	aggYes := split.NewStats()
	var totalMass float64
	for _, bi := range commitBags {
		ls := leafStats(allLeafGroups[bi])
		ys := yesStatsForFeature(allLeafGroups[bi], feature)
		aggLeaf = split.Merge(aggLeaf, ls)
		aggYes = split.Merge(aggYes, ys)
		totalMass += float64(bags[bi].TotalCount())
	}
	cand, ok := split.Evaluate(feature, aggLeaf, aggYes, totalMass, opts, sink)
	if !ok {
		return nil, false
	}
	cand.Gain = rankGain
	return cand, true
}

// rolloutGain extends evalFeature's candidate with a speculative, uncommitted
// lookahead of up to check_depth-1 further levels, summing gains along the
// greedy path (spec.md §4.4 "a candidate's gain is evaluated ... at the
// resulting subtree rolled out to check_depth").
func rolloutGain(cand *split.Candidate, leafGroups [][]matrix.Group, bags []*matrix.Matrix, depthRemaining int, opts split.Options, sink report.Sink) float64 {
	if depthRemaining <= 0 {
		return cand.Gain
	}
	yesGroups := make([][]matrix.Group, len(leafGroups))
	noGroups := make([][]matrix.Group, len(leafGroups))
	for bi, groups := range leafGroups {
		for _, g := range groups {
			if g.Features.Contains(cand.FeatureID) {
				yesGroups[bi] = append(yesGroups[bi], g)
			} else {
				noGroups[bi] = append(noGroups[bi], g)
			}
		}
	}
	total := cand.Gain
	total += bestChildGain(yesGroups, bags, depthRemaining-1, opts, sink)
	total += bestChildGain(noGroups, bags, depthRemaining-1, opts, sink)
	return total
}

func bestChildGain(groups [][]matrix.Group, bags []*matrix.Matrix, depthRemaining int, opts split.Options, sink report.Sink) float64 {
	allBags := allIndices(len(bags))
	features := make(map[uint32]struct{})
	for _, g := range groups {
		for f := range featureUnion(g) {
			features[f] = struct{}{}
		}
	}
	best := 0.0
	for f := range features {
		cand, ok := evalFeature(f, groups, bags, allBags, allBags, opts, sink)
		if !ok {
			continue
		}
		g := rolloutGain(cand, groups, bags, depthRemaining, opts, sink)
		if g > best {
			best = g
		}
	}
	return best
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// pickLoss chooses the loss for this iteration, alternating per
// AlternateLossProb using the caller-seeded rng (spec.md §4.4, §9).
func (s *Session) pickLoss() split.Loss {
	if s.controls.AlternateLossProb > 0 && s.rng != nil && s.rng.Float64() < s.controls.AlternateLossProb {
		return s.controls.Secondary
	}
	return s.controls.Primary
}

// bestFeature finds the best candidate for one leaf, across all features
// present in its groups, with check_depth rollout ranking and the
// (gain, feature_id) tie-break (spec.md §4.3, §4.4).
func (s *Session) bestFeature(leafGroups [][]matrix.Group, loss split.Loss) (*split.Candidate, float64) {
	opts := split.Options{Loss: loss, MinCover: s.controls.MinCover, AllowNegativeGain: s.controls.AllowNegativeGain}
	allBags := allIndices(len(s.bags))
	rankBags, commitBags := allBags, allBags
	if n := s.controls.GainCheckBags; n > 0 && n < len(s.bags) {
		rankBags = allBags[:n]
		commitBags = allBags[n:]
	}

	features := make(map[uint32]struct{})
	for _, g := range leafGroups {
		for f := range featureUnion(g) {
			features[f] = struct{}{}
		}
	}

	var best *split.Candidate
	var bestRollout float64
	for f := range features {
		if s.metrics != nil {
			s.metrics.SplitEvaluations.Inc()
		}
		cand, ok := evalFeature(f, leafGroups, s.bags, rankBags, commitBags, opts, s.evalSink())
		if !ok {
			continue
		}
		rollout := rolloutGain(cand, leafGroups, s.bags, s.controls.CheckDepth-1, opts, s.evalSink())
		if best == nil || rollout > bestRollout || (rollout == bestRollout && cand.FeatureID < best.FeatureID) {
			best = cand
			bestRollout = rollout
		}
	}
	return best, bestRollout
}

type leafResult struct {
	leaf    *Node
	cand    *split.Candidate
	rollout float64
}

// growLeaf commits cand as leaf's split, then speculatively deepens the two
// fresh leaves for up to step_depth further levels without re-entering the
// global frontier ranking (spec.md §4.4 "grow the resulting leaves by up to
// step_depth further levels before re-evaluating the frontier").
func (s *Session) growLeaf(leaf *Node, cand *split.Candidate, loss split.Loss) int {
	*leaf = NewSplit(cand.FeatureID, NewLeaf(cand.DeltaYes), NewLeaf(cand.DeltaNo))
	if s.metrics != nil {
		s.metrics.SplitsCommitted.Inc()
	}
	committed := 1
	frontierNow := []*Node{leaf.yes, leaf.no}
	for depth := 0; depth < s.controls.StepDepth; depth++ {
		var next []*Node
		for _, n := range frontierNow {
			groups := s.leafGroups(n)
			if totalGroupCount(groups) == 0 {
				continue
			}
			best, _ := s.bestFeature(groups, loss)
			if best == nil {
				continue
			}
			*n = NewSplit(best.FeatureID, NewLeaf(best.DeltaYes), NewLeaf(best.DeltaNo))
			if s.metrics != nil {
				s.metrics.SplitsCommitted.Inc()
			}
			committed++
			next = append(next, n.yes, n.no)
		}
		frontierNow = next
		if len(frontierNow) == 0 {
			break
		}
	}
	return committed
}

func totalGroupCount(groups [][]matrix.Group) int {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	return n
}

// testLossOf evaluates the session's configured loss for the current tree
// against the test matrix (spec.md §4.4 "Best-model bookkeeping").
func (s *Session) testLossOf() float64 {
	if s.test == nil {
		return 0
	}
	st := split.NewStats()
	for _, g := range s.test.Groups() {
		delta := s.root.Predict(g.Features)
		st.Add(g.Label.P+delta, g.Label.Y, g.Count)
	}
	return split.BucketLoss(st, 0, s.testLoss)
}

func cloneNode(n *Node) Node {
	if !n.isSplit {
		return NewLeaf(n.delta)
	}
	yes := cloneNode(n.yes)
	no := cloneNode(n.no)
	return NewSplit(n.featureID, yes, no)
}

// Run drives the session's state machine to completion: building until the
// iteration cap, an empty frontier, or two consecutive no-improvement steps
// with negative gain disallowed (spec.md §4.4 "State machine"). It returns
// the best tree observed by test loss.
func (s *Session) Run() Node {
	best := cloneNode(&s.root)
	bestLoss := s.testLossOf()
	noImprovement := 0
	iterations := 0

	for iterations < s.controls.MaxIterations {
		if s.cancelled || (s.pool != nil && s.pool.Cancelled()) {
			break
		}
		fr := s.frontier()
		if len(fr) == 0 {
			break
		}
		loss := s.pickLoss()

		results := make([]leafResult, len(fr))
		var mu sync.Mutex
		if s.pool != nil {
			// Evaluate frontier leaves through the worker pool rendezvous
			// (spec.md §5 "bag-wide gain aggregation rendezvous").
			var wg sync.WaitGroup
			wg.Add(len(fr))
			for i, lf := range fr {
				i, lf := i, lf
				err := s.pool.Submit(func(ctx context.Context) {
					defer wg.Done()
					groups := s.leafGroups(lf.node)
					cand, rollout := s.bestFeature(groups, loss)
					mu.Lock()
					results[i] = leafResult{leaf: lf.node, cand: cand, rollout: rollout}
					mu.Unlock()
				})
				if err != nil {
					wg.Done()
				}
			}
			wg.Wait()
		} else {
			for i, lf := range fr {
				groups := s.leafGroups(lf.node)
				cand, rollout := s.bestFeature(groups, loss)
				results[i] = leafResult{leaf: lf.node, cand: cand, rollout: rollout}
			}
		}

		var winner *leafResult
		for i := range results {
			r := &results[i]
			if r.cand == nil {
				continue
			}
			if winner == nil || r.rollout > winner.rollout || (r.rollout == winner.rollout && r.cand.FeatureID < winner.cand.FeatureID) {
				winner = r
			}
		}

		if winner == nil {
			// No candidate survived even the MinCover check (AllowNegativeGain
			// only waives the non-positive-gain discard, not MinCover), so the
			// frontier cannot change on a later pass either: stall
			// unconditionally rather than looping forever when negative gain
			// is allowed (spec.md §4.4 "State machine" names three terminal
			// conditions, not a fourth livelock state).
			noImprovement++
			if noImprovement >= 2 {
				break
			}
			continue
		}
		noImprovement = 0

		committed := s.growLeaf(winner.leaf, winner.cand, loss)
		iterations += committed

		// Without a test matrix there is no loss to compare: keep the latest tree.
		curLoss := s.testLossOf()
		if s.test == nil || curLoss < bestLoss {
			bestLoss = curLoss
			best = cloneNode(&s.root)
		}
	}

	return best
}
