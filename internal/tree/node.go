// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tree implements the tree model and learner (spec.md §4.4, §4.5):
// an immutable decision tree with a scalar leaf delta, grown by iterative
// greedy splitting over a bagged sample matrix.
package tree

import "github.com/yoori/vanga-go/internal/matrix"

// Node is a tagged union with value semantics: either a Leaf carrying the
// accumulated delta along its path, or a Split branching on a feature's
// presence (spec.md §4.5 "Invariant: every internal node has both
// children; no empty leaves"). The zero Node is a Leaf with delta 0.
type Node struct {
	isSplit   bool
	delta     float64
	featureID uint32
	yes       *Node
	no        *Node
}

// NewLeaf returns a leaf node carrying delta.
func NewLeaf(delta float64) Node {
	return Node{delta: delta}
}

// NewSplit returns an internal node branching on featureID; yes and no must
// both be non-nil (spec.md §4.5 invariant).
func NewSplit(featureID uint32, yes, no Node) Node {
	return Node{isSplit: true, featureID: featureID, yes: &yes, no: &no}
}

// IsLeaf reports whether n is a leaf.
func (n *Node) IsLeaf() bool {
	return !n.isSplit
}

// Delta returns the leaf's accumulated delta. Only meaningful for leaves.
func (n *Node) Delta() float64 {
	return n.delta
}

// FeatureID returns the split's branching feature. Only meaningful for
// internal nodes.
func (n *Node) FeatureID() uint32 {
	return n.featureID
}

// Yes returns the child taken when FeatureID is present in the row.
func (n *Node) Yes() *Node {
	return n.yes
}

// No returns the child taken when FeatureID is absent from the row.
func (n *Node) No() *Node {
	return n.no
}

// Predict traverses from n following feature presence in row, returning the
// destination leaf's delta (spec.md §4.5).
func (n *Node) Predict(row matrix.Row) float64 {
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

// PresenceTable is a dense bitmap of feature ids known to be present,
// indexed by feature id, used by PredictFast for batched inference (spec.md
// §4.5, §4.7).
type PresenceTable []bool

// Contains reports whether id is marked present in the table.
func (t PresenceTable) Contains(id uint32) bool {
	return int(id) < len(t) && t[id]
}

// PredictFast traverses n consulting a pre-populated dense presence table
// instead of a sorted row scan.
func (n *Node) PredictFast(table PresenceTable) float64 {
	cur := n
	for cur.isSplit {
		if table.Contains(cur.featureID) {
			cur = cur.yes
		} else {
			cur = cur.no
		}
	}
	return cur.delta
}

// Walk calls visit for n and every descendant, pre-order.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	if n.isSplit {
		n.yes.Walk(visit)
		n.no.Walk(visit)
	}
}

// FilterByCover prunes subtrees whose cover on m is below alpha, replacing
// each pruned subtree with a leaf holding the cover-weighted average of the
// pruned leaves' deltas (spec.md §4.5). Cover is evaluated top-down: a
// split whose own cover already clears alpha still recurses into each
// child independently, since a child can fall below alpha even when the
// parent does not.
func (n *Node) FilterByCover(m *matrix.Matrix, alpha float64) Node {
	total := float64(m.TotalCount())
	if total <= 0 {
		return *n
	}
	covers := make(map[*Node]float64)
	for _, g := range m.Groups() {
		cur := n
		mass := float64(g.Count)
		for {
			covers[cur] += mass
			if !cur.isSplit {
				break
			}
			if g.Features.Contains(cur.featureID) {
				cur = cur.yes
			} else {
				cur = cur.no
			}
		}
	}
	return pruneNode(n, covers, total, alpha)
}

func pruneNode(n *Node, covers map[*Node]float64, total, alpha float64) Node {
	if !n.isSplit {
		return *n
	}
	if covers[n]/total < alpha {
		return collapseToAverage(n, covers)
	}
	yes := pruneNode(n.yes, covers, total, alpha)
	no := pruneNode(n.no, covers, total, alpha)
	return NewSplit(n.featureID, yes, no)
}

// collapseToAverage replaces n with a single leaf whose delta is the
// cover-weighted average delta of the leaves under it.
func collapseToAverage(n *Node, covers map[*Node]float64) Node {
	var weightSum, deltaWeighted float64
	n.Walk(func(leaf *Node) {
		if leaf.isSplit {
			return
		}
		w := covers[leaf]
		weightSum += w
		deltaWeighted += w * leaf.delta
	})
	if weightSum <= 0 {
		return NewLeaf(0)
	}
	return NewLeaf(deltaWeighted / weightSum)
}
