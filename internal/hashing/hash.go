// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hashing implements the featurizer's rule-firing hash, H(seed(V, W),
// segment_id) (spec.md §4.7), built on blake2b rather than a hand-rolled
// mix function.
package hashing

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Seed derives the 64-bit keying material for a (min_visits, window) rule,
// spec.md §4.7's "seed(V, W)".
func Seed(minVisits uint32, window uint64) uint64 {
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[0:4], minVisits)
	binary.BigEndian.PutUint64(buf[4:12], window)
	sum := blake2b.Sum256(buf[:])
	return binary.BigEndian.Uint64(sum[:8])
}

// Fire hashes a rule seed and a segment id into the 32-bit feature space,
// spec.md §4.7's H(seed(V, W), segment_id).
func Fire(seed uint64, segmentID uint32) uint32 {
	var buf [12]byte
	binary.BigEndian.PutUint64(buf[0:8], seed)
	binary.BigEndian.PutUint32(buf[8:12], segmentID)
	sum := blake2b.Sum256(buf[:])
	return binary.BigEndian.Uint32(sum[:4])
}

// ReduceBits folds a 32-bit hash down to the top d bits, d in [8, 32]
// (spec.md §4.7 "reduce to the target dimension by taking the top D bits").
func ReduceBits(h uint32, d int) uint32 {
	if d <= 0 || d >= 32 {
		return h
	}
	return h >> uint(32-d)
}
