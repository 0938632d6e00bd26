// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedIsDeterministic(t *testing.T) {
	a := Seed(3, 86400)
	b := Seed(3, 86400)
	assert.Equal(t, a, b)
}

func TestSeedDiffersAcrossInputs(t *testing.T) {
	assert.NotEqual(t, Seed(3, 86400), Seed(4, 86400))
	assert.NotEqual(t, Seed(3, 86400), Seed(3, 3600))
}

func TestFireIsDeterministicAndVariesWithSegment(t *testing.T) {
	seed := Seed(1, 60)
	a := Fire(seed, 42)
	b := Fire(seed, 42)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Fire(seed, 43))
}

func TestReduceBitsKeepsTopBits(t *testing.T) {
	assert.Equal(t, uint32(0xFFFFFFFF), ReduceBits(0xFFFFFFFF, 32))
	assert.Equal(t, uint32(0), ReduceBits(0, 16))
	assert.Equal(t, uint32(0x1), ReduceBits(0x80000000, 1))
}

func TestReduceBitsPassesThroughOutOfRangeDimension(t *testing.T) {
	assert.Equal(t, uint32(0xABCD), ReduceBits(0xABCD, 0))
	assert.Equal(t, uint32(0xABCD), ReduceBits(0xABCD, 32))
}
