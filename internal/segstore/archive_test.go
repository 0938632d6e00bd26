// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSweepWithNoBucketIsANoOp checks that an Archiver with the cold-storage
// tier disabled (empty Bucket) never touches the network or the directory,
// since Sweep short-circuits before constructing any S3 request.
func TestSweepWithNoBucketIsANoOp(t *testing.T) {
	a := &Archiver{cfg: ArchiveConfig{}}
	n, err := a.Sweep(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, n)
}
