// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadAvroCheckpointRoundTrips(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put(1, Profile{Segments: []Segment{{ID: 1, Timestamps: []uint64{10, 20}}}}))
	require.NoError(t, s.Put(2, Profile{Segments: []Segment{{ID: 2, Timestamps: []uint64{30}}}}))

	path := filepath.Join(t.TempDir(), "checkpoint.avro")
	require.NoError(t, s.WriteAvroCheckpoint(path))
	assert.FileExists(t, path)
	assert.FileExists(t, path+".meta.json")

	meta, err := os.ReadFile(path + ".meta.json")
	require.NoError(t, err)
	var m checkpointMeta
	require.NoError(t, json.Unmarshal(meta, &m))
	assert.Equal(t, "avro", m.Format)

	loaded, err := ReadAvroCheckpoint(path)
	require.NoError(t, err)
	require.Contains(t, loaded, uint64(1))
	require.Contains(t, loaded, uint64(2))
	assert.Equal(t, []uint64{10, 20}, loaded[1].Segments[0].Timestamps)
	assert.Equal(t, []uint64{30}, loaded[2].Segments[0].Timestamps)
}

func TestWriteAvroCheckpointOfEmptyStoreProducesValidEmptyFile(t *testing.T) {
	s := openTestStore(t)
	path := filepath.Join(t.TempDir(), "empty.avro")
	require.NoError(t, s.WriteAvroCheckpoint(path))

	loaded, err := ReadAvroCheckpoint(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
