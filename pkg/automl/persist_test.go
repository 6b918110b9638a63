// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package automl

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonml/autosearch/pkg/automl/problems"
)

// TestSaveWritesAllKeys verifies one Save produces the snapshot, random
// state, and metadata entries.
func TestSaveWritesAllKeys(t *testing.T) {
	s := newTestSearch(t, Config{Problem: problems.Binary, MaxPipelines: 1, Seed: 5})
	s.store.Record(storedResult(0, "A", 0.5))

	dir := filepath.Join(t.TempDir(), "store")
	require.NoError(t, s.Save(dir))

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	require.NoError(t, err)
	defer db.Close()

	err = db.View(func(txn *badger.Txn) error {
		for _, key := range []string{keySnapshot, keyRNG, keyMeta} {
			if _, err := txn.Get([]byte(key)); err != nil {
				t.Errorf("key %s missing: %v", key, err)
			}
		}
		return nil
	})
	require.NoError(t, err)
}

// TestLoadRestoresRandomTrajectory verifies a loaded searcher continues
// the exact random sequence the saved one would have produced.
func TestLoadRestoresRandomTrajectory(t *testing.T) {
	cfg := Config{Problem: problems.Binary, MaxPipelines: 1, Seed: 5}
	saved := newTestSearch(t, cfg)
	saved.rng.Uint64() // advance past the seed state
	saved.rng.Uint64()

	dir := filepath.Join(t.TempDir(), "store")
	require.NoError(t, saved.Save(dir))

	restored := newTestSearch(t, cfg)
	require.NoError(t, restored.Load(dir))

	for i := 0; i < 8; i++ {
		assert.Equal(t, saved.rng.Uint64(), restored.rng.Uint64(), "draw %d diverged", i)
	}
}

// TestLoadPreservesNaNScores verifies contained candidates survive the
// JSON round trip through the store.
func TestLoadPreservesNaNScores(t *testing.T) {
	cfg := Config{Problem: problems.Binary, MaxPipelines: 1, Seed: 2}
	s := newTestSearch(t, cfg)
	s.store.Record(storedResult(0, "A", math.NaN()))
	s.searched.Store(true)

	dir := filepath.Join(t.TempDir(), "store")
	require.NoError(t, s.Save(dir))

	restored := newTestSearch(t, cfg)
	require.NoError(t, restored.Load(dir))
	assert.True(t, restored.HasSearched())

	r, ok := restored.store.Get(0)
	require.True(t, ok)
	assert.True(t, math.IsNaN(r.Score))
	assert.Equal(t, 8, r.CVData[0].NumTraining)
}

// TestLoadEmptyStore verifies loading a directory with no saved search
// fails cleanly.
func TestLoadEmptyStore(t *testing.T) {
	s := newTestSearch(t, Config{Problem: problems.Binary, MaxPipelines: 1})
	err := s.Load(filepath.Join(t.TempDir(), "empty"))
	require.Error(t, err)
	assert.False(t, s.HasSearched())
}
