// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package automl

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Storage keys for a persisted search.
const (
	keySnapshot = "autosearch/results"
	keyRNG      = "autosearch/rng"
	keyMeta     = "autosearch/meta"
)

// persistMeta guards against loading a store saved by an incompatible
// search configuration.
type persistMeta struct {
	Problem   string `json:"problem"`
	Objective string `json:"objective"`
}

// Save writes the results store, search order, and random state to a
// BadgerDB directory at path. Safe to call between runs; a later Load
// resumes the search on the same trajectory.
func (s *AutoMLSearch) Save(path string) error {
	db, err := openStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	snapshot, err := json.Marshal(s.store.Snapshot())
	if err != nil {
		return fmt.Errorf("automl: encoding results: %w", err)
	}
	rngState, err := s.rng.MarshalBinary()
	if err != nil {
		return fmt.Errorf("automl: encoding random state: %w", err)
	}
	meta, err := json.Marshal(persistMeta{
		Problem:   s.cfg.Problem.String(),
		Objective: s.cfg.Objective.Name(),
	})
	if err != nil {
		return fmt.Errorf("automl: encoding metadata: %w", err)
	}

	return db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keySnapshot), snapshot); err != nil {
			return err
		}
		if err := txn.Set([]byte(keyRNG), rngState); err != nil {
			return err
		}
		return txn.Set([]byte(keyMeta), meta)
	})
}

// Load replaces the searcher's results and random state with a
// previously saved store. The search configuration must match the one
// that saved it.
func (s *AutoMLSearch) Load(path string) error {
	if s.running.Load() {
		return ErrSearchInProgress
	}
	db, err := openStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	var snapshot Results
	var rngState []byte
	err = db.View(func(txn *badger.Txn) error {
		raw, err := getValue(txn, keyMeta)
		if err != nil {
			return err
		}
		var meta persistMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return fmt.Errorf("automl: decoding metadata: %w", err)
		}
		if meta.Problem != s.cfg.Problem.String() || meta.Objective != s.cfg.Objective.Name() {
			return fmt.Errorf("automl: store was saved for %s/%s, searcher is %s/%s",
				meta.Problem, meta.Objective, s.cfg.Problem, s.cfg.Objective.Name())
		}
		raw, err = getValue(txn, keySnapshot)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			return fmt.Errorf("automl: decoding results: %w", err)
		}
		rngState, err = getValue(txn, keyRNG)
		return err
	})
	if err != nil {
		return err
	}

	if err := s.rng.UnmarshalBinary(rngState); err != nil {
		return fmt.Errorf("automl: restoring random state: %w", err)
	}
	s.store.restore(snapshot)
	s.searched.Store(len(snapshot.SearchOrder) > 0)
	return nil
}

func openStore(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("automl: opening store at %s: %w", path, err)
	}
	return db, nil
}

func getValue(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("automl: reading %s: %w", key, err)
	}
	return item.ValueCopy(nil)
}
