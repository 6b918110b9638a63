// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package automl

import (
	"math"
	"sort"
	"sync"
)

// resultsStore holds every evaluated candidate, keyed by id, plus the
// evaluation order. Rankings are computed on demand so the store never
// has to re-sort on write.
//
// Thread Safety: Safe for concurrent use.
type resultsStore struct {
	mu      sync.RWMutex
	results map[int]PipelineResult
	order   []int
	nextID  int
}

func newResultsStore() *resultsStore {
	return &resultsStore{results: map[int]PipelineResult{}}
}

// NextID reserves the next candidate id.
func (s *resultsStore) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

// Record stores a result and appends it to the search order.
func (s *resultsStore) Record(r PipelineResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.ID] = cloneResult(r)
	s.order = append(s.order, r.ID)
	if r.ID >= s.nextID {
		s.nextID = r.ID + 1
	}
}

// Get returns the result for an id.
func (s *resultsStore) Get(id int) (PipelineResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return PipelineResult{}, false
	}
	return cloneResult(r), true
}

// Len returns how many results are recorded.
func (s *resultsStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Contains reports whether an identical candidate (same pipeline name
// and parameter signature) was already recorded.
func (s *resultsStore) Contains(name, paramSignature string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results {
		if r.PipelineName == name && r.Parameters.Signature() == paramSignature {
			return true
		}
	}
	return false
}

// Snapshot returns a deep copy of everything recorded so far. Mutating
// the copy never affects the store.
func (s *resultsStore) Snapshot() Results {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Results{
		PipelineResults: make(map[int]PipelineResult, len(s.results)),
		SearchOrder:     append([]int(nil), s.order...),
	}
	for id, r := range s.results {
		out.PipelineResults[id] = cloneResult(r)
	}
	return out
}

// Rankings returns results sorted best-first by mean score.
//
// Inputs:
//   - greaterIsBetter: Orientation of the primary objective.
//   - dedup: When true, only the best result per pipeline name is kept.
//
// Outputs:
//   - []PipelineResult: Stable order; NaN scores sort last.
func (s *resultsStore) Rankings(greaterIsBetter, dedup bool) []PipelineResult {
	s.mu.RLock()
	ranked := make([]PipelineResult, 0, len(s.order))
	for _, id := range s.order {
		ranked = append(ranked, cloneResult(s.results[id]))
	}
	s.mu.RUnlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Score, ranked[j].Score
		switch {
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		case greaterIsBetter:
			return a > b
		default:
			return a < b
		}
	})
	if !dedup {
		return ranked
	}
	seen := make(map[string]bool, len(ranked))
	out := ranked[:0]
	for _, r := range ranked {
		if seen[r.PipelineName] {
			continue
		}
		seen[r.PipelineName] = true
		out = append(out, r)
	}
	return out
}

// Best returns the top-ranked result.
func (s *resultsStore) Best(greaterIsBetter bool) (PipelineResult, bool) {
	ranked := s.Rankings(greaterIsBetter, false)
	if len(ranked) == 0 {
		return PipelineResult{}, false
	}
	return ranked[0], true
}

// restore replaces the store contents from a persisted snapshot.
func (s *resultsStore) restore(snap Results) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = make(map[int]PipelineResult, len(snap.PipelineResults))
	s.order = append([]int(nil), snap.SearchOrder...)
	s.nextID = 0
	for id, r := range snap.PipelineResults {
		s.results[id] = cloneResult(r)
		if id >= s.nextID {
			s.nextID = id + 1
		}
	}
}

func cloneResult(r PipelineResult) PipelineResult {
	out := r
	out.Parameters = r.Parameters.Clone()
	out.CVData = make([]FoldData, len(r.CVData))
	for i, fd := range r.CVData {
		c := fd
		if fd.AllObjectiveScores != nil {
			c.AllObjectiveScores = make(map[string]float64, len(fd.AllObjectiveScores))
			for k, v := range fd.AllObjectiveScores {
				c.AllObjectiveScores[k] = v
			}
		}
		if fd.BinaryClassificationThreshold != nil {
			t := *fd.BinaryClassificationThreshold
			c.BinaryClassificationThreshold = &t
		}
		out.CVData[i] = c
	}
	return out
}
