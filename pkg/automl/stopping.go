// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package automl

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// SearchBudget tracks resource consumption during a search and decides
// when to stop. Limits compose: the search halts as soon as any
// configured limit trips.
//
// Every limit is checked between candidates, never mid-candidate, so a
// search always finishes the candidate it started. In particular a zero
// time budget still evaluates at least one candidate.
//
// Thread Safety: Safe for concurrent use.
type SearchBudget struct {
	maxPipelines int
	maxTime      time.Duration
	patience     int
	tolerance    float64

	startTime time.Time
	evaluated int64

	// Plateau tracking (protected by mu). Scores are normalized so that
	// lower is always better before comparison.
	mu            sync.Mutex
	haveBest      bool
	bestNormScore float64
	sinceImproved int
	exhausted     bool
	exhaustedBy   string
}

// NewSearchBudget starts the clock for one run.
func NewSearchBudget(cfg *Config) *SearchBudget {
	return &SearchBudget{
		maxPipelines: cfg.MaxPipelines,
		maxTime:      cfg.MaxTime,
		patience:     cfg.Patience,
		tolerance:    cfg.Tolerance,
		startTime:    time.Now(),
	}
}

// Evaluated returns how many candidates have been recorded.
func (b *SearchBudget) Evaluated() int64 {
	return atomic.LoadInt64(&b.evaluated)
}

// Elapsed returns time since the run started.
func (b *SearchBudget) Elapsed() time.Duration {
	return time.Since(b.startTime)
}

// RecordResult feeds one candidate's mean score into the budget.
// greaterIsBetter orients the plateau comparison; NaN scores never
// count as improvement.
func (b *SearchBudget) RecordResult(score float64, greaterIsBetter bool) {
	atomic.AddInt64(&b.evaluated, 1)
	if b.patience == 0 {
		return
	}

	norm := score
	if greaterIsBetter {
		norm = -score
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case math.IsNaN(norm):
		b.sinceImproved++
	case !b.haveBest:
		b.haveBest = true
		b.bestNormScore = norm
		b.sinceImproved = 0
	case norm < b.bestNormScore-b.tolerance*math.Abs(b.bestNormScore):
		b.bestNormScore = norm
		b.sinceImproved = 0
	default:
		b.sinceImproved++
	}
}

// Exhausted reports whether any limit has tripped.
func (b *SearchBudget) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.checkLimitsLocked()
}

// ExhaustedBy names the limit that stopped the search, or "" while the
// budget is still open.
func (b *SearchBudget) ExhaustedBy() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkLimitsLocked()
	return b.exhaustedBy
}

func (b *SearchBudget) checkLimitsLocked() bool {
	if b.exhausted {
		return true
	}
	if b.maxTime > 0 && time.Since(b.startTime) >= b.maxTime {
		b.exhausted = true
		b.exhaustedBy = "time"
		return true
	}
	if b.maxPipelines > 0 && atomic.LoadInt64(&b.evaluated) >= int64(b.maxPipelines) {
		b.exhausted = true
		b.exhaustedBy = "pipelines"
		return true
	}
	if b.patience > 0 && b.sinceImproved >= b.patience {
		b.exhausted = true
		b.exhaustedBy = "patience"
		return true
	}
	return false
}

// String returns a human-readable budget status.
func (b *SearchBudget) String() string {
	status := ""
	if b.Exhausted() {
		status = fmt.Sprintf(" [EXHAUSTED by %s]", b.ExhaustedBy())
	}
	return fmt.Sprintf("Budget{pipelines=%d/%d, time=%v/%v, patience=%d}%s",
		b.Evaluated(), b.maxPipelines,
		b.Elapsed().Round(time.Millisecond), b.maxTime,
		b.patience, status)
}
