// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package automl

import (
	"fmt"

	"github.com/halcyonml/autosearch/pkg/automl/pipeline"
	"github.com/halcyonml/autosearch/pkg/automl/problems"
	"github.com/halcyonml/autosearch/pkg/automl/tuners"
)

// Algorithm proposes candidate batches for the control loop.
//
// NextBatch returns a tagged outcome: a non-empty batch to evaluate,
// done=true when the algorithm has nothing left to propose (a normal
// end of search), or an error that aborts the run.
type Algorithm interface {
	NextBatch() (batch []Candidate, done bool, err error)

	// NotifyResult feeds a candidate's mean score back so adaptive
	// tuners can steer later proposals.
	NotifyResult(cand Candidate, score float64)
}

// IterativeAlgorithm is the default batch strategy: batch 0 holds
// exactly one baseline candidate, and every later batch holds one tuner
// proposal per allowed pipeline class.
//
// Thread Safety: Not safe for concurrent use. The control loop drives
// it from a single goroutine.
type IterativeAlgorithm struct {
	problem     problems.ProblemType
	classes     []*pipeline.Class
	tuners      map[string]tuners.Tuner
	numFeatures int

	// maxBatches caps the post-baseline rounds, zero meaning unlimited.
	maxBatches int

	batch int
}

// NewIterativeAlgorithm builds the algorithm for a validated config.
//
// Inputs:
//   - cfg: Validated search config; AllowedPipelines must be resolved.
//   - numFeatures: Input width, injected into feature-selection
//     components' proposals.
//   - rng: Seed source for the per-class tuners.
//
// Outputs:
//   - *IterativeAlgorithm: Ready for NextBatch.
func NewIterativeAlgorithm(cfg *Config, numFeatures int, rng *RNG) *IterativeAlgorithm {
	a := &IterativeAlgorithm{
		problem:     cfg.Problem,
		classes:     cfg.AllowedPipelines,
		tuners:      make(map[string]tuners.Tuner, len(cfg.AllowedPipelines)),
		numFeatures: numFeatures,
	}
	for _, class := range cfg.AllowedPipelines {
		a.tuners[class.Name()] = cfg.TunerFactory(class.Space(), rng.Uint64())
	}
	return a
}

// SetMaxBatches caps how many post-baseline batches the algorithm
// proposes before declaring normal exhaustion.
func (a *IterativeAlgorithm) SetMaxBatches(n int) { a.maxBatches = n }

// NextBatch returns the next candidate batch.
func (a *IterativeAlgorithm) NextBatch() ([]Candidate, bool, error) {
	if a.batch == 0 {
		a.batch++
		class, params := pipeline.Baseline(a.problem)
		return []Candidate{{Class: class, Parameters: params}}, false, nil
	}
	if len(a.classes) == 0 {
		return nil, true, nil
	}
	if a.maxBatches > 0 && a.batch > a.maxBatches {
		return nil, true, nil
	}
	a.batch++

	batch := make([]Candidate, 0, len(a.classes))
	for _, class := range a.classes {
		params, err := a.tuners[class.Name()].Propose()
		if err != nil {
			// Includes tuners.ErrNoParams: an exhausted space is a
			// configuration problem the caller must see.
			return nil, false, fmt.Errorf("automl: proposing for %s: %w", class.Name(), err)
		}
		a.injectNumberFeatures(class, params)
		batch = append(batch, Candidate{Class: class, Parameters: params})
	}
	return batch, false, nil
}

// injectNumberFeatures tells feature-selection components how wide the
// input is, since that is a property of the dataset rather than a
// tunable range.
func (a *IterativeAlgorithm) injectNumberFeatures(class *pipeline.Class, params pipeline.Parameters) {
	for _, name := range class.FeatureSelectorNames() {
		kv := params[name]
		if kv == nil {
			kv = map[string]any{}
			params[name] = kv
		}
		kv["number_features"] = a.numFeatures
	}
}

// NotifyResult routes the score to the tuner that proposed the
// candidate. Baseline candidates have no owning tuner and are ignored.
func (a *IterativeAlgorithm) NotifyResult(cand Candidate, score float64) {
	if t, ok := a.tuners[cand.Class.Name()]; ok {
		t.AddResult(cand.Parameters, score)
	}
}

var _ Algorithm = (*IterativeAlgorithm)(nil)
