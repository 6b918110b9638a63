// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tuners

import (
	"math/rand/v2"

	"github.com/halcyonml/autosearch/pkg/automl/pipeline"
)

// maxDuplicateRetries bounds how many times a random draw may collide with
// an already-proposed configuration before the space is declared exhausted.
const maxDuplicateRetries = 10

// RandomSearchTuner samples configurations uniformly at random, rejecting
// duplicates. It is the default tuner.
//
// Thread Safety: Not safe for concurrent use. The candidate algorithm
// drives each tuner from a single goroutine.
type RandomSearchTuner struct {
	space pipeline.Space
	rng   *rand.Rand
	seen  map[string]bool
}

// NewRandomSearchTuner creates a tuner over the given space.
func NewRandomSearchTuner(space pipeline.Space, seed uint64) Tuner {
	return &RandomSearchTuner{
		space: space,
		rng:   rand.New(rand.NewPCG(seed, 0)),
		seen:  map[string]bool{},
	}
}

// Propose draws a configuration not proposed before.
func (t *RandomSearchTuner) Propose() (pipeline.Parameters, error) {
	for attempt := 0; attempt <= maxDuplicateRetries; attempt++ {
		params := t.draw()
		sig := params.Signature()
		if !t.seen[sig] {
			t.seen[sig] = true
			return params, nil
		}
	}
	return nil, ErrNoParams
}

func (t *RandomSearchTuner) draw() pipeline.Parameters {
	params := pipeline.Parameters{}
	for _, comp := range sortedComponents(t.space) {
		ranges := t.space[comp]
		kv := make(map[string]any, len(ranges))
		for _, name := range sortedParams(ranges) {
			kv[name] = ranges[name].Sample(t.rng)
		}
		params[comp] = kv
	}
	return params
}

// AddResult is a no-op: random search does not adapt to observed scores.
func (t *RandomSearchTuner) AddResult(pipeline.Parameters, float64) {}

var _ Factory = NewRandomSearchTuner
