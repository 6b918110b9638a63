// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tuners provides hyperparameter proposal strategies.
//
// A Tuner owns the search over one pipeline class's hyperparameter space:
// the candidate algorithm asks it for proposals and reports observed scores
// back. Exhaustion of the space is a distinguished, fatal condition.
package tuners

import (
	"errors"
	"sort"

	"github.com/halcyonml/autosearch/pkg/automl/pipeline"
)

// ErrNoParams signals that a tuner cannot produce a further unique
// configuration. It terminates the whole search with an error.
var ErrNoParams = errors.New("tuners: cannot create a unique set of unexplored parameters, try expanding the search space")

// Tuner proposes hyperparameter configurations for one pipeline class.
type Tuner interface {
	// Propose returns the next configuration to evaluate.
	//
	// Outputs:
	//   - pipeline.Parameters: The proposed configuration.
	//   - error: ErrNoParams when the space is exhausted.
	Propose() (pipeline.Parameters, error)

	// AddResult reports the score observed for a configuration this
	// tuner proposed earlier.
	AddResult(params pipeline.Parameters, score float64)
}

// Factory builds a tuner for a hyperparameter space. The orchestrator
// derives a distinct seed per pipeline class from its own RNG.
type Factory func(space pipeline.Space, seed uint64) Tuner

// sortedComponents returns the component names of a space in stable order
// so proposals are reproducible for a given seed.
func sortedComponents(space pipeline.Space) []string {
	out := make([]string, 0, len(space))
	for name := range space {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// sortedParams returns parameter names of one component in stable order.
func sortedParams(ranges map[string]pipeline.Range) []string {
	out := make([]string, 0, len(ranges))
	for name := range ranges {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
