// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tuners

import (
	"github.com/halcyonml/autosearch/pkg/automl/pipeline"
)

// gridPointsPerRange is how many representative values each continuous
// range contributes to the grid.
const gridPointsPerRange = 5

// GridSearchTuner enumerates the cartesian product of discretized
// parameter ranges in a fixed order. Exhausting the grid raises
// ErrNoParams.
type GridSearchTuner struct {
	dims []gridDim
	idx  []int
	done bool
}

type gridDim struct {
	component string
	param     string
	values    []any
}

// NewGridSearchTuner creates a grid tuner over the given space.
func NewGridSearchTuner(space pipeline.Space, _ uint64) Tuner {
	t := &GridSearchTuner{}
	for _, comp := range sortedComponents(space) {
		ranges := space[comp]
		for _, name := range sortedParams(ranges) {
			values := ranges[name].Grid(gridPointsPerRange)
			if len(values) == 0 {
				continue
			}
			t.dims = append(t.dims, gridDim{component: comp, param: name, values: values})
		}
	}
	t.idx = make([]int, len(t.dims))
	t.done = len(t.dims) == 0
	return t
}

// Propose returns the next grid point.
func (t *GridSearchTuner) Propose() (pipeline.Parameters, error) {
	if t.done {
		return nil, ErrNoParams
	}
	params := pipeline.Parameters{}
	for i, d := range t.dims {
		kv := params[d.component]
		if kv == nil {
			kv = map[string]any{}
			params[d.component] = kv
		}
		kv[d.param] = d.values[t.idx[i]]
	}
	t.advance()
	return params, nil
}

func (t *GridSearchTuner) advance() {
	if len(t.idx) == 0 {
		t.done = true
		return
	}
	for i := len(t.idx) - 1; i >= 0; i-- {
		t.idx[i]++
		if t.idx[i] < len(t.dims[i].values) {
			return
		}
		t.idx[i] = 0
	}
	t.done = true
}

// AddResult is a no-op: grid search does not adapt to observed scores.
func (t *GridSearchTuner) AddResult(pipeline.Parameters, float64) {}

var _ Factory = NewGridSearchTuner
