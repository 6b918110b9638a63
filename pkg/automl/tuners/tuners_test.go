// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tuners

import (
	"errors"
	"testing"

	"github.com/halcyonml/autosearch/pkg/automl/pipeline"
)

func testSpace() pipeline.Space {
	return pipeline.Space{
		"Estimator": {
			"k":      pipeline.IntRange{Min: 1, Max: 5},
			"weight": pipeline.Choice{Options: []any{"uniform", "distance"}},
		},
	}
}

func TestRandomSearchProposesWithinRanges(t *testing.T) {
	tuner := NewRandomSearchTuner(testSpace(), 11)
	for i := 0; i < 5; i++ {
		params, err := tuner.Propose()
		if err != nil {
			t.Fatalf("Propose %d error: %v", i, err)
		}
		kv := params["Estimator"]
		k, ok := kv["k"].(int)
		if !ok || k < 1 || k > 5 {
			t.Errorf("k = %v out of range", kv["k"])
		}
		w, ok := kv["weight"].(string)
		if !ok || (w != "uniform" && w != "distance") {
			t.Errorf("weight = %v", kv["weight"])
		}
	}
}

func TestRandomSearchNeverRepeats(t *testing.T) {
	tuner := NewRandomSearchTuner(testSpace(), 5)
	seen := map[string]bool{}
	for {
		params, err := tuner.Propose()
		if errors.Is(err, ErrNoParams) {
			break
		}
		if err != nil {
			t.Fatalf("Propose error: %v", err)
		}
		sig := params.Signature()
		if seen[sig] {
			t.Fatalf("duplicate proposal %s", sig)
		}
		seen[sig] = true
	}
	if len(seen) == 0 {
		t.Fatal("tuner proposed nothing before exhaustion")
	}
}

func TestRandomSearchDeterministic(t *testing.T) {
	a := NewRandomSearchTuner(testSpace(), 42)
	b := NewRandomSearchTuner(testSpace(), 42)
	for i := 0; i < 3; i++ {
		pa, ea := a.Propose()
		pb, eb := b.Propose()
		if ea != nil || eb != nil {
			t.Fatalf("Propose error: %v %v", ea, eb)
		}
		if pa.Signature() != pb.Signature() {
			t.Fatalf("same seed diverged at proposal %d", i)
		}
	}
}

func TestRandomSearchExhaustsTinySpace(t *testing.T) {
	space := pipeline.Space{
		"C": {"flag": pipeline.Choice{Options: []any{true}}},
	}
	tuner := NewRandomSearchTuner(space, 1)
	if _, err := tuner.Propose(); err != nil {
		t.Fatalf("first proposal should succeed: %v", err)
	}
	if _, err := tuner.Propose(); !errors.Is(err, ErrNoParams) {
		t.Fatalf("second proposal should exhaust, got %v", err)
	}
}

func TestGridSearchEnumerates(t *testing.T) {
	space := pipeline.Space{
		"E": {
			"a": pipeline.Choice{Options: []any{1, 2}},
			"b": pipeline.Choice{Options: []any{"x", "y"}},
		},
	}
	tuner := NewGridSearchTuner(space, 0)
	seen := map[string]bool{}
	for {
		params, err := tuner.Propose()
		if errors.Is(err, ErrNoParams) {
			break
		}
		if err != nil {
			t.Fatalf("Propose error: %v", err)
		}
		seen[params.Signature()] = true
	}
	if len(seen) != 4 {
		t.Fatalf("grid enumerated %d points, want 4", len(seen))
	}
}

func TestGridSearchEmptySpace(t *testing.T) {
	tuner := NewGridSearchTuner(pipeline.Space{}, 0)
	if _, err := tuner.Propose(); !errors.Is(err, ErrNoParams) {
		t.Fatalf("empty space should exhaust immediately, got %v", err)
	}
}

func TestAddResultIsSafe(t *testing.T) {
	tuner := NewRandomSearchTuner(testSpace(), 9)
	params, _ := tuner.Propose()
	tuner.AddResult(params, 0.5) // must not panic or alter proposals
}
