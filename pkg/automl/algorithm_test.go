// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package automl

import (
	"errors"
	"testing"

	"github.com/halcyonml/autosearch/pkg/automl/pipeline"
	"github.com/halcyonml/autosearch/pkg/automl/problems"
	"github.com/halcyonml/autosearch/pkg/automl/tuners"
	"github.com/halcyonml/autosearch/pkg/logging"
)

func quietLogger() *logging.Logger {
	return logging.New(logging.Config{Quiet: true})
}

func validatedConfig(t *testing.T, cfg Config) *Config {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return &cfg
}

func TestAlgorithmBatchZeroIsBaseline(t *testing.T) {
	cfg := validatedConfig(t, Config{Problem: problems.Binary, MaxPipelines: 10})
	alg := NewIterativeAlgorithm(cfg, 4, NewRNG(1))

	batch, done, err := alg.NextBatch()
	if err != nil || done {
		t.Fatalf("NextBatch = done %v, err %v", done, err)
	}
	if len(batch) != 1 {
		t.Fatalf("batch 0 has %d candidates, want 1", len(batch))
	}
	cand := batch[0]
	if cand.Class.Name() != "Mode Baseline Binary Classification Pipeline" {
		t.Errorf("batch 0 candidate = %s", cand.Class.Name())
	}
	if cand.Parameters["Baseline Classifier"]["strategy"] != "random_weighted" {
		t.Errorf("baseline parameters = %v", cand.Parameters)
	}
}

func TestAlgorithmProposesOnePerClass(t *testing.T) {
	cfg := validatedConfig(t, Config{Problem: problems.Binary, MaxPipelines: 10})
	alg := NewIterativeAlgorithm(cfg, 6, NewRNG(1))
	if _, _, err := alg.NextBatch(); err != nil { // baseline
		t.Fatal(err)
	}

	batch, done, err := alg.NextBatch()
	if err != nil || done {
		t.Fatalf("NextBatch = done %v, err %v", done, err)
	}
	if len(batch) != len(cfg.AllowedPipelines) {
		t.Fatalf("batch has %d candidates, want %d", len(batch), len(cfg.AllowedPipelines))
	}
	for _, cand := range batch {
		for _, sel := range cand.Class.FeatureSelectorNames() {
			if got := cand.Parameters[sel]["number_features"]; got != 6 {
				t.Errorf("%s number_features = %v, want 6", cand.Class.Name(), got)
			}
		}
	}
}

func TestAlgorithmMaxBatches(t *testing.T) {
	cfg := validatedConfig(t, Config{Problem: problems.Binary, MaxPipelines: 100})
	alg := NewIterativeAlgorithm(cfg, 4, NewRNG(1))
	alg.SetMaxBatches(1)

	if _, done, _ := alg.NextBatch(); done { // baseline
		t.Fatal("baseline batch should not be done")
	}
	if _, done, err := alg.NextBatch(); done || err != nil {
		t.Fatalf("first proposal batch: done %v, err %v", done, err)
	}
	if _, done, _ := alg.NextBatch(); !done {
		t.Fatal("algorithm should exhaust after the batch cap")
	}
}

func TestAlgorithmSurfacesTunerExhaustion(t *testing.T) {
	tiny := &pipeline.Class{
		PipelineName: "Tiny Pipeline",
		Family:       pipeline.FamilyLinear,
		Supported:    []problems.ProblemType{problems.Binary},
		Components: []pipeline.ComponentSpec{
			{
				Name:   "Baseline Classifier",
				Ranges: map[string]pipeline.Range{"strategy": pipeline.Choice{Options: []any{"mode"}}},
				Make:   pipeline.NewBaselineClassifier,
			},
		},
	}
	cfg := validatedConfig(t, Config{
		Problem:          problems.Binary,
		MaxPipelines:     100,
		AllowedPipelines: []*pipeline.Class{tiny},
	})
	alg := NewIterativeAlgorithm(cfg, 4, NewRNG(1))

	if _, _, err := alg.NextBatch(); err != nil { // baseline
		t.Fatal(err)
	}
	if _, _, err := alg.NextBatch(); err != nil { // the one point in the space
		t.Fatal(err)
	}
	_, _, err := alg.NextBatch()
	if !errors.Is(err, tuners.ErrNoParams) {
		t.Fatalf("exhausted tuner should surface ErrNoParams, got %v", err)
	}
}

func TestAlgorithmNotifyBaselineIsNoOp(t *testing.T) {
	cfg := validatedConfig(t, Config{Problem: problems.Binary, MaxPipelines: 10})
	alg := NewIterativeAlgorithm(cfg, 4, NewRNG(1))
	batch, _, _ := alg.NextBatch()
	alg.NotifyResult(batch[0], 0.5) // baseline has no owning tuner
}
