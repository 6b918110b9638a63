// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package automl

import (
	"strings"
	"testing"
	"time"

	"github.com/halcyonml/autosearch/pkg/automl/objectives"
	"github.com/halcyonml/autosearch/pkg/automl/problems"
)

func TestValidateFillsDefaults(t *testing.T) {
	cfg := Config{Problem: problems.Binary, Logger: quietLogger()}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Objective == nil || cfg.Objective.Name() != "Log Loss Binary" {
		t.Errorf("default objective = %v", cfg.Objective)
	}
	if len(cfg.AdditionalObjectives) == 0 {
		t.Error("additional objectives should default")
	}
	if cfg.MaxPipelines != DefaultMaxPipelines {
		t.Errorf("MaxPipelines = %d, want %d", cfg.MaxPipelines, DefaultMaxPipelines)
	}
	if cfg.Workers != 1 {
		t.Errorf("Workers = %d, want 1", cfg.Workers)
	}
	if len(cfg.AllowedPipelines) == 0 {
		t.Error("allowed pipelines should resolve from the registry")
	}
	if cfg.TunerFactory == nil {
		t.Error("tuner factory should default")
	}
}

func TestValidateTimeBudgetSkipsPipelineDefault(t *testing.T) {
	cfg := Config{Problem: problems.Binary, MaxTime: time.Minute, Logger: quietLogger()}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.MaxPipelines != 0 {
		t.Errorf("a time budget alone should leave the count unbounded, got %d", cfg.MaxPipelines)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"invalid problem", Config{}},
		{"incompatible objective", Config{Problem: problems.Regression, Objective: objectives.LogLossBinary{}}},
		{"incompatible additional", Config{Problem: problems.Binary, AdditionalObjectives: []objectives.Objective{objectives.R2{}}}},
		{"primary duplicated", Config{Problem: problems.Binary, AdditionalObjectives: []objectives.Objective{objectives.LogLossBinary{}}}},
		{"negative pipelines", Config{Problem: problems.Binary, MaxPipelines: -1}},
		{"negative time", Config{Problem: problems.Binary, MaxTime: -time.Second}},
		{"negative patience", Config{Problem: problems.Binary, Patience: -1}},
		{"tolerance out of range", Config{Problem: problems.Binary, Patience: 1, Tolerance: 1.5}},
		{"tolerance without patience", Config{Problem: problems.Binary, Tolerance: 0.1}},
		{"negative workers", Config{Problem: problems.Binary, Workers: -2}},
		{"unknown family", Config{Problem: problems.Binary, AllowedFamilies: []string{"nope"}}},
		{"thresholds on regression", Config{Problem: problems.Regression, OptimizeThresholds: true}},
		{"thresholds without optimizer", Config{Problem: problems.Binary, Objective: objectives.AccuracyBinary{}, OptimizeThresholds: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logger = quietLogger()
			if err := tc.cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestValidateThresholdOptimizer(t *testing.T) {
	cfg := Config{
		Problem:            problems.Binary,
		Objective:          objectives.NewFraudCost(),
		OptimizeThresholds: true,
		Logger:             quietLogger(),
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fraud cost supports threshold tuning: %v", err)
	}
}

func TestParseErrorPolicy(t *testing.T) {
	for s, want := range map[string]ErrorPolicy{
		"": Raise, "raise": Raise, "Raise": Raise, "contain": Contain, " CONTAIN ": Contain,
	} {
		got, err := ParseErrorPolicy(s)
		if err != nil || got != want {
			t.Errorf("ParseErrorPolicy(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseErrorPolicy("explode"); err == nil {
		t.Error("unknown policy should error")
	}
}

func TestConfigString(t *testing.T) {
	cfg := Config{Problem: problems.Binary, Patience: 3, Tolerance: 0.05, Logger: quietLogger()}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	s := cfg.String()
	for _, want := range []string{
		"AutoML Search",
		"Problem Type: Binary Classification",
		"Objective: Log Loss Binary",
		"Patience: 3",
		"Error Policy: raise",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("config summary missing %q:\n%s", want, s)
		}
	}
}
