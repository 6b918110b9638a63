// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package automl

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/halcyonml/autosearch/pkg/automl/objectives"
	"github.com/halcyonml/autosearch/pkg/automl/pipeline"
	"github.com/halcyonml/autosearch/pkg/automl/problems"
	"github.com/halcyonml/autosearch/pkg/automl/split"
	"github.com/halcyonml/autosearch/pkg/automl/tuners"
	"github.com/halcyonml/autosearch/pkg/logging"
)

// ErrorPolicy decides what happens when a candidate fails to fit or
// score.
type ErrorPolicy int

const (
	// Raise aborts the search on the first candidate failure. The
	// default.
	Raise ErrorPolicy = iota

	// Contain records NaN scores for the failed folds and keeps
	// searching.
	Contain
)

// String returns "raise" or "contain".
func (p ErrorPolicy) String() string {
	if p == Contain {
		return "contain"
	}
	return "raise"
}

// ParseErrorPolicy maps a config string to a policy.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raise":
		return Raise, nil
	case "contain":
		return Contain, nil
	}
	return Raise, fmt.Errorf("automl: unknown error policy %q", s)
}

// Config holds every knob of a search. Zero values select defaults;
// Validate fills them in and rejects contradictions eagerly, before any
// data is touched.
type Config struct {
	// Problem selects binary, multiclass, or regression.
	Problem problems.ProblemType

	// Objective is the primary objective being optimized. Nil selects
	// the problem type's default.
	Objective objectives.Objective

	// AdditionalObjectives are scored on every fold alongside the
	// primary objective but never drive the search. Nil selects the
	// compatible defaults for the problem type.
	AdditionalObjectives []objectives.Objective

	// MaxPipelines caps how many candidates are evaluated. Zero with no
	// MaxTime means DefaultMaxPipelines; zero with a MaxTime means
	// unbounded count.
	MaxPipelines int

	// MaxTime is the wall-clock budget. Checked between candidates, so
	// at least one candidate is always evaluated.
	MaxTime time.Duration

	// Patience stops the search after this many consecutive candidates
	// without meaningful improvement. Zero disables plateau stopping.
	Patience int

	// Tolerance is the minimum relative improvement that resets the
	// patience counter. Only meaningful with Patience set.
	Tolerance float64

	// AllowedFamilies restricts the candidate pipeline classes to the
	// named model families. Empty means all registered classes for the
	// problem type.
	AllowedFamilies []string

	// AllowedPipelines overrides the registry entirely. Takes precedence
	// over AllowedFamilies.
	AllowedPipelines []*pipeline.Class

	// Splitter plans evaluation folds. Nil selects stratified k-fold for
	// classification and plain k-fold for regression, or a single
	// holdout split above LargeDatasetThreshold.
	Splitter split.Splitter

	// TunerFactory builds one tuner per pipeline class. Nil selects
	// random search.
	TunerFactory tuners.Factory

	// OptimizeThresholds enables decision-threshold tuning for binary
	// problems whose primary objective supports it.
	OptimizeThresholds bool

	// ErrorPolicy decides whether candidate failures abort the search.
	ErrorPolicy ErrorPolicy

	// Workers is the fold-evaluation parallelism per candidate. Zero or
	// one keeps evaluation sequential.
	Workers int

	// Seed drives every random decision in the search.
	Seed uint64

	// Logger receives search progress. Nil selects the process default.
	Logger *logging.Logger

	// StartIterationCallback fires before each candidate is evaluated.
	StartIterationCallback func(c Candidate)

	// AddResultCallback fires after each candidate's result is recorded.
	AddResultCallback func(r PipelineResult)
}

// Validate normalizes the config in place and reports the first
// contradiction found.
func (c *Config) Validate() error {
	if !c.Problem.Valid() {
		return fmt.Errorf("automl: invalid problem type %q", c.Problem)
	}
	if c.Objective == nil {
		c.Objective = objectives.Default(c.Problem)
	}
	if !objectives.Compatible(c.Objective, c.Problem) {
		return fmt.Errorf("automl: objective %s does not support %s problems",
			c.Objective.Name(), c.Problem)
	}
	if c.AdditionalObjectives == nil {
		c.AdditionalObjectives = objectives.DefaultAdditional(c.Problem)
	}
	for _, obj := range c.AdditionalObjectives {
		if !objectives.Compatible(obj, c.Problem) {
			return fmt.Errorf("automl: additional objective %s does not support %s problems",
				obj.Name(), c.Problem)
		}
		if obj.Name() == c.Objective.Name() {
			return fmt.Errorf("automl: objective %s listed as both primary and additional", obj.Name())
		}
	}
	if c.MaxPipelines < 0 {
		return fmt.Errorf("automl: max pipelines must be non-negative, got %d", c.MaxPipelines)
	}
	if c.MaxTime < 0 {
		return fmt.Errorf("automl: max time must be non-negative, got %v", c.MaxTime)
	}
	if c.MaxPipelines == 0 && c.MaxTime == 0 {
		c.MaxPipelines = DefaultMaxPipelines
	}
	if c.Patience < 0 {
		return fmt.Errorf("automl: patience must be non-negative, got %d", c.Patience)
	}
	if c.Tolerance < 0 || c.Tolerance >= 1 {
		return fmt.Errorf("automl: tolerance must be in [0, 1), got %v", c.Tolerance)
	}
	if c.Tolerance > 0 && c.Patience == 0 {
		return fmt.Errorf("automl: tolerance requires patience to be set")
	}
	if c.Workers < 0 {
		return fmt.Errorf("automl: workers must be non-negative, got %d", c.Workers)
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if len(c.AllowedPipelines) == 0 {
		classes, err := pipeline.GetPipelines(c.Problem, c.AllowedFamilies)
		if err != nil {
			return err
		}
		c.AllowedPipelines = classes
	} else {
		for _, class := range c.AllowedPipelines {
			if !problems.Supports(class.Problems(), c.Problem) {
				return fmt.Errorf("automl: pipeline %s does not support %s problems",
					class.Name(), c.Problem)
			}
		}
	}
	if c.TunerFactory == nil {
		c.TunerFactory = tuners.NewRandomSearchTuner
	}
	if c.OptimizeThresholds {
		if c.Problem != problems.Binary {
			return fmt.Errorf("automl: threshold optimization requires a binary problem")
		}
		if _, ok := c.Objective.(objectives.ThresholdOptimizer); !ok {
			return fmt.Errorf("automl: objective %s cannot optimize a decision threshold",
				c.Objective.Name())
		}
	}
	if c.Logger == nil {
		c.Logger = logging.Default()
	}
	return nil
}

// String renders the configuration the way it is logged at search
// start.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "AutoML Search\n")
	fmt.Fprintf(&b, "=============\n")
	fmt.Fprintf(&b, "Problem Type: %s\n", c.Problem.Display())
	if c.Objective != nil {
		fmt.Fprintf(&b, "Objective: %s (greater is better: %t)\n",
			c.Objective.Name(), c.Objective.GreaterIsBetter())
	}
	if len(c.AdditionalObjectives) > 0 {
		names := make([]string, len(c.AdditionalObjectives))
		for i, obj := range c.AdditionalObjectives {
			names[i] = obj.Name()
		}
		fmt.Fprintf(&b, "Additional Objectives: %s\n", strings.Join(names, ", "))
	}
	if c.MaxPipelines > 0 {
		fmt.Fprintf(&b, "Max Pipelines: %d\n", c.MaxPipelines)
	}
	if c.MaxTime > 0 {
		fmt.Fprintf(&b, "Max Time: %v\n", c.MaxTime)
	}
	if c.Patience > 0 {
		fmt.Fprintf(&b, "Patience: %d (tolerance %v)\n", c.Patience, c.Tolerance)
	}
	if len(c.AllowedPipelines) > 0 {
		names := make([]string, len(c.AllowedPipelines))
		for i, class := range c.AllowedPipelines {
			names[i] = class.Name()
		}
		sort.Strings(names)
		fmt.Fprintf(&b, "Allowed Pipelines: %s\n", strings.Join(names, ", "))
	}
	if c.Splitter != nil {
		fmt.Fprintf(&b, "Cross Validation: %s\n", c.Splitter.String())
	}
	fmt.Fprintf(&b, "Error Policy: %s\n", c.ErrorPolicy)
	fmt.Fprintf(&b, "Optimize Thresholds: %t\n", c.OptimizeThresholds)
	fmt.Fprintf(&b, "Random Seed: %d", c.Seed)
	return b.String()
}
