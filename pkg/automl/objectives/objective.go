// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package objectives defines scoring objectives for the pipeline search.
//
// An Objective turns ground truth plus model output into a single number.
// The orchestrator uses the primary objective to rank candidates; additional
// objectives are scored alongside it for reporting.
package objectives

import (
	"fmt"
	"sort"
	"strings"

	"github.com/halcyonml/autosearch/pkg/automl/problems"
)

// Predictions carries the output a pipeline produced on a validation fold.
type Predictions struct {
	// Labels holds predicted class labels (as float64 class ids) for
	// classification, or predicted values for regression.
	Labels []float64

	// Proba holds per-class probabilities for classification pipelines.
	// Proba[i][k] is the probability of class k for row i. Nil for
	// regression.
	Proba [][]float64
}

// Extra carries auxiliary data columns some objectives need, keyed by
// column name (for example a transaction amount column).
type Extra map[string][]float64

// Objective scores model output against ground truth.
type Objective interface {
	// Name returns the display name, unique within the registry.
	Name() string

	// GreaterIsBetter reports whether higher scores rank higher.
	GreaterIsBetter() bool

	// NeedsProba reports whether Score consumes Predictions.Proba.
	NeedsProba() bool

	// Problems returns the problem types this objective supports.
	Problems() []problems.ProblemType

	// Score computes the objective value.
	//
	// Outputs:
	//   - float64: The score. Never NaN on success.
	//   - error: Non-nil when the inputs cannot be scored.
	Score(yTrue []float64, pred Predictions, extra Extra) (float64, error)
}

// ThresholdOptimizer is implemented by binary objectives that can tune a
// probability decision threshold against validation predictions.
type ThresholdOptimizer interface {
	// OptimizeThreshold returns the decision threshold in [0, 1] that
	// optimizes the objective on the given fold.
	OptimizeThreshold(yTrue []float64, proba [][]float64, extra Extra) (float64, error)
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

var registry = map[string]Objective{}

// Register adds an objective to the registry. Later registrations with the
// same name overwrite earlier ones; registration is not safe for concurrent
// use and is intended for package init.
func Register(o Objective) {
	registry[strings.ToLower(o.Name())] = o
}

// Get looks an objective up by name, case-insensitively.
func Get(name string) (Objective, error) {
	o, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("objectives: unknown objective %q", name)
	}
	return o, nil
}

// Names returns all registered objective names, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for _, o := range registry {
		out = append(out, o.Name())
	}
	sort.Strings(out)
	return out
}

// Default returns the default primary objective for a problem type.
func Default(p problems.ProblemType) Objective {
	switch p {
	case problems.Binary:
		return LogLossBinary{}
	case problems.Multiclass:
		return LogLossMulticlass{}
	default:
		return R2{}
	}
}

// DefaultAdditional returns the default additional objectives for a
// problem type, excluding the primary.
func DefaultAdditional(p problems.ProblemType) []Objective {
	switch p {
	case problems.Binary:
		return []Objective{AccuracyBinary{}, F1{}, Precision{}, AUC{}}
	case problems.Multiclass:
		return []Objective{AccuracyMulticlass{}, F1Macro{}}
	default:
		return []Objective{MSE{}, MAE{}}
	}
}

// Compatible reports whether the objective supports the problem type.
func Compatible(o Objective, p problems.ProblemType) bool {
	return problems.Supports(o.Problems(), p)
}

func init() {
	for _, o := range []Objective{
		LogLossBinary{}, AccuracyBinary{}, F1{}, Precision{}, AUC{},
		LogLossMulticlass{}, AccuracyMulticlass{}, F1Macro{},
		R2{}, MSE{}, MAE{},
		NewFraudCost(),
	} {
		Register(o)
	}
}

func checkLengths(yTrue []float64, pred Predictions, needsProba bool) error {
	if needsProba {
		if len(pred.Proba) != len(yTrue) {
			return fmt.Errorf("objectives: %d probability rows for %d labels", len(pred.Proba), len(yTrue))
		}
		return nil
	}
	if len(pred.Labels) != len(yTrue) {
		return fmt.Errorf("objectives: %d predictions for %d labels", len(pred.Labels), len(yTrue))
	}
	return nil
}
