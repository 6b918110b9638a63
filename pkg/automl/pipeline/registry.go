// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"fmt"
	"sort"

	"github.com/halcyonml/autosearch/pkg/automl/problems"
)

// Model family names.
const (
	FamilyBaseline   = "baseline"
	FamilyLinear     = "linear_model"
	FamilyKNeighbors = "k_neighbors"
)

var (
	classification = []problems.ProblemType{problems.Binary, problems.Multiclass}

	// ModeBaselineBinary is the fixed batch-0 candidate for binary
	// problems.
	ModeBaselineBinary = &Class{
		PipelineName: "Mode Baseline Binary Classification Pipeline",
		Family:       FamilyBaseline,
		Supported:    []problems.ProblemType{problems.Binary},
		Components: []ComponentSpec{
			{Name: "Baseline Classifier", Make: NewBaselineClassifier},
		},
	}

	// ModeBaselineMulticlass is the fixed batch-0 candidate for
	// multiclass problems.
	ModeBaselineMulticlass = &Class{
		PipelineName: "Mode Baseline Multiclass Classification Pipeline",
		Family:       FamilyBaseline,
		Supported:    []problems.ProblemType{problems.Multiclass},
		Components: []ComponentSpec{
			{Name: "Baseline Classifier", Make: NewBaselineClassifier},
		},
	}

	// MeanBaselineRegression is the fixed batch-0 candidate for
	// regression problems.
	MeanBaselineRegression = &Class{
		PipelineName: "Mean Baseline Regression Pipeline",
		Family:       FamilyBaseline,
		Supported:    []problems.ProblemType{problems.Regression},
		Components: []ComponentSpec{
			{Name: "Baseline Regressor", Make: NewBaselineRegressor},
		},
	}

	// LogisticRegressionPipeline is a scaled logistic regression for
	// binary problems.
	LogisticRegressionPipeline = &Class{
		PipelineName: "Logistic Regression Binary Pipeline",
		Family:       FamilyLinear,
		Supported:    []problems.ProblemType{problems.Binary},
		Components: []ComponentSpec{
			{
				Name: "Simple Imputer",
				Ranges: map[string]Range{
					"impute_strategy": Choice{Options: []any{"mean", "median", "most_frequent"}},
				},
				Make: NewSimpleImputer,
			},
			{Name: "Standard Scaler", Make: NewStandardScaler},
			{
				Name: "Logistic Regression Classifier",
				Ranges: map[string]Range{
					"C":        FloatRange{Min: 0.01, Max: 10},
					"max_iter": IntRange{Min: 50, Max: 200},
				},
				Make: NewLogisticRegression,
			},
		},
	}

	// KNNClassificationPipeline is feature-selected k-nearest neighbors
	// for classification problems.
	KNNClassificationPipeline = &Class{
		PipelineName: "KNN Classification Pipeline",
		Family:       FamilyKNeighbors,
		Supported:    classification,
		Components: []ComponentSpec{
			{
				Name: "Simple Imputer",
				Ranges: map[string]Range{
					"impute_strategy": Choice{Options: []any{"mean", "median", "most_frequent"}},
				},
				Make: NewSimpleImputer,
			},
			{
				Name:            "Select From Model",
				FeatureSelector: true,
				Ranges: map[string]Range{
					"percent_features": FloatRange{Min: 0.1, Max: 1.0},
				},
				Make: NewSelectFromModel,
			},
			{
				Name: "KNN Classifier",
				Ranges: map[string]Range{
					"n_neighbors": IntRange{Min: 1, Max: 10},
					"weights":     Choice{Options: []any{"uniform", "distance"}},
				},
				Make: NewKNNClassifier,
			},
		},
	}

	// RidgeRegressionPipeline is scaled closed-form ridge regression.
	RidgeRegressionPipeline = &Class{
		PipelineName: "Ridge Regression Pipeline",
		Family:       FamilyLinear,
		Supported:    []problems.ProblemType{problems.Regression},
		Components: []ComponentSpec{
			{
				Name: "Simple Imputer",
				Ranges: map[string]Range{
					"impute_strategy": Choice{Options: []any{"mean", "median", "most_frequent"}},
				},
				Make: NewSimpleImputer,
			},
			{Name: "Standard Scaler", Make: NewStandardScaler},
			{
				Name: "Ridge Regressor",
				Ranges: map[string]Range{
					"alpha": FloatRange{Min: 0.01, Max: 10},
				},
				Make: NewRidgeRegressor,
			},
		},
	}

	// KNNRegressionPipeline is feature-selected k-nearest neighbors for
	// regression problems.
	KNNRegressionPipeline = &Class{
		PipelineName: "KNN Regression Pipeline",
		Family:       FamilyKNeighbors,
		Supported:    []problems.ProblemType{problems.Regression},
		Components: []ComponentSpec{
			{
				Name: "Simple Imputer",
				Ranges: map[string]Range{
					"impute_strategy": Choice{Options: []any{"mean", "median", "most_frequent"}},
				},
				Make: NewSimpleImputer,
			},
			{
				Name:            "Select From Model",
				FeatureSelector: true,
				Ranges: map[string]Range{
					"percent_features": FloatRange{Min: 0.1, Max: 1.0},
				},
				Make: NewSelectFromModel,
			},
			{
				Name: "KNN Regressor",
				Ranges: map[string]Range{
					"n_neighbors": IntRange{Min: 1, Max: 10},
					"weights":     Choice{Options: []any{"uniform", "distance"}},
				},
				Make: NewKNNRegressor,
			},
		},
	}
)

// all lists every registered class, baselines included.
var all = []*Class{
	ModeBaselineBinary,
	ModeBaselineMulticlass,
	MeanBaselineRegression,
	LogisticRegressionPipeline,
	KNNClassificationPipeline,
	RidgeRegressionPipeline,
	KNNRegressionPipeline,
}

// Lookup finds a registered class by display name.
func Lookup(name string) (*Class, error) {
	for _, c := range all {
		if c.PipelineName == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("pipeline: unknown pipeline class %q", name)
}

// Baseline returns the fixed batch-0 class for a problem type, with the
// parameters the baseline is always run with.
func Baseline(p problems.ProblemType) (*Class, Parameters) {
	switch p {
	case problems.Binary:
		return ModeBaselineBinary, Parameters{
			"Baseline Classifier": {"strategy": "random_weighted"},
		}
	case problems.Multiclass:
		return ModeBaselineMulticlass, Parameters{
			"Baseline Classifier": {"strategy": "random_weighted"},
		}
	default:
		return MeanBaselineRegression, Parameters{
			"Baseline Regressor": {"strategy": "mean"},
		}
	}
}

// GetPipelines returns the searchable (non-baseline) classes for a problem
// type, optionally filtered by model family.
//
// Outputs:
//   - []*Class: Matching classes, in registry order.
//   - error: Non-nil when a requested family does not exist for the
//     problem type.
func GetPipelines(p problems.ProblemType, families []string) ([]*Class, error) {
	var candidates []*Class
	for _, c := range all {
		if c.Family == FamilyBaseline {
			continue
		}
		if problems.Supports(c.Supported, p) {
			candidates = append(candidates, c)
		}
	}
	if len(families) == 0 {
		return candidates, nil
	}
	available := map[string]bool{}
	for _, c := range candidates {
		available[c.Family] = true
	}
	for _, f := range families {
		if !available[f] {
			return nil, fmt.Errorf("pipeline: unrecognized model family %q for problem type %s", f, p)
		}
	}
	var out []*Class
	for _, c := range candidates {
		for _, f := range families {
			if c.Family == f {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

// ListModelFamilies returns the distinct non-baseline model families
// available for a problem type, sorted.
func ListModelFamilies(p problems.ProblemType) []string {
	seen := map[string]bool{}
	for _, c := range all {
		if c.Family == FamilyBaseline {
			continue
		}
		if problems.Supports(c.Supported, p) {
			seen[c.Family] = true
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
