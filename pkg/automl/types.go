// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package automl orchestrates an automated pipeline search: a candidate
// algorithm proposes pipeline configurations in batches, an evaluation
// engine scores each candidate with cross-validation, and a ranked
// results store keeps everything found so far.
package automl

import (
	"time"

	"github.com/halcyonml/autosearch/pkg/automl/pipeline"
)

const (
	// DefaultMaxPipelines is how many candidates a search evaluates when
	// the caller sets no budget at all.
	DefaultMaxPipelines = 5

	// LargeDatasetThreshold is the row count above which cross-validation
	// is replaced with a single training/validation split.
	LargeDatasetThreshold = 100000

	// HighVarianceThreshold flags a candidate whose fold scores have a
	// coefficient of variation above this value.
	HighVarianceThreshold = 0.2

	// DefaultCVFolds is the fold count used below the large-dataset
	// threshold.
	DefaultCVFolds = 3
)

// Candidate is one pipeline configuration proposed for evaluation.
type Candidate struct {
	// Class builds pipeline instances for this candidate.
	Class *pipeline.Class

	// Parameters holds the per-component hyperparameters the tuner
	// proposed for this candidate.
	Parameters pipeline.Parameters
}

// FoldData records the evaluation of a candidate on one fold.
type FoldData struct {
	// AllObjectiveScores maps objective name to score. The primary
	// objective is always present; a failed additional objective is
	// recorded as NaN.
	AllObjectiveScores map[string]float64 `json:"all_objective_scores"`

	// Score is the primary-objective score, NaN when the fold failed
	// under a contained error policy.
	Score float64 `json:"score"`

	// BinaryClassificationThreshold is set only for binary problems with
	// threshold optimization enabled.
	BinaryClassificationThreshold *float64 `json:"binary_classification_threshold,omitempty"`

	// NumTraining and NumTesting are the fold's row counts. Recorded even
	// when scoring failed.
	NumTraining int `json:"num_training"`
	NumTesting  int `json:"num_testing"`
}

// PipelineResult is the full evaluation record for one candidate.
type PipelineResult struct {
	// ID is the candidate's position in search order, starting at 0.
	ID int `json:"id"`

	PipelineName    string `json:"pipeline_name"`
	PipelineSummary string `json:"pipeline_summary"`

	// Parameters is a deep copy of the evaluated configuration.
	Parameters pipeline.Parameters `json:"parameters"`

	// Score is the mean primary-objective score across folds, NaN when
	// every fold failed.
	Score float64 `json:"score"`

	// HighVarianceCV flags unstable fold scores.
	HighVarianceCV bool `json:"high_variance_cv"`

	// TrainingTime is the wall-clock cost of evaluating the candidate.
	TrainingTime time.Duration `json:"training_time"`

	CVData []FoldData `json:"cv_data"`
}

// Results is a point-in-time snapshot of everything a search has found.
type Results struct {
	// PipelineResults is keyed by candidate ID.
	PipelineResults map[int]PipelineResult `json:"pipeline_results"`

	// SearchOrder lists candidate IDs in evaluation order.
	SearchOrder []int `json:"search_order"`
}
