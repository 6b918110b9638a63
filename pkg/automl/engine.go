// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package automl

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/halcyonml/autosearch/pkg/automl/dataset"
	"github.com/halcyonml/autosearch/pkg/automl/objectives"
	"github.com/halcyonml/autosearch/pkg/automl/pipeline"
	"github.com/halcyonml/autosearch/pkg/automl/split"
)

// thresholdTuningFraction is the tail share of each training fold held
// out for decision-threshold tuning.
const thresholdTuningFraction = 0.2

// Engine evaluates one candidate across a fold plan and produces its
// result record.
type Engine interface {
	Evaluate(ctx context.Context, id int, cand Candidate,
		X *dataset.Table, y []float64, folds []split.Fold) (PipelineResult, error)
}

// SequentialEngine evaluates folds one at a time on the calling
// goroutine.
//
// Thread Safety: Safe for concurrent use; all mutable state is local to
// each Evaluate call.
type SequentialEngine struct {
	evaluator
}

// NewSequentialEngine builds an engine from a validated config.
func NewSequentialEngine(cfg *Config) *SequentialEngine {
	return &SequentialEngine{evaluator: newEvaluator(cfg)}
}

// Evaluate fits and scores the candidate on every fold.
//
// Inputs:
//   - id: The candidate's search-order position, recorded in the result.
//   - cand: The proposed pipeline class and parameters.
//   - X, y: The full dataset; folds index into it.
//   - folds: The fold plan from the splitter.
//
// Outputs:
//   - PipelineResult: Complete record, including per-fold data.
//   - error: Non-nil only under the Raise policy or on context
//     cancellation; the Contain policy turns fold failures into NaN
//     scores instead.
func (e *SequentialEngine) Evaluate(ctx context.Context, id int, cand Candidate,
	X *dataset.Table, y []float64, folds []split.Fold) (PipelineResult, error) {

	ctx, span := e.startSpan(ctx, cand, len(folds))
	defer span.End()

	start := time.Now()
	cvData := make([]FoldData, len(folds))
	for i, fold := range folds {
		if err := ctx.Err(); err != nil {
			return PipelineResult{}, err
		}
		fd, err := e.evaluateFold(cand, X, y, fold)
		if err != nil {
			metricCandidatesTotal.WithLabelValues(outcomeFailed).Inc()
			return PipelineResult{}, fmt.Errorf("automl: evaluating %s fold %d: %w",
				cand.Class.Name(), i, err)
		}
		cvData[i] = fd
	}
	return e.finish(id, cand, cvData, time.Since(start)), nil
}

// evaluator holds the per-fold scoring logic shared by the sequential
// and parallel engines.
type evaluator struct {
	cfg    *Config
	tracer trace.Tracer
}

func newEvaluator(cfg *Config) evaluator {
	return evaluator{cfg: cfg, tracer: otel.Tracer("autosearch/engine")}
}

func (e *evaluator) startSpan(ctx context.Context, cand Candidate, nFolds int) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "automl.evaluate",
		trace.WithAttributes(
			attribute.String("pipeline", cand.Class.Name()),
			attribute.Int("folds", nFolds),
		))
}

// evaluateFold fits the candidate on the fold's training rows and
// scores it on the validation rows.
//
// Under the Contain policy a fit or primary-score failure produces a
// FoldData whose scores are all NaN but whose row counts stay accurate.
// Additional-objective failures are always contained at objective
// granularity, regardless of policy.
func (e *evaluator) evaluateFold(cand Candidate, X *dataset.Table, y []float64, fold split.Fold) (FoldData, error) {
	foldStart := time.Now()
	defer func() { metricFoldDuration.Observe(time.Since(foldStart).Seconds()) }()

	fd := FoldData{
		NumTraining: len(fold.Train),
		NumTesting:  len(fold.Test),
	}

	score, allScores, threshold, err := e.fitAndScore(cand, X, y, fold)
	if err != nil {
		if e.cfg.ErrorPolicy == Raise {
			return FoldData{}, err
		}
		e.cfg.Logger.Warn("fold evaluation failed, containing",
			"pipeline", cand.Class.Name(), "error", err)
		fd.Score = math.NaN()
		fd.AllObjectiveScores = map[string]float64{e.cfg.Objective.Name(): math.NaN()}
		for _, obj := range e.cfg.AdditionalObjectives {
			fd.AllObjectiveScores[obj.Name()] = math.NaN()
		}
		return fd, nil
	}
	fd.Score = score
	fd.AllObjectiveScores = allScores
	fd.BinaryClassificationThreshold = threshold
	return fd, nil
}

func (e *evaluator) fitAndScore(cand Candidate, X *dataset.Table, y []float64, fold split.Fold) (float64, map[string]float64, *float64, error) {
	pl, err := cand.Class.New(cand.Parameters, e.cfg.Seed)
	if err != nil {
		return 0, nil, nil, err
	}

	train := fold.Train
	var tuning []int
	optimizer, optimizing := e.cfg.Objective.(objectives.ThresholdOptimizer)
	optimizing = optimizing && e.cfg.OptimizeThresholds
	if optimizing {
		cut := len(train) - int(float64(len(train))*thresholdTuningFraction)
		if cut < 1 {
			cut = 1
		}
		if cut < len(train) {
			tuning = train[cut:]
			train = train[:cut]
		}
	}

	if err := pl.Fit(X.Select(train), dataset.SelectVector(y, train)); err != nil {
		return 0, nil, nil, err
	}

	var threshold *float64
	if optimizing && len(tuning) > 0 {
		proba, err := pl.PredictProba(X.Select(tuning))
		if err != nil {
			return 0, nil, nil, err
		}
		t, err := optimizer.OptimizeThreshold(
			dataset.SelectVector(y, tuning), proba, e.extraColumns(X, tuning))
		if err != nil {
			return 0, nil, nil, err
		}
		threshold = &t
	}

	pred, err := e.predict(pl, X.Select(fold.Test), threshold)
	if err != nil {
		return 0, nil, nil, err
	}

	yTest := dataset.SelectVector(y, fold.Test)
	extra := e.extraColumns(X, fold.Test)

	score, err := e.cfg.Objective.Score(yTest, pred, extra)
	if err != nil {
		return 0, nil, nil, err
	}

	allScores := map[string]float64{e.cfg.Objective.Name(): score}
	for _, obj := range e.cfg.AdditionalObjectives {
		s, err := obj.Score(yTest, pred, extra)
		if err != nil {
			e.cfg.Logger.Warn("additional objective failed",
				"objective", obj.Name(), "pipeline", cand.Class.Name(), "error", err)
			s = math.NaN()
		}
		allScores[obj.Name()] = s
	}
	return score, allScores, threshold, nil
}

// predict gathers labels and, for classification, probabilities. A
// tuned threshold overrides the estimator's own label decision.
func (e *evaluator) predict(pl pipeline.Pipeline, X *dataset.Table, threshold *float64) (objectives.Predictions, error) {
	var pred objectives.Predictions
	if e.cfg.Problem.IsClassification() {
		proba, err := pl.PredictProba(X)
		if err != nil {
			return pred, err
		}
		pred.Proba = proba
	}
	if threshold != nil {
		labels := make([]float64, len(pred.Proba))
		for i, row := range pred.Proba {
			if len(row) > 1 && row[1] > *threshold {
				labels[i] = 1
			}
		}
		pred.Labels = labels
		return pred, nil
	}
	labels, err := pl.Predict(X)
	if err != nil {
		return pred, err
	}
	pred.Labels = labels
	return pred, nil
}

// extraColumns exposes the raw feature columns at the given rows to
// objectives that consume auxiliary data, keyed by column name.
func (e *evaluator) extraColumns(X *dataset.Table, rows []int) objectives.Extra {
	sub := X.Select(rows)
	extra := make(objectives.Extra, sub.NumCols())
	for _, name := range sub.Names() {
		col, err := sub.Column(name)
		if err != nil {
			continue
		}
		extra[name] = col
	}
	return extra
}

// finish aggregates fold data into the candidate's result record.
func (e *evaluator) finish(id int, cand Candidate, cvData []FoldData, elapsed time.Duration) PipelineResult {
	mean, cov, contained := aggregateScores(cvData)
	outcome := outcomeScored
	if contained {
		outcome = outcomeContained
	}
	metricCandidatesTotal.WithLabelValues(outcome).Inc()
	return PipelineResult{
		ID:              id,
		PipelineName:    cand.Class.Name(),
		PipelineSummary: cand.Class.Summary(),
		Parameters:      cand.Parameters.Clone(),
		Score:           mean,
		HighVarianceCV:  cov > HighVarianceThreshold,
		TrainingTime:    elapsed,
		CVData:          cvData,
	}
}

// aggregateScores returns the mean primary score over folds that
// produced one, the coefficient of variation across them, and whether
// any fold was contained as NaN. The mean is NaN when every fold
// failed.
func aggregateScores(cvData []FoldData) (mean, cov float64, contained bool) {
	var scores []float64
	for _, fd := range cvData {
		if math.IsNaN(fd.Score) {
			contained = true
			continue
		}
		scores = append(scores, fd.Score)
	}
	if len(scores) == 0 {
		return math.NaN(), 0, contained
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean = sum / float64(len(scores))
	if len(scores) < 2 || mean == 0 {
		return mean, 0, contained
	}
	var ss float64
	for _, s := range scores {
		d := s - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(scores)-1))
	return mean, std / math.Abs(mean), contained
}
