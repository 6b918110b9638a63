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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/halcyonml/autosearch/pkg/automl/dataset"
	"github.com/halcyonml/autosearch/pkg/automl/split"
)

// ParallelEngine evaluates a candidate's folds concurrently. Fold
// results land in fold order regardless of completion order, so a
// parallel run records exactly what a sequential run would.
//
// Thread Safety: Safe for concurrent use.
type ParallelEngine struct {
	evaluator
	workers int
}

// NewParallelEngine builds an engine running up to cfg.Workers folds at
// once.
func NewParallelEngine(cfg *Config) *ParallelEngine {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &ParallelEngine{evaluator: newEvaluator(cfg), workers: workers}
}

// Evaluate fits and scores the candidate on every fold concurrently.
// Under the Raise policy the first fold failure cancels the remaining
// folds.
func (e *ParallelEngine) Evaluate(ctx context.Context, id int, cand Candidate,
	X *dataset.Table, y []float64, folds []split.Fold) (PipelineResult, error) {

	ctx, span := e.startSpan(ctx, cand, len(folds))
	defer span.End()

	start := time.Now()
	cvData := make([]FoldData, len(folds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, fold := range folds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fd, err := e.evaluateFold(cand, X, y, fold)
			if err != nil {
				return fmt.Errorf("automl: evaluating %s fold %d: %w",
					cand.Class.Name(), i, err)
			}
			cvData[i] = fd
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metricCandidatesTotal.WithLabelValues(outcomeFailed).Inc()
		return PipelineResult{}, err
	}
	return e.finish(id, cand, cvData, time.Since(start)), nil
}

var (
	_ Engine = (*SequentialEngine)(nil)
	_ Engine = (*ParallelEngine)(nil)
)
