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
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/halcyonml/autosearch/pkg/automl/datachecks"
	"github.com/halcyonml/autosearch/pkg/automl/dataset"
	"github.com/halcyonml/autosearch/pkg/automl/pipeline"
	"github.com/halcyonml/autosearch/pkg/automl/split"
)

// AutoMLSearch runs the candidate search: it asks the algorithm for
// batches, hands each candidate to the evaluation engine, routes scores
// back to the tuners, and keeps everything found in a ranked store.
//
// Thread Safety: Safe for concurrent use. Only one Run may be active at
// a time; queries may run alongside it.
type AutoMLSearch struct {
	cfg    Config
	store  *resultsStore
	rng    *RNG
	engine Engine

	running  atomic.Bool
	searched atomic.Bool

	// Last run's data check findings (protected by mu).
	mu            sync.Mutex
	dataCheckMsgs []datachecks.Message
}

// New validates the configuration and builds a searcher. Configuration
// errors surface here, never later in Run.
func New(cfg Config) (*AutoMLSearch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &AutoMLSearch{
		cfg:   cfg,
		store: newResultsStore(),
		rng:   NewRNG(cfg.Seed),
	}
	if cfg.Workers > 1 {
		s.engine = NewParallelEngine(&s.cfg)
	} else {
		s.engine = NewSequentialEngine(&s.cfg)
	}
	return s, nil
}

// -----------------------------------------------------------------------------
// Run options
// -----------------------------------------------------------------------------

type checksMode int

const (
	checksAuto checksMode = iota
	checksDisabled
	checksExplicit
)

type runOptions struct {
	mode       checksMode
	checks     []datachecks.Check
	maxBatches int
}

// RunOption adjusts a single Run call.
type RunOption func(*runOptions)

// WithDataChecks replaces the default pre-search checks with an
// explicit list.
func WithDataChecks(checks ...datachecks.Check) RunOption {
	return func(o *runOptions) {
		o.mode = checksExplicit
		o.checks = checks
	}
}

// WithoutDataChecks skips pre-search validation entirely.
func WithoutDataChecks() RunOption {
	return func(o *runOptions) { o.mode = checksDisabled }
}

// WithMaxBatches caps how many post-baseline batches this run requests
// from the algorithm.
func WithMaxBatches(n int) RunOption {
	return func(o *runOptions) { o.maxBatches = n }
}

// -----------------------------------------------------------------------------
// Run
// -----------------------------------------------------------------------------

// Run executes the search over the given dataset.
//
// Inputs:
//   - ctx: Cancels the run between fold evaluations.
//   - X: Feature table. y: Target vector, one value per row.
//   - opts: Per-run adjustments.
//
// Outputs:
//   - error: Non-nil on degenerate input, data check errors, tuner
//     exhaustion, context cancellation, or a candidate failure under
//     the Raise policy. Results recorded before the failure stay
//     queryable.
//
// Run is re-entrant: a second call appends new results with continuing
// ids, reusing the already-advanced random state.
func (s *AutoMLSearch) Run(ctx context.Context, X *dataset.Table, y []float64, opts ...RunOption) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSearchInProgress
	}
	defer s.running.Store(false)

	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	if X == nil || X.NumRows() == 0 || X.NumCols() == 0 {
		return fmt.Errorf("automl: input data is empty")
	}
	if len(y) != X.NumRows() {
		return fmt.Errorf("automl: %d target values for %d rows", len(y), X.NumRows())
	}

	if err := s.runDataChecks(o, X, y); err != nil {
		return err
	}

	splitter := s.splitterFor(X.NumRows())
	folds, err := splitter.Split(X.NumRows(), y)
	if err != nil {
		return err
	}

	alg := NewIterativeAlgorithm(&s.cfg, X.NumCols(), s.rng)
	if o.maxBatches > 0 {
		alg.SetMaxBatches(o.maxBatches)
	}
	budget := NewSearchBudget(&s.cfg)

	runID := uuid.NewString()
	ctx, span := otel.Tracer("autosearch/search").Start(ctx, "automl.run",
		trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	log := s.cfg.Logger.With("run_id", runID)
	log.Info("starting search",
		"problem", s.cfg.Problem.String(),
		"objective", s.cfg.Objective.Name(),
		"splitter", splitter.String(),
		"rows", X.NumRows(), "features", X.NumCols())
	log.Debug("search configuration", "config", s.cfg.String())

	start := time.Now()
	defer func() { metricSearchDuration.Observe(time.Since(start).Seconds()) }()

	gib := s.cfg.Objective.GreaterIsBetter()
	for {
		batch, done, err := alg.NextBatch()
		if err != nil {
			return err
		}
		if done {
			log.Info("search ended: algorithm exhausted",
				"evaluated", budget.Evaluated())
			return nil
		}
		for _, cand := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			if s.cfg.StartIterationCallback != nil {
				s.cfg.StartIterationCallback(cand)
			}
			id := s.store.NextID()
			log.Info("evaluating candidate", "id", id, "pipeline", cand.Class.Name())
			result, err := s.engine.Evaluate(ctx, id, cand, X, y, folds)
			if err != nil {
				return err
			}
			s.record(result, cand, alg, budget, gib)
			if budget.Exhausted() {
				log.Info("search ended: budget exhausted",
					"by", budget.ExhaustedBy(), "evaluated", budget.Evaluated())
				return nil
			}
		}
	}
}

func (s *AutoMLSearch) record(result PipelineResult, cand Candidate, alg Algorithm, budget *SearchBudget, gib bool) {
	s.store.Record(result)
	s.searched.Store(true)
	alg.NotifyResult(cand, result.Score)
	budget.RecordResult(result.Score, gib)
	if best, ok := s.store.Best(gib); ok && !math.IsNaN(best.Score) {
		metricBestScore.Set(best.Score)
	}
	if s.cfg.AddResultCallback != nil {
		s.cfg.AddResultCallback(result)
	}
}

func (s *AutoMLSearch) runDataChecks(o runOptions, X *dataset.Table, y []float64) error {
	var checks []datachecks.Check
	switch o.mode {
	case checksDisabled:
		s.setDataCheckMsgs(nil)
		return nil
	case checksExplicit:
		checks = o.checks
	default:
		checks = datachecks.DefaultChecks(s.cfg.Problem)
	}
	msgs := datachecks.Run(checks, X, y)
	s.setDataCheckMsgs(msgs)
	for _, m := range msgs {
		if m.Severity == datachecks.Warning {
			s.cfg.Logger.Warn("data check warning", "check", m.Source, "finding", m.Text)
		}
	}
	if errs := datachecks.Errors(msgs); len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrDataChecksFailed, datachecks.CompositeError(errs))
	}
	return nil
}

func (s *AutoMLSearch) setDataCheckMsgs(msgs []datachecks.Message) {
	s.mu.Lock()
	s.dataCheckMsgs = msgs
	s.mu.Unlock()
}

// splitterFor resolves the fold planner: the configured splitter if
// any, a single holdout above the large-dataset threshold, otherwise
// the default k-fold for the problem category.
func (s *AutoMLSearch) splitterFor(rows int) split.Splitter {
	if s.cfg.Splitter != nil {
		return s.cfg.Splitter
	}
	if rows > LargeDatasetThreshold {
		return split.TrainingValidationSplit{Shuffle: true, Seed: s.cfg.Seed}
	}
	if s.cfg.Problem.IsClassification() {
		return split.StratifiedKFold{K: DefaultCVFolds, Shuffle: true, Seed: s.cfg.Seed}
	}
	return split.KFold{K: DefaultCVFolds, Shuffle: true, Seed: s.cfg.Seed}
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

// HasSearched reports whether any candidate has been recorded.
func (s *AutoMLSearch) HasSearched() bool { return s.searched.Load() }

// DataCheckResults returns the findings from the most recent Run's
// pre-search validation.
func (s *AutoMLSearch) DataCheckResults() []datachecks.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]datachecks.Message(nil), s.dataCheckMsgs...)
}

// Results returns a deep-copy snapshot of everything recorded so far.
func (s *AutoMLSearch) Results() Results { return s.store.Snapshot() }

// Rankings returns the best result per pipeline name, sorted
// best-first by the primary objective.
func (s *AutoMLSearch) Rankings() []PipelineResult {
	return s.store.Rankings(s.cfg.Objective.GreaterIsBetter(), true)
}

// FullRankings returns every result sorted best-first, duplicates
// included.
func (s *AutoMLSearch) FullRankings() []PipelineResult {
	return s.store.Rankings(s.cfg.Objective.GreaterIsBetter(), false)
}

// BestPipeline returns the top-ranked result.
func (s *AutoMLSearch) BestPipeline() (PipelineResult, error) {
	best, ok := s.store.Best(s.cfg.Objective.GreaterIsBetter())
	if !ok {
		return PipelineResult{}, ErrRunRequired
	}
	return best, nil
}

// GetPipeline rebuilds an unfitted pipeline from a stored result.
func (s *AutoMLSearch) GetPipeline(id int) (pipeline.Pipeline, error) {
	r, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrPipelineNotFound, id)
	}
	class, err := pipeline.Lookup(r.PipelineName)
	if err != nil {
		return nil, fmt.Errorf("%w: id %d: %v", ErrPipelineNotFound, id, err)
	}
	return class.New(r.Parameters, s.cfg.Seed)
}

// AddToRankings evaluates an externally chosen candidate and records it
// alongside search results.
//
// Outputs:
//   - int: The new result id, -1 when the candidate was a duplicate.
//   - bool: Whether a new result was recorded.
//   - error: ErrRunRequired before any search has run.
func (s *AutoMLSearch) AddToRankings(ctx context.Context, cand Candidate, X *dataset.Table, y []float64) (int, bool, error) {
	if !s.HasSearched() {
		return -1, false, ErrRunRequired
	}
	if s.store.Contains(cand.Class.Name(), cand.Parameters.Signature()) {
		return -1, false, nil
	}
	folds, err := s.splitterFor(X.NumRows()).Split(X.NumRows(), y)
	if err != nil {
		return -1, false, err
	}
	id := s.store.NextID()
	result, err := s.engine.Evaluate(ctx, id, cand, X, y, folds)
	if err != nil {
		return -1, false, err
	}
	s.store.Record(result)
	return id, true, nil
}

// Describe writes a human-readable report for one result.
func (s *AutoMLSearch) Describe(id int, w io.Writer) error {
	r, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrPipelineNotFound, id)
	}
	return describeResult(w, r, s.cfg.Problem.Display(), s.modelFamilyOf(r.PipelineName))
}

func (s *AutoMLSearch) modelFamilyOf(name string) string {
	class, err := pipeline.Lookup(name)
	if err != nil {
		return "unknown"
	}
	return class.ModelFamily()
}

// String renders the configuration, plus a results section once a
// search has run.
func (s *AutoMLSearch) String() string {
	var b strings.Builder
	b.WriteString(s.cfg.String())
	if !s.HasSearched() {
		return b.String()
	}
	b.WriteString("\n\nSearch Results\n")
	b.WriteString("==============\n")
	fmt.Fprintf(&b, "Pipelines Evaluated: %d\n", s.store.Len())
	if best, err := s.BestPipeline(); err == nil {
		fmt.Fprintf(&b, "Best Pipeline: %s (score %.6f)", best.PipelineName, best.Score)
	}
	return b.String()
}

// -----------------------------------------------------------------------------
// Describe rendering
// -----------------------------------------------------------------------------

func describeResult(w io.Writer, r PipelineResult, problemDisplay, family string) error {
	banner := strings.Repeat("*", len(r.PipelineName)+4)
	fmt.Fprintf(w, "%s\n* %s *\n%s\n\n", banner, r.PipelineName, banner)
	fmt.Fprintf(w, "Problem Type: %s\n", problemDisplay)
	fmt.Fprintf(w, "Model Family: %s\n", family)
	fmt.Fprintf(w, "Summary: %s\n\n", r.PipelineSummary)

	fmt.Fprintf(w, "Parameters\n==========\n")
	for _, comp := range sortedKeys(r.Parameters) {
		fmt.Fprintf(w, "%s:\n", comp)
		kv := r.Parameters[comp]
		names := make([]string, 0, len(kv))
		for k := range kv {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Fprintf(w, "\t%s: %v\n", k, kv[k])
		}
	}

	fmt.Fprintf(w, "\nTraining\n========\n")
	fmt.Fprintf(w, "Total training time (including CV): %.1f seconds\n\n", r.TrainingTime.Seconds())

	fmt.Fprintf(w, "Cross Validation\n----------------\n")
	if r.HighVarianceCV {
		fmt.Fprintf(w, "Warning: high variance across cross validation folds\n")
	}
	objectiveNames := describeObjectiveOrder(r.CVData)
	fmt.Fprintf(w, "fold\t%s\t# Training\t# Testing\n", strings.Join(objectiveNames, "\t"))
	for i, fd := range r.CVData {
		cells := make([]string, 0, len(objectiveNames))
		for _, name := range objectiveNames {
			cells = append(cells, formatScore(fd.AllObjectiveScores[name]))
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", i, strings.Join(cells, "\t"), fd.NumTraining, fd.NumTesting)
	}
	for _, stat := range []string{"mean", "std", "coef of var"} {
		cells := make([]string, 0, len(objectiveNames))
		for _, name := range objectiveNames {
			cells = append(cells, formatScore(foldStat(r.CVData, name, stat)))
		}
		fmt.Fprintf(w, "%s\t%s\t-\t-\n", stat, strings.Join(cells, "\t"))
	}
	return nil
}

func describeObjectiveOrder(cvData []FoldData) []string {
	seen := map[string]bool{}
	var names []string
	for _, fd := range cvData {
		for name := range fd.AllObjectiveScores {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func foldStat(cvData []FoldData, objective, stat string) float64 {
	var vals []float64
	for _, fd := range cvData {
		v, ok := fd.AllObjectiveScores[objective]
		if ok && !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	if stat == "mean" {
		return mean
	}
	if len(vals) < 2 {
		return 0
	}
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(vals)-1))
	if stat == "std" {
		return std
	}
	if mean == 0 {
		return math.NaN()
	}
	return std / math.Abs(mean)
}

func formatScore(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.3f", v)
}

func sortedKeys(p pipeline.Parameters) []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
