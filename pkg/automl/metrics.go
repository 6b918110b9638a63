// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package automl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCandidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autosearch",
		Name:      "candidates_evaluated_total",
		Help:      "Candidates evaluated, partitioned by outcome.",
	}, []string{"outcome"})

	metricFoldDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "autosearch",
		Name:      "fold_evaluation_seconds",
		Help:      "Wall-clock time to fit and score one fold.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	metricSearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "autosearch",
		Name:      "search_duration_seconds",
		Help:      "Wall-clock duration of completed searches.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
	})

	metricBestScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "autosearch",
		Name:      "best_score",
		Help:      "Primary-objective score of the current best candidate.",
	})
)

const (
	outcomeScored    = "scored"
	outcomeContained = "contained"
	outcomeFailed    = "failed"
)
