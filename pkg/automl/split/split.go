// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package split produces the train/validation partitions used for
// cross-validated evaluation.
package split

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// Fold is one train/validation partition over row indices.
type Fold struct {
	Train []int
	Test  []int
}

// Splitter plans cross-validation folds over n rows with target y.
type Splitter interface {
	// NSplits returns the number of folds the splitter produces.
	NSplits() int

	// Split returns the fold plan. y is consulted only by stratified
	// splitters.
	Split(n int, y []float64) ([]Fold, error)

	// String renders the splitter for configuration summaries.
	String() string
}

// KFold is plain k-fold cross-validation with optional shuffling.
type KFold struct {
	K       int
	Shuffle bool
	Seed    uint64
}

func (s KFold) NSplits() int { return s.K }

func (s KFold) String() string {
	return fmt.Sprintf("KFold(k=%d, shuffle=%t, seed=%d)", s.K, s.Shuffle, s.Seed)
}

func (s KFold) Split(n int, _ []float64) ([]Fold, error) {
	if s.K < 2 {
		return nil, fmt.Errorf("split: k must be at least 2, got %d", s.K)
	}
	if n < s.K {
		return nil, fmt.Errorf("split: %d rows cannot fill %d folds", n, s.K)
	}
	order := indexOrder(n, s.Shuffle, s.Seed)
	return foldsFromOrder(order, s.K), nil
}

// StratifiedKFold preserves the per-class label distribution in every
// fold. The default splitter for classification problems.
type StratifiedKFold struct {
	K       int
	Shuffle bool
	Seed    uint64
}

func (s StratifiedKFold) NSplits() int { return s.K }

func (s StratifiedKFold) String() string {
	return fmt.Sprintf("StratifiedKFold(k=%d, shuffle=%t, seed=%d)", s.K, s.Shuffle, s.Seed)
}

func (s StratifiedKFold) Split(n int, y []float64) ([]Fold, error) {
	if s.K < 2 {
		return nil, fmt.Errorf("split: k must be at least 2, got %d", s.K)
	}
	if len(y) != n {
		return nil, fmt.Errorf("split: %d target values for %d rows", len(y), n)
	}
	if n < s.K {
		return nil, fmt.Errorf("split: %d rows cannot fill %d folds", n, s.K)
	}
	// Group rows by class, then deal each group round-robin over folds.
	byClass := map[float64][]int{}
	for i, v := range y {
		byClass[v] = append(byClass[v], i)
	}
	classes := make([]float64, 0, len(byClass))
	for v := range byClass {
		classes = append(classes, v)
	}
	sort.Float64s(classes)

	rng := rand.New(rand.NewPCG(s.Seed, 1))
	testSets := make([][]int, s.K)
	for _, class := range classes {
		rows := byClass[class]
		if s.Shuffle {
			rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		}
		for i, r := range rows {
			k := i % s.K
			testSets[k] = append(testSets[k], r)
		}
	}
	folds := make([]Fold, s.K)
	for k := 0; k < s.K; k++ {
		inTest := make(map[int]bool, len(testSets[k]))
		for _, r := range testSets[k] {
			inTest[r] = true
		}
		sort.Ints(testSets[k])
		folds[k].Test = testSets[k]
		for r := 0; r < n; r++ {
			if !inTest[r] {
				folds[k].Train = append(folds[k].Train, r)
			}
		}
	}
	return folds, nil
}

// TrainingValidationSplit is a single holdout split, used automatically
// for datasets above the large-dataset threshold.
type TrainingValidationSplit struct {
	// TestSize is the held-out fraction, defaulting to 0.25 when zero.
	TestSize float64
	Shuffle  bool
	Seed     uint64
}

func (s TrainingValidationSplit) NSplits() int { return 1 }

func (s TrainingValidationSplit) String() string {
	return fmt.Sprintf("TrainingValidationSplit(test_size=%.2f, shuffle=%t)", s.testSize(), s.Shuffle)
}

func (s TrainingValidationSplit) testSize() float64 {
	if s.TestSize <= 0 || s.TestSize >= 1 {
		return 0.25
	}
	return s.TestSize
}

func (s TrainingValidationSplit) Split(n int, _ []float64) ([]Fold, error) {
	if n < 2 {
		return nil, fmt.Errorf("split: need at least 2 rows, got %d", n)
	}
	order := indexOrder(n, s.Shuffle, s.Seed)
	nTest := int(float64(n) * s.testSize())
	if nTest < 1 {
		nTest = 1
	}
	test := append([]int(nil), order[n-nTest:]...)
	train := append([]int(nil), order[:n-nTest]...)
	sort.Ints(test)
	sort.Ints(train)
	return []Fold{{Train: train, Test: test}}, nil
}

func indexOrder(n int, shuffle bool, seed uint64) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if shuffle {
		rng := rand.New(rand.NewPCG(seed, 1))
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	return order
}

func foldsFromOrder(order []int, k int) []Fold {
	n := len(order)
	folds := make([]Fold, k)
	for f := 0; f < k; f++ {
		lo := f * n / k
		hi := (f + 1) * n / k
		test := append([]int(nil), order[lo:hi]...)
		var train []int
		train = append(train, order[:lo]...)
		train = append(train, order[hi:]...)
		sort.Ints(test)
		sort.Ints(train)
		folds[f] = Fold{Train: train, Test: test}
	}
	return folds
}
