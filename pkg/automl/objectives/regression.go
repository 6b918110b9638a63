// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package objectives

import (
	"errors"
	"math"

	"github.com/halcyonml/autosearch/pkg/automl/problems"
)

var regressionOnly = []problems.ProblemType{problems.Regression}

// R2 is the coefficient of determination. Default primary objective for
// regression problems.
type R2 struct{}

func (R2) Name() string                     { return "R2" }
func (R2) GreaterIsBetter() bool            { return true }
func (R2) NeedsProba() bool                 { return false }
func (R2) Problems() []problems.ProblemType { return regressionOnly }

func (o R2) Score(yTrue []float64, pred Predictions, _ Extra) (float64, error) {
	if err := checkLengths(yTrue, pred, false); err != nil {
		return 0, err
	}
	if len(yTrue) == 0 {
		return 0, errors.New("objectives: empty fold")
	}
	var mean float64
	for _, y := range yTrue {
		mean += y
	}
	mean /= float64(len(yTrue))
	var ssRes, ssTot float64
	for i, y := range yTrue {
		d := y - pred.Labels[i]
		ssRes += d * d
		m := y - mean
		ssTot += m * m
	}
	if ssTot == 0 {
		// Constant target: perfect only if residuals are zero too.
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}

// MSE is mean squared error.
type MSE struct{}

func (MSE) Name() string                     { return "MSE" }
func (MSE) GreaterIsBetter() bool            { return false }
func (MSE) NeedsProba() bool                 { return false }
func (MSE) Problems() []problems.ProblemType { return regressionOnly }

func (o MSE) Score(yTrue []float64, pred Predictions, _ Extra) (float64, error) {
	if err := checkLengths(yTrue, pred, false); err != nil {
		return 0, err
	}
	if len(yTrue) == 0 {
		return 0, errors.New("objectives: empty fold")
	}
	var sum float64
	for i, y := range yTrue {
		d := y - pred.Labels[i]
		sum += d * d
	}
	return sum / float64(len(yTrue)), nil
}

// MAE is mean absolute error.
type MAE struct{}

func (MAE) Name() string                     { return "MAE" }
func (MAE) GreaterIsBetter() bool            { return false }
func (MAE) NeedsProba() bool                 { return false }
func (MAE) Problems() []problems.ProblemType { return regressionOnly }

func (o MAE) Score(yTrue []float64, pred Predictions, _ Extra) (float64, error) {
	if err := checkLengths(yTrue, pred, false); err != nil {
		return 0, err
	}
	if len(yTrue) == 0 {
		return 0, errors.New("objectives: empty fold")
	}
	var sum float64
	for i, y := range yTrue {
		sum += math.Abs(y - pred.Labels[i])
	}
	return sum / float64(len(yTrue)), nil
}
