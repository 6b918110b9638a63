// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package objectives

import (
	"fmt"
	"math"

	"github.com/halcyonml/autosearch/pkg/automl/problems"
)

// FraudCost estimates the dollar cost of fraud decisions. A false negative
// pays out the fraudulent amount; a false positive loses interchange fees
// on the blocked legitimate transaction. Lower is better.
//
// FraudCost consumes an extra data column carrying transaction amounts and
// supports threshold optimization over probability predictions.
type FraudCost struct {
	// RetryPercentage is the fraction of blocked legitimate customers who
	// retry their transaction (their fees are not lost).
	RetryPercentage float64

	// InterchangeFee is the fee rate earned on a processed transaction.
	InterchangeFee float64

	// FraudPayoutPercentage is the fraction of a fraudulent amount paid
	// out when fraud is missed.
	FraudPayoutPercentage float64

	// AmountCol names the extra column carrying transaction amounts.
	AmountCol string
}

// NewFraudCost returns a FraudCost with conventional defaults.
func NewFraudCost() FraudCost {
	return FraudCost{
		RetryPercentage:       0.5,
		InterchangeFee:        0.02,
		FraudPayoutPercentage: 1.0,
		AmountCol:             "amount",
	}
}

func (FraudCost) Name() string                     { return "Fraud Cost" }
func (FraudCost) GreaterIsBetter() bool            { return false }
func (FraudCost) NeedsProba() bool                 { return true }
func (FraudCost) Problems() []problems.ProblemType { return binaryOnly }

// Score computes the fraud cost at threshold 0.5.
func (o FraudCost) Score(yTrue []float64, pred Predictions, extra Extra) (float64, error) {
	return o.ScoreForThreshold(yTrue, pred.Proba, extra, 0.5)
}

// ScoreForThreshold computes the fraud cost for an explicit threshold.
func (o FraudCost) ScoreForThreshold(yTrue []float64, proba [][]float64, extra Extra, threshold float64) (float64, error) {
	amounts, ok := extra[o.AmountCol]
	if !ok {
		return 0, fmt.Errorf("objectives: fraud cost needs extra column %q", o.AmountCol)
	}
	if len(amounts) != len(yTrue) || len(proba) != len(yTrue) {
		return 0, fmt.Errorf("objectives: fraud cost got %d amounts and %d probability rows for %d labels",
			len(amounts), len(proba), len(yTrue))
	}
	var loss float64
	for i, y := range yTrue {
		flagged := positiveProba(proba[i]) > threshold
		switch {
		case y != 0 && !flagged:
			loss += amounts[i] * o.FraudPayoutPercentage
		case y == 0 && flagged:
			loss += amounts[i] * (1 - o.RetryPercentage) * o.InterchangeFee
		}
	}
	return loss, nil
}

// OptimizeThreshold minimizes the fraud cost over thresholds in [0, 1]
// using a coarse scan refined by golden-section search.
func (o FraudCost) OptimizeThreshold(yTrue []float64, proba [][]float64, extra Extra) (float64, error) {
	cost := func(t float64) (float64, error) {
		return o.ScoreForThreshold(yTrue, proba, extra, t)
	}

	// Coarse scan locates the basin; cost is piecewise constant in the
	// threshold so a pure local search can stall on a plateau.
	const steps = 100
	best, bestT := math.Inf(1), 0.5
	for i := 0; i <= steps; i++ {
		t := float64(i) / steps
		c, err := cost(t)
		if err != nil {
			return 0, err
		}
		if c < best {
			best, bestT = c, t
		}
	}

	lo := math.Max(0, bestT-1.0/steps)
	hi := math.Min(1, bestT+1.0/steps)
	const phi = 0.6180339887498949
	for hi-lo > 1e-6 {
		a := hi - (hi-lo)*phi
		b := lo + (hi-lo)*phi
		ca, err := cost(a)
		if err != nil {
			return 0, err
		}
		cb, err := cost(b)
		if err != nil {
			return 0, err
		}
		if ca <= cb {
			hi = b
		} else {
			lo = a
		}
	}
	t := (lo + hi) / 2
	if c, err := cost(t); err != nil {
		return 0, err
	} else if c > best {
		return bestT, nil
	}
	return t, nil
}

var _ ThresholdOptimizer = FraudCost{}
