// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package objectives

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/halcyonml/autosearch/pkg/automl/problems"
)

// probability clamp keeps log loss finite for hard 0/1 predictions.
const probaEpsilon = 1e-15

var binaryOnly = []problems.ProblemType{problems.Binary}

// LogLossBinary is cross-entropy loss for binary classification.
// This is the default primary objective for binary problems.
type LogLossBinary struct{}

func (LogLossBinary) Name() string                     { return "Log Loss Binary" }
func (LogLossBinary) GreaterIsBetter() bool            { return false }
func (LogLossBinary) NeedsProba() bool                 { return true }
func (LogLossBinary) Problems() []problems.ProblemType { return binaryOnly }

func (o LogLossBinary) Score(yTrue []float64, pred Predictions, _ Extra) (float64, error) {
	if err := checkLengths(yTrue, pred, true); err != nil {
		return 0, err
	}
	if len(yTrue) == 0 {
		return 0, errors.New("objectives: empty fold")
	}
	var sum float64
	for i, y := range yTrue {
		p := positiveProba(pred.Proba[i])
		p = math.Min(math.Max(p, probaEpsilon), 1-probaEpsilon)
		if y != 0 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(yTrue)), nil
}

// LogLossMulticlass is cross-entropy loss over three or more classes.
type LogLossMulticlass struct{}

func (LogLossMulticlass) Name() string          { return "Log Loss Multiclass" }
func (LogLossMulticlass) GreaterIsBetter() bool { return false }
func (LogLossMulticlass) NeedsProba() bool      { return true }
func (LogLossMulticlass) Problems() []problems.ProblemType {
	return []problems.ProblemType{problems.Multiclass}
}

func (o LogLossMulticlass) Score(yTrue []float64, pred Predictions, _ Extra) (float64, error) {
	if err := checkLengths(yTrue, pred, true); err != nil {
		return 0, err
	}
	if len(yTrue) == 0 {
		return 0, errors.New("objectives: empty fold")
	}
	var sum float64
	for i, y := range yTrue {
		k := int(y)
		if k < 0 || k >= len(pred.Proba[i]) {
			return 0, fmt.Errorf("objectives: class %d outside probability row of width %d", k, len(pred.Proba[i]))
		}
		p := math.Min(math.Max(pred.Proba[i][k], probaEpsilon), 1-probaEpsilon)
		sum -= math.Log(p)
	}
	return sum / float64(len(yTrue)), nil
}

// AccuracyBinary is the fraction of correctly labeled rows.
type AccuracyBinary struct{}

func (AccuracyBinary) Name() string                     { return "Accuracy Binary" }
func (AccuracyBinary) GreaterIsBetter() bool            { return true }
func (AccuracyBinary) NeedsProba() bool                 { return false }
func (AccuracyBinary) Problems() []problems.ProblemType { return binaryOnly }

func (o AccuracyBinary) Score(yTrue []float64, pred Predictions, _ Extra) (float64, error) {
	if err := checkLengths(yTrue, pred, false); err != nil {
		return 0, err
	}
	if len(yTrue) == 0 {
		return 0, errors.New("objectives: empty fold")
	}
	var correct int
	for i, y := range yTrue {
		if pred.Labels[i] == y {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// AccuracyMulticlass is accuracy over three or more classes.
type AccuracyMulticlass struct{}

func (AccuracyMulticlass) Name() string          { return "Accuracy Multiclass" }
func (AccuracyMulticlass) GreaterIsBetter() bool { return true }
func (AccuracyMulticlass) NeedsProba() bool      { return false }
func (AccuracyMulticlass) Problems() []problems.ProblemType {
	return []problems.ProblemType{problems.Multiclass}
}

func (o AccuracyMulticlass) Score(yTrue []float64, pred Predictions, extra Extra) (float64, error) {
	return AccuracyBinary{}.Score(yTrue, pred, extra)
}

// F1 is the harmonic mean of precision and recall for the positive class.
type F1 struct{}

func (F1) Name() string                     { return "F1" }
func (F1) GreaterIsBetter() bool            { return true }
func (F1) NeedsProba() bool                 { return false }
func (F1) Problems() []problems.ProblemType { return binaryOnly }

func (o F1) Score(yTrue []float64, pred Predictions, _ Extra) (float64, error) {
	if err := checkLengths(yTrue, pred, false); err != nil {
		return 0, err
	}
	tp, fp, fn := confusion(yTrue, pred.Labels)
	if 2*tp+fp+fn == 0 {
		return 0, nil
	}
	return 2 * float64(tp) / float64(2*tp+fp+fn), nil
}

// Precision is tp / (tp + fp) for the positive class.
type Precision struct{}

func (Precision) Name() string                     { return "Precision" }
func (Precision) GreaterIsBetter() bool            { return true }
func (Precision) NeedsProba() bool                 { return false }
func (Precision) Problems() []problems.ProblemType { return binaryOnly }

func (o Precision) Score(yTrue []float64, pred Predictions, _ Extra) (float64, error) {
	if err := checkLengths(yTrue, pred, false); err != nil {
		return 0, err
	}
	tp, fp, _ := confusion(yTrue, pred.Labels)
	if tp+fp == 0 {
		return 0, nil
	}
	return float64(tp) / float64(tp+fp), nil
}

// F1Macro is unweighted mean of per-class F1 scores.
type F1Macro struct{}

func (F1Macro) Name() string          { return "F1 Macro" }
func (F1Macro) GreaterIsBetter() bool { return true }
func (F1Macro) NeedsProba() bool      { return false }
func (F1Macro) Problems() []problems.ProblemType {
	return []problems.ProblemType{problems.Multiclass}
}

func (o F1Macro) Score(yTrue []float64, pred Predictions, _ Extra) (float64, error) {
	if err := checkLengths(yTrue, pred, false); err != nil {
		return 0, err
	}
	classes := map[float64]bool{}
	for _, y := range yTrue {
		classes[y] = true
	}
	if len(classes) == 0 {
		return 0, errors.New("objectives: empty fold")
	}
	var total float64
	for c := range classes {
		var tp, fp, fn int
		for i, y := range yTrue {
			p := pred.Labels[i]
			switch {
			case p == c && y == c:
				tp++
			case p == c && y != c:
				fp++
			case p != c && y == c:
				fn++
			}
		}
		if 2*tp+fp+fn > 0 {
			total += 2 * float64(tp) / float64(2*tp+fp+fn)
		}
	}
	return total / float64(len(classes)), nil
}

// AUC is the area under the ROC curve, computed by the rank statistic.
type AUC struct{}

func (AUC) Name() string                     { return "AUC" }
func (AUC) GreaterIsBetter() bool            { return true }
func (AUC) NeedsProba() bool                 { return true }
func (AUC) Problems() []problems.ProblemType { return binaryOnly }

func (o AUC) Score(yTrue []float64, pred Predictions, _ Extra) (float64, error) {
	if err := checkLengths(yTrue, pred, true); err != nil {
		return 0, err
	}
	type scored struct {
		p   float64
		pos bool
	}
	rows := make([]scored, len(yTrue))
	var nPos, nNeg int
	for i, y := range yTrue {
		rows[i] = scored{p: positiveProba(pred.Proba[i]), pos: y != 0}
		if y != 0 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0, errors.New("objectives: AUC undefined with a single class present")
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].p < rows[j].p })
	// Rank sum with midranks for ties.
	var rankSum float64
	i := 0
	for i < len(rows) {
		j := i
		for j < len(rows) && rows[j].p == rows[i].p {
			j++
		}
		midrank := float64(i+j+1) / 2 // average of 1-based ranks i+1..j
		for k := i; k < j; k++ {
			if rows[k].pos {
				rankSum += midrank
			}
		}
		i = j
	}
	auc := (rankSum - float64(nPos)*(float64(nPos)+1)/2) / (float64(nPos) * float64(nNeg))
	return auc, nil
}

// confusion computes positive-class tp/fp/fn treating nonzero labels as
// positive.
func confusion(yTrue, yPred []float64) (tp, fp, fn int) {
	for i, y := range yTrue {
		p := yPred[i]
		switch {
		case p != 0 && y != 0:
			tp++
		case p != 0 && y == 0:
			fp++
		case p == 0 && y != 0:
			fn++
		}
	}
	return tp, fp, fn
}

// positiveProba extracts the positive-class probability from a probability
// row, tolerating both one-column and two-column layouts.
func positiveProba(row []float64) float64 {
	if len(row) >= 2 {
		return row[1]
	}
	if len(row) == 1 {
		return row[0]
	}
	return math.NaN()
}
