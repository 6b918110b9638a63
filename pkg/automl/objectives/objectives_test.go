// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package objectives

import (
	"math"
	"testing"

	"github.com/halcyonml/autosearch/pkg/automl/problems"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRegistry(t *testing.T) {
	o, err := Get("log loss binary")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if o.Name() != "Log Loss Binary" {
		t.Errorf("Name = %q", o.Name())
	}
	if _, err := Get("no such objective"); err == nil {
		t.Error("unknown name should error")
	}
	if len(Names()) < 10 {
		t.Errorf("registry too small: %v", Names())
	}
}

func TestDefaults(t *testing.T) {
	if Default(problems.Binary).Name() != "Log Loss Binary" {
		t.Error("binary default should be log loss")
	}
	if Default(problems.Regression).Name() != "R2" {
		t.Error("regression default should be R2")
	}
	for _, p := range problems.All {
		for _, o := range DefaultAdditional(p) {
			if !Compatible(o, p) {
				t.Errorf("default additional %s incompatible with %s", o.Name(), p)
			}
			if o.Name() == Default(p).Name() {
				t.Errorf("default additional %s duplicates the primary for %s", o.Name(), p)
			}
		}
	}
}

func TestLogLossBinary(t *testing.T) {
	yTrue := []float64{1, 0}
	pred := Predictions{Proba: [][]float64{{0.2, 0.8}, {0.7, 0.3}}}
	got, err := (LogLossBinary{}).Score(yTrue, pred, nil)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	want := -(math.Log(0.8) + math.Log(0.7)) / 2
	if !almost(got, want) {
		t.Errorf("log loss = %v, want %v", got, want)
	}
}

func TestLogLossBinaryClampsHardPredictions(t *testing.T) {
	yTrue := []float64{1}
	pred := Predictions{Proba: [][]float64{{1, 0}}}
	got, err := (LogLossBinary{}).Score(yTrue, pred, nil)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("log loss must stay finite, got %v", got)
	}
}

func TestAccuracyAndF1(t *testing.T) {
	yTrue := []float64{1, 1, 0, 0}
	pred := Predictions{Labels: []float64{1, 0, 0, 1}}

	acc, err := (AccuracyBinary{}).Score(yTrue, pred, nil)
	if err != nil {
		t.Fatalf("accuracy error: %v", err)
	}
	if !almost(acc, 0.5) {
		t.Errorf("accuracy = %v, want 0.5", acc)
	}

	// tp=1 fp=1 fn=1 → F1 = 2/(2+1+1) = 0.5, precision = 0.5
	f1, _ := (F1{}).Score(yTrue, pred, nil)
	if !almost(f1, 0.5) {
		t.Errorf("f1 = %v, want 0.5", f1)
	}
	prec, _ := (Precision{}).Score(yTrue, pred, nil)
	if !almost(prec, 0.5) {
		t.Errorf("precision = %v, want 0.5", prec)
	}
}

func TestAUCPerfectAndRandom(t *testing.T) {
	yTrue := []float64{0, 0, 1, 1}
	perfect := Predictions{Proba: [][]float64{{0.9, 0.1}, {0.8, 0.2}, {0.2, 0.8}, {0.1, 0.9}}}
	got, err := (AUC{}).Score(yTrue, perfect, nil)
	if err != nil {
		t.Fatalf("AUC error: %v", err)
	}
	if !almost(got, 1.0) {
		t.Errorf("perfect ranking AUC = %v, want 1", got)
	}

	ties := Predictions{Proba: [][]float64{{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}}}
	got, err = (AUC{}).Score(yTrue, ties, nil)
	if err != nil {
		t.Fatalf("AUC error: %v", err)
	}
	if !almost(got, 0.5) {
		t.Errorf("all-ties AUC = %v, want 0.5", got)
	}
}

func TestAUCSingleClass(t *testing.T) {
	pred := Predictions{Proba: [][]float64{{0.4, 0.6}, {0.3, 0.7}}}
	if _, err := (AUC{}).Score([]float64{1, 1}, pred, nil); err == nil {
		t.Error("single-class AUC should error")
	}
}

func TestLogLossMulticlass(t *testing.T) {
	yTrue := []float64{0, 1, 2}
	pred := Predictions{Proba: [][]float64{
		{0.7, 0.2, 0.1},
		{0.1, 0.8, 0.1},
		{0.2, 0.2, 0.6},
	}}
	got, err := (LogLossMulticlass{}).Score(yTrue, pred, nil)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	want := -(math.Log(0.7) + math.Log(0.8) + math.Log(0.6)) / 3
	if !almost(got, want) {
		t.Errorf("log loss = %v, want %v", got, want)
	}
}

func TestF1Macro(t *testing.T) {
	yTrue := []float64{0, 1, 2, 0, 1, 2}
	pred := Predictions{Labels: []float64{0, 1, 2, 0, 1, 2}}
	got, err := (F1Macro{}).Score(yTrue, pred, nil)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if !almost(got, 1.0) {
		t.Errorf("perfect F1 macro = %v, want 1", got)
	}
}

func TestR2(t *testing.T) {
	yTrue := []float64{1, 2, 3, 4}
	perfect := Predictions{Labels: []float64{1, 2, 3, 4}}
	got, err := (R2{}).Score(yTrue, perfect, nil)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if !almost(got, 1.0) {
		t.Errorf("perfect R2 = %v, want 1", got)
	}

	meanOnly := Predictions{Labels: []float64{2.5, 2.5, 2.5, 2.5}}
	got, _ = (R2{}).Score(yTrue, meanOnly, nil)
	if !almost(got, 0) {
		t.Errorf("mean prediction R2 = %v, want 0", got)
	}
}

func TestMSEAndMAE(t *testing.T) {
	yTrue := []float64{0, 0}
	pred := Predictions{Labels: []float64{1, 3}}
	mse, _ := (MSE{}).Score(yTrue, pred, nil)
	if !almost(mse, 5) {
		t.Errorf("MSE = %v, want 5", mse)
	}
	mae, _ := (MAE{}).Score(yTrue, pred, nil)
	if !almost(mae, 2) {
		t.Errorf("MAE = %v, want 2", mae)
	}
}

func TestLengthMismatch(t *testing.T) {
	pred := Predictions{Labels: []float64{1}}
	if _, err := (AccuracyBinary{}).Score([]float64{1, 0}, pred, nil); err == nil {
		t.Error("length mismatch should error")
	}
	proba := Predictions{Proba: [][]float64{{0.5, 0.5}}}
	if _, err := (LogLossBinary{}).Score([]float64{1, 0}, proba, nil); err == nil {
		t.Error("probability length mismatch should error")
	}
}

func TestFraudCostThreshold(t *testing.T) {
	fc := NewFraudCost()
	yTrue := []float64{0, 1, 0, 1}
	proba := [][]float64{{0.9, 0.1}, {0.2, 0.8}, {0.6, 0.4}, {0.1, 0.9}}
	extra := Extra{fc.AmountCol: []float64{100, 500, 50, 1000}}

	threshold, err := fc.OptimizeThreshold(yTrue, proba, extra)
	if err != nil {
		t.Fatalf("OptimizeThreshold error: %v", err)
	}
	if threshold < 0 || threshold > 1 {
		t.Fatalf("threshold = %v outside [0,1]", threshold)
	}
}

func TestFraudCostMissingAmount(t *testing.T) {
	fc := NewFraudCost()
	pred := Predictions{Proba: [][]float64{{0.5, 0.5}}}
	if _, err := fc.Score([]float64{1}, pred, Extra{}); err == nil {
		t.Error("missing amount column should error")
	}
}

func TestCompatible(t *testing.T) {
	if Compatible(LogLossBinary{}, problems.Regression) {
		t.Error("binary objective should not support regression")
	}
	if !Compatible(R2{}, problems.Regression) {
		t.Error("R2 should support regression")
	}
}
