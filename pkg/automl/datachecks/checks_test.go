// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datachecks

import (
	"math"
	"strings"
	"testing"

	"github.com/halcyonml/autosearch/pkg/automl/dataset"
	"github.com/halcyonml/autosearch/pkg/automl/problems"
)

func table(t *testing.T, rows [][]float64, names ...string) *dataset.Table {
	t.Helper()
	tab, err := dataset.FromRows(names, rows)
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return tab
}

func TestEmptyDataCheck(t *testing.T) {
	tab, _ := dataset.New(nil, nil)
	msgs := (EmptyDataCheck{}).Validate(tab, nil)
	if len(msgs) == 0 {
		t.Fatal("empty table should produce findings")
	}
	if msgs[0].Severity != Error {
		t.Errorf("severity = %v, want error", msgs[0].Severity)
	}
}

func TestEmptyDataCheckLengthMismatch(t *testing.T) {
	tab := table(t, [][]float64{{1}, {2}}, "a")
	msgs := (EmptyDataCheck{}).Validate(tab, []float64{0})
	if len(msgs) != 1 {
		t.Fatalf("expected one finding, got %d", len(msgs))
	}
}

func TestHighlyNullCheck(t *testing.T) {
	tab := table(t, [][]float64{
		{math.NaN(), 1},
		{math.NaN(), 2},
		{math.NaN(), 3},
	}, "mostly_null", "fine")
	msgs := (HighlyNullCheck{Threshold: 0.95}).Validate(tab, nil)
	if len(msgs) != 1 {
		t.Fatalf("expected one warning, got %d", len(msgs))
	}
	if msgs[0].Severity != Warning {
		t.Errorf("severity = %v, want warning", msgs[0].Severity)
	}
	if !strings.Contains(msgs[0].Text, "mostly_null") {
		t.Errorf("finding should name the column: %q", msgs[0].Text)
	}
}

func TestInvalidTargetNaN(t *testing.T) {
	c := InvalidTargetCheck{Problem: problems.Binary}
	msgs := c.Validate(nil, []float64{0, math.NaN(), 1})
	if len(msgs) != 1 || msgs[0].Severity != Error {
		t.Fatalf("NaN target should be one error finding, got %+v", msgs)
	}
}

func TestInvalidTargetNonIntegerClass(t *testing.T) {
	c := InvalidTargetCheck{Problem: problems.Binary}
	if msgs := c.Validate(nil, []float64{0, 0.5, 1}); len(msgs) != 1 {
		t.Fatalf("fractional class id should error, got %+v", msgs)
	}
}

func TestInvalidTargetClassCount(t *testing.T) {
	binary := InvalidTargetCheck{Problem: problems.Binary}
	if msgs := binary.Validate(nil, []float64{0, 1, 2}); len(msgs) != 1 {
		t.Errorf("three classes for binary should error, got %+v", msgs)
	}
	multi := InvalidTargetCheck{Problem: problems.Multiclass}
	if msgs := multi.Validate(nil, []float64{0, 1, 0, 1}); len(msgs) != 1 {
		t.Errorf("two classes for multiclass should error, got %+v", msgs)
	}
	regression := InvalidTargetCheck{Problem: problems.Regression}
	if msgs := regression.Validate(nil, []float64{0.1, 2.5, -3}); len(msgs) != 0 {
		t.Errorf("continuous target is fine for regression, got %+v", msgs)
	}
}

func TestClassImbalanceCheck(t *testing.T) {
	y := make([]float64, 100)
	for i := 95; i < 100; i++ {
		y[i] = 1
	}
	msgs := (ClassImbalanceCheck{Threshold: 0.1}).Validate(nil, y)
	if len(msgs) != 1 || msgs[0].Severity != Warning {
		t.Fatalf("5%% minority should warn, got %+v", msgs)
	}
}

func TestRunAndCompositeError(t *testing.T) {
	tab := table(t, [][]float64{{1}, {2}}, "a")
	checks := DefaultChecks(problems.Binary)
	msgs := Run(checks, tab, []float64{0, math.NaN()})
	errs := Errors(msgs)
	if len(errs) == 0 {
		t.Fatal("expected error findings")
	}
	err := CompositeError(errs)
	if err == nil {
		t.Fatal("CompositeError should be non-nil")
	}
	if !strings.Contains(err.Error(), "InvalidTargetCheck") {
		t.Errorf("composite error should name the source check: %v", err)
	}
	if CompositeError(nil) != nil {
		t.Error("CompositeError(nil) should be nil")
	}
}

func TestDefaultChecksPerProblem(t *testing.T) {
	forBinary := DefaultChecks(problems.Binary)
	forRegression := DefaultChecks(problems.Regression)
	if len(forBinary) != len(forRegression)+1 {
		t.Errorf("classification should add the imbalance check: %d vs %d",
			len(forBinary), len(forRegression))
	}
}
