// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datachecks

import (
	"fmt"
	"math"

	"github.com/halcyonml/autosearch/pkg/automl/dataset"
	"github.com/halcyonml/autosearch/pkg/automl/problems"
)

// DefaultChecks returns the checks run when a search is started with data
// checks set to auto.
func DefaultChecks(p problems.ProblemType) []Check {
	checks := []Check{
		EmptyDataCheck{},
		HighlyNullCheck{Threshold: 0.95},
		InvalidTargetCheck{Problem: p},
	}
	if p.IsClassification() {
		checks = append(checks, ClassImbalanceCheck{Threshold: 0.1})
	}
	return checks
}

// EmptyDataCheck errors on datasets with no rows or no columns.
type EmptyDataCheck struct{}

func (EmptyDataCheck) Name() string { return "EmptyDataCheck" }

func (c EmptyDataCheck) Validate(X *dataset.Table, y []float64) []Message {
	var out []Message
	if X.NumRows() == 0 || X.NumCols() == 0 {
		out = append(out, Message{Severity: Error, Source: c.Name(),
			Text: fmt.Sprintf("input has %d rows and %d columns", X.NumRows(), X.NumCols())})
	}
	if len(y) != X.NumRows() {
		out = append(out, Message{Severity: Error, Source: c.Name(),
			Text: fmt.Sprintf("target has %d values for %d rows", len(y), X.NumRows())})
	}
	return out
}

// HighlyNullCheck warns about columns whose NaN fraction exceeds the
// threshold.
type HighlyNullCheck struct {
	Threshold float64
}

func (HighlyNullCheck) Name() string { return "HighlyNullCheck" }

func (c HighlyNullCheck) Validate(X *dataset.Table, _ []float64) []Message {
	var out []Message
	for name, frac := range X.NullFraction() {
		if frac >= c.Threshold {
			out = append(out, Message{Severity: Warning, Source: c.Name(),
				Text: fmt.Sprintf("column %q is %.0f%% null", name, frac*100)})
		}
	}
	return out
}

// InvalidTargetCheck errors when the target is incompatible with the
// problem type: NaN values anywhere, non-dense class ids for
// classification, or a class count that contradicts the category.
type InvalidTargetCheck struct {
	Problem problems.ProblemType
}

func (InvalidTargetCheck) Name() string { return "InvalidTargetCheck" }

func (c InvalidTargetCheck) Validate(_ *dataset.Table, y []float64) []Message {
	var out []Message
	classes := map[float64]bool{}
	for _, v := range y {
		if math.IsNaN(v) {
			out = append(out, Message{Severity: Error, Source: c.Name(),
				Text: "target contains missing values"})
			return out
		}
		classes[v] = true
	}
	if !c.Problem.IsClassification() {
		return out
	}
	for v := range classes {
		if v != math.Trunc(v) || v < 0 {
			out = append(out, Message{Severity: Error, Source: c.Name(),
				Text: fmt.Sprintf("class label %v is not a non-negative integer", v)})
			return out
		}
	}
	switch {
	case c.Problem == problems.Binary && len(classes) > 2:
		out = append(out, Message{Severity: Error, Source: c.Name(),
			Text: fmt.Sprintf("binary problem with %d classes", len(classes))})
	case c.Problem == problems.Multiclass && len(classes) < 3 && len(y) > 0:
		out = append(out, Message{Severity: Error, Source: c.Name(),
			Text: fmt.Sprintf("multiclass problem with %d classes", len(classes))})
	}
	return out
}

// ClassImbalanceCheck warns when the rarest class holds less than
// Threshold of the rows.
type ClassImbalanceCheck struct {
	Threshold float64
}

func (ClassImbalanceCheck) Name() string { return "ClassImbalanceCheck" }

func (c ClassImbalanceCheck) Validate(_ *dataset.Table, y []float64) []Message {
	if len(y) == 0 {
		return nil
	}
	counts := map[float64]int{}
	for _, v := range y {
		counts[v]++
	}
	var out []Message
	for class, n := range counts {
		frac := float64(n) / float64(len(y))
		if frac < c.Threshold {
			out = append(out, Message{Severity: Warning, Source: c.Name(),
				Text: fmt.Sprintf("class %v holds only %.1f%% of rows", class, frac*100)})
		}
	}
	return out
}
