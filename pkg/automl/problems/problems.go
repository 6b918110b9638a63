// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package problems defines the supported problem categories.
//
// Every collaborator in the search stack (pipelines, objectives, data
// checks) declares which problem types it supports, and the orchestrator
// validates compatibility eagerly at construction time.
package problems

import (
	"fmt"
	"strings"
)

// ProblemType identifies the category of supervised learning problem.
type ProblemType int

const (
	// Binary is two-class classification.
	Binary ProblemType = iota

	// Multiclass is classification with three or more classes.
	Multiclass

	// Regression is continuous-target prediction.
	Regression
)

// All lists every supported problem type.
var All = []ProblemType{Binary, Multiclass, Regression}

// String returns the canonical lowercase name.
func (p ProblemType) String() string {
	switch p {
	case Binary:
		return "binary"
	case Multiclass:
		return "multiclass"
	case Regression:
		return "regression"
	default:
		return "unknown"
	}
}

// Display returns the human-readable name used in reports.
func (p ProblemType) Display() string {
	switch p {
	case Binary:
		return "Binary Classification"
	case Multiclass:
		return "Multiclass Classification"
	case Regression:
		return "Regression"
	default:
		return "Unknown"
	}
}

// IsClassification reports whether p is a classification problem.
func (p ProblemType) IsClassification() bool {
	return p == Binary || p == Multiclass
}

// Valid reports whether p is one of the supported problem types.
func (p ProblemType) Valid() bool {
	return p >= Binary && p <= Regression
}

// Parse converts a string such as "binary" to a ProblemType.
//
// Outputs:
//   - ProblemType: The parsed type.
//   - error: Non-nil when the name does not match a supported type.
func Parse(s string) (ProblemType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "binary":
		return Binary, nil
	case "multiclass":
		return Multiclass, nil
	case "regression":
		return Regression, nil
	default:
		return 0, fmt.Errorf("choose one of (binary, multiclass, regression) as problem type, got %q", s)
	}
}

// Supports reports whether want appears in the supported set.
func Supports(supported []ProblemType, want ProblemType) bool {
	for _, p := range supported {
		if p == want {
			return true
		}
	}
	return false
}
