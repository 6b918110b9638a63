// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datachecks validates a dataset before a search starts.
//
// Checks return warnings and errors; the orchestrator aggregates error
// findings from all checks into one composite failure and logs warnings
// without blocking.
package datachecks

import (
	"fmt"
	"strings"

	"github.com/halcyonml/autosearch/pkg/automl/dataset"
)

// Severity classifies a finding.
type Severity int

const (
	// Warning findings are surfaced but do not block the search.
	Warning Severity = iota

	// Error findings abort the search before any candidate is evaluated.
	Error
)

// String returns "warning" or "error".
func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Message is one finding from a data check.
type Message struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"message"`
	Source   string   `json:"source"`
}

// Check inspects a dataset ahead of a search.
type Check interface {
	// Name identifies the check in findings.
	Name() string

	// Validate returns findings for the dataset. An empty slice means
	// the check passed.
	Validate(X *dataset.Table, y []float64) []Message
}

// Run executes checks in order and concatenates their findings.
func Run(checks []Check, X *dataset.Table, y []float64) []Message {
	var out []Message
	for _, c := range checks {
		out = append(out, c.Validate(X, y)...)
	}
	return out
}

// Errors filters a finding list down to error severity.
func Errors(msgs []Message) []Message {
	var out []Message
	for _, m := range msgs {
		if m.Severity == Error {
			out = append(out, m)
		}
	}
	return out
}

// CompositeError formats error findings into a single error value.
func CompositeError(errs []Message) error {
	if len(errs) == 0 {
		return nil
	}
	texts := make([]string, len(errs))
	for i, m := range errs {
		texts[i] = fmt.Sprintf("%s: %s", m.Source, m.Text)
	}
	return fmt.Errorf("data checks raised %d error(s): %s", len(errs), strings.Join(texts, "; "))
}
