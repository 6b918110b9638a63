// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dataset provides the column-oriented feature matrix used by the
// search stack. NaN cells represent missing values.
package dataset

import (
	"fmt"
	"math"
)

// Table is an immutable-by-convention feature matrix with named columns.
// All columns have equal length.
//
// Thread Safety: Safe for concurrent reads. Callers must not mutate a
// Table that is shared across goroutines.
type Table struct {
	names []string
	cols  [][]float64
}

// New creates a Table from column names and column-major data.
//
// Inputs:
//   - names: One name per column, unique.
//   - cols: Column data, all the same length.
//
// Outputs:
//   - *Table: The constructed table.
//   - error: Non-nil on ragged columns or name/column count mismatch.
func New(names []string, cols [][]float64) (*Table, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("dataset: %d names for %d columns", len(names), len(cols))
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return nil, fmt.Errorf("dataset: duplicate column %q", n)
		}
		seen[n] = true
	}
	if len(cols) > 0 {
		n := len(cols[0])
		for i, c := range cols {
			if len(c) != n {
				return nil, fmt.Errorf("dataset: column %q has %d rows, want %d", names[i], len(c), n)
			}
		}
	}
	return &Table{names: names, cols: cols}, nil
}

// FromRows creates a Table from row-major data.
func FromRows(names []string, rows [][]float64) (*Table, error) {
	cols := make([][]float64, len(names))
	for i := range cols {
		cols[i] = make([]float64, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("dataset: row %d has %d values, want %d", r, len(row), len(names))
		}
		for c, v := range row {
			cols[c][r] = v
		}
	}
	return New(names, cols)
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if t == nil || len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0])
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.cols)
}

// Names returns a copy of the column names.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Column returns the data for the named column.
//
// Outputs:
//   - []float64: The column slice. Callers must treat it as read-only.
//   - error: Non-nil when the column does not exist.
func (t *Table) Column(name string) ([]float64, error) {
	for i, n := range t.names {
		if n == name {
			return t.cols[i], nil
		}
	}
	return nil, fmt.Errorf("dataset: no column %q", name)
}

// ColumnAt returns the data for the i-th column.
func (t *Table) ColumnAt(i int) []float64 {
	return t.cols[i]
}

// Row materializes the i-th row.
func (t *Table) Row(i int) []float64 {
	row := make([]float64, len(t.cols))
	for c := range t.cols {
		row[c] = t.cols[c][i]
	}
	return row
}

// Select returns a new Table containing only the given row indices, in order.
func (t *Table) Select(rows []int) *Table {
	cols := make([][]float64, len(t.cols))
	for c := range t.cols {
		cols[c] = make([]float64, len(rows))
		for i, r := range rows {
			cols[c][i] = t.cols[c][r]
		}
	}
	names := make([]string, len(t.names))
	copy(names, t.names)
	return &Table{names: names, cols: cols}
}

// SelectVector returns the elements of y at the given indices.
func SelectVector(y []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = y[r]
	}
	return out
}

// HasMissing reports whether any cell in the table is NaN.
func (t *Table) HasMissing() bool {
	for _, c := range t.cols {
		for _, v := range c {
			if math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}

// NullFraction returns the fraction of NaN cells per column, keyed by name.
func (t *Table) NullFraction() map[string]float64 {
	out := make(map[string]float64, len(t.names))
	n := t.NumRows()
	for i, name := range t.names {
		if n == 0 {
			out[name] = 0
			continue
		}
		var nulls int
		for _, v := range t.cols[i] {
			if math.IsNaN(v) {
				nulls++
			}
		}
		out[name] = float64(nulls) / float64(n)
	}
	return out
}
