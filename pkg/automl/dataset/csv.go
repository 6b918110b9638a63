// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ReadCSV parses a headered CSV stream into a feature table and target
// vector. The named target column is split out; every other column
// becomes a feature. Empty cells and the literal strings "nan"/"null"
// (any case) parse as missing values.
func ReadCSV(r io.Reader, targetCol string) (*Table, []float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: reading CSV header: %w", err)
	}
	targetIdx := -1
	for i, name := range header {
		if name == targetCol {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return nil, nil, fmt.Errorf("dataset: no target column %q in header", targetCol)
	}

	names := make([]string, 0, len(header)-1)
	for i, name := range header {
		if i != targetIdx {
			names = append(names, name)
		}
	}

	var rows [][]float64
	var y []float64
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("dataset: reading CSV: %w", err)
		}
		line++
		if len(record) != len(header) {
			return nil, nil, fmt.Errorf("dataset: line %d has %d fields, want %d",
				line, len(record), len(header))
		}
		row := make([]float64, 0, len(names))
		for i, cell := range record {
			v, err := parseCell(cell)
			if err != nil {
				return nil, nil, fmt.Errorf("dataset: line %d column %q: %w", line, header[i], err)
			}
			if i == targetIdx {
				y = append(y, v)
			} else {
				row = append(row, v)
			}
		}
		rows = append(rows, row)
	}

	t, err := FromRows(names, rows)
	if err != nil {
		return nil, nil, err
	}
	return t, y, nil
}

func parseCell(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	switch strings.ToLower(s) {
	case "", "nan", "null", "na":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", cell)
	}
	return v, nil
}
