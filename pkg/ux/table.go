// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders a simple left-aligned text table. With styling enabled
// the header row is highlighted; without it the output is plain text
// suitable for piping.
type Table struct {
	headers []string
	rows    [][]string
	styled  bool
}

// NewTable creates a table with the given header row. styled should
// come from IsTerminal().
func NewTable(styled bool, headers ...string) *Table {
	return &Table{headers: headers, styled: styled}
}

// AddRow appends one row. Short rows are padded with empty cells.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Render returns the formatted table.
func (t *Table) Render() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	header := t.formatRow(t.headers, widths)
	if t.styled {
		header = Styles.Header.Render(header)
	}
	b.WriteString(header)
	b.WriteByte('\n')
	b.WriteString(t.separator(widths))
	b.WriteByte('\n')
	for _, row := range t.rows {
		b.WriteString(t.formatRow(row, widths))
		b.WriteByte('\n')
	}
	return b.String()
}

func (t *Table) formatRow(cells []string, widths []int) string {
	out := make([]string, len(cells))
	for i, cell := range cells {
		out[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
	}
	return strings.TrimRight(strings.Join(out, "  "), " ")
}

func (t *Table) separator(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	return strings.Join(parts, "  ")
}
