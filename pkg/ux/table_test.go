// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"strings"
	"testing"
)

func TestTableRenderPlain(t *testing.T) {
	table := NewTable(false, "id", "pipeline", "score")
	table.AddRow("0", "Baseline", "0.693")
	table.AddRow("1", "Logistic Regression", "0.412")

	out := table.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator, and 2 rows; got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "id") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[3], "Logistic Regression") {
		t.Errorf("row = %q", lines[3])
	}
	// Columns align on the widest cell.
	if !strings.Contains(lines[2], "Baseline            ") {
		t.Errorf("short cell should be padded: %q", lines[2])
	}
}

func TestTablePadsShortRows(t *testing.T) {
	table := NewTable(false, "a", "b", "c")
	table.AddRow("only")
	out := table.Render()
	if !strings.Contains(out, "only") {
		t.Fatalf("missing cell in output:\n%s", out)
	}
}
