// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package problems

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    ProblemType
		wantErr bool
	}{
		{"binary", Binary, false},
		{"Binary", Binary, false},
		{" multiclass ", Multiclass, false},
		{"REGRESSION", Regression, false},
		{"clustering", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, p := range All {
		got, err := Parse(p.String())
		if err != nil {
			t.Errorf("Parse(%q) error: %v", p.String(), err)
		}
		if got != p {
			t.Errorf("round trip of %v gave %v", p, got)
		}
	}
}

func TestIsClassification(t *testing.T) {
	if !Binary.IsClassification() || !Multiclass.IsClassification() {
		t.Error("binary and multiclass should be classification")
	}
	if Regression.IsClassification() {
		t.Error("regression should not be classification")
	}
}

func TestDisplay(t *testing.T) {
	if got := Binary.Display(); got != "Binary Classification" {
		t.Errorf("Binary.Display() = %q", got)
	}
	if got := Regression.Display(); got != "Regression" {
		t.Errorf("Regression.Display() = %q", got)
	}
}

func TestSupports(t *testing.T) {
	set := []ProblemType{Binary, Multiclass}
	if !Supports(set, Binary) {
		t.Error("Supports should find binary")
	}
	if Supports(set, Regression) {
		t.Error("Supports should not find regression")
	}
	if Supports(nil, Binary) {
		t.Error("empty set supports nothing")
	}
}

func TestValid(t *testing.T) {
	for _, p := range All {
		if !p.Valid() {
			t.Errorf("%v should be valid", p)
		}
	}
	if ProblemType(99).Valid() {
		t.Error("out-of-range type should be invalid")
	}
}
