// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package automl

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/halcyonml/autosearch/pkg/automl/pipeline"
)

func TestResultJSONRoundTripWithNaN(t *testing.T) {
	threshold := 0.42
	in := PipelineResult{
		ID:              3,
		PipelineName:    "A",
		PipelineSummary: "A w/ B",
		Parameters:      pipeline.Parameters{"Est": {"k": 5}},
		Score:           math.NaN(),
		HighVarianceCV:  true,
		TrainingTime:    1500 * time.Millisecond,
		CVData: []FoldData{
			{
				AllObjectiveScores:            map[string]float64{"obj": 0.5, "aux": math.NaN()},
				Score:                         0.5,
				BinaryClassificationThreshold: &threshold,
				NumTraining:                   8,
				NumTesting:                    2,
			},
			{
				AllObjectiveScores: map[string]float64{"obj": math.NaN()},
				Score:              math.NaN(),
				NumTraining:        8,
				NumTesting:         2,
			},
		},
	}

	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"score":null`) {
		t.Errorf("NaN score should encode as null: %s", raw)
	}

	var out PipelineResult
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !math.IsNaN(out.Score) {
		t.Errorf("decoded score = %v, want NaN", out.Score)
	}
	if out.TrainingTime != in.TrainingTime {
		t.Errorf("training time = %v, want %v", out.TrainingTime, in.TrainingTime)
	}
	if len(out.CVData) != 2 {
		t.Fatalf("cv data len = %d", len(out.CVData))
	}
	if out.CVData[0].Score != 0.5 || !math.IsNaN(out.CVData[0].AllObjectiveScores["aux"]) {
		t.Errorf("fold 0 decoded wrong: %+v", out.CVData[0])
	}
	if out.CVData[0].BinaryClassificationThreshold == nil ||
		*out.CVData[0].BinaryClassificationThreshold != threshold {
		t.Error("threshold lost in round trip")
	}
	if !math.IsNaN(out.CVData[1].Score) || out.CVData[1].NumTraining != 8 {
		t.Errorf("fold 1 decoded wrong: %+v", out.CVData[1])
	}
}

func TestResultsSnapshotJSON(t *testing.T) {
	in := Results{
		PipelineResults: map[int]PipelineResult{
			0: {ID: 0, PipelineName: "A", Score: 0.1, Parameters: pipeline.Parameters{}},
		},
		SearchOrder: []int{0},
	}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out Results
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(out.SearchOrder) != 1 || out.PipelineResults[0].PipelineName != "A" {
		t.Errorf("round trip lost data: %+v", out)
	}
}
