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
	"time"

	"github.com/halcyonml/autosearch/pkg/automl/pipeline"
)

// Contained candidates carry NaN scores, which encoding/json rejects.
// The persisted and API-served forms map NaN to null and back.

type foldDataJSON struct {
	AllObjectiveScores map[string]*float64 `json:"all_objective_scores"`
	Score              *float64            `json:"score"`
	Threshold          *float64            `json:"binary_classification_threshold,omitempty"`
	NumTraining        int                 `json:"num_training"`
	NumTesting         int                 `json:"num_testing"`
}

func (fd FoldData) MarshalJSON() ([]byte, error) {
	out := foldDataJSON{
		Score:       nanToNull(fd.Score),
		Threshold:   fd.BinaryClassificationThreshold,
		NumTraining: fd.NumTraining,
		NumTesting:  fd.NumTesting,
	}
	if fd.AllObjectiveScores != nil {
		out.AllObjectiveScores = make(map[string]*float64, len(fd.AllObjectiveScores))
		for k, v := range fd.AllObjectiveScores {
			out.AllObjectiveScores[k] = nanToNull(v)
		}
	}
	return json.Marshal(out)
}

func (fd *FoldData) UnmarshalJSON(data []byte) error {
	var in foldDataJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	fd.Score = nullToNaN(in.Score)
	fd.BinaryClassificationThreshold = in.Threshold
	fd.NumTraining = in.NumTraining
	fd.NumTesting = in.NumTesting
	fd.AllObjectiveScores = nil
	if in.AllObjectiveScores != nil {
		fd.AllObjectiveScores = make(map[string]float64, len(in.AllObjectiveScores))
		for k, v := range in.AllObjectiveScores {
			fd.AllObjectiveScores[k] = nullToNaN(v)
		}
	}
	return nil
}

type pipelineResultJSON struct {
	ID              int                 `json:"id"`
	PipelineName    string              `json:"pipeline_name"`
	PipelineSummary string              `json:"pipeline_summary"`
	Parameters      pipeline.Parameters `json:"parameters"`
	Score           *float64            `json:"score"`
	HighVarianceCV  bool                `json:"high_variance_cv"`
	TrainingTimeNS  int64               `json:"training_time_ns"`
	CVData          []FoldData          `json:"cv_data"`
}

func (r PipelineResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(pipelineResultJSON{
		ID:              r.ID,
		PipelineName:    r.PipelineName,
		PipelineSummary: r.PipelineSummary,
		Parameters:      r.Parameters,
		Score:           nanToNull(r.Score),
		HighVarianceCV:  r.HighVarianceCV,
		TrainingTimeNS:  int64(r.TrainingTime),
		CVData:          r.CVData,
	})
}

func (r *PipelineResult) UnmarshalJSON(data []byte) error {
	var in pipelineResultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.ID = in.ID
	r.PipelineName = in.PipelineName
	r.PipelineSummary = in.PipelineSummary
	r.Parameters = in.Parameters
	r.Score = nullToNaN(in.Score)
	r.HighVarianceCV = in.HighVarianceCV
	r.TrainingTime = time.Duration(in.TrainingTimeNS)
	r.CVData = in.CVData
	return nil
}

func nanToNull(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func nullToNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
