// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/halcyonml/autosearch/pkg/automl/dataset"
)

// SimpleImputer replaces NaN cells with a per-column statistic.
type SimpleImputer struct {
	Strategy string // mean, median, most_frequent
	fill     []float64
	names    []string
}

// NewSimpleImputer builds an imputer from component parameters.
func NewSimpleImputer(params map[string]any, _ uint64) (any, error) {
	s := paramString(params, "impute_strategy", "mean")
	switch s {
	case "mean", "median", "most_frequent":
	default:
		return nil, fmt.Errorf("invalid impute_strategy %q", s)
	}
	return &SimpleImputer{Strategy: s}, nil
}

func (im *SimpleImputer) Fit(X *dataset.Table, _ []float64) error {
	im.names = X.Names()
	im.fill = make([]float64, X.NumCols())
	for c := 0; c < X.NumCols(); c++ {
		col := X.ColumnAt(c)
		var present []float64
		for _, v := range col {
			if !math.IsNaN(v) {
				present = append(present, v)
			}
		}
		if len(present) == 0 {
			im.fill[c] = 0
			continue
		}
		switch im.Strategy {
		case "median":
			sort.Float64s(present)
			im.fill[c] = present[len(present)/2]
		case "most_frequent":
			counts := map[float64]int{}
			best, bestN := present[0], 0
			for _, v := range present {
				counts[v]++
				if counts[v] > bestN {
					best, bestN = v, counts[v]
				}
			}
			im.fill[c] = best
		default:
			var sum float64
			for _, v := range present {
				sum += v
			}
			im.fill[c] = sum / float64(len(present))
		}
	}
	return nil
}

func (im *SimpleImputer) Transform(X *dataset.Table) (*dataset.Table, error) {
	if im.fill == nil {
		return nil, fmt.Errorf("imputer is not fitted")
	}
	cols := make([][]float64, X.NumCols())
	for c := 0; c < X.NumCols(); c++ {
		src := X.ColumnAt(c)
		dst := make([]float64, len(src))
		for i, v := range src {
			if math.IsNaN(v) {
				dst[i] = im.fill[c]
			} else {
				dst[i] = v
			}
		}
		cols[c] = dst
	}
	return dataset.New(X.Names(), cols)
}

// StandardScaler centers columns to zero mean and unit variance.
type StandardScaler struct {
	mean, std []float64
}

// NewStandardScaler builds a scaler; it has no tunable parameters.
func NewStandardScaler(_ map[string]any, _ uint64) (any, error) {
	return &StandardScaler{}, nil
}

func (s *StandardScaler) Fit(X *dataset.Table, _ []float64) error {
	n := X.NumRows()
	s.mean = make([]float64, X.NumCols())
	s.std = make([]float64, X.NumCols())
	for c := 0; c < X.NumCols(); c++ {
		col := X.ColumnAt(c)
		var sum float64
		for _, v := range col {
			sum += v
		}
		m := sum / float64(max(n, 1))
		var ss float64
		for _, v := range col {
			d := v - m
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(max(n, 1)))
		if sd == 0 {
			sd = 1
		}
		s.mean[c], s.std[c] = m, sd
	}
	return nil
}

func (s *StandardScaler) Transform(X *dataset.Table) (*dataset.Table, error) {
	if s.mean == nil {
		return nil, fmt.Errorf("scaler is not fitted")
	}
	cols := make([][]float64, X.NumCols())
	for c := 0; c < X.NumCols(); c++ {
		src := X.ColumnAt(c)
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = (v - s.mean[c]) / s.std[c]
		}
		cols[c] = dst
	}
	return dataset.New(X.Names(), cols)
}

// SelectFromModel keeps the columns most correlated with the target. The
// number of surviving columns is number_features scaled by
// percent_features, with a floor of one column.
type SelectFromModel struct {
	NumberFeatures  int
	PercentFeatures float64
	keep            []int
}

// NewSelectFromModel builds a selector from component parameters.
func NewSelectFromModel(params map[string]any, _ uint64) (any, error) {
	pf := paramFloat(params, "percent_features", 0.5)
	if pf <= 0 || pf > 1 {
		return nil, fmt.Errorf("percent_features %v outside (0, 1]", pf)
	}
	return &SelectFromModel{
		NumberFeatures:  paramInt(params, "number_features", 0),
		PercentFeatures: pf,
	}, nil
}

func (s *SelectFromModel) Fit(X *dataset.Table, y []float64) error {
	total := X.NumCols()
	nf := s.NumberFeatures
	if nf <= 0 || nf > total {
		nf = total
	}
	k := int(math.Ceil(float64(nf) * s.PercentFeatures))
	if k < 1 {
		k = 1
	}
	if k > total {
		k = total
	}
	type ranked struct {
		col   int
		score float64
	}
	scores := make([]ranked, total)
	for c := 0; c < total; c++ {
		scores[c] = ranked{col: c, score: math.Abs(correlation(X.ColumnAt(c), y))}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	s.keep = make([]int, k)
	for i := 0; i < k; i++ {
		s.keep[i] = scores[i].col
	}
	sort.Ints(s.keep)
	return nil
}

func (s *SelectFromModel) Transform(X *dataset.Table) (*dataset.Table, error) {
	if s.keep == nil {
		return nil, fmt.Errorf("selector is not fitted")
	}
	names := X.Names()
	outNames := make([]string, len(s.keep))
	cols := make([][]float64, len(s.keep))
	for i, c := range s.keep {
		outNames[i] = names[c]
		cols[i] = X.ColumnAt(c)
	}
	return dataset.New(outNames, cols)
}

// correlation is the Pearson correlation between x and y, with NaN cells
// treated as zero contribution and a zero-variance guard.
func correlation(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}
	var sx, sy float64
	for i := 0; i < n; i++ {
		xi, yi := x[i], y[i]
		if math.IsNaN(xi) {
			xi = 0
		}
		sx += xi
		sy += yi
	}
	mx, my := sx/float64(n), sy/float64(n)
	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		xi := x[i]
		if math.IsNaN(xi) {
			xi = 0
		}
		dx, dy := xi-mx, y[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}
