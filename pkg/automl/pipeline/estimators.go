// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/halcyonml/autosearch/pkg/automl/dataset"
)

// Classification targets are dense class ids 0..K-1; probability column k
// corresponds to class k throughout.

// classIndex extracts the sorted distinct class values from y and verifies
// they are dense integer ids.
func classIndex(y []float64) ([]float64, error) {
	if len(y) == 0 {
		return nil, errors.New("empty target")
	}
	seen := map[float64]bool{}
	for _, v := range y {
		if v != math.Trunc(v) || v < 0 {
			return nil, fmt.Errorf("class label %v is not a non-negative integer", v)
		}
		seen[v] = true
	}
	classes := make([]float64, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Float64s(classes)
	for i, v := range classes {
		if v != float64(i) {
			return nil, fmt.Errorf("class labels must be dense 0..K-1, got %v", classes)
		}
	}
	return classes, nil
}

// -----------------------------------------------------------------------------
// Baselines
// -----------------------------------------------------------------------------

// BaselineClassifier ignores features. Strategy "mode" predicts the most
// frequent class; "random_weighted" samples labels from the training class
// distribution. Probabilities are the training class frequencies either way.
type BaselineClassifier struct {
	Strategy string
	rng      *rand.Rand
	freqs    []float64
	mode     float64
}

// NewBaselineClassifier builds a baseline classifier from parameters.
func NewBaselineClassifier(params map[string]any, seed uint64) (any, error) {
	s := paramString(params, "strategy", "mode")
	switch s {
	case "mode", "random_weighted":
	default:
		return nil, fmt.Errorf("invalid baseline strategy %q", s)
	}
	return &BaselineClassifier{Strategy: s, rng: rand.New(rand.NewPCG(seed, 0))}, nil
}

func (b *BaselineClassifier) Fit(_ *dataset.Table, y []float64) error {
	classes, err := classIndex(y)
	if err != nil {
		return err
	}
	b.freqs = make([]float64, len(classes))
	for _, v := range y {
		b.freqs[int(v)]++
	}
	bestK, bestN := 0, 0.0
	for k, n := range b.freqs {
		if n > bestN {
			bestK, bestN = k, n
		}
		b.freqs[k] = n // counts for now
	}
	for k := range b.freqs {
		b.freqs[k] /= float64(len(y))
	}
	b.mode = float64(bestK)
	return nil
}

func (b *BaselineClassifier) Predict(X *dataset.Table) ([]float64, error) {
	if b.freqs == nil {
		return nil, errors.New("baseline classifier is not fitted")
	}
	out := make([]float64, X.NumRows())
	for i := range out {
		if b.Strategy == "random_weighted" {
			out[i] = b.sample()
		} else {
			out[i] = b.mode
		}
	}
	return out, nil
}

func (b *BaselineClassifier) sample() float64 {
	u := b.rng.Float64()
	var cum float64
	for k, f := range b.freqs {
		cum += f
		if u < cum {
			return float64(k)
		}
	}
	return float64(len(b.freqs) - 1)
}

func (b *BaselineClassifier) PredictProba(X *dataset.Table) ([][]float64, error) {
	if b.freqs == nil {
		return nil, errors.New("baseline classifier is not fitted")
	}
	out := make([][]float64, X.NumRows())
	for i := range out {
		out[i] = append([]float64(nil), b.freqs...)
	}
	return out, nil
}

// BaselineRegressor ignores features and predicts the training mean or
// median.
type BaselineRegressor struct {
	Strategy string
	value    float64
	fitted   bool
}

// NewBaselineRegressor builds a baseline regressor from parameters.
func NewBaselineRegressor(params map[string]any, _ uint64) (any, error) {
	s := paramString(params, "strategy", "mean")
	switch s {
	case "mean", "median":
	default:
		return nil, fmt.Errorf("invalid baseline strategy %q", s)
	}
	return &BaselineRegressor{Strategy: s}, nil
}

func (b *BaselineRegressor) Fit(_ *dataset.Table, y []float64) error {
	if len(y) == 0 {
		return errors.New("empty target")
	}
	if b.Strategy == "median" {
		s := append([]float64(nil), y...)
		sort.Float64s(s)
		b.value = s[len(s)/2]
	} else {
		var sum float64
		for _, v := range y {
			sum += v
		}
		b.value = sum / float64(len(y))
	}
	b.fitted = true
	return nil
}

func (b *BaselineRegressor) Predict(X *dataset.Table) ([]float64, error) {
	if !b.fitted {
		return nil, errors.New("baseline regressor is not fitted")
	}
	out := make([]float64, X.NumRows())
	for i := range out {
		out[i] = b.value
	}
	return out, nil
}

func (b *BaselineRegressor) PredictProba(_ *dataset.Table) ([][]float64, error) {
	return nil, errors.New("regressors have no probability predictions")
}

// -----------------------------------------------------------------------------
// Logistic regression
// -----------------------------------------------------------------------------

// LogisticRegression is a binary classifier fit by full-batch gradient
// descent with L2 regularization. Deterministic: weights start at zero.
type LogisticRegression struct {
	C       float64
	MaxIter int
	lr      float64
	w       []float64
	b       float64
}

// NewLogisticRegression builds the classifier from component parameters.
func NewLogisticRegression(params map[string]any, _ uint64) (any, error) {
	c := paramFloat(params, "C", 1.0)
	if c <= 0 {
		return nil, fmt.Errorf("C must be positive, got %v", c)
	}
	iters := paramInt(params, "max_iter", 100)
	if iters < 1 {
		return nil, fmt.Errorf("max_iter must be at least 1, got %d", iters)
	}
	return &LogisticRegression{C: c, MaxIter: iters, lr: 0.1}, nil
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func (m *LogisticRegression) Fit(X *dataset.Table, y []float64) error {
	if _, err := classIndex(y); err != nil {
		return err
	}
	n, d := X.NumRows(), X.NumCols()
	if n == 0 || d == 0 {
		return errors.New("empty design matrix")
	}
	m.w = make([]float64, d)
	m.b = 0
	lambda := 1 / m.C
	for iter := 0; iter < m.MaxIter; iter++ {
		gw := make([]float64, d)
		var gb float64
		for i := 0; i < n; i++ {
			var z float64
			for c := 0; c < d; c++ {
				z += m.w[c] * X.ColumnAt(c)[i]
			}
			e := sigmoid(z+m.b) - y[i]
			for c := 0; c < d; c++ {
				gw[c] += e * X.ColumnAt(c)[i]
			}
			gb += e
		}
		for c := 0; c < d; c++ {
			m.w[c] -= m.lr * (gw[c]/float64(n) + lambda*m.w[c]/float64(n))
		}
		m.b -= m.lr * gb / float64(n)
	}
	return nil
}

func (m *LogisticRegression) scores(X *dataset.Table) []float64 {
	n := X.NumRows()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		z := m.b
		for c := 0; c < X.NumCols(); c++ {
			z += m.w[c] * X.ColumnAt(c)[i]
		}
		out[i] = sigmoid(z)
	}
	return out
}

func (m *LogisticRegression) Predict(X *dataset.Table) ([]float64, error) {
	if m.w == nil {
		return nil, errors.New("logistic regression is not fitted")
	}
	p := m.scores(X)
	out := make([]float64, len(p))
	for i, v := range p {
		if v > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func (m *LogisticRegression) PredictProba(X *dataset.Table) ([][]float64, error) {
	if m.w == nil {
		return nil, errors.New("logistic regression is not fitted")
	}
	p := m.scores(X)
	out := make([][]float64, len(p))
	for i, v := range p {
		out[i] = []float64{1 - v, v}
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Ridge regression
// -----------------------------------------------------------------------------

// RidgeRegressor solves (XᵀX + αI)w = Xᵀy in closed form, with an
// unregularized intercept handled by centering.
type RidgeRegressor struct {
	Alpha float64
	w     []float64
	b     float64
}

// NewRidgeRegressor builds the regressor from component parameters.
func NewRidgeRegressor(params map[string]any, _ uint64) (any, error) {
	a := paramFloat(params, "alpha", 1.0)
	if a < 0 {
		return nil, fmt.Errorf("alpha must be non-negative, got %v", a)
	}
	return &RidgeRegressor{Alpha: a}, nil
}

func (m *RidgeRegressor) Fit(X *dataset.Table, y []float64) error {
	n, d := X.NumRows(), X.NumCols()
	if n == 0 || d == 0 {
		return errors.New("empty design matrix")
	}
	// Center features and target so the intercept drops out.
	xm := make([]float64, d)
	for c := 0; c < d; c++ {
		for _, v := range X.ColumnAt(c) {
			xm[c] += v
		}
		xm[c] /= float64(n)
	}
	var ym float64
	for _, v := range y {
		ym += v
	}
	ym /= float64(n)

	// Normal equations on centered data.
	a := make([][]float64, d)
	rhs := make([]float64, d)
	for i := 0; i < d; i++ {
		a[i] = make([]float64, d)
		ci := X.ColumnAt(i)
		for j := i; j < d; j++ {
			cj := X.ColumnAt(j)
			var s float64
			for r := 0; r < n; r++ {
				s += (ci[r] - xm[i]) * (cj[r] - xm[j])
			}
			a[i][j] = s
			a[j][i] = s
		}
		a[i][i] += m.Alpha
		var s float64
		for r := 0; r < n; r++ {
			s += (ci[r] - xm[i]) * (y[r] - ym)
		}
		rhs[i] = s
	}
	w, err := solveLinear(a, rhs)
	if err != nil {
		return err
	}
	m.w = w
	m.b = ym
	for c := 0; c < d; c++ {
		m.b -= w[c] * xm[c]
	}
	return nil
}

func (m *RidgeRegressor) Predict(X *dataset.Table) ([]float64, error) {
	if m.w == nil {
		return nil, errors.New("ridge regressor is not fitted")
	}
	n := X.NumRows()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v := m.b
		for c := 0; c < X.NumCols() && c < len(m.w); c++ {
			v += m.w[c] * X.ColumnAt(c)[i]
		}
		out[i] = v
	}
	return out, nil
}

func (m *RidgeRegressor) PredictProba(_ *dataset.Table) ([][]float64, error) {
	return nil, errors.New("regressors have no probability predictions")
}

// solveLinear solves a·x = b by Gaussian elimination with partial pivoting.
func solveLinear(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	m := make([][]float64, n)
	for i := range a {
		m[i] = append(append([]float64(nil), a[i]...), b[i])
	}
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, errors.New("singular design matrix")
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		v := m[i][n]
		for c := i + 1; c < n; c++ {
			v -= m[i][c] * x[c]
		}
		x[i] = v / m[i][i]
	}
	return x, nil
}

// -----------------------------------------------------------------------------
// k-nearest neighbors
// -----------------------------------------------------------------------------

// KNN is a brute-force k-nearest-neighbors model usable for classification
// and regression.
type KNN struct {
	K          int
	Weights    string // uniform or distance
	Regression bool

	trainX  *dataset.Table
	trainY  []float64
	classes int
}

// NewKNNClassifier builds a KNN classifier from component parameters.
func NewKNNClassifier(params map[string]any, _ uint64) (any, error) {
	return newKNN(params, false)
}

// NewKNNRegressor builds a KNN regressor from component parameters.
func NewKNNRegressor(params map[string]any, _ uint64) (any, error) {
	return newKNN(params, true)
}

func newKNN(params map[string]any, regression bool) (any, error) {
	k := paramInt(params, "n_neighbors", 5)
	if k < 1 {
		return nil, fmt.Errorf("n_neighbors must be at least 1, got %d", k)
	}
	w := paramString(params, "weights", "uniform")
	switch w {
	case "uniform", "distance":
	default:
		return nil, fmt.Errorf("invalid weights %q", w)
	}
	return &KNN{K: k, Weights: w, Regression: regression}, nil
}

func (m *KNN) Fit(X *dataset.Table, y []float64) error {
	if X.NumRows() == 0 {
		return errors.New("empty training set")
	}
	if !m.Regression {
		classes, err := classIndex(y)
		if err != nil {
			return err
		}
		m.classes = len(classes)
	}
	m.trainX = X
	m.trainY = append([]float64(nil), y...)
	return nil
}

type neighbor struct {
	dist float64
	y    float64
}

func (m *KNN) neighbors(X *dataset.Table, row int) []neighbor {
	n := m.trainX.NumRows()
	all := make([]neighbor, n)
	for t := 0; t < n; t++ {
		var d float64
		for c := 0; c < X.NumCols() && c < m.trainX.NumCols(); c++ {
			diff := X.ColumnAt(c)[row] - m.trainX.ColumnAt(c)[t]
			d += diff * diff
		}
		all[t] = neighbor{dist: math.Sqrt(d), y: m.trainY[t]}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].dist < all[j].dist })
	k := m.K
	if k > len(all) {
		k = len(all)
	}
	return all[:k]
}

func (m *KNN) weight(d float64) float64 {
	if m.Weights == "distance" {
		return 1 / (d + 1e-9)
	}
	return 1
}

func (m *KNN) Predict(X *dataset.Table) ([]float64, error) {
	if m.trainX == nil {
		return nil, errors.New("knn is not fitted")
	}
	out := make([]float64, X.NumRows())
	for i := range out {
		nb := m.neighbors(X, i)
		if m.Regression {
			var sum, wsum float64
			for _, n := range nb {
				w := m.weight(n.dist)
				sum += w * n.y
				wsum += w
			}
			out[i] = sum / wsum
			continue
		}
		votes := make([]float64, m.classes)
		for _, n := range nb {
			votes[int(n.y)] += m.weight(n.dist)
		}
		best := 0
		for k, v := range votes {
			if v > votes[best] {
				best = k
			}
		}
		out[i] = float64(best)
	}
	return out, nil
}

func (m *KNN) PredictProba(X *dataset.Table) ([][]float64, error) {
	if m.Regression {
		return nil, errors.New("regressors have no probability predictions")
	}
	if m.trainX == nil {
		return nil, errors.New("knn is not fitted")
	}
	out := make([][]float64, X.NumRows())
	for i := range out {
		nb := m.neighbors(X, i)
		votes := make([]float64, m.classes)
		var total float64
		for _, n := range nb {
			w := m.weight(n.dist)
			votes[int(n.y)] += w
			total += w
		}
		for k := range votes {
			votes[k] /= total
		}
		out[i] = votes
	}
	return out, nil
}
