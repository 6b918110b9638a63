// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline defines pipeline classes, their component graphs, and
// the hyperparameter ranges the tuners search over.
//
// A Class is the static description (name, model family, supported problem
// types, component graph). Instantiating a Class with a Parameters value
// produces a Pipeline that can be fit and scored. The search core treats
// Pipeline as an opaque fit/predict contract.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/halcyonml/autosearch/pkg/automl/dataset"
	"github.com/halcyonml/autosearch/pkg/automl/problems"
)

// Transformer is a fitted feature transformation step.
type Transformer interface {
	Fit(X *dataset.Table, y []float64) error
	Transform(X *dataset.Table) (*dataset.Table, error)
}

// Estimator is the terminal model of a pipeline.
type Estimator interface {
	Fit(X *dataset.Table, y []float64) error
	Predict(X *dataset.Table) ([]float64, error)

	// PredictProba returns per-class probabilities. Regressors return an
	// error.
	PredictProba(X *dataset.Table) ([][]float64, error)
}

// Pipeline is one instantiated candidate: a preprocessing sequence plus a
// terminal estimator.
type Pipeline interface {
	Name() string
	Summary() string
	ModelFamily() string
	Problems() []problems.ProblemType
	Parameters() Parameters

	Fit(X *dataset.Table, y []float64) error
	Predict(X *dataset.Table) ([]float64, error)
	PredictProba(X *dataset.Table) ([][]float64, error)
}

// ComponentSpec describes one node of a class's component graph.
type ComponentSpec struct {
	// Name is the component's display name, the key under which its
	// parameters appear in Parameters.
	Name string

	// Ranges are the tunable parameter ranges, nil for fixed components.
	Ranges map[string]Range

	// FeatureSelector marks components that receive a number_features
	// parameter derived from the input width at proposal time.
	FeatureSelector bool

	// Make builds the component. The returned value must implement
	// Transformer, or Estimator for the terminal component.
	Make func(params map[string]any, seed uint64) (any, error)
}

// Class is the static identity of a pipeline: what the search algorithm
// proposes and the results store records.
type Class struct {
	// PipelineName is the display name, unique within the registry and
	// the deduplication key for rankings.
	PipelineName string

	// Family groups classes by model family (for example "linear_model").
	Family string

	// Supported lists the problem types this class can be applied to.
	Supported []problems.ProblemType

	// Components is the ordered component graph; the last entry is the
	// estimator.
	Components []ComponentSpec
}

// Name returns the class display name.
func (c *Class) Name() string { return c.PipelineName }

// ModelFamily returns the class's model family.
func (c *Class) ModelFamily() string { return c.Family }

// Problems returns the supported problem types.
func (c *Class) Problems() []problems.ProblemType { return c.Supported }

// Summary renders the component graph as "A w/ B + C".
func (c *Class) Summary() string {
	if len(c.Components) == 0 {
		return c.PipelineName
	}
	est := c.Components[len(c.Components)-1].Name
	if len(c.Components) == 1 {
		return est
	}
	pre := make([]string, 0, len(c.Components)-1)
	for _, comp := range c.Components[:len(c.Components)-1] {
		pre = append(pre, comp.Name)
	}
	return est + " w/ " + strings.Join(pre, " + ")
}

// Space returns the hyperparameter range descriptor for this class.
func (c *Class) Space() Space {
	out := make(Space)
	for _, comp := range c.Components {
		if len(comp.Ranges) == 0 {
			continue
		}
		inner := make(map[string]Range, len(comp.Ranges))
		for k, r := range comp.Ranges {
			inner[k] = r
		}
		out[comp.Name] = inner
	}
	return out
}

// HasFeatureSelector reports whether the component graph includes a
// feature-selection component.
func (c *Class) HasFeatureSelector() bool {
	for _, comp := range c.Components {
		if comp.FeatureSelector {
			return true
		}
	}
	return false
}

// FeatureSelectorNames lists the feature-selection components by name.
func (c *Class) FeatureSelectorNames() []string {
	var out []string
	for _, comp := range c.Components {
		if comp.FeatureSelector {
			out = append(out, comp.Name)
		}
	}
	return out
}

// New instantiates the class with the given parameters.
//
// Inputs:
//   - params: Per-component parameter values. Missing components fall back
//     to component defaults. params is cloned; the caller keeps ownership.
//   - seed: Seed for any stochastic component behavior.
//
// Outputs:
//   - Pipeline: Ready to fit.
//   - error: Non-nil when a component rejects its parameters.
func (c *Class) New(params Parameters, seed uint64) (Pipeline, error) {
	if len(c.Components) == 0 {
		return nil, fmt.Errorf("pipeline: class %q has no components", c.PipelineName)
	}
	p := &composed{class: c, params: params.Clone(), seed: seed}
	if p.params == nil {
		p.params = Parameters{}
	}
	for i, spec := range c.Components {
		built, err := spec.Make(p.params[spec.Name], seed)
		if err != nil {
			return nil, fmt.Errorf("pipeline: building %s for %s: %w", spec.Name, c.PipelineName, err)
		}
		if i == len(c.Components)-1 {
			est, ok := built.(Estimator)
			if !ok {
				return nil, fmt.Errorf("pipeline: terminal component %s of %s is not an estimator", spec.Name, c.PipelineName)
			}
			p.estimator = est
			continue
		}
		tr, ok := built.(Transformer)
		if !ok {
			return nil, fmt.Errorf("pipeline: component %s of %s is not a transformer", spec.Name, c.PipelineName)
		}
		p.transforms = append(p.transforms, tr)
	}
	return p, nil
}

// composed is the concrete Pipeline built from a Class.
type composed struct {
	class      *Class
	params     Parameters
	seed       uint64
	transforms []Transformer
	estimator  Estimator
	fitted     bool
}

func (p *composed) Name() string                     { return p.class.PipelineName }
func (p *composed) Summary() string                  { return p.class.Summary() }
func (p *composed) ModelFamily() string              { return p.class.Family }
func (p *composed) Problems() []problems.ProblemType { return p.class.Supported }
func (p *composed) Parameters() Parameters           { return p.params.Clone() }

func (p *composed) Fit(X *dataset.Table, y []float64) error {
	cur := X
	for _, tr := range p.transforms {
		if err := tr.Fit(cur, y); err != nil {
			return err
		}
		next, err := tr.Transform(cur)
		if err != nil {
			return err
		}
		cur = next
	}
	if err := p.estimator.Fit(cur, y); err != nil {
		return err
	}
	p.fitted = true
	return nil
}

func (p *composed) transformAll(X *dataset.Table) (*dataset.Table, error) {
	cur := X
	for _, tr := range p.transforms {
		next, err := tr.Transform(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func (p *composed) Predict(X *dataset.Table) ([]float64, error) {
	if !p.fitted {
		return nil, fmt.Errorf("pipeline: %s is not fitted", p.Name())
	}
	cur, err := p.transformAll(X)
	if err != nil {
		return nil, err
	}
	return p.estimator.Predict(cur)
}

func (p *composed) PredictProba(X *dataset.Table) ([][]float64, error) {
	if !p.fitted {
		return nil, fmt.Errorf("pipeline: %s is not fitted", p.Name())
	}
	cur, err := p.transformAll(X)
	if err != nil {
		return nil, err
	}
	return p.estimator.PredictProba(cur)
}
