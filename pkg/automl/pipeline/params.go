// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
)

// Parameters maps component name to that component's parameter values.
// A Parameters value together with a pipeline class name uniquely
// identifies a point in search space.
type Parameters map[string]map[string]any

// Clone returns a deep copy.
func (p Parameters) Clone() Parameters {
	if p == nil {
		return nil
	}
	out := make(Parameters, len(p))
	for comp, kv := range p {
		inner := make(map[string]any, len(kv))
		for k, v := range kv {
			inner[k] = v
		}
		out[comp] = inner
	}
	return out
}

// Signature returns a canonical encoding used for deduplication. JSON
// map keys are emitted sorted, and integer-valued floats encode the same
// as ints, so signatures survive a JSON round trip through persistence.
func (p Parameters) Signature() string {
	b, err := json.Marshal(p)
	if err != nil {
		// Parameters only ever hold JSON-representable values.
		return fmt.Sprintf("%v", map[string]map[string]any(p))
	}
	return string(b)
}

// Range describes the allowed values of one tunable parameter.
type Range interface {
	// Sample draws a value uniformly from the range.
	Sample(r *rand.Rand) any

	// Grid returns up to n representative values, used by grid tuners.
	Grid(n int) []any
}

// Space maps component name to the tunable parameter ranges of that
// component. It is the hyperparameter range descriptor handed to tuners.
type Space map[string]map[string]Range

// IntRange is an inclusive integer interval.
type IntRange struct {
	Min, Max int
}

func (ir IntRange) Sample(r *rand.Rand) any {
	if ir.Max <= ir.Min {
		return ir.Min
	}
	return ir.Min + int(r.IntN(ir.Max-ir.Min+1))
}

func (ir IntRange) Grid(n int) []any {
	span := ir.Max - ir.Min + 1
	if span <= 0 {
		return []any{ir.Min}
	}
	if n > span {
		n = span
	}
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v := ir.Min + i*(span-1)/max(n-1, 1)
		if len(out) == 0 || out[len(out)-1] != any(v) {
			out = append(out, v)
		}
	}
	return out
}

// FloatRange is a closed floating-point interval.
type FloatRange struct {
	Min, Max float64
}

func (fr FloatRange) Sample(r *rand.Rand) any {
	return fr.Min + r.Float64()*(fr.Max-fr.Min)
}

func (fr FloatRange) Grid(n int) []any {
	if n < 2 {
		return []any{fr.Min}
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = fr.Min + (fr.Max-fr.Min)*float64(i)/float64(n-1)
	}
	return out
}

// Choice is a finite set of categorical options.
type Choice struct {
	Options []any
}

func (c Choice) Sample(r *rand.Rand) any {
	if len(c.Options) == 0 {
		return nil
	}
	return c.Options[r.IntN(len(c.Options))]
}

func (c Choice) Grid(n int) []any {
	if n > len(c.Options) {
		n = len(c.Options)
	}
	return append([]any(nil), c.Options[:n]...)
}

// paramFloat reads a numeric parameter that may have arrived as an int,
// a float64, or a JSON-decoded number.
func paramFloat(kv map[string]any, key string, def float64) float64 {
	if kv == nil {
		return def
	}
	switch v := kv[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

// paramInt reads an integer parameter, tolerating float64 from JSON.
func paramInt(kv map[string]any, key string, def int) int {
	return int(paramFloat(kv, key, float64(def)))
}

// paramString reads a string parameter.
func paramString(kv map[string]any, key, def string) string {
	if kv == nil {
		return def
	}
	if s, ok := kv[key].(string); ok {
		return s
	}
	return def
}
