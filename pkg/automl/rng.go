// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package automl

import (
	"math/rand/v2"
)

// RNG is the search's deterministic random source. It wraps a PCG
// generator so the state can be captured on save and restored on load,
// keeping a resumed search on the same random trajectory.
//
// Thread Safety: Not safe for concurrent use. The orchestrator draws
// from it only on the control-loop goroutine.
type RNG struct {
	pcg  *rand.PCG
	rand *rand.Rand
}

// NewRNG seeds a generator. The same seed always yields the same
// proposal sequence.
func NewRNG(seed uint64) *RNG {
	pcg := rand.NewPCG(seed, 0)
	return &RNG{pcg: pcg, rand: rand.New(pcg)}
}

// Uint64 returns the next raw draw. Used to derive child seeds for
// tuners and pipeline instances.
func (r *RNG) Uint64() uint64 { return r.rand.Uint64() }

// Rand exposes the underlying generator for sampling helpers.
func (r *RNG) Rand() *rand.Rand { return r.rand }

// MarshalBinary captures the generator state.
func (r *RNG) MarshalBinary() ([]byte, error) {
	return r.pcg.MarshalBinary()
}

// UnmarshalBinary restores a captured state.
func (r *RNG) UnmarshalBinary(data []byte) error {
	return r.pcg.UnmarshalBinary(data)
}
