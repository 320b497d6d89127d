// Package kinematics provides the batch (vectorized) kinematics kernel.
//
// VectorizedKernel applies the same formulas and random distributions as
// sim.ReferenceKernel, but processes a route's vehicles one operation at a
// time over whole slices instead of one vehicle at a time. Random draws are
// made in two passes (all variations, then all adaptation flags), so the
// pseudo-random sequence differs from the reference kernel while every
// per-vehicle distribution is the same.
package kinematics

import (
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/inference-sim/traffic-sim/sim"
)

// VectorizedKernel is a sim.KinematicsKernel built on gonum slice primitives.
type VectorizedKernel struct {
	params sim.KinematicsParams
}

// NewVectorizedKernel creates a VectorizedKernel. Params are expected to be
// valid; sim.NewKernel sanitizes them before calling this.
func NewVectorizedKernel(params sim.KinematicsParams) *VectorizedKernel {
	return &VectorizedKernel{params: params}
}

func (k *VectorizedKernel) Name() string { return sim.KernelVectorized }

func (k *VectorizedKernel) Compute(b sim.KinematicsBatch, rng *rand.Rand) sim.KinematicsResult {
	n := len(b.Positions)
	if n == 0 {
		return sim.KinematicsResult{Distances: []float64{}, Speeds: []float64{}}
	}

	// distance = effective speed (m/s) * dt
	dist := slices.Clone(b.Speeds)
	stalled := b.SpeedLimit * sim.StalledSpeedFactor
	for i, v := range dist {
		if v == 0 {
			dist[i] = stalled
		}
	}
	floats.Scale(b.DT/3.6, dist)

	// variation ~ U[min, max]
	variation := make([]float64, n)
	for i := range variation {
		variation[i] = rng.Float64()
	}
	floats.Scale(k.params.VariationMax-k.params.VariationMin, variation)
	floats.AddConst(k.params.VariationMin, variation)
	floats.Mul(dist, variation)

	if b.Density > sim.HighDensityThreshold {
		floats.Scale(sim.HighDensitySlowdown, dist)
	} else {
		nearEnd := b.Length * sim.RouteEndFraction
		for i, pos := range b.Positions {
			if pos > nearEnd {
				dist[i] *= sim.RouteEndSlowdown
			}
		}
	}

	remaining := floats.ScaleTo(make([]float64, n), -1, b.Positions)
	floats.AddConst(b.Length, remaining)
	for i := range dist {
		dist[i] = max(0, min(dist[i], remaining[i]))
	}

	speeds := slices.Clone(b.Speeds)
	for i := range speeds {
		if rng.Float64() < k.params.AdaptProbability {
			speeds[i] = sim.AdaptSpeed(speeds[i], b.SpeedLimit, b.Density)
		}
	}

	return sim.KinematicsResult{Distances: dist, Speeds: speeds}
}
