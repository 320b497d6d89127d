package sim

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Kinematics constants. Speeds are km/h, densities vehicles/km.
const (
	StalledSpeedFactor      = 0.8  // share of the limit used when a vehicle is at 0 km/h
	HighDensityThreshold    = 20.0 // above this, every vehicle is slowed
	HighDensitySlowdown     = 0.8
	RouteEndFraction        = 0.8 // past this share of the route, vehicles slow down
	RouteEndSlowdown        = 0.6
	LowDensityThreshold     = 10.0 // below this, adapting vehicles speed up
	CongestedThreshold      = 25.0 // above this, adapting vehicles slow down
	SpeedUpFactor           = 1.05
	SlowDownFactor          = 0.9
	MinAdaptedSpeed         = 20.0
	DefaultVariationMin     = 0.7
	DefaultVariationMax     = 1.1
	DefaultAdaptProbability = 0.1
)

// Kernel names accepted by NewKernel.
const (
	KernelReference  = "reference"
	KernelVectorized = "vectorized"
)

// KinematicsParams holds the stochastic knobs of a kinematics kernel.
type KinematicsParams struct {
	// Per-vehicle distance multiplier is drawn uniformly from [VariationMin, VariationMax].
	VariationMin float64
	VariationMax float64
	// Probability that a vehicle adapts its cruising speed on a given tick.
	AdaptProbability float64
}

// DefaultKinematicsParams returns the standard driving-behavior variation.
func DefaultKinematicsParams() KinematicsParams {
	return KinematicsParams{
		VariationMin:     DefaultVariationMin,
		VariationMax:     DefaultVariationMax,
		AdaptProbability: DefaultAdaptProbability,
	}
}

// DeterministicParams disables every random effect: the variation factor is
// always 1 and speeds are never adapted.
func DeterministicParams() KinematicsParams {
	return KinematicsParams{VariationMin: 1, VariationMax: 1, AdaptProbability: 0}
}

// sanitized replaces out-of-range params with defaults.
func (p KinematicsParams) sanitized() KinematicsParams {
	if p.VariationMin < 0 || p.VariationMax < p.VariationMin {
		logrus.Warnf("invalid variation range [%v, %v], using [%v, %v]",
			p.VariationMin, p.VariationMax, DefaultVariationMin, DefaultVariationMax)
		p.VariationMin, p.VariationMax = DefaultVariationMin, DefaultVariationMax
	}
	if p.AdaptProbability < 0 || p.AdaptProbability > 1 {
		logrus.Warnf("invalid adapt probability %v, using %v", p.AdaptProbability, DefaultAdaptProbability)
		p.AdaptProbability = DefaultAdaptProbability
	}
	return p
}

// KinematicsBatch is the per-route input to a kernel. Positions and Speeds
// are indexed by vehicle; the other fields are shared by the whole route.
type KinematicsBatch struct {
	Positions  []float64
	Speeds     []float64
	SpeedLimit float64
	Length     float64
	// Density is captured once at tick start, before any vehicle moves.
	Density float64
	DT      float64
}

// KinematicsResult holds, per vehicle, the proposed travel distance for the
// tick and the cruising speed to store.
type KinematicsResult struct {
	Distances []float64
	Speeds    []float64
}

// KinematicsKernel computes proposed distances and adapted speeds for a
// batch. The proposal is only an upper bound; Route clamps it against lights.
// Implementations must not retain the batch slices.
type KinematicsKernel interface {
	Name() string
	Compute(batch KinematicsBatch, rng *rand.Rand) KinematicsResult
}

// NewVectorizedKernelFunc is set by sim/kinematics's init(). It stays nil
// when that package is not linked in, in which case NewKernel falls back to
// the reference kernel.
var NewVectorizedKernelFunc func(params KinematicsParams) KinematicsKernel

// NewKernel returns the named kernel. Unknown or unavailable kernels fall
// back to the reference implementation.
func NewKernel(name string, params KinematicsParams) KinematicsKernel {
	switch name {
	case "", KernelReference:
		return NewReferenceKernel(params)
	case KernelVectorized:
		if NewVectorizedKernelFunc == nil {
			logrus.Warnf("vectorized kernel not available, using %s", KernelReference)
			return NewReferenceKernel(params)
		}
		return NewVectorizedKernelFunc(params.sanitized())
	default:
		logrus.Warnf("unknown kernel %q, using %s", name, KernelReference)
		return NewReferenceKernel(params)
	}
}

// IsValidKernel reports whether name selects a known kernel.
func IsValidKernel(name string) bool {
	return name == "" || name == KernelReference || name == KernelVectorized
}

// ReferenceKernel is the scalar, one-vehicle-at-a-time kernel.
type ReferenceKernel struct {
	params KinematicsParams
}

// NewReferenceKernel creates a ReferenceKernel.
func NewReferenceKernel(params KinematicsParams) *ReferenceKernel {
	return &ReferenceKernel{params: params.sanitized()}
}

func (k *ReferenceKernel) Name() string { return KernelReference }

// Params returns the kernel's stochastic parameters.
func (k *ReferenceKernel) Params() KinematicsParams { return k.params }

func (k *ReferenceKernel) Compute(b KinematicsBatch, rng *rand.Rand) KinematicsResult {
	n := len(b.Positions)
	res := KinematicsResult{
		Distances: make([]float64, n),
		Speeds:    make([]float64, n),
	}
	for i := 0; i < n; i++ {
		pos, speed := b.Positions[i], b.Speeds[i]

		effective := speed
		if effective == 0 {
			effective = b.SpeedLimit * StalledSpeedFactor
		}
		dist := effective / 3.6 * b.DT
		dist *= k.params.VariationMin + (k.params.VariationMax-k.params.VariationMin)*rng.Float64()

		if b.Density > HighDensityThreshold {
			dist *= HighDensitySlowdown
		} else if pos > b.Length*RouteEndFraction {
			dist *= RouteEndSlowdown
		}

		dist = min(dist, b.Length-pos)
		res.Distances[i] = max(dist, 0)

		if rng.Float64() < k.params.AdaptProbability {
			speed = AdaptSpeed(speed, b.SpeedLimit, b.Density)
		}
		res.Speeds[i] = speed
	}
	return res
}

// AdaptSpeed applies the density-driven cruising speed change to a vehicle
// selected for adaptation.
func AdaptSpeed(speed, limit, density float64) float64 {
	switch {
	case density < LowDensityThreshold:
		return min(limit, speed*SpeedUpFactor)
	case density > CongestedThreshold:
		return max(MinAdaptedSpeed, speed*SlowDownFactor)
	default:
		return speed
	}
}
