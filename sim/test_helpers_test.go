package sim

import "math/rand"

// stubKernel lets tests control the kernel output directly.
type stubKernel struct {
	calls int
	fn    func(b KinematicsBatch, call int) KinematicsResult
}

func (k *stubKernel) Name() string { return "stub" }

func (k *stubKernel) Compute(b KinematicsBatch, _ *rand.Rand) KinematicsResult {
	k.calls++
	return k.fn(b, k.calls)
}

// deterministicKernel is the reference kernel with every random effect off.
func deterministicKernel() KinematicsKernel {
	return NewReferenceKernel(DeterministicParams())
}

// testRNG returns a fixed-seed stream for direct Route.AdvanceTick calls.
func testRNG() *rand.Rand {
	return NewPartitionedRNG(NewSimulationKey(42)).ForSubsystem(SubsystemRoute("test"))
}

// longRedCycle stays red for the duration of any test.
func longRedCycle() Cycle {
	return PerStateCycle{LightRed: 1000, LightGreen: 10, LightAmber: 10}
}

// newTestNetwork builds a deterministic network with the given routes.
func newTestNetwork(routes ...*Route) *Network {
	net := NewNetwork(NetworkConfig{Kernel: deterministicKernel(), Seed: 42})
	for _, r := range routes {
		if err := net.AddRoute(r); err != nil {
			panic(err)
		}
	}
	return net
}
