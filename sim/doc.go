// Package sim provides the core discrete-time road traffic simulation engine.
//
// # Reading Guide
//
// Start with these files to understand a tick:
//   - route.go: obstacle resolution (MaxAllowedTravel) and the per-route tick
//   - network.go: routes, one-way intersections and exit routing
//   - simulator.go: the tick loop, Stop and the per-tick history
//
// # Architecture
//
// Every tick advances all routes by the same dt. On each route the traffic
// lights advance first, a KinematicsKernel proposes a travel distance and a
// cruising speed per vehicle, and the route clamps each proposal so no
// vehicle passes a red or amber light or the route end. Vehicles that reached
// the end are routed to the first destination of their route, or leave.
//
// Implementations live in sub-packages:
//   - sim/kinematics/: the vectorized kernel (gonum slice operations)
//   - sim/trace/: per-tick records and run summaries
//
// sim/kinematics registers itself via init() by setting
// NewVectorizedKernelFunc; import it (blank import is enough) to make
// NewKernel(KernelVectorized, ...) available.
//
// # Units
//
// Positions and lengths are meters, speeds km/h, durations seconds and
// densities vehicles per kilometer.
package sim
