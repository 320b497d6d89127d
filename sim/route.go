package sim

import (
	"cmp"
	"fmt"
	"math/rand"
	"slices"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/traffic-sim/sim/trace"
)

// SafetyMargin is the standoff in meters vehicles keep before a red or amber light.
const SafetyMargin = 5.0

// Defaults substituted for invalid route parameters.
const (
	DefaultRouteLength = 1000.0 // meters
	DefaultSpeedLimit  = 50.0   // km/h
)

// LightPlacement pairs a light with its position on a route.
type LightPlacement struct {
	Position float64
	Light    *TrafficLight
}

// Route is a one-way 1-D road segment holding vehicles and traffic lights.
type Route struct {
	name       string
	length     float64
	speedLimit float64
	vehicles   map[int]*Vehicle
	lights     map[float64]*TrafficLight
}

// NewRoute creates an empty route. A non-positive length or speed limit is
// replaced by DefaultRouteLength / DefaultSpeedLimit with a warning.
func NewRoute(name string, length, speedLimit float64) *Route {
	if !(length > 0) {
		logrus.Warnf("route %q: length must be positive (got %v), using %.0fm", name, length, DefaultRouteLength)
		length = DefaultRouteLength
	}
	if !(speedLimit > 0) {
		logrus.Warnf("route %q: speed limit must be positive (got %v), using %.0fkm/h", name, speedLimit, DefaultSpeedLimit)
		speedLimit = DefaultSpeedLimit
	}
	return &Route{
		name:       name,
		length:     length,
		speedLimit: speedLimit,
		vehicles:   make(map[int]*Vehicle),
		lights:     make(map[float64]*TrafficLight),
	}
}

func (r *Route) Name() string        { return r.name }
func (r *Route) Length() float64     { return r.length }
func (r *Route) SpeedLimit() float64 { return r.speedLimit }

// AddVehicle places v on the route and sets its current route.
func (r *Route) AddVehicle(v *Vehicle) error {
	if _, ok := r.vehicles[v.ID]; ok {
		return fmt.Errorf("vehicle %d on %s: %w", v.ID, r.name, ErrDuplicateVehicle)
	}
	if v.Position > r.length {
		return fmt.Errorf("vehicle %d at %.2f on %s (length %.2f): %w", v.ID, v.Position, r.name, r.length, ErrPositionOutOfBounds)
	}
	r.vehicles[v.ID] = v
	v.Route = r.name
	return nil
}

// RemoveVehicle takes the vehicle off the route and returns it.
func (r *Route) RemoveVehicle(id int) (*Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %d on %s: %w", id, r.name, ErrVehicleNotFound)
	}
	delete(r.vehicles, id)
	return v, nil
}

// Vehicle returns the resident vehicle with the given id, or nil.
func (r *Route) Vehicle(id int) *Vehicle {
	return r.vehicles[id]
}

// Vehicles returns the resident vehicles ordered by id.
func (r *Route) Vehicles() []*Vehicle {
	out := make([]*Vehicle, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b *Vehicle) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// AddLight places a light at the end of the route. Proposed travel never
// reaches past the route end, so an end light never lies strictly inside a
// vehicle's span and does not hold vehicles back; use AddLightAt with a
// position before the end for a light that stops traffic.
func (r *Route) AddLight(light *TrafficLight) {
	// The route end is always in bounds.
	_ = r.AddLightAt(light, r.length)
}

// AddLightAt places a light at position. A light already registered at that
// exact position is replaced.
func (r *Route) AddLightAt(light *TrafficLight, position float64) error {
	if position < 0 || position > r.length {
		return fmt.Errorf("light at %.2f on %s (length %.2f): %w", position, r.name, r.length, ErrLightOutOfBounds)
	}
	if _, ok := r.lights[position]; ok {
		logrus.Warnf("route %s: replacing traffic light at %.2fm", r.name, position)
	}
	r.lights[position] = light
	return nil
}

// Lights returns the route's lights ordered by position.
func (r *Route) Lights() []LightPlacement {
	out := make([]LightPlacement, 0, len(r.lights))
	for pos, l := range r.lights {
		out = append(out, LightPlacement{Position: pos, Light: l})
	}
	slices.SortFunc(out, func(a, b LightPlacement) int { return cmp.Compare(a.Position, b.Position) })
	return out
}

// VehicleCount returns the number of resident vehicles.
func (r *Route) VehicleCount() int {
	return len(r.vehicles)
}

// Density returns resident vehicles per kilometer.
func (r *Route) Density() float64 {
	km := r.length / 1000
	if km == 0 {
		return 0
	}
	return float64(len(r.vehicles)) / km
}

// MaxAllowedTravel clamps a proposed travel distance for v. Every red or
// amber light strictly inside (position, position+proposed) bounds the
// distance to stop SafetyMargin meters before it, and no vehicle may travel
// past the route end.
func (r *Route) MaxAllowedTravel(v *Vehicle, proposed float64) float64 {
	allowed := proposed
	reach := v.Position + proposed
	for pos, light := range r.lights {
		if pos <= v.Position || pos >= reach || !light.State().Blocking() {
			continue
		}
		allowed = min(allowed, max(0, pos-v.Position-SafetyMargin))
	}
	allowed = min(allowed, r.length-v.Position)
	return max(0, allowed)
}

// AdvanceTick runs one tick on the route: lights advance by dt, the kernel
// proposes a distance and speed for every vehicle, distances are clamped by
// MaxAllowedTravel and committed. Vehicles that reached the route end are
// removed and returned ordered by id.
//
// With no resident vehicle the lights still advance and ErrEmptyRoute is
// returned along with an empty slice.
func (r *Route) AdvanceTick(dt float64, kernel KinematicsKernel, rng *rand.Rand) ([]*Vehicle, error) {
	if !validDuration(dt) {
		return nil, fmt.Errorf("route %s tick by %v: %w", r.name, dt, ErrNegativeDuration)
	}
	for _, lp := range r.Lights() {
		if err := lp.Light.Advance(dt); err != nil {
			logrus.Warnf("route %s: light at %.2fm: %v", r.name, lp.Position, err)
		}
	}
	if len(r.vehicles) == 0 {
		return []*Vehicle{}, fmt.Errorf("route %s: %w", r.name, ErrEmptyRoute)
	}

	vehicles := r.Vehicles()
	batch := KinematicsBatch{
		Positions:  make([]float64, len(vehicles)),
		Speeds:     make([]float64, len(vehicles)),
		SpeedLimit: r.speedLimit,
		Length:     r.length,
		Density:    r.Density(),
		DT:         dt,
	}
	for i, v := range vehicles {
		batch.Positions[i] = v.Position
		batch.Speeds[i] = v.Speed
	}

	res := kernel.Compute(batch, rng)
	if len(res.Distances) != len(vehicles) || len(res.Speeds) != len(vehicles) {
		return nil, fmt.Errorf("route %s: kernel %s returned %d distances and %d speeds for %d vehicles",
			r.name, kernel.Name(), len(res.Distances), len(res.Speeds), len(vehicles))
	}

	for i, v := range vehicles {
		v.Speed = max(0, res.Speeds[i])
		allowed := r.MaxAllowedTravel(v, res.Distances[i])
		if err := v.Advance(allowed); err != nil {
			logrus.Warnf("route %s: %v", r.name, err)
		}
	}

	exited := make([]*Vehicle, 0)
	for _, v := range vehicles {
		if v.Position >= r.length {
			delete(r.vehicles, v.ID)
			exited = append(exited, v)
		}
	}
	return exited, nil
}

// Snapshot returns a read-only summary of the route's current state.
func (r *Route) Snapshot() trace.RouteRecord {
	rec := trace.RouteRecord{
		Name:         r.name,
		VehicleCount: len(r.vehicles),
		Density:      r.Density(),
		SpeedLimit:   r.speedLimit,
		Length:       r.length,
	}
	if len(r.vehicles) == 0 {
		return rec
	}
	speeds := make([]float64, 0, len(r.vehicles))
	for _, v := range r.Vehicles() {
		speeds = append(speeds, v.Speed)
	}
	rec.MeanSpeed = stat.Mean(speeds, nil)
	rec.MinSpeed = slices.Min(speeds)
	rec.MaxSpeed = slices.Max(speeds)
	return rec
}

func (r *Route) String() string {
	return fmt.Sprintf("route %q (%.0fm, limit %.0fkm/h, %d vehicles)", r.name, r.length, r.speedLimit, len(r.vehicles))
}
