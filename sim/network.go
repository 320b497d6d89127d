package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
)

// NetworkConfig selects how a Network advances its routes.
type NetworkConfig struct {
	// Kernel computes proposed distances; nil selects the reference kernel
	// with default parameters.
	Kernel KinematicsKernel
	// Seed derives one random stream per route.
	Seed int64
	// Parallel updates routes concurrently, one goroutine per route. Results
	// are identical to sequential updates for the same seed.
	Parallel bool
}

// NetworkSnapshot is the aggregate network state recorded after each tick.
type NetworkSnapshot struct {
	Tick          int
	TotalVehicles int
	MeanDensity   float64
}

// TickStats counts the vehicle transfers of a single tick.
type TickStats struct {
	// RouteChanges counts vehicles moved onto a destination route.
	RouteChanges int
	// VehiclesExited counts every vehicle that reached a route end,
	// whether it was routed onward or dropped.
	VehiclesExited int
}

// Network owns the routes and the one-way intersections between them.
type Network struct {
	routes        map[string]*Route
	order         []string // route names in insertion order
	intersections map[string][]string
	history       []NetworkSnapshot

	kernel   KinematicsKernel
	rng      *PartitionedRNG
	parallel bool
}

// NewNetwork creates an empty network.
func NewNetwork(cfg NetworkConfig) *Network {
	kernel := cfg.Kernel
	if kernel == nil {
		kernel = NewReferenceKernel(DefaultKinematicsParams())
	}
	return &Network{
		routes:        make(map[string]*Route),
		intersections: make(map[string][]string),
		history:       make([]NetworkSnapshot, 0),
		kernel:        kernel,
		rng:           NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		parallel:      cfg.Parallel,
	}
}

// Kernel returns the kinematics kernel used by Tick.
func (n *Network) Kernel() KinematicsKernel { return n.kernel }

// AddRoute registers a route with no outgoing intersections.
func (n *Network) AddRoute(r *Route) error {
	if _, ok := n.routes[r.Name()]; ok {
		return fmt.Errorf("route %q: %w", r.Name(), ErrDuplicateRoute)
	}
	n.routes[r.Name()] = r
	n.order = append(n.order, r.Name())
	n.intersections[r.Name()] = []string{}
	return nil
}

// AddIntersection lets vehicles leaving source continue onto destination.
// Adding the same intersection twice has no effect.
func (n *Network) AddIntersection(source, destination string) error {
	if _, ok := n.routes[source]; !ok {
		return fmt.Errorf("intersection source %q: %w", source, ErrUnknownRoute)
	}
	if _, ok := n.routes[destination]; !ok {
		return fmt.Errorf("intersection destination %q: %w", destination, ErrUnknownRoute)
	}
	if !slices.Contains(n.intersections[source], destination) {
		n.intersections[source] = append(n.intersections[source], destination)
	}
	return nil
}

// Route returns the named route, or nil.
func (n *Network) Route(name string) *Route {
	return n.routes[name]
}

// Routes returns all routes in insertion order.
func (n *Network) Routes() []*Route {
	out := make([]*Route, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.routes[name])
	}
	return out
}

// Destinations returns the routes reachable from source, in the order the
// intersections were added.
func (n *Network) Destinations(source string) []string {
	return slices.Clone(n.intersections[source])
}

// History returns the per-tick aggregate snapshots.
func (n *Network) History() []NetworkSnapshot {
	return n.history
}

// TotalVehicleCount returns the number of vehicles on all routes.
func (n *Network) TotalVehicleCount() int {
	total := 0
	for _, r := range n.routes {
		total += r.VehicleCount()
	}
	return total
}

// MeanDensity returns the arithmetic mean of route densities, 0 with no routes.
func (n *Network) MeanDensity() float64 {
	if len(n.routes) == 0 {
		return 0
	}
	sum := 0.0
	for _, name := range n.order {
		sum += n.routes[name].Density()
	}
	return sum / float64(len(n.routes))
}

type routeTickResult struct {
	exited []*Vehicle
	err    error
}

// advanceRoute runs one route's tick, turning a panic into an error.
func (n *Network) advanceRoute(r *Route, dt float64, rng *rand.Rand) (res routeTickResult) {
	defer func() {
		if p := recover(); p != nil {
			res = routeTickResult{err: fmt.Errorf("route %s panicked: %v", r.Name(), p)}
		}
	}()
	res.exited, res.err = r.AdvanceTick(dt, n.kernel, rng)
	return res
}

// Tick advances every route by dt, then routes the vehicles that reached a
// route end: onto the first destination of their route at position 0, or out
// of the simulation when the route has no destination.
func (n *Network) Tick(dt float64) (TickStats, error) {
	var stats TickStats
	if !validDuration(dt) {
		return stats, fmt.Errorf("network tick by %v: %w", dt, ErrNegativeDuration)
	}

	routes := n.Routes()
	// PartitionedRNG is not thread-safe; hand each route its stream up front.
	rngs := make([]*rand.Rand, len(routes))
	for i, r := range routes {
		rngs[i] = n.rng.ForSubsystem(SubsystemRoute(r.Name()))
	}

	results := make([]routeTickResult, len(routes))
	if n.parallel {
		var wg sync.WaitGroup
		for i, r := range routes {
			wg.Add(1)
			go func(i int, r *Route) {
				defer wg.Done()
				results[i] = n.advanceRoute(r, dt, rngs[i])
			}(i, r)
		}
		wg.Wait()
	} else {
		for i, r := range routes {
			results[i] = n.advanceRoute(r, dt, rngs[i])
		}
	}

	var tickErr error
	for i, res := range results {
		if res.err == nil {
			continue
		}
		if errors.Is(res.err, ErrEmptyRoute) {
			logrus.Debugf("%v", res.err)
			continue
		}
		if tickErr == nil {
			tickErr = fmt.Errorf("advancing route %q: %w", routes[i].Name(), res.err)
		}
	}

	// Transfers run after every route has moved, so a vehicle never moves
	// twice in one tick. Vehicles that left healthy routes are routed even
	// when another route failed.
	for i, res := range results {
		for _, v := range res.exited {
			stats.VehiclesExited++
			if n.transfer(routes[i].Name(), v) {
				stats.RouteChanges++
			}
		}
	}
	if tickErr != nil {
		return stats, tickErr
	}

	n.history = append(n.history, NetworkSnapshot{
		Tick:          len(n.history),
		TotalVehicles: n.TotalVehicleCount(),
		MeanDensity:   n.MeanDensity(),
	})
	return stats, nil
}

// transfer moves an exited vehicle onto the first destination of source.
// It reports false when the vehicle leaves the simulation instead.
func (n *Network) transfer(source string, v *Vehicle) bool {
	dests := n.intersections[source]
	if len(dests) == 0 {
		logrus.Debugf("vehicle %d left the network at the end of %s", v.ID, source)
		return false
	}
	dest := n.routes[dests[0]]
	if existing := dest.Vehicle(v.ID); existing != nil {
		logrus.Warnf("vehicle %d leaving %s dropped: %v", v.ID, source,
			fmt.Errorf("vehicle %d on %s: %w", v.ID, dest.Name(), ErrDuplicateVehicle))
		return false
	}
	if err := v.ChangeRoute(dest.Name(), 0); err != nil {
		logrus.Warnf("vehicle %d leaving %s dropped: %v", v.ID, source, err)
		return false
	}
	if err := dest.AddVehicle(v); err != nil {
		logrus.Warnf("vehicle %d leaving %s dropped: %v", v.ID, source, err)
		return false
	}
	return true
}

func (n *Network) String() string {
	return fmt.Sprintf("network with %d routes and %d vehicles", len(n.routes), n.TotalVehicleCount())
}
