// sim/simulator.go
package sim

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/traffic-sim/sim/trace"
)

// SimState is the lifecycle state of a Simulator.
type SimState int32

const (
	StateIdle SimState = iota
	StateRunning
	StateStopped
)

func (s SimState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Simulator is the core object that holds simulated time, the road network
// and the tick loop.
type Simulator struct {
	network *Network
	// elapsed is the cumulative simulated time in seconds over all runs.
	elapsed float64
	// trace has one record per completed tick, across runs.
	trace *trace.SimulationTrace
	runID uuid.UUID

	state         atomic.Int32
	stopRequested atomic.Bool
}

// NewSimulator creates an idle simulator over net. A nil net gives an empty
// network with the default configuration.
func NewSimulator(net *Network) *Simulator {
	if net == nil {
		net = NewNetwork(NetworkConfig{})
	}
	return &Simulator{
		network: net,
		trace:   trace.NewSimulationTrace("", 0),
	}
}

// NewSimulatorFromDescription builds the network described by desc. Entries
// that could not be applied are skipped and returned.
func NewSimulatorFromDescription(desc *NetworkDescription, cfg NetworkConfig) (*Simulator, []error) {
	net, problems := desc.Build(cfg)
	return NewSimulator(net), problems
}

func (sim *Simulator) Network() *Network { return sim.network }

// Elapsed returns the cumulative simulated time in seconds.
func (sim *Simulator) Elapsed() float64 { return sim.elapsed }

func (sim *Simulator) State() SimState { return SimState(sim.state.Load()) }

// RunID identifies the latest run; zero before the first run.
func (sim *Simulator) RunID() uuid.UUID { return sim.runID }

// Trace returns the recorded simulation trace.
func (sim *Simulator) Trace() *trace.SimulationTrace { return sim.trace }

// History returns one record per completed tick.
func (sim *Simulator) History() []trace.TickRecord { return sim.trace.Ticks }

// Stop asks a running simulation to halt. It is safe to call from another
// goroutine and takes effect at the next tick boundary.
func (sim *Simulator) Stop() {
	sim.stopRequested.Store(true)
	logrus.Infof("simulation stop requested")
}

// Run advances the simulation by nTicks ticks of dt seconds each.
//
// It fails immediately with ErrNoRoutes on an empty network. A Stop between
// ticks ends the run with ErrInterrupted. Any tick error or panic ends the
// run; ticks completed before it stay in History.
func (sim *Simulator) Run(nTicks int, dt float64) error {
	if len(sim.network.routes) == 0 {
		logrus.Errorf("cannot start simulation: %v", ErrNoRoutes)
		return ErrNoRoutes
	}
	if nTicks < 0 || !validDuration(dt) {
		return errors.Wrapf(ErrInvalidRunParameters, "ticks=%d dt=%v", nTicks, dt)
	}

	sim.runID = uuid.New()
	sim.trace.RunID = sim.runID.String()
	sim.trace.DT = dt
	sim.stopRequested.Store(false)
	sim.state.Store(int32(StateRunning))
	defer sim.state.Store(int32(StateStopped))

	log := logrus.WithField("run", sim.runID.String())
	log.Infof("starting simulation: %d ticks of %.1fs, %d vehicles on %d routes, kernel=%s",
		nTicks, dt, sim.network.TotalVehicleCount(), len(sim.network.routes), sim.network.Kernel().Name())

	for tick := 0; tick < nTicks; tick++ {
		if sim.stopRequested.Load() {
			log.Warnf("simulation stopped before tick %d", tick)
			return errors.Wrapf(ErrInterrupted, "before tick %d", tick)
		}
		if err := sim.step(dt); err != nil {
			log.Errorf("tick %d failed: %v", tick, err)
			return errors.Wrapf(err, "simulation failed at tick %d", tick)
		}
		log.Debugf("[tick %05d] %d vehicles, elapsed %.0fs", tick, sim.network.TotalVehicleCount(), sim.elapsed)
	}

	log.Infof("simulation ended after %.0fs of simulated time", sim.elapsed)
	return nil
}

// step runs one tick and records its snapshot.
func (sim *Simulator) step(dt float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic during tick: %v", r)
		}
	}()

	stats, err := sim.network.Tick(dt)
	if err != nil {
		return err
	}
	sim.trace.RecordTick(sim.snapshot(stats, dt))
	sim.elapsed += dt
	return nil
}

// snapshot builds the tick record from the current network state.
func (sim *Simulator) snapshot(stats TickStats, dt float64) trace.TickRecord {
	routes := sim.network.Routes()
	rec := trace.TickRecord{
		Tick:           len(sim.trace.Ticks),
		ElapsedTime:    sim.elapsed,
		DT:             dt,
		Routes:         make([]trace.RouteRecord, 0, len(routes)),
		TotalVehicles:  sim.network.TotalVehicleCount(),
		MeanDensity:    sim.network.MeanDensity(),
		RouteChanges:   stats.RouteChanges,
		VehiclesExited: stats.VehiclesExited,
	}
	var speeds []float64
	for _, r := range routes {
		rec.Routes = append(rec.Routes, r.Snapshot())
		for _, v := range r.Vehicles() {
			speeds = append(speeds, v.Speed)
		}
	}
	if len(speeds) > 0 {
		rec.MeanSpeed = stat.Mean(speeds, nil)
	}
	return rec
}
