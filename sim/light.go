package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
)

// LightState is one phase of a traffic light cycle.
type LightState int

const (
	LightRed LightState = iota
	LightGreen
	LightAmber

	numLightStates = 3
)

// DefaultLightDuration is the per-state duration (seconds) used when a cycle
// fails validation.
const DefaultLightDuration = 5.0

func (s LightState) String() string {
	switch s {
	case LightRed:
		return "red"
	case LightGreen:
		return "green"
	case LightAmber:
		return "amber"
	default:
		return fmt.Sprintf("LightState(%d)", int(s))
	}
}

// Blocking reports whether vehicles must stop before a light in this state.
func (s LightState) Blocking() bool {
	return s == LightRed || s == LightAmber
}

func (s LightState) next() LightState {
	return (s + 1) % numLightStates
}

// ParseLightState maps a state name to a LightState. "orange" is accepted as
// an alias of amber.
func ParseLightState(name string) (LightState, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "red":
		return LightRed, nil
	case "green":
		return LightGreen, nil
	case "amber", "orange":
		return LightAmber, nil
	}
	return LightRed, fmt.Errorf("unknown light state %q; valid: red, green, amber", name)
}

// Cycle configures how long a light stays in each state. It is either a
// UniformCycle or a PerStateCycle.
type Cycle interface {
	durations() ([numLightStates]float64, error)
}

// UniformCycle gives every state the same duration in seconds.
type UniformCycle float64

func (c UniformCycle) durations() ([numLightStates]float64, error) {
	d := float64(c)
	if !(d > 0) || math.IsInf(d, 1) {
		return [numLightStates]float64{}, fmt.Errorf("cycle duration must be positive and finite, got %v", d)
	}
	return [numLightStates]float64{d, d, d}, nil
}

// PerStateCycle gives each state its own duration in seconds. All three
// states must be present.
type PerStateCycle map[LightState]float64

func (c PerStateCycle) durations() ([numLightStates]float64, error) {
	var table [numLightStates]float64
	var missing []string
	for s := LightRed; s < numLightStates; s++ {
		d, ok := c[s]
		if !ok {
			missing = append(missing, s.String())
			continue
		}
		if !(d > 0) || math.IsInf(d, 1) {
			return table, fmt.Errorf("invalid duration for state %s: %v", s, d)
		}
		table[s] = d
	}
	if len(missing) > 0 {
		return table, fmt.Errorf("cycle is missing states %v", missing)
	}
	for s := range c {
		if s < LightRed || s >= numLightStates {
			return table, fmt.Errorf("cycle has unknown state %v", s)
		}
	}
	return table, nil
}

// TrafficLight is a red → green → amber → red state machine driven by
// simulated time.
type TrafficLight struct {
	durations [numLightStates]float64
	state     LightState
	elapsed   float64
}

// NewTrafficLight creates a light in the red state. An invalid cycle is
// replaced by the default 5 second cycle and a warning is logged.
func NewTrafficLight(cycle Cycle) *TrafficLight {
	return NewTrafficLightInState(cycle, LightRed)
}

// NewTrafficLightInState creates a light starting in the given state with no
// elapsed time.
func NewTrafficLightInState(cycle Cycle, state LightState) *TrafficLight {
	var table [numLightStates]float64
	var err error
	if cycle == nil {
		err = fmt.Errorf("no cycle given")
	} else {
		table, err = cycle.durations()
	}
	if err != nil {
		logrus.Warnf("invalid traffic light cycle (%v), using %.0fs per state", err, DefaultLightDuration)
		table = [numLightStates]float64{DefaultLightDuration, DefaultLightDuration, DefaultLightDuration}
	}
	if state < LightRed || state >= numLightStates {
		logrus.Warnf("invalid initial light state %v, starting red", state)
		state = LightRed
	}
	return &TrafficLight{durations: table, state: state}
}

// State returns the current light state.
func (l *TrafficLight) State() LightState { return l.state }

// Elapsed returns the time spent in the current state.
func (l *TrafficLight) Elapsed() float64 { return l.elapsed }

// Duration returns the configured duration of state s.
func (l *TrafficLight) Duration(s LightState) float64 {
	if s < LightRed || s >= numLightStates {
		return 0
	}
	return l.durations[s]
}

// validDuration reports whether dt is a usable time step.
func validDuration(dt float64) bool {
	return dt >= 0 && !math.IsInf(dt, 1)
}

// Advance moves the light's clock forward by dt seconds, folding through as
// many state changes as dt covers.
func (l *TrafficLight) Advance(dt float64) error {
	if !validDuration(dt) {
		return fmt.Errorf("advance light by %v: %w", dt, ErrNegativeDuration)
	}
	l.elapsed += dt
	// Whole cycles leave the state unchanged.
	if total := l.TotalCycleDuration(); l.elapsed >= total {
		l.elapsed = math.Mod(l.elapsed, total)
	}
	for l.elapsed >= l.durations[l.state] {
		l.elapsed -= l.durations[l.state]
		l.state = l.state.next()
	}
	return nil
}

// TimeToNextChange returns the time left before the light changes state.
func (l *TrafficLight) TimeToNextChange() float64 {
	return l.durations[l.state] - l.elapsed
}

// TotalCycleDuration returns the length of one full red-green-amber cycle.
func (l *TrafficLight) TotalCycleDuration() float64 {
	return l.durations[LightRed] + l.durations[LightGreen] + l.durations[LightAmber]
}

func (l *TrafficLight) String() string {
	return fmt.Sprintf("light(%s, changes in %.1fs)", l.state, l.TimeToNextChange())
}
