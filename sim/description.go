package sim

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultVehicleSpeed is the initial speed (km/h) of a described vehicle
// that gives none.
const DefaultVehicleSpeed = 50.0

// NetworkDescription is the declarative form of a road network.
// Loaded from YAML (or JSON) via LoadNetworkDescription(path).
type NetworkDescription struct {
	Routes        []RouteSpec        `yaml:"routes"`
	Intersections []IntersectionSpec `yaml:"intersections"`
	Vehicles      []VehicleSpec      `yaml:"vehicles"`
}

// RouteSpec describes one route and its lights.
type RouteSpec struct {
	Name       string      `yaml:"name"`
	Length     float64     `yaml:"length"`      // meters
	SpeedLimit float64     `yaml:"speed_limit"` // km/h
	Lights     []LightSpec `yaml:"lights,omitempty"`
}

// LightSpec describes a traffic light. Exactly one of Duration (same length
// for every state) or Durations (per state) should be set.
type LightSpec struct {
	Position  *float64           `yaml:"position,omitempty"` // defaults to the route end
	Duration  float64            `yaml:"duration,omitempty"`
	Durations map[string]float64 `yaml:"durations,omitempty"`
	State     string             `yaml:"state,omitempty"` // initial state, default red
}

// IntersectionSpec links a source route to its destinations, in preference order.
type IntersectionSpec struct {
	Source       string   `yaml:"source"`
	Destinations []string `yaml:"destinations"`
}

// VehicleSpec describes an initial vehicle.
type VehicleSpec struct {
	ID       int      `yaml:"id"`
	Route    string   `yaml:"route"`
	Position float64  `yaml:"position,omitempty"`
	Speed    *float64 `yaml:"speed,omitempty"` // km/h, DefaultVehicleSpeed when omitted
}

// LoadNetworkDescription reads and parses a YAML network description file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadNetworkDescription(path string) (*NetworkDescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network description: %w", err)
	}
	return ParseNetworkDescription(data)
}

// ParseNetworkDescription parses a YAML (or JSON) network description.
func ParseNetworkDescription(data []byte) (*NetworkDescription, error) {
	var desc NetworkDescription
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&desc); err != nil {
		return nil, fmt.Errorf("parsing network description: %w", err)
	}
	return &desc, nil
}

// Cycle converts the light description into a Cycle.
func (ls LightSpec) Cycle() (Cycle, error) {
	switch {
	case len(ls.Durations) > 0 && ls.Duration != 0:
		return nil, fmt.Errorf("light sets both duration and durations")
	case len(ls.Durations) > 0:
		cycle := make(PerStateCycle, len(ls.Durations))
		for name, d := range ls.Durations {
			state, err := ParseLightState(name)
			if err != nil {
				return nil, err
			}
			cycle[state] = d
		}
		return cycle, nil
	default:
		return UniformCycle(ls.Duration), nil
	}
}

// Build creates a network from the description. Malformed entries are logged
// and skipped; the returned errors list every skipped entry.
func (d *NetworkDescription) Build(cfg NetworkConfig) (*Network, []error) {
	net := NewNetwork(cfg)
	var problems []error
	skip := func(err error) {
		logrus.Warnf("network description: skipping %v", err)
		problems = append(problems, err)
	}

	for i, rs := range d.Routes {
		if rs.Name == "" {
			skip(fmt.Errorf("routes[%d]: %w", i, ErrEmptyRouteName))
			continue
		}
		route := NewRoute(rs.Name, rs.Length, rs.SpeedLimit)
		if err := net.AddRoute(route); err != nil {
			skip(fmt.Errorf("routes[%d]: %w", i, err))
			continue
		}
		for j, ls := range rs.Lights {
			if err := addDescribedLight(route, ls); err != nil {
				skip(fmt.Errorf("routes[%d].lights[%d]: %w", i, j, err))
			}
		}
	}

	for i, is := range d.Intersections {
		for _, dest := range is.Destinations {
			if err := net.AddIntersection(is.Source, dest); err != nil {
				skip(fmt.Errorf("intersections[%d]: %w", i, err))
			}
		}
	}

	for i, vs := range d.Vehicles {
		route := net.Route(vs.Route)
		if route == nil {
			skip(fmt.Errorf("vehicles[%d] (id %d) on %q: %w", i, vs.ID, vs.Route, ErrUnknownRoute))
			continue
		}
		speed := DefaultVehicleSpeed
		if vs.Speed != nil {
			speed = *vs.Speed
		}
		if err := route.AddVehicle(NewVehicle(vs.ID, vs.Route, vs.Position, speed)); err != nil {
			skip(fmt.Errorf("vehicles[%d]: %w", i, err))
		}
	}

	logrus.Infof("network loaded: %d routes, %d vehicles, %d entries skipped",
		len(net.routes), net.TotalVehicleCount(), len(problems))
	return net, problems
}

func addDescribedLight(route *Route, ls LightSpec) error {
	cycle, err := ls.Cycle()
	if err != nil {
		return err
	}
	state := LightRed
	if ls.State != "" {
		if state, err = ParseLightState(ls.State); err != nil {
			return err
		}
	}
	light := NewTrafficLightInState(cycle, state)
	if ls.Position == nil {
		route.AddLight(light)
		return nil
	}
	return route.AddLightAt(light, *ls.Position)
}
