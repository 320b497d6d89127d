package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Vehicle is a single car on a route. Position is in meters from the route
// start, Speed is the cruising speed in km/h.
type Vehicle struct {
	ID       int
	Route    string
	Position float64
	Speed    float64
	// History lists every route the vehicle has been on, oldest first.
	History []string
}

// NewVehicle creates a vehicle on the named route.
// Negative id, position or speed are clamped to 0 with a warning.
func NewVehicle(id int, route string, position, speed float64) *Vehicle {
	if id < 0 {
		logrus.Warnf("vehicle id %d is negative, using 0", id)
		id = 0
	}
	if position < 0 {
		logrus.Warnf("vehicle %d: negative position %.2f clamped to 0", id, position)
		position = 0
	}
	if speed < 0 {
		logrus.Warnf("vehicle %d: negative speed %.2f clamped to 0", id, speed)
		speed = 0
	}
	return &Vehicle{
		ID:       id,
		Route:    route,
		Position: position,
		Speed:    speed,
		History:  []string{route},
	}
}

// Advance moves the vehicle forward by distance meters.
func (v *Vehicle) Advance(distance float64) error {
	if distance < 0 {
		return fmt.Errorf("vehicle %d advance by %.2f: %w", v.ID, distance, ErrNegativeDistance)
	}
	v.Position += distance
	return nil
}

// ChangeRoute moves the vehicle onto another route at the given position and
// records the route in its history.
func (v *Vehicle) ChangeRoute(route string, position float64) error {
	if route == "" {
		return fmt.Errorf("vehicle %d: %w", v.ID, ErrEmptyRouteName)
	}
	if position < 0 {
		return fmt.Errorf("vehicle %d entering %s at %.2f: %w", v.ID, route, position, ErrNegativePosition)
	}
	v.Route = route
	v.Position = position
	v.History = append(v.History, route)
	return nil
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("vehicle %d on %s at %.1fm, %.1fkm/h", v.ID, v.Route, v.Position, v.Speed)
}
