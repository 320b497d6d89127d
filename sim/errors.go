package sim

import "errors"

// Operation precondition failures. Callers on the tick path log these and
// carry on; the receiver's state is unchanged whenever one is returned.
var (
	ErrNegativeDuration    = errors.New("time interval must be finite and not negative")
	ErrNegativeDistance    = errors.New("distance must not be negative")
	ErrNegativePosition    = errors.New("position must not be negative")
	ErrEmptyRouteName      = errors.New("route name must not be empty")
	ErrDuplicateVehicle    = errors.New("vehicle already on route")
	ErrVehicleNotFound     = errors.New("vehicle not found on route")
	ErrPositionOutOfBounds = errors.New("vehicle position exceeds route length")
	ErrLightOutOfBounds    = errors.New("light position outside route")
	ErrDuplicateRoute      = errors.New("route already exists")
	ErrUnknownRoute        = errors.New("route does not exist")
)

// ErrEmptyRoute is returned by Route.AdvanceTick when no vehicle is resident.
// It is informational: lights still advance and the tick continues.
var ErrEmptyRoute = errors.New("no vehicle on route, update not possible")

// Run-level failures.
var (
	ErrNoRoutes             = errors.New("network has no routes")
	ErrInvalidRunParameters = errors.New("tick count must not be negative and tick duration must be finite and not negative")
	ErrInterrupted          = errors.New("simulation stopped")
)
