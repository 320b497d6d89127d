// Package trace provides per-tick snapshot recording for traffic simulation runs.
// This package has no dependencies on sim/. It stores pure data types that
// reporting, export and display code can consume without touching core state.
package trace

// RouteRecord captures the state of one route at the end of a tick.
// Speed fields are zero for an empty route.
type RouteRecord struct {
	Name         string  `json:"name"`
	VehicleCount int     `json:"vehicle_count"`
	MeanSpeed    float64 `json:"mean_speed"`
	MinSpeed     float64 `json:"min_speed"`
	MaxSpeed     float64 `json:"max_speed"`
	Density      float64 `json:"density"`
	SpeedLimit   float64 `json:"speed_limit"`
	Length       float64 `json:"length"`
}

// TickRecord captures one simulation tick.
type TickRecord struct {
	Tick int `json:"tick"`
	// ElapsedTime is the simulated time (seconds) at the start of the tick.
	ElapsedTime float64 `json:"elapsed_time"`
	// DT is the length of the tick in seconds.
	DT             float64       `json:"dt"`
	Routes         []RouteRecord `json:"routes"`
	TotalVehicles  int           `json:"total_vehicles"`
	MeanDensity    float64       `json:"mean_density"`
	MeanSpeed      float64       `json:"mean_speed"` // over all vehicles in the network
	RouteChanges   int           `json:"route_changes"`
	VehiclesExited int           `json:"vehicles_exited"`
}

// Route returns the record for the named route, or false if absent.
func (tr TickRecord) Route(name string) (RouteRecord, bool) {
	for _, r := range tr.Routes {
		if r.Name == name {
			return r, true
		}
	}
	return RouteRecord{}, false
}
