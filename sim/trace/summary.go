package trace

import (
	"fmt"
	"io"
)

// TraceSummary aggregates totals from a SimulationTrace.
type TraceSummary struct {
	Ticks               int     `json:"ticks"`
	FinalElapsed        float64 `json:"final_elapsed"`
	TotalRouteChanges   int     `json:"total_route_changes"`
	TotalVehiclesExited int     `json:"total_vehicles_exited"`
	PeakVehicles        int     `json:"peak_vehicles"`
	FinalVehicles       int     `json:"final_vehicles"`
	MeanDensity         float64 `json:"mean_density"` // averaged over ticks
}

// Summarize computes aggregate totals from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{}
	if st == nil || len(st.Ticks) == 0 {
		return summary
	}

	summary.Ticks = len(st.Ticks)
	densitySum := 0.0
	for _, tr := range st.Ticks {
		summary.TotalRouteChanges += tr.RouteChanges
		summary.TotalVehiclesExited += tr.VehiclesExited
		if tr.TotalVehicles > summary.PeakVehicles {
			summary.PeakVehicles = tr.TotalVehicles
		}
		densitySum += tr.MeanDensity
	}
	last := st.Ticks[len(st.Ticks)-1]
	summary.FinalElapsed = last.ElapsedTime + last.DT
	summary.FinalVehicles = last.TotalVehicles
	summary.MeanDensity = densitySum / float64(len(st.Ticks))

	return summary
}

// Print writes a human-readable summary.
func (s *TraceSummary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Summary ===")
	fmt.Fprintf(w, "Ticks                : %d\n", s.Ticks)
	fmt.Fprintf(w, "Simulated time       : %.0f s\n", s.FinalElapsed)
	fmt.Fprintf(w, "Vehicles (final/peak): %d / %d\n", s.FinalVehicles, s.PeakVehicles)
	fmt.Fprintf(w, "Route changes        : %d\n", s.TotalRouteChanges)
	fmt.Fprintf(w, "Vehicles exited      : %d\n", s.TotalVehiclesExited)
	fmt.Fprintf(w, "Mean density         : %.2f veh/km\n", s.MeanDensity)
}
