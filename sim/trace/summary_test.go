package trace

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace("", 60)

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	assert.Equal(t, TraceSummary{}, *summary)
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	assert.Equal(t, TraceSummary{}, *Summarize(nil))
}

func TestSummarize_PopulatedTrace_CorrectTotals(t *testing.T) {
	// GIVEN a trace with three ticks of 10s
	st := NewSimulationTrace("r", 10)
	st.RecordTick(TickRecord{Tick: 0, ElapsedTime: 0, DT: 10, TotalVehicles: 4, MeanDensity: 2, RouteChanges: 1, VehiclesExited: 1})
	st.RecordTick(TickRecord{Tick: 1, ElapsedTime: 10, DT: 10, TotalVehicles: 6, MeanDensity: 4, RouteChanges: 2, VehiclesExited: 3})
	st.RecordTick(TickRecord{Tick: 2, ElapsedTime: 20, DT: 10, TotalVehicles: 5, MeanDensity: 3, RouteChanges: 0, VehiclesExited: 1})

	// WHEN summarized
	summary := Summarize(st)

	// THEN totals, peak and final values match
	assert.Equal(t, 3, summary.Ticks)
	assert.Equal(t, 3, summary.TotalRouteChanges)
	assert.Equal(t, 5, summary.TotalVehiclesExited)
	assert.Equal(t, 6, summary.PeakVehicles)
	assert.Equal(t, 5, summary.FinalVehicles)
	assert.InDelta(t, 30.0, summary.FinalElapsed, 1e-9)
	assert.InDelta(t, 3.0, summary.MeanDensity, 1e-9)
}

func TestTraceSummary_Print_ContainsHeader(t *testing.T) {
	var buf bytes.Buffer
	(&TraceSummary{Ticks: 2, TotalVehiclesExited: 7}).Print(&buf)

	out := buf.String()
	assert.Contains(t, out, "Simulation Summary")
	assert.Contains(t, out, "Vehicles exited      : 7")
}

func TestSummarize_MixedTickLengths_UsesLastTickLength(t *testing.T) {
	// GIVEN two runs, the second with a shorter tick
	st := NewSimulationTrace("r", 60)
	st.RecordTick(TickRecord{Tick: 0, ElapsedTime: 0, DT: 60})
	st.RecordTick(TickRecord{Tick: 1, ElapsedTime: 60, DT: 60})
	st.RecordTick(TickRecord{Tick: 2, ElapsedTime: 120, DT: 5})
	st.DT = 5

	// WHEN summarized
	summary := Summarize(st)

	// THEN the final elapsed time ends the last tick
	assert.InDelta(t, 125.0, summary.FinalElapsed, 1e-9)
}
