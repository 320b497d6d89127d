package trace

// SimulationTrace collects tick records during a simulation run.
type SimulationTrace struct {
	RunID string       `json:"run_id"`
	DT    float64      `json:"dt"`
	Ticks []TickRecord `json:"ticks"`
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(runID string, dt float64) *SimulationTrace {
	return &SimulationTrace{
		RunID: runID,
		DT:    dt,
		Ticks: make([]TickRecord, 0),
	}
}

// RecordTick appends a tick record.
func (st *SimulationTrace) RecordTick(record TickRecord) {
	st.Ticks = append(st.Ticks, record)
}

// Last returns the most recent tick record, or false if nothing was recorded.
func (st *SimulationTrace) Last() (TickRecord, bool) {
	if st == nil || len(st.Ticks) == 0 {
		return TickRecord{}, false
	}
	return st.Ticks[len(st.Ticks)-1], true
}
