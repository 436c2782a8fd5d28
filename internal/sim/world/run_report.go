package world

// RunReport is the per-run record written to the run journal and the index.
// One entry is produced per run, never per round.
type RunReport struct {
	RunID      string `json:"run_id"`
	WorldID    string `json:"world_id"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`

	// InputDigest is StateDigest of the starting positions.
	InputDigest string `json:"input_digest"`
	Agents      int    `json:"agents"`
	StartRound  uint64 `json:"start_round"`

	Rounds          uint64 `json:"rounds"`
	Stable          bool   `json:"stable"`
	FixedPointRound uint64 `json:"fixed_point_round,omitempty"`

	MetricRound uint64 `json:"metric_round,omitempty"`
	EmptyTiles  *int   `json:"empty_tiles,omitempty"`

	Bounds      *Bounds `json:"bounds,omitempty"`
	FinalDigest string  `json:"final_digest"`
	Error       string  `json:"error,omitempty"`
}

// Report fills the outcome fields of a RunReport from res and the world's
// current state. Identity and timing fields are left to the caller.
func (w *World) Report(res RunResult, runErr error) RunReport {
	rep := RunReport{
		WorldID:         w.cfg.ID,
		Agents:          len(w.agents),
		Rounds:          res.Rounds,
		Stable:          res.Stable,
		FixedPointRound: res.FixedPointRound,
		FinalDigest:     w.stateDigest(),
	}
	if res.EmptyTilesOK {
		n := res.EmptyTiles
		rep.EmptyTiles = &n
		rep.MetricRound = res.MetricRound
	}
	if b, ok := w.BoundingBox(); ok {
		rep.Bounds = &b
	}
	if runErr != nil {
		rep.Error = runErr.Error()
	}
	return rep
}
