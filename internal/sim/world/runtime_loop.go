package world

import (
	"context"
	"time"
)

type RunOptions struct {
	// MaxRounds caps the rounds executed by this call. 0 means no cap.
	MaxRounds int
	// MetricRounds samples the empty-tile metric once the world has executed
	// this many rounds in total. 0 disables the metric.
	MetricRounds int
}

type RunResult struct {
	// FixedPointRound is the 1-based number of the first round in which no
	// agent moved. Valid only when Stable.
	FixedPointRound uint64
	Stable          bool
	// Rounds executed by this call.
	Rounds uint64

	EmptyTiles   int
	EmptyTilesOK bool
	MetricRound  uint64
}

// Run steps the world until a round commits no move, the round cap is hit
// (ErrRoundCap) or ctx is done.
//
// If the fixed point comes before MetricRounds, the metric is sampled on the
// stable positions: later rounds would not change them.
func (w *World) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	var res RunResult

	var pace <-chan time.Time
	if w.cfg.RoundsPerSecond > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(w.cfg.RoundsPerSecond))
		defer ticker.Stop()
		pace = ticker.C
	}

	sample := func() {
		res.EmptyTiles, res.EmptyTilesOK = w.EmptyTiles()
		res.MetricRound = uint64(opts.MetricRounds)
	}
	wantMetric := opts.MetricRounds > 0 && w.round < uint64(opts.MetricRounds)

	for {
		if opts.MaxRounds > 0 && res.Rounds >= uint64(opts.MaxRounds) {
			return res, ErrRoundCap
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-pace:
			}
		}

		rep := w.StepOnce()
		res.Rounds++

		if wantMetric && w.round == uint64(opts.MetricRounds) {
			sample()
			wantMetric = false
		}
		if !rep.AnyMoved() {
			res.Stable = true
			res.FixedPointRound = rep.Round + 1
			if wantMetric {
				sample()
			}
			return res, nil
		}
	}
}
